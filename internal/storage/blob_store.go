/*
 * This file is part of Loqa Narrator (https://github.com/loqalabs/loqa-narrator).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/loqalabs/loqa-narrator/internal/logging"
	"github.com/loqalabs/loqa-narrator/internal/wav"
	"go.uber.org/zap"
)

// Blob is a finished audio container held in memory until released
type Blob struct {
	ID          string
	DocumentID  string
	Name        string // Download file name
	ContentType string
	Data        []byte
	Format      wav.Format // Sample layout of the container
	Duration    time.Duration
	CreatedAt   time.Time
}

// BlobStore is a bounded registry of audio containers. The least recently
// used container is dropped when the bound is reached. Safe for concurrent use.
type BlobStore struct {
	cache *lru.Cache[string, *Blob]
}

// NewBlobStore creates a registry holding at most maxBlobs containers
func NewBlobStore(maxBlobs int) (*BlobStore, error) {
	cache, err := lru.NewWithEvict[string, *Blob](maxBlobs, func(id string, blob *Blob) {
		logging.LogSynthesis("audio_released",
			zap.String("audio_id", id),
			zap.Int("size_bytes", len(blob.Data)),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blob registry: %w", err)
	}
	return &BlobStore{cache: cache}, nil
}

// Put registers blob, assigning an ID and creation time when unset, and
// returns its ID
func (s *BlobStore) Put(blob *Blob) string {
	if blob.ID == "" {
		blob.ID = uuid.NewString()
	}
	if blob.CreatedAt.IsZero() {
		blob.CreatedAt = time.Now().UTC()
	}
	if blob.ContentType == "" {
		blob.ContentType = "audio/wav"
	}
	s.cache.Add(blob.ID, blob)
	return blob.ID
}

// Get returns the blob registered under id
func (s *BlobStore) Get(id string) (*Blob, bool) {
	return s.cache.Get(id)
}

// Release drops the blob registered under id and reports whether it existed
func (s *BlobStore) Release(id string) bool {
	return s.cache.Remove(id)
}

// ReleaseDocument drops every blob produced from documentID and returns
// how many were released
func (s *BlobStore) ReleaseDocument(documentID string) int {
	released := 0
	for _, id := range s.cache.Keys() {
		blob, ok := s.cache.Peek(id)
		if ok && blob.DocumentID == documentID && s.cache.Remove(id) {
			released++
		}
	}
	return released
}

// Len returns the number of registered blobs
func (s *BlobStore) Len() int {
	return s.cache.Len()
}
