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

package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/loqalabs/loqa-narrator/internal/document"
	"github.com/loqalabs/loqa-narrator/internal/narration"
)

// DefaultMaxSessions bounds the number of documents held open at once
const DefaultMaxSessions = 16

// Session is an uploaded document and the state of its latest narration
type Session struct {
	ID        string
	Name      string
	Document  document.Document
	CreatedAt time.Time

	mu     sync.Mutex
	status narration.Status
	audio  string
}

// Status returns the last reported narration status
func (s *Session) Status() narration.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// AudioID returns the audio produced by the last successful narration
func (s *Session) AudioID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio
}

// SetStatus records a status transition
func (s *Session) SetStatus(status narration.Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Begin marks the session busy. It fails if a narration is already running.
func (s *Session) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return false
	}
	s.status = narration.Status{Step: narration.StepExtracting, Message: narration.MsgExtracting}
	return true
}

// finish records the audio of a completed run
func (s *Session) finish(audioID string) {
	s.mu.Lock()
	s.audio = audioID
	s.mu.Unlock()
}

func (s *Session) busy() bool {
	return s.status.Step == narration.StepExtracting || s.status.Step == narration.StepGenerating
}

// SessionStore holds open documents. The least recently used document is
// evicted when the bound is reached, with onEvict called for it.
type SessionStore struct {
	cache   *lru.Cache[string, *Session]
	onEvict func(*Session)
}

// NewSessionStore creates a store for at most maxSessions documents
func NewSessionStore(maxSessions int, onEvict func(*Session)) (*SessionStore, error) {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	cache, err := lru.NewWithEvict[string, *Session](maxSessions, func(_ string, s *Session) {
		if onEvict != nil {
			onEvict(s)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}
	return &SessionStore{cache: cache, onEvict: onEvict}, nil
}

// Open registers doc under a fresh ID
func (st *SessionStore) Open(name string, doc document.Document) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Document:  doc,
		CreatedAt: time.Now().UTC(),
		status:    narration.Status{Step: narration.StepIdle},
	}
	st.cache.Add(s.ID, s)
	return s
}

// Get returns the session registered under id
func (st *SessionStore) Get(id string) (*Session, bool) {
	return st.cache.Get(id)
}

// Close drops the session registered under id
func (st *SessionStore) Close(id string) bool {
	return st.cache.Remove(id)
}

// Len returns the number of open sessions
func (st *SessionStore) Len() int {
	return st.cache.Len()
}

// settle reports whether s is still open once a run has returned. A session
// closed mid-run is evicted again so anything the run produced for it is
// released.
func (st *SessionStore) settle(s *Session) bool {
	if current, ok := st.cache.Peek(s.ID); ok && current == s {
		return true
	}
	if st.onEvict != nil {
		st.onEvict(s)
	}
	return false
}
