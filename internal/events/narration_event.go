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

package events

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NarrationEvent records a single narration attempt from extraction to audio
type NarrationEvent struct {
	// Core identification
	UUID         string    `json:"uuid" db:"uuid"`
	DocumentID   string    `json:"document_id" db:"document_id"`
	DocumentName string    `json:"document_name" db:"document_name"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`

	// Request
	StartPage  int    `json:"start_page" db:"start_page"`
	EndPage    int    `json:"end_page" db:"end_page"`
	Voice      string `json:"voice" db:"voice"`
	Model      string `json:"model" db:"model"`
	TextLength int    `json:"text_length" db:"text_length"`

	// Audio
	AudioID       string  `json:"audio_id,omitempty" db:"audio_id"`
	AudioHash     string  `json:"audio_hash,omitempty" db:"audio_hash"`
	AudioBytes    int     `json:"audio_bytes" db:"audio_bytes"`
	AudioDuration float64 `json:"audio_duration" db:"audio_duration"`

	// Outcome
	ProcessingTime int64  `json:"processing_time_ms" db:"processing_time_ms"`
	Success        bool   `json:"success" db:"success"`
	ErrorKind      string `json:"error_kind,omitempty" db:"error_kind"`
	ErrorMessage   string `json:"error_message,omitempty" db:"error_message"`
}

// NewNarrationEvent creates a NarrationEvent with a fresh UUID and timestamp
func NewNarrationEvent(documentID, documentName string) *NarrationEvent {
	return &NarrationEvent{
		UUID:         uuid.NewString(),
		DocumentID:   documentID,
		DocumentName: documentName,
		Timestamp:    time.Now().UTC(),
		Success:      true,
	}
}

// GetUUID returns the event identifier
func (ne *NarrationEvent) GetUUID() string {
	return ne.UUID
}

// SetRequest records the requested page range and synthesis parameters
func (ne *NarrationEvent) SetRequest(startPage, endPage int, voice, model string) {
	ne.StartPage = startPage
	ne.EndPage = endPage
	ne.Voice = voice
	ne.Model = model
}

// SetAudio records the produced audio container and marks processing complete
func (ne *NarrationEvent) SetAudio(audioID string, container []byte, duration time.Duration) {
	sum := sha256.Sum256(container)
	ne.AudioID = audioID
	ne.AudioHash = hex.EncodeToString(sum[:])
	ne.AudioBytes = len(container)
	ne.AudioDuration = duration.Seconds()
	ne.ProcessingTime = time.Since(ne.Timestamp).Milliseconds()
}

// SetError marks the event as failed
func (ne *NarrationEvent) SetError(kind string, err error) {
	ne.Success = false
	ne.ErrorKind = kind
	if err != nil {
		ne.ErrorMessage = err.Error()
	}
	ne.ProcessingTime = time.Since(ne.Timestamp).Milliseconds()
}

// IsValid performs basic validation on the narration event
func (ne *NarrationEvent) IsValid() error {
	if ne.UUID == "" {
		return fmt.Errorf("UUID is required")
	}

	if ne.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	if ne.Success && ne.AudioID == "" {
		return fmt.Errorf("successful narration requires an audio ID")
	}

	if !ne.Success && ne.ErrorKind == "" {
		return fmt.Errorf("failed narration requires an error kind")
	}

	if ne.AudioBytes < 0 || ne.TextLength < 0 {
		return fmt.Errorf("sizes cannot be negative")
	}

	return nil
}

// String returns a human-readable representation of the narration event
func (ne *NarrationEvent) String() string {
	return fmt.Sprintf("NarrationEvent{UUID: %s, Document: %q, Pages: %d-%d, Voice: %s, Success: %t}",
		ne.UUID, ne.DocumentName, ne.StartPage, ne.EndPage, ne.Voice, ne.Success)
}
