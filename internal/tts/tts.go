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

package tts

import (
	"context"
	"fmt"
)

// GenerationRequest is a single speech generation call
type GenerationRequest struct {
	Model  string // Model identity, e.g. "gemini-2.5-flash-preview-tts"
	Prompt string // Full narration instruction sent as the only text part
	Voice  Voice  // Prebuilt voice forwarded as a synthesis parameter
}

// InlineData is a binary payload returned inline by the model
type InlineData struct {
	MIMEType string
	Data     []byte // Decoded payload bytes
}

// ResponsePart is one content part of the first candidate
type ResponsePart struct {
	Text       string
	InlineData *InlineData
}

// GenerationResponse holds the content parts of the first candidate
type GenerationResponse struct {
	Parts        []ResponsePart
	FinishReason string
}

// TextPart returns the first non-empty text part
func (r *GenerationResponse) TextPart() (string, bool) {
	if r == nil {
		return "", false
	}
	for _, p := range r.Parts {
		if p.Text != "" {
			return p.Text, true
		}
	}
	return "", false
}

// AudioPart returns the first part carrying inline data
func (r *GenerationResponse) AudioPart() (*InlineData, bool) {
	if r == nil {
		return nil, false
	}
	for _, p := range r.Parts {
		if p.InlineData != nil {
			return p.InlineData, true
		}
	}
	return nil, false
}

// Generator calls an external speech generation service. The API key is
// passed on every call so a changed credential takes effect immediately.
type Generator interface {
	Generate(ctx context.Context, apiKey string, req *GenerationRequest) (*GenerationResponse, error)
}

// APIError is a transport-level failure reported by the generation service
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("generation API error %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("generation API error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
