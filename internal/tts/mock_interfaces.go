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
	"sync"
)

// MockGenerator implements Generator for testing
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, apiKey string, req *GenerationRequest) (*GenerationResponse, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a single Generate invocation
type MockCall struct {
	APIKey  string
	Request GenerationRequest
}

func (m *MockGenerator) Generate(ctx context.Context, apiKey string, req *GenerationRequest) (*GenerationResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{APIKey: apiKey, Request: *req})
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, apiKey, req)
	}
	return AudioResponse("audio/L16;codec=pcm;rate=24000", make([]byte, 480)), nil
}

// Calls returns the recorded invocations
func (m *MockGenerator) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// AudioResponse builds a response whose only part is an inline audio payload
func AudioResponse(mimeType string, data []byte) *GenerationResponse {
	return &GenerationResponse{
		Parts:        []ResponsePart{{InlineData: &InlineData{MIMEType: mimeType, Data: data}}},
		FinishReason: "STOP",
	}
}

// TextResponse builds a response whose only part is text
func TextResponse(text string) *GenerationResponse {
	return &GenerationResponse{
		Parts:        []ResponsePart{{Text: text}},
		FinishReason: "STOP",
	}
}
