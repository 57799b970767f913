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
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/loqalabs/loqa-narrator/internal/config"
	"github.com/loqalabs/loqa-narrator/internal/logging"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient implements Generator against the Gemini API
type GeminiClient struct {
	config     config.GeminiConfig
	httpClient *http.Client
	semaphore  chan struct{} // Limits concurrent requests
}

// NewGeminiClient creates a Gemini speech client. No credential is bound at
// construction; each call supplies the key currently in effect.
func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	client := &GeminiClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		semaphore:  make(chan struct{}, maxConcurrent),
	}

	if logging.Sugar != nil {
		logging.Sugar.Infow("🔊 Gemini TTS client initialized",
			"base_url", cfg.BaseURL,
			"model", cfg.Model,
			"max_concurrent", maxConcurrent,
		)
	}

	return client
}

// Generate sends the prompt as a single user text part and requests audio
// output spoken with the selected prebuilt voice.
func (c *GeminiClient) Generate(ctx context.Context, apiKey string, req *GenerationRequest) (*GenerationResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("generation request cannot be nil")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	select {
	case c.semaphore <- struct{}{}:
		defer func() { <-c.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  c.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.config.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: req.Prompt}},
		},
	}
	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: string(req.Voice),
				},
			},
		},
	}

	startTime := time.Now()
	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, genConfig)
	if err != nil {
		return nil, translateError(err)
	}

	result := convertResponse(resp)

	logging.LogSynthesis("generate",
		zap.String("model", req.Model),
		zap.String("voice", string(req.Voice)),
		zap.Int("prompt_length", len(req.Prompt)),
		zap.Int("parts", len(result.Parts)),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	return result, nil
}

// convertResponse keeps the parts of the first candidate only
func convertResponse(resp *genai.GenerateContentResponse) *GenerationResponse {
	result := &GenerationResponse{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return result
	}

	candidate := resp.Candidates[0]
	result.FinishReason = string(candidate.FinishReason)
	if candidate.Content == nil {
		return result
	}

	for _, p := range candidate.Content.Parts {
		if p == nil {
			continue
		}
		part := ResponsePart{Text: p.Text}
		if p.InlineData != nil {
			part.InlineData = &InlineData{
				MIMEType: p.InlineData.MIMEType,
				Data:     p.InlineData.Data,
			}
		}
		result.Parts = append(result.Parts, part)
	}
	return result
}

func translateError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &APIError{StatusCode: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message, Err: err}
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
