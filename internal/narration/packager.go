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

package narration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/loqalabs/loqa-narrator/internal/logging"
	"github.com/loqalabs/loqa-narrator/internal/storage"
	"github.com/loqalabs/loqa-narrator/internal/tts"
	"github.com/loqalabs/loqa-narrator/internal/wav"
	"go.uber.org/zap"
)

// MaxExcerptLength bounds the model text carried by a GenerationRefused error
const MaxExcerptLength = 100

// CredentialSource resolves the API key in effect for a single call
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

// Request is a single synthesis call
type Request struct {
	Text       string
	Voice      tts.Voice
	Model      string // Empty selects the packager default
	DocumentID string // Owner of the produced container, used for release on reset
	Name       string // Download file name of the produced container
}

// Result references a finished audio container
type Result struct {
	AudioID       string // Registry ID; empty when no registry is attached
	Container     []byte
	Format        wav.Format
	FormatAssumed bool
	Duration      time.Duration
	Voice         tts.Voice
	Model         string
}

// Size returns the container length in bytes
func (r *Result) Size() int {
	return len(r.Container)
}

// Packager turns text into a playable WAV container via a speech generator
type Packager struct {
	generator    tts.Generator
	credentials  CredentialSource
	blobs        *storage.BlobStore
	defaultModel string
}

// NewPackager creates a packager. blobs may be nil, in which case results
// are returned without being registered.
func NewPackager(generator tts.Generator, credentials CredentialSource, blobs *storage.BlobStore, defaultModel string) *Packager {
	if defaultModel == "" {
		defaultModel = tts.DefaultModel
	}
	return &Packager{
		generator:    generator,
		credentials:  credentials,
		blobs:        blobs,
		defaultModel: defaultModel,
	}
}

// Synthesize makes exactly one generation call for req.Text and packages the
// returned samples into a WAV container. Nothing is produced on failure.
func (p *Packager) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, newError(KindInput, MsgNoText, nil)
	}

	apiKey, err := p.credentials.APIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve API key: %w", err)
	}
	if apiKey == "" {
		return nil, newError(KindAuth, MsgMissingKey, nil)
	}

	if !req.Voice.Valid() {
		return nil, newError(KindInput, fmt.Sprintf("Unknown voice %q.", req.Voice), nil)
	}

	modelID := req.Model
	if modelID == "" {
		modelID = p.defaultModel
	}
	model, err := tts.SpeechModel(modelID)
	if err != nil {
		return nil, newError(KindInput, fmt.Sprintf("Model %q cannot be used for narration.", modelID), err)
	}

	startTime := time.Now()
	resp, err := p.generator.Generate(ctx, apiKey, &tts.GenerationRequest{
		Model:  model,
		Prompt: BuildPrompt(req.Text),
		Voice:  req.Voice,
	})
	if err != nil {
		var apiErr *tts.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			return nil, newError(KindRequestTooLarge, MsgTooLarge, err)
		}
		return nil, err
	}

	audio, hasAudio := resp.AudioPart()
	if text, hasText := resp.TextPart(); hasText && !hasAudio {
		excerpt := truncateRunes(text, MaxExcerptLength)
		logging.LogWarn("Model returned text instead of audio", zap.String("excerpt", excerpt))
		return nil, &Error{
			Kind:    KindGenerationRefused,
			Message: "Model returned text response: " + excerpt + "...",
			Excerpt: excerpt,
		}
	}
	if !hasAudio || len(audio.Data) == 0 {
		return nil, newError(KindNoAudioReturned, MsgNoAudio, nil)
	}

	decision := tts.PCMFormatFor(audio.MIMEType)
	if decision.Warning != "" {
		logging.LogWarn("Audio format not confirmed by payload",
			zap.String("mime_type", audio.MIMEType),
			zap.String("warning", decision.Warning),
		)
	}

	container, err := wav.Encode(audio.Data, decision.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to package audio: %w", err)
	}

	result := &Result{
		Container:     container,
		Format:        decision.Format,
		FormatAssumed: decision.Assumed,
		Duration:      decision.Format.Duration(len(audio.Data)),
		Voice:         req.Voice,
		Model:         model,
	}

	if p.blobs != nil {
		result.AudioID = p.blobs.Put(&storage.Blob{
			DocumentID: req.DocumentID,
			Name:       req.Name,
			Data:       container,
			Format:     decision.Format,
			Duration:   result.Duration,
		})
	}

	logging.LogSynthesis("package",
		zap.String("audio_id", result.AudioID),
		zap.String("voice", string(req.Voice)),
		zap.String("model", model),
		zap.Int("pcm_bytes", len(audio.Data)),
		zap.Duration("audio_duration", result.Duration),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	return result, nil
}

// Blob returns the registered container for id
func (p *Packager) Blob(id string) (*storage.Blob, bool) {
	if p.blobs == nil {
		return nil, false
	}
	return p.blobs.Get(id)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
