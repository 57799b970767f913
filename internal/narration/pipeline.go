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
	"fmt"
	"unicode/utf8"

	"github.com/loqalabs/loqa-narrator/internal/document"
	"github.com/loqalabs/loqa-narrator/internal/events"
	"github.com/loqalabs/loqa-narrator/internal/logging"
	"github.com/loqalabs/loqa-narrator/internal/storage"
	"github.com/loqalabs/loqa-narrator/internal/tts"
	"go.uber.org/zap"
)

// DefaultMinTextLength is the shortest extraction accepted for narration
const DefaultMinTextLength = 10

// Step is a stage of the narration flow
type Step string

const (
	StepIdle       Step = "idle"
	StepExtracting Step = "extracting"
	StepGenerating Step = "generating"
	StepComplete   Step = "complete"
	StepError      Step = "error"
)

// Status is a progress report for a running narration
type Status struct {
	Step    Step   `json:"step"`
	Message string `json:"message,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`
}

// Status messages
const (
	MsgExtracting = "Reading document content..."
	MsgGenerating = "Gemini is narrating your audiobook..."
	MsgComplete   = "Your audiobook is ready."
)

// StatusFunc receives status transitions
type StatusFunc func(Status)

// HistoryRecorder persists narration attempts
type HistoryRecorder interface {
	Insert(ctx context.Context, event *events.NarrationEvent) error
}

// EventPublisher announces narration attempts
type EventPublisher interface {
	PublishNarration(event *events.NarrationEvent) error
}

// AudioPublisher delivers finished containers
type AudioPublisher interface {
	PublishAudio(blob *storage.Blob) error
}

// Job is one extract-then-synthesize run over a loaded document
type Job struct {
	Document     document.Document
	DocumentID   string
	DocumentName string
	StartPage    int
	EndPage      int
	Voice        tts.Voice
	Model        string
	OnStatus     StatusFunc
}

// Pipeline runs extraction and synthesis sequentially for a job
type Pipeline struct {
	packager      *Packager
	minTextLength int
	history       HistoryRecorder
	events        EventPublisher
	audio         AudioPublisher
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithMinTextLength overrides the minimum extraction length
func WithMinTextLength(n int) PipelineOption {
	return func(p *Pipeline) { p.minTextLength = n }
}

// WithHistory records every attempt
func WithHistory(h HistoryRecorder) PipelineOption {
	return func(p *Pipeline) { p.history = h }
}

// WithEvents publishes every attempt
func WithEvents(e EventPublisher) PipelineOption {
	return func(p *Pipeline) { p.events = e }
}

// WithAudioPublisher delivers each finished container
func WithAudioPublisher(a AudioPublisher) PipelineOption {
	return func(p *Pipeline) { p.audio = a }
}

// NewPipeline creates a pipeline around packager
func NewPipeline(packager *Packager, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		packager:      packager,
		minTextLength: DefaultMinTextLength,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Packager returns the packager used for synthesis
func (p *Pipeline) Packager() *Packager {
	return p.packager
}

// Run extracts the requested pages and narrates them. Text shorter than the
// minimum length is rejected before any generation call.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Result, error) {
	report := func(s Status) {
		if job.OnStatus != nil {
			job.OnStatus(s)
		}
	}

	event := events.NewNarrationEvent(job.DocumentID, job.DocumentName)
	event.SetRequest(job.StartPage, job.EndPage, string(job.Voice), job.Model)

	result, err := p.run(ctx, job, event, report)
	if err != nil {
		kind := KindOf(err)
		event.SetError(string(kindOrUnknown(kind)), err)
		report(Status{Step: StepError, Message: err.Error(), Kind: kind})
		logging.LogNarrationEvent(event, "Narration failed",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	} else {
		event.Model = result.Model
		event.SetAudio(result.AudioID, result.Container, result.Duration)
		report(Status{Step: StepComplete, Message: MsgComplete})
		logging.LogNarrationEvent(event, "Narration complete",
			zap.Int("size_bytes", result.Size()),
			zap.Duration("audio_duration", result.Duration),
		)
	}

	p.record(context.WithoutCancel(ctx), event, result)
	return result, err
}

func (p *Pipeline) run(ctx context.Context, job Job, event *events.NarrationEvent, report StatusFunc) (*Result, error) {
	if job.Document == nil {
		return nil, InputError("No document loaded.")
	}

	report(Status{Step: StepExtracting, Message: MsgExtracting})
	text, err := document.Extract(ctx, job.Document, job.StartPage, job.EndPage)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("failed to extract text: %w", err)
		}
		return nil, ExtractionFailure(err)
	}
	event.TextLength = utf8.RuneCountInString(text)

	if event.TextLength < p.minTextLength {
		return nil, newError(KindExtractionTooShort, MsgTooShort, nil)
	}

	report(Status{Step: StepGenerating, Message: MsgGenerating})
	return p.packager.Synthesize(ctx, Request{
		Text:       text,
		Voice:      job.Voice,
		Model:      job.Model,
		DocumentID: job.DocumentID,
		Name:       job.DocumentName + "_narration.wav",
	})
}

// record hands the attempt to the optional sinks; their failures are logged
// and never change the outcome of the run.
func (p *Pipeline) record(ctx context.Context, event *events.NarrationEvent, result *Result) {
	if p.history != nil {
		if err := p.history.Insert(ctx, event); err != nil {
			logging.LogError(err, "Failed to record narration history", zap.String("narration_id", event.UUID))
		}
	}

	if p.events != nil {
		if err := p.events.PublishNarration(event); err != nil {
			logging.LogError(err, "Failed to publish narration event", zap.String("narration_id", event.UUID))
		}
	}

	if p.audio != nil && result != nil && result.AudioID != "" {
		if blob, ok := p.packager.Blob(result.AudioID); ok {
			if err := p.audio.PublishAudio(blob); err != nil {
				logging.LogError(err, "Failed to publish narration audio", zap.String("audio_id", result.AudioID))
			}
		}
	}
}

func kindOrUnknown(k Kind) Kind {
	if k == "" {
		return "InternalError"
	}
	return k
}
