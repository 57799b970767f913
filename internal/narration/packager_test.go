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
	"encoding/binary"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/loqalabs/loqa-narrator/internal/settings"
	"github.com/loqalabs/loqa-narrator/internal/storage"
	"github.com/loqalabs/loqa-narrator/internal/tts"
	"github.com/loqalabs/loqa-narrator/internal/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPackager(t *testing.T, gen tts.Generator, apiKey string) (*Packager, *storage.BlobStore) {
	t.Helper()
	blobs, err := storage.NewBlobStore(8)
	require.NoError(t, err)
	return NewPackager(gen, settings.NewCredentials(nil, apiKey), blobs, ""), blobs
}

func TestSynthesize_EmptyTextFailsBeforeNetwork(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		gen := &tts.MockGenerator{}
		p, _ := newTestPackager(t, gen, "key")

		_, err := p.Synthesize(context.Background(), Request{Text: text, Voice: tts.VoiceKore})

		assert.ErrorIs(t, err, ErrInput)
		assert.Equal(t, MsgNoText, err.Error())
		assert.Empty(t, gen.Calls(), "no generation call expected for %q", text)
	}
}

func TestSynthesize_MissingCredential(t *testing.T) {
	gen := &tts.MockGenerator{}
	p, _ := newTestPackager(t, gen, "")

	_, err := p.Synthesize(context.Background(), Request{Text: "Call me Ishmael.", Voice: tts.VoiceKore})

	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, KindAuth, KindOf(err))
	assert.Empty(t, gen.Calls())
}

func TestSynthesize_CredentialResolvedPerCall(t *testing.T) {
	ctx := context.Background()
	gen := &tts.MockGenerator{}
	store := settings.NewMemoryStore()
	creds := settings.NewCredentials(store, "default-key")
	p := NewPackager(gen, creds, nil, "")

	_, err := p.Synthesize(ctx, Request{Text: "first call", Voice: tts.VoiceKore})
	require.NoError(t, err)

	require.NoError(t, creds.SetCustomAPIKey(ctx, "custom-key"))
	_, err = p.Synthesize(ctx, Request{Text: "second call", Voice: tts.VoiceKore})
	require.NoError(t, err)

	calls := gen.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "default-key", calls[0].APIKey)
	assert.Equal(t, "custom-key", calls[1].APIKey)
}

func TestSynthesize_InvalidVoiceAndModel(t *testing.T) {
	gen := &tts.MockGenerator{}
	p, _ := newTestPackager(t, gen, "key")

	_, err := p.Synthesize(context.Background(), Request{Text: "hello there", Voice: "Alloy"})
	assert.ErrorIs(t, err, ErrInput)

	_, err = p.Synthesize(context.Background(), Request{Text: "hello there", Voice: tts.VoicePuck, Model: "gemini-3-pro-preview"})
	assert.ErrorIs(t, err, ErrInput)

	assert.Empty(t, gen.Calls())
}

func TestSynthesize_RequestShape(t *testing.T) {
	gen := &tts.MockGenerator{}
	p, _ := newTestPackager(t, gen, "key")

	text := "\n\n--- Page 1 ---\n\nIt was the best of times."
	_, err := p.Synthesize(context.Background(), Request{Text: text, Voice: tts.VoiceCharon})
	require.NoError(t, err)

	calls := gen.Calls()
	require.Len(t, calls, 1)
	req := calls[0].Request
	assert.Equal(t, tts.DefaultModel, req.Model)
	assert.Equal(t, tts.VoiceCharon, req.Voice)
	assert.True(t, strings.HasPrefix(req.Prompt, "Task: Read the following text as a professional audiobook narrator."))
	assert.True(t, strings.HasSuffix(req.Prompt, `"`+text+`"`), "text must be substituted verbatim")
}

func TestSynthesize_Success(t *testing.T) {
	pcm := make([]byte, 48000) // one second
	for i := range pcm {
		pcm[i] = byte(i)
	}
	gen := &tts.MockGenerator{
		GenerateFunc: func(ctx context.Context, apiKey string, req *tts.GenerationRequest) (*tts.GenerationResponse, error) {
			return tts.AudioResponse("audio/L16;codec=pcm;rate=24000", pcm), nil
		},
	}
	p, blobs := newTestPackager(t, gen, "key")

	result, err := p.Synthesize(context.Background(), Request{
		Text:       "Some narration text",
		Voice:      tts.VoiceZephyr,
		DocumentID: "doc-1",
		Name:       "book_narration.wav",
	})
	require.NoError(t, err)

	assert.Equal(t, wav.HeaderSize+len(pcm), result.Size())
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(result.Container[4:8]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(result.Container[40:44]))
	assert.Equal(t, pcm, result.Container[wav.HeaderSize:])
	assert.Equal(t, wav.GeminiPCM, result.Format)
	assert.False(t, result.FormatAssumed)
	assert.Equal(t, "1s", result.Duration.String())

	blob, ok := blobs.Get(result.AudioID)
	require.True(t, ok)
	assert.Equal(t, result.Container, blob.Data)
	assert.Equal(t, "doc-1", blob.DocumentID)
	assert.Equal(t, "book_narration.wav", blob.Name)

	h, err := wav.ParseHeader(result.Container)
	require.NoError(t, err)
	f := h.Format()
	assert.Equal(t, uint32(24000), f.SampleRate)
	assert.Equal(t, uint16(1), f.Channels)
	assert.Equal(t, uint16(16), f.BitsPerSample)
}

func TestSynthesize_Refusal(t *testing.T) {
	gen := &tts.MockGenerator{
		GenerateFunc: func(ctx context.Context, apiKey string, req *tts.GenerationRequest) (*tts.GenerationResponse, error) {
			return tts.TextResponse("I cannot read this content"), nil
		},
	}
	p, blobs := newTestPackager(t, gen, "key")

	_, err := p.Synthesize(context.Background(), Request{Text: "text", Voice: tts.VoiceKore})

	require.ErrorIs(t, err, ErrGenerationRefused)
	var nerr *Error
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "I cannot read this content", nerr.Excerpt)
	assert.Contains(t, nerr.Message, "I cannot read this content")
	assert.Equal(t, 0, blobs.Len())
}

func TestSynthesize_RefusalExcerptTruncated(t *testing.T) {
	long := strings.Repeat("é", 250)
	gen := &tts.MockGenerator{
		GenerateFunc: func(ctx context.Context, apiKey string, req *tts.GenerationRequest) (*tts.GenerationResponse, error) {
			return tts.TextResponse(long), nil
		},
	}
	p, _ := newTestPackager(t, gen, "key")

	_, err := p.Synthesize(context.Background(), Request{Text: "text", Voice: tts.VoiceKore})

	var nerr *Error
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, MaxExcerptLength, len([]rune(nerr.Excerpt)))
}

func TestSynthesize_NoAudio(t *testing.T) {
	tests := []struct {
		name string
		resp *tts.GenerationResponse
	}{
		{"no parts", &tts.GenerationResponse{}},
		{"empty payload", tts.AudioResponse("audio/L16;rate=24000", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &tts.MockGenerator{
				GenerateFunc: func(ctx context.Context, apiKey string, req *tts.GenerationRequest) (*tts.GenerationResponse, error) {
					return tt.resp, nil
				},
			}
			p, _ := newTestPackager(t, gen, "key")

			_, err := p.Synthesize(context.Background(), Request{Text: "text", Voice: tts.VoiceKore})
			assert.ErrorIs(t, err, ErrNoAudioReturned)
			assert.NotErrorIs(t, err, ErrGenerationRefused)
		})
	}
}

func TestSynthesize_TextAndAudioIsNotRefusal(t *testing.T) {
	gen := &tts.MockGenerator{
		GenerateFunc: func(ctx context.Context, apiKey string, req *tts.GenerationRequest) (*tts.GenerationResponse, error) {
			return &tts.GenerationResponse{Parts: []tts.ResponsePart{
				{Text: "Here you go"},
				{InlineData: &tts.InlineData{MIMEType: "audio/pcm", Data: []byte{0, 0, 1, 1}}},
			}}, nil
		},
	}
	p, _ := newTestPackager(t, gen, "key")

	result, err := p.Synthesize(context.Background(), Request{Text: "text", Voice: tts.VoiceKore})
	require.NoError(t, err)
	assert.Equal(t, 48, result.Size())
}

func TestSynthesize_TransportErrors(t *testing.T) {
	t.Run("400 becomes RequestTooLarge", func(t *testing.T) {
		apiErr := &tts.APIError{StatusCode: http.StatusBadRequest, Message: "payload too large"}
		gen := &tts.MockGenerator{
			GenerateFunc: func(ctx context.Context, apiKey string, req *tts.GenerationRequest) (*tts.GenerationResponse, error) {
				return nil, apiErr
			},
		}
		p, _ := newTestPackager(t, gen, "key")

		_, err := p.Synthesize(context.Background(), Request{Text: "text", Voice: tts.VoiceKore})
		assert.ErrorIs(t, err, ErrRequestTooLarge)
		assert.Equal(t, MsgTooLarge, err.Error())

		var got *tts.APIError
		assert.True(t, errors.As(err, &got), "transport error must stay reachable")
	})

	t.Run("other failures unchanged", func(t *testing.T) {
		apiErr := &tts.APIError{StatusCode: http.StatusInternalServerError, Message: "backend error"}
		gen := &tts.MockGenerator{
			GenerateFunc: func(ctx context.Context, apiKey string, req *tts.GenerationRequest) (*tts.GenerationResponse, error) {
				return nil, apiErr
			},
		}
		p, _ := newTestPackager(t, gen, "key")

		_, err := p.Synthesize(context.Background(), Request{Text: "text", Voice: tts.VoiceKore})
		assert.Same(t, apiErr, err)
		assert.Equal(t, KindTransport, KindOf(err))
	})

	t.Run("single attempt", func(t *testing.T) {
		gen := &tts.MockGenerator{
			GenerateFunc: func(ctx context.Context, apiKey string, req *tts.GenerationRequest) (*tts.GenerationResponse, error) {
				return nil, errors.New("connection reset")
			},
		}
		p, _ := newTestPackager(t, gen, "key")

		_, err := p.Synthesize(context.Background(), Request{Text: "text", Voice: tts.VoiceKore})
		assert.Error(t, err)
		assert.Len(t, gen.Calls(), 1)
	})
}

func TestSynthesize_DeclaredFormatHonoured(t *testing.T) {
	gen := &tts.MockGenerator{
		GenerateFunc: func(ctx context.Context, apiKey string, req *tts.GenerationRequest) (*tts.GenerationResponse, error) {
			return tts.AudioResponse("audio/L16;rate=16000;channels=2", make([]byte, 64000)), nil
		},
	}
	p, _ := newTestPackager(t, gen, "key")

	result, err := p.Synthesize(context.Background(), Request{Text: "text", Voice: tts.VoiceKore})
	require.NoError(t, err)

	h, err := wav.ParseHeader(result.Container)
	require.NoError(t, err)
	assert.Equal(t, uint32(16000), h.SampleRate)
	assert.Equal(t, uint16(2), h.NumChannels)
	assert.Equal(t, "1s", result.Duration.String())
}
