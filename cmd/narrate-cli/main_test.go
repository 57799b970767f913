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

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/loqalabs/loqa-narrator/internal/document"
	"github.com/loqalabs/loqa-narrator/internal/narration"
	"github.com/loqalabs/loqa-narrator/internal/settings"
	"github.com/loqalabs/loqa-narrator/internal/tts"
	"github.com/loqalabs/loqa-narrator/internal/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPipeline(gen tts.Generator, apiKey string) *narration.Pipeline {
	return narration.NewPipeline(narration.NewPackager(gen, settings.NewCredentials(nil, apiKey), nil, ""))
}

func writePDF(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "essay.pdf")
	data := document.BuildPDF(document.TextStream("First page"), document.TextStream("Second page"))
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRun_WritesContainer(t *testing.T) {
	dir := t.TempDir()
	gen := &tts.MockGenerator{}
	out := filepath.Join(dir, "out.wav")

	path, err := run(context.Background(), testPipeline(gen, "key"), options{
		pdfPath:   writePDF(t, dir),
		startPage: 1,
		endPage:   10,
		voice:     "zephyr",
		out:       out,
	})
	require.NoError(t, err)
	assert.Equal(t, out, path)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, wav.HeaderSize+480, len(data))

	calls := gen.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, tts.VoiceZephyr, calls[0].Request.Voice)
	assert.Contains(t, calls[0].Request.Prompt, "--- Page 2 ---")
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	pdf := writePDF(t, dir)

	_, err := run(context.Background(), testPipeline(&tts.MockGenerator{}, "key"), options{pdfPath: filepath.Join(dir, "missing.pdf")})
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("not a pdf"), 0o600))
	_, err = run(context.Background(), testPipeline(&tts.MockGenerator{}, "key"), options{pdfPath: garbage, voice: "Kore"})
	assert.ErrorIs(t, err, narration.ErrParseFailure)

	_, err = run(context.Background(), testPipeline(&tts.MockGenerator{}, "key"), options{pdfPath: pdf, voice: "Alloy", startPage: 1, endPage: 1})
	assert.ErrorIs(t, err, narration.ErrInput)

	_, err = run(context.Background(), testPipeline(&tts.MockGenerator{}, ""), options{pdfPath: pdf, voice: "Kore", startPage: 1, endPage: 1})
	assert.ErrorIs(t, err, narration.ErrAuth)
}

func TestPrintVoices(t *testing.T) {
	assert.NoError(t, printVoices("table"))
	assert.NoError(t, printVoices("json"))
}
