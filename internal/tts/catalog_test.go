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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVoice(t *testing.T) {
	tests := []struct {
		input   string
		want    Voice
		wantErr bool
	}{
		{"Kore", VoiceKore, false},
		{"puck", VoicePuck, false},
		{" FENRIR ", VoiceFenrir, false},
		{"Charon", VoiceCharon, false},
		{"zephyr", VoiceZephyr, false},
		{"alloy", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVoice(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVoiceCatalog(t *testing.T) {
	assert.Len(t, AvailableVoices, 5)
	for _, v := range AvailableVoices {
		assert.True(t, v.ID.Valid(), "voice %s should be valid", v.ID)
		assert.NotEmpty(t, v.Description)
	}
	assert.False(t, Voice("Nova").Valid())
}

func TestSpeechModel(t *testing.T) {
	got, err := SpeechModel("")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, got)

	got, err = SpeechModel(DefaultModel)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, got)

	_, err = SpeechModel("gemini-3-pro-preview")
	assert.Error(t, err, "text model must be rejected")

	_, err = SpeechModel("gpt-4o")
	assert.Error(t, err)
}

func TestLookupModel(t *testing.T) {
	m, ok := LookupModel("gemini-2.5-flash")
	require.True(t, ok)
	assert.Equal(t, CategoryMultimodal, m.Category)

	_, ok = LookupModel("unknown")
	assert.False(t, ok)
}
