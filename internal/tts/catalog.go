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
	"fmt"
	"strings"
)

// Voice is a prebuilt Gemini voice name
type Voice string

const (
	VoiceKore   Voice = "Kore"
	VoicePuck   Voice = "Puck"
	VoiceFenrir Voice = "Fenrir"
	VoiceCharon Voice = "Charon"
	VoiceZephyr Voice = "Zephyr"
)

// VoiceOption describes a voice for selection screens
type VoiceOption struct {
	ID          Voice  `json:"id"`
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	Style       string `json:"style"`
	Description string `json:"description"`
}

// AvailableVoices lists the supported narration voices
var AvailableVoices = []VoiceOption{
	{
		ID:          VoiceKore,
		Name:        "Kore",
		Gender:      "Female",
		Style:       "Soothing & Narration",
		Description: "Perfect for fiction and storytelling with a calm demeanor.",
	},
	{
		ID:          VoiceFenrir,
		Name:        "Fenrir",
		Gender:      "Male",
		Style:       "Deep & Authoritative",
		Description: "Ideal for technical documents, lectures, and serious prose.",
	},
	{
		ID:          VoicePuck,
		Name:        "Puck",
		Gender:      "Male",
		Style:       "Neutral & Clear",
		Description: "Great for general reading, articles, and news.",
	},
	{
		ID:          VoiceCharon,
		Name:        "Charon",
		Gender:      "Male",
		Style:       "Deep & Resonant",
		Description: "A strong voice for dramatic reading.",
	},
	{
		ID:          VoiceZephyr,
		Name:        "Zephyr",
		Gender:      "Female",
		Style:       "Bright & Standard",
		Description: "Energetic and clear, good for quick information.",
	},
}

// ParseVoice resolves a voice name, ignoring case
func ParseVoice(name string) (Voice, error) {
	for _, v := range AvailableVoices {
		if strings.EqualFold(string(v.ID), strings.TrimSpace(name)) {
			return v.ID, nil
		}
	}
	return "", fmt.Errorf("unknown voice: %q", name)
}

// Valid reports whether v is one of the supported voices
func (v Voice) Valid() bool {
	for _, opt := range AvailableVoices {
		if opt.ID == v {
			return true
		}
	}
	return false
}

// Model categories
const (
	CategoryAudioGeneration = "Audio Generation"
	CategoryMultimodal      = "Multimodal"
	CategoryTextAnalysis    = "Text Analysis"
)

// DefaultModel is the speech model used when none is selected
const DefaultModel = "gemini-2.5-flash-preview-tts"

// Model describes a Gemini model offered for selection
type Model struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Tier         string   `json:"tier"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

// AvailableModels lists the known models
var AvailableModels = []Model{
	{
		ID:           DefaultModel,
		Name:         "Gemini 2.5 Flash TTS",
		Category:     CategoryAudioGeneration,
		Tier:         "Flash",
		Description:  "High-efficiency speech synthesis model optimized for low latency and natural prosody.",
		Capabilities: []string{"Text-to-Speech", "Native Audio Output", "Low Latency"},
	},
	{
		ID:           "gemini-2.5-flash",
		Name:         "Gemini 2.5 Flash",
		Category:     CategoryMultimodal,
		Tier:         "Flash",
		Description:  "The standard for high-volume tasks.",
		Capabilities: []string{"Text Generation", "Vision", "Function Calling"},
	},
	{
		ID:           "gemini-3-pro-preview",
		Name:         "Gemini 3.0 Pro",
		Category:     CategoryTextAnalysis,
		Tier:         "Pro",
		Description:  "Most capable reasoning model, best for complex text understanding.",
		Capabilities: []string{"Complex Reasoning", "Coding", "Nuanced Writing"},
	},
}

// LookupModel returns the catalog entry for id
func LookupModel(id string) (Model, bool) {
	for _, m := range AvailableModels {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// SpeechModel validates that id names a model able to produce audio.
// An empty id selects DefaultModel.
func SpeechModel(id string) (string, error) {
	if id == "" {
		return DefaultModel, nil
	}
	m, ok := LookupModel(id)
	if !ok {
		return "", fmt.Errorf("unknown model: %q", id)
	}
	if m.Category != CategoryAudioGeneration {
		return "", fmt.Errorf("model %q cannot generate audio", id)
	}
	return m.ID, nil
}
