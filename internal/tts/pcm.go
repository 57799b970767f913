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
	"mime"
	"strconv"

	"github.com/loqalabs/loqa-narrator/internal/wav"
)

// PCMDecision is the sample layout chosen for an inline audio payload
type PCMDecision struct {
	Format wav.Format

	// Assumed is set when the payload did not describe its own layout and
	// the fixed Gemini contract was applied instead.
	Assumed bool

	// Warning explains a fallback or a deviation from the contract
	Warning string
}

// PCMFormatFor maps the MIME type of an inline audio part to the layout of
// its samples. This is the only place the 24kHz/mono/16-bit contract with
// the Gemini speech models is applied. Rate and channel parameters declared
// on audio/L16 or audio/pcm payloads take precedence over the contract.
func PCMFormatFor(mimeType string) PCMDecision {
	contract := wav.GeminiPCM

	if mimeType == "" {
		return PCMDecision{Format: contract, Assumed: true}
	}

	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return PCMDecision{
			Format:  contract,
			Assumed: true,
			Warning: fmt.Sprintf("unparseable audio MIME type %q, assuming %s", mimeType, contract),
		}
	}

	switch mediaType {
	case "audio/l16", "audio/pcm":
	default:
		return PCMDecision{
			Format:  contract,
			Assumed: true,
			Warning: fmt.Sprintf("unexpected audio MIME type %q, assuming %s", mediaType, contract),
		}
	}

	format := contract
	if v, ok := params["rate"]; ok {
		if rate, err := strconv.ParseUint(v, 10, 32); err == nil && rate > 0 {
			format.SampleRate = uint32(rate)
		}
	}
	if v, ok := params["channels"]; ok {
		if ch, err := strconv.ParseUint(v, 10, 16); err == nil && ch > 0 {
			format.Channels = uint16(ch)
		}
	}

	if err := format.Validate(); err != nil {
		return PCMDecision{
			Format:  contract,
			Assumed: true,
			Warning: fmt.Sprintf("unusable audio layout in %q (%v), assuming %s", mimeType, err, contract),
		}
	}

	decision := PCMDecision{Format: format}
	if format != contract {
		decision.Warning = fmt.Sprintf("audio payload declares %s, expected %s", format, contract)
	}
	return decision
}
