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
	"errors"

	"github.com/loqalabs/loqa-narrator/internal/tts"
)

// Kind is the discrete status tag of a narration failure
type Kind string

const (
	KindInput              Kind = "InputError"
	KindAuth               Kind = "AuthError"
	KindGenerationRefused  Kind = "GenerationRefused"
	KindNoAudioReturned    Kind = "NoAudioReturned"
	KindRequestTooLarge    Kind = "RequestTooLarge"
	KindParseFailure       Kind = "ParseFailure"
	KindExtractionTooShort Kind = "ExtractionTooShort"
	KindExtractionFailure  Kind = "ExtractionFailure"

	// KindTransport tags generation service failures passed through as-is
	KindTransport Kind = "TransportError"
)

// Error is a narration failure carrying a human-readable message
type Error struct {
	Kind    Kind
	Message string
	Excerpt string // Truncated model text, set for GenerationRefused
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind, so errors.Is(err, ErrAuth) holds for any
// AuthError regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is
var (
	ErrInput              = &Error{Kind: KindInput}
	ErrAuth               = &Error{Kind: KindAuth}
	ErrGenerationRefused  = &Error{Kind: KindGenerationRefused}
	ErrNoAudioReturned    = &Error{Kind: KindNoAudioReturned}
	ErrRequestTooLarge    = &Error{Kind: KindRequestTooLarge}
	ErrParseFailure       = &Error{Kind: KindParseFailure}
	ErrExtractionTooShort = &Error{Kind: KindExtractionTooShort}
	ErrExtractionFailure  = &Error{Kind: KindExtractionFailure}
)

// Messages shown to the user for each failure
const (
	MsgNoText       = "No text provided for generation."
	MsgMissingKey   = "API Key is missing. Please add your Gemini API key in settings."
	MsgNoAudio      = "No audio data returned from Gemini. The text might be too long or violated safety policies."
	MsgTooLarge     = "Request failed (400). The text might be too long for a single request. Try reducing the page range."
	MsgParseFailure = "Failed to parse PDF. Please try a different file."
	MsgTooShort     = "The text extracted is too short. The PDF might be an image scan."
)

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ParseFailure wraps a document load failure
func ParseFailure(err error) error {
	return newError(KindParseFailure, MsgParseFailure, err)
}

// InputError reports a caller-correctable request problem
func InputError(message string) error {
	return newError(KindInput, message, nil)
}

// ExtractionFailure wraps a page read failure, keeping its message
func ExtractionFailure(err error) error {
	return newError(KindExtractionFailure, "failed to extract text: "+err.Error(), err)
}

// KindOf returns the kind of a narration failure. Generation service errors
// that were not mapped to a narration kind report KindTransport; any other
// error reports "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var apiErr *tts.APIError
	if errors.As(err, &apiErr) {
		return KindTransport
	}
	return ""
}
