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

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/loqalabs/loqa-narrator/internal/logging"
	"github.com/loqalabs/loqa-narrator/internal/narration"
	"github.com/loqalabs/loqa-narrator/internal/security"
	"github.com/loqalabs/loqa-narrator/internal/tts"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

// StatusInternal tags failures that carry no narration kind
const StatusInternal = "InternalError"

// HTTPStatus maps a narration failure kind to a response code
func HTTPStatus(kind narration.Kind) int {
	switch kind {
	case narration.KindInput, narration.KindExtractionTooShort, narration.KindParseFailure:
		return http.StatusBadRequest
	case narration.KindAuth:
		return http.StatusUnauthorized
	case narration.KindRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case narration.KindGenerationRefused, narration.KindNoAudioReturned, narration.KindTransport:
		return http.StatusBadGateway
	case narration.KindExtractionFailure:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Sugar.Errorw("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Status: kind})
}

// writeFailure reports err with the code of its narration kind. Generation
// service errors keep their upstream message. Errors without a kind are
// logged and hidden behind a generic message.
func writeFailure(w http.ResponseWriter, err error, fields ...zap.Field) {
	var nerr *narration.Error
	if errors.As(err, &nerr) {
		writeError(w, HTTPStatus(nerr.Kind), string(nerr.Kind), nerr.Error())
		return
	}

	var apiErr *tts.APIError
	if errors.As(err, &apiErr) {
		logging.LogError(err, "Generation service failed", fields...)
		writeError(w, HTTPStatus(narration.KindTransport), string(narration.KindTransport), apiErr.Error())
		return
	}

	logging.LogError(err, "Request failed", fields...)
	writeError(w, http.StatusInternalServerError, StatusInternal, "Internal server error")
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, string(narration.KindInput), "Method not allowed")
}

// pathID extracts and validates the identifier following prefix in path
func pathID(path, prefix string) (string, error) {
	id := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if err := security.ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}

// parseIntParam parses integer parameter with default value
func parseIntParam(param string, defaultValue int) int {
	if param == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(param); err == nil {
		return value
	}
	return defaultValue
}
