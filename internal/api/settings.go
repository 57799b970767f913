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
	"net/http"
	"strings"

	"github.com/loqalabs/loqa-narrator/internal/logging"
	"github.com/loqalabs/loqa-narrator/internal/narration"
	"github.com/loqalabs/loqa-narrator/internal/settings"
)

// SetAPIKeyRequest is the body of PUT /api/settings/api-key
type SetAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

// SettingsHandler manages the custom credential
type SettingsHandler struct {
	credentials *settings.Credentials
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(credentials *settings.Credentials) *SettingsHandler {
	return &SettingsHandler{credentials: credentials}
}

// HandleAPIKey handles GET, PUT and DELETE /api/settings/api-key
func (h *SettingsHandler) HandleAPIKey(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req SetAPIKeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, string(narration.KindInput), "Invalid JSON")
			return
		}
		if err := h.credentials.SetCustomAPIKey(r.Context(), req.APIKey); err != nil {
			writeFailure(w, err)
			return
		}
		logging.Sugar.Infow("Custom API key updated", "cleared", strings.TrimSpace(req.APIKey) == "")
	case http.MethodDelete:
		if err := h.credentials.ClearCustomAPIKey(r.Context()); err != nil {
			writeFailure(w, err)
			return
		}
		logging.Sugar.Infow("Custom API key cleared")
	default:
		methodNotAllowed(w)
		return
	}

	status, err := h.credentials.Status(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
