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
	"bytes"
	"mime"
	"net/http"

	"github.com/loqalabs/loqa-narrator/internal/logging"
	"github.com/loqalabs/loqa-narrator/internal/narration"
	"github.com/loqalabs/loqa-narrator/internal/security"
	"github.com/loqalabs/loqa-narrator/internal/storage"
)

// AudioHandler serves finished audio containers
type AudioHandler struct {
	blobs *storage.BlobStore
}

// NewAudioHandler creates a new audio handler
func NewAudioHandler(blobs *storage.BlobStore) *AudioHandler {
	return &AudioHandler{blobs: blobs}
}

// HandleAudio handles GET and DELETE /api/audio/{id}
func (h *AudioHandler) HandleAudio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/audio/")
	if err != nil {
		writeError(w, http.StatusBadRequest, string(narration.KindInput), "Invalid audio ID")
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		blob, ok := h.blobs.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, string(narration.KindInput), "Audio not found")
			return
		}

		w.Header().Set("Content-Type", blob.ContentType)
		if r.URL.Query().Get("download") == "1" {
			filename := security.SanitizeFilename(blob.Name)
			w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
		}
		http.ServeContent(w, r, blob.Name, blob.CreatedAt, bytes.NewReader(blob.Data))
	case http.MethodDelete:
		if !h.blobs.Release(id) {
			writeError(w, http.StatusNotFound, string(narration.KindInput), "Audio not found")
			return
		}
		logging.Sugar.Infow("Audio released", "audio_id", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}
