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
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/loqalabs/loqa-narrator/internal/document"
	"github.com/loqalabs/loqa-narrator/internal/logging"
	"github.com/loqalabs/loqa-narrator/internal/narration"
	"github.com/loqalabs/loqa-narrator/internal/security"
	"go.uber.org/zap"
)

// DocumentResponse describes an open document
type DocumentResponse struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	NumPages         int               `json:"num_pages"`
	DefaultStartPage int               `json:"default_start_page"`
	DefaultEndPage   int               `json:"default_end_page"`
	CreatedAt        time.Time         `json:"created_at"`
	Status           *narration.Status `json:"status,omitempty"`
	AudioID          string            `json:"audio_id,omitempty"`
}

// DocumentsHandler handles upload and reset of documents
type DocumentsHandler struct {
	sessions        *SessionStore
	maxUploadBytes  int64
	defaultPageSpan int
}

// NewDocumentsHandler creates a new documents handler
func NewDocumentsHandler(sessions *SessionStore, maxUploadBytes int64, defaultPageSpan int) *DocumentsHandler {
	if defaultPageSpan <= 0 {
		defaultPageSpan = 5
	}
	return &DocumentsHandler{
		sessions:        sessions,
		maxUploadBytes:  maxUploadBytes,
		defaultPageSpan: defaultPageSpan,
	}
}

// HandleDocuments handles POST /api/documents
func (h *DocumentsHandler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	name, data, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, string(narration.KindRequestTooLarge),
				fmt.Sprintf("Upload exceeds the limit of %d bytes.", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, string(narration.KindInput), "Could not read uploaded file.")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, string(narration.KindInput), "Uploaded file is empty.")
		return
	}

	doc, err := document.Load(data)
	if err != nil {
		logging.LogWarn("Failed to parse uploaded PDF",
			zap.String("name", security.SanitizeLogInput(name)),
			zap.Error(err),
		)
		writeFailure(w, narration.ParseFailure(err))
		return
	}

	session := h.sessions.Open(displayName(name), doc)

	logging.Sugar.Infow("Document opened",
		"document_id", session.ID,
		"name", security.SanitizeLogInput(session.Name),
		"num_pages", doc.NumPages(),
		"size_bytes", len(data),
	)

	writeJSON(w, http.StatusCreated, h.describe(session, false))
}

// HandleDocumentByID handles GET and DELETE /api/documents/{id}
func (h *DocumentsHandler) HandleDocumentByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/documents/")
	if err != nil {
		writeError(w, http.StatusBadRequest, string(narration.KindInput), "Invalid document ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		session, ok := h.sessions.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, string(narration.KindInput), "Document not found")
			return
		}
		writeJSON(w, http.StatusOK, h.describe(session, true))
	case http.MethodDelete:
		if !h.sessions.Close(id) {
			writeError(w, http.StatusNotFound, string(narration.KindInput), "Document not found")
			return
		}
		logging.Sugar.Infow("Document closed", "document_id", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (h *DocumentsHandler) describe(s *Session, withStatus bool) DocumentResponse {
	numPages := s.Document.NumPages()
	resp := DocumentResponse{
		ID:               s.ID,
		Name:             s.Name,
		NumPages:         numPages,
		DefaultStartPage: 1,
		DefaultEndPage:   min(numPages, h.defaultPageSpan),
		CreatedAt:        s.CreatedAt,
	}
	if withStatus {
		status := s.Status()
		resp.Status = &status
		resp.AudioID = s.AudioID()
	}
	return resp
}

// readUpload returns the uploaded file from a multipart "file" field, or
// the raw request body for any other content type
func readUpload(r *http.Request) (string, []byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, err
		}
		defer func(f multipart.File) { _ = f.Close() }(file)

		data, err := io.ReadAll(file)
		return header.Filename, data, err
	}

	data, err := io.ReadAll(r.Body)
	return r.URL.Query().Get("name"), data, err
}

// displayName strips any directory and the .pdf suffix from an upload name
func displayName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".pdf") {
		name = strings.TrimSuffix(name, ext)
	}
	if name == "" || name == "." || name == "/" {
		return "document"
	}
	return name
}
