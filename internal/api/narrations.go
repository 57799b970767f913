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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/loqalabs/loqa-narrator/internal/events"
	"github.com/loqalabs/loqa-narrator/internal/logging"
	"github.com/loqalabs/loqa-narrator/internal/narration"
	"github.com/loqalabs/loqa-narrator/internal/storage"
	"github.com/loqalabs/loqa-narrator/internal/tts"
	"go.uber.org/zap"
)

// HistoryStore reads recorded narration attempts
type HistoryStore interface {
	GetByUUID(ctx context.Context, uuid string) (*events.NarrationEvent, error)
	List(ctx context.Context, options storage.ListOptions) ([]*events.NarrationEvent, error)
	Count(ctx context.Context, options storage.ListOptions) (int64, error)
}

// CreateNarrationRequest is the body of POST /api/narrations
type CreateNarrationRequest struct {
	DocumentID string `json:"document_id"`
	StartPage  *int   `json:"start_page,omitempty"`
	EndPage    *int   `json:"end_page,omitempty"`
	Voice      string `json:"voice"`
	Model      string `json:"model"`
}

// NarrationResponse references a finished narration
type NarrationResponse struct {
	ID              string  `json:"id"`
	AudioURL        string  `json:"audio_url"`
	DownloadURL     string  `json:"download_url"`
	SizeBytes       int     `json:"size_bytes"`
	DurationSeconds float64 `json:"duration_seconds"`
	Voice           string  `json:"voice"`
	Model           string  `json:"model"`
}

// ListNarrationsResponse represents the response for listing narrations
type ListNarrationsResponse struct {
	Narrations []*events.NarrationEvent `json:"narrations"`
	Total      int64                    `json:"total"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
	TotalPages int                      `json:"total_pages"`
}

// NarrationsHandler runs narrations and serves their history
type NarrationsHandler struct {
	sessions        *SessionStore
	pipeline        *narration.Pipeline
	history         HistoryStore
	defaultVoice    tts.Voice
	defaultPageSpan int
	publicBaseURL   string
}

// NewNarrationsHandler creates a new narrations handler. history may be nil
// when recording is disabled.
func NewNarrationsHandler(sessions *SessionStore, pipeline *narration.Pipeline, history HistoryStore, defaultVoice tts.Voice, defaultPageSpan int, publicBaseURL string) *NarrationsHandler {
	if defaultVoice == "" {
		defaultVoice = tts.VoiceKore
	}
	if defaultPageSpan <= 0 {
		defaultPageSpan = 5
	}
	return &NarrationsHandler{
		sessions:        sessions,
		pipeline:        pipeline,
		history:         history,
		defaultVoice:    defaultVoice,
		defaultPageSpan: defaultPageSpan,
		publicBaseURL:   strings.TrimRight(publicBaseURL, "/"),
	}
}

// HandleNarrations handles GET /api/narrations and POST /api/narrations
func (h *NarrationsHandler) HandleNarrations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listNarrations(w, r)
	case http.MethodPost:
		h.createNarration(w, r)
	default:
		methodNotAllowed(w)
	}
}

// HandleNarrationByID handles GET /api/narrations/{id}
func (h *NarrationsHandler) HandleNarrationByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if h.history == nil {
		writeError(w, http.StatusNotFound, string(narration.KindInput), "Narration history is disabled")
		return
	}

	id, err := pathID(r.URL.Path, "/api/narrations/")
	if err != nil {
		writeError(w, http.StatusBadRequest, string(narration.KindInput), "Invalid narration ID")
		return
	}

	event, err := h.history.GetByUUID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, string(narration.KindInput), "Narration not found")
			return
		}
		writeFailure(w, err, zap.String("uuid", id))
		return
	}

	writeJSON(w, http.StatusOK, event)
}

func (h *NarrationsHandler) createNarration(w http.ResponseWriter, r *http.Request) {
	var req CreateNarrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(narration.KindInput), "Invalid JSON")
		return
	}

	session, ok := h.sessions.Get(strings.TrimSpace(req.DocumentID))
	if !ok {
		writeError(w, http.StatusBadRequest, string(narration.KindInput), "No document loaded.")
		return
	}

	voice := h.defaultVoice
	if req.Voice != "" {
		v, err := tts.ParseVoice(req.Voice)
		if err != nil {
			writeFailure(w, narration.InputError("Unknown voice \""+req.Voice+"\"."))
			return
		}
		voice = v
	}

	startPage, endPage := 1, min(session.Document.NumPages(), h.defaultPageSpan)
	if req.StartPage != nil {
		startPage = *req.StartPage
	}
	if req.EndPage != nil {
		endPage = *req.EndPage
	}

	if !session.Begin() {
		writeError(w, http.StatusConflict, string(narration.KindInput), "A narration is already running for this document.")
		return
	}

	result, err := h.pipeline.Run(r.Context(), narration.Job{
		Document:     session.Document,
		DocumentID:   session.ID,
		DocumentName: session.Name,
		StartPage:    startPage,
		EndPage:      endPage,
		Voice:        voice,
		Model:        req.Model,
		OnStatus:     session.SetStatus,
	})
	if !h.sessions.settle(session) {
		writeError(w, http.StatusGone, string(narration.KindInput), "The document was closed during narration.")
		return
	}
	if err != nil {
		writeFailure(w, err, zap.String("document_id", session.ID))
		return
	}
	session.finish(result.AudioID)

	audioURL := h.publicBaseURL + "/api/audio/" + result.AudioID
	writeJSON(w, http.StatusCreated, NarrationResponse{
		ID:              result.AudioID,
		AudioURL:        audioURL,
		DownloadURL:     audioURL + "?download=1",
		SizeBytes:       result.Size(),
		DurationSeconds: result.Duration.Seconds(),
		Voice:           string(result.Voice),
		Model:           result.Model,
	})
}

func (h *NarrationsHandler) listNarrations(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, ListNarrationsResponse{Narrations: []*events.NarrationEvent{}, Page: 1})
		return
	}

	query := r.URL.Query()

	page := parseIntParam(query.Get("page"), 1)
	pageSize := parseIntParam(query.Get("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	options := storage.ListOptions{
		DocumentID: query.Get("document_id"),
		Voice:      query.Get("voice"),
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
		SortBy:     query.Get("sort_by"),
		SortOrder:  strings.ToUpper(query.Get("sort_order")),
	}

	if successStr := query.Get("success"); successStr != "" {
		if success, err := strconv.ParseBool(successStr); err == nil {
			options.Success = &success
		}
	}
	if sinceStr := query.Get("since"); sinceStr != "" {
		if since, err := time.Parse(time.RFC3339, sinceStr); err == nil {
			options.Since = &since
		}
	}

	total, err := h.history.Count(r.Context(), options)
	if err != nil {
		writeFailure(w, err)
		return
	}

	narrations, err := h.history.List(r.Context(), options)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if narrations == nil {
		narrations = []*events.NarrationEvent{}
	}

	logging.Sugar.Debugw("Narration history request",
		"page", page,
		"page_size", pageSize,
		"total_results", total,
	)

	writeJSON(w, http.StatusOK, ListNarrationsResponse{
		Narrations: narrations,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	})
}
