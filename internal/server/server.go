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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/loqalabs/loqa-narrator/internal/api"
	"github.com/loqalabs/loqa-narrator/internal/config"
	"github.com/loqalabs/loqa-narrator/internal/logging"
	"github.com/loqalabs/loqa-narrator/internal/messaging"
	"github.com/loqalabs/loqa-narrator/internal/narration"
	"github.com/loqalabs/loqa-narrator/internal/settings"
	"github.com/loqalabs/loqa-narrator/internal/storage"
	"github.com/loqalabs/loqa-narrator/internal/tts"
	"go.uber.org/zap"
)

// Dependencies are the externally owned components of a Server. Every field
// is optional; missing components are built from the configuration or left
// disabled.
type Dependencies struct {
	Database  *storage.Database      // Settings and history; in-memory settings when nil
	Generator tts.Generator          // Speech generation; Gemini client when nil
	NATS      *messaging.NATSService // Event delivery; disabled when nil
}

// Server is the narrator HTTP service
type Server struct {
	cfg    *config.Config
	mux    *http.ServeMux
	server *http.Server

	db          *storage.Database
	nats        *messaging.NATSService
	blobs       *storage.BlobStore
	sessions    *api.SessionStore
	credentials *settings.Credentials
	pipeline    *narration.Pipeline

	documents  *api.DocumentsHandler
	narrations *api.NarrationsHandler
	audio      *api.AudioHandler
	settings   *api.SettingsHandler
}

// New creates a server with components built from cfg
func New(cfg *config.Config) (*Server, error) {
	return NewWithDependencies(cfg, Dependencies{})
}

// NewWithDependencies creates a server around the given components
func NewWithDependencies(cfg *config.Config, deps Dependencies) (*Server, error) {
	blobs, err := storage.NewBlobStore(cfg.Narration.MaxBlobs)
	if err != nil {
		return nil, err
	}

	sessions, err := api.NewSessionStore(api.DefaultMaxSessions, func(s *api.Session) {
		released := blobs.ReleaseDocument(s.ID)
		logging.Sugar.Infow("Document session closed",
			"document_id", s.ID,
			"audio_released", released)
	})
	if err != nil {
		return nil, err
	}

	generator := deps.Generator
	if generator == nil {
		generator = tts.NewGeminiClient(cfg.Gemini)
	}

	var settingsStore settings.Store = settings.NewMemoryStore()
	var history *storage.NarrationsStore
	if deps.Database != nil {
		settingsStore = storage.NewSettingsStore(deps.Database)
		if cfg.Storage.EnableHistory {
			history = storage.NewNarrationsStore(deps.Database)
		}
	}
	credentials := settings.NewCredentials(settingsStore, cfg.Gemini.APIKey)

	opts := []narration.PipelineOption{narration.WithMinTextLength(cfg.Narration.MinTextLength)}
	if history != nil {
		opts = append(opts, narration.WithHistory(history))
	}
	if deps.NATS != nil {
		opts = append(opts, narration.WithEvents(deps.NATS))
		if cfg.NATS.PublishAudio {
			opts = append(opts, narration.WithAudioPublisher(messaging.NewAudioPublisher(deps.NATS)))
		}
	}
	pipeline := narration.NewPipeline(
		narration.NewPackager(generator, credentials, blobs, cfg.Gemini.Model),
		opts...,
	)

	defaultVoice, err := tts.ParseVoice(cfg.Narration.DefaultVoice)
	if err != nil {
		return nil, fmt.Errorf("invalid default voice: %w", err)
	}

	s := &Server{
		cfg:         cfg,
		mux:         http.NewServeMux(),
		db:          deps.Database,
		nats:        deps.NATS,
		blobs:       blobs,
		sessions:    sessions,
		credentials: credentials,
		pipeline:    pipeline,
		documents:   api.NewDocumentsHandler(sessions, cfg.Server.MaxUploadBytes, cfg.Narration.DefaultPageSpan),
		audio:       api.NewAudioHandler(blobs),
		settings:    api.NewSettingsHandler(credentials),
	}

	// a nil *NarrationsStore must reach the handler as a nil interface
	var historyStore api.HistoryStore
	if history != nil {
		historyStore = history
	}
	s.narrations = api.NewNarrationsHandler(sessions, pipeline, historyStore, defaultVoice,
		cfg.Narration.DefaultPageSpan, cfg.Narration.PublicBaseURL)

	s.server = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      s.mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.routes()

	return s, nil
}

// Start serves HTTP until Stop is called
func (s *Server) Start() error {
	logging.Sugar.Infow("🚀 Loqa Narrator starting",
		"addr", s.server.Addr,
		"model", s.cfg.Gemini.Model,
		"history", s.db != nil && s.cfg.Storage.EnableHistory,
		"nats", s.nats != nil)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the server. In-flight narrations are given the
// write timeout to finish.
func (s *Server) Stop() error {
	logging.Sugar.Infow("🛑 Shutting down Loqa Narrator")

	timeout := s.cfg.Server.WriteTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logging.Sugar.Infow("✅ Loqa Narrator shut down successfully")
	return nil
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)

	s.mux.HandleFunc("/api/voices", api.HandleVoices)
	s.mux.HandleFunc("/api/models", api.HandleModels)
	s.mux.HandleFunc("/api/settings/api-key", s.settings.HandleAPIKey)

	s.mux.HandleFunc("/api/documents", s.documents.HandleDocuments)
	s.mux.HandleFunc("/api/documents/", s.documents.HandleDocumentByID)
	s.mux.HandleFunc("/api/narrations", s.narrations.HandleNarrations)
	s.mux.HandleFunc("/api/narrations/", s.narrations.HandleNarrationByID)
	s.mux.HandleFunc("/api/audio/", s.audio.HandleAudio)

	logging.Sugar.Infow("🌐 HTTP routes configured",
		"documents_endpoint", "/api/documents",
		"narrations_endpoint", "/api/narrations",
		"audio_endpoint", "/api/audio/{id}")
}

// handleHealth reports the state of the service and its dependencies
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"

	database := "disabled"
	if s.db != nil {
		database = "ok"
		if err := s.db.Ping(); err != nil {
			database = "unavailable"
			status = "degraded"
			logging.LogWarn("Database health check failed", zap.Error(err))
		}
	}

	natsState := "disabled"
	var natsStats map[string]uint64
	if s.nats != nil {
		natsState = "connected"
		if !s.nats.IsConnected() {
			natsState = "disconnected"
			status = "degraded"
		}
		stats := s.nats.GetStats()
		natsStats = map[string]uint64{
			"out_msgs":   stats.OutMsgs,
			"out_bytes":  stats.OutBytes,
			"reconnects": stats.Reconnects,
		}
	}

	keyStatus, err := s.credentials.Status(r.Context())
	if err != nil {
		logging.LogWarn("Credential health check failed", zap.Error(err))
	}

	health := map[string]interface{}{
		"status":         status,
		"timestamp":      time.Now().UTC(),
		"database":       database,
		"nats":           natsState,
		"nats_stats":     natsStats,
		"api_key":        keyStatus.HasCustomKey || keyStatus.HasDefaultKey,
		"open_documents": s.sessions.Len(),
		"audio_blobs":    s.blobs.Len(),
	}

	writeJSON(w, http.StatusOK, health)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Sugar.Errorw("Failed to write response", "error", err)
	}
}
