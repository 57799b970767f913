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

package messaging

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/loqalabs/loqa-narrator/internal/config"
	"github.com/loqalabs/loqa-narrator/internal/events"
	"github.com/loqalabs/loqa-narrator/internal/logging"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects relative to the configured prefix
const (
	SubjectNarrationsCompleted = "narrations.completed"
	SubjectNarrationsFailed    = "narrations.failed"
	SubjectAudio               = "audio"
)

// Conn is the subset of *nats.Conn used for publishing
type Conn interface {
	Publish(subject string, data []byte) error
}

// NarrationMessage is the payload published for every narration attempt
type NarrationMessage struct {
	UUID            string  `json:"uuid"`
	DocumentID      string  `json:"document_id"`
	DocumentName    string  `json:"document_name"`
	StartPage       int     `json:"start_page"`
	EndPage         int     `json:"end_page"`
	Voice           string  `json:"voice"`
	Model           string  `json:"model"`
	TextLength      int     `json:"text_length"`
	AudioID         string  `json:"audio_id,omitempty"`
	AudioBytes      int     `json:"audio_bytes,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	ProcessingTime  int64   `json:"processing_time_ms"`
	Success         bool    `json:"success"`
	ErrorKind       string  `json:"error_kind,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
	Timestamp       int64   `json:"timestamp"`
}

// NATSService publishes narration events to NATS
type NATSService struct {
	cfg  config.NATSConfig
	mu   sync.RWMutex
	nc   *nats.Conn
	conn Conn
}

// NewNATSService creates a service for cfg; Connect must be called before publishing
func NewNATSService(cfg config.NATSConfig) *NATSService {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "narrator"
	}
	return &NATSService{cfg: cfg}
}

// NewNATSServiceWithConn creates a service publishing through an existing connection
func NewNATSServiceWithConn(cfg config.NATSConfig, conn Conn) *NATSService {
	ns := NewNATSService(cfg)
	ns.conn = conn
	return ns
}

// Connect establishes connection to NATS server
func (ns *NATSService) Connect() error {
	logging.LogNATSEvent(ns.cfg.URL, "connect")

	opts := []nats.Option{
		nats.Name("loqa-narrator"),
		nats.ReconnectWait(ns.cfg.ReconnectWait),
		nats.MaxReconnects(ns.cfg.MaxReconnect),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.LogWarn("⚠️  NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.LogNATSEvent(nc.ConnectedUrl(), "reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logging.LogNATSEvent(ns.cfg.URL, "closed")
		}),
	}

	nc, err := nats.Connect(ns.cfg.URL, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	ns.mu.Lock()
	ns.nc = nc
	ns.conn = nc
	ns.mu.Unlock()

	logging.LogNATSEvent(nc.ConnectedUrl(), "connected")
	return nil
}

// Subject returns the fully qualified subject for a relative one
func (ns *NATSService) Subject(relative string) string {
	return ns.cfg.SubjectPrefix + "." + relative
}

// Conn returns the connection used for publishing, or nil before Connect
func (ns *NATSService) Conn() Conn {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.conn
}

// PublishNarration publishes ev on the completed or failed subject
func (ns *NATSService) PublishNarration(ev *events.NarrationEvent) error {
	conn := ns.Conn()
	if conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	msg := NarrationMessage{
		UUID:            ev.UUID,
		DocumentID:      ev.DocumentID,
		DocumentName:    ev.DocumentName,
		StartPage:       ev.StartPage,
		EndPage:         ev.EndPage,
		Voice:           ev.Voice,
		Model:           ev.Model,
		TextLength:      ev.TextLength,
		AudioID:         ev.AudioID,
		AudioBytes:      ev.AudioBytes,
		DurationSeconds: ev.AudioDuration,
		ProcessingTime:  ev.ProcessingTime,
		Success:         ev.Success,
		ErrorKind:       ev.ErrorKind,
		ErrorMessage:    ev.ErrorMessage,
		Timestamp:       ev.Timestamp.UnixMilli(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal narration event: %w", err)
	}

	subject := ns.Subject(SubjectNarrationsCompleted)
	if !ev.Success {
		subject = ns.Subject(SubjectNarrationsFailed)
	}

	if err := conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	logging.LogNATSEvent(subject, "publish",
		zap.String("narration_id", ev.UUID),
		zap.Bool("success", ev.Success),
	)
	return nil
}

// SubscribeToNarrations delivers completed and failed narration events to handler
func (ns *NATSService) SubscribeToNarrations(handler func(*NarrationMessage)) (*nats.Subscription, error) {
	ns.mu.RLock()
	nc := ns.nc
	ns.mu.RUnlock()
	if nc == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	return nc.Subscribe(ns.Subject("narrations.*"), func(msg *nats.Msg) {
		var event NarrationMessage
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logging.LogError(err, "❌ Error unmarshaling narration event", zap.String("subject", msg.Subject))
			return
		}
		handler(&event)
	})
}

// Close closes the NATS connection
func (ns *NATSService) Close() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if ns.nc != nil {
		ns.nc.Close()
		ns.nc = nil
	}
	ns.conn = nil
}

// IsConnected returns true if connected to NATS
func (ns *NATSService) IsConnected() bool {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	if ns.nc != nil {
		return ns.nc.IsConnected()
	}
	return ns.conn != nil
}

// GetStats returns connection statistics
func (ns *NATSService) GetStats() nats.Statistics {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	if ns.nc != nil {
		return ns.nc.Stats()
	}
	return nats.Statistics{}
}

// FlushTimeout flushes pending messages, waiting at most timeout
func (ns *NATSService) FlushTimeout(timeout time.Duration) error {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	if ns.nc == nil {
		return nil
	}
	return ns.nc.FlushTimeout(timeout)
}
