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
	"time"

	"github.com/loqalabs/loqa-narrator/internal/logging"
	"github.com/loqalabs/loqa-narrator/internal/storage"
	"go.uber.org/zap"
)

// AudioMessage carries a complete WAV container for NATS delivery
type AudioMessage struct {
	AudioID         string  `json:"audio_id"`
	DocumentID      string  `json:"document_id"`
	Name            string  `json:"name"`
	AudioData       []byte  `json:"audio_data"`
	AudioFormat     string  `json:"audio_format"`
	SampleRate      int     `json:"sample_rate"`
	Channels        int     `json:"channels"`
	DurationSeconds float64 `json:"duration_seconds"`
	Timestamp       int64   `json:"timestamp"`
}

// AudioPublisher delivers finished audio containers over NATS
type AudioPublisher struct {
	service *NATSService
}

// NewAudioPublisher creates a publisher sending on <prefix>.audio.<id>
func NewAudioPublisher(service *NATSService) *AudioPublisher {
	return &AudioPublisher{service: service}
}

// PublishAudio publishes the complete container of blob
func (ap *AudioPublisher) PublishAudio(blob *storage.Blob) error {
	conn := ap.service.Conn()
	if conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	msg := AudioMessage{
		AudioID:         blob.ID,
		DocumentID:      blob.DocumentID,
		Name:            blob.Name,
		AudioData:       blob.Data,
		AudioFormat:     "wav",
		SampleRate:      int(blob.Format.SampleRate),
		Channels:        int(blob.Format.Channels),
		DurationSeconds: blob.Duration.Seconds(),
		Timestamp:       time.Now().UnixMilli(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal audio message: %w", err)
	}

	subject := ap.service.Subject(SubjectAudio + "." + blob.ID)
	if err := conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish audio file: %w", err)
	}

	logging.LogNATSEvent(subject, "publish_audio", zap.Int("size_bytes", len(blob.Data)))
	return nil
}
