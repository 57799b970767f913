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

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/loqalabs/loqa-narrator/internal/events"
	"github.com/loqalabs/loqa-narrator/internal/logging"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

const narrationColumns = `uuid, document_id, document_name, timestamp,
		start_page, end_page, voice, model, text_length,
		audio_id, audio_hash, audio_bytes, audio_duration,
		processing_time_ms, success, error_kind, error_message`

// NarrationsStore handles database operations for narration history
type NarrationsStore struct {
	db *Database
}

// NewNarrationsStore creates a new narrations store
func NewNarrationsStore(db *Database) *NarrationsStore {
	return &NarrationsStore{db: db}
}

// Insert stores a narration event
func (s *NarrationsStore) Insert(ctx context.Context, event *events.NarrationEvent) error {
	if err := event.IsValid(); err != nil {
		return fmt.Errorf("invalid narration event: %w", err)
	}

	query := `INSERT INTO narrations (` + narrationColumns + `) VALUES (
			?, ?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?
		)`

	_, err := s.db.DB().ExecContext(ctx, query,
		event.UUID, event.DocumentID, event.DocumentName, event.Timestamp.UnixMilli(),
		event.StartPage, event.EndPage, event.Voice, event.Model, event.TextLength,
		event.AudioID, event.AudioHash, event.AudioBytes, event.AudioDuration,
		event.ProcessingTime, event.Success, event.ErrorKind, event.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert narration: %w", err)
	}

	logging.LogDatabaseOperation("INSERT", "narrations",
		zap.String("uuid", event.UUID),
		zap.Bool("success", event.Success),
	)
	return nil
}

// GetByUUID retrieves a narration by its UUID
func (s *NarrationsStore) GetByUUID(ctx context.Context, uuid string) (*events.NarrationEvent, error) {
	query := `SELECT ` + narrationColumns + ` FROM narrations WHERE uuid = ?`

	row := s.db.DB().QueryRowContext(ctx, query, uuid)
	return scanNarration(row)
}

// List retrieves narrations with pagination and filtering
func (s *NarrationsStore) List(ctx context.Context, options ListOptions) ([]*events.NarrationEvent, error) {
	query, args := buildListQuery(options)

	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query narrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	narrations := []*events.NarrationEvent{}
	for rows.Next() {
		event, err := scanNarration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan narration: %w", err)
		}
		narrations = append(narrations, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating narrations: %w", err)
	}

	return narrations, nil
}

// Count returns the number of narrations matching the filter
func (s *NarrationsStore) Count(ctx context.Context, options ListOptions) (int64, error) {
	options.Limit = 0
	options.Offset = 0
	query, args := buildListQuery(options)

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS filtered"

	var count int64
	if err := s.db.DB().QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count narrations: %w", err)
	}

	return count, nil
}

// Delete removes a narration by UUID
func (s *NarrationsStore) Delete(ctx context.Context, uuid string) error {
	result, err := s.db.DB().ExecContext(ctx, "DELETE FROM narrations WHERE uuid = ?", uuid)
	if err != nil {
		return fmt.Errorf("failed to delete narration: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("narration %s: %w", uuid, ErrNotFound)
	}

	logging.LogDatabaseOperation("DELETE", "narrations", zap.String("uuid", uuid))
	return nil
}

// ListOptions defines filtering and pagination options
type ListOptions struct {
	// Filtering
	DocumentID string
	Voice      string
	Success    *bool // nil = all, true = success only, false = errors only
	Since      *time.Time

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "timestamp", "processing_time", "audio_bytes"
	SortOrder string // "ASC", "DESC"
}

var sortColumns = map[string]string{
	"timestamp":       "timestamp",
	"processing_time": "processing_time_ms",
	"audio_bytes":     "audio_bytes",
	"duration":        "audio_duration",
}

// buildListQuery constructs the SQL query based on ListOptions
func buildListQuery(options ListOptions) (string, []interface{}) {
	query := `SELECT ` + narrationColumns + ` FROM narrations WHERE 1=1`

	var args []interface{}

	if options.DocumentID != "" {
		query += " AND document_id = ?"
		args = append(args, options.DocumentID)
	}

	if options.Voice != "" {
		query += " AND voice = ?"
		args = append(args, options.Voice)
	}

	if options.Success != nil {
		query += " AND success = ?"
		args = append(args, *options.Success)
	}

	if options.Since != nil {
		query += " AND timestamp >= ?"
		args = append(args, options.Since.UnixMilli())
	}

	sortBy, ok := sortColumns[options.SortBy]
	if !ok {
		sortBy = "timestamp"
	}

	sortOrder := "DESC"
	if options.SortOrder == "ASC" || options.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	// rowid breaks ties between rows written in the same millisecond
	query += fmt.Sprintf(" ORDER BY %s %s, rowid %s", sortBy, sortOrder, sortOrder)

	if options.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, options.Limit)

		if options.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, options.Offset)
		}
	}

	return query, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNarration(row rowScanner) (*events.NarrationEvent, error) {
	var event events.NarrationEvent
	var timestamp int64

	err := row.Scan(
		&event.UUID, &event.DocumentID, &event.DocumentName, &timestamp,
		&event.StartPage, &event.EndPage, &event.Voice, &event.Model, &event.TextLength,
		&event.AudioID, &event.AudioHash, &event.AudioBytes, &event.AudioDuration,
		&event.ProcessingTime, &event.Success, &event.ErrorKind, &event.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("narration: %w", ErrNotFound)
		}
		return nil, err
	}

	event.Timestamp = time.UnixMilli(timestamp).UTC()
	return &event, nil
}
