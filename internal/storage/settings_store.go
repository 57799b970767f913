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

	"github.com/loqalabs/loqa-narrator/internal/logging"
	"go.uber.org/zap"
)

// SettingsStore persists key/value settings
type SettingsStore struct {
	db *Database
}

// NewSettingsStore creates a new settings store
func NewSettingsStore(db *Database) *SettingsStore {
	return &SettingsStore{db: db}
}

// GetSetting returns the value for key and whether it was present
func (s *SettingsStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.DB().QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting inserts or replaces the value for key
func (s *SettingsStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.DB().ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}

	// values may be secrets, only the key is logged
	logging.LogDatabaseOperation("UPSERT", "settings", zap.String("key", key))
	return nil
}

// DeleteSetting removes key. Deleting a missing key is not an error.
func (s *SettingsStore) DeleteSetting(ctx context.Context, key string) error {
	if _, err := s.db.DB().ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}

	logging.LogDatabaseOperation("DELETE", "settings", zap.String("key", key))
	return nil
}
