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
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/loqalabs/loqa-narrator/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(DatabaseConfig{Path: filepath.Join(t.TempDir(), "nested", "narrator.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func successfulEvent(documentID, voice string) *events.NarrationEvent {
	ev := events.NewNarrationEvent(documentID, "Moby Dick")
	ev.SetRequest(1, 3, voice, "gemini-2.5-flash-preview-tts")
	ev.TextLength = 1200
	ev.SetAudio("audio-"+ev.UUID[:8], make([]byte, 4844), 100*time.Millisecond)
	return ev
}

func TestNewDatabase(t *testing.T) {
	db := newTestDatabase(t)

	assert.NoError(t, db.Ping())
	assert.NoError(t, db.Checkpoint())
	assert.Contains(t, db.GetPath(), "narrator.db")

	_, err := NewDatabase(DatabaseConfig{})
	assert.Error(t, err)
}

func TestNarrationsStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewNarrationsStore(newTestDatabase(t))

	ev := successfulEvent("doc-1", "Kore")
	require.NoError(t, store.Insert(ctx, ev))

	got, err := store.GetByUUID(ctx, ev.UUID)
	require.NoError(t, err)

	assert.Equal(t, ev.UUID, got.UUID)
	assert.Equal(t, "Moby Dick", got.DocumentName)
	assert.Equal(t, 1, got.StartPage)
	assert.Equal(t, 3, got.EndPage)
	assert.Equal(t, "Kore", got.Voice)
	assert.Equal(t, 4844, got.AudioBytes)
	assert.Equal(t, ev.AudioHash, got.AudioHash)
	assert.InDelta(t, 0.1, got.AudioDuration, 1e-9)
	assert.True(t, got.Success)
	assert.Equal(t, ev.Timestamp.UnixMilli(), got.Timestamp.UnixMilli())
}

func TestNarrationsStore_InsertInvalid(t *testing.T) {
	store := NewNarrationsStore(newTestDatabase(t))

	ev := events.NewNarrationEvent("doc-1", "Moby Dick") // success without audio
	assert.Error(t, store.Insert(context.Background(), ev))
}

func TestNarrationsStore_GetMissing(t *testing.T) {
	store := NewNarrationsStore(newTestDatabase(t))

	_, err := store.GetByUUID(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestNarrationsStore_ListAndCount(t *testing.T) {
	ctx := context.Background()
	store := NewNarrationsStore(newTestDatabase(t))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Insert(ctx, successfulEvent("doc-1", "Kore")))
	}
	require.NoError(t, store.Insert(ctx, successfulEvent("doc-2", "Puck")))

	failed := events.NewNarrationEvent("doc-2", "Moby Dick")
	failed.SetError("GenerationRefused", errors.New("Model Refusal: no"))
	require.NoError(t, store.Insert(ctx, failed))

	all, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
	// newest first
	assert.Equal(t, failed.UUID, all[0].UUID)

	total, err := store.Count(ctx, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)

	page, err := store.List(ctx, ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, all[1].UUID, page[0].UUID)

	byDoc, err := store.Count(ctx, ListOptions{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, byDoc)

	successOnly := false
	failures, err := store.List(ctx, ListOptions{Success: &successOnly})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "GenerationRefused", failures[0].ErrorKind)

	byVoice, err := store.Count(ctx, ListOptions{Voice: "Puck"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, byVoice)
}

func TestNarrationsStore_ListUnknownSortColumn(t *testing.T) {
	store := NewNarrationsStore(newTestDatabase(t))

	_, err := store.List(context.Background(), ListOptions{SortBy: "uuid; DROP TABLE narrations", SortOrder: "sideways"})
	assert.NoError(t, err)
}

func TestNarrationsStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewNarrationsStore(newTestDatabase(t))

	ev := successfulEvent("doc-1", "Kore")
	require.NoError(t, store.Insert(ctx, ev))
	require.NoError(t, store.Delete(ctx, ev.UUID))

	err := store.Delete(ctx, ev.UUID)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestSettingsStore(t *testing.T) {
	ctx := context.Background()
	store := NewSettingsStore(newTestDatabase(t))

	_, ok, err := store.GetSetting(ctx, "gemini.custom_api_key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetSetting(ctx, "gemini.custom_api_key", "first"))
	require.NoError(t, store.SetSetting(ctx, "gemini.custom_api_key", "second"))

	value, ok, err := store.GetSetting(ctx, "gemini.custom_api_key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", value)

	require.NoError(t, store.DeleteSetting(ctx, "gemini.custom_api_key"))
	require.NoError(t, store.DeleteSetting(ctx, "gemini.custom_api_key"))

	_, ok, err = store.GetSetting(ctx, "gemini.custom_api_key")
	require.NoError(t, err)
	assert.False(t, ok)
}
