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

package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ err error }

func (f failingStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	return "", false, f.err
}
func (f failingStore) SetSetting(ctx context.Context, key, value string) error { return f.err }
func (f failingStore) DeleteSetting(ctx context.Context, key string) error     { return f.err }

func TestCredentials_DefaultKey(t *testing.T) {
	creds := NewCredentials(NewMemoryStore(), "  default-key  ")

	key, err := creds.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "default-key", key)
}

func TestCredentials_CustomKeyOverridesDefault(t *testing.T) {
	ctx := context.Background()
	creds := NewCredentials(NewMemoryStore(), "default-key")

	require.NoError(t, creds.SetCustomAPIKey(ctx, "  custom-key\n"))

	key, err := creds.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "custom-key", key)

	require.NoError(t, creds.ClearCustomAPIKey(ctx))

	key, err = creds.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "default-key", key)
}

func TestCredentials_EmptyCustomKeyClears(t *testing.T) {
	ctx := context.Background()
	creds := NewCredentials(nil, "")

	require.NoError(t, creds.SetCustomAPIKey(ctx, "custom-key"))
	require.NoError(t, creds.SetCustomAPIKey(ctx, "   "))

	key, err := creds.APIKey(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestCredentials_ReadEveryCall(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	creds := NewCredentials(store, "default-key")

	first, _ := creds.APIKey(ctx)
	require.NoError(t, store.SetSetting(ctx, KeyCustomAPIKey, "rotated"))
	second, _ := creds.APIKey(ctx)

	assert.Equal(t, "default-key", first)
	assert.Equal(t, "rotated", second)
}

func TestCredentials_StoreFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	creds := NewCredentials(failingStore{err: boom}, "default-key")

	_, err := creds.APIKey(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = creds.Status(context.Background())
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, creds.SetCustomAPIKey(context.Background(), "k"), boom)
}

func TestCredentials_Status(t *testing.T) {
	ctx := context.Background()
	creds := NewCredentials(NewMemoryStore(), "AIzaDefault1234")

	status, err := creds.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.HasCustomKey)
	assert.True(t, status.HasDefaultKey)
	assert.Equal(t, "***********1234", status.MaskedKey)

	require.NoError(t, creds.SetCustomAPIKey(ctx, "AIzaCustom9876"))
	status, err = creds.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.HasCustomKey)
	assert.Equal(t, "**********9876", status.MaskedKey)
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcd", "****"},
		{"abcdef", "**cdef"},
	}

	for _, tt := range tests {
		if got := MaskKey(tt.key); got != tt.want {
			t.Errorf("MaskKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
