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
	"fmt"
	"strings"
	"sync"
)

// KeyCustomAPIKey is the settings key holding the user supplied Gemini key
const KeyCustomAPIKey = "gemini.custom_api_key"

// Store persists string settings
type Store interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// Credentials resolves the API key in effect. A custom key, when set, takes
// precedence over the default key from configuration. Nothing is cached: a
// key changed between two calls is visible to the second one.
type Credentials struct {
	store      Store
	defaultKey string
}

// CredentialStatus describes the configured credentials without exposing them
type CredentialStatus struct {
	HasCustomKey  bool   `json:"has_custom_key"`
	HasDefaultKey bool   `json:"has_default_key"`
	MaskedKey     string `json:"masked_key,omitempty"`
}

// NewCredentials creates a resolver over store with a fallback default key
func NewCredentials(store Store, defaultKey string) *Credentials {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Credentials{
		store:      store,
		defaultKey: strings.TrimSpace(defaultKey),
	}
}

// APIKey returns the custom key if present, else the default key. An empty
// result means no credential is configured.
func (c *Credentials) APIKey(ctx context.Context) (string, error) {
	custom, ok, err := c.store.GetSetting(ctx, KeyCustomAPIKey)
	if err != nil {
		return "", fmt.Errorf("failed to read custom API key: %w", err)
	}
	if ok && custom != "" {
		return custom, nil
	}
	return c.defaultKey, nil
}

// SetCustomAPIKey stores a trimmed custom key. An empty key clears it.
func (c *Credentials) SetCustomAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return c.ClearCustomAPIKey(ctx)
	}
	if err := c.store.SetSetting(ctx, KeyCustomAPIKey, key); err != nil {
		return fmt.Errorf("failed to store custom API key: %w", err)
	}
	return nil
}

// ClearCustomAPIKey removes the custom key, restoring the default
func (c *Credentials) ClearCustomAPIKey(ctx context.Context) error {
	if err := c.store.DeleteSetting(ctx, KeyCustomAPIKey); err != nil {
		return fmt.Errorf("failed to clear custom API key: %w", err)
	}
	return nil
}

// Status reports which credentials are configured
func (c *Credentials) Status(ctx context.Context) (CredentialStatus, error) {
	custom, ok, err := c.store.GetSetting(ctx, KeyCustomAPIKey)
	if err != nil {
		return CredentialStatus{}, fmt.Errorf("failed to read custom API key: %w", err)
	}

	status := CredentialStatus{
		HasCustomKey:  ok && custom != "",
		HasDefaultKey: c.defaultKey != "",
	}
	switch {
	case status.HasCustomKey:
		status.MaskedKey = MaskKey(custom)
	case status.HasDefaultKey:
		status.MaskedKey = MaskKey(c.defaultKey)
	}
	return status, nil
}

// MaskKey hides all but the last four characters of key
func MaskKey(key string) string {
	runes := []rune(key)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) DeleteSetting(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
