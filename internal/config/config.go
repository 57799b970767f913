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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the narrator service
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Narration NarrationConfig `yaml:"narration"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	NATS      NATSConfig      `yaml:"nats"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// GeminiConfig holds speech generation service configuration
type GeminiConfig struct {
	APIKey        string        `yaml:"api_key"`  // Default credential, overridable at runtime
	Model         string        `yaml:"model"`    // Default speech model
	BaseURL       string        `yaml:"base_url"` // Gemini API endpoint
	Timeout       time.Duration `yaml:"timeout"`  // Per-request timeout
	MaxConcurrent int           `yaml:"max_concurrent"`
}

// NarrationConfig holds narration pipeline configuration
type NarrationConfig struct {
	MinTextLength   int    `yaml:"min_text_length"`   // Shorter extractions are rejected
	DefaultVoice    string `yaml:"default_voice"`     // Voice used when a request names none
	DefaultPageSpan int    `yaml:"default_page_span"` // Pages preselected for a new document
	MaxBlobs        int    `yaml:"max_blobs"`         // Audio containers kept in memory
	PublicBaseURL   string `yaml:"public_base_url"`   // Prefix for returned audio URLs
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	DBPath        string `yaml:"db_path"`
	EnableHistory bool   `yaml:"enable_history"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NATSConfig holds NATS messaging configuration
type NATSConfig struct {
	Enabled       bool          `yaml:"enabled"`
	URL           string        `yaml:"url"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	PublishAudio  bool          `yaml:"publish_audio"`
	MaxReconnect  int           `yaml:"max_reconnect"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   6 * time.Minute,
			MaxUploadBytes: 50 << 20,
		},
		Gemini: GeminiConfig{
			Model:         "gemini-2.5-flash-preview-tts",
			BaseURL:       "https://generativelanguage.googleapis.com/",
			Timeout:       5 * time.Minute,
			MaxConcurrent: 4,
		},
		Narration: NarrationConfig{
			MinTextLength:   10,
			DefaultVoice:    "Kore",
			DefaultPageSpan: 5,
			MaxBlobs:        32,
		},
		Storage: StorageConfig{
			DBPath:        "./data/narrator.db",
			EnableHistory: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		NATS: NATSConfig{
			Enabled:       false,
			URL:           "nats://localhost:4222",
			SubjectPrefix: "narrator",
			MaxReconnect:  10,
			ReconnectWait: 2 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by NARRATOR_CONFIG_FILE and environment variables, in that order.
func Load() (*Config, error) {
	config := Defaults()

	if path := os.Getenv("NARRATOR_CONFIG_FILE"); path != "" {
		if err := config.applyFile(path); err != nil {
			return nil, err
		}
	}

	config.applyEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyFile overlays the fields present in a YAML file
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnvString("NARRATOR_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("NARRATOR_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("NARRATOR_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("NARRATOR_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.MaxUploadBytes = getEnvInt64("NARRATOR_MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes)

	c.Gemini.APIKey = getEnvString("GEMINI_API_KEY", c.Gemini.APIKey)
	c.Gemini.Model = getEnvString("GEMINI_MODEL", c.Gemini.Model)
	c.Gemini.BaseURL = getEnvString("GEMINI_BASE_URL", c.Gemini.BaseURL)
	c.Gemini.Timeout = getEnvDuration("GEMINI_TIMEOUT", c.Gemini.Timeout)
	c.Gemini.MaxConcurrent = getEnvInt("GEMINI_MAX_CONCURRENT", c.Gemini.MaxConcurrent)

	c.Narration.MinTextLength = getEnvInt("NARRATOR_MIN_TEXT_LENGTH", c.Narration.MinTextLength)
	c.Narration.DefaultVoice = getEnvString("NARRATOR_DEFAULT_VOICE", c.Narration.DefaultVoice)
	c.Narration.DefaultPageSpan = getEnvInt("NARRATOR_DEFAULT_PAGE_SPAN", c.Narration.DefaultPageSpan)
	c.Narration.MaxBlobs = getEnvInt("NARRATOR_MAX_BLOBS", c.Narration.MaxBlobs)
	c.Narration.PublicBaseURL = getEnvString("NARRATOR_PUBLIC_BASE_URL", c.Narration.PublicBaseURL)

	c.Storage.DBPath = getEnvString("NARRATOR_DB_PATH", c.Storage.DBPath)
	c.Storage.EnableHistory = getEnvBool("NARRATOR_ENABLE_HISTORY", c.Storage.EnableHistory)

	c.Logging.Level = getEnvString("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnvString("LOG_FORMAT", c.Logging.Format)

	c.NATS.Enabled = getEnvBool("NATS_ENABLED", c.NATS.Enabled)
	c.NATS.URL = getEnvString("NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = getEnvString("NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)
	c.NATS.PublishAudio = getEnvBool("NATS_PUBLISH_AUDIO", c.NATS.PublishAudio)
	c.NATS.MaxReconnect = getEnvInt("NATS_MAX_RECONNECT", c.NATS.MaxReconnect)
	c.NATS.ReconnectWait = getEnvDuration("NATS_RECONNECT_WAIT", c.NATS.ReconnectWait)
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive: %d", c.Server.MaxUploadBytes)
	}

	if c.Gemini.BaseURL == "" {
		return fmt.Errorf("Gemini base URL must be provided")
	}

	if c.Gemini.Model == "" {
		return fmt.Errorf("Gemini model must be provided")
	}

	if c.Gemini.MaxConcurrent <= 0 {
		return fmt.Errorf("Gemini max concurrent must be positive: %d", c.Gemini.MaxConcurrent)
	}

	if c.Narration.MinTextLength < 0 {
		return fmt.Errorf("min text length cannot be negative: %d", c.Narration.MinTextLength)
	}

	if c.Narration.DefaultPageSpan <= 0 {
		return fmt.Errorf("default page span must be positive: %d", c.Narration.DefaultPageSpan)
	}

	if c.Narration.MaxBlobs <= 0 {
		return fmt.Errorf("max blobs must be positive: %d", c.Narration.MaxBlobs)
	}

	if c.Narration.DefaultVoice == "" {
		return fmt.Errorf("default voice must be provided")
	}

	if c.Storage.EnableHistory && c.Storage.DBPath == "" {
		return fmt.Errorf("database path must be provided when history is enabled")
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("NATS URL must be provided when NATS is enabled")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
