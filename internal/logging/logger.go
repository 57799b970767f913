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

package logging

import (
	"strings"

	"go.uber.org/zap"
)

var (
	// Logger and Sugar are nil until InitializeWithConfig runs; every helper
	// below is a no-op before then.
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "console"
}

// InitializeWithConfig sets up the global logger. Unknown levels fall back to
// info, unknown formats to console output.
func InitializeWithConfig(config LogConfig) error {
	zapConfig := zap.NewDevelopmentConfig()
	if strings.EqualFold(config.Format, "json") {
		zapConfig = zap.NewProductionConfig()
	}

	zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if level, err := zap.ParseAtomicLevel(strings.ToLower(config.Level)); err == nil {
		zapConfig.Level = level
	}

	logger, err := zapConfig.Build(
		zap.AddCallerSkip(1), // report the caller of the helpers below
		zap.AddStacktrace(zap.ErrorLevel),
	)
	if err != nil {
		return err
	}

	Logger = logger
	Sugar = logger.Sugar()

	Sugar.Infof("📖 Structured logging initialized (level: %s, format: %s)",
		zapConfig.Level.String(), config.Format)
	return nil
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		// Sync fails on some terminals and in tests; nothing to recover
		_ = Logger.Sync()
	}
}

// Close flushes the logger before exit
func Close() {
	Sync()
}

// tagged prefixes fields with the component and its tags
func tagged(component string, tags []zap.Field, fields []zap.Field) []zap.Field {
	all := make([]zap.Field, 0, 1+len(tags)+len(fields))
	all = append(all, zap.String("component", component))
	all = append(all, tags...)
	return append(all, fields...)
}

// LogNarrationEvent logs a narration lifecycle event. event contributes a
// narration_id field when it exposes GetUUID.
func LogNarrationEvent(event interface{}, message string, fields ...zap.Field) {
	if Logger == nil {
		return
	}
	var tags []zap.Field
	if v, ok := event.(interface{ GetUUID() string }); ok {
		if id := v.GetUUID(); id != "" {
			tags = append(tags, zap.String("narration_id", id))
		}
	}
	Logger.Info(message, tagged("narration", tags, fields)...)
}

// LogExtraction logs document text extraction steps
func LogExtraction(stage string, fields ...zap.Field) {
	if Logger == nil {
		return
	}
	Logger.Info("Text extraction", tagged("extraction", []zap.Field{zap.String("stage", stage)}, fields)...)
}

// LogSynthesis logs speech generation and audio packaging operations
func LogSynthesis(operation string, fields ...zap.Field) {
	if Logger == nil {
		return
	}
	Logger.Info("TTS operation", tagged("tts", []zap.Field{zap.String("operation", operation)}, fields)...)
}

// LogNATSEvent logs NATS messaging events
func LogNATSEvent(subject, action string, fields ...zap.Field) {
	if Logger == nil {
		return
	}
	Logger.Info("NATS event", tagged("messaging", []zap.Field{
		zap.String("subject", subject),
		zap.String("action", action),
	}, fields)...)
}

// LogDatabaseOperation logs database operations
func LogDatabaseOperation(operation, table string, fields ...zap.Field) {
	if Logger == nil {
		return
	}
	Logger.Info("Database operation", tagged("database", []zap.Field{
		zap.String("operation", operation),
		zap.String("table", table),
	}, fields)...)
}

// LogError logs err at error level
func LogError(err error, message string, fields ...zap.Field) {
	if Logger == nil {
		return
	}
	Logger.Error(message, append([]zap.Field{zap.Error(err)}, fields...)...)
}

// LogWarn logs at warn level
func LogWarn(message string, fields ...zap.Field) {
	if Logger == nil {
		return
	}
	Logger.Warn(message, fields...)
}
