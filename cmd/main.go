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

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/loqalabs/loqa-narrator/internal/config"
	"github.com/loqalabs/loqa-narrator/internal/logging"
	"github.com/loqalabs/loqa-narrator/internal/messaging"
	"github.com/loqalabs/loqa-narrator/internal/server"
	"github.com/loqalabs/loqa-narrator/internal/storage"
	"go.uber.org/zap"
)

func main() {
	// A missing .env file is normal outside development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitializeWithConfig(logging.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	db, err := storage.NewDatabase(storage.DatabaseConfig{Path: cfg.Storage.DBPath})
	if err != nil {
		logging.LogError(err, "Failed to open database", zap.String("path", cfg.Storage.DBPath))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	deps := server.Dependencies{Database: db}

	if cfg.NATS.Enabled {
		natsService := messaging.NewNATSService(cfg.NATS)
		if err := natsService.Connect(); err != nil {
			logging.LogWarn("⚠️  NATS unavailable, narration events will not be published", zap.Error(err))
		} else {
			defer natsService.Close()
			deps.NATS = natsService
		}
	}

	srv, err := server.NewWithDependencies(cfg, deps)
	if err != nil {
		logging.LogError(err, "Failed to create server")
		os.Exit(1)
	}

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		if err := srv.Stop(); err != nil {
			logging.LogError(err, "Failed to stop server")
		}
	}()

	if err := srv.Start(); err != nil {
		logging.LogError(err, "Failed to start server")
		os.Exit(1)
	}
}
