// Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/api"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	dbmigrations "github.com/wso2/uptime-watcher-platform/monitor-engine-service/db_migrations"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/server"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/signals"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/wiring"
)

func setupLogger(cfg *config.Config) {
	var level slog.Level
	switch cfg.LogLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default to INFO
	}

	// Create handler options
	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Logger configured",
		"level", level.String())
}

func main() {
	cfg := config.GetConfig()

	setupLogger(cfg)

	if config.GetConfig().AutoMaxProcsEnabled {
		if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			// Convert printf-style format string to plain message for structured logging
			slog.Info(fmt.Sprintf(format, args...))
		})); err != nil {
			slog.Error("Failed to set maxprocs", "error", err)
			os.Exit(1)
		}
	}
	serverFlag := flag.Bool("server", true, "start the http Server")
	migrateFlag := flag.Bool("migrate", false, "migrate the database")

	flag.Parse()

	if *migrateFlag {
		if err := dbmigrations.Migrate(); err != nil {
			slog.Error("error occurred while migrating", "error", err)
			os.Exit(1)
		}
	}

	if !*serverFlag {
		return
	}

	// Schema migrations run before anything touches the database.
	if err := dbmigrations.Migrate(); err != nil {
		slog.Error("failed to migrate database schema", "error", err)
		os.Exit(1)
	}

	dependencies, err := wiring.InitializeAppParams(cfg)
	if err != nil {
		slog.Error("failed to initialize app dependencies", "error", err)
		os.Exit(1)
	}

	// Bring the engine up: managers wired, event forwarding attached,
	// scheduler started, jobs rebuilt from persisted state.
	engineCtx, engineCancel := context.WithCancel(context.Background())
	if err := dependencies.Orchestrator.Initialize(engineCtx); err != nil {
		slog.Error("failed to initialize monitoring engine", "error", err)
		os.Exit(1)
	}

	// Start streaming public events to WebSocket subscribers
	if err := dependencies.WebSocketManager.Start(); err != nil {
		slog.Error("failed to start WebSocket manager", "error", err)
		os.Exit(1)
	}

	// Create main API server handler
	handler := api.MakeHTTPHandler(dependencies)
	mainServer := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:        handler,
		ReadTimeout:    time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:   time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:    time.Duration(cfg.IdleTimeoutSeconds) * time.Second,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	// Internal HTTP server for health and readiness probes
	internalServer := server.NewInternalServer(&cfg.InternalServer)

	stopCh := signals.SetupSignalHandler()

	// Setup graceful shutdown
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		<-stopCh
		slog.Info("Shutdown signal received, stopping services...")
		engineCancel()

		// Shutdown WebSocket manager
		slog.Info("Shutting down WebSocket manager")
		dependencies.WebSocketManager.Shutdown()

		// Stop the engine: scheduler drain, event forwarding teardown,
		// database close.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := dependencies.Orchestrator.Shutdown(shutdownCtx); err != nil {
			slog.Error("error shutting down monitoring engine", "error", err)
		}

		// Shutdown main server
		mainCtx, mainCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer mainCancel()
		if err := mainServer.Shutdown(mainCtx); err != nil {
			slog.Error("Main server forced shutdown after timeout", "error", err)
		}

		// Shutdown internal server
		internalCtx, internalCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer internalCancel()
		if err := internalServer.Shutdown(internalCtx); err != nil {
			slog.Error("Internal server forced shutdown after timeout", "error", err)
		}
		wg.Done()
	}()

	// Start internal server in a goroutine
	go func() {
		slog.Info("Internal HTTP server is running",
			"address", fmt.Sprintf("http://localhost:%d", cfg.InternalServer.Port))
		if err := internalServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start internal server", "error", err)
			os.Exit(1)
		}
	}()

	// Start main server (blocking)
	slog.Info("Main API server is running",
		"address", mainServer.Addr,
		"maxWebSocketConnections", cfg.WebSocket.MaxConnections,
		"heartbeatTimeout", fmt.Sprintf("%ds", cfg.WebSocket.ConnectionTimeout),
		"rateLimitPerMin", cfg.WebSocket.RateLimitPerMin)
	if err := mainServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Failed to start main server", "error", err)
		os.Exit(1)
	}

	// Wait for graceful shutdown to complete
	wg.Wait()
	slog.Info("All servers shut down successfully")
}
