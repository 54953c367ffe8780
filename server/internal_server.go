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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/db"
)

// InternalServer exposes liveness and readiness probes on a dedicated port so
// the main API surface stays free of operational endpoints.
type InternalServer struct {
	server *http.Server
	cfg    *config.InternalServerConfig
}

// NewInternalServer creates a new internal probe server
func NewInternalServer(cfg *config.InternalServerConfig) *InternalServer {
	return &InternalServer{cfg: cfg}
}

// Start starts the internal HTTP server. It blocks until the server stops.
func (s *InternalServer) Start() error {
	if s.cfg.Port < 1 || s.cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", s.cfg.Port)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	address := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:           address,
		Handler:        mux,
		ReadTimeout:    time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:   time.Duration(s.cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:    time.Duration(s.cfg.IdleTimeoutSeconds) * time.Second,
		MaxHeaderBytes: s.cfg.MaxHeaderBytes,
	}

	slog.Info("Starting internal HTTP server", "address", address)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *InternalServer) Shutdown(shutdownCtx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(shutdownCtx)
}

// handleHealthz reports process liveness.
func (s *InternalServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, http.StatusOK, "ok")
}

// handleReadyz reports readiness: the process is ready once the database
// answers a ping.
func (s *InternalServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		slog.Warn("Readiness probe failed", "error", err)
		writeProbe(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeProbe(w, http.StatusOK, "ok")
}

func writeProbe(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": message})
}
