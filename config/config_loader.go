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

package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

var config *Config

func GetConfig() *Config {
	return config
}

func init() {
	loadEnvs()
}

func loadEnvs() {
	config = &Config{}

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath != "" {
		err := godotenv.Load(envFilePath)
		if err != nil {
			panic(err)
		}
	}

	r := &configReader{}
	config.ServerHost = r.readOptionalString("SERVER_HOST", "")
	config.ServerPort = int(r.readOptionalInt64("SERVER_PORT", 8080))
	config.AutoMaxProcsEnabled = r.readOptionalBool("AUTO_MAX_PROCS_ENABLED", true)
	config.CORSAllowedOrigin = r.readOptionalString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	// Logging configuration
	config.LogLevel = r.readOptionalString("LOG_LEVEL", "INFO")

	// read database configs
	config.SQLITE = SQLITE{
		DataDir:                 r.readOptionalString("DATA_DIR", "./data"),
		DBFile:                  r.readOptionalString("DB_FILE", "uptime-watcher.sqlite"),
		BusyTimeoutMilliseconds: r.readOptionalInt64("SQLITE_BUSY_TIMEOUT_MS", 5000),
	}
	config.SQLITE.DbConfigs = DbConfigs{
		// gorm configs
		SkipDefaultTransaction:    r.readOptionalBool("GORM_SKIP_DEFAULT_TRANSACTION", true),
		SlowThresholdMilliseconds: r.readOptionalInt64("GORM_SLOW_THRESHOLD_MILLISECONDS", 200),

		// sql.DB configs
		MaxIdleCount:       r.readNullableInt64("DB_MAX_IDLE_COUNT"),
		MaxOpenCount:       r.readNullableInt64("DB_MAX_OPEN_COUNT"),
		MaxIdleTimeSeconds: r.readNullableInt64("DB_MAX_IDLE_TIME_SECONDS"),
		MaxLifetimeSeconds: r.readNullableInt64("DB_MAX_LIFETIME_SECONDS"),
	}

	// HTTP Server timeout configurations
	config.ReadTimeoutSeconds = int(r.readOptionalInt64("HTTP_READ_TIMEOUT_SECONDS", 10))
	config.WriteTimeoutSeconds = int(r.readOptionalInt64("HTTP_WRITE_TIMEOUT_SECONDS", 90))
	config.IdleTimeoutSeconds = int(r.readOptionalInt64("HTTP_IDLE_TIMEOUT_SECONDS", 60))
	config.MaxHeaderBytes = int(r.readOptionalInt64("HTTP_MAX_HEADER_BYTES", 65536)) // 1024 * 64

	// Database operation timeout configuration
	config.DbOperationTimeoutSeconds = int(r.readOptionalInt64("DB_OPERATION_TIMEOUT_SECONDS", 10))
	config.HealthCheckTimeoutSeconds = int(r.readOptionalInt64("HEALTH_CHECK_TIMEOUT_SECONDS", 5))

	// Use Version from ldflags or environment variable override
	config.PackageVersion = r.readOptionalString("UWP_VERSION", Version)

	// Monitor scheduler configuration
	config.Scheduler = SchedulerConfig{
		MinCheckIntervalMs:   r.readOptionalInt64("MIN_CHECK_INTERVAL_MS", 5000),
		MaxBackoffMs:         r.readOptionalInt64("MAX_BACKOFF_MS", 3600000),
		CheckTimeoutBufferMs: r.readOptionalInt64("CHECK_TIMEOUT_BUFFER_MS", 5000),
	}

	// Event bus configuration
	config.EventBus = EventBusConfig{
		BusName:            r.readOptionalString("EVENT_BUS_NAME", "monitor-engine"),
		MaxListeners:       int(r.readOptionalInt64("EVENT_BUS_MAX_LISTENERS", 50)),
		MaxMiddleware:      int(r.readOptionalInt64("EVENT_BUS_MAX_MIDDLEWARE", 20)),
		RateLimitPerSecond: int(r.readOptionalInt64("EVENT_BUS_RATE_LIMIT_PER_SECOND", 100)),
		RateLimitBurst:     int(r.readOptionalInt64("EVENT_BUS_RATE_LIMIT_BURST", 200)),
	}

	// Status history retention configuration
	config.History = HistoryConfig{
		DefaultLimit: int(r.readOptionalInt64("HISTORY_LIMIT_DEFAULT", 500)),
	}

	// Check executor configuration
	config.Checks = ChecksConfig{
		RateLimitPerHost:    int(r.readOptionalInt64("HTTP_RATE_LIMIT_PER_HOST", 10)),
		RateBurstPerHost:    int(r.readOptionalInt64("HTTP_RATE_BURST_PER_HOST", 10)),
		MaxRedirects:        int(r.readOptionalInt64("HTTP_MAX_REDIRECTS", 10)),
		KeywordMaxBodyBytes: r.readOptionalInt64("HTTP_KEYWORD_MAX_BODY_BYTES", 1048576), // 1 MiB
		UserAgent:           r.readOptionalString("HTTP_USER_AGENT", "uptime-watcher-monitor-engine/"+Version),
		PingPrivileged:      r.readOptionalBool("PING_PRIVILEGED", false),
	}

	// Internal Server configuration (health and readiness probes)
	config.InternalServer = InternalServerConfig{
		Host:                r.readOptionalString("INTERNAL_SERVER_HOST", ""),
		Port:                int(r.readOptionalInt64("INTERNAL_SERVER_PORT", 9243)),
		ReadTimeoutSeconds:  int(r.readOptionalInt64("INTERNAL_SERVER_READ_TIMEOUT_SECONDS", 10)),
		WriteTimeoutSeconds: int(r.readOptionalInt64("INTERNAL_SERVER_WRITE_TIMEOUT_SECONDS", 90)),
		IdleTimeoutSeconds:  int(r.readOptionalInt64("INTERNAL_SERVER_IDLE_TIMEOUT_SECONDS", 60)),
		MaxHeaderBytes:      int(r.readOptionalInt64("INTERNAL_SERVER_MAX_HEADER_BYTES", 65536)),
	}

	// WebSocket configuration
	config.WebSocket = WebSocketConfig{
		MaxConnections:    int(r.readOptionalInt64("WEBSOCKET_MAX_CONNECTIONS", 1000)),
		ConnectionTimeout: int(r.readOptionalInt64("WEBSOCKET_CONNECTION_TIMEOUT", 30)),
		RateLimitPerMin:   int(r.readOptionalInt64("WEBSOCKET_RATE_LIMIT_PER_MIN", 10)),
	}

	// Validate HTTP server configurations
	validateHTTPServerConfigs(config, r)

	// Validate Internal server configurations
	validateInternalServerConfigs(config, r)

	// Validate scheduler and event bus configurations
	validateEngineConfigs(config, r)

	r.logAndExitIfErrorsFound()

	slog.Info("configReader: configs loaded")
}

func validateHTTPServerConfigs(cfg *Config, r *configReader) {
	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		r.errors = append(r.errors, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort))
	}
	if cfg.ReadTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_READ_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.ReadTimeoutSeconds))
	}
	if cfg.WriteTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_WRITE_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.WriteTimeoutSeconds))
	}
	if cfg.ReadTimeoutSeconds >= cfg.WriteTimeoutSeconds {
		r.errors = append(r.errors, fmt.Errorf("HTTP_READ_TIMEOUT_SECONDS (%d) must be < HTTP_WRITE_TIMEOUT_SECONDS (%d)",
			cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds))
	}
	if cfg.IdleTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_IDLE_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.IdleTimeoutSeconds))
	}
	if cfg.MaxHeaderBytes < 1024 || cfg.MaxHeaderBytes > 1048576 { // 1KB to 1MB
		r.errors = append(r.errors, fmt.Errorf("HTTP_MAX_HEADER_BYTES must be between 1024 and 1048576, got %d", cfg.MaxHeaderBytes))
	}
}

func validateInternalServerConfigs(cfg *Config, r *configReader) {
	if cfg.InternalServer.Port < 1 || cfg.InternalServer.Port > 65535 {
		r.errors = append(r.errors, fmt.Errorf("INTERNAL_SERVER_PORT must be between 1 and 65535, got %d", cfg.InternalServer.Port))
	}
	if cfg.InternalServer.ReadTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("INTERNAL_SERVER_READ_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.InternalServer.ReadTimeoutSeconds))
	}
	if cfg.InternalServer.WriteTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("INTERNAL_SERVER_WRITE_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.InternalServer.WriteTimeoutSeconds))
	}
}

func validateEngineConfigs(cfg *Config, r *configReader) {
	if cfg.SQLITE.BusyTimeoutMilliseconds < 0 {
		r.errors = append(r.errors, fmt.Errorf("SQLITE_BUSY_TIMEOUT_MS must be non-negative, got %d", cfg.SQLITE.BusyTimeoutMilliseconds))
	}
	if cfg.Scheduler.MinCheckIntervalMs < 1000 {
		r.errors = append(r.errors, fmt.Errorf("MIN_CHECK_INTERVAL_MS must be at least 1000, got %d", cfg.Scheduler.MinCheckIntervalMs))
	}
	if cfg.Scheduler.MaxBackoffMs < cfg.Scheduler.MinCheckIntervalMs {
		r.errors = append(r.errors, fmt.Errorf("MAX_BACKOFF_MS (%d) must be >= MIN_CHECK_INTERVAL_MS (%d)",
			cfg.Scheduler.MaxBackoffMs, cfg.Scheduler.MinCheckIntervalMs))
	}
	if cfg.Scheduler.CheckTimeoutBufferMs <= 0 {
		r.errors = append(r.errors, fmt.Errorf("CHECK_TIMEOUT_BUFFER_MS must be greater than 0, got %d", cfg.Scheduler.CheckTimeoutBufferMs))
	}
	if cfg.EventBus.MaxListeners < 1 {
		r.errors = append(r.errors, fmt.Errorf("EVENT_BUS_MAX_LISTENERS must be at least 1, got %d", cfg.EventBus.MaxListeners))
	}
	if cfg.EventBus.MaxMiddleware < 1 {
		r.errors = append(r.errors, fmt.Errorf("EVENT_BUS_MAX_MIDDLEWARE must be at least 1, got %d", cfg.EventBus.MaxMiddleware))
	}
	if cfg.EventBus.RateLimitPerSecond < 1 {
		r.errors = append(r.errors, fmt.Errorf("EVENT_BUS_RATE_LIMIT_PER_SECOND must be at least 1, got %d", cfg.EventBus.RateLimitPerSecond))
	}
	if cfg.EventBus.RateLimitBurst < 1 {
		r.errors = append(r.errors, fmt.Errorf("EVENT_BUS_RATE_LIMIT_BURST must be at least 1, got %d", cfg.EventBus.RateLimitBurst))
	}
	if cfg.History.DefaultLimit < 1 {
		r.errors = append(r.errors, fmt.Errorf("HISTORY_LIMIT_DEFAULT must be at least 1, got %d", cfg.History.DefaultLimit))
	}
	if cfg.Checks.RateLimitPerHost < 1 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_RATE_LIMIT_PER_HOST must be at least 1, got %d", cfg.Checks.RateLimitPerHost))
	}
	if cfg.Checks.MaxRedirects < 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_MAX_REDIRECTS must be non-negative, got %d", cfg.Checks.MaxRedirects))
	}
	if cfg.Checks.KeywordMaxBodyBytes < 1024 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_KEYWORD_MAX_BODY_BYTES must be at least 1024, got %d", cfg.Checks.KeywordMaxBodyBytes))
	}
}
