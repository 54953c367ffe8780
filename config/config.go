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

// Config holds all configuration for the application
type Config struct {
	PackageVersion      string
	ServerHost          string
	ServerPort          int
	AutoMaxProcsEnabled bool
	LogLevel            string
	SQLITE              SQLITE
	// HTTP Server timeout configurations
	ReadTimeoutSeconds  int
	WriteTimeoutSeconds int
	IdleTimeoutSeconds  int
	MaxHeaderBytes      int
	// Database operation timeout configuration
	DbOperationTimeoutSeconds int
	HealthCheckTimeoutSeconds int

	// CORSAllowedOrigin is the single allowed origin for CORS; use "*" to allow all
	CORSAllowedOrigin string

	// Monitor scheduler configuration
	Scheduler SchedulerConfig

	// Event bus configuration
	EventBus EventBusConfig

	// Status history retention configuration
	History HistoryConfig

	// Check executor configuration
	Checks ChecksConfig

	// Internal Server configuration (health and readiness probes)
	InternalServer InternalServerConfig

	// WebSocket configuration
	WebSocket WebSocketConfig
}

type SQLITE struct {
	// DataDir is the directory holding the database file, backups and
	// quarantined artifacts
	DataDir string
	// DBFile is the database file name inside DataDir
	DBFile string
	// BusyTimeoutMilliseconds is applied as PRAGMA busy_timeout on every
	// connection
	BusyTimeoutMilliseconds int64
	DbConfigs
}

type DbConfigs struct {
	// gorm configs
	SlowThresholdMilliseconds int64
	SkipDefaultTransaction    bool

	// go sql configs
	MaxIdleCount       *int64 // zero means defaultMaxIdleConns (2); negative means 0
	MaxOpenCount       *int64 // <= 0 means unlimited
	MaxLifetimeSeconds *int64 // maximum amount of time a connection may be reused
	MaxIdleTimeSeconds *int64
}

// SchedulerConfig holds monitor scheduling parameters
type SchedulerConfig struct {
	// MinCheckIntervalMs is the floor applied to every scheduled delay
	MinCheckIntervalMs int64
	// MaxBackoffMs caps exponential backoff growth between failing checks
	MaxBackoffMs int64
	// CheckTimeoutBufferMs is added to a monitor's timeout to bound the
	// whole check run including retries
	CheckTimeoutBufferMs int64
}

// EventBusConfig holds typed event bus parameters
type EventBusConfig struct {
	// BusName is stamped into the metadata of every emitted event
	BusName string
	// MaxListeners is the per-event listener registration cap
	MaxListeners int
	// MaxMiddleware is the registered middleware cap
	MaxMiddleware int
	// RateLimitPerSecond caps per-event-name emissions on the public bus
	RateLimitPerSecond int
	// RateLimitBurst allows short emission spikes past the sustained rate
	RateLimitBurst int
}

// HistoryConfig holds status history retention parameters
type HistoryConfig struct {
	// DefaultLimit is the per-monitor history row cap used when no
	// historyLimit setting is persisted
	DefaultLimit int
}

// ChecksConfig holds parameters shared by the check executors
type ChecksConfig struct {
	// RateLimitPerHost is the allowed outbound HTTP request rate per
	// target host, in requests per second
	RateLimitPerHost int
	// RateBurstPerHost is the per-host burst size
	RateBurstPerHost int
	// MaxRedirects bounds redirect following for HTTP family checks
	MaxRedirects int
	// KeywordMaxBodyBytes caps how much of a response body the keyword
	// check scans
	KeywordMaxBodyBytes int64
	// UserAgent is sent on every outbound HTTP check request
	UserAgent string
	// PingPrivileged selects raw ICMP sockets over unprivileged datagram
	// sockets for ping checks
	PingPrivileged bool
}

// InternalServerConfig holds configuration for the internal HTTP server
// exposing health and readiness probes
type InternalServerConfig struct {
	Host string // Server host (default: "")
	Port int    // Server port (default: 9243)
	// HTTP Server timeout configurations
	ReadTimeoutSeconds  int
	WriteTimeoutSeconds int
	IdleTimeoutSeconds  int
	MaxHeaderBytes      int
}

// WebSocketConfig holds WebSocket-specific configuration
type WebSocketConfig struct {
	MaxConnections    int // Maximum number of concurrent WebSocket connections (default: 1000)
	ConnectionTimeout int // Connection timeout in seconds (default: 30)
	RateLimitPerMin   int // Rate limit per IP address per minute (default: 10)
}
