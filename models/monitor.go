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

package models

// MonitorStatus represents the lifecycle status of a monitor
type MonitorStatus string

const (
	MonitorStatusPending MonitorStatus = "pending"
	MonitorStatusUp      MonitorStatus = "up"
	MonitorStatusDown    MonitorStatus = "down"
	MonitorStatusPaused  MonitorStatus = "paused"
	MonitorStatusUnknown MonitorStatus = "unknown"
)

// Builtin monitor type identifiers
const (
	MonitorTypeHTTP        = "http"
	MonitorTypeHTTPStatus  = "http-status"
	MonitorTypeHTTPKeyword = "http-keyword"
	MonitorTypeHTTPHeader  = "http-header"
	MonitorTypeHTTPJSON    = "http-json"
	MonitorTypeHTTPLatency = "http-latency"
	MonitorTypePort        = "port"
	MonitorTypePing        = "ping"
	MonitorTypeDNS         = "dns"
	MonitorTypeSSL         = "ssl"
)

// Monitor is the GORM model for the monitors table.
// Type-specific columns are nullable; which ones apply is governed by the
// catalog descriptor for the monitor's type.
type Monitor struct {
	ID              string        `gorm:"column:id;primaryKey;not null"`
	SiteIdentifier  string        `gorm:"column:site_identifier;not null"`
	Type            string        `gorm:"column:type;not null"`
	Status          MonitorStatus `gorm:"column:status;not null;default:'pending'"`
	CheckIntervalMs int64         `gorm:"column:check_interval_ms;not null"`
	TimeoutMs       int64         `gorm:"column:timeout_ms;not null"`
	RetryAttempts   int           `gorm:"column:retry_attempts;not null;default:0"`
	Monitoring      bool          `gorm:"column:monitoring;not null;default:false"`

	// Type-specific columns
	URL                  *string `gorm:"column:url"`
	Host                 *string `gorm:"column:host"`
	Port                 *int    `gorm:"column:port"`
	RecordType           *string `gorm:"column:record_type"`
	ExpectedValue        *string `gorm:"column:expected_value"`
	StatusCode           *string `gorm:"column:status_code"`
	HeaderName           *string `gorm:"column:header_name"`
	Keyword              *string `gorm:"column:keyword"`
	JSONPath             *string `gorm:"column:json_path"`
	LatencyThresholdMs   *int64  `gorm:"column:latency_threshold_ms"`
	CertExpiryWindowDays *int    `gorm:"column:cert_expiry_window_days"`

	CreatedAt int64 `gorm:"column:created_at;not null;autoCreateTime:milli"`
	UpdatedAt int64 `gorm:"column:updated_at;not null;autoUpdateTime:milli"`
}

func (Monitor) TableName() string { return "monitors" }

// ToResponse converts a Monitor DB record to MonitorResponse
func (m *Monitor) ToResponse() *MonitorResponse {
	return &MonitorResponse{
		ID:              m.ID,
		SiteIdentifier:  m.SiteIdentifier,
		Type:            m.Type,
		Status:          m.Status,
		CheckIntervalMs: m.CheckIntervalMs,
		TimeoutMs:       m.TimeoutMs,
		RetryAttempts:   m.RetryAttempts,
		Monitoring:      m.Monitoring,
		Fields:          m.FieldValues(),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// CreateMonitorRequest is the payload for monitors.add and for monitors
// nested in sites.add. Type-specific fields travel in Fields and are
// validated against the catalog descriptor for Type.
type CreateMonitorRequest struct {
	ID              string         `json:"id,omitempty" validate:"omitempty,min=1,max=128"`
	Type            string         `json:"type" validate:"required,min=1"`
	CheckIntervalMs int64          `json:"checkIntervalMs" validate:"required,gte=5000"`
	TimeoutMs       *int64         `json:"timeoutMs,omitempty" validate:"omitempty,gt=0"`
	RetryAttempts   *int           `json:"retryAttempts,omitempty" validate:"omitempty,gte=0,lte=10"`
	Monitoring      *bool          `json:"monitoring,omitempty"`
	Fields          map[string]any `json:"fields,omitempty"`
}

// MonitorResponse is the outward representation of a monitor
type MonitorResponse struct {
	ID              string         `json:"id"`
	SiteIdentifier  string         `json:"siteIdentifier"`
	Type            string         `json:"type"`
	Status          MonitorStatus  `json:"status"`
	CheckIntervalMs int64          `json:"checkIntervalMs"`
	TimeoutMs       int64          `json:"timeoutMs"`
	RetryAttempts   int            `json:"retryAttempts"`
	Monitoring      bool           `json:"monitoring"`
	Fields          map[string]any `json:"fields"`
	CreatedAt       int64          `json:"createdAt"`
	UpdatedAt       int64          `json:"updatedAt"`
}

// CheckResult is the outcome of a single check execution
type CheckResult struct {
	Status         MonitorStatus `json:"status"`
	ResponseTimeMs int64         `json:"responseTimeMs"`
	Details        string        `json:"details"`
	Error          string        `json:"error,omitempty"`
}

// Default values
const (
	MinCheckIntervalMs   = int64(5000)
	DefaultTimeoutMs     = int64(30000)
	MaxBackoffMs         = int64(3600000)
	DefaultHistoryLimit  = 500
	MinHistoryLimit      = 25
	MaxHistoryLimit      = 10000
	CheckTimeoutBufferMs = int64(5000)
	JitterFraction       = 0.1
)

// CheckDetailTimeout is recorded when a check is cancelled by its deadline
const CheckDetailTimeout = "timeout"
