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

// StatusRecord is the GORM model for the history table
type StatusRecord struct {
	ID             int64         `gorm:"column:id;primaryKey;autoIncrement"`
	MonitorID      string        `gorm:"column:monitor_id;not null"`
	Timestamp      int64         `gorm:"column:timestamp;not null"`
	Status         MonitorStatus `gorm:"column:status;not null"`
	ResponseTimeMs int64         `gorm:"column:response_time_ms;not null;default:0"`
	Details        string        `gorm:"column:details"`
}

func (StatusRecord) TableName() string { return "history" }

// ToResponse converts a StatusRecord DB record to StatusRecordResponse
func (r *StatusRecord) ToResponse() *StatusRecordResponse {
	return &StatusRecordResponse{
		MonitorID:      r.MonitorID,
		Timestamp:      r.Timestamp,
		Status:         r.Status,
		ResponseTimeMs: r.ResponseTimeMs,
		Details:        r.Details,
	}
}

// StatusRecordResponse is the outward representation of a history entry
type StatusRecordResponse struct {
	MonitorID      string        `json:"monitorId"`
	Timestamp      int64         `json:"timestamp"`
	Status         MonitorStatus `json:"status"`
	ResponseTimeMs int64         `json:"responseTimeMs"`
	Details        string        `json:"details,omitempty"`
}

// HistoryStats summarizes a monitor's history over a window
type HistoryStats struct {
	MonitorID         string  `json:"monitorId"`
	TotalChecks       int64   `json:"totalChecks"`
	UpChecks          int64   `json:"upChecks"`
	DownChecks        int64   `json:"downChecks"`
	UptimePercent     float64 `json:"uptimePercent"`
	AvgResponseTimeMs float64 `json:"avgResponseTimeMs"`
	MinResponseTimeMs int64   `json:"minResponseTimeMs"`
	MaxResponseTimeMs int64   `json:"maxResponseTimeMs"`
	WindowStartMs     int64   `json:"windowStartMs"`
}
