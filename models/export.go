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

// ExportData is the versioned portable snapshot produced by data.export and
// consumed by data.import. Reserved-prefix settings are never included.
type ExportData struct {
	SchemaVersion int              `json:"schemaVersion" validate:"required,gt=0"`
	AppVersion    string           `json:"appVersion" validate:"required"`
	CreatedAtMs   int64            `json:"createdAtMs" validate:"required,gt=0"`
	Sites         []SiteExport     `json:"sites" validate:"dive"`
	Monitors      []MonitorExport  `json:"monitors" validate:"dive"`
	History       []HistoryExport  `json:"history" validate:"dive"`
	Settings      []SettingsExport `json:"settings" validate:"dive"`
}

// SiteExport is a site row in the portable snapshot
type SiteExport struct {
	Identifier string `json:"identifier" validate:"required,min=1"`
	Name       string `json:"name" validate:"required,min=1"`
	Monitoring bool   `json:"monitoring"`
}

// MonitorExport is a monitor row in the portable snapshot
type MonitorExport struct {
	ID              string         `json:"id" validate:"required,min=1"`
	SiteIdentifier  string         `json:"siteIdentifier" validate:"required,min=1"`
	Type            string         `json:"type" validate:"required,min=1"`
	Status          MonitorStatus  `json:"status"`
	CheckIntervalMs int64          `json:"checkIntervalMs" validate:"required,gte=5000"`
	TimeoutMs       int64          `json:"timeoutMs" validate:"required,gt=0"`
	RetryAttempts   int            `json:"retryAttempts" validate:"gte=0"`
	Monitoring      bool           `json:"monitoring"`
	Fields          map[string]any `json:"fields,omitempty"`
}

// HistoryExport is a history row in the portable snapshot
type HistoryExport struct {
	MonitorID      string        `json:"monitorId" validate:"required,min=1"`
	Timestamp      int64         `json:"timestamp" validate:"required,gt=0"`
	Status         MonitorStatus `json:"status" validate:"required,oneof=up down"`
	ResponseTimeMs int64         `json:"responseTimeMs" validate:"gte=0"`
	Details        string        `json:"details,omitempty"`
}

// SettingsExport is a settings row in the portable snapshot
type SettingsExport struct {
	Key   string `json:"key" validate:"required,min=1"`
	Value string `json:"value"`
}

// ImportPreview is the result of the parse/validate step of data.import.
// Nothing is persisted until the preview is passed to PersistImport.
type ImportPreview struct {
	SchemaVersion    int      `json:"schemaVersion"`
	AppVersion       string   `json:"appVersion"`
	IncomingSites    int      `json:"incomingSites"`
	IncomingMonitors int      `json:"incomingMonitors"`
	IncomingHistory  int      `json:"incomingHistory"`
	IncomingSettings int      `json:"incomingSettings"`
	ReplacedSites    int      `json:"replacedSites"`
	ReplacedMonitors int      `json:"replacedMonitors"`
	SkippedSettings  []string `json:"skippedSettings"`

	// Payload carries the validated snapshot through to PersistImport.
	Payload *ExportData `json:"-"`
}

// BackupMetadata describes a backup artifact produced by data.backup.download
type BackupMetadata struct {
	SchemaVersion     int    `json:"schemaVersion"`
	AppVersion        string `json:"appVersion"`
	CreatedAtMs       int64  `json:"createdAtMs"`
	SizeBytes         int64  `json:"sizeBytes"`
	ChecksumHex       string `json:"checksumHex"`
	RetentionHintDays int    `json:"retentionHintDays"`
	OriginalPath      string `json:"originalPath"`
}

// BackupArtifact bundles raw database bytes with their metadata
type BackupArtifact struct {
	Bytes    []byte         `json:"bytes"`
	Metadata BackupMetadata `json:"metadata"`
}

// DefaultBackupRetentionHintDays is advisory only; the engine never deletes backups
const DefaultBackupRetentionHintDays = 30
