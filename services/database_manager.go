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

package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/db"
	dbmigrations "github.com/wso2/uptime-watcher-platform/monitor-engine-service/db_migrations"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/events"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/host"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/repositories"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// sqliteMagic is the 16-byte header every SQLite database file starts with.
var sqliteMagic = []byte("SQLite format 3\x00")

// DatabaseManagerService owns data portability: export/import, backup and
// restore, and the history retention setting.
type DatabaseManagerService interface {
	ExportAll(ctx context.Context) (*models.ExportData, error)
	ImportData(ctx context.Context, payload *models.ExportData) (*models.ImportPreview, error)
	PersistImport(ctx context.Context, preview *models.ImportPreview) error
	DownloadBackup(ctx context.Context) (*models.BackupArtifact, error)
	RestoreBackup(ctx context.Context, data []byte) (*models.BackupMetadata, error)
	GetHistoryLimit(ctx context.Context) (int, error)
	SetHistoryLimit(ctx context.Context, limit int) (int, error)

	// Bus returns the manager-owned event bus carrying internal:* events.
	Bus() *events.Bus
}

type databaseManagerService struct {
	logger       *slog.Logger
	siteRepo     repositories.SiteRepository
	monitorRepo  repositories.MonitorRepository
	historyRepo  repositories.HistoryRepository
	settingsRepo repositories.SettingsRepository
	bus          *events.Bus
	validate     *validator.Validate
}

// NewDatabaseManagerService creates a new database manager service instance
func NewDatabaseManagerService(
	logger *slog.Logger,
	siteRepo repositories.SiteRepository,
	monitorRepo repositories.MonitorRepository,
	historyRepo repositories.HistoryRepository,
	settingsRepo repositories.SettingsRepository,
	bus *events.Bus,
) DatabaseManagerService {
	return &databaseManagerService{
		logger:       logger,
		siteRepo:     siteRepo,
		monitorRepo:  monitorRepo,
		historyRepo:  historyRepo,
		settingsRepo: settingsRepo,
		bus:          bus,
		validate:     validator.New(),
	}
}

func (s *databaseManagerService) Bus() *events.Bus {
	return s.bus
}

// ExportAll snapshots sites, monitors, history, and settings into the
// portable representation. Reserved-prefix settings never leave the host.
func (s *databaseManagerService) ExportAll(ctx context.Context) (*models.ExportData, error) {
	sites, err := s.siteRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	monitors, err := s.monitorRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.historyRepo.GetAllInternal(db.DB(ctx))
	if err != nil {
		return nil, err
	}
	settings, err := s.settingsRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	export := &models.ExportData{
		SchemaVersion: int(dbmigrations.ExpectedUserVersion),
		AppVersion:    config.GetConfig().PackageVersion,
		CreatedAtMs:   time.Now().UnixMilli(),
		Sites:         make([]models.SiteExport, 0, len(sites)),
		Monitors:      make([]models.MonitorExport, 0, len(monitors)),
		History:       make([]models.HistoryExport, 0, len(history)),
		Settings:      make([]models.SettingsExport, 0, len(settings)),
	}
	for _, site := range sites {
		export.Sites = append(export.Sites, models.SiteExport{
			Identifier: site.Identifier,
			Name:       site.Name,
			Monitoring: site.Monitoring,
		})
	}
	for i := range monitors {
		monitor := &monitors[i]
		export.Monitors = append(export.Monitors, models.MonitorExport{
			ID:              monitor.ID,
			SiteIdentifier:  monitor.SiteIdentifier,
			Type:            monitor.Type,
			Status:          monitor.Status,
			CheckIntervalMs: monitor.CheckIntervalMs,
			TimeoutMs:       monitor.TimeoutMs,
			RetryAttempts:   monitor.RetryAttempts,
			Monitoring:      monitor.Monitoring,
			Fields:          monitor.FieldValues(),
		})
	}
	for i := range history {
		record := &history[i]
		export.History = append(export.History, models.HistoryExport{
			MonitorID:      record.MonitorID,
			Timestamp:      record.Timestamp,
			Status:         record.Status,
			ResponseTimeMs: record.ResponseTimeMs,
			Details:        record.Details,
		})
	}
	for _, setting := range settings {
		if models.IsReservedSettingKey(setting.Key) {
			continue
		}
		export.Settings = append(export.Settings, models.SettingsExport{
			Key:   setting.Key,
			Value: setting.Value,
		})
	}

	s.logger.Info("Export produced",
		"sites", len(export.Sites), "monitors", len(export.Monitors),
		"history", len(export.History), "settings", len(export.Settings))
	return export, nil
}

// ImportData is the pure parse/validate step of data.import. Nothing is
// persisted; the returned preview carries the validated payload through to
// PersistImport.
func (s *databaseManagerService) ImportData(ctx context.Context, payload *models.ExportData) (*models.ImportPreview, error) {
	if payload == nil {
		return nil, fmt.Errorf("import payload is required: %w", utils.ErrInvalidInput)
	}
	if payload.SchemaVersion > int(dbmigrations.ExpectedUserVersion) {
		return nil, fmt.Errorf("import schema version %d is newer than supported version %d: %w",
			payload.SchemaVersion, dbmigrations.ExpectedUserVersion, utils.ErrSchemaNewer)
	}
	if err := s.validate.Struct(payload); err != nil {
		return nil, host.NewValidationError(validationIssues(err))
	}
	if issues := crossValidateImport(payload); len(issues) > 0 {
		return nil, host.NewValidationError(issues)
	}

	currentSites, err := s.siteRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	currentMonitors, err := s.monitorRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var skipped []string
	for _, setting := range payload.Settings {
		if models.IsReservedSettingKey(setting.Key) {
			skipped = append(skipped, setting.Key)
		}
	}

	return &models.ImportPreview{
		SchemaVersion:    payload.SchemaVersion,
		AppVersion:       payload.AppVersion,
		IncomingSites:    len(payload.Sites),
		IncomingMonitors: len(payload.Monitors),
		IncomingHistory:  len(payload.History),
		IncomingSettings: len(payload.Settings) - len(skipped),
		ReplacedSites:    len(currentSites),
		ReplacedMonitors: len(currentMonitors),
		SkippedSettings:  skipped,
		Payload:          payload,
	}, nil
}

// PersistImport deletes all current state and inserts the previewed payload
// inside a single transaction. Reserved-prefix settings survive untouched.
func (s *databaseManagerService) PersistImport(ctx context.Context, preview *models.ImportPreview) error {
	if preview == nil || preview.Payload == nil {
		return fmt.Errorf("import preview with payload is required: %w", utils.ErrInvalidInput)
	}
	payload := preview.Payload

	err := db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
		// Site deletion cascades to monitors and history through the FKs.
		if err := s.siteRepo.DeleteAllInternal(tx); err != nil {
			return err
		}
		existingSettings, err := s.settingsRepo.GetAllInternal(tx)
		if err != nil {
			return err
		}
		for _, setting := range existingSettings {
			if models.IsReservedSettingKey(setting.Key) {
				continue
			}
			if err := s.settingsRepo.DeleteInternal(tx, setting.Key); err != nil {
				return err
			}
		}

		for _, site := range payload.Sites {
			if err := s.siteRepo.UpsertInternal(tx, &models.Site{
				Identifier: site.Identifier,
				Name:       site.Name,
				Monitoring: site.Monitoring,
			}); err != nil {
				return err
			}
		}
		for i := range payload.Monitors {
			monitor, err := importedMonitor(&payload.Monitors[i])
			if err != nil {
				return err
			}
			if err := s.monitorRepo.UpsertInternal(tx, monitor); err != nil {
				return err
			}
		}
		for i := range payload.History {
			record := &payload.History[i]
			if err := tx.Create(&models.StatusRecord{
				MonitorID:      record.MonitorID,
				Timestamp:      record.Timestamp,
				Status:         record.Status,
				ResponseTimeMs: record.ResponseTimeMs,
				Details:        record.Details,
			}).Error; err != nil {
				return err
			}
		}
		for _, setting := range payload.Settings {
			if models.IsReservedSettingKey(setting.Key) {
				continue
			}
			if err := s.settingsRepo.SetInternal(tx, setting.Key, setting.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.bus.Emit(ctx, events.EventInternalDatabaseTransactionCompleted, map[string]any{
		"operation": "data.import",
		"sites":     len(payload.Sites),
		"monitors":  len(payload.Monitors),
	})
	s.logger.Info("Import persisted",
		"sites", len(payload.Sites), "monitors", len(payload.Monitors),
		"history", len(payload.History))
	return nil
}

// DownloadBackup snapshots the database with VACUUM INTO and returns the
// bytes with checksum metadata.
func (s *databaseManagerService) DownloadBackup(ctx context.Context) (*models.BackupArtifact, error) {
	tempDir, err := os.MkdirTemp("", "uwp-backup-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = os.RemoveAll(tempDir)
	}()

	snapshotPath := filepath.Join(tempDir, "backup.sqlite")
	if err := db.Snapshot(ctx, snapshotPath); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}

	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return nil, err
	}
	checksum := sha256.Sum256(data)

	version, err := db.InspectFile(snapshotPath)
	if err != nil {
		return nil, err
	}

	artifact := &models.BackupArtifact{
		Bytes: data,
		Metadata: models.BackupMetadata{
			SchemaVersion:     int(version),
			AppVersion:        config.GetConfig().PackageVersion,
			CreatedAtMs:       time.Now().UnixMilli(),
			SizeBytes:         int64(len(data)),
			ChecksumHex:       hex.EncodeToString(checksum[:]),
			RetentionHintDays: models.DefaultBackupRetentionHintDays,
			OriginalPath:      db.DatabasePath(),
		},
	}

	s.bus.Emit(ctx, events.EventInternalDatabaseBackupCreated, map[string]any{
		"sizeBytes":   artifact.Metadata.SizeBytes,
		"checksumHex": artifact.Metadata.ChecksumHex,
	})
	s.logger.Info("Backup created", "sizeBytes", artifact.Metadata.SizeBytes)
	return artifact, nil
}

// RestoreBackup validates the supplied database bytes, takes a pre-restore
// snapshot, atomically swaps the live file, and re-runs migrations.
func (s *databaseManagerService) RestoreBackup(ctx context.Context, data []byte) (*models.BackupMetadata, error) {
	if len(data) < len(sqliteMagic) || !bytes.Equal(data[:len(sqliteMagic)], sqliteMagic) {
		return nil, fmt.Errorf("backup is not a database file: %w", utils.ErrIntegrityFailed)
	}

	tempDir, err := os.MkdirTemp("", "uwp-restore-*")
	if err != nil {
		return nil, err
	}
	cleanupTemp := true
	defer func() {
		if cleanupTemp {
			_ = os.RemoveAll(tempDir)
		}
	}()

	candidatePath := filepath.Join(tempDir, "restore.sqlite")
	if err := os.WriteFile(candidatePath, data, 0o600); err != nil {
		return nil, err
	}
	checksum := sha256.Sum256(data)

	version, err := db.InspectFile(candidatePath)
	if err != nil {
		return nil, err
	}
	if version > dbmigrations.ExpectedUserVersion {
		return nil, fmt.Errorf("backup schema version %d is newer than supported version %d: %w",
			version, dbmigrations.ExpectedUserVersion, utils.ErrSchemaNewer)
	}

	preRestorePath := filepath.Join(tempDir, "pre-restore.sqlite")
	if err := db.Snapshot(ctx, preRestorePath); err != nil {
		return nil, fmt.Errorf("failed to snapshot before restore: %w", err)
	}

	if err := db.SwapDatabaseFile(candidatePath); err != nil {
		// The candidate may already be consumed; keep the temp dir so the
		// pre-restore snapshot is recoverable.
		cleanupTemp = false
		return nil, err
	}
	if err := dbmigrations.Migrate(); err != nil {
		cleanupTemp = false
		return nil, fmt.Errorf("failed to migrate restored database: %w", err)
	}

	metadata := &models.BackupMetadata{
		SchemaVersion:     int(version),
		AppVersion:        config.GetConfig().PackageVersion,
		CreatedAtMs:       time.Now().UnixMilli(),
		SizeBytes:         int64(len(data)),
		ChecksumHex:       hex.EncodeToString(checksum[:]),
		RetentionHintDays: models.DefaultBackupRetentionHintDays,
		OriginalPath:      db.DatabasePath(),
	}

	s.bus.Emit(ctx, events.EventInternalDatabaseBackupRestored, map[string]any{
		"schemaVersion": metadata.SchemaVersion,
		"sizeBytes":     metadata.SizeBytes,
	})
	s.logger.Info("Backup restored", "schemaVersion", metadata.SchemaVersion, "sizeBytes", metadata.SizeBytes)
	return metadata, nil
}

// GetHistoryLimit returns the persisted retention setting, normalized.
func (s *databaseManagerService) GetHistoryLimit(ctx context.Context) (int, error) {
	setting, err := s.settingsRepo.Get(ctx, models.SettingKeyHistoryLimit)
	if err != nil {
		return 0, err
	}
	if setting == nil {
		return models.DefaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(setting.Value)
	if err != nil {
		return models.DefaultHistoryLimit, nil
	}
	return utils.NormalizeHistoryLimit(limit), nil
}

// SetHistoryLimit persists the normalized limit and prunes every monitor's
// history down to it.
func (s *databaseManagerService) SetHistoryLimit(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		return 0, fmt.Errorf("history limit must be positive: %w", utils.ErrInvalidInput)
	}
	normalized := utils.NormalizeHistoryLimit(limit)

	if err := s.settingsRepo.Set(ctx, models.SettingKeyHistoryLimit, strconv.Itoa(normalized)); err != nil {
		return 0, err
	}
	if err := s.historyRepo.PruneAll(ctx, normalized); err != nil {
		return 0, err
	}

	s.bus.Emit(ctx, events.EventInternalDatabaseTransactionCompleted, map[string]any{
		"operation":    "settings.updateHistoryLimit",
		"historyLimit": normalized,
	})
	s.logger.Info("History limit updated", "limit", normalized)
	return normalized, nil
}

// importedMonitor materializes a portable monitor row back into the GORM
// model, routing fields onto the typed columns.
func importedMonitor(export *models.MonitorExport) (*models.Monitor, error) {
	status := export.Status
	if status == "" {
		status = models.MonitorStatusPending
	}
	monitor := &models.Monitor{
		ID:              export.ID,
		SiteIdentifier:  export.SiteIdentifier,
		Type:            export.Type,
		Status:          status,
		CheckIntervalMs: export.CheckIntervalMs,
		TimeoutMs:       export.TimeoutMs,
		RetryAttempts:   export.RetryAttempts,
		Monitoring:      export.Monitoring,
	}
	if err := monitor.ApplyFields(export.Fields); err != nil {
		return nil, fmt.Errorf("monitor %s: %w", export.ID, err)
	}
	return monitor, nil
}

// crossValidateImport checks referential integrity between the snapshot's
// tables before anything touches the database.
func crossValidateImport(payload *models.ExportData) []string {
	var issues []string

	siteIDs := make(map[string]bool, len(payload.Sites))
	for _, site := range payload.Sites {
		if siteIDs[site.Identifier] {
			issues = append(issues, fmt.Sprintf("site %q is duplicated", site.Identifier))
		}
		siteIDs[site.Identifier] = true
	}

	monitorIDs := make(map[string]bool, len(payload.Monitors))
	for i := range payload.Monitors {
		monitor := &payload.Monitors[i]
		if monitorIDs[monitor.ID] {
			issues = append(issues, fmt.Sprintf("monitor %q is duplicated", monitor.ID))
		}
		monitorIDs[monitor.ID] = true
		if !siteIDs[monitor.SiteIdentifier] {
			issues = append(issues, fmt.Sprintf("monitor %q references unknown site %q", monitor.ID, monitor.SiteIdentifier))
		}
	}

	for i := range payload.History {
		if !monitorIDs[payload.History[i].MonitorID] {
			issues = append(issues, fmt.Sprintf("history entry references unknown monitor %q", payload.History[i].MonitorID))
		}
	}
	return issues
}

// validationIssues flattens validator errors into human-readable issues.
func validationIssues(err error) []string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	issues := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		issues = append(issues, fmt.Sprintf("field %s failed rule %q", fieldError.Namespace(), fieldError.Tag()))
	}
	return issues
}
