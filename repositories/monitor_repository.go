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

package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/db"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/operations"
)

// monitorUpsertColumns are the columns refreshed when an existing monitor
// row is replaced, including every dynamic type-specific column.
var monitorUpsertColumns = []string{
	"site_identifier", "type", "status", "check_interval_ms", "timeout_ms",
	"retry_attempts", "monitoring",
	"url", "host", "port", "record_type", "expected_value", "status_code",
	"header_name", "keyword", "json_path", "latency_threshold_ms",
	"cert_expiry_window_days",
	"updated_at",
}

// MonitorRepository defines the interface for monitor data access
type MonitorRepository interface {
	GetAll(ctx context.Context) ([]models.Monitor, error)
	GetBySite(ctx context.Context, siteIdentifier string) ([]models.Monitor, error)
	GetByID(ctx context.Context, id string) (*models.Monitor, error)
	Upsert(ctx context.Context, monitor *models.Monitor) error
	Delete(ctx context.Context, id string) (bool, error)
	BulkReplace(ctx context.Context, siteIdentifier string, monitors []models.Monitor) error
	UpdateStatus(ctx context.Context, id string, status models.MonitorStatus) error
	SetMonitoring(ctx context.Context, id string, monitoring bool) error

	GetAllInternal(tx *gorm.DB) ([]models.Monitor, error)
	GetBySiteInternal(tx *gorm.DB, siteIdentifier string) ([]models.Monitor, error)
	GetByIDInternal(tx *gorm.DB, id string) (*models.Monitor, error)
	UpsertInternal(tx *gorm.DB, monitor *models.Monitor) error
	DeleteInternal(tx *gorm.DB, id string) (bool, error)
	BulkReplaceInternal(tx *gorm.DB, siteIdentifier string, monitors []models.Monitor) error
	UpdateStatusInternal(tx *gorm.DB, id string, status models.MonitorStatus) error
	SetMonitoringInternal(tx *gorm.DB, id string, monitoring bool) error
}

// MonitorRepo implements MonitorRepository using GORM
type MonitorRepo struct {
	emitter operations.EventEmitter
}

// NewMonitorRepo creates a new monitor repository. The emitter receives the
// operation lifecycle events of every public method.
func NewMonitorRepo(emitter operations.EventEmitter) MonitorRepository {
	return &MonitorRepo{emitter: emitter}
}

func (r *MonitorRepo) opConfig(name string) operations.Config {
	return operations.Config{Name: name, Emitter: r.emitter}
}

// GetAll retrieves every monitor ordered by site then id
func (r *MonitorRepo) GetAll(ctx context.Context) ([]models.Monitor, error) {
	return operations.RunWithResult(ctx, r.opConfig("monitor.getAll"),
		func(ctx context.Context) ([]models.Monitor, error) {
			return r.GetAllInternal(db.DB(ctx))
		})
}

// GetBySite retrieves the monitors belonging to a site
func (r *MonitorRepo) GetBySite(ctx context.Context, siteIdentifier string) ([]models.Monitor, error) {
	return operations.RunWithResult(ctx, r.opConfig("monitor.getBySite"),
		func(ctx context.Context) ([]models.Monitor, error) {
			return r.GetBySiteInternal(db.DB(ctx), siteIdentifier)
		})
}

// GetByID retrieves a monitor by id; nil when absent
func (r *MonitorRepo) GetByID(ctx context.Context, id string) (*models.Monitor, error) {
	return operations.RunWithResult(ctx, r.opConfig("monitor.getById"),
		func(ctx context.Context) (*models.Monitor, error) {
			return r.GetByIDInternal(db.DB(ctx), id)
		})
}

// Upsert inserts or replaces a monitor row
func (r *MonitorRepo) Upsert(ctx context.Context, monitor *models.Monitor) error {
	return operations.Run(ctx, r.opConfig("monitor.upsert"),
		func(ctx context.Context) error {
			return db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				return r.UpsertInternal(tx, monitor)
			})
		})
}

// Delete removes a monitor; history cascades. Returns whether a row was
// deleted.
func (r *MonitorRepo) Delete(ctx context.Context, id string) (bool, error) {
	return operations.RunWithResult(ctx, r.opConfig("monitor.delete"),
		func(ctx context.Context) (bool, error) {
			var deleted bool
			err := db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				var innerErr error
				deleted, innerErr = r.DeleteInternal(tx, id)
				return innerErr
			})
			return deleted, err
		})
}

// BulkReplace swaps a site's monitor set for the supplied one
func (r *MonitorRepo) BulkReplace(ctx context.Context, siteIdentifier string, monitors []models.Monitor) error {
	return operations.Run(ctx, r.opConfig("monitor.bulkReplace"),
		func(ctx context.Context) error {
			return db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				return r.BulkReplaceInternal(tx, siteIdentifier, monitors)
			})
		})
}

// UpdateStatus persists a status transition
func (r *MonitorRepo) UpdateStatus(ctx context.Context, id string, status models.MonitorStatus) error {
	return operations.Run(ctx, r.opConfig("monitor.updateStatus"),
		func(ctx context.Context) error {
			return db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				return r.UpdateStatusInternal(tx, id, status)
			})
		})
}

// SetMonitoring flips the per-monitor enable flag
func (r *MonitorRepo) SetMonitoring(ctx context.Context, id string, monitoring bool) error {
	return operations.Run(ctx, r.opConfig("monitor.setMonitoring"),
		func(ctx context.Context) error {
			return db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				return r.SetMonitoringInternal(tx, id, monitoring)
			})
		})
}

// GetAllInternal retrieves every monitor on the supplied handle
func (r *MonitorRepo) GetAllInternal(tx *gorm.DB) ([]models.Monitor, error) {
	var monitors []models.Monitor
	err := tx.Order("site_identifier ASC, id ASC").Find(&monitors).Error
	return monitors, err
}

// GetBySiteInternal retrieves a site's monitors on the supplied handle
func (r *MonitorRepo) GetBySiteInternal(tx *gorm.DB, siteIdentifier string) ([]models.Monitor, error) {
	var monitors []models.Monitor
	err := tx.Where("site_identifier = ?", siteIdentifier).Order("id ASC").Find(&monitors).Error
	return monitors, err
}

// GetByIDInternal retrieves a monitor on the supplied handle; nil when absent
func (r *MonitorRepo) GetByIDInternal(tx *gorm.DB, id string) (*models.Monitor, error) {
	var monitor models.Monitor
	err := tx.Where("id = ?", id).First(&monitor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &monitor, nil
}

// UpsertInternal inserts or replaces a monitor row on the supplied handle
func (r *MonitorRepo) UpsertInternal(tx *gorm.DB, monitor *models.Monitor) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(monitorUpsertColumns),
	}).Create(monitor).Error
}

// DeleteInternal removes a monitor on the supplied handle
func (r *MonitorRepo) DeleteInternal(tx *gorm.DB, id string) (bool, error) {
	result := tx.Where("id = ?", id).Delete(&models.Monitor{})
	return result.RowsAffected > 0, result.Error
}

// BulkReplaceInternal swaps a site's monitor set on the supplied handle:
// rows absent from the new set are deleted, the rest are upserted.
func (r *MonitorRepo) BulkReplaceInternal(tx *gorm.DB, siteIdentifier string, monitors []models.Monitor) error {
	keepIDs := make([]string, 0, len(monitors))
	for i := range monitors {
		keepIDs = append(keepIDs, monitors[i].ID)
	}

	scope := tx.Where("site_identifier = ?", siteIdentifier)
	if len(keepIDs) > 0 {
		scope = scope.Where("id NOT IN ?", keepIDs)
	}
	if err := scope.Delete(&models.Monitor{}).Error; err != nil {
		return err
	}

	for i := range monitors {
		monitors[i].SiteIdentifier = siteIdentifier
		if err := r.UpsertInternal(tx, &monitors[i]); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatusInternal persists a status transition on the supplied handle
func (r *MonitorRepo) UpdateStatusInternal(tx *gorm.DB, id string, status models.MonitorStatus) error {
	return tx.Model(&models.Monitor{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UnixMilli(),
		}).Error
}

// SetMonitoringInternal flips the enable flag on the supplied handle
func (r *MonitorRepo) SetMonitoringInternal(tx *gorm.DB, id string, monitoring bool) error {
	return tx.Model(&models.Monitor{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"monitoring": monitoring,
			"updated_at": time.Now().UnixMilli(),
		}).Error
}
