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

	"gorm.io/gorm"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/db"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/operations"
)

// HistoryRepository defines the interface for status history data access
type HistoryRepository interface {
	Append(ctx context.Context, record *models.StatusRecord, maxEntries int) error
	GetRecent(ctx context.Context, monitorID string, limit int) ([]models.StatusRecord, error)
	GetLatest(ctx context.Context, monitorID string) (*models.StatusRecord, error)
	Prune(ctx context.Context, monitorID string, maxEntries int) error
	PruneAll(ctx context.Context, maxEntries int) error
	DeleteForMonitor(ctx context.Context, monitorID string) error
	GetStats(ctx context.Context, monitorID string, sinceMs int64) (*models.HistoryStats, error)

	AppendInternal(tx *gorm.DB, record *models.StatusRecord, maxEntries int) error
	GetRecentInternal(tx *gorm.DB, monitorID string, limit int) ([]models.StatusRecord, error)
	GetLatestInternal(tx *gorm.DB, monitorID string) (*models.StatusRecord, error)
	PruneInternal(tx *gorm.DB, monitorID string, maxEntries int) error
	PruneAllInternal(tx *gorm.DB, maxEntries int) error
	DeleteForMonitorInternal(tx *gorm.DB, monitorID string) error
	GetAllInternal(tx *gorm.DB) ([]models.StatusRecord, error)
}

// HistoryRepo implements HistoryRepository using GORM
type HistoryRepo struct {
	emitter operations.EventEmitter
}

// NewHistoryRepo creates a new history repository. The emitter receives the
// operation lifecycle events of every public method.
func NewHistoryRepo(emitter operations.EventEmitter) HistoryRepository {
	return &HistoryRepo{emitter: emitter}
}

func (r *HistoryRepo) opConfig(name string) operations.Config {
	return operations.Config{Name: name, Emitter: r.emitter}
}

// Append writes a status record and prunes the monitor's ring down to
// maxEntries inside one transaction
func (r *HistoryRepo) Append(ctx context.Context, record *models.StatusRecord, maxEntries int) error {
	return operations.Run(ctx, r.opConfig("history.append"),
		func(ctx context.Context) error {
			return db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				return r.AppendInternal(tx, record, maxEntries)
			})
		})
}

// GetRecent retrieves the newest records for a monitor, newest first
func (r *HistoryRepo) GetRecent(ctx context.Context, monitorID string, limit int) ([]models.StatusRecord, error) {
	return operations.RunWithResult(ctx, r.opConfig("history.getRecent"),
		func(ctx context.Context) ([]models.StatusRecord, error) {
			return r.GetRecentInternal(db.DB(ctx), monitorID, limit)
		})
}

// GetLatest retrieves the newest record for a monitor; nil when the monitor
// has no history yet
func (r *HistoryRepo) GetLatest(ctx context.Context, monitorID string) (*models.StatusRecord, error) {
	return operations.RunWithResult(ctx, r.opConfig("history.getLatest"),
		func(ctx context.Context) (*models.StatusRecord, error) {
			return r.GetLatestInternal(db.DB(ctx), monitorID)
		})
}

// Prune drops a monitor's oldest records beyond maxEntries
func (r *HistoryRepo) Prune(ctx context.Context, monitorID string, maxEntries int) error {
	return operations.Run(ctx, r.opConfig("history.prune"),
		func(ctx context.Context) error {
			return db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				return r.PruneInternal(tx, monitorID, maxEntries)
			})
		})
}

// PruneAll applies the retention bound to every monitor
func (r *HistoryRepo) PruneAll(ctx context.Context, maxEntries int) error {
	return operations.Run(ctx, r.opConfig("history.pruneAll"),
		func(ctx context.Context) error {
			return db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				return r.PruneAllInternal(tx, maxEntries)
			})
		})
}

// DeleteForMonitor removes a monitor's entire history
func (r *HistoryRepo) DeleteForMonitor(ctx context.Context, monitorID string) error {
	return operations.Run(ctx, r.opConfig("history.deleteForMonitor"),
		func(ctx context.Context) error {
			return db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				return r.DeleteForMonitorInternal(tx, monitorID)
			})
		})
}

// GetStats summarizes a monitor's history since the given epoch
// milliseconds timestamp
func (r *HistoryRepo) GetStats(ctx context.Context, monitorID string, sinceMs int64) (*models.HistoryStats, error) {
	return operations.RunWithResult(ctx, r.opConfig("history.getStats"),
		func(ctx context.Context) (*models.HistoryStats, error) {
			var row struct {
				TotalChecks       int64
				UpChecks          int64
				AvgResponseTimeMs float64
				MinResponseTimeMs int64
				MaxResponseTimeMs int64
			}
			err := db.DB(ctx).Model(&models.StatusRecord{}).
				Select(`COUNT(*) AS total_checks,
					COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS up_checks,
					COALESCE(AVG(response_time_ms), 0) AS avg_response_time_ms,
					COALESCE(MIN(response_time_ms), 0) AS min_response_time_ms,
					COALESCE(MAX(response_time_ms), 0) AS max_response_time_ms`, models.MonitorStatusUp).
				Where("monitor_id = ? AND timestamp >= ?", monitorID, sinceMs).
				Scan(&row).Error
			if err != nil {
				return nil, err
			}

			stats := &models.HistoryStats{
				MonitorID:         monitorID,
				TotalChecks:       row.TotalChecks,
				UpChecks:          row.UpChecks,
				DownChecks:        row.TotalChecks - row.UpChecks,
				AvgResponseTimeMs: row.AvgResponseTimeMs,
				MinResponseTimeMs: row.MinResponseTimeMs,
				MaxResponseTimeMs: row.MaxResponseTimeMs,
				WindowStartMs:     sinceMs,
			}
			if row.TotalChecks > 0 {
				stats.UptimePercent = float64(row.UpChecks) / float64(row.TotalChecks) * 100.0
			}
			return stats, nil
		})
}

// AppendInternal writes a record and prunes on the supplied handle
func (r *HistoryRepo) AppendInternal(tx *gorm.DB, record *models.StatusRecord, maxEntries int) error {
	if err := tx.Create(record).Error; err != nil {
		return err
	}
	return r.PruneInternal(tx, record.MonitorID, maxEntries)
}

// GetRecentInternal retrieves the newest records on the supplied handle
func (r *HistoryRepo) GetRecentInternal(tx *gorm.DB, monitorID string, limit int) ([]models.StatusRecord, error) {
	var records []models.StatusRecord
	err := tx.Where("monitor_id = ?", monitorID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// GetLatestInternal retrieves the newest record on the supplied handle
func (r *HistoryRepo) GetLatestInternal(tx *gorm.DB, monitorID string) (*models.StatusRecord, error) {
	var record models.StatusRecord
	err := tx.Where("monitor_id = ?", monitorID).
		Order("timestamp DESC, id DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// PruneInternal drops the oldest rows beyond maxEntries on the supplied
// handle
func (r *HistoryRepo) PruneInternal(tx *gorm.DB, monitorID string, maxEntries int) error {
	if maxEntries < 1 {
		return nil
	}
	return tx.Exec(`DELETE FROM history
		WHERE monitor_id = ?
		AND id NOT IN (
			SELECT id FROM history
			WHERE monitor_id = ?
			ORDER BY timestamp DESC, id DESC
			LIMIT ?
		)`, monitorID, monitorID, maxEntries).Error
}

// PruneAllInternal applies the retention bound to every monitor on the
// supplied handle
func (r *HistoryRepo) PruneAllInternal(tx *gorm.DB, maxEntries int) error {
	var monitorIDs []string
	if err := tx.Model(&models.StatusRecord{}).Distinct("monitor_id").Pluck("monitor_id", &monitorIDs).Error; err != nil {
		return err
	}
	for _, monitorID := range monitorIDs {
		if err := r.PruneInternal(tx, monitorID, maxEntries); err != nil {
			return err
		}
	}
	return nil
}

// DeleteForMonitorInternal removes a monitor's history on the supplied
// handle
func (r *HistoryRepo) DeleteForMonitorInternal(tx *gorm.DB, monitorID string) error {
	return tx.Where("monitor_id = ?", monitorID).Delete(&models.StatusRecord{}).Error
}

// GetAllInternal retrieves every record on the supplied handle, ordered for
// stable export
func (r *HistoryRepo) GetAllInternal(tx *gorm.DB) ([]models.StatusRecord, error) {
	var records []models.StatusRecord
	err := tx.Order("monitor_id ASC, timestamp ASC, id ASC").Find(&records).Error
	return records, err
}
