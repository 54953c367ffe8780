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
	"gorm.io/gorm/clause"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/db"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/operations"
)

// SettingsRepository defines the interface for settings data access
type SettingsRepository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Set(ctx context.Context, key, value string) error
	GetAll(ctx context.Context) ([]models.Setting, error)
	Delete(ctx context.Context, key string) error

	GetInternal(tx *gorm.DB, key string) (*models.Setting, error)
	SetInternal(tx *gorm.DB, key, value string) error
	GetAllInternal(tx *gorm.DB) ([]models.Setting, error)
	DeleteInternal(tx *gorm.DB, key string) error
}

// SettingsRepo implements SettingsRepository using GORM
type SettingsRepo struct {
	emitter operations.EventEmitter
}

// NewSettingsRepo creates a new settings repository. The emitter receives
// the operation lifecycle events of every public method.
func NewSettingsRepo(emitter operations.EventEmitter) SettingsRepository {
	return &SettingsRepo{emitter: emitter}
}

func (r *SettingsRepo) opConfig(name string) operations.Config {
	return operations.Config{Name: name, Emitter: r.emitter}
}

// Get retrieves a setting by key; nil when absent
func (r *SettingsRepo) Get(ctx context.Context, key string) (*models.Setting, error) {
	return operations.RunWithResult(ctx, r.opConfig("settings.get"),
		func(ctx context.Context) (*models.Setting, error) {
			return r.GetInternal(db.DB(ctx), key)
		})
}

// Set inserts or replaces a setting
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	return operations.Run(ctx, r.opConfig("settings.set"),
		func(ctx context.Context) error {
			return db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				return r.SetInternal(tx, key, value)
			})
		})
}

// GetAll retrieves every setting ordered by key
func (r *SettingsRepo) GetAll(ctx context.Context) ([]models.Setting, error) {
	return operations.RunWithResult(ctx, r.opConfig("settings.getAll"),
		func(ctx context.Context) ([]models.Setting, error) {
			return r.GetAllInternal(db.DB(ctx))
		})
}

// Delete removes a setting; absent keys are a no-op
func (r *SettingsRepo) Delete(ctx context.Context, key string) error {
	return operations.Run(ctx, r.opConfig("settings.delete"),
		func(ctx context.Context) error {
			return db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				return r.DeleteInternal(tx, key)
			})
		})
}

// GetInternal retrieves a setting on the supplied handle; nil when absent
func (r *SettingsRepo) GetInternal(tx *gorm.DB, key string) (*models.Setting, error) {
	var setting models.Setting
	err := tx.Where("key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// SetInternal inserts or replaces a setting on the supplied handle
func (r *SettingsRepo) SetInternal(tx *gorm.DB, key, value string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
}

// GetAllInternal retrieves every setting on the supplied handle
func (r *SettingsRepo) GetAllInternal(tx *gorm.DB) ([]models.Setting, error) {
	var settings []models.Setting
	err := tx.Order("key ASC").Find(&settings).Error
	return settings, err
}

// DeleteInternal removes a setting on the supplied handle
func (r *SettingsRepo) DeleteInternal(tx *gorm.DB, key string) error {
	return tx.Where("key = ?", key).Delete(&models.Setting{}).Error
}
