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

// Package repositories holds the typed data access layer. Every repository
// exposes two method families: public methods own their transaction and are
// wrapped by the operational hook, Internal methods run on a caller-supplied
// handle so multi-repository writes compose inside one transaction.
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

// SiteRepository defines the interface for site data access
type SiteRepository interface {
	GetAll(ctx context.Context) ([]*models.Site, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.Site, error)
	Upsert(ctx context.Context, site *models.Site) error
	Delete(ctx context.Context, identifier string) (bool, error)
	DeleteAll(ctx context.Context) error

	GetAllInternal(tx *gorm.DB) ([]*models.Site, error)
	GetByIdentifierInternal(tx *gorm.DB, identifier string) (*models.Site, error)
	UpsertInternal(tx *gorm.DB, site *models.Site) error
	DeleteInternal(tx *gorm.DB, identifier string) (bool, error)
	DeleteAllInternal(tx *gorm.DB) error
}

// SiteRepo implements SiteRepository using GORM
type SiteRepo struct {
	emitter operations.EventEmitter
}

// NewSiteRepo creates a new site repository. The emitter receives the
// operation lifecycle events of every public method.
func NewSiteRepo(emitter operations.EventEmitter) SiteRepository {
	return &SiteRepo{emitter: emitter}
}

func (r *SiteRepo) opConfig(name string) operations.Config {
	return operations.Config{Name: name, Emitter: r.emitter}
}

// GetAll retrieves every site ordered by identifier
func (r *SiteRepo) GetAll(ctx context.Context) ([]*models.Site, error) {
	return operations.RunWithResult(ctx, r.opConfig("site.getAll"),
		func(ctx context.Context) ([]*models.Site, error) {
			return r.GetAllInternal(db.DB(ctx))
		})
}

// GetByIdentifier retrieves a site by identifier; nil when absent
func (r *SiteRepo) GetByIdentifier(ctx context.Context, identifier string) (*models.Site, error) {
	return operations.RunWithResult(ctx, r.opConfig("site.getByIdentifier"),
		func(ctx context.Context) (*models.Site, error) {
			return r.GetByIdentifierInternal(db.DB(ctx), identifier)
		})
}

// Upsert inserts or replaces a site row
func (r *SiteRepo) Upsert(ctx context.Context, site *models.Site) error {
	return operations.Run(ctx, r.opConfig("site.upsert"),
		func(ctx context.Context) error {
			return db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				return r.UpsertInternal(tx, site)
			})
		})
}

// Delete removes a site; monitors and history cascade. Returns whether a row
// was deleted.
func (r *SiteRepo) Delete(ctx context.Context, identifier string) (bool, error) {
	return operations.RunWithResult(ctx, r.opConfig("site.delete"),
		func(ctx context.Context) (bool, error) {
			var deleted bool
			err := db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				var innerErr error
				deleted, innerErr = r.DeleteInternal(tx, identifier)
				return innerErr
			})
			return deleted, err
		})
}

// DeleteAll removes every site; monitors and history cascade
func (r *SiteRepo) DeleteAll(ctx context.Context) error {
	return operations.Run(ctx, r.opConfig("site.deleteAll"),
		func(ctx context.Context) error {
			return db.ExecuteTransaction(ctx, func(tx *gorm.DB) error {
				return r.DeleteAllInternal(tx)
			})
		})
}

// GetAllInternal retrieves every site on the supplied handle
func (r *SiteRepo) GetAllInternal(tx *gorm.DB) ([]*models.Site, error) {
	var sites []*models.Site
	err := tx.Order("identifier ASC").Find(&sites).Error
	return sites, err
}

// GetByIdentifierInternal retrieves a site on the supplied handle; nil when
// absent
func (r *SiteRepo) GetByIdentifierInternal(tx *gorm.DB, identifier string) (*models.Site, error) {
	var site models.Site
	err := tx.Where("identifier = ?", identifier).First(&site).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &site, nil
}

// UpsertInternal inserts or replaces a site row on the supplied handle
func (r *SiteRepo) UpsertInternal(tx *gorm.DB, site *models.Site) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identifier"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "monitoring", "updated_at"}),
	}).Create(site).Error
}

// DeleteInternal removes a site on the supplied handle
func (r *SiteRepo) DeleteInternal(tx *gorm.DB, identifier string) (bool, error) {
	result := tx.Where("identifier = ?", identifier).Delete(&models.Site{})
	return result.RowsAffected > 0, result.Error
}

// DeleteAllInternal removes every site on the supplied handle
func (r *SiteRepo) DeleteAllInternal(tx *gorm.DB) error {
	return tx.Where("1 = 1").Delete(&models.Site{}).Error
}
