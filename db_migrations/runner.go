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

// Package dbmigrations applies forward-only, idempotent schema upgrades and
// keeps the database's user_version slot in sync with the build.
package dbmigrations

import (
	"fmt"
	"log/slog"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/db"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// ExpectedUserVersion is the schema version this build writes and the newest
// version it can open. Bump it together with every migration added below.
const ExpectedUserVersion int64 = 5

// migration is a single schema change applied by the runner in ID order.
type migration struct {
	ID      int
	Migrate func(db *gorm.DB) error
}

// migrations are applied in order; IDs are stable and never reused.
var migrations = []migration{
	migration001,
	migration002,
	migration003,
	migration004,
	migration005,
}

// Migrate brings the database schema up to date. It fails closed when the
// stored schema version is newer than this build supports, applies pending
// migrations in order, then stamps user_version.
func Migrate() error {
	gdb := db.GetDB()

	stored, err := db.ReadUserVersion(gdb)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if stored > ExpectedUserVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d: %w",
			stored, ExpectedUserVersion, utils.ErrSchemaNewer)
	}

	m := gormigrate.New(gdb, gormigrate.DefaultOptions, gormigrateMigrations())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	if err := db.SetUserVersion(gdb, ExpectedUserVersion); err != nil {
		return fmt.Errorf("failed to stamp schema version: %w", err)
	}

	slog.Info("dbmigrations: schema is current", "userVersion", ExpectedUserVersion)
	return nil
}

func gormigrateMigrations() []*gormigrate.Migration {
	converted := make([]*gormigrate.Migration, 0, len(migrations))
	for _, m := range migrations {
		converted = append(converted, &gormigrate.Migration{
			ID:      fmt.Sprintf("%03d", m.ID),
			Migrate: m.Migrate,
		})
	}
	return converted
}

func runSQL(tx *gorm.DB, statements ...string) error {
	for _, statement := range statements {
		if err := tx.Exec(statement).Error; err != nil {
			return err
		}
	}
	return nil
}

// addColumnIfAbsent guards ALTER TABLE ... ADD COLUMN, which SQLite has no
// IF NOT EXISTS form for.
func addColumnIfAbsent(tx *gorm.DB, table, column, definition string) error {
	var count int64
	err := tx.Raw("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column).Scan(&count).Error
	if err != nil || count > 0 {
		return err
	}
	return tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)).Error
}
