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

// Package db owns the embedded SQLite database handle: opening it with the
// engine pragmas, transaction scoping with savepoint nesting, and the file
// level maintenance operations used by backup and restore.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
)

var (
	dbMu       sync.Mutex
	dbInstance *gorm.DB
)

// GetDB returns the shared database handle, opening it on first use. The
// process exits if the database cannot be opened even after quarantining
// stale lock artifacts.
func GetDB() *gorm.DB {
	dbMu.Lock()
	defer dbMu.Unlock()
	return getOrOpenLocked()
}

// DB returns the shared handle bound to ctx. Repositories call this per
// operation so cancellation and deadlines propagate to the driver.
func DB(ctx context.Context) *gorm.DB {
	return GetDB().WithContext(ctx)
}

// ExecuteTransaction runs fn inside a transaction bound to ctx. GORM turns
// nested Transaction calls on the supplied handle into savepoints, so callers
// compose multi-repository writes without tracking transaction state.
func ExecuteTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return GetDB().WithContext(ctx).Transaction(fn)
}

// Ping verifies the database connection is alive.
func Ping(ctx context.Context) error {
	sqlDB, err := GetDB().DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the shared handle. The next GetDB call reopens it.
func Close() error {
	dbMu.Lock()
	defer dbMu.Unlock()
	return closeLocked()
}

// DatabasePath returns the location of the database file.
func DatabasePath() string {
	cfg := config.GetConfig()
	return filepath.Join(cfg.SQLITE.DataDir, cfg.SQLITE.DBFile)
}

func getOrOpenLocked() *gorm.DB {
	if dbInstance != nil {
		return dbInstance
	}
	gdb, err := open()
	if err != nil && isStaleLockError(err) {
		slog.Warn("db: open failed with a lock or corruption error, quarantining stale artifacts", "error", err)
		if qErr := quarantineStaleArtifacts(); qErr != nil {
			slog.Error("db: failed to quarantine stale artifacts", "error", qErr)
			os.Exit(1)
		}
		gdb, err = open()
	}
	if err != nil {
		slog.Error("db: failed to open database", "path", DatabasePath(), "error", err)
		os.Exit(1)
	}
	dbInstance = gdb
	return dbInstance
}

func closeLocked() error {
	if dbInstance == nil {
		return nil
	}
	gdb := dbInstance
	dbInstance = nil
	return closeHandle(gdb)
}

func closeHandle(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func open() (*gorm.DB, error) {
	cfg := config.GetConfig()
	if err := os.MkdirAll(cfg.SQLITE.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.SQLITE.DataDir, err)
	}

	gdb, err := gorm.Open(sqlite.Open(buildDSN(cfg)), &gorm.Config{
		SkipDefaultTransaction: cfg.SQLITE.SkipDefaultTransaction,
		Logger:                 newGormLogger(cfg.SQLITE.SlowThresholdMilliseconds),
	})
	if err != nil {
		return nil, err
	}

	// busy_timeout, journal_mode, synchronous and foreign_keys ride the
	// DSN; temp_store is not a DSN parameter, so it is applied here. The
	// single-connection pool default keeps it in force for every query.
	if err := gdb.Exec("PRAGMA temp_store = MEMORY").Error; err != nil {
		_ = closeHandle(gdb)
		return nil, err
	}

	// Force a real connection so stale WAL or lock files surface now
	// instead of on the first repository call.
	var journalMode string
	if err := gdb.Raw("PRAGMA journal_mode").Scan(&journalMode).Error; err != nil {
		_ = closeHandle(gdb)
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		_ = closeHandle(gdb)
		return nil, err
	}
	applyPoolConfigs(sqlDB, cfg.SQLITE.DbConfigs)

	slog.Info("db: database opened", "path", DatabasePath(), "journalMode", journalMode)
	return gdb, nil
}

// buildDSN assembles the per-connection pragmas: busy timeout, WAL
// journaling, NORMAL synchronous and enforced foreign keys.
func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=1",
		DatabasePath(), cfg.SQLITE.BusyTimeoutMilliseconds)
}

func applyPoolConfigs(sqlDB *sql.DB, cfg config.DbConfigs) {
	if cfg.MaxOpenCount != nil {
		sqlDB.SetMaxOpenConns(int(*cfg.MaxOpenCount))
	} else {
		// SQLite serializes writers; a single pooled connection keeps the
		// per-connection pragmas authoritative.
		sqlDB.SetMaxOpenConns(1)
	}
	if cfg.MaxIdleCount != nil {
		sqlDB.SetMaxIdleConns(int(*cfg.MaxIdleCount))
	}
	if cfg.MaxLifetimeSeconds != nil {
		sqlDB.SetConnMaxLifetime(time.Duration(*cfg.MaxLifetimeSeconds) * time.Second)
	}
	if cfg.MaxIdleTimeSeconds != nil {
		sqlDB.SetConnMaxIdleTime(time.Duration(*cfg.MaxIdleTimeSeconds) * time.Second)
	}
}

// slogGormWriter adapts the gorm logger's printf-style output to slog.
type slogGormWriter struct{}

func (slogGormWriter) Printf(format string, args ...interface{}) {
	slog.Info(fmt.Sprintf(format, args...))
}

func newGormLogger(slowThresholdMs int64) gormlogger.Interface {
	return gormlogger.New(slogGormWriter{}, gormlogger.Config{
		SlowThreshold:             time.Duration(slowThresholdMs) * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
