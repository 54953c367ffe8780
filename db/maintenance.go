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

package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// staleArtifactSuffixes are the sidecar files SQLite may leave beside the
// database: write-ahead log, shared memory index, rollback journal, lock
// and temp files.
var staleArtifactSuffixes = []string{"-wal", "-shm", "-journal", ".lock", ".tmp"}

// ReadUserVersion returns the schema version stored in the database's
// user_version slot.
func ReadUserVersion(tx *gorm.DB) (int64, error) {
	var version int64
	if err := tx.Raw("PRAGMA user_version").Scan(&version).Error; err != nil {
		return 0, err
	}
	return version, nil
}

// SetUserVersion stamps version into the user_version slot. PRAGMA does not
// support bound parameters, so the value is formatted directly.
func SetUserVersion(tx *gorm.DB, version int64) error {
	return tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)).Error
}

// Snapshot writes a compacted copy of the live database to destPath using
// VACUUM INTO. Any pre-existing file at destPath is removed first because
// VACUUM INTO refuses to overwrite.
func Snapshot(ctx context.Context, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return DB(ctx).Exec("VACUUM INTO ?", destPath).Error
}

// InspectFile opens the database file at path read-only, verifies structural
// integrity with PRAGMA quick_check and returns the file's user_version.
func InspectFile(path string) (int64, error) {
	cfg := config.GetConfig()
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=%d", path, cfg.SQLITE.BusyTimeoutMilliseconds)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newGormLogger(cfg.SQLITE.SlowThresholdMilliseconds),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, utils.ErrIntegrityFailed)
	}
	defer func() {
		_ = closeHandle(gdb)
	}()

	var result string
	if err := gdb.Raw("PRAGMA quick_check(1)").Scan(&result).Error; err != nil {
		return 0, fmt.Errorf("quick_check failed for %s: %w", path, utils.ErrIntegrityFailed)
	}
	if !strings.EqualFold(result, "ok") {
		return 0, fmt.Errorf("quick_check reported %q for %s: %w", result, path, utils.ErrIntegrityFailed)
	}
	return ReadUserVersion(gdb)
}

// SwapDatabaseFile replaces the live database file with the file at newPath
// and reopens the handle. Sidecar files of the old database are removed so
// the swapped-in file is opened cleanly.
func SwapDatabaseFile(newPath string) error {
	dbMu.Lock()
	defer dbMu.Unlock()

	if err := closeLocked(); err != nil {
		return fmt.Errorf("failed to close database before swap: %w", err)
	}
	target := DatabasePath()
	for _, suffix := range staleArtifactSuffixes {
		if err := os.Remove(target + suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := os.Rename(newPath, target); err != nil {
		return fmt.Errorf("failed to swap database file: %w", err)
	}
	gdb, err := open()
	if err != nil {
		return fmt.Errorf("failed to reopen database after swap: %w", err)
	}
	dbInstance = gdb
	slog.Info("db: database file swapped", "path", target)
	return nil
}

// isStaleLockError reports whether err is in the lock or corruption class
// that warrants quarantining sidecar files and retrying the open.
func isStaleLockError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCorrupt, sqlite3.ErrNotADB, sqlite3.ErrCantOpen:
		return true
	}
	return false
}

// quarantineStaleArtifacts moves leftover sidecar files into a timestamped
// directory under stale-lock-artifacts so a subsequent open starts clean
// while the artifacts stay available for inspection.
func quarantineStaleArtifacts() error {
	base := DatabasePath()
	dir := filepath.Join(config.GetConfig().SQLITE.DataDir, "stale-lock-artifacts",
		strconv.FormatInt(time.Now().UnixMilli(), 10))

	moved := 0
	for _, suffix := range staleArtifactSuffixes {
		src := base + suffix
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if moved == 0 {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.Rename(src, filepath.Join(dir, filepath.Base(src))); err != nil {
			return err
		}
		slog.Warn("db: quarantined stale artifact", "file", filepath.Base(src), "quarantineDir", dir)
		moved++
	}
	if moved == 0 {
		slog.Warn("db: no stale artifacts found beside database", "path", base)
	}
	return nil
}
