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

package apitestutils

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/db"
	dbmigrations "github.com/wso2/uptime-watcher-platform/monitor-engine-service/db_migrations"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
)

// SetupTestDatabase points the shared database handle at a per-test temp
// directory and applies schema migrations. The handle is closed on cleanup
// so the next test reopens against its own directory.
func SetupTestDatabase(t *testing.T) {
	t.Helper()

	config.GetConfig().SQLITE.DataDir = t.TempDir()
	require.NoError(t, db.Close())
	require.NoError(t, dbmigrations.Migrate())

	t.Cleanup(func() {
		_ = db.Close()
	})
}

// CreateSite inserts a site row directly, bypassing the manager layer.
func CreateSite(t *testing.T, identifier, name string, monitoring bool) models.Site {
	t.Helper()

	site := &models.Site{
		Identifier: identifier,
		Name:       name,
		Monitoring: monitoring,
	}
	require.NoError(t, db.DB(context.Background()).Create(site).Error)
	return *site
}

// CreateHTTPMonitor inserts an http monitor row for a site.
func CreateHTTPMonitor(t *testing.T, siteIdentifier, url string, monitoring bool) models.Monitor {
	t.Helper()

	monitor := &models.Monitor{
		ID:              uuid.NewString(),
		SiteIdentifier:  siteIdentifier,
		Type:            models.MonitorTypeHTTP,
		Status:          models.MonitorStatusPending,
		CheckIntervalMs: models.MinCheckIntervalMs,
		TimeoutMs:       models.DefaultTimeoutMs,
		Monitoring:      monitoring,
		URL:             &url,
	}
	require.NoError(t, db.DB(context.Background()).Create(monitor).Error)
	return *monitor
}
