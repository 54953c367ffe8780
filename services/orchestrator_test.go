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
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/catalog"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/events"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/host"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
)

// --- orchestrator stubs ---

type stubSiteManager struct {
	bus *events.Bus
}

func (s *stubSiteManager) GetSites(context.Context) ([]*models.Site, error) { return nil, nil }
func (s *stubSiteManager) GetSite(context.Context, string) (*models.Site, error) {
	return nil, nil
}
func (s *stubSiteManager) AddSite(context.Context, *models.CreateSiteRequest) (*models.Site, error) {
	return nil, nil
}
func (s *stubSiteManager) UpdateSite(context.Context, string, *models.UpdateSiteRequest) (*models.Site, error) {
	return nil, nil
}
func (s *stubSiteManager) RemoveSite(context.Context, string) error { return nil }
func (s *stubSiteManager) AddMonitor(context.Context, string, *models.CreateMonitorRequest) (*models.Monitor, error) {
	return nil, nil
}
func (s *stubSiteManager) RemoveMonitor(context.Context, string, string) (*models.Site, error) {
	return nil, nil
}
func (s *stubSiteManager) SetOperations(SiteManagerOperations) {}
func (s *stubSiteManager) Bus() *events.Bus                    { return s.bus }

type stubMonitorManager struct {
	bus           *events.Bus
	rebuildCalled bool
}

func (m *stubMonitorManager) RunScheduledCheck(context.Context, string, string, string, bool) (models.CheckResult, error) {
	return models.CheckResult{}, nil
}
func (m *stubMonitorManager) StartMonitoringForSite(context.Context, string, *string) (bool, error) {
	return false, nil
}
func (m *stubMonitorManager) StopMonitoringForSite(context.Context, string, *string) (bool, error) {
	return false, nil
}
func (m *stubMonitorManager) CheckSiteNow(context.Context, string, string) (*models.CheckResult, string, error) {
	return nil, "", nil
}
func (m *stubMonitorManager) SetupNewMonitors(context.Context, *models.Site, []string) error {
	return nil
}
func (m *stubMonitorManager) RebuildJobs(context.Context) (int, error) {
	m.rebuildCalled = true
	return 0, nil
}
func (m *stubMonitorManager) GetMonitorStats(context.Context, string, string, int64) (*models.HistoryStats, error) {
	return nil, nil
}
func (m *stubMonitorManager) Bus() *events.Bus { return m.bus }

type stubDatabaseManager struct {
	bus *events.Bus
}

func (d *stubDatabaseManager) ExportAll(context.Context) (*models.ExportData, error) {
	return nil, nil
}
func (d *stubDatabaseManager) ImportData(context.Context, *models.ExportData) (*models.ImportPreview, error) {
	return nil, nil
}
func (d *stubDatabaseManager) PersistImport(context.Context, *models.ImportPreview) error {
	return nil
}
func (d *stubDatabaseManager) DownloadBackup(context.Context) (*models.BackupArtifact, error) {
	return nil, nil
}
func (d *stubDatabaseManager) RestoreBackup(context.Context, []byte) (*models.BackupMetadata, error) {
	return nil, nil
}
func (d *stubDatabaseManager) GetHistoryLimit(context.Context) (int, error)     { return 0, nil }
func (d *stubDatabaseManager) SetHistoryLimit(context.Context, int) (int, error) { return 0, nil }
func (d *stubDatabaseManager) Bus() *events.Bus                                  { return d.bus }

type stubScheduler struct {
	startErr error
	started  bool
}

func (s *stubScheduler) Start(context.Context) error { s.started = true; return s.startErr }
func (s *stubScheduler) Stop() error                 { return nil }
func (s *stubScheduler) SetRunner(CheckRunner)       {}
func (s *stubScheduler) StartJob(string, *models.Monitor) error { return nil }
func (s *stubScheduler) StopJob(string, string) bool            { return false }
func (s *stubScheduler) StopSite(string) int                    { return 0 }
func (s *stubScheduler) CheckNow(context.Context, string, string) (*models.CheckResult, string, error) {
	return nil, "", nil
}
func (s *stubScheduler) Pause()                            {}
func (s *stubScheduler) Resume()                           {}
func (s *stubScheduler) JobCount() int                     { return 0 }
func (s *stubScheduler) IsJobActive(string, string) bool   { return false }

func newStubOrchestrator(scheduler MonitorSchedulerService, monitorMgr MonitorManagerService) OrchestratorService {
	return NewOrchestratorService(
		slog.Default(),
		&stubSiteManager{bus: events.NewBus("site-manager-test", 0, 0)},
		monitorMgr,
		&stubDatabaseManager{bus: events.NewBus("database-manager-test", 0, 0)},
		scheduler,
		catalog.NewRegistry(),
		host.NewRegistry(slog.Default()),
		events.NewBus("public-test", 0, 0),
	)
}

// --- initialization tests ---

func TestOrchestratorInitializePropagatesSchedulerStartFailure(t *testing.T) {
	scheduler := &stubScheduler{startErr: errors.New("dispatch loop did not start")}
	monitorMgr := &stubMonitorManager{bus: events.NewBus("monitor-manager-test", 0, 0)}
	orchestrator := newStubOrchestrator(scheduler, monitorMgr)

	err := orchestrator.Initialize(context.Background())

	require.ErrorContains(t, err, "dispatch loop did not start")
	assert.True(t, scheduler.started)
	assert.False(t, monitorMgr.rebuildCalled, "jobs must not rebuild on a dead scheduler")

	// The failed initialization is cached, not retried.
	require.Error(t, orchestrator.Initialize(context.Background()))
}

func TestOrchestratorInitializeStartsSchedulerBeforeRebuildingJobs(t *testing.T) {
	scheduler := &stubScheduler{}
	monitorMgr := &stubMonitorManager{bus: events.NewBus("monitor-manager-test", 0, 0)}
	orchestrator := newStubOrchestrator(scheduler, monitorMgr)

	require.NoError(t, orchestrator.Initialize(context.Background()))

	assert.True(t, scheduler.started)
	assert.True(t, monitorMgr.rebuildCalled)
}
