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
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/catalog"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/events"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/repositories"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// MonitorManagerService coordinates monitor lifecycle with the scheduler and
// runs checks end to end. It implements CheckRunner for the scheduler.
type MonitorManagerService interface {
	CheckRunner

	// StartMonitoringForSite enables monitoring for one monitor or a whole
	// site and ensures scheduler jobs exist. Returns true iff any job was
	// started.
	StartMonitoringForSite(ctx context.Context, siteIdentifier string, monitorID *string) (bool, error)
	// StopMonitoringForSite disables monitoring and tears down jobs.
	// Returns true iff any job was stopped.
	StopMonitoringForSite(ctx context.Context, siteIdentifier string, monitorID *string) (bool, error)
	// CheckSiteNow submits a manual check. An idle monitor runs
	// synchronously and returns the result; a busy one queues the run and
	// returns a nil result with the queued correlation ID.
	CheckSiteNow(ctx context.Context, siteIdentifier, monitorID string) (*models.CheckResult, string, error)
	// SetupNewMonitors arms scheduler jobs for monitors added to an
	// existing site, honoring each monitor's monitoring flag.
	SetupNewMonitors(ctx context.Context, site *models.Site, newMonitorIDs []string) error
	// RebuildJobs recreates scheduler jobs from the persisted monitoring
	// column. Called once at engine startup.
	RebuildJobs(ctx context.Context) (int, error)
	// GetMonitorStats summarizes a monitor's history since the given epoch
	// millisecond timestamp.
	GetMonitorStats(ctx context.Context, siteIdentifier, monitorID string, sinceMs int64) (*models.HistoryStats, error)

	// Bus returns the manager-owned event bus carrying internal:* events.
	Bus() *events.Bus
}

type monitorManagerService struct {
	logger       *slog.Logger
	cfg          config.SchedulerConfig
	monitorRepo  repositories.MonitorRepository
	siteRepo     repositories.SiteRepository
	historyRepo  repositories.HistoryRepository
	settingsRepo repositories.SettingsRepository
	registry     *catalog.Registry
	scheduler    MonitorSchedulerService
	bus          *events.Bus
}

// NewMonitorManagerService creates a new monitor manager service instance
func NewMonitorManagerService(
	logger *slog.Logger,
	cfg config.SchedulerConfig,
	monitorRepo repositories.MonitorRepository,
	siteRepo repositories.SiteRepository,
	historyRepo repositories.HistoryRepository,
	settingsRepo repositories.SettingsRepository,
	registry *catalog.Registry,
	scheduler MonitorSchedulerService,
	bus *events.Bus,
) MonitorManagerService {
	return &monitorManagerService{
		logger:       logger,
		cfg:          cfg,
		monitorRepo:  monitorRepo,
		siteRepo:     siteRepo,
		historyRepo:  historyRepo,
		settingsRepo: settingsRepo,
		registry:     registry,
		scheduler:    scheduler,
		bus:          bus,
	}
}

func (s *monitorManagerService) Bus() *events.Bus {
	return s.bus
}

// StartMonitoringForSite enables monitoring and arms jobs.
func (s *monitorManagerService) StartMonitoringForSite(ctx context.Context, siteIdentifier string, monitorID *string) (bool, error) {
	monitors, err := s.targetMonitors(ctx, siteIdentifier, monitorID)
	if err != nil {
		return false, err
	}

	started := false
	for i := range monitors {
		monitor := &monitors[i]
		if !monitor.Monitoring {
			if err := s.monitorRepo.SetMonitoring(ctx, monitor.ID, true); err != nil {
				return started, err
			}
			monitor.Monitoring = true
		}
		if err := s.scheduler.StartJob(siteIdentifier, monitor); err != nil {
			return started, err
		}
		started = true
		s.bus.Emit(ctx, events.EventInternalMonitorStarted, map[string]any{
			"siteIdentifier": siteIdentifier,
			"monitorId":      monitor.ID,
		})
	}

	s.logger.Info("Monitoring started", "site", siteIdentifier, "monitors", len(monitors))
	return started, nil
}

// StopMonitoringForSite disables monitoring and tears down jobs.
func (s *monitorManagerService) StopMonitoringForSite(ctx context.Context, siteIdentifier string, monitorID *string) (bool, error) {
	monitors, err := s.targetMonitors(ctx, siteIdentifier, monitorID)
	if err != nil {
		return false, err
	}

	stopped := false
	for i := range monitors {
		monitor := &monitors[i]
		if monitor.Monitoring {
			if err := s.monitorRepo.SetMonitoring(ctx, monitor.ID, false); err != nil {
				return stopped, err
			}
		}
		if s.scheduler.StopJob(siteIdentifier, monitor.ID) {
			stopped = true
		}
		s.bus.Emit(ctx, events.EventInternalMonitorStopped, map[string]any{
			"siteIdentifier": siteIdentifier,
			"monitorId":      monitor.ID,
		})
	}

	s.logger.Info("Monitoring stopped", "site", siteIdentifier, "monitors", len(monitors))
	return stopped, nil
}

// CheckSiteNow submits a manual check, falling back to a one-off run when
// the monitor has no active job.
func (s *monitorManagerService) CheckSiteNow(ctx context.Context, siteIdentifier, monitorID string) (*models.CheckResult, string, error) {
	monitor, err := s.requireMonitor(ctx, siteIdentifier, monitorID)
	if err != nil {
		return nil, "", err
	}

	result, correlationID, err := s.scheduler.CheckNow(ctx, siteIdentifier, monitorID)
	if err == nil {
		return result, correlationID, nil
	}
	if !errors.Is(err, utils.ErrMonitorNotFound) {
		return nil, "", err
	}

	// No active job: run once without touching the schedule.
	correlationID = uuid.NewString()
	s.logger.Debug("Manual check without active job",
		"site", siteIdentifier, "monitorId", monitor.ID, "correlationId", correlationID)
	oneOff, err := s.RunScheduledCheck(ctx, siteIdentifier, monitorID, correlationID, true)
	if err != nil {
		return nil, "", err
	}
	return &oneOff, correlationID, nil
}

// SetupNewMonitors arms jobs for monitors added during a site update.
func (s *monitorManagerService) SetupNewMonitors(ctx context.Context, site *models.Site, newMonitorIDs []string) error {
	if site == nil || len(newMonitorIDs) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(newMonitorIDs))
	for _, id := range newMonitorIDs {
		wanted[id] = true
	}

	monitors, err := s.monitorRepo.GetBySite(ctx, site.Identifier)
	if err != nil {
		return err
	}
	for i := range monitors {
		monitor := &monitors[i]
		if !wanted[monitor.ID] || !monitor.Monitoring {
			continue
		}
		if err := s.scheduler.StartJob(site.Identifier, monitor); err != nil {
			return err
		}
		s.bus.Emit(ctx, events.EventInternalMonitorStarted, map[string]any{
			"siteIdentifier": site.Identifier,
			"monitorId":      monitor.ID,
		})
	}
	return nil
}

// RebuildJobs recreates jobs for every monitor persisted with
// monitoring=true. Initial delays are jittered per job by the scheduler.
func (s *monitorManagerService) RebuildJobs(ctx context.Context) (int, error) {
	monitors, err := s.monitorRepo.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	rebuilt := 0
	for i := range monitors {
		monitor := &monitors[i]
		if !monitor.Monitoring {
			continue
		}
		if err := s.scheduler.StartJob(monitor.SiteIdentifier, monitor); err != nil {
			return rebuilt, err
		}
		rebuilt++
	}
	s.logger.Info("Scheduler jobs rebuilt from persisted state", "jobs", rebuilt)
	return rebuilt, nil
}

// RunScheduledCheck executes one check end to end: load, check under
// deadline, persist, emit. The scheduler calls this from job timers; manual
// dispatch calls it directly.
func (s *monitorManagerService) RunScheduledCheck(ctx context.Context, siteIdentifier, monitorID, correlationID string, manual bool) (models.CheckResult, error) {
	monitor, err := s.requireMonitor(ctx, siteIdentifier, monitorID)
	if err != nil {
		return models.CheckResult{}, err
	}

	descriptor, err := s.registry.Get(monitor.Type)
	if err != nil {
		return models.CheckResult{}, err
	}

	startedEvent := events.EventInternalMonitorCheckStarted
	if manual {
		startedEvent = events.EventInternalMonitorManualCheckStarted
	}
	s.bus.Emit(ctx, startedEvent, map[string]any{
		"siteIdentifier": siteIdentifier,
		"monitorId":      monitor.ID,
		"monitorType":    monitor.Type,
		"correlationId":  correlationID,
		"manual":         manual,
	})

	// The checker gets the monitor's own timeout; the buffer bounds the
	// whole run including executor-internal retries.
	deadline := time.Duration(monitor.TimeoutMs+s.checkTimeoutBufferMs()) * time.Millisecond
	checkCtx, cancel := context.WithTimeout(ctx, deadline)
	start := time.Now()
	result := descriptor.CheckFactory().Check(checkCtx, monitor)
	cancel()
	durationMs := time.Since(start).Milliseconds()

	if err := s.persistCheckResult(ctx, monitor, result); err != nil {
		// The check itself concluded; a persistence failure is logged and
		// surfaced through the database error event rather than failing
		// the job.
		s.logger.Error("Failed to persist check result",
			"site", siteIdentifier, "monitorId", monitor.ID,
			"correlationId", correlationID, "error", err)
	}

	s.emitCheckOutcome(ctx, siteIdentifier, monitor, result, correlationID, durationMs)
	return result, nil
}

func (s *monitorManagerService) persistCheckResult(ctx context.Context, monitor *models.Monitor, result models.CheckResult) error {
	record := &models.StatusRecord{
		MonitorID:      monitor.ID,
		Timestamp:      time.Now().UnixMilli(),
		Status:         result.Status,
		ResponseTimeMs: result.ResponseTimeMs,
		Details:        result.Details,
	}
	if err := s.historyRepo.Append(ctx, record, s.currentHistoryLimit(ctx)); err != nil {
		return err
	}
	if result.Status != monitor.Status {
		return s.monitorRepo.UpdateStatus(ctx, monitor.ID, result.Status)
	}
	return nil
}

func (s *monitorManagerService) emitCheckOutcome(ctx context.Context, siteIdentifier string, monitor *models.Monitor, result models.CheckResult, correlationID string, durationMs int64) {
	base := map[string]any{
		"siteIdentifier": siteIdentifier,
		"monitorId":      monitor.ID,
		"correlationId":  correlationID,
	}

	if result.Details == models.CheckDetailTimeout {
		s.bus.Emit(ctx, events.EventInternalMonitorTimeout, withFields(base, map[string]any{
			"timeoutMs": monitor.TimeoutMs,
		}))
	}

	if result.Status != monitor.Status {
		s.bus.Emit(ctx, events.EventInternalMonitorStatusChanged, withFields(base, map[string]any{
			"previousStatus": string(monitor.Status),
			"newStatus":      string(result.Status),
		}))
		transition := events.EventInternalMonitorDown
		if result.Status == models.MonitorStatusUp {
			transition = events.EventInternalMonitorUp
		}
		s.bus.Emit(ctx, transition, withFields(base, map[string]any{
			"responseTimeMs": result.ResponseTimeMs,
		}))
	}

	s.bus.Emit(ctx, events.EventInternalMonitorCheckCompleted, withFields(base, map[string]any{
		"status":         string(result.Status),
		"responseTimeMs": result.ResponseTimeMs,
		"durationMs":     durationMs,
		"details":        result.Details,
	}))
}

// GetMonitorStats summarizes a monitor's history window.
func (s *monitorManagerService) GetMonitorStats(ctx context.Context, siteIdentifier, monitorID string, sinceMs int64) (*models.HistoryStats, error) {
	if _, err := s.requireMonitor(ctx, siteIdentifier, monitorID); err != nil {
		return nil, err
	}
	return s.historyRepo.GetStats(ctx, monitorID, sinceMs)
}

// targetMonitors resolves the monitors an operation addresses: one by id or
// all monitors of the site.
func (s *monitorManagerService) targetMonitors(ctx context.Context, siteIdentifier string, monitorID *string) ([]models.Monitor, error) {
	site, err := s.siteRepo.GetByIdentifier(ctx, siteIdentifier)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("site %s: %w", siteIdentifier, utils.ErrSiteNotFound)
	}

	if monitorID != nil {
		monitor, err := s.requireMonitor(ctx, siteIdentifier, *monitorID)
		if err != nil {
			return nil, err
		}
		return []models.Monitor{*monitor}, nil
	}
	return s.monitorRepo.GetBySite(ctx, siteIdentifier)
}

// requireMonitor loads a monitor and verifies it belongs to the site.
func (s *monitorManagerService) requireMonitor(ctx context.Context, siteIdentifier, monitorID string) (*models.Monitor, error) {
	monitor, err := s.monitorRepo.GetByID(ctx, monitorID)
	if err != nil {
		return nil, err
	}
	if monitor == nil || monitor.SiteIdentifier != siteIdentifier {
		return nil, fmt.Errorf("monitor %s on site %s: %w", monitorID, siteIdentifier, utils.ErrMonitorNotFound)
	}
	return monitor, nil
}

// currentHistoryLimit reads the persisted retention setting, normalized into
// the supported range.
func (s *monitorManagerService) currentHistoryLimit(ctx context.Context) int {
	setting, err := s.settingsRepo.Get(ctx, models.SettingKeyHistoryLimit)
	if err != nil || setting == nil {
		return models.DefaultHistoryLimit
	}
	limit := 0
	if _, err := fmt.Sscanf(setting.Value, "%d", &limit); err != nil {
		return models.DefaultHistoryLimit
	}
	return utils.NormalizeHistoryLimit(limit)
}

func (s *monitorManagerService) checkTimeoutBufferMs() int64 {
	if s.cfg.CheckTimeoutBufferMs > 0 {
		return s.cfg.CheckTimeoutBufferMs
	}
	return models.CheckTimeoutBufferMs
}

func withFields(base map[string]any, extra map[string]any) map[string]any {
	payload := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		payload[k] = v
	}
	for k, v := range extra {
		payload[k] = v
	}
	return payload
}
