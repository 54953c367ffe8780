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
	"log/slog"
	"sync"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/catalog"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/db"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/events"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/host"
)

// forwardingTable fixes which internal events escape onto the public bus and
// under what name. Anything a manager emits outside this table stays private.
var forwardingTable = map[string]string{
	events.EventInternalSiteAdded:   events.EventSiteAdded,
	events.EventInternalSiteUpdated: events.EventSiteUpdated,
	events.EventInternalSiteRemoved: events.EventSiteRemoved,
	events.EventInternalSiteSynced:  events.EventSitesStateSynchronized,

	events.EventInternalMonitorStarted: events.EventMonitoringStarted,
	events.EventInternalMonitorStopped: events.EventMonitoringStopped,

	events.EventInternalMonitorCheckStarted:       events.EventMonitorCheckStarted,
	events.EventInternalMonitorCheckCompleted:     events.EventMonitorCheckCompleted,
	events.EventInternalMonitorStatusChanged:      events.EventMonitorStatusChanged,
	events.EventInternalMonitorUp:                 events.EventMonitorUp,
	events.EventInternalMonitorDown:               events.EventMonitorDown,
	events.EventInternalMonitorTimeout:            events.EventMonitorTimeout,
	events.EventInternalMonitorManualCheckStarted: events.EventMonitorManualCheckStarted,

	events.EventInternalDatabaseTransactionCompleted: events.EventDatabaseTransactionCompleted,
	events.EventInternalDatabaseError:                events.EventDatabaseError,
	events.EventInternalDatabaseBackupCreated:        events.EventDatabaseBackupCreated,
	events.EventInternalDatabaseBackupRestored:       events.EventDatabaseBackupRestored,

	// Cache telemetry passes through under its own name.
	events.EventCacheInvalidated: events.EventCacheInvalidated,
}

// OrchestratorService is the engine's single coordinator: it wires the
// managers together, forwards their internal events onto the public bus,
// and exposes every host operation.
type OrchestratorService interface {
	// Initialize brings the engine up. It is idempotent; concurrent and
	// repeated calls share one initialization.
	Initialize(ctx context.Context) error
	// Shutdown stops the scheduler, detaches event forwarding, and closes
	// the database.
	Shutdown(ctx context.Context) error

	// PublicBus returns the bus outward consumers subscribe on.
	PublicBus() *events.Bus
	// HostRegistry returns the operation registry backing the host surface.
	HostRegistry() *host.Registry
}

type orchestratorService struct {
	logger         *slog.Logger
	siteManager    SiteManagerService
	monitorManager MonitorManagerService
	dbManager      DatabaseManagerService
	scheduler      MonitorSchedulerService
	registry       *catalog.Registry
	hostRegistry   *host.Registry
	publicBus      *events.Bus

	mu           sync.Mutex
	initDone     chan struct{}
	initErr      error
	unsubscribes []func()
	shutdownOnce sync.Once
}

// NewOrchestratorService creates a new orchestrator service instance
func NewOrchestratorService(
	logger *slog.Logger,
	siteManager SiteManagerService,
	monitorManager MonitorManagerService,
	dbManager DatabaseManagerService,
	scheduler MonitorSchedulerService,
	registry *catalog.Registry,
	hostRegistry *host.Registry,
	publicBus *events.Bus,
) OrchestratorService {
	return &orchestratorService{
		logger:         logger,
		siteManager:    siteManager,
		monitorManager: monitorManager,
		dbManager:      dbManager,
		scheduler:      scheduler,
		registry:       registry,
		hostRegistry:   hostRegistry,
		publicBus:      publicBus,
	}
}

func (s *orchestratorService) PublicBus() *events.Bus {
	return s.publicBus
}

func (s *orchestratorService) HostRegistry() *host.Registry {
	return s.hostRegistry
}

// Initialize wires managers, attaches event forwarding, registers host
// operations, starts the scheduler, and rebuilds jobs from persisted state.
// A second caller arriving mid-initialization waits for the first.
func (s *orchestratorService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initDone != nil {
		done := s.initDone
		s.mu.Unlock()
		select {
		case <-done:
			return s.initErr
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	done := make(chan struct{})
	s.initDone = done
	s.mu.Unlock()

	s.initErr = s.initialize(ctx)
	close(done)
	return s.initErr
}

func (s *orchestratorService) initialize(ctx context.Context) error {
	// Cross-manager wiring goes through narrow hooks so the managers never
	// reference each other directly.
	s.scheduler.SetRunner(s.monitorManager)
	s.siteManager.SetOperations(SiteManagerOperations{
		SetupNewMonitors: s.monitorManager.SetupNewMonitors,
		StopMonitoring:   s.monitorManager.StopMonitoringForSite,
	})

	for _, bus := range []*events.Bus{
		s.siteManager.Bus(),
		s.monitorManager.Bus(),
		s.dbManager.Bus(),
	} {
		if err := s.attachForwarding(bus); err != nil {
			return err
		}
	}

	if err := s.registerHostOperations(); err != nil {
		return err
	}

	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}
	rebuilt, err := s.monitorManager.RebuildJobs(ctx)
	if err != nil {
		return err
	}

	s.publicBus.Emit(ctx, events.EventSystemStartup, map[string]any{
		"operations": len(s.hostRegistry.Operations()),
		"jobs":       rebuilt,
	})
	s.logger.Info("Engine initialized", "jobs", rebuilt)
	return nil
}

// attachForwarding subscribes the forwarding table on one manager bus. Each
// forwarded payload is copied without its internal metadata and re-emitted
// with fresh metadata on the public bus.
func (s *orchestratorService) attachForwarding(bus *events.Bus) error {
	for internal, public := range forwardingTable {
		publicName := public
		unsubscribe, err := bus.Subscribe(internal, func(ctx context.Context, event string, payload map[string]any) error {
			s.publicBus.Emit(ctx, publicName, events.CloneWithoutMeta(payload))
			return nil
		})
		if err != nil {
			return err
		}
		s.unsubscribes = append(s.unsubscribes, unsubscribe)
	}
	return nil
}

// Shutdown tears the engine down: announce, stop checks, detach forwarding,
// close storage. Safe to call more than once.
func (s *orchestratorService) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.publicBus.Emit(ctx, events.EventSystemShutdown, map[string]any{})

		s.scheduler.Stop()
		for _, unsubscribe := range s.unsubscribes {
			unsubscribe()
		}
		s.unsubscribes = nil

		err = db.Close()
		s.logger.Info("Engine shut down")
	})
	return err
}
