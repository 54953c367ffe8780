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

package wiring

import (
	"log/slog"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/catalog"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/controllers"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/events"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/repositories"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/resources"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/services"
	ws "github.com/wso2/uptime-watcher-platform/monitor-engine-service/websocket"
)

// AppParams contains all wired application dependencies
type AppParams struct {
	Logger *slog.Logger

	// Controllers
	InvokeController controllers.InvokeController
	EventsController controllers.EventsController

	// Services
	Orchestrator     services.OrchestratorService
	MonitorScheduler services.MonitorSchedulerService
	WebSocketManager *ws.Manager
}

func ProvideConfigFromPtr(config *config.Config) config.Config {
	return *config
}

// ProvideLogger provides the configured slog.Logger instance
func ProvideLogger() *slog.Logger {
	return slog.Default()
}

// ProvidePublicBus creates the outward-facing event bus the orchestrator
// forwards onto and the WebSocket hub streams from. The standard middleware
// chain is installed here: validation first so nothing malformed travels
// further, then emission logging, then the per-event rate limit.
func ProvidePublicBus(cfg config.Config) (*events.Bus, error) {
	bus := events.NewBus(cfg.EventBus.BusName, cfg.EventBus.MaxListeners, cfg.EventBus.MaxMiddleware)
	for _, mw := range []events.Middleware{
		events.NewValidationMiddleware(),
		events.NewLoggingMiddleware(),
		events.NewRateLimitMiddleware(float64(cfg.EventBus.RateLimitPerSecond), cfg.EventBus.RateLimitBurst),
	} {
		if err := bus.Use(mw); err != nil {
			return nil, err
		}
	}
	return bus, nil
}

// ProvideMonitorTypeRegistry builds the monitor type registry with every
// builtin descriptor and payload migration rule registered. Registration
// happens here, before the scheduler starts, so the registry is read-only
// for the rest of the process lifetime.
func ProvideMonitorTypeRegistry(cfg config.Config) (*catalog.Registry, error) {
	registry := catalog.NewRegistry()
	migrations := catalog.NewMigrationRegistry()
	if err := resources.RegisterBuiltins(registry, migrations, cfg.Checks); err != nil {
		return nil, err
	}
	return registry, nil
}

// ProvideMonitorScheduler creates the per-monitor check scheduler.
func ProvideMonitorScheduler(cfg config.Config, logger *slog.Logger) services.MonitorSchedulerService {
	return services.NewMonitorSchedulerService(cfg.Scheduler, logger)
}

// Each manager owns a private bus for internal:* events; only the
// orchestrator's forwarding table republishes them outward.

// ProvideSiteManager creates the site manager with its private event bus.
func ProvideSiteManager(
	logger *slog.Logger,
	cfg config.Config,
	siteRepo repositories.SiteRepository,
	monitorRepo repositories.MonitorRepository,
	historyRepo repositories.HistoryRepository,
	registry *catalog.Registry,
) services.SiteManagerService {
	bus := events.NewBus("site-manager", cfg.EventBus.MaxListeners, cfg.EventBus.MaxMiddleware)
	return services.NewSiteManagerService(logger, siteRepo, monitorRepo, historyRepo, registry, bus)
}

// ProvideMonitorManager creates the monitor manager with its private event bus.
func ProvideMonitorManager(
	logger *slog.Logger,
	cfg config.Config,
	monitorRepo repositories.MonitorRepository,
	siteRepo repositories.SiteRepository,
	historyRepo repositories.HistoryRepository,
	settingsRepo repositories.SettingsRepository,
	registry *catalog.Registry,
	scheduler services.MonitorSchedulerService,
) services.MonitorManagerService {
	bus := events.NewBus("monitor-manager", cfg.EventBus.MaxListeners, cfg.EventBus.MaxMiddleware)
	return services.NewMonitorManagerService(logger, cfg.Scheduler, monitorRepo, siteRepo, historyRepo, settingsRepo, registry, scheduler, bus)
}

// ProvideDatabaseManager creates the database manager with its private event bus.
func ProvideDatabaseManager(
	logger *slog.Logger,
	cfg config.Config,
	siteRepo repositories.SiteRepository,
	monitorRepo repositories.MonitorRepository,
	historyRepo repositories.HistoryRepository,
	settingsRepo repositories.SettingsRepository,
) services.DatabaseManagerService {
	bus := events.NewBus("database-manager", cfg.EventBus.MaxListeners, cfg.EventBus.MaxMiddleware)
	return services.NewDatabaseManagerService(logger, siteRepo, monitorRepo, historyRepo, settingsRepo, bus)
}

// ProvideWebSocketManager creates the event stream hub on the public bus.
func ProvideWebSocketManager(logger *slog.Logger, cfg config.Config, publicBus *events.Bus) *ws.Manager {
	return ws.NewManager(logger, cfg.WebSocket, publicBus)
}

// ProvideEventsController creates the WebSocket upgrade controller.
func ProvideEventsController(manager *ws.Manager, cfg config.Config) controllers.EventsController {
	return controllers.NewEventsController(manager, cfg.WebSocket.RateLimitPerMin)
}
