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

//go:build wireinject
// +build wireinject

package wiring

import (
	"github.com/google/wire"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/controllers"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/events"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/host"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/operations"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/repositories"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/services"
)

var configProviderSet = wire.NewSet(
	ProvideConfigFromPtr,
)

var loggerProviderSet = wire.NewSet(
	ProvideLogger,
)

var repositoryProviderSet = wire.NewSet(
	wire.Bind(new(operations.EventEmitter), new(*events.Bus)),
	repositories.NewSiteRepo,
	repositories.NewMonitorRepo,
	repositories.NewHistoryRepo,
	repositories.NewSettingsRepo,
)

var serviceProviderSet = wire.NewSet(
	ProvideMonitorTypeRegistry,
	ProvideMonitorScheduler,
	ProvideSiteManager,
	ProvideMonitorManager,
	ProvideDatabaseManager,
	ProvidePublicBus,
	host.NewRegistry,
	services.NewOrchestratorService,
)

var controllerProviderSet = wire.NewSet(
	ProvideWebSocketManager,
	ProvideEventsController,
	controllers.NewInvokeController,
)

func InitializeAppParams(cfg *config.Config) (*AppParams, error) {
	wire.Build(
		configProviderSet,
		loggerProviderSet,
		repositoryProviderSet,
		serviceProviderSet,
		controllerProviderSet,
		wire.Struct(new(AppParams), "*"),
	)
	return &AppParams{}, nil
}
