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
	"encoding/json"
	"fmt"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/host"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// Host operation payloads. Identifier-bearing requests decode into these;
// zero-input operations take no payload at all.

type siteTargetRequest struct {
	Identifier string `json:"identifier"`
}

type siteUpdateEnvelope struct {
	Identifier string                   `json:"identifier"`
	Updates    models.UpdateSiteRequest `json:"updates"`
}

type monitorAddEnvelope struct {
	SiteIdentifier string                      `json:"siteIdentifier"`
	Monitor        models.CreateMonitorRequest `json:"monitor"`
}

type monitorTargetRequest struct {
	SiteIdentifier string `json:"siteIdentifier"`
	MonitorID      string `json:"monitorId"`
}

type monitoringScopeRequest struct {
	Identifier string  `json:"identifier"`
	MonitorID  *string `json:"monitorId,omitempty"`
}

type historyLimitRequest struct {
	Limit int `json:"limit"`
}

type monitorStatsRequest struct {
	SiteIdentifier string `json:"siteIdentifier"`
	MonitorID      string `json:"monitorId"`
	SinceMs        int64  `json:"sinceMs"`
}

type backupRestoreRequest struct {
	Bytes []byte `json:"bytes"`
}

type manualCheckResponse struct {
	Result        *models.CheckResult `json:"result,omitempty"`
	CorrelationID string              `json:"correlationId"`
	Queued        bool                `json:"queued"`
}

// registerHostOperations binds every host operation onto the central
// registry. Called once from Initialize; duplicate names fail loudly.
func (s *orchestratorService) registerHostOperations() error {
	bindings := map[string]host.Handler{
		"sites.getAll": func(ctx context.Context, _ json.RawMessage) (any, error) {
			sites, err := s.siteManager.GetSites(ctx)
			if err != nil {
				return nil, err
			}
			return utils.ConvertToSiteListResponse(sites), nil
		},
		"sites.add": func(ctx context.Context, payload json.RawMessage) (any, error) {
			var request models.CreateSiteRequest
			if err := decode(payload, &request); err != nil {
				return nil, err
			}
			site, err := s.siteManager.AddSite(ctx, &request)
			if err != nil {
				return nil, err
			}
			return site.ToResponse(), nil
		},
		"sites.update": func(ctx context.Context, payload json.RawMessage) (any, error) {
			var envelope siteUpdateEnvelope
			if err := decode(payload, &envelope); err != nil {
				return nil, err
			}
			site, err := s.siteManager.UpdateSite(ctx, envelope.Identifier, &envelope.Updates)
			if err != nil {
				return nil, err
			}
			return site.ToResponse(), nil
		},
		"sites.remove": func(ctx context.Context, payload json.RawMessage) (any, error) {
			var request siteTargetRequest
			if err := decode(payload, &request); err != nil {
				return nil, err
			}
			return nil, s.siteManager.RemoveSite(ctx, request.Identifier)
		},
		"monitors.add": func(ctx context.Context, payload json.RawMessage) (any, error) {
			var envelope monitorAddEnvelope
			if err := decode(payload, &envelope); err != nil {
				return nil, err
			}
			monitor, err := s.siteManager.AddMonitor(ctx, envelope.SiteIdentifier, &envelope.Monitor)
			if err != nil {
				return nil, err
			}
			return monitor.ToResponse(), nil
		},
		"monitors.remove": func(ctx context.Context, payload json.RawMessage) (any, error) {
			var request monitorTargetRequest
			if err := decode(payload, &request); err != nil {
				return nil, err
			}
			site, err := s.siteManager.RemoveMonitor(ctx, request.SiteIdentifier, request.MonitorID)
			if err != nil {
				return nil, err
			}
			return site.ToResponse(), nil
		},
		"monitoring.startForSite": func(ctx context.Context, payload json.RawMessage) (any, error) {
			var request monitoringScopeRequest
			if err := decode(payload, &request); err != nil {
				return nil, err
			}
			return s.monitorManager.StartMonitoringForSite(ctx, request.Identifier, request.MonitorID)
		},
		"monitoring.stopForSite": func(ctx context.Context, payload json.RawMessage) (any, error) {
			var request monitoringScopeRequest
			if err := decode(payload, &request); err != nil {
				return nil, err
			}
			return s.monitorManager.StopMonitoringForSite(ctx, request.Identifier, request.MonitorID)
		},
		"monitoring.checkNow": func(ctx context.Context, payload json.RawMessage) (any, error) {
			var request monitorTargetRequest
			if err := decode(payload, &request); err != nil {
				return nil, err
			}
			result, correlationID, err := s.monitorManager.CheckSiteNow(ctx, request.SiteIdentifier, request.MonitorID)
			if err != nil {
				return nil, err
			}
			return manualCheckResponse{
				Result:        result,
				CorrelationID: correlationID,
				Queued:        result == nil,
			}, nil
		},
		"monitoring.getStats": func(ctx context.Context, payload json.RawMessage) (any, error) {
			var request monitorStatsRequest
			if err := decode(payload, &request); err != nil {
				return nil, err
			}
			return s.monitorManager.GetMonitorStats(ctx, request.SiteIdentifier, request.MonitorID, request.SinceMs)
		},
		"settings.getHistoryLimit": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return s.dbManager.GetHistoryLimit(ctx)
		},
		"settings.updateHistoryLimit": func(ctx context.Context, payload json.RawMessage) (any, error) {
			var request historyLimitRequest
			if err := decode(payload, &request); err != nil {
				return nil, err
			}
			return s.dbManager.SetHistoryLimit(ctx, request.Limit)
		},
		"data.export": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return s.dbManager.ExportAll(ctx)
		},
		"data.import": func(ctx context.Context, payload json.RawMessage) (any, error) {
			var snapshot models.ExportData
			if err := decode(payload, &snapshot); err != nil {
				return nil, err
			}
			return s.dbManager.ImportData(ctx, &snapshot)
		},
		// The host boundary is stateless, so persist revalidates the full
		// snapshot instead of trusting a previously issued preview.
		"data.import.persist": func(ctx context.Context, payload json.RawMessage) (any, error) {
			var snapshot models.ExportData
			if err := decode(payload, &snapshot); err != nil {
				return nil, err
			}
			preview, err := s.dbManager.ImportData(ctx, &snapshot)
			if err != nil {
				return nil, err
			}
			if err := s.dbManager.PersistImport(ctx, preview); err != nil {
				return nil, err
			}
			if _, err := s.monitorManager.RebuildJobs(ctx); err != nil {
				return nil, err
			}
			return preview, nil
		},
		"data.backup.download": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return s.dbManager.DownloadBackup(ctx)
		},
		"data.backup.restore": func(ctx context.Context, payload json.RawMessage) (any, error) {
			var request backupRestoreRequest
			if err := decode(payload, &request); err != nil {
				return nil, err
			}
			metadata, err := s.dbManager.RestoreBackup(ctx, request.Bytes)
			if err != nil {
				return nil, err
			}
			if _, err := s.monitorManager.RebuildJobs(ctx); err != nil {
				return nil, err
			}
			return metadata, nil
		},
		"monitorTypes.list": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return s.registry.List(), nil
		},
	}

	for operation, handler := range bindings {
		if err := s.hostRegistry.Register(operation, handler); err != nil {
			return err
		}
	}
	return nil
}

func decode(payload json.RawMessage, target any) error {
	if len(payload) == 0 {
		return fmt.Errorf("request payload is required: %w", utils.ErrInvalidInput)
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("malformed request payload: %w", utils.ErrInvalidInput)
	}
	return nil
}
