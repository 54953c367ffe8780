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

package tests

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/tests/apitestutils"
)

// manualCheckDTO mirrors the monitoring.checkNow response shape.
type manualCheckDTO struct {
	Result        *models.CheckResult `json:"result"`
	CorrelationID string              `json:"correlationId"`
	Queued        bool                `json:"queued"`
}

func TestMonitoringFlow(t *testing.T) {
	app := apitestutils.MakeAppClient(t)

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(target.Close)

	status, result := app.Invoke("sites.add", map[string]any{
		"identifier": "flow-site",
		"name":       "Flow Site",
		"monitoring": false,
		"monitors": []map[string]any{
			{
				"type":            "http",
				"checkIntervalMs": 60000,
				"monitoring":      false,
				"fields":          map[string]any{"url": target.URL},
			},
		},
	})
	require.Equal(t, http.StatusOK, status)
	require.True(t, result.Ok)

	var site models.SiteResponse
	apitestutils.DecodeData(t, result, &site)
	require.Len(t, site.Monitors, 1)
	monitorID := site.Monitors[0].ID

	t.Run("checkNow on an idle monitor runs synchronously and reports up", func(t *testing.T) {
		status, result := app.Invoke("monitoring.checkNow", map[string]any{
			"siteIdentifier": "flow-site",
			"monitorId":      monitorID,
		})
		require.Equal(t, http.StatusOK, status)
		require.True(t, result.Ok)

		var check manualCheckDTO
		apitestutils.DecodeData(t, result, &check)
		assert.False(t, check.Queued)
		assert.NotEmpty(t, check.CorrelationID)
		require.NotNil(t, check.Result)
		assert.Equal(t, models.MonitorStatusUp, check.Result.Status)
	})

	t.Run("getStats reflects the completed check", func(t *testing.T) {
		status, result := app.Invoke("monitoring.getStats", map[string]any{
			"siteIdentifier": "flow-site",
			"monitorId":      monitorID,
			"sinceMs":        1,
		})
		require.Equal(t, http.StatusOK, status)
		require.True(t, result.Ok)

		var stats models.HistoryStats
		apitestutils.DecodeData(t, result, &stats)
		assert.Equal(t, monitorID, stats.MonitorID)
		assert.GreaterOrEqual(t, stats.TotalChecks, int64(1))
		assert.Equal(t, float64(100), stats.UptimePercent)
	})

	t.Run("startForSite arms the scheduler", func(t *testing.T) {
		status, result := app.Invoke("monitoring.startForSite", map[string]any{
			"identifier": "flow-site",
		})
		require.Equal(t, http.StatusOK, status)
		require.True(t, result.Ok)

		var started bool
		apitestutils.DecodeData(t, result, &started)
		assert.True(t, started)
	})

	t.Run("stopForSite tears the jobs down", func(t *testing.T) {
		status, result := app.Invoke("monitoring.stopForSite", map[string]any{
			"identifier": "flow-site",
		})
		require.Equal(t, http.StatusOK, status)
		require.True(t, result.Ok)

		var stopped bool
		apitestutils.DecodeData(t, result, &stopped)
		assert.True(t, stopped)
	})

	t.Run("checkNow for an unknown monitor returns 404", func(t *testing.T) {
		status, result := app.Invoke("monitoring.checkNow", map[string]any{
			"siteIdentifier": "flow-site",
			"monitorId":      "no-such-monitor",
		})
		require.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", result.Error.Code)
	})

	t.Run("startForSite for an unknown site returns 404", func(t *testing.T) {
		status, result := app.Invoke("monitoring.startForSite", map[string]any{
			"identifier": "no-such-site",
		})
		require.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", result.Error.Code)
	})
}
