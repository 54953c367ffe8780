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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/tests/apitestutils"
)

func siteDraft(identifier, name string) map[string]any {
	return map[string]any{
		"identifier": identifier,
		"name":       name,
		"monitoring": false,
		"monitors": []map[string]any{
			{
				"type":            "http",
				"checkIntervalMs": 60000,
				"monitoring":      false,
				"fields":          map[string]any{"url": "https://example.com/health"},
			},
		},
	}
}

func TestSiteLifecycle(t *testing.T) {
	app := apitestutils.MakeAppClient(t)

	t.Run("Adding a site returns the stored site with its monitors", func(t *testing.T) {
		status, result := app.Invoke("sites.add", siteDraft("site-a", "Site A"))
		require.Equal(t, http.StatusOK, status)
		require.True(t, result.Ok)

		var site models.SiteResponse
		apitestutils.DecodeData(t, result, &site)
		assert.Equal(t, "site-a", site.Identifier)
		assert.Equal(t, "Site A", site.Name)
		require.Len(t, site.Monitors, 1)
		assert.Equal(t, "http", site.Monitors[0].Type)
		assert.NotEmpty(t, site.Monitors[0].ID)
		assert.Equal(t, models.MonitorStatusPending, site.Monitors[0].Status)
	})

	t.Run("Adding the same identifier again returns 409", func(t *testing.T) {
		status, result := app.Invoke("sites.add", siteDraft("site-a", "Site A again"))
		require.Equal(t, http.StatusConflict, status)
		require.False(t, result.Ok)
		require.NotNil(t, result.Error)
		assert.Equal(t, "DUPLICATE_SITE_IDENTIFIER", result.Error.Code)
	})

	t.Run("Adding a site with no monitors returns a validation error", func(t *testing.T) {
		status, result := app.Invoke("sites.add", map[string]any{
			"identifier": "site-empty",
			"name":       "No monitors",
			"monitors":   []map[string]any{},
		})
		require.Equal(t, http.StatusBadRequest, status)
		require.False(t, result.Ok)
		assert.Equal(t, "VALIDATION", result.Error.Code)
	})

	t.Run("sites.getAll lists the stored site", func(t *testing.T) {
		status, result := app.Invoke("sites.getAll", nil)
		require.Equal(t, http.StatusOK, status)
		require.True(t, result.Ok)

		var list models.SiteListResponse
		apitestutils.DecodeData(t, result, &list)
		require.Equal(t, 1, list.Total)
		assert.Equal(t, "site-a", list.Sites[0].Identifier)
	})

	t.Run("sites.update renames the site", func(t *testing.T) {
		status, result := app.Invoke("sites.update", map[string]any{
			"identifier": "site-a",
			"updates":    map[string]any{"name": "Renamed Site"},
		})
		require.Equal(t, http.StatusOK, status)
		require.True(t, result.Ok)

		var site models.SiteResponse
		apitestutils.DecodeData(t, result, &site)
		assert.Equal(t, "Renamed Site", site.Name)
	})

	t.Run("monitors.add attaches a second monitor", func(t *testing.T) {
		status, result := app.Invoke("monitors.add", map[string]any{
			"siteIdentifier": "site-a",
			"monitor": map[string]any{
				"id":              "extra-monitor",
				"type":            "port",
				"checkIntervalMs": 60000,
				"monitoring":      false,
				"fields":          map[string]any{"host": "example.com", "port": 443},
			},
		})
		require.Equal(t, http.StatusOK, status)
		require.True(t, result.Ok)

		var monitor models.MonitorResponse
		apitestutils.DecodeData(t, result, &monitor)
		assert.Equal(t, "extra-monitor", monitor.ID)
		assert.Equal(t, "port", monitor.Type)
	})

	t.Run("Adding a monitor with a duplicate id returns 409", func(t *testing.T) {
		status, result := app.Invoke("monitors.add", map[string]any{
			"siteIdentifier": "site-a",
			"monitor": map[string]any{
				"id":              "extra-monitor",
				"type":            "port",
				"checkIntervalMs": 60000,
				"monitoring":      false,
				"fields":          map[string]any{"host": "example.com", "port": 443},
			},
		})
		require.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "DUPLICATE_MONITOR_ID", result.Error.Code)
	})

	t.Run("monitors.remove detaches the monitor", func(t *testing.T) {
		status, result := app.Invoke("monitors.remove", map[string]any{
			"siteIdentifier": "site-a",
			"monitorId":      "extra-monitor",
		})
		require.Equal(t, http.StatusOK, status)
		require.True(t, result.Ok)

		var site models.SiteResponse
		apitestutils.DecodeData(t, result, &site)
		require.Len(t, site.Monitors, 1)
	})

	t.Run("sites.remove deletes the site", func(t *testing.T) {
		status, result := app.Invoke("sites.remove", map[string]any{"identifier": "site-a"})
		require.Equal(t, http.StatusOK, status)
		require.True(t, result.Ok)

		status, result = app.Invoke("sites.getAll", nil)
		require.Equal(t, http.StatusOK, status)
		var list models.SiteListResponse
		apitestutils.DecodeData(t, result, &list)
		assert.Equal(t, 0, list.Total)
	})

	t.Run("Removing an unknown site returns 404", func(t *testing.T) {
		status, result := app.Invoke("sites.remove", map[string]any{"identifier": "no-such-site"})
		require.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", result.Error.Code)
	})

	t.Run("Invoking an unregistered operation returns 404", func(t *testing.T) {
		status, result := app.Invoke("sites.teleport", map[string]any{})
		require.Equal(t, http.StatusNotFound, status)
		require.False(t, result.Ok)
		assert.Equal(t, "NOT_FOUND", result.Error.Code)
	})

	t.Run("monitorTypes.list exposes the builtin catalog", func(t *testing.T) {
		status, result := app.Invoke("monitorTypes.list", nil)
		require.Equal(t, http.StatusOK, status)
		require.True(t, result.Ok)

		var descriptors []map[string]any
		apitestutils.DecodeData(t, result, &descriptors)
		types := make([]string, 0, len(descriptors))
		for _, d := range descriptors {
			types = append(types, d["type"].(string))
		}
		assert.Contains(t, types, "http")
		assert.Contains(t, types, "port")
		assert.Contains(t, types, "ping")
		assert.Contains(t, types, "dns")
		assert.Contains(t, types, "ssl")
	})
}
