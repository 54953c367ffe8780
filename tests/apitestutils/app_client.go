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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/api"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/wiring"
)

// App is a fully wired engine behind an httptest server. Every test gets its
// own database, orchestrator and HTTP surface.
type App struct {
	t      *testing.T
	Server *httptest.Server
	Params *wiring.AppParams
}

// MakeAppClient boots the engine against a fresh temp database and returns
// a client for the host API. Everything is torn down on test cleanup.
func MakeAppClient(t *testing.T) *App {
	t.Helper()

	SetupTestDatabase(t)

	params, err := wiring.InitializeAppParams(config.GetConfig())
	require.NoError(t, err)

	require.NoError(t, params.Orchestrator.Initialize(context.Background()))
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = params.Orchestrator.Shutdown(shutdownCtx)
	})

	server := httptest.NewServer(api.MakeHTTPHandler(params))
	t.Cleanup(server.Close)

	return &App{t: t, Server: server, Params: params}
}

// Invoke posts a payload to POST /api/v1/invoke/{operation} and decodes the
// result envelope.
func (a *App) Invoke(operation string, payload any) (int, models.Result) {
	a.t.Helper()

	body := new(bytes.Buffer)
	if payload != nil {
		require.NoError(a.t, json.NewEncoder(body).Encode(payload))
	}

	resp, err := http.Post(a.Server.URL+"/api/v1/invoke/"+operation, "application/json", body)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var result models.Result
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&result))
	return resp.StatusCode, result
}

// DecodeData re-marshals an envelope's data into a typed target.
func DecodeData(t *testing.T, result models.Result, target any) {
	t.Helper()

	raw, err := json.Marshal(result.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, target))
}
