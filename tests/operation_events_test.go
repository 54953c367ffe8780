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
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/events"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/tests/apitestutils"
)

func TestRepositoryOperationEventsReachPublicBus(t *testing.T) {
	app := apitestutils.MakeAppClient(t)

	completed := make(chan string, 32)
	unsubscribe, err := app.Params.Orchestrator.PublicBus().Subscribe(events.EventOperationCompleted,
		func(ctx context.Context, event string, payload map[string]any) error {
			if name, _ := payload["operation"].(string); name != "" {
				select {
				case completed <- name:
				default:
				}
			}
			return nil
		})
	require.NoError(t, err)
	t.Cleanup(unsubscribe)

	status, result := app.Invoke("sites.getAll", nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, result.Ok)

	// Emission is synchronous with the repository call, so the channel is
	// already populated by the time the invoke returns.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case name := <-completed:
			if name == "site.getAll" {
				return
			}
		case <-deadline:
			t.Fatal("site.getAll lifecycle event never reached the public bus")
		}
	}
}
