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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/events"
)

func publicBusConfig() config.Config {
	return config.Config{
		EventBus: config.EventBusConfig{
			BusName:            "public-test",
			MaxListeners:       50,
			MaxMiddleware:      20,
			RateLimitPerSecond: 100,
			RateLimitBurst:     200,
		},
	}
}

func TestProvidePublicBusInstallsStandardMiddleware(t *testing.T) {
	bus, err := ProvidePublicBus(publicBusConfig())
	require.NoError(t, err)

	assert.Equal(t, 3, bus.MiddlewareCount(), "validation, logging and rate limit")

	delivered := 0
	_, err = bus.Subscribe(events.EventSiteAdded, func(ctx context.Context, event string, payload map[string]any) error {
		delivered++
		return nil
	})
	require.NoError(t, err)

	bus.Emit(context.Background(), events.EventSiteAdded, map[string]any{"identifier": "site-1"})
	assert.Equal(t, 1, delivered, "well-formed emissions pass the whole chain")

	bus.Emit(context.Background(), events.EventSiteAdded, map[string]any{"pipe": make(chan int)})
	assert.Equal(t, 1, delivered, "validation drops unserializable payloads before listeners run")
}

func TestProvidePublicBusRejectsTooSmallMiddlewareCap(t *testing.T) {
	cfg := publicBusConfig()
	cfg.EventBus.MaxMiddleware = 2

	_, err := ProvidePublicBus(cfg)
	require.ErrorIs(t, err, events.ErrMiddlewareLimitReached)
}
