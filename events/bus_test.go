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

package events

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitEnrichesPayloadWithMeta(t *testing.T) {
	bus := NewBus("test-bus", 0, 0)
	var received map[string]any

	_, err := bus.Subscribe(EventSiteAdded, func(ctx context.Context, event string, payload map[string]any) error {
		received = payload
		return nil
	})
	require.NoError(t, err)

	bus.Emit(context.Background(), EventSiteAdded, map[string]any{"identifier": "site-1"})

	require.NotNil(t, received)
	assert.Equal(t, "site-1", received["identifier"])

	meta, ok := received[MetaKey].(Meta)
	require.True(t, ok)
	assert.Equal(t, "test-bus", meta.BusName)
	assert.Equal(t, EventSiteAdded, meta.Event)
	assert.NotEmpty(t, meta.CorrelationID)
	assert.Positive(t, meta.EmittedAtMs)
	assert.Equal(t, meta.CorrelationID, received["correlationId"])
}

func TestEmitPreservesProvidedCorrelationID(t *testing.T) {
	bus := NewBus("test-bus", 0, 0)
	var received map[string]any

	_, err := bus.Subscribe("x", func(ctx context.Context, event string, payload map[string]any) error {
		received = payload
		return nil
	})
	require.NoError(t, err)

	bus.Emit(context.Background(), "x", map[string]any{"correlationId": "corr-42"})

	meta := received[MetaKey].(Meta)
	assert.Equal(t, "corr-42", meta.CorrelationID)
	assert.Equal(t, "corr-42", received["correlationId"])
}

func TestEmitDoesNotMutateCallerPayload(t *testing.T) {
	bus := NewBus("test-bus", 0, 0)
	_, err := bus.Subscribe("x", func(ctx context.Context, event string, payload map[string]any) error {
		payload["extra"] = true
		return nil
	})
	require.NoError(t, err)

	original := map[string]any{"k": "v"}
	bus.Emit(context.Background(), "x", original)

	assert.Equal(t, map[string]any{"k": "v"}, original)
}

func TestMiddlewareRunsInOrderAndMutatesPayload(t *testing.T) {
	bus := NewBus("test-bus", 0, 0)
	var order []string

	require.NoError(t, bus.Use(func(ctx context.Context, event string, payload map[string]any, next func() error) error {
		order = append(order, "first")
		payload["stage"] = "first"
		return next()
	}))
	require.NoError(t, bus.Use(func(ctx context.Context, event string, payload map[string]any, next func() error) error {
		order = append(order, "second")
		payload["stage"] = "second"
		return next()
	}))

	var stage any
	_, err := bus.Subscribe("x", func(ctx context.Context, event string, payload map[string]any) error {
		stage = payload["stage"]
		return nil
	})
	require.NoError(t, err)

	bus.Emit(context.Background(), "x", nil)

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, "second", stage)
}

func TestMiddlewareShortCircuitSkipsListeners(t *testing.T) {
	bus := NewBus("test-bus", 0, 0)

	require.NoError(t, bus.Use(func(ctx context.Context, event string, payload map[string]any, next func() error) error {
		return nil // deliberately does not call next
	}))

	delivered := false
	_, err := bus.Subscribe("x", func(ctx context.Context, event string, payload map[string]any) error {
		delivered = true
		return nil
	})
	require.NoError(t, err)

	bus.Emit(context.Background(), "x", nil)
	assert.False(t, delivered)
}

func TestMiddlewareFailureIsIsolated(t *testing.T) {
	bus := NewBus("test-bus", 0, 0)

	require.NoError(t, bus.Use(func(ctx context.Context, event string, payload map[string]any, next func() error) error {
		return errors.New("middleware exploded")
	}))
	require.NoError(t, bus.Use(func(ctx context.Context, event string, payload map[string]any, next func() error) error {
		panic("middleware panicked")
	}))

	delivered := false
	_, err := bus.Subscribe("x", func(ctx context.Context, event string, payload map[string]any) error {
		delivered = true
		return nil
	})
	require.NoError(t, err)

	bus.Emit(context.Background(), "x", nil)
	assert.True(t, delivered, "failing middleware must not block delivery")
}

func TestListenerFailuresDoNotAbortEmission(t *testing.T) {
	bus := NewBus("test-bus", 0, 0)
	var delivered []string

	_, err := bus.Subscribe("x", func(ctx context.Context, event string, payload map[string]any) error {
		delivered = append(delivered, "a")
		return errors.New("listener a failed")
	})
	require.NoError(t, err)
	_, err = bus.Subscribe("x", func(ctx context.Context, event string, payload map[string]any) error {
		delivered = append(delivered, "b")
		panic("listener b panicked")
	})
	require.NoError(t, err)
	_, err = bus.Subscribe("x", func(ctx context.Context, event string, payload map[string]any) error {
		delivered = append(delivered, "c")
		return nil
	})
	require.NoError(t, err)

	bus.Emit(context.Background(), "x", nil)
	assert.Equal(t, []string{"a", "b", "c"}, delivered)
}

func TestListenerCapRejectsRegistration(t *testing.T) {
	bus := NewBus("test-bus", 2, 0)

	for i := 0; i < 2; i++ {
		_, err := bus.Subscribe("x", func(ctx context.Context, event string, payload map[string]any) error {
			return nil
		})
		require.NoError(t, err)
	}

	_, err := bus.Subscribe("x", func(ctx context.Context, event string, payload map[string]any) error {
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrListenerLimitReached)

	// Other event names are unaffected by the per-event cap.
	_, err = bus.Subscribe("y", func(ctx context.Context, event string, payload map[string]any) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestMiddlewareCapRejectsRegistration(t *testing.T) {
	bus := NewBus("test-bus", 0, 1)

	require.NoError(t, bus.Use(func(ctx context.Context, event string, payload map[string]any, next func() error) error {
		return next()
	}))
	err := bus.Use(func(ctx context.Context, event string, payload map[string]any, next func() error) error {
		return next()
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMiddlewareLimitReached)
}

func TestUnsubscribeClosureRemovesListener(t *testing.T) {
	bus := NewBus("test-bus", 0, 0)
	calls := 0

	unsubscribe, err := bus.Subscribe("x", func(ctx context.Context, event string, payload map[string]any) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, bus.ListenerCount("x"))

	bus.Emit(context.Background(), "x", nil)
	unsubscribe()
	bus.Emit(context.Background(), "x", nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.ListenerCount("x"))

	// A second invocation is a no-op.
	unsubscribe()
	assert.Equal(t, 0, bus.ListenerCount("x"))
}

func TestCloneWithoutMetaStripsOnlyMetaSlot(t *testing.T) {
	payload := map[string]any{
		"correlationId": "corr-7",
		"identifier":    "site-1",
		MetaKey:         Meta{CorrelationID: "corr-7", BusName: "inner"},
	}

	clone := CloneWithoutMeta(payload)

	assert.NotContains(t, clone, MetaKey)
	assert.Equal(t, "corr-7", clone["correlationId"])
	assert.Equal(t, "site-1", clone["identifier"])
}

func TestRateLimitMiddlewareDropsExcessEmissions(t *testing.T) {
	bus := NewBus("test-bus", 0, 0)
	require.NoError(t, bus.Use(NewRateLimitMiddleware(1, 2)))

	delivered := 0
	_, err := bus.Subscribe("x", func(ctx context.Context, event string, payload map[string]any) error {
		delivered++
		return nil
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		bus.Emit(context.Background(), "x", map[string]any{"i": fmt.Sprint(i)})
	}

	assert.Equal(t, 2, delivered, "burst budget bounds synchronous emissions")
}

func TestValidationMiddlewarePassesWellFormedEmissions(t *testing.T) {
	bus := NewBus("test-bus", 0, 0)
	require.NoError(t, bus.Use(NewValidationMiddleware()))

	delivered := 0
	_, err := bus.Subscribe(EventSiteAdded, func(ctx context.Context, event string, payload map[string]any) error {
		delivered++
		return nil
	})
	require.NoError(t, err)

	bus.Emit(context.Background(), EventSiteAdded, map[string]any{"identifier": "site-1"})

	assert.Equal(t, 1, delivered)
}

func TestValidationMiddlewareDropsUnserializablePayloads(t *testing.T) {
	bus := NewBus("test-bus", 0, 0)
	require.NoError(t, bus.Use(NewValidationMiddleware()))

	delivered := 0
	_, err := bus.Subscribe(EventSiteAdded, func(ctx context.Context, event string, payload map[string]any) error {
		delivered++
		return nil
	})
	require.NoError(t, err)

	bus.Emit(context.Background(), EventSiteAdded, map[string]any{"pipe": make(chan int)})

	assert.Equal(t, 0, delivered, "a payload that cannot cross the host boundary must not reach listeners")
}

func TestValidationMiddlewareDropsEmissionsWithoutMetadata(t *testing.T) {
	mw := NewValidationMiddleware()

	nextCalled := false
	err := mw(context.Background(), "x", map[string]any{"identifier": "site-1"}, func() error {
		nextCalled = true
		return nil
	})

	require.NoError(t, err)
	assert.False(t, nextCalled)
}
