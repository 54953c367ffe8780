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

// Package events implements the typed event bus: every emission is enriched
// with correlation metadata, passed through a middleware chain and delivered
// to listeners in registration order. Failures in one middleware or listener
// never abort delivery to the rest.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MetaKey is the payload slot holding the enrichment metadata.
const MetaKey = "_meta"

// Registration caps applied when a bus is constructed with non-positive
// limits.
const (
	DefaultMaxListeners  = 50
	DefaultMaxMiddleware = 20
)

var (
	// ErrListenerLimitReached is returned when an event has exhausted its
	// listener registrations.
	ErrListenerLimitReached = errors.New("listener limit reached")
	// ErrMiddlewareLimitReached is returned when the bus has exhausted its
	// middleware registrations.
	ErrMiddlewareLimitReached = errors.New("middleware limit reached")
)

// Meta is the metadata stamped onto every emitted payload.
type Meta struct {
	CorrelationID string `json:"correlationId"`
	EmittedAtMs   int64  `json:"emittedAtMs"`
	BusName       string `json:"busName"`
	Event         string `json:"event"`
}

// Handler consumes an emitted event. Returned errors are logged and do not
// abort delivery to later listeners.
type Handler func(ctx context.Context, event string, payload map[string]any) error

// Middleware observes or mutates an emission before listeners run. Calling
// next continues the chain; returning without calling next short-circuits
// the emission. A returned error (or panic) is logged and the chain
// proceeds as if next had been called.
type Middleware func(ctx context.Context, event string, payload map[string]any, next func() error) error

type registration struct {
	id      uint64
	handler Handler
}

// Bus is a named pub/sub channel for one engine component.
type Bus struct {
	mu            sync.RWMutex
	name          string
	maxListeners  int
	maxMiddleware int
	nextID        uint64
	listeners     map[string][]registration
	middleware    []Middleware
}

// NewBus creates a bus. Non-positive caps fall back to the defaults.
func NewBus(name string, maxListeners, maxMiddleware int) *Bus {
	if maxListeners < 1 {
		maxListeners = DefaultMaxListeners
	}
	if maxMiddleware < 1 {
		maxMiddleware = DefaultMaxMiddleware
	}
	return &Bus{
		name:          name,
		maxListeners:  maxListeners,
		maxMiddleware: maxMiddleware,
		listeners:     make(map[string][]registration),
	}
}

// Name returns the bus name stamped into emission metadata.
func (b *Bus) Name() string {
	return b.name
}

// Subscribe registers a listener for event and returns a cleanup closure
// that deregisters it. Registration is rejected once the per-event listener
// cap is reached.
func (b *Bus) Subscribe(event string, handler Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.listeners[event]) >= b.maxListeners {
		slog.Warn("event listener limit reached, rejecting registration",
			"bus", b.name, "event", event, "limit", b.maxListeners)
		return nil, fmt.Errorf("event %q on bus %q: %w", event, b.name, ErrListenerLimitReached)
	}

	b.nextID++
	id := b.nextID
	b.listeners[event] = append(b.listeners[event], registration{id: id, handler: handler})

	return func() { b.unsubscribe(event, id) }, nil
}

// Use appends middleware to the chain. Registration is rejected once the
// middleware cap is reached.
func (b *Bus) Use(mw Middleware) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.middleware) >= b.maxMiddleware {
		slog.Warn("event middleware limit reached, rejecting registration",
			"bus", b.name, "limit", b.maxMiddleware)
		return fmt.Errorf("bus %q: %w", b.name, ErrMiddlewareLimitReached)
	}
	b.middleware = append(b.middleware, mw)
	return nil
}

// ListenerCount returns the number of listeners registered for event.
func (b *Bus) ListenerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[event])
}

// MiddlewareCount returns the number of registered middleware.
func (b *Bus) MiddlewareCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.middleware)
}

// Emit publishes event with data. The payload is shallow-cloned, a
// correlation ID is minted if the payload lacks one, metadata is attached,
// then the middleware chain and listeners run synchronously in the caller's
// goroutine.
func (b *Bus) Emit(ctx context.Context, event string, data map[string]any) {
	payload := clonePayload(data)

	correlationID, _ := payload["correlationId"].(string)
	if correlationID == "" {
		correlationID = uuid.NewString()
		payload["correlationId"] = correlationID
	}
	payload[MetaKey] = Meta{
		CorrelationID: correlationID,
		EmittedAtMs:   time.Now().UnixMilli(),
		BusName:       b.name,
		Event:         event,
	}

	b.mu.RLock()
	middleware := make([]Middleware, len(b.middleware))
	copy(middleware, b.middleware)
	listeners := make([]registration, len(b.listeners[event]))
	copy(listeners, b.listeners[event])
	b.mu.RUnlock()

	if !b.runMiddleware(ctx, event, payload, middleware) {
		slog.Debug("event short-circuited by middleware", "bus", b.name, "event", event, "correlationId", correlationID)
		return
	}

	for _, reg := range listeners {
		if err := b.invokeListener(ctx, reg, event, payload); err != nil {
			slog.Error("event listener failed",
				"bus", b.name, "event", event, "correlationId", correlationID, "error", err)
		}
	}
}

// runMiddleware executes the chain in registration order. It reports false
// when a middleware deliberately short-circuits by not calling next.
func (b *Bus) runMiddleware(ctx context.Context, event string, payload map[string]any, middleware []Middleware) bool {
	for _, mw := range middleware {
		nextCalled := false
		next := func() error {
			nextCalled = true
			return nil
		}

		if err := b.invokeMiddleware(ctx, mw, event, payload, next); err != nil {
			// Failure is isolated; the rest of the chain still runs.
			slog.Error("event middleware failed", "bus", b.name, "event", event, "error", err)
			continue
		}
		if !nextCalled {
			return false
		}
	}
	return true
}

func (b *Bus) invokeMiddleware(ctx context.Context, mw Middleware, event string, payload map[string]any, next func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("middleware panicked: %v", r)
		}
	}()
	return mw(ctx, event, payload, next)
}

func (b *Bus) invokeListener(ctx context.Context, reg registration, event string, payload map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return reg.handler(ctx, event, payload)
}

func (b *Bus) unsubscribe(event string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.listeners[event]
	for i, reg := range regs {
		if reg.id == id {
			b.listeners[event] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(b.listeners[event]) == 0 {
		delete(b.listeners, event)
	}
}

// CloneWithoutMeta shallow-copies a payload minus the metadata slot. The
// orchestrator uses it to re-emit manager events on the public bus, which
// stamps fresh metadata while the correlation ID carried in the payload
// survives the crossing.
func CloneWithoutMeta(payload map[string]any) map[string]any {
	clone := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == MetaKey {
			continue
		}
		clone[k] = v
	}
	return clone
}

func clonePayload(data map[string]any) map[string]any {
	payload := make(map[string]any, len(data)+2)
	for k, v := range data {
		payload[k] = v
	}
	return payload
}
