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
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

// NewLoggingMiddleware traces every emission at debug level.
func NewLoggingMiddleware() Middleware {
	return func(ctx context.Context, event string, payload map[string]any, next func() error) error {
		meta, _ := payload[MetaKey].(Meta)
		slog.Debug("event emitted",
			"bus", meta.BusName,
			"event", event,
			"correlationId", meta.CorrelationID)
		return next()
	}
}

// emissionEnvelope is the metadata contract every emission must satisfy
// before it may travel further down the chain.
type emissionEnvelope struct {
	Event         string `validate:"required"`
	CorrelationID string `validate:"required"`
	BusName       string `validate:"required"`
	EmittedAtMs   int64  `validate:"required,gt=0"`
}

// NewValidationMiddleware drops emissions with a malformed envelope or a
// payload that cannot be serialized for outward delivery. Install it first
// so later middleware and listeners only ever see well-formed events.
func NewValidationMiddleware() Middleware {
	validate := validator.New()

	return func(ctx context.Context, event string, payload map[string]any, next func() error) error {
		meta, ok := payload[MetaKey].(Meta)
		if !ok {
			slog.Warn("event dropped by validation, missing metadata", "event", event)
			return nil
		}
		envelope := emissionEnvelope{
			Event:         meta.Event,
			CorrelationID: meta.CorrelationID,
			BusName:       meta.BusName,
			EmittedAtMs:   meta.EmittedAtMs,
		}
		if err := validate.Struct(envelope); err != nil {
			slog.Warn("event dropped by validation",
				"bus", meta.BusName, "event", event, "error", err)
			return nil
		}
		if _, err := json.Marshal(CloneWithoutMeta(payload)); err != nil {
			slog.Warn("event dropped by validation, payload not serializable",
				"bus", meta.BusName, "event", event, "correlationId", meta.CorrelationID, "error", err)
			return nil
		}
		return next()
	}
}

// NewRateLimitMiddleware drops emissions of an event name that exceed the
// per-second budget. Dropped emissions are logged; burst allows short spikes.
func NewRateLimitMiddleware(perSecond float64, burst int) Middleware {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(event string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		limiter, ok := limiters[event]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
			limiters[event] = limiter
		}
		return limiter
	}

	return func(ctx context.Context, event string, payload map[string]any, next func() error) error {
		if !limiterFor(event).Allow() {
			meta, _ := payload[MetaKey].(Meta)
			slog.Warn("event dropped by rate limit",
				"bus", meta.BusName,
				"event", event,
				"correlationId", meta.CorrelationID)
			return nil
		}
		return next()
	}
}
