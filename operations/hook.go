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

// Package operations wraps engine operations with bounded retry, structured
// logging and optional lifecycle event emission.
package operations

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/events"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = 300 * time.Millisecond
	defaultMaxDelay     = 5 * time.Second
)

// EventEmitter is the subset of the event bus the hook needs.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data map[string]any)
}

// Config describes how a single operation is wrapped.
type Config struct {
	// Name identifies the operation in logs and lifecycle events.
	Name string
	// MaxAttempts bounds retries of transiently failing operations (default 3).
	MaxAttempts int
	// InitialDelay is the backoff base; attempt n waits InitialDelay * 2^(n-1).
	InitialDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// Emitter, when set, receives operation:started/completed/failed events.
	Emitter EventEmitter
	// CorrelationID ties the operation's logs and events together; minted
	// when empty.
	CorrelationID string
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "operation"
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = defaultInitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	if c.CorrelationID == "" {
		c.CorrelationID = uuid.NewString()
	}
	return c
}

// Run executes fn under the hook: transient failures are retried with
// exponential backoff, non-retriable error classes fail fast and context
// cancellation aborts between attempts.
func Run(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	_, err := RunWithResult(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// RunWithResult is Run for operations that produce a value.
func RunWithResult[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()
	start := time.Now()
	emit(ctx, cfg, events.EventOperationStarted, nil)

	var zero T
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			durationMs := time.Since(start).Milliseconds()
			slog.Debug("operation completed",
				"operation", cfg.Name,
				"correlationId", cfg.CorrelationID,
				"attempt", attempt,
				"durationMs", durationMs)
			emit(ctx, cfg, events.EventOperationCompleted, map[string]any{"durationMs": durationMs, "attempts": attempt})
			return result, nil
		}
		lastErr = err

		if !utils.IsRetriable(err) || attempt == cfg.MaxAttempts {
			break
		}

		delay := backoffDelay(cfg.InitialDelay, cfg.MaxDelay, attempt)
		slog.Warn("operation failed, retrying",
			"operation", cfg.Name,
			"correlationId", cfg.CorrelationID,
			"attempt", attempt,
			"maxAttempts", cfg.MaxAttempts,
			"delayMs", delay.Milliseconds(),
			"error", err)
		if sleepErr := sleepContext(ctx, delay); sleepErr != nil {
			lastErr = sleepErr
			break
		}
	}

	durationMs := time.Since(start).Milliseconds()
	slog.Error("operation failed",
		"operation", cfg.Name,
		"correlationId", cfg.CorrelationID,
		"durationMs", durationMs,
		"error", lastErr)
	emit(ctx, cfg, events.EventOperationFailed, map[string]any{
		"durationMs": durationMs,
		"error":      lastErr.Error(),
	})
	return zero, lastErr
}

func emit(ctx context.Context, cfg Config, event string, data map[string]any) {
	if cfg.Emitter == nil {
		return
	}
	payload := map[string]any{
		"operation":     cfg.Name,
		"correlationId": cfg.CorrelationID,
	}
	for k, v := range data {
		payload[k] = v
	}
	cfg.Emitter.Emit(ctx, event, payload)
}

// backoffDelay computes base * 2^(attempt-1) capped at maxDelay.
func backoffDelay(base, maxDelay time.Duration, attempt int) time.Duration {
	delay := base << (attempt - 1)
	if delay <= 0 || delay > maxDelay {
		return maxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
