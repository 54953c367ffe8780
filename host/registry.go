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

// Package host is the engine's outward request surface: a central registry
// of named operations behind a uniform result envelope. It carries no
// transport policy; the HTTP controllers and any in-process embedder call
// Invoke the same way.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// Handler executes one named operation. The raw payload may be nil for
// operations without input.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Registry maps operation names onto handlers. Registration happens once
// during orchestrator initialization; invocation is concurrent.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewRegistry creates an empty operation registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register binds an operation name to a handler. Duplicate names are
// rejected so two components cannot silently shadow each other.
func (r *Registry) Register(operation string, handler Handler) error {
	if operation == "" {
		return fmt.Errorf("operation name is required: %w", utils.ErrInvalidInput)
	}
	if handler == nil {
		return fmt.Errorf("operation %q requires a handler: %w", operation, utils.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[operation]; exists {
		return fmt.Errorf("operation %q: %w", operation, utils.ErrDuplicateHandler)
	}
	r.handlers[operation] = handler
	return nil
}

// Operations returns the registered operation names, sorted.
func (r *Registry) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs a named operation and wraps the outcome in the result
// envelope. Raw internal errors never escape; the envelope carries the
// stable code and a sanitized message.
func (r *Registry) Invoke(ctx context.Context, operation string, payload json.RawMessage) models.Result {
	r.mu.RLock()
	handler, exists := r.handlers[operation]
	r.mu.RUnlock()
	if !exists {
		return models.ErrResult(string(utils.CodeNotFound),
			fmt.Sprintf("unknown operation %q", operation), nil)
	}

	data, err := handler(ctx, payload)
	if err != nil {
		code := utils.CodeFromError(err)
		r.logger.ErrorContext(ctx, "host operation failed",
			"operation", operation, "code", string(code), "error", err)
		return models.ErrResult(string(code), messageForCode(code), detailsFor(err))
	}
	return models.OkResult(data)
}

// messageForCode keeps outward messages stable and free of internal detail.
func messageForCode(code utils.ErrorCode) string {
	switch code {
	case utils.CodeValidation:
		return "request failed validation"
	case utils.CodeNotFound:
		return "target not found"
	case utils.CodeDuplicateSiteIdentifier:
		return "site identifier already exists"
	case utils.CodeDuplicateMonitorID:
		return "monitor id already exists"
	case utils.CodeNoMonitors:
		return "site has no monitors"
	case utils.CodeSchemaNewer:
		return "data was produced by a newer version"
	case utils.CodeIntegrityFailed:
		return "integrity check failed"
	case utils.CodeTimeout:
		return "operation timed out"
	case utils.CodeTransient:
		return "temporary failure, try again"
	case utils.CodeCancelled:
		return "operation cancelled"
	default:
		return "internal error"
	}
}

// detailsFor surfaces structured validation issues when the error carries
// them; everything else stays opaque.
func detailsFor(err error) any {
	var issuesErr *ValidationIssuesError
	if errors.As(err, &issuesErr) {
		return issuesErr.Issues
	}
	return nil
}

// ValidationIssuesError attaches per-field issues to a validation failure so
// the envelope can carry them as details.
type ValidationIssuesError struct {
	Issues []string
}

func (e *ValidationIssuesError) Error() string {
	return fmt.Sprintf("validation failed: %v: %s", e.Issues, utils.ErrInvalidInput)
}

func (e *ValidationIssuesError) Unwrap() error { return utils.ErrInvalidInput }

// NewValidationError builds a validation failure carrying issues.
func NewValidationError(issues []string) error {
	return &ValidationIssuesError{Issues: issues}
}
