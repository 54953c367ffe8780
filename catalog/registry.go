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

// Package catalog holds the monitor type registry: the process-wide map from
// type name to descriptor, payload validation against each type's field
// rules, and versioned payload migrations.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/models"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// Checker executes a single health check for a monitor.
type Checker interface {
	Check(ctx context.Context, monitor *models.Monitor) models.CheckResult
}

// CheckFactory produces the Checker for a monitor type.
type CheckFactory func() Checker

// FieldDescriptor describes one type-specific monitor field: how a form
// renders it and how the registry validates it.
type FieldDescriptor struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"` // text | number | select
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	// Rules is a validator tag expression applied to the field value when
	// the field is set, e.g. "url" or "min=1,max=65535".
	Rules string `json:"-"`
}

// MonitorTypeDescriptor is a registry entry for one monitor type.
type MonitorTypeDescriptor struct {
	Type         string            `json:"type"`
	DisplayName  string            `json:"displayName"`
	Description  string            `json:"description"`
	Version      string            `json:"version"`
	Fields       []FieldDescriptor `json:"fields"`
	CheckFactory CheckFactory      `json:"-"`
}

// ValidationResult reports the outcome of validating a monitor payload.
type ValidationResult struct {
	Success  bool     `json:"success"`
	Issues   []string `json:"issues,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Registry is the process-wide monitor type registry. Registration happens
// at engine startup before the scheduler begins; lookups are concurrent.
type Registry struct {
	mu       sync.RWMutex
	types    map[string]MonitorTypeDescriptor
	order    []string
	validate *validator.Validate
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:    make(map[string]MonitorTypeDescriptor),
		validate: validator.New(),
	}
}

// Register adds or replaces a descriptor. A replaced type keeps its position
// in List.
func (r *Registry) Register(descriptor MonitorTypeDescriptor) error {
	if err := r.validateDescriptor(descriptor); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[descriptor.Type]; !exists {
		r.order = append(r.order, descriptor.Type)
	}
	r.types[descriptor.Type] = descriptor
	return nil
}

// Get returns the descriptor for monitorType.
func (r *Registry) Get(monitorType string) (MonitorTypeDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptor, exists := r.types[monitorType]
	if !exists {
		return MonitorTypeDescriptor{}, fmt.Errorf("monitor type %q: %w", monitorType, utils.ErrUnknownMonitorType)
	}
	return descriptor, nil
}

// List returns a snapshot of all descriptors in registration order.
func (r *Registry) List() []MonitorTypeDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]MonitorTypeDescriptor, 0, len(r.order))
	for _, monitorType := range r.order {
		descriptors = append(descriptors, r.types[monitorType])
	}
	return descriptors
}

// Validate applies the registered type's field rules to monitor. An unknown
// type fails closed.
func (r *Registry) Validate(monitorType string, monitor *models.Monitor) ValidationResult {
	descriptor, err := r.Get(monitorType)
	if err != nil {
		return ValidationResult{Issues: []string{fmt.Sprintf("unknown monitor type %q", monitorType)}}
	}
	if monitor == nil {
		return ValidationResult{Issues: []string{"monitor is required"}}
	}

	var issues, warnings []string

	if monitor.CheckIntervalMs < models.MinCheckIntervalMs {
		issues = append(issues, fmt.Sprintf("checkIntervalMs must be at least %d", models.MinCheckIntervalMs))
	}
	if monitor.TimeoutMs <= 0 {
		issues = append(issues, "timeoutMs must be greater than 0")
	}
	if monitor.RetryAttempts < 0 {
		issues = append(issues, "retryAttempts must be non-negative")
	}
	if monitor.TimeoutMs > 0 && monitor.CheckIntervalMs > 0 && monitor.TimeoutMs >= monitor.CheckIntervalMs {
		warnings = append(warnings, "timeoutMs is not smaller than checkIntervalMs; checks may overlap their schedule")
	}

	values := monitor.FieldValues()
	declared := make(map[string]bool, len(descriptor.Fields))
	for _, field := range descriptor.Fields {
		declared[field.Name] = true

		value, present := values[field.Name]
		if !present {
			if field.Required {
				issues = append(issues, fmt.Sprintf("field %s is required for type %s", field.Name, monitorType))
			}
			continue
		}
		if field.Rules == "" {
			continue
		}
		if err := r.validate.Var(value, field.Rules); err != nil {
			issues = append(issues, fieldIssues(field.Name, err)...)
		}
	}

	for name := range values {
		if !declared[name] {
			warnings = append(warnings, fmt.Sprintf("field %s is not used by type %s", name, monitorType))
		}
	}

	return ValidationResult{Success: len(issues) == 0, Issues: issues, Warnings: warnings}
}

func (r *Registry) validateDescriptor(descriptor MonitorTypeDescriptor) error {
	if descriptor.Type == "" {
		return fmt.Errorf("descriptor type is required: %w", utils.ErrInvalidInput)
	}
	if descriptor.DisplayName == "" {
		return fmt.Errorf("descriptor displayName is required: %w", utils.ErrInvalidInput)
	}
	if err := r.validate.Var(descriptor.Version, "required,semver"); err != nil {
		return fmt.Errorf("descriptor version %q is not semver: %w", descriptor.Version, utils.ErrInvalidInput)
	}
	if descriptor.CheckFactory == nil {
		return fmt.Errorf("descriptor checkFactory is required: %w", utils.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(descriptor.Fields))
	for _, field := range descriptor.Fields {
		if field.Name == "" {
			return fmt.Errorf("descriptor field name is required: %w", utils.ErrInvalidInput)
		}
		if seen[field.Name] {
			return fmt.Errorf("descriptor field %q is duplicated: %w", field.Name, utils.ErrInvalidInput)
		}
		seen[field.Name] = true
	}
	return nil
}

func fieldIssues(name string, err error) []string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{fmt.Sprintf("field %s: %v", name, err)}
	}
	issues := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		if fieldErr.Param() != "" {
			issues = append(issues, fmt.Sprintf("field %s: failed rule %s=%s", name, fieldErr.Tag(), fieldErr.Param()))
			continue
		}
		issues = append(issues, fmt.Sprintf("field %s: failed rule %s", name, fieldErr.Tag()))
	}
	return issues
}
