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

package catalog

import (
	"fmt"
	"sync"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// TransformFunc rewrites a monitor's type-specific field payload from one
// descriptor version to the next. Implementations must not mutate the input.
type TransformFunc func(fields map[string]any) (map[string]any, error)

// migrationRule is one edge in a type's version graph.
type migrationRule struct {
	toVersion string
	transform TransformFunc
	breaking  bool
}

// MigrationResult carries the rewritten payload and whether any applied rule
// was flagged breaking, so callers can force re-validation.
type MigrationResult struct {
	Fields   map[string]any
	Breaking bool
	// Path lists the versions traversed, endpoints included.
	Path []string
}

// MigrationRegistry composes per-type payload migration rules into a
// directed version graph. Unknown types and unreachable versions fail
// closed.
type MigrationRegistry struct {
	mu sync.RWMutex
	// rules[type][fromVersion] lists the outgoing edges.
	rules map[string]map[string][]migrationRule
}

// NewMigrationRegistry creates an empty migration registry.
func NewMigrationRegistry() *MigrationRegistry {
	return &MigrationRegistry{rules: make(map[string]map[string][]migrationRule)}
}

// RegisterMigration adds one version edge for a monitor type. Registering
// the same (type, from, to) edge twice is rejected.
func (m *MigrationRegistry) RegisterMigration(monitorType, fromVersion, toVersion string, transform TransformFunc, isBreaking bool) error {
	if monitorType == "" || fromVersion == "" || toVersion == "" {
		return fmt.Errorf("migration rule requires type, fromVersion and toVersion: %w", utils.ErrInvalidInput)
	}
	if fromVersion == toVersion {
		return fmt.Errorf("migration rule %s %s cannot target its own version: %w", monitorType, fromVersion, utils.ErrInvalidInput)
	}
	if transform == nil {
		return fmt.Errorf("migration rule %s %s->%s requires a transform: %w", monitorType, fromVersion, toVersion, utils.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	edges, ok := m.rules[monitorType]
	if !ok {
		edges = make(map[string][]migrationRule)
		m.rules[monitorType] = edges
	}
	for _, rule := range edges[fromVersion] {
		if rule.toVersion == toVersion {
			return fmt.Errorf("migration rule %s %s->%s already registered: %w", monitorType, fromVersion, toVersion, utils.ErrInvalidInput)
		}
	}
	edges[fromVersion] = append(edges[fromVersion], migrationRule{
		toVersion: toVersion,
		transform: transform,
		breaking:  isBreaking,
	})
	return nil
}

// Migrate rewrites fields from fromVersion to toVersion by walking the
// shortest registered path. Equal versions are a no-op copy.
func (m *MigrationRegistry) Migrate(monitorType, fromVersion, toVersion string, fields map[string]any) (*MigrationResult, error) {
	if fromVersion == toVersion {
		return &MigrationResult{Fields: cloneFields(fields), Path: []string{fromVersion}}, nil
	}

	m.mu.RLock()
	edges, ok := m.rules[monitorType]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no migrations registered for monitor type %q: %w", monitorType, utils.ErrUnknownMonitorType)
	}

	path, rules := shortestPath(edges, fromVersion, toVersion)
	if path == nil {
		return nil, fmt.Errorf("no migration path for %s from %s to %s: %w",
			monitorType, fromVersion, toVersion, utils.ErrInvalidInput)
	}

	result := &MigrationResult{Fields: cloneFields(fields), Path: path}
	for _, rule := range rules {
		next, err := rule.transform(result.Fields)
		if err != nil {
			return nil, fmt.Errorf("migration of %s to %s failed: %w", monitorType, rule.toVersion, err)
		}
		result.Fields = next
		result.Breaking = result.Breaking || rule.breaking
	}
	return result, nil
}

// shortestPath runs a breadth-first search over the version graph and
// returns the traversed versions plus the rules to apply, or nils when the
// target is unreachable.
func shortestPath(edges map[string][]migrationRule, from, to string) ([]string, []migrationRule) {
	type node struct {
		version string
		path    []string
		rules   []migrationRule
	}

	visited := map[string]bool{from: true}
	queue := []node{{version: from, path: []string{from}}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, rule := range edges[current.version] {
			if visited[rule.toVersion] {
				continue
			}
			path := append(append([]string{}, current.path...), rule.toVersion)
			rules := append(append([]migrationRule{}, current.rules...), rule)
			if rule.toVersion == to {
				return path, rules
			}
			visited[rule.toVersion] = true
			queue = append(queue, node{version: rule.toVersion, path: path, rules: rules})
		}
	}
	return nil, nil
}

func cloneFields(fields map[string]any) map[string]any {
	clone := make(map[string]any, len(fields))
	for name, value := range fields {
		clone[name] = value
	}
	return clone
}
