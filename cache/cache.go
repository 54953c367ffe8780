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

// Package cache provides the per-domain in-memory caches: TTL expiry,
// size-bounded LRU eviction, hit/miss/eviction stats and invalidation
// broadcasts. Callers update a cache only after the surrounding database
// transaction has committed.
package cache

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/events"
)

// Default TTLs per cached domain.
const (
	TTLSites      = 10 * time.Minute
	TTLMonitors   = 5 * time.Minute
	TTLSettings   = 30 * time.Minute
	TTLValidation = 5 * time.Minute

	DefaultMaxSize = 1000
)

// EventEmitter is the subset of the event bus the cache needs.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data map[string]any)
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

// Config describes a cache instance.
type Config struct {
	// Name identifies the cache in logs and invalidation events.
	Name string
	// TTL bounds entry freshness; expired entries read as misses.
	TTL time.Duration
	// MaxSize bounds entry count; the least recently used entry is evicted
	// when exceeded (default DefaultMaxSize).
	MaxSize int
	// Emitter, when set, receives cache:invalidated broadcasts.
	Emitter EventEmitter
}

type entry[V any] struct {
	key      string
	value    V
	cachedAt time.Time
}

// Cache is a thread-safe TTL + LRU key-value store.
type Cache[V any] struct {
	mu      sync.Mutex
	name    string
	ttl     time.Duration
	maxSize int
	emitter EventEmitter

	entries map[string]*list.Element
	order   *list.List // front = most recently used
	stats   Stats
}

// New creates a cache with the supplied configuration.
func New[V any](cfg Config) *Cache[V] {
	if cfg.MaxSize < 1 {
		cfg.MaxSize = DefaultMaxSize
	}
	return &Cache[V]{
		name:    cfg.Name,
		ttl:     cfg.TTL,
		maxSize: cfg.MaxSize,
		emitter: cfg.Emitter,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get returns the cached value for key when present and fresh. Expired
// entries are dropped and read as misses.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	element, exists := c.entries[key]
	if !exists {
		c.stats.Misses++
		return zero, false
	}

	e := element.Value.(*entry[V])
	if c.ttl > 0 && time.Since(e.cachedAt) > c.ttl {
		c.removeElementLocked(element)
		c.stats.Misses++
		return zero, false
	}

	c.order.MoveToFront(element)
	c.stats.Hits++
	return e.value, true
}

// Set adds or refreshes an entry, evicting the least recently used entries
// while the cache exceeds its size bound.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, exists := c.entries[key]; exists {
		e := element.Value.(*entry[V])
		e.value = value
		e.cachedAt = time.Now()
		c.order.MoveToFront(element)
		return
	}

	c.entries[key] = c.order.PushFront(&entry[V]{key: key, value: value, cachedAt: time.Now()})
	for len(c.entries) > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeElementLocked(oldest)
		c.stats.Evictions++
	}
}

// Delete removes a single entry and broadcasts the invalidation.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	element, exists := c.entries[key]
	if exists {
		c.removeElementLocked(element)
	}
	c.mu.Unlock()

	if exists {
		c.emitInvalidated(map[string]any{"cache": c.name, "key": key, "reason": "delete"})
	}
}

// Clear removes every entry and broadcasts the invalidation.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.mu.Unlock()

	slog.Debug("cache cleared", "cache", c.name)
	c.emitInvalidated(map[string]any{"cache": c.name, "all": true, "reason": "clear"})
}

// ReplaceAll swaps the entire contents atomically. The replacement map and
// recency list are built before the lock is taken so readers never observe
// partial state.
func (c *Cache[V]) ReplaceAll(values map[string]V) {
	entries := make(map[string]*list.Element, len(values))
	order := list.New()
	now := time.Now()
	for key, value := range values {
		entries[key] = order.PushFront(&entry[V]{key: key, value: value, cachedAt: now})
	}

	c.mu.Lock()
	c.entries = entries
	c.order = order
	c.mu.Unlock()

	slog.Debug("cache replaced", "cache", c.name, "count", len(values))
	c.emitInvalidated(map[string]any{"cache": c.name, "all": true, "reason": "replace"})
}

// Size returns the current entry count.
func (c *Cache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache[V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.Size = len(c.entries)
	return stats
}

func (c *Cache[V]) removeElementLocked(element *list.Element) {
	e := element.Value.(*entry[V])
	delete(c.entries, e.key)
	c.order.Remove(element)
}

func (c *Cache[V]) emitInvalidated(data map[string]any) {
	if c.emitter == nil {
		return
	}
	c.emitter.Emit(context.Background(), events.EventCacheInvalidated, data)
}
