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

package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/events"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []string
	data   []map[string]any
}

func (r *recordingEmitter) Emit(_ context.Context, event string, data map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.data = append(r.data, data)
}

func TestCacheSetAndGet(t *testing.T) {
	c := New[string](Config{Name: "test", TTL: time.Minute})

	c.Set("a", "alpha")

	value, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alpha", value)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := New[int](Config{Name: "test", TTL: 10 * time.Millisecond})

	c.Set("a", 1)
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
	assert.Equal(t, int64(1), c.GetStats().Misses)
}

func TestCacheLRUEviction(t *testing.T) {
	c := New[int](Config{Name: "test", TTL: time.Minute, MaxSize: 2})

	c.Set("a", 1)
	c.Set("b", 2)

	// Touch "a" so "b" becomes the least recently used entry.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.GetStats().Evictions)
}

func TestCacheReplaceAll(t *testing.T) {
	emitter := &recordingEmitter{}
	c := New[int](Config{Name: "monitors", TTL: time.Minute, Emitter: emitter})

	c.Set("old", 1)
	c.ReplaceAll(map[string]int{"x": 10, "y": 20})

	_, ok := c.Get("old")
	assert.False(t, ok)
	value, ok := c.Get("x")
	require.True(t, ok)
	assert.Equal(t, 10, value)
	assert.Equal(t, 2, c.Size())

	require.Len(t, emitter.events, 1)
	assert.Equal(t, events.EventCacheInvalidated, emitter.events[0])
	assert.Equal(t, "monitors", emitter.data[0]["cache"])
	assert.Equal(t, "replace", emitter.data[0]["reason"])
}

func TestCacheDeleteBroadcastsInvalidation(t *testing.T) {
	emitter := &recordingEmitter{}
	c := New[int](Config{Name: "sites", TTL: time.Minute, Emitter: emitter})

	c.Set("a", 1)
	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
	require.Len(t, emitter.events, 1)
	assert.Equal(t, "a", emitter.data[0]["key"])

	// Deleting an absent key must not broadcast.
	c.Delete("missing")
	assert.Len(t, emitter.events, 1)
}

func TestCacheClear(t *testing.T) {
	c := New[int](Config{Name: "test", TTL: time.Minute})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCacheSetRefreshesExistingEntry(t *testing.T) {
	c := New[int](Config{Name: "test", TTL: time.Minute, MaxSize: 2})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 100)
	c.Set("c", 3)

	value, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 100, value)
	_, ok = c.Get("b")
	assert.False(t, ok, "oldest untouched entry should be evicted")
}
