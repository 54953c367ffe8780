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

package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// Connection is one subscribed host. Writes are serialized through the
// mutex; the filter decides which events the client receives.
type Connection struct {
	id        string
	transport Transport
	stats     *Stats

	mu        sync.Mutex
	connected bool
	lastPong  time.Time
	// Empty filter means receive everything.
	filter map[string]struct{}
}

// NewConnection wraps an upgraded transport.
func NewConnection(id string, transport Transport) *Connection {
	return &Connection{
		id:        id,
		transport: transport,
		stats:     NewStats(),
		connected: true,
		lastPong:  time.Now(),
		filter:    make(map[string]struct{}),
	}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) Stats() *Stats { return c.stats }

// SendEvent delivers one event envelope when the connection's filter admits
// it. Delivery failures are recorded and returned so the manager can evict.
func (c *Connection) SendEvent(event string, payload map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return websocket.ErrCloseSent
	}
	if !c.wantsLocked(event) {
		return nil
	}

	data, err := encodeEvent(event, payload)
	if err != nil {
		return err
	}
	if err := c.transport.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		c.stats.IncrementFailed(err.Error())
		return err
	}
	if err := c.transport.Send(data); err != nil {
		c.stats.IncrementFailed(err.Error())
		return err
	}
	c.stats.IncrementTotalSent()
	return nil
}

// Subscribe narrows the stream to the named events. Subscribing to nothing
// leaves the filter untouched.
func (c *Connection) Subscribe(eventNames []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range eventNames {
		c.filter[name] = struct{}{}
	}
}

// Unsubscribe removes events from the filter. Draining the filter entirely
// returns the connection to receive-everything.
func (c *Connection) Unsubscribe(eventNames []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range eventNames {
		delete(c.filter, name)
	}
}

func (c *Connection) wantsLocked(event string) bool {
	if len(c.filter) == 0 {
		return true
	}
	_, ok := c.filter[event]
	return ok
}

// Close sends a close frame and tears down the transport. Safe to call more
// than once.
func (c *Connection) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false
	return c.transport.Close(code, reason)
}

func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Ping sends a liveness probe under the write lock.
func (c *Connection) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return websocket.ErrCloseSent
	}
	if err := c.transport.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.transport.SendPing()
}

// UpdateLastPong records pong receipt; the read loop uses it to extend the
// read deadline.
func (c *Connection) UpdateLastPong() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPong = time.Now()
}

func (c *Connection) GetLastPong() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPong
}
