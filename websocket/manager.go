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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/config"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/events"
	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/utils"
)

// streamedEvents is the fixed set of public events mirrored onto the socket.
var streamedEvents = []string{
	events.EventMonitorStatusChanged,
	events.EventMonitorUp,
	events.EventMonitorDown,
	events.EventMonitorCheckStarted,
	events.EventMonitorCheckCompleted,
	events.EventMonitorTimeout,
	events.EventMonitorManualCheckStarted,
	events.EventSiteAdded,
	events.EventSiteUpdated,
	events.EventSiteRemoved,
	events.EventSitesStateSynchronized,
	events.EventMonitoringStarted,
	events.EventMonitoringStopped,
	events.EventDatabaseTransactionCompleted,
	events.EventDatabaseBackupCreated,
	events.EventDatabaseBackupRestored,
	events.EventCacheInvalidated,
	events.EventSystemStartup,
	events.EventSystemShutdown,
}

// Manager owns the set of subscribed host connections and mirrors the
// public event bus onto them.
type Manager struct {
	logger *slog.Logger
	cfg    config.WebSocketConfig
	bus    *events.Bus

	mu          sync.RWMutex
	connections map[string]*Connection
	closed      bool

	unsubscribes []func()
	loops        sync.WaitGroup
}

// NewManager creates a manager with no connections. Start attaches it to
// the bus.
func NewManager(logger *slog.Logger, cfg config.WebSocketConfig, bus *events.Bus) *Manager {
	return &Manager{
		logger:      logger,
		cfg:         cfg,
		bus:         bus,
		connections: make(map[string]*Connection),
	}
}

// Start subscribes the manager to every streamed event on the public bus.
func (m *Manager) Start() error {
	for _, name := range streamedEvents {
		eventName := name
		unsubscribe, err := m.bus.Subscribe(eventName, func(ctx context.Context, event string, payload map[string]any) error {
			m.Broadcast(eventName, events.CloneWithoutMeta(payload))
			return nil
		})
		if err != nil {
			return err
		}
		m.unsubscribes = append(m.unsubscribes, unsubscribe)
	}
	m.logger.Info("WebSocket event streaming attached", "events", len(streamedEvents))
	return nil
}

// Register admits one upgraded connection, spawning its read and ping
// loops. The connection cap is enforced here, not at the HTTP layer.
func (m *Manager) Register(transport Transport) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("manager is shut down: %w", utils.ErrInvalidInput)
	}
	if m.cfg.MaxConnections > 0 && len(m.connections) >= m.cfg.MaxConnections {
		return nil, fmt.Errorf("connection limit %d reached: %w", m.cfg.MaxConnections, utils.ErrTransient)
	}

	conn := NewConnection(uuid.NewString(), transport)
	m.connections[conn.ID()] = conn

	m.loops.Add(2)
	go m.readLoop(conn)
	go m.pingLoop(conn)

	m.logger.Info("WebSocket connection registered", "connectionId", conn.ID(), "active", len(m.connections))
	return conn, nil
}

// Unregister closes and forgets one connection.
func (m *Manager) Unregister(connectionID string) {
	m.mu.Lock()
	conn, exists := m.connections[connectionID]
	delete(m.connections, connectionID)
	m.mu.Unlock()

	if exists {
		_ = conn.Close(websocket.CloseNormalClosure, "unregistered")
		m.logger.Debug("WebSocket connection unregistered", "connectionId", connectionID)
	}
}

// Broadcast fans one event out to every connection whose filter admits it.
// Connections that fail to accept the write are evicted.
func (m *Manager) Broadcast(event string, payload map[string]any) {
	m.mu.RLock()
	targets := make([]*Connection, 0, len(m.connections))
	for _, conn := range m.connections {
		targets = append(targets, conn)
	}
	m.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.SendEvent(event, payload); err != nil {
			m.logger.Warn("Dropping WebSocket connection after failed delivery",
				"connectionId", conn.ID(), "event", event, "error", err)
			m.Unregister(conn.ID())
		}
	}
}

func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// Shutdown detaches from the bus and closes every connection, waiting for
// the per-connection loops to exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	conns := make([]*Connection, 0, len(m.connections))
	for _, conn := range m.connections {
		conns = append(conns, conn)
	}
	m.connections = make(map[string]*Connection)
	m.mu.Unlock()

	for _, unsubscribe := range m.unsubscribes {
		unsubscribe()
	}
	m.unsubscribes = nil

	for _, conn := range conns {
		_ = conn.Close(websocket.CloseGoingAway, "server shutting down")
	}
	m.loops.Wait()
	m.logger.Info("WebSocket manager shut down")
}

// readLoop consumes client messages until the connection dies. Pongs extend
// the read deadline; subscribe/unsubscribe adjust the filter.
func (m *Manager) readLoop(conn *Connection) {
	defer m.loops.Done()
	defer m.Unregister(conn.ID())

	timeout := m.connectionTimeout()
	_ = conn.transport.SetReadDeadline(time.Now().Add(timeout))
	conn.transport.EnablePongHandler(func(string) error {
		conn.UpdateLastPong()
		return conn.transport.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		_, data, err := conn.transport.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.logger.Debug("WebSocket read failed", "connectionId", conn.ID(), "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			m.logger.Debug("Ignoring malformed client message", "connectionId", conn.ID())
			continue
		}
		switch msg.Type {
		case "subscribe":
			conn.Subscribe(msg.Events)
		case "unsubscribe":
			conn.Unsubscribe(msg.Events)
		default:
			m.logger.Debug("Ignoring unknown client message type",
				"connectionId", conn.ID(), "type", msg.Type)
		}
	}
}

// pingLoop probes liveness at half the connection timeout.
func (m *Manager) pingLoop(conn *Connection) {
	defer m.loops.Done()

	ticker := time.NewTicker(m.connectionTimeout() / 2)
	defer ticker.Stop()

	for range ticker.C {
		if !conn.IsConnected() {
			return
		}
		if err := conn.Ping(); err != nil {
			m.Unregister(conn.ID())
			return
		}
	}
}

func (m *Manager) connectionTimeout() time.Duration {
	if m.cfg.ConnectionTimeout > 0 {
		return time.Duration(m.cfg.ConnectionTimeout) * time.Second
	}
	return 30 * time.Second
}
