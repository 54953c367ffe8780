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

package controllers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wso2/uptime-watcher-platform/monitor-engine-service/middleware/logger"
	ws "github.com/wso2/uptime-watcher-platform/monitor-engine-service/websocket"
)

// EventsController upgrades HTTP requests into event-stream WebSocket
// connections.
type EventsController interface {
	Connect(w http.ResponseWriter, r *http.Request)
}

type eventsController struct {
	manager  *ws.Manager
	upgrader websocket.Upgrader

	// Rate limiting: connection attempts per IP per minute.
	rateLimitMu    sync.Mutex
	rateLimitMap   map[string][]time.Time
	rateLimitCount int
}

// connectionAckDTO is the first frame sent after a successful upgrade.
type connectionAckDTO struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
	Timestamp    string `json:"timestamp"`
}

// NewEventsController creates a new events controller
func NewEventsController(manager *ws.Manager, rateLimitCount int) EventsController {
	ctrl := &eventsController{
		manager: manager,
		upgrader: websocket.Upgrader{
			// The engine serves local hosts; cross-origin policy belongs to
			// whatever fronts it.
			CheckOrigin:      func(r *http.Request) bool { return true },
			HandshakeTimeout: 10 * time.Second,
		},
		rateLimitMap:   make(map[string][]time.Time),
		rateLimitCount: rateLimitCount,
	}

	go ctrl.cleanupRateLimitMap()
	return ctrl
}

// Connect handles WebSocket upgrade requests for the event stream.
func (c *eventsController) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	clientIP := getClientIP(r)
	if !c.checkRateLimit(clientIP) {
		log.Warn("Connection rate limit exceeded", "ip", clientIP)
		http.Error(w, "Connection rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade error response is already written by the upgrader.
		log.Error("WebSocket upgrade failed", "ip", clientIP, "error", err)
		return
	}

	transport := ws.NewWebSocketTransport(conn)
	connection, err := c.manager.Register(transport)
	if err != nil {
		log.Error("Connection registration failed", "ip", clientIP, "error", err)
		errorMsg, _ := json.Marshal(map[string]string{
			"type":    "error",
			"message": "connection rejected",
		})
		_ = transport.Send(errorMsg)
		_ = transport.Close(websocket.CloseTryAgainLater, "connection rejected")
		return
	}

	ack, err := json.Marshal(connectionAckDTO{
		Type:         "connection.ack",
		ConnectionID: connection.ID(),
		Timestamp:    time.Now().Format(time.RFC3339),
	})
	if err == nil {
		if err := transport.Send(ack); err != nil {
			log.Error("Failed to send connection ACK", "connectionId", connection.ID(), "error", err)
		}
	}

	log.Info("WebSocket connection established", "connectionId", connection.ID(), "ip", clientIP)
	// The manager owns the read and ping loops from here on.
}

// checkRateLimit allows at most rateLimitCount upgrades per IP per minute.
func (c *eventsController) checkRateLimit(clientIP string) bool {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	now := time.Now()
	cutoff := now.Add(-1 * time.Minute)

	var recent []time.Time
	for _, t := range c.rateLimitMap[clientIP] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if c.rateLimitCount > 0 && len(recent) >= c.rateLimitCount {
		return false
	}
	c.rateLimitMap[clientIP] = append(recent, now)
	return true
}

// cleanupRateLimitMap drops IPs with no recent attempts so the map cannot
// grow without bound.
func (c *eventsController) cleanupRateLimitMap() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.rateLimitMu.Lock()
		cutoff := time.Now().Add(-1 * time.Minute)
		for ip, attempts := range c.rateLimitMap {
			var recent []time.Time
			for _, t := range attempts {
				if t.After(cutoff) {
					recent = append(recent, t)
				}
			}
			if len(recent) == 0 {
				delete(c.rateLimitMap, ip)
			} else {
				c.rateLimitMap[ip] = recent
			}
		}
		c.rateLimitMu.Unlock()
	}
}
