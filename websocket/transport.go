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

// Package websocket streams public engine events to connected hosts. A
// connection may narrow the stream with subscribe/unsubscribe messages;
// until it does, it receives everything in the forwarding set.
package websocket

import (
	"encoding/json"
	"time"
)

// Transport abstracts the wire protocol of one client connection so the
// manager and connection logic stay testable without real sockets.
type Transport interface {
	Send(message []byte) error
	Close(code int, reason string) error
	SetReadDeadline(deadline time.Time) error
	SetWriteDeadline(deadline time.Time) error
	EnablePongHandler(handler func(string) error)
	SendPing() error
	ReadMessage() (messageType int, payload []byte, err error)
}

// EventMessage is the server-to-client envelope carrying one engine event.
type EventMessage struct {
	Type      string         `json:"type"`
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload"`
	Timestamp int64          `json:"timestamp"`
}

// ClientMessage is the client-to-server envelope. Supported types are
// "subscribe" and "unsubscribe"; anything else is ignored.
type ClientMessage struct {
	Type   string   `json:"type"`
	Events []string `json:"events,omitempty"`
}

func encodeEvent(event string, payload map[string]any) ([]byte, error) {
	return json.Marshal(EventMessage{
		Type:      "event",
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	})
}
