// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/astraion-travel/astraion/livesync"
)

// hub fans notifications out to the websocket subscribers of each
// trip. A subscriber that cannot keep up is dropped rather than
// blocking the broadcast; the real service behaves the same way and
// the client's reconnect-plus-refresh covers the gap.
type hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[string]map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan livesync.Notification
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			// Development tool: any origin may subscribe.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		subscribers: make(map[string]map[*subscriber]struct{}),
	}
}

// subscribe upgrades the request and services the connection until the
// peer goes away.
func (h *hub) subscribe(w http.ResponseWriter, r *http.Request, tripID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan livesync.Notification, 32)}
	h.mu.Lock()
	if h.subscribers[tripID] == nil {
		h.subscribers[tripID] = make(map[*subscriber]struct{})
	}
	h.subscribers[tripID][sub] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("subscriber connected", "trip_id", tripID, "remote", conn.RemoteAddr())

	go h.writeLoop(tripID, sub)

	// Inbound messages are ignored; reading is only for detecting the
	// peer closing the connection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(tripID, sub)
}

func (h *hub) writeLoop(tripID string, sub *subscriber) {
	for note := range sub.send {
		if err := sub.conn.WriteJSON(note); err != nil {
			h.logger.Debug("subscriber write failed", "trip_id", tripID, "error", err)
			h.drop(tripID, sub)
			return
		}
	}
}

// drop unregisters the subscriber and closes its connection. Safe to
// call from both the read and write sides.
func (h *hub) drop(tripID string, sub *subscriber) {
	h.mu.Lock()
	subs := h.subscribers[tripID]
	if _, ok := subs[sub]; !ok {
		h.mu.Unlock()
		return
	}
	delete(subs, sub)
	close(sub.send)
	h.mu.Unlock()

	sub.conn.Close()
	h.logger.Info("subscriber disconnected", "trip_id", tripID)
}

// broadcast queues the notification for every subscriber of the trip.
func (h *hub) broadcast(tripID string, note livesync.Notification) {
	h.mu.Lock()
	var slow []*subscriber
	for sub := range h.subscribers[tripID] {
		select {
		case sub.send <- note:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range slow {
		h.logger.Warn("dropping slow subscriber", "trip_id", tripID)
		h.drop(tripID, sub)
	}
}
