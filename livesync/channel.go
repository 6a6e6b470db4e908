// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package livesync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/astraion-travel/astraion/lib/clock"
)

// State is the channel's connection state.
type State string

const (
	// StateConnecting means a dial is in progress.
	StateConnecting State = "connecting"
	// StateOpen means the subscription is live.
	StateOpen State = "open"
	// StateClosed means the connection dropped (or Close was called)
	// and, unless torn down, a reconnect is pending.
	StateClosed State = "closed"
)

// Notification types the service pushes on a trip channel.
const (
	TypeSeatAssigned       = "seat.assigned"
	TypeSeatReleased       = "seat.released"
	TypeReservationUpdated = "reservation.updated"
	TypeClientUpdated      = "client.updated"
	TypeClientTagged       = "client.tagged"
	TypeClientNoteAdded    = "client.note.added"
)

// Notification is one push message. Fields beyond Type are hints about
// what changed; the ledger hook refreshes from the service rather than
// trusting them.
type Notification struct {
	Type          string `json:"type"`
	SeatNo        int    `json:"seat_no,omitempty"`
	ReservationID string `json:"reservation_id,omitempty"`
	ClientID      string `json:"client_id,omitempty"`
}

// Conn is the websocket surface the channel reads from.
// *websocket.Conn implements it.
type Conn interface {
	ReadMessage() (messageType int, payload []byte, err error)
	Close() error
}

// Dialer opens the websocket connection. The default wraps
// websocket.DefaultDialer; tests inject their own.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

// Config configures a Channel. URL and RefreshFunc are required.
type Config struct {
	// URL is the trip's websocket endpoint.
	URL string

	// RefreshFunc runs for every booking notification (seat.assigned,
	// seat.released, reservation.updated). It must be idempotent and
	// safe to call concurrently with the view's own writes.
	RefreshFunc func(ctx context.Context, note Notification)

	// ClientFunc, if set, runs for client-registry notifications
	// (client.updated, client.tagged, client.note.added).
	ClientFunc func(ctx context.Context, note Notification)

	// StateFunc, if set, observes connection state transitions. The
	// original console renders it as a connected indicator.
	StateFunc func(state State)

	// Dialer defaults to the gorilla websocket dialer.
	Dialer Dialer

	// Clock drives the reconnect backoff. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Reconnect backoff bounds.
const (
	backoffBase     = 500 * time.Millisecond
	backoffCeiling  = 30 * time.Second
	backoffMaxShift = 6
)

// Backoff returns the reconnect delay after the given number of
// consecutive failures: 500ms doubling per attempt, capped at 30s.
func Backoff(attempt int) time.Duration {
	if attempt > backoffMaxShift {
		attempt = backoffMaxShift
	}
	d := backoffBase << attempt
	if d > backoffCeiling {
		d = backoffCeiling
	}
	return d
}

// Channel is a self-healing push subscription for one trip.
type Channel struct {
	cfg    Config
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	conn  Conn
	state State
}

// Open starts the channel's run loop. The returned Channel reconnects
// on every failure until Close is called.
func Open(cfg Config) (*Channel, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("livesync: no channel URL configured")
	}
	if cfg.RefreshFunc == nil {
		return nil, fmt.Errorf("livesync: RefreshFunc is required")
	}
	if cfg.Dialer == nil {
		cfg.Dialer = gorillaDialer{dialer: websocket.DefaultDialer}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		cfg:    cfg,
		cancel: cancel,
		done:   make(chan struct{}),
		// The lifecycle starts in CONNECTING, not CLOSED: a caller
		// polling State right after Open sees the dial in progress.
		state: StateConnecting,
	}
	if cfg.StateFunc != nil {
		cfg.StateFunc(StateConnecting)
	}
	go c.run(ctx)
	return c, nil
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close tears the channel down: it cancels any pending reconnect,
// closes the live connection, and waits for the run loop to exit.
func (c *Channel) Close() {
	c.cancel()
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()
	<-c.done
}

// run drives the connect/read/backoff cycle until the context cancels.
// The attempt counter resets on every successful dial, so a connection
// that lived for hours gets a fast reconnect when it finally drops.
func (c *Channel) run(ctx context.Context) {
	defer close(c.done)
	defer c.setState(StateClosed)

	attempt := 0
	for {
		c.setState(StateConnecting)
		conn, err := c.cfg.Dialer.DialContext(ctx, c.cfg.URL)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.cfg.Logger.Warn("live sync dial failed",
				"url", c.cfg.URL,
				"attempt", attempt,
				"error", err,
			)
			c.setState(StateClosed)
			if !c.waitBackoff(ctx, attempt) {
				return
			}
			attempt++
			continue
		}

		c.setConn(conn)
		c.setState(StateOpen)
		attempt = 0
		c.cfg.Logger.Info("live sync connected", "url", c.cfg.URL)

		c.readLoop(ctx, conn)
		conn.Close()
		c.setConn(nil)
		if ctx.Err() != nil {
			return
		}

		c.setState(StateClosed)
		if !c.waitBackoff(ctx, attempt) {
			return
		}
		attempt++
	}
}

// waitBackoff sleeps the reconnect delay on the injected clock. Returns
// false when the context cancelled during the wait.
func (c *Channel) waitBackoff(ctx context.Context, attempt int) bool {
	delay := Backoff(attempt)
	c.cfg.Logger.Debug("live sync reconnect scheduled", "delay", delay, "attempt", attempt)
	select {
	case <-ctx.Done():
		return false
	case <-c.cfg.Clock.After(delay):
		return true
	}
}

// readLoop consumes messages until the connection fails. Read errors
// are the normal end of a connection's life, not a caller-visible
// condition.
func (c *Channel) readLoop(ctx context.Context, conn Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.cfg.Logger.Warn("live sync connection lost", "error", err)
			}
			return
		}
		c.dispatch(ctx, payload)
	}
}

// dispatch routes one raw message to the matching hook. A payload that
// does not parse is dropped with a log line; one bad message must not
// cost the subscription.
func (c *Channel) dispatch(ctx context.Context, payload []byte) {
	var note Notification
	if err := json.Unmarshal(payload, &note); err != nil {
		c.cfg.Logger.Warn("malformed live sync payload dropped", "error", err)
		return
	}

	switch note.Type {
	case TypeSeatAssigned, TypeSeatReleased, TypeReservationUpdated:
		c.cfg.RefreshFunc(ctx, note)
	case TypeClientUpdated, TypeClientTagged, TypeClientNoteAdded:
		if c.cfg.ClientFunc != nil {
			c.cfg.ClientFunc(ctx, note)
		}
	default:
		c.cfg.Logger.Debug("ignoring live sync notification", "type", note.Type)
	}
}

func (c *Channel) setConn(conn Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// setState records the state and notifies the observer. Repeats of the
// current state are suppressed so the observer sees transitions only.
func (c *Channel) setState(state State) {
	c.mu.Lock()
	changed := c.state != state
	c.state = state
	c.mu.Unlock()
	if changed && c.cfg.StateFunc != nil {
		c.cfg.StateFunc(state)
	}
}

// gorillaDialer adapts websocket.Dialer to the Dialer interface.
type gorillaDialer struct {
	dialer *websocket.Dialer
}

func (d gorillaDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}
