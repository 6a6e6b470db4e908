// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/astraion-travel/astraion/api"
)

// Source is the read surface of the booking service the ledger refreshes
// from. *api.Client implements it.
type Source interface {
	Trip(ctx context.Context, tripID string) (*api.Trip, error)
	Seats(ctx context.Context, tripID string) ([]api.Seat, error)
	Reservations(ctx context.Context, tripID string) ([]api.Reservation, error)
}

// Counts are the derived capacity counters for a trip. Every seat falls
// in exactly one bucket, so Booked + Available + Cancelled == Capacity
// after any successful refresh.
type Counts struct {
	// Capacity is the trip's total seat count.
	Capacity int
	// Booked counts seats with an active (hold or confirmed) assignment.
	Booked int
	// Cancelled counts seats whose latest assignment is cancelled. These
	// seats are still free for rebooking and appear in FreeSeats.
	Cancelled int
	// Available counts seats with no assignment at all.
	Available int
}

// Ledger is the read-model for a single trip view. It is safe for
// concurrent use: the live sync channel refreshes it from its own
// goroutine while the view's write path refreshes it after each write.
type Ledger struct {
	source Source
	logger *slog.Logger

	mu           sync.Mutex
	trip         *api.Trip
	seats        []api.Seat
	reservations []api.Reservation
	counts       Counts
}

// New creates a Ledger over the given source. A nil logger defaults to
// slog.Default().
func New(source Source, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{source: source, logger: logger}
}

// Refresh replaces the snapshot with the service's current state for
// the trip. On any fetch failure the previous snapshot is left
// untouched and the error is returned. Seats are held in ascending
// seat-number order regardless of the service's response order.
//
// The fetches run outside the lock, so two concurrent refreshes (the
// live sync goroutine racing the write path) may commit in either
// order and briefly pin the older of two nearly-simultaneous reads.
// That is accepted: no refresh ever mixes two reads, and the next
// notification or write converges the snapshot to the service's truth.
func (l *Ledger) Refresh(ctx context.Context, tripID string) error {
	trip, err := l.source.Trip(ctx, tripID)
	if err != nil {
		return fmt.Errorf("ledger: refresh trip: %w", err)
	}
	seats, err := l.source.Seats(ctx, tripID)
	if err != nil {
		return fmt.Errorf("ledger: refresh seats: %w", err)
	}
	reservations, err := l.source.Reservations(ctx, tripID)
	if err != nil {
		return fmt.Errorf("ledger: refresh reservations: %w", err)
	}

	sort.Slice(seats, func(i, j int) bool { return seats[i].SeatNo < seats[j].SeatNo })
	counts := deriveCounts(trip, seats, l.logger)

	l.mu.Lock()
	l.trip = trip
	l.seats = seats
	l.reservations = reservations
	l.counts = counts
	l.mu.Unlock()

	l.logger.Debug("ledger refreshed",
		"trip_id", tripID,
		"seats", len(seats),
		"booked", counts.Booked,
		"available", counts.Available,
	)
	return nil
}

// deriveCounts recomputes the counters from the full seat set. Counters
// are never mutated incrementally — a missed push notification must not
// be able to make them drift from the snapshot they describe.
func deriveCounts(trip *api.Trip, seats []api.Seat, logger *slog.Logger) Counts {
	counts := Counts{Capacity: trip.Capacity}
	for _, seat := range seats {
		switch {
		case seat.Assignment == nil:
			counts.Available++
		case seat.Assignment.Status.Active():
			counts.Booked++
		case seat.Assignment.Status == api.StatusCancelled:
			counts.Cancelled++
		default:
			// Schema invariant: the service never produces a status
			// outside the enum. Count nowhere and make it visible.
			logger.Warn("assignment with unknown status",
				"assignment_id", seat.Assignment.ID,
				"status", seat.Assignment.Status,
			)
		}
	}
	return counts
}

// Trip returns the trip from the current snapshot, or nil before the
// first successful refresh.
func (l *Ledger) Trip() *api.Trip {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.trip == nil {
		return nil
	}
	trip := *l.trip
	return &trip
}

// Counts returns the derived counters from the current snapshot.
func (l *Ledger) Counts() Counts {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts
}

// Seats returns a copy of the seat snapshot, ascending by seat number.
func (l *Ledger) Seats() []api.Seat {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]api.Seat(nil), l.seats...)
}

// Reservations returns a copy of the reservation snapshot.
func (l *Ledger) Reservations() []api.Reservation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]api.Reservation(nil), l.reservations...)
}

// FreeSeats returns the seats with no active assignment, ascending by
// seat number. This ordering is a contract: bulk import pairs pasted
// rows against it positionally.
func (l *Ledger) FreeSeats() []api.Seat {
	l.mu.Lock()
	defer l.mu.Unlock()
	var free []api.Seat
	for _, seat := range l.seats {
		if seat.Free() {
			free = append(free, seat)
		}
	}
	return free
}

// Filter returns the seats matching the predicate, in snapshot order.
func (l *Ledger) Filter(keep func(api.Seat) bool) []api.Seat {
	l.mu.Lock()
	defer l.mu.Unlock()
	var matched []api.Seat
	for _, seat := range l.seats {
		if keep(seat) {
			matched = append(matched, seat)
		}
	}
	return matched
}

// SeatByNo returns the seat with the given number from the snapshot.
func (l *Ledger) SeatByNo(seatNo int) (api.Seat, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, seat := range l.seats {
		if seat.SeatNo == seatNo {
			return seat, true
		}
	}
	return api.Seat{}, false
}
