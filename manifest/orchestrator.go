// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/astraion-travel/astraion/api"
	"github.com/astraion-travel/astraion/ledger"
	"github.com/astraion-travel/astraion/linking"
)

// Service is the write surface of the booking service the orchestrator
// needs. *api.Client implements it.
type Service interface {
	Reserve(ctx context.Context, tripID string, req api.ReserveRequest, override bool) (*api.ReserveResponse, error)
	PatchAssignment(ctx context.Context, assignmentID string, patch api.AssignmentPatch) (*api.Assignment, error)
	PatchReservation(ctx context.Context, reservationID string, patch api.ReservationPatch, override bool) (*api.Reservation, error)
}

// Resolver decides how a passenger draft relates to the client
// registry. *linking.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, draft linking.Draft) (linking.Decision, error)
}

// OccupantEdit is the staff input for a single seat's occupant: the
// passenger draft fields, an optional passport, and an optional status
// change. Nil Status leaves the lifecycle untouched.
type OccupantEdit struct {
	FirstName  string
	LastName   string
	Phone      string
	PassportID string
	Status     *api.AssignmentStatus
}

func (e OccupantEdit) draft() linking.Draft {
	return linking.Draft{FirstName: e.FirstName, LastName: e.LastName, Phone: e.Phone}
}

func (e OccupantEdit) empty() bool {
	return e.draft().Empty() && strings.TrimSpace(e.PassportID) == "" && e.Status == nil
}

// Orchestrator sequences the booking operations for one trip view. It
// owns no state of its own: all reads go through the ledger snapshot
// and every successful write is followed by a full refresh.
type Orchestrator struct {
	tripID   string
	service  Service
	ledger   *ledger.Ledger
	resolver Resolver
	logger   *slog.Logger
}

// New creates an Orchestrator for the given trip. A nil logger defaults
// to slog.Default().
func New(tripID string, service Service, ledger *ledger.Ledger, resolver Resolver, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		tripID:   tripID,
		service:  service,
		ledger:   ledger,
		resolver: resolver,
		logger:   logger,
	}
}

// CreateHold reserves quantity seats as one reservation group. The
// service picks the seats and is the arbiter of capacity: a conflicting
// concurrent write surfaces as a capacity rejection
// (api.IsCapacityExceeded) and is never retried here. Set override to
// resubmit past the capacity check with the manager override.
//
// A non-empty contact draft is resolved against the client registry
// first; the reservation carries a contact reference only when the
// decision was a link or a create. Abandoning the resolver prompt
// abandons the hold with no write.
func (o *Orchestrator) CreateHold(ctx context.Context, contact *linking.Draft, quantity int, notes string, override bool) (string, error) {
	if quantity < 1 {
		return "", &ValidationError{Field: "quantity", Reason: fmt.Sprintf("must be at least 1, got %d", quantity)}
	}

	var contactID *string
	if contact != nil && !contact.Empty() {
		decision, err := o.resolver.Resolve(ctx, *contact)
		if err != nil {
			return "", err
		}
		if decision.Kind != linking.DecisionInline {
			id := decision.ClientID
			contactID = &id
		}
	}

	resp, err := o.service.Reserve(ctx, o.tripID, api.ReserveRequest{
		Quantity:        quantity,
		ContactClientID: contactID,
		Notes:           notes,
	}, override)
	if err != nil {
		return "", err
	}

	o.logger.Info("hold created",
		"trip_id", o.tripID,
		"reservation_id", resp.ReservationID,
		"quantity", quantity,
		"override", override,
	)
	o.refresh(ctx)
	return resp.ReservationID, nil
}

// AssignOne reserves a single seat with no contact: the quick
// "next free seat" action.
func (o *Orchestrator) AssignOne(ctx context.Context, override bool) (string, error) {
	return o.CreateHold(ctx, nil, 1, "", override)
}

// SaveSeatOccupant applies an occupant edit to the seat with the given
// number. An occupied seat is patched in place. A free seat is first
// reserved (quantity 1, a fresh single-seat reservation) and the edit
// is applied to the seat the service assigned; with seats handed out in
// ascending order that is the requested seat unless another session
// races this one. The returned assignment is where the edit landed.
//
// Passenger identity goes through the linking resolver: a link or
// create decision attaches the client reference and leaves the name
// fields to the registry, an inline decision writes the draft fields
// onto the assignment.
func (o *Orchestrator) SaveSeatOccupant(ctx context.Context, seatNo int, edit OccupantEdit, override bool) (*api.Assignment, error) {
	if edit.empty() {
		return nil, &ValidationError{Field: "edit", Reason: "no occupant fields or status change supplied"}
	}
	seat, ok := o.ledger.SeatByNo(seatNo)
	if !ok {
		return nil, &ValidationError{Field: "seat", Reason: fmt.Sprintf("seat %d is not on this trip", seatNo)}
	}

	patch, err := o.buildPatch(ctx, edit)
	if err != nil {
		return nil, err
	}

	assignmentID := ""
	if !seat.Free() {
		assignmentID = seat.Assignment.ID
	} else {
		resp, err := o.service.Reserve(ctx, o.tripID, api.ReserveRequest{Quantity: 1}, override)
		if err != nil {
			return nil, err
		}
		if len(resp.AssignedSeats) == 0 || resp.AssignedSeats[0].Assignment == nil {
			o.refresh(ctx)
			return nil, fmt.Errorf("manifest: reserve returned no assigned seat for trip %s", o.tripID)
		}
		assignmentID = resp.AssignedSeats[0].Assignment.ID
	}

	assignment, err := o.service.PatchAssignment(ctx, assignmentID, patch)
	// The reserve may have landed even when the patch fails, so the
	// snapshot is rebuilt on both paths.
	o.refresh(ctx)
	if err != nil {
		return nil, err
	}

	o.logger.Info("occupant saved",
		"trip_id", o.tripID,
		"seat_no", assignment.SeatNo,
		"assignment_id", assignment.ID,
	)
	return assignment, nil
}

// buildPatch resolves the edit's identity fields into an assignment
// patch. A status-only edit skips the resolver entirely.
func (o *Orchestrator) buildPatch(ctx context.Context, edit OccupantEdit) (api.AssignmentPatch, error) {
	patch := api.AssignmentPatch{Status: edit.Status}

	if passport := strings.TrimSpace(edit.PassportID); passport != "" {
		patch.PassportID = &passport
	}

	draft := edit.draft()
	if draft.Empty() {
		return patch, nil
	}

	decision, err := o.resolver.Resolve(ctx, draft)
	if err != nil {
		return api.AssignmentPatch{}, err
	}
	if decision.Kind == linking.DecisionInline {
		first := strings.TrimSpace(edit.FirstName)
		last := strings.TrimSpace(edit.LastName)
		phone := strings.TrimSpace(edit.Phone)
		patch.FirstName = &first
		patch.LastName = &last
		patch.Phone = &phone
		return patch, nil
	}

	// Linked or created: the registry record owns the identity, the
	// assignment keeps only the reference and the passport.
	id := decision.ClientID
	patch.PassengerClientID = &id
	return patch, nil
}

// ReleaseSeat cancels an assignment, freeing its seat for rebooking.
// The assignment row is never deleted: cancelled history stays visible
// in the snapshot until the service reuses the seat.
func (o *Orchestrator) ReleaseSeat(ctx context.Context, assignmentID string) error {
	status := api.StatusCancelled
	_, err := o.service.PatchAssignment(ctx, assignmentID, api.AssignmentPatch{Status: &status})
	if err != nil {
		return err
	}

	o.logger.Info("seat released", "trip_id", o.tripID, "assignment_id", assignmentID)
	o.refresh(ctx)
	return nil
}

// CancelReservation cancels the whole reservation group. Its seats are
// released by the service as part of the cancellation.
func (o *Orchestrator) CancelReservation(ctx context.Context, reservationID string) error {
	status := api.ReservationCancelled
	_, err := o.service.PatchReservation(ctx, reservationID, api.ReservationPatch{Status: &status}, false)
	if err != nil {
		return err
	}

	o.logger.Info("reservation cancelled", "trip_id", o.tripID, "reservation_id", reservationID)
	o.refresh(ctx)
	return nil
}

// refresh rebuilds the ledger after a write. A refresh failure is
// logged, not returned: the write already landed, the previous snapshot
// stays as last-known-good, and the live sync channel will repair the
// staleness.
func (o *Orchestrator) refresh(ctx context.Context) {
	if err := o.ledger.Refresh(ctx, o.tripID); err != nil {
		o.logger.Warn("post-write refresh failed, keeping previous snapshot",
			"trip_id", o.tripID,
			"error", err,
		)
	}
}
