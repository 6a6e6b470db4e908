// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package api

// AssignmentStatus is the lifecycle status of a seat assignment.
//
// Transitions are monotone except by explicit staff action: a free seat
// gains an assignment as hold or confirmed, hold may become confirmed
// or cancelled, confirmed may become cancelled. Cancelled is terminal.
type AssignmentStatus string

const (
	StatusHold      AssignmentStatus = "hold"
	StatusConfirmed AssignmentStatus = "confirmed"
	StatusCancelled AssignmentStatus = "cancelled"
)

// Active reports whether the status occupies capacity.
func (s AssignmentStatus) Active() bool {
	return s == StatusHold || s == StatusConfirmed
}

// ReservationStatus is the lifecycle status of a reservation group.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Trip is one scheduled departure. Immutable from this side except
// through the service; capacity in particular only changes server-side.
type Trip struct {
	ID            string  `json:"id"`
	TripDate      string  `json:"trip_date"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	DepartureTime string  `json:"departure_time,omitempty"`
	Price         float64 `json:"price,omitempty"`
	Status        string  `json:"status,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	Capacity      int     `json:"capacity"`
}

// Seat is one numbered capacity slot on a trip. A nil Assignment means
// the seat is free.
type Seat struct {
	ID         string      `json:"id"`
	TripID     string      `json:"trip_id"`
	SeatNo     int         `json:"seat_no"`
	Assignment *Assignment `json:"assignment,omitempty"`
}

// Free reports whether the seat carries no active assignment. A seat
// whose assignment was cancelled is free for rebooking.
func (s Seat) Free() bool {
	return s.Assignment == nil || !s.Assignment.Status.Active()
}

// Assignment is the passenger occupying a seat. Passenger identity is
// either inline (the name/phone/passport fields) or a weak reference
// to a client-registry record via PassengerClientID — the reference is
// a relation only, the referenced record is owned by the registry.
type Assignment struct {
	ID                string           `json:"id"`
	ReservationID     string           `json:"reservation_id"`
	SeatID            string           `json:"seat_id"`
	SeatNo            int              `json:"seat_no"`
	FirstName         string           `json:"first_name,omitempty"`
	LastName          string           `json:"last_name,omitempty"`
	Phone             string           `json:"phone,omitempty"`
	PassportID        string           `json:"passport_id,omitempty"`
	PassengerClientID *string          `json:"passenger_client_id,omitempty"`
	Status            AssignmentStatus `json:"status"`
}

// Reservation groups seat assignments created together (a group hold).
// Its seats cancel individually without cancelling the reservation, and
// the reservation cancelling does not require seat cleanup first — the
// service is authoritative either way.
type Reservation struct {
	ID              string            `json:"id"`
	TripID          string            `json:"trip_id"`
	Quantity        int               `json:"quantity"`
	Status          ReservationStatus `json:"status"`
	ContactClientID *string           `json:"contact_client_id,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

// ClientRecord is a client-registry entry as returned by the search
// and creation endpoints.
type ClientRecord struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone,omitempty"`
	PassportID string `json:"passport_id,omitempty"`
	Email      string `json:"email,omitempty"`
}

// ClientDraft is the payload for creating a registry record from
// free-text passenger fields.
type ClientDraft struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

// ReserveRequest creates a reservation of Quantity seats on a trip.
// The service picks the seats.
type ReserveRequest struct {
	Quantity        int     `json:"quantity"`
	ContactClientID *string `json:"contact_client_id,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

// ReserveResponse reports the reservation and the seats the service
// assigned to it.
type ReserveResponse struct {
	ReservationID string `json:"reservation_id"`
	AssignedSeats []Seat `json:"assigned_seats"`
}

// AssignmentPatch is a partial update to an assignment. Nil fields are
// left untouched by the service.
type AssignmentPatch struct {
	Status            *AssignmentStatus `json:"status,omitempty"`
	FirstName         *string           `json:"first_name,omitempty"`
	LastName          *string           `json:"last_name,omitempty"`
	Phone             *string           `json:"phone,omitempty"`
	PassportID        *string           `json:"passport_id,omitempty"`
	PassengerClientID *string           `json:"passenger_client_id,omitempty"`
}

// ReservationPatch is a partial update to a reservation.
type ReservationPatch struct {
	Quantity        *int               `json:"quantity,omitempty"`
	Status          *ReservationStatus `json:"status,omitempty"`
	ContactClientID *string            `json:"contact_client_id,omitempty"`
}
