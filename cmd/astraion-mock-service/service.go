// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/astraion-travel/astraion/api"
	"github.com/astraion-travel/astraion/livesync"
)

// service holds the in-memory booking state behind one mutex. Handlers
// are small: validate, mutate under the lock, broadcast, respond.
type service struct {
	logger *slog.Logger
	hub    *hub

	mu           sync.Mutex
	trip         api.Trip
	seats        []*api.Seat
	reservations []*api.Reservation
	clients      []api.ClientRecord
}

func newService(capacity int, logger *slog.Logger) *service {
	s := &service{
		logger: logger,
		hub:    newHub(logger),
		trip: api.Trip{
			ID:          newID("trip"),
			TripDate:    "2026-09-01",
			Origin:      "Athens",
			Destination: "Patras",
			Price:       25,
			Status:      "scheduled",
			Capacity:    capacity,
		},
	}
	for no := 1; no <= capacity; no++ {
		s.seats = append(s.seats, &api.Seat{
			ID:     newID("seat"),
			TripID: s.trip.ID,
			SeatNo: no,
		})
	}
	return s
}

func (s *service) seededTrip() api.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trip
}

func newID(prefix string) string {
	raw := make([]byte, 6)
	rand.Read(raw)
	return prefix + "-" + hex.EncodeToString(raw)
}

func (s *service) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/trips/{id}/{$}", s.handleTrip)
	mux.HandleFunc("GET /api/trips/{id}/seats/{$}", s.handleSeats)
	mux.HandleFunc("POST /api/trips/{id}/reserve/{$}", s.handleReserve)
	mux.HandleFunc("GET /api/reservations/{$}", s.handleReservations)
	mux.HandleFunc("PATCH /api/reservations/{id}/{$}", s.handlePatchReservation)
	mux.HandleFunc("PATCH /api/assignments/{id}/{$}", s.handlePatchAssignment)
	mux.HandleFunc("GET /api/clients/{$}", s.handleSearchClients)
	mux.HandleFunc("POST /api/clients/{$}", s.handleCreateClient)
	mux.HandleFunc("GET /ws/trips/{id}/{$}", s.handleSubscribe)
	return mux
}

func hasOverride(r *http.Request) bool {
	return r.Header.Get(api.OverrideHeader) == api.OverrideValue
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{"code": code, "detail": detail})
}

func (s *service) handleTrip(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.PathValue("id") != s.trip.ID {
		writeError(w, http.StatusNotFound, api.ErrCodeNotFound, "no such trip")
		return
	}
	writeJSON(w, http.StatusOK, s.trip)
}

func (s *service) handleSeats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.PathValue("id") != s.trip.ID {
		writeError(w, http.StatusNotFound, api.ErrCodeNotFound, "no such trip")
		return
	}
	seats := make([]api.Seat, len(s.seats))
	for i, seat := range s.seats {
		seats[i] = *seat
		if seat.Assignment != nil {
			assignment := *seat.Assignment
			seats[i].Assignment = &assignment
		}
	}
	writeJSON(w, http.StatusOK, seats)
}

func (s *service) handleReservations(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tripID := r.URL.Query().Get("trip")
	reservations := []api.Reservation{}
	for _, reservation := range s.reservations {
		if tripID == "" || reservation.TripID == tripID {
			reservations = append(reservations, *reservation)
		}
	}
	writeJSON(w, http.StatusOK, reservations)
}

// bookedLocked counts seats with an active assignment.
func (s *service) bookedLocked() int {
	n := 0
	for _, seat := range s.seats {
		if !seat.Free() {
			n++
		}
	}
	return n
}

func (s *service) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req api.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrCodeValidation, "malformed request body")
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, api.ErrCodeValidation, "quantity must be at least 1")
		return
	}

	s.mu.Lock()
	if r.PathValue("id") != s.trip.ID {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, api.ErrCodeNotFound, "no such trip")
		return
	}
	if !hasOverride(r) && s.bookedLocked()+req.Quantity > s.trip.Capacity {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, api.ErrCodeCapacityExceeded,
			fmt.Sprintf("capacity %d would be exceeded", s.trip.Capacity))
		return
	}

	reservation := &api.Reservation{
		ID:              newID("res"),
		TripID:          s.trip.ID,
		Quantity:        req.Quantity,
		Status:          api.ReservationActive,
		ContactClientID: req.ContactClientID,
		Notes:           req.Notes,
	}
	s.reservations = append(s.reservations, reservation)

	resp := api.ReserveResponse{ReservationID: reservation.ID}
	var notes []livesync.Notification
	assigned := 0
	for _, seat := range s.seats {
		if assigned == req.Quantity {
			break
		}
		if !seat.Free() {
			continue
		}
		seat.Assignment = &api.Assignment{
			ID:            newID("asg"),
			ReservationID: reservation.ID,
			SeatID:        seat.ID,
			SeatNo:        seat.SeatNo,
			Status:        api.StatusHold,
		}
		resp.AssignedSeats = append(resp.AssignedSeats, *seat)
		notes = append(notes, livesync.Notification{
			Type:          livesync.TypeSeatAssigned,
			SeatNo:        seat.SeatNo,
			ReservationID: reservation.ID,
		})
		assigned++
	}
	tripID := s.trip.ID
	s.mu.Unlock()

	for _, note := range notes {
		s.hub.broadcast(tripID, note)
	}
	s.logger.Info("reservation created",
		"reservation_id", reservation.ID,
		"quantity", req.Quantity,
		"assigned", assigned,
		"override", hasOverride(r),
	)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *service) handlePatchAssignment(w http.ResponseWriter, r *http.Request) {
	var patch api.AssignmentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrCodeValidation, "malformed request body")
		return
	}

	s.mu.Lock()
	var target *api.Assignment
	for _, seat := range s.seats {
		if seat.Assignment != nil && seat.Assignment.ID == r.PathValue("id") {
			target = seat.Assignment
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, api.ErrCodeNotFound, "no such assignment")
		return
	}

	if patch.Status != nil {
		if target.Status == api.StatusCancelled && *patch.Status != api.StatusCancelled {
			s.mu.Unlock()
			writeError(w, http.StatusConflict, api.ErrCodeConflict, "cancelled is terminal")
			return
		}
		target.Status = *patch.Status
	}
	if patch.FirstName != nil {
		target.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		target.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		target.Phone = *patch.Phone
	}
	if patch.PassportID != nil {
		target.PassportID = *patch.PassportID
	}
	if patch.PassengerClientID != nil {
		target.PassengerClientID = patch.PassengerClientID
	}
	result := *target
	tripID := s.trip.ID
	s.mu.Unlock()

	noteType := livesync.TypeSeatAssigned
	if result.Status == api.StatusCancelled {
		noteType = livesync.TypeSeatReleased
	}
	s.hub.broadcast(tripID, livesync.Notification{
		Type:          noteType,
		SeatNo:        result.SeatNo,
		ReservationID: result.ReservationID,
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *service) handlePatchReservation(w http.ResponseWriter, r *http.Request) {
	var patch api.ReservationPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrCodeValidation, "malformed request body")
		return
	}

	s.mu.Lock()
	var target *api.Reservation
	for _, reservation := range s.reservations {
		if reservation.ID == r.PathValue("id") {
			target = reservation
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, api.ErrCodeNotFound, "no such reservation")
		return
	}

	var notes []livesync.Notification
	if patch.Status != nil {
		target.Status = *patch.Status
		if *patch.Status == api.ReservationCancelled {
			for _, seat := range s.seats {
				a := seat.Assignment
				if a != nil && a.ReservationID == target.ID && a.Status != api.StatusCancelled {
					a.Status = api.StatusCancelled
					notes = append(notes, livesync.Notification{
						Type:          livesync.TypeSeatReleased,
						SeatNo:        seat.SeatNo,
						ReservationID: target.ID,
					})
				}
			}
		}
	}
	if patch.Quantity != nil {
		extra := *patch.Quantity - target.Quantity
		if extra > 0 && !hasOverride(r) && s.bookedLocked()+extra > s.trip.Capacity {
			s.mu.Unlock()
			writeError(w, http.StatusConflict, api.ErrCodeCapacityExceeded,
				fmt.Sprintf("capacity %d would be exceeded", s.trip.Capacity))
			return
		}
		target.Quantity = *patch.Quantity
		for _, seat := range s.seats {
			if extra <= 0 {
				break
			}
			if !seat.Free() {
				continue
			}
			seat.Assignment = &api.Assignment{
				ID:            newID("asg"),
				ReservationID: target.ID,
				SeatID:        seat.ID,
				SeatNo:        seat.SeatNo,
				Status:        api.StatusHold,
			}
			notes = append(notes, livesync.Notification{
				Type:          livesync.TypeSeatAssigned,
				SeatNo:        seat.SeatNo,
				ReservationID: target.ID,
			})
			extra--
		}
	}
	if patch.ContactClientID != nil {
		target.ContactClientID = patch.ContactClientID
	}
	result := *target
	tripID := s.trip.ID
	s.mu.Unlock()

	notes = append(notes, livesync.Notification{
		Type:          livesync.TypeReservationUpdated,
		ReservationID: result.ID,
	})
	for _, note := range notes {
		s.hub.broadcast(tripID, note)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *service) handleSearchClients(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := []api.ClientRecord{}
	for _, client := range s.clients {
		if query == "" {
			matches = append(matches, client)
			continue
		}
		haystack := strings.ToLower(client.FirstName + " " + client.LastName + " " + client.Phone)
		if strings.Contains(haystack, query) {
			matches = append(matches, client)
		}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *service) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var draft api.ClientDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrCodeValidation, "malformed request body")
		return
	}
	if draft.FirstName == "" && draft.LastName == "" {
		writeError(w, http.StatusBadRequest, api.ErrCodeValidation, "a name is required")
		return
	}

	record := api.ClientRecord{
		ID:        newID("client"),
		FirstName: draft.FirstName,
		LastName:  draft.LastName,
		Phone:     draft.Phone,
	}
	s.mu.Lock()
	s.clients = append(s.clients, record)
	tripID := s.trip.ID
	s.mu.Unlock()

	s.hub.broadcast(tripID, livesync.Notification{
		Type:     livesync.TypeClientUpdated,
		ClientID: record.ID,
	})
	writeJSON(w, http.StatusCreated, record)
}

func (s *service) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	known := r.PathValue("id") == s.trip.ID
	s.mu.Unlock()
	if !known {
		writeError(w, http.StatusNotFound, api.ErrCodeNotFound, "no such trip")
		return
	}
	s.hub.subscribe(w, r, r.PathValue("id"))
}
