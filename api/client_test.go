// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{BaseURL: "http://localhost:8000"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client == nil {
			t.Fatal("NewClient returned nil")
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{}); err == nil {
			t.Fatal("expected error for empty URL")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{BaseURL: "://invalid"}); err == nil {
			t.Fatal("expected error for invalid URL")
		}
	})
}

func TestTrip(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/api/trips/trip-1/" {
			t.Errorf("unexpected path: %s", request.URL.Path)
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(writer).Encode(Trip{
			ID: "trip-1", TripDate: "2026-03-15", Origin: "Athens",
			Destination: "Meteora", Capacity: 45,
		})
	}))

	trip, err := client.Trip(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("Trip failed: %v", err)
	}
	if trip.Capacity != 45 || trip.Destination != "Meteora" {
		t.Errorf("unexpected trip: %+v", trip)
	}
}

func TestReserve(t *testing.T) {
	t.Run("success carries quantity and contact", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.Method != http.MethodPost || request.URL.Path != "/api/trips/trip-1/reserve/" {
				t.Errorf("unexpected request: %s %s", request.Method, request.URL.Path)
			}
			if got := request.Header.Get(OverrideHeader); got != "" {
				t.Errorf("override header sent without override: %q", got)
			}
			var body ReserveRequest
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				t.Fatalf("decoding request: %v", err)
			}
			if body.Quantity != 3 {
				t.Errorf("quantity = %d, want 3", body.Quantity)
			}
			if body.ContactClientID == nil || *body.ContactClientID != "client-9" {
				t.Errorf("contact_client_id = %v, want client-9", body.ContactClientID)
			}
			json.NewEncoder(writer).Encode(ReserveResponse{
				ReservationID: "res-1",
				AssignedSeats: []Seat{{ID: "seat-1", SeatNo: 1}, {ID: "seat-2", SeatNo: 2}, {ID: "seat-3", SeatNo: 3}},
			})
		}))

		contact := "client-9"
		response, err := client.Reserve(context.Background(), "trip-1", ReserveRequest{
			Quantity:        3,
			ContactClientID: &contact,
		}, false)
		if err != nil {
			t.Fatalf("Reserve failed: %v", err)
		}
		if response.ReservationID != "res-1" || len(response.AssignedSeats) != 3 {
			t.Errorf("unexpected response: %+v", response)
		}
	})

	t.Run("capacity conflict decodes as ServiceError", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusConflict)
			json.NewEncoder(writer).Encode(map[string]string{
				"code":   ErrCodeCapacityExceeded,
				"detail": "trip is full",
			})
		}))

		_, err := client.Reserve(context.Background(), "trip-1", ReserveRequest{Quantity: 1}, false)
		if err == nil {
			t.Fatal("expected capacity error")
		}
		if !IsCapacityExceeded(err) {
			t.Errorf("IsCapacityExceeded = false for %v", err)
		}
		var serviceErr *ServiceError
		if !errors.As(err, &serviceErr) {
			t.Fatalf("error is not a *ServiceError: %v", err)
		}
		if serviceErr.StatusCode != http.StatusConflict {
			t.Errorf("StatusCode = %d, want 409", serviceErr.StatusCode)
		}
		if IsTransient(err) {
			t.Error("capacity conflict classified as transient")
		}
	})

	t.Run("override sets the header", func(t *testing.T) {
		var gotHeader string
		client := testClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			gotHeader = request.Header.Get(OverrideHeader)
			json.NewEncoder(writer).Encode(ReserveResponse{ReservationID: "res-2"})
		}))

		if _, err := client.Reserve(context.Background(), "trip-1", ReserveRequest{Quantity: 1}, true); err != nil {
			t.Fatalf("Reserve failed: %v", err)
		}
		if gotHeader != OverrideValue {
			t.Errorf("override header = %q, want %q", gotHeader, OverrideValue)
		}
	})
}

func TestPatchAssignment(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPatch || request.URL.Path != "/api/assignments/asg-1/" {
			t.Errorf("unexpected request: %s %s", request.Method, request.URL.Path)
		}
		var patch map[string]any
		if err := json.NewDecoder(request.Body).Decode(&patch); err != nil {
			t.Fatalf("decoding patch: %v", err)
		}
		// Only the fields set on the patch may appear on the wire.
		if _, ok := patch["first_name"]; ok {
			t.Error("nil first_name serialized")
		}
		if patch["status"] != string(StatusCancelled) {
			t.Errorf("status = %v, want cancelled", patch["status"])
		}
		json.NewEncoder(writer).Encode(Assignment{ID: "asg-1", Status: StatusCancelled})
	}))

	status := StatusCancelled
	assignment, err := client.PatchAssignment(context.Background(), "asg-1", AssignmentPatch{Status: &status})
	if err != nil {
		t.Fatalf("PatchAssignment failed: %v", err)
	}
	if assignment.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", assignment.Status)
	}
}

func TestSearchClients(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if got := request.URL.Query().Get("search"); got != "+30 694 000 1234" {
			t.Errorf("search query = %q", got)
		}
		json.NewEncoder(writer).Encode([]ClientRecord{
			{ID: "client-1", FirstName: "Eleni", LastName: "Papadaki", Phone: "+30 694 000 1234"},
		})
	}))

	records, err := client.SearchClients(context.Background(), "+30 694 000 1234")
	if err != nil {
		t.Fatalf("SearchClients failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "client-1" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestTransportErrorIsTransient(t *testing.T) {
	client, err := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	_, err = client.Trip(context.Background(), "trip-1")
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !IsTransient(err) {
		t.Errorf("connection error classified as permanent: %v", err)
	}
	if IsCapacityExceeded(err) {
		t.Error("connection error classified as capacity conflict")
	}
}

func TestUnstructuredErrorBody(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
		writer.Write([]byte("upstream unavailable"))
	}))

	_, err := client.Trip(context.Background(), "trip-1")
	if err == nil {
		t.Fatal("expected error")
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		t.Errorf("unstructured body decoded as ServiceError: %+v", serviceErr)
	}
}
