// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/astraion-travel/astraion/lib/netutil"
)

// OverrideHeader is the request header that carries the manager
// override. Writes sent with OverrideValue in this header bypass the
// service's capacity check.
const (
	OverrideHeader = "X-Astraion-Override"
	OverrideValue  = "capacity"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the base URL of the booking service (e.g.,
	// "http://localhost:8000").
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client is a typed client for the booking service REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a booking service client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CloseIdleConnections drops idle pooled connections. Call after a
// network disruption so the next request opens a fresh socket instead
// of reusing a poisoned one.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Trip fetches one trip by id.
func (c *Client) Trip(ctx context.Context, tripID string) (*Trip, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/trips/"+tripID+"/", nil, nil, false)
	if err != nil {
		return nil, fmt.Errorf("api: fetch trip %s: %w", tripID, err)
	}
	var trip Trip
	if err := json.Unmarshal(body, &trip); err != nil {
		return nil, fmt.Errorf("api: parse trip response: %w", err)
	}
	return &trip, nil
}

// Seats fetches the full seat map for a trip, in the service's order.
func (c *Client) Seats(ctx context.Context, tripID string) ([]Seat, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/trips/"+tripID+"/seats/", nil, nil, false)
	if err != nil {
		return nil, fmt.Errorf("api: fetch seats for trip %s: %w", tripID, err)
	}
	var seats []Seat
	if err := json.Unmarshal(body, &seats); err != nil {
		return nil, fmt.Errorf("api: parse seats response: %w", err)
	}
	return seats, nil
}

// Reservations fetches all reservations for a trip.
func (c *Client) Reservations(ctx context.Context, tripID string) ([]Reservation, error) {
	query := url.Values{"trip": {tripID}}
	body, err := c.doRequest(ctx, http.MethodGet, "/api/reservations/", nil, query, false)
	if err != nil {
		return nil, fmt.Errorf("api: fetch reservations for trip %s: %w", tripID, err)
	}
	var reservations []Reservation
	if err := json.Unmarshal(body, &reservations); err != nil {
		return nil, fmt.Errorf("api: parse reservations response: %w", err)
	}
	return reservations, nil
}

// Reserve creates a reservation of request.Quantity seats on the trip.
// The service picks the seats and responds with the assignments it
// created. A capacity conflict comes back as *ServiceError with
// ErrCodeCapacityExceeded unless override is set.
func (c *Client) Reserve(ctx context.Context, tripID string, request ReserveRequest, override bool) (*ReserveResponse, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/api/trips/"+tripID+"/reserve/", request, nil, override)
	if err != nil {
		return nil, fmt.Errorf("api: reserve on trip %s: %w", tripID, err)
	}
	var response ReserveResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("api: parse reserve response: %w", err)
	}
	return &response, nil
}

// PatchAssignment applies a partial update to a seat assignment.
func (c *Client) PatchAssignment(ctx context.Context, assignmentID string, patch AssignmentPatch) (*Assignment, error) {
	body, err := c.doRequest(ctx, http.MethodPatch, "/api/assignments/"+assignmentID+"/", patch, nil, false)
	if err != nil {
		return nil, fmt.Errorf("api: patch assignment %s: %w", assignmentID, err)
	}
	var assignment Assignment
	if err := json.Unmarshal(body, &assignment); err != nil {
		return nil, fmt.Errorf("api: parse assignment response: %w", err)
	}
	return &assignment, nil
}

// PatchReservation applies a partial update to a reservation. Quantity
// increases carry the same capacity-conflict/override semantics as
// Reserve.
func (c *Client) PatchReservation(ctx context.Context, reservationID string, patch ReservationPatch, override bool) (*Reservation, error) {
	body, err := c.doRequest(ctx, http.MethodPatch, "/api/reservations/"+reservationID+"/", patch, nil, override)
	if err != nil {
		return nil, fmt.Errorf("api: patch reservation %s: %w", reservationID, err)
	}
	var reservation Reservation
	if err := json.Unmarshal(body, &reservation); err != nil {
		return nil, fmt.Errorf("api: parse reservation response: %w", err)
	}
	return &reservation, nil
}

// SearchClients returns registry records matching the free-text query
// (name, phone, passport, email — ranking is the service's concern).
func (c *Client) SearchClients(ctx context.Context, query string) ([]ClientRecord, error) {
	values := url.Values{"search": {query}}
	body, err := c.doRequest(ctx, http.MethodGet, "/api/clients/", nil, values, false)
	if err != nil {
		return nil, fmt.Errorf("api: search clients: %w", err)
	}
	var records []ClientRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("api: parse client search response: %w", err)
	}
	return records, nil
}

// CreateClient creates a registry record from draft fields.
func (c *Client) CreateClient(ctx context.Context, draft ClientDraft) (*ClientRecord, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/api/clients/", draft, nil, false)
	if err != nil {
		return nil, fmt.Errorf("api: create client: %w", err)
	}
	var record ClientRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("api: parse client response: %w", err)
	}
	return &record, nil
}

// doRequest performs an HTTP request against the service and returns
// the response body. On 2xx, returns the body. On 4xx/5xx with a
// decodable error document, returns a *ServiceError; otherwise a plain
// error with the raw body. query may be nil.
func (c *Client) doRequest(ctx context.Context, method, path string, requestBody any, query url.Values, override bool) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if override {
		request.Header.Set(OverrideHeader, OverrideValue)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	var serviceErr ServiceError
	if jsonErr := json.Unmarshal(responseBody, &serviceErr); jsonErr != nil || serviceErr.Code == "" {
		// Non-JSON or unstructured error body. Fail loud with the raw
		// body so the real failure is visible.
		return nil, fmt.Errorf("unexpected %d response from %s %s: %s",
			response.StatusCode, method, path, string(responseBody))
	}
	serviceErr.StatusCode = response.StatusCode

	return responseBody, &serviceErr
}
