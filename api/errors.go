// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
)

// ServiceError is a structured rejection from the booking service.
// Callers use errors.As to extract it:
//
//	var serviceErr *api.ServiceError
//	if errors.As(err, &serviceErr) {
//	    if serviceErr.Code == api.ErrCodeCapacityExceeded { ... }
//	}
type ServiceError struct {
	// Code is the service error code (e.g., "capacity_exceeded").
	Code string `json:"code"`
	// Message is the human-readable description from the service.
	Message string `json:"detail"`
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("booking service: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Service error codes.
const (
	// ErrCodeCapacityExceeded rejects a write that would take active
	// assignments past trip capacity. Resubmitting the identical write
	// with the manager override set bypasses the check.
	ErrCodeCapacityExceeded = "capacity_exceeded"
	ErrCodeValidation       = "validation_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
)

// IsServiceError reports whether err is a *ServiceError with the given
// code.
func IsServiceError(err error, code string) bool {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code == code
	}
	return false
}

// IsCapacityExceeded reports whether err is the capacity-conflict
// rejection. The write is sound but raced or exceeded the seat count;
// it must never be auto-retried — only an explicit manager override
// resubmission may proceed.
func IsCapacityExceeded(err error) bool {
	return IsServiceError(err, ErrCodeCapacityExceeded)
}

// IsTransient reports whether err is worth retrying: connection
// failures, timeouts, rate limiting (429), and server errors (5xx).
// Structured 4xx rejections other than 429 are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		if serviceErr.StatusCode == 429 {
			return true
		}
		if serviceErr.StatusCode >= 500 {
			return true
		}
		if serviceErr.StatusCode >= 400 {
			return false
		}
	}
	// Errors that never produced a service response (connection
	// refused, timeout, EOF) are transient.
	return true
}
