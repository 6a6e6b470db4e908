// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

// Package api wraps the Astraion booking service REST API.
//
// [Client] is a typed HTTP client over the service's trip, seat,
// reservation, and client-registry endpoints. It is the only component
// that talks to the service directly; the ledger, linking resolver,
// and orchestrator all go through it.
//
// All service rejections are returned as [*ServiceError] with the
// service error code and HTTP status. [IsCapacityExceeded] tests for
// the capacity-conflict rejection (HTTP 409) that a caller may resolve
// by resubmitting the write with the manager override set; writes that
// accept an override attach the [OverrideHeader] request header.
// Anything that never reached the service (connection failure, timeout,
// malformed response) is a plain wrapped error; [IsTransient] reports
// whether retrying is reasonable.
//
// Request URLs are built by string concatenation on a base URL with
// its trailing slash stripped, avoiding double-encoding of path
// segments. Response bodies are read through lib/netutil's bounded
// readers.
package api
