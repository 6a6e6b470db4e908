// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O helpers for the api client.
//
// All response body reads are bounded at MaxResponseSize so that a
// misbehaving server cannot force an unbounded allocation. The booking
// service returns JSON documents orders of magnitude below the limit;
// the bound exists only for the pathological case.
package netutil

import "io"

// MaxResponseSize bounds JSON response body reads: 64 MB. A full seat
// map for the largest coach is a few hundred kilobytes.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads a JSON response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}
