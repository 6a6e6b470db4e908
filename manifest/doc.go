// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest orchestrates the user-facing booking operations for
// one trip view: group holds, single-seat assignment, occupant edits,
// releases and cancellations, and bulk paste import.
//
// Every operation follows the same shape: resolve passenger identity
// through the linking resolver where fields are involved, issue exactly
// one write per call against the booking service, then rebuild the
// ledger from the service's truth. Operations are idempotent at the UI
// layer — repeating one after success is safe because the refresh
// resolves any duplicate display — but not at the transport layer: each
// call is a fresh write.
//
// Capacity checks are optimistic. The ledger may show room while
// another staff session races the same trip, so the service remains the
// arbiter: a conflicting write comes back as a capacity rejection
// (api.IsCapacityExceeded) and is surfaced, never silently retried.
// The caller decides whether to resubmit with the manager override.
//
// A refresh that fails after a successful write is logged and dropped
// rather than failing the operation: the write landed, the previous
// snapshot remains the last-known-good view, and the live sync channel
// repairs the staleness with its next notification.
package manifest
