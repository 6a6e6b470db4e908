// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger maintains the in-memory read-model of one trip's
// seats, reservations, and capacity counters.
//
// The ledger never mutates booking state. It is rebuilt wholesale from
// the service on every [Ledger.Refresh]: the previous snapshot is
// replaced entirely and the derived counters are recomputed from
// scratch, never incremented. That policy is the module's consistency
// mechanism — with several staff sessions editing the same trip, the
// local view converges to the service's truth without any client-side
// merge, and a refresh triggered twice (once by a write's own
// completion, once by a live sync notification for the same change) is
// harmless.
//
// Refresh is all-or-nothing: any fetch or decode failure leaves the
// previous snapshot untouched, preserving the last-known-good view.
//
// Snapshot accessors return copies. No seat or assignment value
// survives a refresh by identity — compare by ID, never by pointer.
package ledger
