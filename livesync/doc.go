// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

// Package livesync maintains the push channel that keeps a trip view
// current while other staff sessions mutate the same trip.
//
// A [Channel] owns one websocket subscription for one trip and runs a
// single goroutine through the connection lifecycle: CONNECTING, OPEN
// on a successful dial, CLOSED on any dial or read failure, then a
// backoff wait and a fresh dial. The loop only exits on [Channel.Close].
// Connectivity failures never reach the caller; the channel's job is to
// absorb them and resubscribe.
//
// Notifications are advisory. Delivery is at-least-once and unordered,
// and a write made from this same view also triggers its own refresh,
// so the hooks fire more often than strictly necessary. That is fine:
// a refresh rebuilds the snapshot wholesale from the service, so
// duplicates converge instead of compounding. The channel never
// applies a notification's payload to local state directly.
package livesync
