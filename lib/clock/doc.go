// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock parameter instead of calling time.Now,
// time.After, time.AfterFunc, or time.Sleep directly. Real() provides the
// standard library behavior; Fake() provides a deterministic clock that
// advances only when Advance is called.
//
// The live sync channel is the main consumer: its reconnect backoff
// timers are registered on the injected clock, so tests can walk a
// channel through an arbitrary sequence of disconnects and verify the
// backoff schedule without waiting on wall time.
//
// When a goroutine registers a timer on a FakeClock, use WaitForTimers
// to block until the registration lands before calling Advance. That
// removes the race between timer registration and time advancement that
// sleeps-in-tests otherwise paper over.
package clock
