// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

// Package linking resolves free-text passenger drafts against the
// client registry before a booking write is committed.
//
// Staff type a passenger's name and phone into the manifest; the same
// person is often already a registry client. [Resolver.Resolve] looks
// up candidate matches and drives a three-way decision: link the
// assignment to an existing client, create a new client from the draft,
// or keep the data inline on the assignment only. The decision is
// returned to the orchestrator — the resolver never touches seats or
// assignments itself, it only determines what reference or payload
// accompanies the next write.
//
// The caller supplies the human side of the decision through the
// [Prompter] interface. Prompt suspends until the staff member chooses;
// there is no timeout — dismissing the UI surface returns
// [ErrPromptDismissed] (or a context error), which abandons the pending
// operation cleanly with no partial write.
//
// A "remember for this session" flag short-circuits future prompts.
// Remembered preferences are keyed by decision kind only: a remembered
// CREATE makes every subsequent distinct passenger an implicit new
// client, a remembered INLINE skips the registry entirely. LINK is
// never remembered — there is no stored target to replay. This is a
// deliberate session shortcut, not an identity merge. [Preferences] is
// constructor-injected and reset at session start, never ambient
// global state.
package linking
