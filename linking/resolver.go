// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package linking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/astraion-travel/astraion/api"
)

// DecisionKind identifies how a passenger draft relates to the client
// registry.
type DecisionKind string

const (
	// DecisionInline keeps the draft fields on the assignment with no
	// registry reference.
	DecisionInline DecisionKind = "inline"
	// DecisionLink references an existing registry client.
	DecisionLink DecisionKind = "link"
	// DecisionCreate creates a registry client from the draft and
	// references it.
	DecisionCreate DecisionKind = "create"
)

// Draft is the free-text passenger input being resolved.
type Draft struct {
	FirstName string
	LastName  string
	Phone     string
}

// Empty reports whether the draft has no usable fields.
func (d Draft) Empty() bool {
	return strings.TrimSpace(d.FirstName) == "" &&
		strings.TrimSpace(d.LastName) == "" &&
		strings.TrimSpace(d.Phone) == ""
}

// Decision is the resolver's outcome. ClientID is set for LINK and
// CREATE, empty for INLINE.
type Decision struct {
	Kind     DecisionKind
	ClientID string
}

// Choice is what the prompter returns: the staff member's pick plus the
// session-remember flag. ClientID is required for a link choice.
type Choice struct {
	Kind     DecisionKind
	ClientID string
	Remember bool
}

// ErrPromptDismissed is returned by a Prompter when the staff member
// dismissed the decision surface without choosing. The pending
// operation is abandoned with no write.
var ErrPromptDismissed = errors.New("linking: prompt dismissed")

// Prompter presents candidate matches and the three choices to the
// staff member. Prompt blocks until a choice is supplied; it has no
// timeout of its own and honors ctx cancellation.
type Prompter interface {
	Prompt(ctx context.Context, draft Draft, matches []api.ClientRecord) (Choice, error)
}

// Directory is the client-registry surface the resolver needs.
// *api.Client implements it.
type Directory interface {
	SearchClients(ctx context.Context, query string) ([]api.ClientRecord, error)
	CreateClient(ctx context.Context, draft api.ClientDraft) (*api.ClientRecord, error)
}

// Preferences holds the session-scoped remembered decision kind. Zero
// value means nothing remembered; Reset returns to that state at
// session start. Only INLINE and CREATE are ever stored.
type Preferences struct {
	mu   sync.Mutex
	kind DecisionKind
	set  bool
}

// NewPreferences returns an empty preference store.
func NewPreferences() *Preferences { return &Preferences{} }

// Remember stores kind as the session default. LINK is silently
// ignored: a link choice has a specific target client and cannot be
// replayed against future distinct passengers.
func (p *Preferences) Remember(kind DecisionKind) {
	if kind == DecisionLink {
		return
	}
	p.mu.Lock()
	p.kind, p.set = kind, true
	p.mu.Unlock()
}

// Remembered returns the stored kind, if any.
func (p *Preferences) Remembered() (DecisionKind, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kind, p.set
}

// Reset clears the stored preference.
func (p *Preferences) Reset() {
	p.mu.Lock()
	p.kind, p.set = "", false
	p.mu.Unlock()
}

// Resolver drives the link/create/inline decision for passenger drafts.
type Resolver struct {
	directory Directory
	prompter  Prompter
	prefs     *Preferences
	logger    *slog.Logger
}

// NewResolver creates a Resolver. prefs may be shared with other
// resolvers in the same staff session; nil allocates a fresh store.
// A nil logger defaults to slog.Default().
func NewResolver(directory Directory, prompter Prompter, prefs *Preferences, logger *slog.Logger) *Resolver {
	if prefs == nil {
		prefs = NewPreferences()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		directory: directory,
		prompter:  prompter,
		prefs:     prefs,
		logger:    logger,
	}
}

// Resolve determines how the draft relates to the client registry.
//
// A remembered session preference replays without prompting: CREATE
// performs an implicit client creation from the draft, INLINE returns
// immediately. Otherwise the registry is searched (phone preferred,
// "first last" fallback) and the prompter is asked to choose. A search
// failure degrades to an empty match list — a registry hiccup must
// never block the staff action. A failed client creation propagates to
// the caller with no decision; nothing may reference a client id that
// was never created.
func (r *Resolver) Resolve(ctx context.Context, draft Draft) (Decision, error) {
	if kind, ok := r.prefs.Remembered(); ok {
		switch kind {
		case DecisionCreate:
			record, err := r.createClient(ctx, draft)
			if err != nil {
				return Decision{}, err
			}
			return Decision{Kind: DecisionCreate, ClientID: record.ID}, nil
		case DecisionInline:
			return Decision{Kind: DecisionInline}, nil
		}
	}

	matches := r.search(ctx, draft)

	choice, err := r.prompter.Prompt(ctx, draft, matches)
	if err != nil {
		return Decision{}, fmt.Errorf("linking: resolve %q %q: %w", draft.FirstName, draft.LastName, err)
	}

	switch choice.Kind {
	case DecisionInline:
		if choice.Remember {
			r.prefs.Remember(DecisionInline)
		}
		return Decision{Kind: DecisionInline}, nil

	case DecisionLink:
		if choice.ClientID == "" {
			return Decision{}, fmt.Errorf("linking: link choice without a client id")
		}
		return Decision{Kind: DecisionLink, ClientID: choice.ClientID}, nil

	case DecisionCreate:
		record, err := r.createClient(ctx, draft)
		if err != nil {
			return Decision{}, err
		}
		if choice.Remember {
			r.prefs.Remember(DecisionCreate)
		}
		return Decision{Kind: DecisionCreate, ClientID: record.ID}, nil

	default:
		return Decision{}, fmt.Errorf("linking: unknown choice kind %q", choice.Kind)
	}
}

// search builds the dedupe query and asks the registry for candidates.
// Phone wins over name: it is the strongest identity signal staff have
// at the counter. Failures fail open to no matches.
func (r *Resolver) search(ctx context.Context, draft Draft) []api.ClientRecord {
	query := strings.TrimSpace(draft.Phone)
	if query == "" {
		query = strings.TrimSpace(strings.TrimSpace(draft.FirstName) + " " + strings.TrimSpace(draft.LastName))
	}
	if query == "" {
		return nil
	}

	matches, err := r.directory.SearchClients(ctx, query)
	if err != nil {
		r.logger.Warn("client lookup failed, continuing without matches",
			"query", query,
			"error", err,
		)
		return nil
	}
	return matches
}

func (r *Resolver) createClient(ctx context.Context, draft Draft) (*api.ClientRecord, error) {
	record, err := r.directory.CreateClient(ctx, api.ClientDraft{
		FirstName: strings.TrimSpace(draft.FirstName),
		LastName:  strings.TrimSpace(draft.LastName),
		Phone:     strings.TrimSpace(draft.Phone),
	})
	if err != nil {
		return nil, fmt.Errorf("linking: create client for %q %q: %w", draft.FirstName, draft.LastName, err)
	}
	r.logger.Info("created registry client from draft", "client_id", record.ID)
	return record, nil
}
