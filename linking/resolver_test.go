// Copyright 2026 The Astraion Authors
// SPDX-License-Identifier: Apache-2.0

package linking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/astraion-travel/astraion/api"
)

// fakeDirectory records searches and creations.
type fakeDirectory struct {
	searchResults []api.ClientRecord
	searchErr     error
	searchQueries []string

	created   []api.ClientDraft
	createErr error
	nextID    int
}

func (f *fakeDirectory) SearchClients(ctx context.Context, query string) ([]api.ClientRecord, error) {
	f.searchQueries = append(f.searchQueries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeDirectory) CreateClient(ctx context.Context, draft api.ClientDraft) (*api.ClientRecord, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, draft)
	f.nextID++
	return &api.ClientRecord{
		ID:        fmt.Sprintf("client-%d", f.nextID),
		FirstName: draft.FirstName,
		LastName:  draft.LastName,
		Phone:     draft.Phone,
	}, nil
}

// scriptedPrompter returns canned choices in order and records what it
// was shown.
type scriptedPrompter struct {
	choices []Choice
	err     error
	calls   int
	shown   [][]api.ClientRecord
}

func (p *scriptedPrompter) Prompt(ctx context.Context, draft Draft, matches []api.ClientRecord) (Choice, error) {
	p.shown = append(p.shown, matches)
	if p.err != nil {
		return Choice{}, p.err
	}
	choice := p.choices[p.calls]
	p.calls++
	return choice, nil
}

func TestResolveQueryBuilding(t *testing.T) {
	t.Run("phone preferred", func(t *testing.T) {
		directory := &fakeDirectory{}
		prompter := &scriptedPrompter{choices: []Choice{{Kind: DecisionInline}}}
		resolver := NewResolver(directory, prompter, nil, nil)

		_, err := resolver.Resolve(context.Background(), Draft{
			FirstName: "Eleni", LastName: "Papadaki", Phone: "+30 694 000 1234",
		})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if len(directory.searchQueries) != 1 || directory.searchQueries[0] != "+30 694 000 1234" {
			t.Errorf("queries = %v", directory.searchQueries)
		}
	})

	t.Run("name fallback", func(t *testing.T) {
		directory := &fakeDirectory{}
		prompter := &scriptedPrompter{choices: []Choice{{Kind: DecisionInline}}}
		resolver := NewResolver(directory, prompter, nil, nil)

		if _, err := resolver.Resolve(context.Background(), Draft{FirstName: "Eleni", LastName: "Papadaki"}); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if len(directory.searchQueries) != 1 || directory.searchQueries[0] != "Eleni Papadaki" {
			t.Errorf("queries = %v", directory.searchQueries)
		}
	})

	t.Run("empty draft skips the search", func(t *testing.T) {
		directory := &fakeDirectory{}
		prompter := &scriptedPrompter{choices: []Choice{{Kind: DecisionInline}}}
		resolver := NewResolver(directory, prompter, nil, nil)

		if _, err := resolver.Resolve(context.Background(), Draft{}); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if len(directory.searchQueries) != 0 {
			t.Errorf("unexpected search: %v", directory.searchQueries)
		}
	})
}

func TestResolveFailsOpenOnSearchError(t *testing.T) {
	directory := &fakeDirectory{searchErr: errors.New("registry down")}
	prompter := &scriptedPrompter{choices: []Choice{{Kind: DecisionInline}}}
	resolver := NewResolver(directory, prompter, nil, nil)

	decision, err := resolver.Resolve(context.Background(), Draft{Phone: "123"})
	if err != nil {
		t.Fatalf("lookup failure blocked the action: %v", err)
	}
	if decision.Kind != DecisionInline {
		t.Errorf("decision = %+v", decision)
	}
	if len(prompter.shown) != 1 || len(prompter.shown[0]) != 0 {
		t.Errorf("prompter shown %v, want one empty match list", prompter.shown)
	}
}

func TestResolveLink(t *testing.T) {
	directory := &fakeDirectory{
		searchResults: []api.ClientRecord{{ID: "client-7", FirstName: "Eleni"}},
	}
	prompter := &scriptedPrompter{choices: []Choice{{Kind: DecisionLink, ClientID: "client-7"}}}
	resolver := NewResolver(directory, prompter, nil, nil)

	decision, err := resolver.Resolve(context.Background(), Draft{Phone: "123"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if decision.Kind != DecisionLink || decision.ClientID != "client-7" {
		t.Errorf("decision = %+v", decision)
	}
	if len(directory.created) != 0 {
		t.Errorf("link created a client: %v", directory.created)
	}
}

func TestResolveCreate(t *testing.T) {
	t.Run("creates and returns the new id", func(t *testing.T) {
		directory := &fakeDirectory{}
		prompter := &scriptedPrompter{choices: []Choice{{Kind: DecisionCreate}}}
		resolver := NewResolver(directory, prompter, nil, nil)

		decision, err := resolver.Resolve(context.Background(), Draft{FirstName: "Eleni", LastName: "Papadaki"})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if decision.Kind != DecisionCreate || decision.ClientID != "client-1" {
			t.Errorf("decision = %+v", decision)
		}
	})

	t.Run("creation failure propagates with no decision", func(t *testing.T) {
		directory := &fakeDirectory{createErr: errors.New("registry rejected")}
		prompter := &scriptedPrompter{choices: []Choice{{Kind: DecisionCreate}}}
		resolver := NewResolver(directory, prompter, nil, nil)

		if _, err := resolver.Resolve(context.Background(), Draft{FirstName: "Eleni"}); err == nil {
			t.Fatal("expected creation error")
		}
	})
}

func TestRememberedCreate(t *testing.T) {
	// The session preference replays as a creation default for future
	// distinct passengers: the second Resolve must create a second
	// client without prompting again.
	directory := &fakeDirectory{}
	prompter := &scriptedPrompter{choices: []Choice{{Kind: DecisionCreate, Remember: true}}}
	prefs := NewPreferences()
	resolver := NewResolver(directory, prompter, prefs, nil)

	first, err := resolver.Resolve(context.Background(), Draft{FirstName: "Eleni", LastName: "Papadaki"})
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), Draft{FirstName: "Nikos", LastName: "Vlahos"})
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	if prompter.calls != 1 {
		t.Errorf("prompter called %d times, want 1", prompter.calls)
	}
	if first.ClientID == second.ClientID {
		t.Error("remembered create reused a client id instead of creating a second client")
	}
	if len(directory.created) != 2 {
		t.Errorf("created %d clients, want 2", len(directory.created))
	}
}

func TestRememberedInline(t *testing.T) {
	directory := &fakeDirectory{}
	prompter := &scriptedPrompter{choices: []Choice{{Kind: DecisionInline, Remember: true}}}
	resolver := NewResolver(directory, prompter, NewPreferences(), nil)

	if _, err := resolver.Resolve(context.Background(), Draft{Phone: "1"}); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	decision, err := resolver.Resolve(context.Background(), Draft{Phone: "2"})
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if decision.Kind != DecisionInline {
		t.Errorf("decision = %+v", decision)
	}
	if prompter.calls != 1 {
		t.Errorf("prompter called %d times, want 1", prompter.calls)
	}
	// The remembered inline path never consults the registry.
	if len(directory.searchQueries) != 1 {
		t.Errorf("searches = %v, want only the first", directory.searchQueries)
	}
}

func TestLinkIsNeverRemembered(t *testing.T) {
	directory := &fakeDirectory{searchResults: []api.ClientRecord{{ID: "client-7"}}}
	prompter := &scriptedPrompter{choices: []Choice{
		{Kind: DecisionLink, ClientID: "client-7", Remember: true},
		{Kind: DecisionInline},
	}}
	prefs := NewPreferences()
	resolver := NewResolver(directory, prompter, prefs, nil)

	if _, err := resolver.Resolve(context.Background(), Draft{Phone: "1"}); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	if _, ok := prefs.Remembered(); ok {
		t.Fatal("link decision was remembered")
	}
	// The second passenger must be prompted again.
	if _, err := resolver.Resolve(context.Background(), Draft{Phone: "2"}); err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if prompter.calls != 2 {
		t.Errorf("prompter called %d times, want 2", prompter.calls)
	}
}

func TestPromptDismissalAbandonsCleanly(t *testing.T) {
	directory := &fakeDirectory{}
	prompter := &scriptedPrompter{err: ErrPromptDismissed}
	resolver := NewResolver(directory, prompter, nil, nil)

	_, err := resolver.Resolve(context.Background(), Draft{Phone: "1"})
	if !errors.Is(err, ErrPromptDismissed) {
		t.Fatalf("err = %v, want ErrPromptDismissed", err)
	}
	if len(directory.created) != 0 {
		t.Errorf("dismissal wrote to the registry: %v", directory.created)
	}
}

func TestPreferencesReset(t *testing.T) {
	prefs := NewPreferences()
	prefs.Remember(DecisionCreate)
	if _, ok := prefs.Remembered(); !ok {
		t.Fatal("Remember did not store")
	}
	prefs.Reset()
	if _, ok := prefs.Remembered(); ok {
		t.Fatal("Reset did not clear")
	}
}
