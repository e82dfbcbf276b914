// Switchboard - Multi-agent conversational platform
// License: MIT
//
// Copyright (c) 2026 Switchboard contributors

package state

import (
	"errors"
	"fmt"
	"testing"
)

func TestQuery_NegativeLimitRejected(t *testing.T) {
	q := NewQueryEngine(NewStore(0, nil))

	_, err := q.Query(NewContext("s1", "AgentA"), Filter{Limit: -1})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestQuery_FiltersUnreadableRecords(t *testing.T) {
	store := NewStore(0, nil)
	q := NewQueryEngine(store)

	store.PutShared(NewContext("s1", "AgentA"), ScopeGlobal, "open", "v", &PermissionSet{
		Read: []string{"AgentA", "AgentB"},
	})
	store.PutShared(NewContext("s1", "AgentA"), ScopeGlobal, "closed", "v", nil)

	records, err := q.Query(NewContext("s1", "AgentB"), Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len = %d, want 1", len(records))
	}
	if records[0].Key != "open" {
		t.Errorf("Key = %q, want open", records[0].Key)
	}
}

func TestQuery_LimitAppliedAfterPermissionFilter(t *testing.T) {
	store := NewStore(0, nil)
	q := NewQueryEngine(store)

	// Interleave records AgentB cannot read with ones it can. With a naive
	// limit-then-filter, limit 3 would swallow invisible records and return
	// fewer than 3 visible ones.
	for i := 0; i < 6; i++ {
		key := fmt.Sprintf("k%d", i)
		var perms *PermissionSet
		if i%2 == 0 {
			perms = &PermissionSet{Read: []string{"AgentA", "AgentB"}}
		}
		store.PutShared(NewContext("s1", "AgentA"), ScopeGlobal, key, i, perms)
	}

	records, err := q.Query(NewContext("s1", "AgentB"), Filter{Limit: 3})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3 visible records", len(records))
	}
	for i, rec := range records {
		want := fmt.Sprintf("k%d", i*2)
		if rec.Key != want {
			t.Errorf("records[%d].Key = %q, want %q", i, rec.Key, want)
		}
	}
}

func TestQuery_LimitTruncates(t *testing.T) {
	store := NewStore(0, nil)
	q := NewQueryEngine(store)
	ctx := NewContext("s1", "AgentA")

	for i := 0; i < 5; i++ {
		store.PutShared(ctx, ScopeGlobal, fmt.Sprintf("k%d", i), i, nil)
	}

	records, _ := q.Query(ctx, Filter{Limit: 2})
	if len(records) != 2 {
		t.Errorf("len = %d, want 2", len(records))
	}
}

func TestQuery_SessionFilterIncludesGlobals(t *testing.T) {
	store := NewStore(0, nil)
	q := NewQueryEngine(store)

	store.PutShared(NewContext("s1", "AgentA"), ScopeSession, "draft", "d", nil)
	store.PutShared(NewContext("s2", "AgentA"), ScopeSession, "other", "o", nil)
	store.PutShared(NewContext("s1", "AgentA"), ScopeGlobal, "shared", "g", nil)

	records, err := q.Query(NewContext("s1", "AgentA"), Filter{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2 (session record + global record)", len(records))
	}
	for _, rec := range records {
		if rec.Key == "other" {
			t.Error("query leaked another session's record")
		}
	}
}

func TestQuery_ScopeFilter(t *testing.T) {
	store := NewStore(0, nil)
	q := NewQueryEngine(store)
	ctx := NewContext("s1", "AgentA")

	store.PutShared(ctx, ScopeSession, "draft", "d", nil)
	store.PutShared(ctx, ScopeGlobal, "shared", "g", nil)

	scope := ScopeSession
	records, _ := q.Query(ctx, Filter{Scope: &scope})
	if len(records) != 1 || records[0].Key != "draft" {
		t.Errorf("scope filter returned %v records, want only the session-scoped one", len(records))
	}
}

func TestQuery_SessionDataNeverVisible(t *testing.T) {
	store := NewStore(0, nil)
	q := NewQueryEngine(store)
	ctx := NewContext("s1", "AgentA")

	store.MergeSessionData("s1", map[string]any{"secret": "private"})

	records, _ := q.Query(ctx, Filter{SessionID: "s1"})
	if len(records) != 0 {
		t.Errorf("session private data reachable through query: %d records", len(records))
	}
}
