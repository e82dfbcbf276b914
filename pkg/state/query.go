// Switchboard - Multi-agent conversational platform
// License: MIT
//
// Copyright (c) 2026 Switchboard contributors

package state

import "fmt"

// Filter selects shared state records for listing and querying.
// The zero value matches every record with no limit.
type Filter struct {
	// SessionID, when set, matches records belonging to that session plus
	// global-scope records (which are visible to every session).
	SessionID string

	// Scope, when non-nil, restricts results to one scope.
	Scope *Scope

	// Limit truncates the result when positive. Negative limits are
	// rejected as invalid input.
	Limit int
}

func (f Filter) validate() error {
	if f.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidInput, f.Limit)
	}
	return nil
}

func (f Filter) matches(rec *SharedState) bool {
	if f.Scope != nil && rec.Scope != *f.Scope {
		return false
	}
	if f.SessionID != "" && rec.Scope != ScopeGlobal && rec.SessionID != f.SessionID {
		return false
	}
	return true
}

// QueryEngine answers shared-state queries on behalf of a caller, removing
// every record the caller cannot read.
type QueryEngine struct {
	store *Store
}

// NewQueryEngine creates a query engine over the given store.
func NewQueryEngine(store *Store) *QueryEngine {
	return &QueryEngine{store: store}
}

// Query lists the records matching the filter that ctx is allowed to read,
// preserving store iteration order. The limit is applied AFTER the
// permission filter, so the result length never leaks how many invisible
// records matched.
func (q *QueryEngine) Query(ctx Context, filter Filter) ([]*SharedState, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	unlimited := filter
	unlimited.Limit = 0

	records := q.store.ListShared(unlimited)
	visible := make([]*SharedState, 0, len(records))
	for _, rec := range records {
		if !Allowed(ctx, rec, PermRead) {
			continue
		}
		visible = append(visible, rec)
		if filter.Limit > 0 && len(visible) >= filter.Limit {
			break
		}
	}
	return visible, nil
}
