// Switchboard - Multi-agent conversational platform
// License: MIT
//
// Copyright (c) 2026 Switchboard contributors

package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/switchboard-ai/switchboard/pkg/logger"
)

// Options configures a Manager. The zero value is valid: unbounded
// sessions, wall-clock timestamps.
type Options struct {
	// MaxSessions caps the number of tracked sessions; 0 means unbounded.
	MaxSessions int

	// Clock supplies timestamps; nil means time.Now.
	Clock func() time.Time
}

// Manager is the facade over the state store. It is constructed explicitly
// and passed to the components that need it; there is no package-level
// singleton. Every operation takes the caller's Context and returns a typed
// result — permission denials and malformed input surface as ErrDenied and
// ErrInvalidInput, never as panics.
//
// All operations are fast in-memory computations; nothing here touches the
// network or disk, so everything completes synchronously.
type Manager struct {
	store *Store
	query *QueryEngine

	wrapMu  sync.Mutex
	wrapped map[string]any
}

// NewManager creates a state manager with the given options.
func NewManager(opts Options) *Manager {
	store := NewStore(opts.MaxSessions, opts.Clock)
	return &Manager{
		store:   store,
		query:   NewQueryEngine(store),
		wrapped: make(map[string]any),
	}
}

// GetSessionState returns the private state of a session, creating an empty
// one on first access. It never reports absence for a well-formed id.
func (m *Manager) GetSessionState(ctx Context, sessionID string) (*SessionState, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty session id", ErrInvalidInput)
	}
	return m.store.GetOrCreateSession(sessionID), nil
}

// PeekSessionState is the non-mutating variant of GetSessionState: it never
// creates the session and never bumps LastAccess.
func (m *Manager) PeekSessionState(ctx Context, sessionID string) (*SessionState, bool) {
	return m.store.PeekSession(sessionID)
}

// UpdateSessionState merges partial into the session's data key-wise and
// returns the post-merge state.
func (m *Manager) UpdateSessionState(ctx Context, sessionID string, partial map[string]any) (*SessionState, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty session id", ErrInvalidInput)
	}
	return m.store.MergeSessionData(sessionID, partial), nil
}

// GetSharedState returns the record for (scope, key) if it exists and the
// caller may read it. Absence and read denial are reported identically as
// (nil, nil): callers learn only that they cannot proceed, not whether the
// record exists.
func (m *Manager) GetSharedState(ctx Context, scope Scope, key string) (*SharedState, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidInput)
	}

	rec, ok := m.store.GetShared(scope, key)
	if !ok {
		return nil, nil
	}
	if !Allowed(ctx, rec, PermRead) {
		logger.DebugCF("state", "shared read denied", map[string]any{
			"agent": ctx.Agent,
			"scope": scope.String(),
			"key":   key,
		})
		return nil, nil
	}
	return rec, nil
}

// SetSharedState creates or updates the record for (scope, key). On create
// the acting agent becomes the owner; a nil perms defaults to owner-only
// lists. Updating an existing record requires write permission, re-validated
// at call time.
func (m *Manager) SetSharedState(ctx Context, scope Scope, key string, data any, perms *PermissionSet) (*SharedState, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidInput)
	}
	if ctx.Agent == "" {
		return nil, fmt.Errorf("%w: empty acting agent", ErrInvalidInput)
	}

	rec, err := m.store.PutShared(ctx, scope, key, data, perms)
	if err != nil {
		logger.DebugCF("state", "shared write denied", map[string]any{
			"agent": ctx.Agent,
			"scope": scope.String(),
			"key":   key,
		})
		return nil, err
	}
	return rec, nil
}

// DeleteSharedState removes the record for (scope, key). The acting agent
// must hold delete permission; deletion is irreversible and fails closed.
func (m *Manager) DeleteSharedState(ctx Context, scope Scope, key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("%w: empty key", ErrInvalidInput)
	}
	return m.store.DeleteShared(ctx, scope, key)
}

// QueryStates lists the shared records matching the filter that the caller
// can read. See QueryEngine.Query for the filter-then-limit ordering.
func (m *Manager) QueryStates(ctx Context, filter Filter) ([]*SharedState, error) {
	return m.query.Query(ctx, filter)
}

// WrapSession registers an externally-owned legacy session object for
// adaptation, keyed by session id. The first registration wins; wrapping the
// same session twice is a no-op. The object is held as an opaque reference —
// the manager never mutates it.
func (m *Manager) WrapSession(sessionID string, legacy any) error {
	if sessionID == "" {
		return fmt.Errorf("%w: empty session id", ErrInvalidInput)
	}

	m.wrapMu.Lock()
	defer m.wrapMu.Unlock()
	if _, ok := m.wrapped[sessionID]; ok {
		return nil
	}
	m.wrapped[sessionID] = legacy
	m.store.GetOrCreateSession(sessionID)
	return nil
}

// WrappedSession returns the legacy object registered for a session id.
func (m *Manager) WrappedSession(sessionID string) (any, bool) {
	m.wrapMu.Lock()
	defer m.wrapMu.Unlock()
	legacy, ok := m.wrapped[sessionID]
	return legacy, ok
}

// SessionCount returns the number of tracked sessions.
func (m *Manager) SessionCount() int { return m.store.SessionCount() }

// SharedCount returns the number of shared state records.
func (m *Manager) SharedCount() int { return m.store.SharedCount() }
