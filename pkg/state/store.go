// Switchboard - Multi-agent conversational platform
// License: MIT
//
// Copyright (c) 2026 Switchboard contributors

package state

import (
	"sync"
	"time"
)

type sharedKey struct {
	scope Scope
	key   string
}

// Store is the exclusive owner of the session and shared state collections.
// All reads and writes go through it, under a single lock, so that every
// read-modify-write sequence — including the write-permission check before
// an update — is atomic with respect to concurrent requests. A revoked
// permission can therefore never race an in-flight write on the same key.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*SessionState
	shared      map[sharedKey]*SharedState
	sharedOrder []sharedKey
	now         func() time.Time
	maxSessions int
}

// NewStore creates an empty store. maxSessions caps the number of tracked
// sessions (0 = unbounded); when the cap is exceeded the least recently
// accessed session is evicted. now supplies timestamps and may be nil.
func NewStore(maxSessions int, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions:    make(map[string]*SessionState),
		shared:      make(map[sharedKey]*SharedState),
		now:         now,
		maxSessions: maxSessions,
	}
}

// GetOrCreateSession returns the session state for the given id, creating an
// empty one on first access. LastAccess is bumped as a side effect.
func (s *Store) GetOrCreateSession(sessionID string) *SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.ensureSessionLocked(sessionID)
	return sess.clone()
}

// PeekSession returns the session state without creating it or bumping
// LastAccess. Used by read-only aggregates such as session statistics.
func (s *Store) PeekSession(sessionID string) (*SessionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return sess.clone(), true
}

// MergeSessionData applies a key-wise overwrite of partial into the
// session's data and returns the post-merge state.
func (s *Store) MergeSessionData(sessionID string, partial map[string]any) *SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.ensureSessionLocked(sessionID)
	for k, v := range partial {
		sess.Data[k] = v
	}
	return sess.clone()
}

// GetShared returns the record for (scope, key), pre-permission-check.
func (s *Store) GetShared(scope Scope, key string) (*SharedState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.shared[sharedKey{scope, key}]
	if !ok {
		return nil, false
	}
	return rec.clone(), true
}

// PutShared creates or replaces the record for (scope, key). On first write
// the acting agent becomes the owner and, if perms is nil, the permission
// lists default to owner-only. On subsequent writes the caller must hold
// write permission; data and permissions can be updated independently.
func (s *Store) PutShared(ctx Context, scope Scope, key string, data any, perms *PermissionSet) (*SharedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := sharedKey{scope, key}
	now := s.now()

	rec, ok := s.shared[k]
	if !ok {
		set := OwnerOnly(ctx.Agent)
		if perms != nil {
			set = perms.Clone()
		}
		rec = &SharedState{
			Scope:       scope,
			Key:         key,
			Data:        data,
			Permissions: set,
			Owner:       ctx.Agent,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if scope == ScopeSession {
			rec.SessionID = ctx.SessionID
		}
		s.shared[k] = rec
		s.sharedOrder = append(s.sharedOrder, k)
		return rec.clone(), nil
	}

	if !Allowed(ctx, rec, PermWrite) {
		return nil, ErrDenied
	}

	rec.Data = data
	if perms != nil {
		rec.Permissions = perms.Clone()
	}
	rec.UpdatedAt = now
	return rec.clone(), nil
}

// DeleteShared removes the record for (scope, key) if the acting agent holds
// delete permission. Deletion fails closed: absent permission means ErrDenied
// even though the record stays untouched. Returns whether a record was
// removed; a missing record is not an error.
func (s *Store) DeleteShared(ctx Context, scope Scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := sharedKey{scope, key}
	rec, ok := s.shared[k]
	if !ok {
		return false, nil
	}
	if !Allowed(ctx, rec, PermDelete) {
		return false, ErrDenied
	}

	delete(s.shared, k)
	for i, existing := range s.sharedOrder {
		if existing == k {
			s.sharedOrder = append(s.sharedOrder[:i], s.sharedOrder[i+1:]...)
			break
		}
	}
	return true, nil
}

// ListShared returns the records matching the filter in insertion order,
// pre-permission-filter, truncated to filter.Limit if positive.
func (s *Store) ListShared(filter Filter) []*SharedState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*SharedState, 0, len(s.sharedOrder))
	for _, k := range s.sharedOrder {
		rec := s.shared[k]
		if !filter.matches(rec) {
			continue
		}
		result = append(result, rec.clone())
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result
}

// SessionCount returns the number of tracked sessions.
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SharedCount returns the number of shared state records.
func (s *Store) SharedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shared)
}

// ensureSessionLocked implements get-or-create and the LastAccess bump.
// Must be called with the lock held.
func (s *Store) ensureSessionLocked(sessionID string) *SessionState {
	sess, ok := s.sessions[sessionID]
	if ok {
		sess.LastAccess = s.now()
		return sess
	}

	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked()
	}

	sess = newSessionState(sessionID, s.now())
	s.sessions[sessionID] = sess
	return sess
}

// evictOldestLocked drops the least recently accessed session.
// Must be called with the lock held.
func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	first := true
	for id, sess := range s.sessions {
		if first || sess.LastAccess.Before(oldest) {
			oldestID = id
			oldest = sess.LastAccess
			first = false
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}
