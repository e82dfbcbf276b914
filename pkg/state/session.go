// Switchboard - Multi-agent conversational platform
// License: MIT
//
// Copyright (c) 2026 Switchboard contributors

package state

import "time"

// SessionState is the private key/value store of one session. Its data is
// never reachable through the shared-state read or query paths; only the
// session-scoped accessors keyed by session id can see it.
type SessionState struct {
	SessionID  string         `json:"session_id"`
	Data       map[string]any `json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
	LastAccess time.Time      `json:"last_access"`
}

func newSessionState(sessionID string, now time.Time) *SessionState {
	return &SessionState{
		SessionID:  sessionID,
		Data:       make(map[string]any),
		CreatedAt:  now,
		LastAccess: now,
	}
}

// clone returns a snapshot safe to hand to callers. Data values are copied
// key-wise; nested values are shared, callers must not mutate them.
func (s *SessionState) clone() *SessionState {
	data := make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		data[k] = v
	}
	return &SessionState{
		SessionID:  s.SessionID,
		Data:       data,
		CreatedAt:  s.CreatedAt,
		LastAccess: s.LastAccess,
	}
}
