// Switchboard - Multi-agent conversational platform
// License: MIT
//
// Copyright (c) 2026 Switchboard contributors

package state

import "time"

// SharedState is a record visible across sessions and agents, gated by its
// scope and permission lists. The (scope, key) pair identifies the record;
// the key itself is an opaque string and immutable after creation.
// Colon-delimited key conventions such as "agent-share:notes" are caller
// namespacing only — the store never parses them.
type SharedState struct {
	Scope Scope  `json:"scope"`
	Key   string `json:"key"`

	// SessionID is set for session-scoped records and empty for global
	// ones. It is a first-class field so querying by session does not
	// depend on key prefix conventions.
	SessionID string `json:"session_id,omitempty"`

	Data        any           `json:"data"`
	Permissions PermissionSet `json:"permissions"`
	Owner       string        `json:"owner"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// clone returns a snapshot safe to hand to callers. Data is shared as-is;
// it is treated as an opaque value at this boundary.
func (r *SharedState) clone() *SharedState {
	cp := *r
	cp.Permissions = r.Permissions.Clone()
	return &cp
}
