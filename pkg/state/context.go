// Switchboard - Multi-agent conversational platform
// License: MIT
//
// Copyright (c) 2026 Switchboard contributors

package state

import "time"

// Context identifies who is making a state request. It is an immutable
// value constructed fresh for every operation and never stored.
//
// Agent is a trusted caller-supplied label, not a verified principal;
// authenticating end users is out of scope for the state layer.
type Context struct {
	SessionID string
	Agent     string
	Timestamp time.Time
}

// NewContext builds a request context for the given session and acting agent.
func NewContext(sessionID, agent string) Context {
	return Context{
		SessionID: sessionID,
		Agent:     agent,
		Timestamp: time.Now(),
	}
}
