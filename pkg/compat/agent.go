package compat

import (
	"sync"

	"github.com/switchboard-ai/switchboard/pkg/logger"
	"github.com/switchboard-ai/switchboard/pkg/session"
	"github.com/switchboard-ai/switchboard/pkg/state"
)

// SessionSource is the capability an enhanced agent requires of the legacy
// multi-session object it wraps: enumerate existing sessions and
// get-or-create by id. session.Manager satisfies it.
type SessionSource interface {
	Sessions() map[string]*session.Session
	GetOrCreate(key string) *session.Session
}

// EnhancedAgent wraps a legacy multi-session object. At wrap time it builds
// one EnhancedSession per existing session, each backed by the original
// session object; later sessions are adapted lazily. Everything the legacy
// object could already do stays reachable through Legacy() — the wrapper
// adds capabilities, it never alters original behavior.
type EnhancedAgent struct {
	agent  string
	legacy SessionSource
	states *state.Manager

	mu       sync.Mutex
	enhanced map[string]*EnhancedSession
}

// NewEnhancedAgent wraps legacy, adapting every session it already holds.
func NewEnhancedAgent(agent string, legacy SessionSource, states *state.Manager) *EnhancedAgent {
	ea := &EnhancedAgent{
		agent:    agent,
		legacy:   legacy,
		states:   states,
		enhanced: make(map[string]*EnhancedSession),
	}

	existing := legacy.Sessions()
	for id, sess := range existing {
		ea.enhanced[id] = NewEnhancedSession(id, agent, sess, states)
	}
	if len(existing) > 0 {
		logger.InfoCF("compat", "wrapped legacy agent", map[string]any{
			"agent":    agent,
			"sessions": len(existing),
		})
	}
	return ea
}

// Legacy returns the wrapped object for callers that only know its type.
func (a *EnhancedAgent) Legacy() SessionSource {
	return a.legacy
}

// GetOrCreateEnhancedSession returns the enhanced session for id, adapting
// the legacy session (created on demand through the legacy object itself)
// if it has not been wrapped yet.
func (a *EnhancedAgent) GetOrCreateEnhancedSession(id string) *EnhancedSession {
	a.mu.Lock()
	defer a.mu.Unlock()

	if es, ok := a.enhanced[id]; ok {
		return es
	}

	es := NewEnhancedSession(id, a.agent, a.legacy.GetOrCreate(id), a.states)
	a.enhanced[id] = es
	return es
}

// EnhancedSession returns the adapter for id if one exists.
func (a *EnhancedAgent) EnhancedSession(id string) (*EnhancedSession, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	es, ok := a.enhanced[id]
	return es, ok
}

// SessionIDs lists the ids of all wrapped sessions.
func (a *EnhancedAgent) SessionIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]string, 0, len(a.enhanced))
	for id := range a.enhanced {
		ids = append(ids, id)
	}
	return ids
}
