// Package compat retrofits state-management capabilities onto the legacy
// session and agent types, which predate the state layer. The capabilities
// the adapters need from a legacy object are explicit interfaces, never
// reflective forwarding: any legacy integration implements MessageHistory
// and SessionSource or adapts to them.
package compat

import (
	"time"

	"github.com/switchboard-ai/switchboard/pkg/logger"
	"github.com/switchboard-ai/switchboard/pkg/providers"
	"github.com/switchboard-ai/switchboard/pkg/state"
)

// MessageHistory is the minimum capability an enhanced session requires of
// the legacy session object it wraps.
type MessageHistory interface {
	History() []providers.Message
}

// EnhancedSession wraps one externally-owned legacy session and gives it
// access to private session data and cross-agent shared state through a
// state.Manager. The legacy object is borrowed: its original owner keeps
// mutating it, and every existing caller that only knows the legacy type
// keeps working against Original().
type EnhancedSession struct {
	sessionID string
	agent     string
	legacy    MessageHistory
	states    *state.Manager
}

// ConversationContext is the composed view an agent receives before
// responding: the legacy message history, the session's private data, and
// the shared records visible to this session.
type ConversationContext struct {
	Messages    []providers.Message  `json:"messages"`
	SessionData map[string]any       `json:"session_data"`
	SharedData  []*state.SharedState `json:"shared_data"`
}

// SessionStats is a read-only aggregate over one enhanced session.
type SessionStats struct {
	MessageCount      int    `json:"message_count"`
	SessionDataSize   int    `json:"session_data_size"`
	SharedStatesCount int    `json:"shared_states_count"`
	LastActivity      string `json:"last_activity"`
}

// contextWindow caps how many shared records are folded into a
// conversation context.
const contextWindow = 10

// NewEnhancedSession wraps a legacy session. A nil legacy object is allowed:
// the adapter still works in a degraded mode where the message history is
// empty, because breaking an existing session entirely would be worse than
// losing one capability.
func NewEnhancedSession(sessionID, agent string, legacy MessageHistory, states *state.Manager) *EnhancedSession {
	if legacy == nil {
		logger.WarnCF("compat", "legacy session lacks message history, wrapping degraded", map[string]any{
			"session": sessionID,
		})
	}

	if err := states.WrapSession(sessionID, legacy); err != nil {
		logger.WarnCF("compat", "session registration failed", map[string]any{
			"session": sessionID,
			"error":   err.Error(),
		})
	}

	return &EnhancedSession{
		sessionID: sessionID,
		agent:     agent,
		legacy:    legacy,
		states:    states,
	}
}

// Original returns the wrapped legacy session for callers that only know
// the legacy type.
func (e *EnhancedSession) Original() MessageHistory {
	return e.legacy
}

// SessionID returns the wrapped session's id.
func (e *EnhancedSession) SessionID() string {
	return e.sessionID
}

func (e *EnhancedSession) ctx() state.Context {
	return state.NewContext(e.sessionID, e.agent)
}

// SessionData returns the whole private data mapping of this session.
func (e *EnhancedSession) SessionData() map[string]any {
	sess, err := e.states.GetSessionState(e.ctx(), e.sessionID)
	if err != nil {
		return map[string]any{}
	}
	return sess.Data
}

// SessionValue returns one field of the session's private data.
func (e *EnhancedSession) SessionValue(key string) (any, bool) {
	v, ok := e.SessionData()[key]
	return v, ok
}

// SetSessionData merges a single key/value pair into the session's private
// data and reports success.
func (e *EnhancedSession) SetSessionData(key string, value any) bool {
	_, err := e.states.UpdateSessionState(e.ctx(), e.sessionID, map[string]any{key: value})
	return err == nil
}

// SharedState reads a shared record under this session's identity. Denied
// and absent are indistinguishable, by design of the state layer.
func (e *EnhancedSession) SharedState(scope state.Scope, key string) (any, bool) {
	rec, err := e.states.GetSharedState(e.ctx(), scope, key)
	if err != nil || rec == nil {
		return nil, false
	}
	return rec.Data, true
}

// SetSharedState writes a shared record under this session's identity.
func (e *EnhancedSession) SetSharedState(scope state.Scope, key string, data any, perms *state.PermissionSet) bool {
	_, err := e.states.SetSharedState(e.ctx(), scope, key, data, perms)
	return err == nil
}

// ShareWithAgent publishes data to one named agent: both sides can read and
// write, only this side can delete.
func (e *EnhancedSession) ShareWithAgent(otherAgent, key string, data any) bool {
	perms := state.PermissionSet{
		Read:   []string{otherAgent, e.agent},
		Write:  []string{otherAgent, e.agent},
		Delete: []string{e.agent},
	}
	return e.SetSharedState(state.ScopeGlobal, "agent-share:"+key, data, &perms)
}

// ShareInSession publishes data under this session's scope. The session id
// in the key is caller-level namespacing; the store partitions by scope.
func (e *EnhancedSession) ShareInSession(key string, data any) bool {
	return e.SetSharedState(state.ScopeSession, "session:"+e.sessionID+":"+key, data, nil)
}

// ConversationContext composes the legacy message history with this
// session's private data and up to contextWindow visible shared records.
func (e *EnhancedSession) ConversationContext() ConversationContext {
	messages := []providers.Message{}
	if e.legacy != nil {
		messages = e.legacy.History()
	}

	shared, err := e.states.QueryStates(e.ctx(), state.Filter{
		SessionID: e.sessionID,
		Limit:     contextWindow,
	})
	if err != nil {
		shared = nil
	}

	return ConversationContext{
		Messages:    messages,
		SessionData: e.SessionData(),
		SharedData:  shared,
	}
}

// Stats returns a read-only aggregate; it never mutates state, so a session
// that was never written to reports zero values rather than springing into
// existence.
func (e *EnhancedSession) Stats() SessionStats {
	stats := SessionStats{}
	if e.legacy != nil {
		stats.MessageCount = len(e.legacy.History())
	}

	if sess, ok := e.states.PeekSessionState(e.ctx(), e.sessionID); ok {
		stats.SessionDataSize = len(sess.Data)
		stats.LastActivity = sess.LastAccess.UTC().Format(time.RFC3339)
	}

	shared, err := e.states.QueryStates(e.ctx(), state.Filter{SessionID: e.sessionID})
	if err == nil {
		stats.SharedStatesCount = len(shared)
	}
	return stats
}
