package compat

import (
	"fmt"
	"testing"

	"github.com/switchboard-ai/switchboard/pkg/session"
	"github.com/switchboard-ai/switchboard/pkg/state"
)

func newStates() *state.Manager {
	return state.NewManager(state.Options{})
}

func TestEnhancedSession_SessionData(t *testing.T) {
	states := newStates()
	legacy := session.NewManager("").GetOrCreate("s1")
	es := NewEnhancedSession("s1", "AgentA", legacy, states)

	if !es.SetSessionData("customer", "ACME") {
		t.Fatal("SetSessionData failed")
	}
	if v, ok := es.SessionValue("customer"); !ok || v != "ACME" {
		t.Errorf("SessionValue = %v, %v", v, ok)
	}
	if _, ok := es.SessionValue("missing"); ok {
		t.Error("SessionValue reported a missing key as present")
	}
	if len(es.SessionData()) != 1 {
		t.Errorf("SessionData size = %d, want 1", len(es.SessionData()))
	}
}

func TestEnhancedSession_PrivateDataIsolatedPerSession(t *testing.T) {
	states := newStates()
	sm := session.NewManager("")
	es1 := NewEnhancedSession("s1", "AgentA", sm.GetOrCreate("s1"), states)
	es2 := NewEnhancedSession("s2", "AgentA", sm.GetOrCreate("s2"), states)

	es1.SetSessionData("secret", "mine")
	if _, ok := es2.SessionValue("secret"); ok {
		t.Error("session private data leaked across sessions")
	}
}

func TestEnhancedSession_ShareWithAgent(t *testing.T) {
	states := newStates()
	sm := session.NewManager("")
	a := NewEnhancedSession("s1", "AgentA", sm.GetOrCreate("s1"), states)
	b := NewEnhancedSession("s2", "AgentB", sm.GetOrCreate("s2"), states)
	c := NewEnhancedSession("s3", "AgentC", sm.GetOrCreate("s3"), states)

	if !a.ShareWithAgent("AgentB", "notes", "handoff details") {
		t.Fatal("ShareWithAgent failed")
	}

	if v, ok := b.SharedState(state.ScopeGlobal, "agent-share:notes"); !ok || v != "handoff details" {
		t.Errorf("AgentB read = %v, %v, want shared data", v, ok)
	}
	if _, ok := c.SharedState(state.ScopeGlobal, "agent-share:notes"); ok {
		t.Error("AgentC read shared data it was never granted")
	}

	// Both sides write, only the sharer deletes.
	if !b.SetSharedState(state.ScopeGlobal, "agent-share:notes", "updated", nil) {
		t.Error("AgentB write should be allowed")
	}
	ctxB := state.NewContext("s2", "AgentB")
	if _, err := states.DeleteSharedState(ctxB, state.ScopeGlobal, "agent-share:notes"); err == nil {
		t.Error("AgentB delete should be denied")
	}
	ctxA := state.NewContext("s1", "AgentA")
	if removed, err := states.DeleteSharedState(ctxA, state.ScopeGlobal, "agent-share:notes"); err != nil || !removed {
		t.Errorf("AgentA delete: removed=%v err=%v", removed, err)
	}
}

func TestEnhancedSession_ShareInSession(t *testing.T) {
	states := newStates()
	sm := session.NewManager("")
	es := NewEnhancedSession("s1", "AgentA", sm.GetOrCreate("s1"), states)

	if !es.ShareInSession("draft", "wip") {
		t.Fatal("ShareInSession failed")
	}

	rec, err := states.GetSharedState(state.NewContext("s1", "AgentA"), state.ScopeSession, "session:s1:draft")
	if err != nil || rec == nil {
		t.Fatalf("session-scoped record not found: rec=%v err=%v", rec, err)
	}
	if rec.SessionID != "s1" {
		t.Errorf("SessionID = %q, want s1", rec.SessionID)
	}
}

func TestEnhancedSession_ConversationContext(t *testing.T) {
	states := newStates()
	sm := session.NewManager("")
	sm.AddMessage("s1", "user", "hello")
	sm.AddMessage("s1", "assistant", "hi")
	es := NewEnhancedSession("s1", "AgentA", sm.GetOrCreate("s1"), states)

	es.SetSessionData("customer", "ACME")
	for i := 0; i < 15; i++ {
		es.ShareInSession(fmt.Sprintf("item%d", i), i)
	}

	cc := es.ConversationContext()
	if len(cc.Messages) != 2 {
		t.Errorf("Messages = %d, want 2", len(cc.Messages))
	}
	if cc.SessionData["customer"] != "ACME" {
		t.Errorf("SessionData[customer] = %v", cc.SessionData["customer"])
	}
	if len(cc.SharedData) != 10 {
		t.Errorf("SharedData = %d records, want capped at 10", len(cc.SharedData))
	}
}

func TestEnhancedSession_DegradedWithoutHistory(t *testing.T) {
	states := newStates()
	es := NewEnhancedSession("s1", "AgentA", nil, states)

	cc := es.ConversationContext()
	if cc.Messages == nil || len(cc.Messages) != 0 {
		t.Errorf("degraded adapter messages = %v, want empty", cc.Messages)
	}
	if !es.SetSessionData("k", "v") {
		t.Error("state capabilities must survive a missing message history")
	}
}

func TestEnhancedSession_StatsReadOnly(t *testing.T) {
	states := newStates()
	sm := session.NewManager("")
	sm.AddMessage("s1", "user", "one")
	es := NewEnhancedSession("s1", "AgentA", sm.GetOrCreate("s1"), states)

	before := states.SessionCount()
	stats := es.Stats()
	if states.SessionCount() != before {
		t.Error("Stats created session state")
	}
	if stats.MessageCount != 1 {
		t.Errorf("MessageCount = %d, want 1", stats.MessageCount)
	}

	es.SetSessionData("a", 1)
	es.ShareInSession("b", 2)
	stats = es.Stats()
	if stats.SessionDataSize != 1 {
		t.Errorf("SessionDataSize = %d, want 1", stats.SessionDataSize)
	}
	if stats.SharedStatesCount != 1 {
		t.Errorf("SharedStatesCount = %d, want 1", stats.SharedStatesCount)
	}
	if stats.LastActivity == "" {
		t.Error("LastActivity empty after writes")
	}
}

func TestEnhancedAgent_WrapsExistingSessions(t *testing.T) {
	states := newStates()
	sm := session.NewManager("")
	s1 := sm.GetOrCreate("s1")
	s2 := sm.GetOrCreate("s2")

	ea := NewEnhancedAgent("AgentA", sm, states)

	if got := len(ea.SessionIDs()); got != 2 {
		t.Fatalf("wrapped %d sessions, want 2", got)
	}
	es1, ok := ea.EnhancedSession("s1")
	if !ok {
		t.Fatal("s1 not wrapped")
	}
	if es1.Original() != MessageHistory(s1) {
		t.Error("s1 adapter not backed by the pre-wrap session object")
	}
	es2, _ := ea.EnhancedSession("s2")
	if es2.Original() != MessageHistory(s2) {
		t.Error("s2 adapter not backed by the pre-wrap session object")
	}
}

func TestEnhancedAgent_GetOrCreateEnhancedSession(t *testing.T) {
	states := newStates()
	sm := session.NewManager("")
	ea := NewEnhancedAgent("AgentA", sm, states)

	es := ea.GetOrCreateEnhancedSession("s9")
	if es == nil {
		t.Fatal("expected adapter")
	}
	if again := ea.GetOrCreateEnhancedSession("s9"); again != es {
		t.Error("GetOrCreateEnhancedSession not idempotent")
	}
	if sm.Count() != 1 {
		t.Errorf("legacy sessions = %d, want 1 created through the legacy object", sm.Count())
	}
}

func TestEnhancedAgent_LegacyBehaviorPreserved(t *testing.T) {
	states := newStates()
	sm := session.NewManager("")
	sm.AddMessage("s1", "user", "before wrap")

	ea := NewEnhancedAgent("AgentA", sm, states)

	// The legacy object keeps working through the wrapper, and mutations by
	// its original owner stay visible to the adapter.
	ea.Legacy().GetOrCreate("s1")
	sm.AddMessage("s1", "assistant", "after wrap")

	es, _ := ea.EnhancedSession("s1")
	if got := len(es.ConversationContext().Messages); got != 2 {
		t.Errorf("adapter sees %d messages, want 2", got)
	}
}
