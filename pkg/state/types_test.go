// Switchboard - Multi-agent conversational platform
// License: MIT
//
// Copyright (c) 2026 Switchboard contributors

package state

import (
	"encoding/json"
	"testing"
)

func TestScope_String(t *testing.T) {
	tests := []struct {
		scope Scope
		want  string
	}{
		{ScopeGlobal, "global"},
		{ScopeSession, "session"},
		{Scope(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.scope.String(); got != tt.want {
			t.Errorf("Scope(%d).String() = %q, want %q", tt.scope, got, tt.want)
		}
	}
}

func TestParseScope(t *testing.T) {
	for _, s := range []string{"global", "session"} {
		scope, err := ParseScope(s)
		if err != nil {
			t.Fatalf("ParseScope(%q): %v", s, err)
		}
		if scope.String() != s {
			t.Errorf("round trip %q -> %q", s, scope.String())
		}
	}

	if _, err := ParseScope("cosmic"); err == nil {
		t.Error("expected error for unknown scope")
	}
}

func TestScope_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(ScopeSession)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"session"` {
		t.Errorf("Marshal = %s, want \"session\"", data)
	}

	var scope Scope
	if err := json.Unmarshal(data, &scope); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if scope != ScopeSession {
		t.Errorf("Unmarshal = %v, want ScopeSession", scope)
	}
}

func TestPermissionSet_Clone(t *testing.T) {
	orig := PermissionSet{Read: []string{"A"}, Write: []string{"A"}, Delete: []string{"A"}}
	cp := orig.Clone()
	cp.Read[0] = "B"

	if orig.Read[0] != "A" {
		t.Error("Clone shares backing array with original")
	}
}

func TestOwnerOnly(t *testing.T) {
	ps := OwnerOnly("AgentA")
	for _, perm := range []Permission{PermRead, PermWrite, PermDelete} {
		list := ps.List(perm)
		if len(list) != 1 || list[0] != "AgentA" {
			t.Errorf("%s list = %v, want [AgentA]", perm, list)
		}
	}
}
