package tools

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/switchboard-ai/switchboard/pkg/session"
	"github.com/switchboard-ai/switchboard/pkg/state"
)

func TestRegistry_DefinitionsInRegistrationOrder(t *testing.T) {
	states := state.NewManager(state.Options{})
	reg := NewRegistry()
	reg.Register(NewSharedStateTool(states, "AgentA", "s1"))
	reg.Register(NewCRMTool("key", "http://crm.local", 10))

	defs := reg.Definitions()
	if len(defs) != 2 {
		t.Fatalf("definitions = %d, want 2", len(defs))
	}
	if defs[0].Name != "shared_state" || defs[1].Name != "crm_lookup" {
		t.Errorf("definition order = %s, %s", defs[0].Name, defs[1].Name)
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	reg := NewRegistry()
	result := reg.Execute(context.Background(), "nope", nil)
	if !result.IsError {
		t.Error("unknown tool should produce an error result")
	}
}

func TestSharedStateTool_WriteReadDelete(t *testing.T) {
	states := state.NewManager(state.Options{})
	tool := NewSharedStateTool(states, "AgentA", "s1")
	ctx := context.Background()

	result := tool.Execute(ctx, map[string]any{
		"action": "write", "key": "draft", "value": "hello",
	})
	if result.IsError {
		t.Fatalf("write failed: %s", result.ForLLM)
	}

	result = tool.Execute(ctx, map[string]any{"action": "read", "key": "draft"})
	if result.IsError || !strings.Contains(result.ForLLM, "hello") {
		t.Errorf("read = %q", result.ForLLM)
	}

	result = tool.Execute(ctx, map[string]any{"action": "delete", "key": "draft"})
	if result.IsError || !strings.Contains(result.ForLLM, "Deleted") {
		t.Errorf("delete = %q", result.ForLLM)
	}
}

func TestSharedStateTool_PermissionsApplyToAgentIdentity(t *testing.T) {
	states := state.NewManager(state.Options{})
	writer := NewSharedStateTool(states, "AgentA", "s1")
	reader := NewSharedStateTool(states, "AgentB", "s2")
	ctx := context.Background()

	writer.Execute(ctx, map[string]any{
		"action": "write", "scope": "global", "key": "private", "value": "secret",
	})

	result := reader.Execute(ctx, map[string]any{
		"action": "read", "scope": "global", "key": "private",
	})
	if result.IsError {
		t.Fatalf("read errored: %s", result.ForLLM)
	}
	if strings.Contains(result.ForLLM, "secret") {
		t.Error("owner-only record leaked to another agent")
	}

	// share_with grants the named agent read and write, delete stays with
	// the creator.
	writer.Execute(ctx, map[string]any{
		"action": "write", "scope": "global", "key": "handoff", "value": "notes",
		"share_with": []any{"AgentB"},
	})
	result = reader.Execute(ctx, map[string]any{
		"action": "read", "scope": "global", "key": "handoff",
	})
	if !strings.Contains(result.ForLLM, "notes") {
		t.Errorf("granted agent cannot read: %q", result.ForLLM)
	}
	result = reader.Execute(ctx, map[string]any{
		"action": "delete", "scope": "global", "key": "handoff",
	})
	if !result.IsError {
		t.Error("delete by non-owner without grant should fail")
	}
}

func TestSharedStateTool_ListAndValidation(t *testing.T) {
	states := state.NewManager(state.Options{})
	tool := NewSharedStateTool(states, "AgentA", "s1")
	ctx := context.Background()

	if res := tool.Execute(ctx, map[string]any{"action": "list"}); res.IsError || !strings.Contains(res.ForLLM, "No shared state") {
		t.Errorf("empty list = %q", res.ForLLM)
	}

	tool.Execute(ctx, map[string]any{"action": "write", "key": "a", "value": "1"})
	tool.Execute(ctx, map[string]any{"action": "write", "scope": "global", "key": "b", "value": "2"})

	res := tool.Execute(ctx, map[string]any{"action": "list"})
	if !strings.Contains(res.ForLLM, "[session] a") || !strings.Contains(res.ForLLM, "[global] b") {
		t.Errorf("session list should include globals: %q", res.ForLLM)
	}

	if res := tool.Execute(ctx, map[string]any{"action": "write", "key": "x"}); !res.IsError {
		t.Error("write without value should fail")
	}
	if res := tool.Execute(ctx, map[string]any{"action": "read", "scope": "bogus", "key": "a"}); !res.IsError {
		t.Error("invalid scope should fail")
	}
	if res := tool.Execute(ctx, map[string]any{"action": "purge"}); !res.IsError {
		t.Error("unknown action should fail")
	}
}

func TestStatsTool(t *testing.T) {
	states := state.NewManager(state.Options{})
	sessions := session.NewManager("")
	sessions.AddMessage("s1", "user", "hi")
	sessions.AddMessage("s1", "assistant", "hello")
	sessions.AddMessage("s2", "user", "hey")

	st := NewSharedStateTool(states, "AgentA", "s1")
	st.Execute(context.Background(), map[string]any{"action": "write", "key": "k", "value": "v"})

	tool := NewStatsTool(states, sessions)
	result := tool.Execute(context.Background(), nil)
	if result.IsError {
		t.Fatalf("stats errored: %s", result.ForLLM)
	}
	for _, want := range []string{`"sessions": 2`, `"messages": 3`, `"shared_records": 1`} {
		if !strings.Contains(result.ForLLM, want) {
			t.Errorf("stats output missing %s: %s", want, result.ForLLM)
		}
	}
}

func TestCRMTool_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/customers" && r.URL.Query().Get("email") == "jo@example.com":
			w.Write([]byte(`{"id":"c-1","name":"Jo","plan":"pro"}`))
		case r.URL.Path == "/customers/c-404":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	tool := NewCRMTool("test-key", server.URL, 60)
	ctx := context.Background()

	result := tool.Execute(ctx, map[string]any{"email": "jo@example.com"})
	if result.IsError {
		t.Fatalf("lookup errored: %s", result.ForLLM)
	}
	if !strings.Contains(result.ForLLM, `"plan": "pro"`) {
		t.Errorf("lookup = %q", result.ForLLM)
	}

	result = tool.Execute(ctx, map[string]any{"customer_id": "c-404"})
	if result.IsError || !strings.Contains(result.ForLLM, "No matching customer") {
		t.Errorf("missing customer = %q", result.ForLLM)
	}

	if res := tool.Execute(ctx, map[string]any{}); !res.IsError {
		t.Error("lookup without email or id should fail")
	}

	unconfigured := NewCRMTool("", server.URL, 60)
	if res := unconfigured.Execute(ctx, map[string]any{"email": "jo@example.com"}); !res.IsError {
		t.Error("missing API key should fail")
	}
}

func TestCRMNoteTool(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/customers/c-1/notes" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	tool := NewCRMNoteTool(NewCRMTool("test-key", server.URL, 60))
	ctx := context.Background()

	result := tool.Execute(ctx, map[string]any{"customer_id": "c-1", "note": "follow up in March"})
	if result.IsError {
		t.Fatalf("add note errored: %s", result.ForLLM)
	}
	if !strings.Contains(gotBody, "follow up in March") {
		t.Errorf("request body = %q", gotBody)
	}

	if res := tool.Execute(ctx, map[string]any{"note": "x"}); !res.IsError {
		t.Error("missing customer_id should fail")
	}
}
