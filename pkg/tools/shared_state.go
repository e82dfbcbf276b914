package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/switchboard-ai/switchboard/pkg/state"
)

// SharedStateTool exposes the shared state store to an LLM agent. Each
// instance is bound to one agent identity and one session, so every store
// operation carries the right caller context and the permission model applies
// to the agent itself, not the tool layer.
type SharedStateTool struct {
	states    *state.Manager
	agent     string
	sessionID string
}

// NewSharedStateTool binds the store to an acting agent within a session.
func NewSharedStateTool(states *state.Manager, agent, sessionID string) *SharedStateTool {
	return &SharedStateTool{
		states:    states,
		agent:     agent,
		sessionID: sessionID,
	}
}

func (t *SharedStateTool) Name() string { return "shared_state" }

func (t *SharedStateTool) Description() string {
	return "Read, write, list, or delete shared state records visible to this agent. " +
		"Use scope \"session\" for data tied to the current conversation and \"global\" " +
		"to hand information to other agents."
}

func (t *SharedStateTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"enum":        []string{"read", "write", "list", "delete"},
				"description": "The action to perform on the shared state store",
			},
			"scope": map[string]any{
				"type":        "string",
				"enum":        []string{"global", "session"},
				"description": "Record scope; defaults to session",
			},
			"key": map[string]any{
				"type":        "string",
				"description": "The key to read, write, or delete (not required for list)",
			},
			"value": map[string]any{
				"type":        "string",
				"description": "The value to write (only required for write action)",
			},
			"share_with": map[string]any{
				"type":        "array",
				"description": "Agent names granted read and write access on a new record",
				"items": map[string]any{
					"type": "string",
				},
			},
		},
		"required": []string{"action"},
	}
}

func (t *SharedStateTool) Execute(_ context.Context, args map[string]any) *ToolResult {
	action, _ := args["action"].(string)
	key, _ := args["key"].(string)
	value, _ := args["value"].(string)

	scope := state.ScopeSession
	if s, _ := args["scope"].(string); s != "" {
		parsed, err := state.ParseScope(s)
		if err != nil {
			return ErrorResult(fmt.Sprintf("invalid scope %q; use global or session", s))
		}
		scope = parsed
	}

	ctx := state.NewContext(t.sessionID, t.agent)

	switch strings.ToLower(action) {
	case "read":
		if key == "" {
			return ErrorResult("key is required for read action")
		}
		rec, err := t.states.GetSharedState(ctx, scope, key)
		if err != nil {
			return ErrorResult(fmt.Sprintf("read failed: %v", err))
		}
		if rec == nil {
			return NewToolResult(fmt.Sprintf("No readable record for key %q", key))
		}
		return NewToolResult(fmt.Sprintf("Key: %s\nScope: %s\nOwner: %s\nValue: %v",
			rec.Key, rec.Scope, rec.Owner, rec.Data))

	case "write":
		if key == "" {
			return ErrorResult("key is required for write action")
		}
		if value == "" {
			return ErrorResult("value is required for write action")
		}
		perms := t.sharePermissions(args)
		if _, err := t.states.SetSharedState(ctx, scope, key, value, perms); err != nil {
			return ErrorResult(fmt.Sprintf("write failed: %v", err))
		}
		return NewToolResult(fmt.Sprintf("Written key %q to %s state", key, scope))

	case "list":
		filter := state.Filter{SessionID: t.sessionID}
		if scope == state.ScopeGlobal {
			filter = state.Filter{Scope: &scope}
		}
		records, err := t.states.QueryStates(ctx, filter)
		if err != nil {
			return ErrorResult(fmt.Sprintf("list failed: %v", err))
		}
		if len(records) == 0 {
			return NewToolResult("No shared state records visible")
		}
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Shared state records (%d):\n", len(records)))
		for _, rec := range records {
			sb.WriteString(fmt.Sprintf("- [%s] %s (owner %s): %v\n", rec.Scope, rec.Key, rec.Owner, rec.Data))
		}
		return NewToolResult(sb.String())

	case "delete":
		if key == "" {
			return ErrorResult("key is required for delete action")
		}
		removed, err := t.states.DeleteSharedState(ctx, scope, key)
		if err != nil {
			return ErrorResult(fmt.Sprintf("delete failed: %v", err))
		}
		if removed {
			return NewToolResult(fmt.Sprintf("Deleted key %q from %s state", key, scope))
		}
		return NewToolResult(fmt.Sprintf("Key %q not found in %s state", key, scope))

	default:
		return ErrorResult(fmt.Sprintf("unknown action %q; use read, write, list, or delete", action))
	}
}

// sharePermissions builds the permission lists for a new record from the
// share_with argument. Nil means owner-only, the store default.
func (t *SharedStateTool) sharePermissions(args map[string]any) *state.PermissionSet {
	raw, ok := args["share_with"].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}

	agents := []string{t.agent}
	for _, entry := range raw {
		if name, ok := entry.(string); ok && name != "" {
			agents = append(agents, name)
		}
	}
	return &state.PermissionSet{
		Read:   agents,
		Write:  agents,
		Delete: []string{t.agent},
	}
}
