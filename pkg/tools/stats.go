package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/switchboard-ai/switchboard/pkg/session"
	"github.com/switchboard-ai/switchboard/pkg/state"
)

// StatsTool reports platform counters: sessions, messages, and shared state
// records. Read-only; it never creates sessions as a side effect of asking.
type StatsTool struct {
	states   *state.Manager
	sessions *session.Manager
}

func NewStatsTool(states *state.Manager, sessions *session.Manager) *StatsTool {
	return &StatsTool{states: states, sessions: sessions}
}

func (t *StatsTool) Name() string {
	return "platform_stats"
}

func (t *StatsTool) Description() string {
	return "Get platform statistics: active sessions, total messages, and shared state record counts."
}

func (t *StatsTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *StatsTool) Execute(_ context.Context, _ map[string]any) *ToolResult {
	messages := 0
	for _, sess := range t.sessions.Sessions() {
		messages += len(sess.History())
	}

	stats := map[string]any{
		"sessions":       t.sessions.Count(),
		"tracked_states": t.states.SessionCount(),
		"shared_records": t.states.SharedCount(),
		"messages":       messages,
	}
	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to encode stats: %v", err))
	}
	return NewToolResult(string(out))
}
