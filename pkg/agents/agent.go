// Package agents hosts the specialist agents and routes incoming messages
// between them. Each agent is one LLM persona with its own system prompt and
// tool set; all of them converse through the shared session and state layers.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/switchboard-ai/switchboard/pkg/compat"
	"github.com/switchboard-ai/switchboard/pkg/logger"
	"github.com/switchboard-ai/switchboard/pkg/providers"
	"github.com/switchboard-ai/switchboard/pkg/session"
	"github.com/switchboard-ai/switchboard/pkg/state"
	"github.com/switchboard-ai/switchboard/pkg/tools"
)

// maxToolIterations bounds the tool-call loop per user message.
const maxToolIterations = 10

// Spec declares one agent: identity, persona, and the routing keywords that
// pull conversations toward it.
type Spec struct {
	Name         string
	Description  string
	SystemPrompt string
	Model        string
	Keywords     []string
}

// Agent is one LLM persona. It reads conversation context through the
// enhanced-session adapter, so private session data and visible shared state
// are folded into every prompt.
type Agent struct {
	spec     Spec
	provider providers.LLMProvider
	sessions *session.Manager
	states   *state.Manager
	enhanced *compat.EnhancedAgent
	base     []tools.Tool
}

// NewAgent builds an agent from its spec. base tools are shared across
// sessions; the shared-state tool is bound per session at call time.
func NewAgent(spec Spec, provider providers.LLMProvider, sessions *session.Manager, states *state.Manager, base []tools.Tool) *Agent {
	if spec.Model == "" {
		spec.Model = provider.DefaultModel()
	}
	return &Agent{
		spec:     spec,
		provider: provider,
		sessions: sessions,
		states:   states,
		enhanced: compat.NewEnhancedAgent(spec.Name, sessions, states),
		base:     base,
	}
}

func (a *Agent) Name() string        { return a.spec.Name }
func (a *Agent) Description() string { return a.spec.Description }
func (a *Agent) Keywords() []string  { return a.spec.Keywords }

// toolsFor builds the tool registry for one session: the agent's shared
// tools plus a shared-state tool carrying this agent's identity and the
// session id, so store permissions apply to the persona itself.
func (a *Agent) toolsFor(sessionID string) *tools.Registry {
	reg := tools.NewRegistry()
	for _, t := range a.base {
		reg.Register(t)
	}
	reg.Register(tools.NewSharedStateTool(a.states, a.spec.Name, sessionID))
	return reg
}

// Respond handles one user message: compose context, run the tool loop,
// record both turns in the session history.
func (a *Agent) Respond(ctx context.Context, sessionID, content string) (string, error) {
	es := a.enhanced.GetOrCreateEnhancedSession(sessionID)
	cc := es.ConversationContext()
	reg := a.toolsFor(sessionID)

	messages := make([]providers.Message, 0, len(cc.Messages)+2)
	messages = append(messages, providers.Message{Role: "system", Content: a.composePrompt(cc)})
	messages = append(messages, cc.Messages...)
	messages = append(messages, providers.Message{Role: "user", Content: content})

	a.sessions.AddMessage(sessionID, "user", content)

	for i := 0; i < maxToolIterations; i++ {
		resp, err := a.provider.Chat(ctx, messages, reg.Definitions(), a.spec.Model, nil)
		if err != nil {
			return "", fmt.Errorf("agent %s: %w", a.spec.Name, err)
		}

		if len(resp.ToolCalls) == 0 {
			a.sessions.AddMessage(sessionID, "assistant", resp.Content)
			return resp.Content, nil
		}

		messages = append(messages, providers.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			result := reg.Execute(ctx, call.Name, call.Arguments)
			if result.IsError {
				logger.WarnCF("agents", "tool execution failed", map[string]any{
					"agent": a.spec.Name,
					"tool":  call.Name,
					"error": result.ForLLM,
				})
			}
			messages = append(messages, providers.Message{
				Role:       "tool",
				Content:    result.ForLLM,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("agent %s: tool loop exceeded %d iterations", a.spec.Name, maxToolIterations)
}

// composePrompt folds the session's private data and visible shared records
// into the system prompt so the persona sees everything it is allowed to.
func (a *Agent) composePrompt(cc compat.ConversationContext) string {
	var sb strings.Builder
	sb.WriteString(a.spec.SystemPrompt)

	if len(cc.SessionData) > 0 {
		sb.WriteString("\n\nSession data:\n")
		for k, v := range cc.SessionData {
			sb.WriteString(fmt.Sprintf("- %s: %v\n", k, v))
		}
	}
	if len(cc.SharedData) > 0 {
		sb.WriteString("\nShared state visible to you:\n")
		for _, rec := range cc.SharedData {
			sb.WriteString(fmt.Sprintf("- [%s] %s (from %s): %v\n", rec.Scope, rec.Key, rec.Owner, rec.Data))
		}
	}
	return sb.String()
}
