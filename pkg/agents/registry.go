package agents

import (
	"strings"
	"sync"

	"github.com/switchboard-ai/switchboard/pkg/logger"
	"github.com/switchboard-ai/switchboard/pkg/providers"
	"github.com/switchboard-ai/switchboard/pkg/session"
	"github.com/switchboard-ai/switchboard/pkg/state"
	"github.com/switchboard-ai/switchboard/pkg/tools"
)

// Registry manages the agent roster and routes messages to the right one.
type Registry struct {
	mu          sync.RWMutex
	agents      map[string]*Agent
	order       []string
	defaultName string
}

// Deps carries the shared infrastructure every agent is wired to.
type Deps struct {
	Provider providers.LLMProvider
	Sessions *session.Manager
	States   *state.Manager
	// BaseTools are registered with every agent (CRM, stats, ...).
	BaseTools []tools.Tool
}

// builtinSpecs is the default roster. The first entry is the fallback when
// no keywords match.
func builtinSpecs() []Spec {
	return []Spec{
		{
			Name:        "general",
			Description: "General-purpose assistant for anything without a specialist",
			SystemPrompt: "You are the general assistant of a customer-facing platform. " +
				"Answer directly; when a question belongs to sales, support, or analytics, " +
				"note that a specialist handled similar topics in shared state.",
		},
		{
			Name:        "sales",
			Description: "Handles pricing, plans, upgrades, and purchases",
			SystemPrompt: "You are the sales specialist. Help with plans, pricing, and upgrades. " +
				"Record qualified leads in shared state so other agents see them.",
			Keywords: []string{"price", "pricing", "plan", "upgrade", "buy", "purchase", "quote", "discount"},
		},
		{
			Name:        "support",
			Description: "Handles bugs, errors, and account problems",
			SystemPrompt: "You are the support specialist. Diagnose problems, look up the customer " +
				"in the CRM when an email is given, and share open-issue summaries with other agents.",
			Keywords: []string{"bug", "error", "broken", "crash", "issue", "problem", "help", "login"},
		},
		{
			Name:        "analyst",
			Description: "Reports on platform usage and statistics",
			SystemPrompt: "You are the analytics specialist. Use the platform statistics tool to " +
				"answer questions about usage, sessions, and activity.",
			Keywords: []string{"stats", "statistics", "usage", "report", "metrics", "how many"},
		},
	}
}

// NewRegistry builds the default roster wired to the given infrastructure.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{agents: make(map[string]*Agent)}
	for _, spec := range builtinSpecs() {
		r.Register(NewAgent(spec, deps.Provider, deps.Sessions, deps.States, deps.BaseTools))
	}
	return r
}

// Register adds an agent. The first registered agent becomes the default
// route.
func (r *Registry) Register(a *Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := strings.ToLower(a.Name())
	if _, ok := r.agents[name]; !ok {
		r.order = append(r.order, name)
	}
	r.agents[name] = a
	if r.defaultName == "" {
		r.defaultName = name
	}
	logger.InfoCF("agents", "registered agent", map[string]any{
		"agent": name,
	})
}

// Get returns the agent with the given name.
func (r *Registry) Get(name string) (*Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[strings.ToLower(name)]
	return a, ok
}

// Names lists registered agents in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Route picks the agent for a message by keyword match, in registration
// order; the default agent handles everything unmatched.
func (r *Registry) Route(content string) *Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lowered := strings.ToLower(content)
	for _, name := range r.order {
		a := r.agents[name]
		for _, kw := range a.Keywords() {
			if strings.Contains(lowered, kw) {
				return a
			}
		}
	}
	return r.agents[r.defaultName]
}
