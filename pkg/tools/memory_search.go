package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/switchboard-ai/switchboard/pkg/memory"
)

// MemorySearchTool searches long-term memory for past conversation facts.
type MemorySearchTool struct {
	store      memory.Store
	maxResults int
}

// NewMemorySearchTool creates a memory search tool.
func NewMemorySearchTool(store memory.Store, maxResults int) *MemorySearchTool {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &MemorySearchTool{store: store, maxResults: maxResults}
}

func (t *MemorySearchTool) Name() string { return "memory_search" }

func (t *MemorySearchTool) Description() string {
	return "Search long-term memory for relevant information from past conversations. " +
		"Use this to recall facts about the user from earlier sessions."
}

func (t *MemorySearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query to find relevant memories",
			},
			"user_id": map[string]any{
				"type":        "string",
				"description": "Restrict results to one user",
			},
		},
		"required": []string{"query"},
	}
}

func (t *MemorySearchTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	query, _ := args["query"].(string)
	if query == "" {
		return ErrorResult("query is required")
	}
	userID, _ := args["user_id"].(string)

	results, err := t.store.Search(ctx, query, "", userID, t.maxResults)
	if err != nil {
		return ErrorResult(fmt.Sprintf("memory search failed: %v", err))
	}
	if len(results) == 0 {
		return NewToolResult("No relevant memories found.")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d relevant memories:\n\n", len(results)))
	for i, r := range results {
		snippet := r.Content
		if len(snippet) > 700 {
			snippet = snippet[:700] + "..."
		}
		sb.WriteString(fmt.Sprintf("--- Result %d (score: %.2f, session: %s) ---\n%s\n\n", i+1, r.Score, r.SessionID, snippet))
	}
	return NewToolResult(sb.String())
}
