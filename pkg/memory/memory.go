// Package memory persists long-term conversational memories across sessions.
// Sessions hold the live transcript; this store keeps the durable residue a
// user would expect an assistant to remember next week.
package memory

import (
	"context"
	"time"

	"github.com/switchboard-ai/switchboard/pkg/providers"
)

// Memory is one durable record extracted from a conversation.
type Memory struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	UserID    string         `json:"user_id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// SearchResult pairs a memory with its relevance score.
type SearchResult struct {
	Memory
	Score float64 `json:"score"`
}

// Store is the persistence capability the recall layer consumes.
type Store interface {
	// Add records the given conversation turns as memories and returns them
	// with assigned ids. System messages are skipped.
	Add(ctx context.Context, sessionID, userID string, messages []providers.Message) ([]Memory, error)

	// Search returns memories matching the query, most recent first. Empty
	// sessionID and userID search everything.
	Search(ctx context.Context, query, sessionID, userID string, limit int) ([]SearchResult, error)

	// GetAll lists memories for a session and/or user, most recent first.
	GetAll(ctx context.Context, sessionID, userID string, limit int) ([]Memory, error)

	// Delete removes one memory by id.
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every memory for a session and/or user and reports
	// how many were removed.
	DeleteAll(ctx context.Context, sessionID, userID string) (int64, error)

	Close() error
}
