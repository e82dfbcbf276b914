package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/switchboard-ai/switchboard/pkg/providers"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps memories in a local SQLite database. Search is substring
// match over content; recency stands in for relevance scoring.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata JSON,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_session ON memories(session_id);
	CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id);`)
	if err != nil {
		return fmt.Errorf("init memory schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Add(ctx context.Context, sessionID, userID string, messages []providers.Message) ([]Memory, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var added []Memory
	for _, msg := range messages {
		if msg.Role == "system" || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		mem := Memory{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			UserID:    userID,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: s.now().UTC(),
		}
		meta, _ := json.Marshal(mem.Metadata)
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO memories VALUES (?, ?, ?, ?, ?, ?, ?)",
			mem.ID, mem.SessionID, mem.UserID, mem.Role, mem.Content, meta, mem.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("insert memory: %w", err)
		}
		added = append(added, mem)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return added, nil
}

func (s *SQLiteStore) Search(ctx context.Context, query, sessionID, userID string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	where := []string{"content LIKE ?"}
	args := []any{"%" + query + "%"}
	if sessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, sessionID)
	}
	if userID != "" {
		where = append(where, "user_id = ?")
		args = append(args, userID)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, user_id, role, content, metadata, created_at FROM memories WHERE "+
			strings.Join(where, " AND ")+" ORDER BY created_at DESC LIMIT ?",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{Memory: mem, Score: 1.0})
	}
	return results, rows.Err()
}

func (s *SQLiteStore) GetAll(ctx context.Context, sessionID, userID string, limit int) ([]Memory, error) {
	if limit <= 0 {
		limit = 100
	}

	where := []string{"1=1"}
	args := []any{}
	if sessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, sessionID)
	}
	if userID != "" {
		where = append(where, "user_id = ?")
		args = append(args, userID)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, user_id, role, content, metadata, created_at FROM memories WHERE "+
			strings.Join(where, " AND ")+" ORDER BY created_at DESC LIMIT ?",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []Memory
	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, mem)
	}
	return memories, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("memory %s not found", id)
	}
	return nil
}

func (s *SQLiteStore) DeleteAll(ctx context.Context, sessionID, userID string) (int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if sessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, sessionID)
	}
	if userID != "" {
		where = append(where, "user_id = ?")
		args = append(args, userID)
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE "+strings.Join(where, " AND "), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanMemory(rows *sql.Rows) (Memory, error) {
	var mem Memory
	var meta []byte
	if err := rows.Scan(&mem.ID, &mem.SessionID, &mem.UserID, &mem.Role, &mem.Content, &meta, &mem.CreatedAt); err != nil {
		return Memory{}, err
	}
	if len(meta) > 0 {
		json.Unmarshal(meta, &mem.Metadata)
	}
	return mem, nil
}
