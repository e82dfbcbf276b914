package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/switchboard-ai/switchboard/pkg/providers"
)

// Session is one conversation: an ordered, append-only message history plus
// an optional rolling summary. Sessions predate the state layer and carry no
// state abstraction of their own; the compat package adds one without
// touching this type.
type Session struct {
	Key      string              `json:"key"`
	Messages []providers.Message `json:"messages"`
	Summary  string              `json:"summary,omitempty"`
	Created  time.Time           `json:"created"`
	Updated  time.Time           `json:"updated"`
}

// History returns a copy of the message history in insertion order.
func (s *Session) History() []providers.Message {
	history := make([]providers.Message, len(s.Messages))
	copy(history, s.Messages)
	return history
}

// Manager owns the session collection. Storage is optional: with an empty
// storage dir sessions are purely in-memory, otherwise each session is
// persisted as a JSON file with atomic temp-file+rename writes.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	storage  string
}

func NewManager(storage string) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		storage:  storage,
	}

	if storage != "" {
		os.MkdirAll(storage, 0o755)
		m.loadSessions()
	}

	return m
}

// GetOrCreate returns the session for key, creating an empty one if needed.
func (m *Manager) GetOrCreate(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[key]
	if ok {
		return sess
	}

	now := time.Now()
	sess = &Session{
		Key:      key,
		Messages: []providers.Message{},
		Created:  now,
		Updated:  now,
	}
	m.sessions[key] = sess
	return sess
}

// Sessions returns a snapshot of the session map keyed by session id.
func (m *Manager) Sessions() map[string]*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*Session, len(m.sessions))
	for k, s := range m.sessions {
		out[k] = s
	}
	return out
}

func (m *Manager) AddMessage(sessionKey, role, content string) {
	m.AddFullMessage(sessionKey, providers.Message{Role: role, Content: content})
}

// AddFullMessage appends a complete message, including tool calls and tool
// call ids, preserving the full conversation flow.
func (m *Manager) AddFullMessage(sessionKey string, msg providers.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionKey]
	if !ok {
		sess = &Session{
			Key:      sessionKey,
			Messages: []providers.Message{},
			Created:  time.Now(),
		}
		m.sessions[sessionKey] = sess
	}

	sess.Messages = append(sess.Messages, msg)
	sess.Updated = time.Now()
}

// GetHistory returns a copy of a session's messages, empty if the session
// does not exist.
func (m *Manager) GetHistory(key string) []providers.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[key]
	if !ok {
		return []providers.Message{}
	}
	return sess.History()
}

func (m *Manager) GetSummary(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[key]
	if !ok {
		return ""
	}
	return sess.Summary
}

func (m *Manager) SetSummary(key, summary string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[key]
	if ok {
		sess.Summary = summary
		sess.Updated = time.Now()
	}
}

// TruncateHistory drops all but the last keepLast messages. keepLast <= 0
// clears the history.
func (m *Manager) TruncateHistory(key string, keepLast int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[key]
	if !ok {
		return
	}

	if keepLast <= 0 {
		sess.Messages = []providers.Message{}
		sess.Updated = time.Now()
		return
	}

	if len(sess.Messages) <= keepLast {
		return
	}

	sess.Messages = sess.Messages[len(sess.Messages)-keepLast:]
	sess.Updated = time.Now()
}

// Count returns the number of sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Save persists a single session to storage, if storage is configured.
func (m *Manager) Save(key string) error {
	if m.storage == "" {
		return nil
	}

	// Snapshot under read lock, then do file I/O after unlock.
	m.mu.RLock()
	sess, ok := m.sessions[key]
	if !ok {
		m.mu.RUnlock()
		return nil
	}
	snapshot := *sess
	snapshot.Messages = sess.History()
	m.mu.RUnlock()

	return m.writeSnapshot(snapshot)
}

// sanitizeFilename converts a session key into a cross-platform safe
// filename. Keys use "channel:chatID" and ':' is the volume separator on
// Windows; the original key survives inside the JSON file.
func sanitizeFilename(key string) string {
	return strings.ReplaceAll(key, ":", "_")
}

func (m *Manager) writeSnapshot(snapshot Session) error {
	filename := sanitizeFilename(snapshot.Key)
	if filename == "." || !filepath.IsLocal(filename) || strings.ContainsAny(filename, `/\`) {
		return os.ErrInvalid
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	sessionPath := filepath.Join(m.storage, filename+".json")
	tmpFile, err := os.CreateTemp(m.storage, "session-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmpFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, sessionPath); err != nil {
		return err
	}
	cleanup = false
	return nil
}

func (m *Manager) loadSessions() error {
	files, err := os.ReadDir(m.storage)
	if err != nil {
		return err
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.storage, file.Name()))
		if err != nil {
			continue
		}

		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		if sess.Key == "" {
			continue
		}
		m.sessions[sess.Key] = &sess
	}

	return nil
}

// Delete removes a session from memory and storage.
func (m *Manager) Delete(key string) error {
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()

	if m.storage == "" {
		return nil
	}

	filename := sanitizeFilename(key)
	if filename == "." || !filepath.IsLocal(filename) || strings.ContainsAny(filename, `/\`) {
		return os.ErrInvalid
	}

	if err := os.Remove(filepath.Join(m.storage, filename+".json")); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("deleting session file: %w", err)
	}
	return nil
}
