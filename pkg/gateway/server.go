// Package gateway exposes the platform over HTTP and WebSocket.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/switchboard-ai/switchboard/pkg/agents"
	"github.com/switchboard-ai/switchboard/pkg/config"
	"github.com/switchboard-ai/switchboard/pkg/logger"
	"github.com/switchboard-ai/switchboard/pkg/memory"
	"github.com/switchboard-ai/switchboard/pkg/providers"
	"github.com/switchboard-ai/switchboard/pkg/session"
	"github.com/switchboard-ai/switchboard/pkg/state"
)

// Server is the platform HTTP/WebSocket server.
type Server struct {
	cfg      *config.Config
	registry *agents.Registry
	states   *state.Manager
	sessions *session.Manager
	memories memory.Store // nil when long-term memory is disabled

	server   *http.Server
	upgrader websocket.Upgrader
}

// NewServer wires the gateway to the agent roster and the state layers.
func NewServer(cfg *config.Config, registry *agents.Registry, states *state.Manager, sessions *session.Manager, memories memory.Store) *Server {
	return &Server{
		cfg:      cfg,
		registry: registry,
		states:   states,
		sessions: sessions,
		memories: memories,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler builds the route table. Split out from Start so tests can serve
// it without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/agents", s.handleAgents)
	mux.HandleFunc("GET /api/state/query", s.handleStateQuery)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/memory/search", s.handleMemorySearch)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// Start begins listening on the configured host:port.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Gateway.Host, s.cfg.Gateway.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go func() {
		logger.InfoCF("gateway", "HTTP server starting", map[string]any{"addr": addr})
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("gateway", "HTTP server error", map[string]any{"error": err.Error()})
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Agent     string `json:"agent,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Agent     string `json:"agent"`
	Reply     string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, status, errMsg := s.chat(r.Context(), req)
	if errMsg != "" {
		writeError(w, status, errMsg)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// chat routes one message to an agent; shared by the HTTP and WebSocket
// surfaces.
func (s *Server) chat(ctx context.Context, req chatRequest) (*chatResponse, int, string) {
	if req.Message == "" {
		return nil, http.StatusBadRequest, "message is required"
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	var a *agents.Agent
	if req.Agent != "" {
		found, ok := s.registry.Get(req.Agent)
		if !ok {
			return nil, http.StatusNotFound, fmt.Sprintf("unknown agent %q", req.Agent)
		}
		a = found
	} else {
		a = s.registry.Route(req.Message)
	}

	reply, err := a.Respond(ctx, req.SessionID, req.Message)
	if err != nil {
		logger.ErrorCF("gateway", "agent failed", map[string]any{
			"agent": a.Name(),
			"error": err.Error(),
		})
		return nil, http.StatusBadGateway, "agent failed to respond"
	}

	if s.memories != nil && req.UserID != "" {
		if _, err := s.memories.Add(ctx, req.SessionID, req.UserID, []providers.Message{
			{Role: "user", Content: req.Message},
			{Role: "assistant", Content: reply},
		}); err != nil {
			logger.WarnCF("gateway", "memory write failed", map[string]any{"error": err.Error()})
		}
	}

	return &chatResponse{SessionID: req.SessionID, Agent: a.Name(), Reply: reply}, 0, ""
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"agents": s.registry.Names()})
}

func (s *Server) handleStateQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	agent := q.Get("agent")
	if agent == "" {
		writeError(w, http.StatusBadRequest, "agent is required")
		return
	}

	filter := state.Filter{SessionID: q.Get("session_id")}
	if raw := q.Get("scope"); raw != "" {
		scope, err := state.ParseScope(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid scope")
			return
		}
		filter.Scope = &scope
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	records, err := s.states.QueryStates(state.NewContext(q.Get("session_id"), agent), filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	messages := 0
	for _, sess := range s.sessions.Sessions() {
		messages += len(sess.History())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions":       s.sessions.Count(),
		"tracked_states": s.states.SessionCount(),
		"shared_records": s.states.SharedCount(),
		"messages":       messages,
		"agents":         s.registry.Names(),
	})
}

func (s *Server) handleMemorySearch(w http.ResponseWriter, r *http.Request) {
	if s.memories == nil {
		writeError(w, http.StatusServiceUnavailable, "long-term memory is disabled")
		return
	}
	q := r.URL.Query()
	query := q.Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	limit := 10
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	results, err := s.memories.Search(r.Context(), query, q.Get("session_id"), q.Get("user_id"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
