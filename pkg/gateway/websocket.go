package gateway

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/switchboard-ai/switchboard/pkg/logger"
)

// wsIncoming is one client message over the WebSocket surface.
type wsIncoming struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Agent     string `json:"agent,omitempty"`
	Content   string `json:"content"`
}

// wsOutgoing is one reply; Error is set instead of Content on failure.
type wsOutgoing struct {
	SessionID string `json:"session_id"`
	Agent     string `json:"agent,omitempty"`
	Content   string `json:"content,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnCF("gateway", "websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}
	defer conn.Close()

	// One session per connection unless the client names its own.
	connSession := uuid.NewString()

	for {
		var in wsIncoming
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.DebugCF("gateway", "websocket closed", map[string]any{"error": err.Error()})
			}
			return
		}

		sessionID := in.SessionID
		if sessionID == "" {
			sessionID = connSession
		}

		resp, _, errMsg := s.chat(r.Context(), chatRequest{
			SessionID: sessionID,
			UserID:    in.UserID,
			Agent:     in.Agent,
			Message:   in.Content,
		})

		out := wsOutgoing{SessionID: sessionID}
		if errMsg != "" {
			out.Error = errMsg
		} else {
			out.Agent = resp.Agent
			out.Content = resp.Reply
		}
		if err := conn.WriteJSON(out); err != nil {
			return
		}
	}
}
