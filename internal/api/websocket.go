package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/guyr22/web-dev-final-project/internal/auth"
	"github.com/guyr22/web-dev-final-project/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The REST surface allows any origin; the handshake must admit the
	// same callers. Auth happens via the token, not the Origin header.
	CheckOrigin: func(*http.Request) bool { return true },
}

type WebsocketHandler struct {
	hub    *ws.Hub
	tokens *auth.TokenService
}

func NewWebsocketHandler(hub *ws.Hub, tokens *auth.TokenService) *WebsocketHandler {
	return &WebsocketHandler{hub: hub, tokens: tokens}
}

// Connect upgrades to a websocket after validating the access token
// from the query string. Browsers cannot set headers on websocket
// handshakes, hence the query parameter.
func (h *WebsocketHandler) Connect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		unauthorized(w, "No token provided")
		return
	}

	claims, err := h.tokens.VerifyAccessToken(token)
	if err != nil {
		unauthorized(w, "Invalid token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}

	ws.NewClient(h.hub, conn, claims.UserID).Register()
}
