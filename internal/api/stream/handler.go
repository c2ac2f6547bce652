// Package stream upgrades dashboard connections to the WebSocket event
// stream.
package stream

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/good-yellow-bee/corewatch/internal/api/auth"
	"github.com/good-yellow-bee/corewatch/internal/broadcast"
)

// Handler serves the WebSocket event stream.
type Handler struct {
	hub      *broadcast.Hub
	jwt      *auth.JWTService
	upgrader websocket.Upgrader
}

// NewHandler creates a new stream handler.
func NewHandler(hub *broadcast.Hub, jwt *auth.JWTService) *Handler {
	return &Handler{
		hub: hub,
		jwt: jwt,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The stream carries no state-changing operations and every
			// connection is token-authenticated, so cross-origin pages
			// may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve authenticates the request and upgrades it to a WebSocket
// observer connection. Browser WebSocket clients cannot set an
// Authorization header, so the token may also arrive as a query
// parameter.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	if _, err := h.jwt.ValidateToken(token); err != nil {
		log.Printf("stream: auth failed for %s: %v", r.RemoteAddr, err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		log.Printf("stream: upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}

	h.hub.ServeConn(r.Context(), conn)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
