package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"nursescript/internal/live"
	"nursescript/internal/roomcode"
)

// WSHandler serves the websocket live feed for room watchers
type WSHandler struct {
	hub            *live.Hub
	originPatterns []string
}

// NewWSHandler creates a new websocket handler
func NewWSHandler(hub *live.Hub, originPatterns []string) *WSHandler {
	return &WSHandler{hub: hub, originPatterns: originPatterns}
}

const writeTimeout = 5 * time.Second

// Watch handles GET /api/live-sessions/{roomCode}/watch. The connection is
// one-way: events flow to the client until it disconnects.
func (h *WSHandler) Watch(w http.ResponseWriter, r *http.Request) {
	roomCode := roomcode.Normalize(r.PathValue("roomCode"))

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	events, cancel := h.hub.Subscribe(roomCode)
	defer cancel()

	// CloseRead handles control frames and signals client disconnect
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event := <-events:
			if err := h.write(ctx, conn, event); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, event live.Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, event)
}
