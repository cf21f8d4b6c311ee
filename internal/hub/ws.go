package hub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wardsense/roommonitor/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The dashboard is served from another origin in development.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsMessage is the wire envelope of the subscriber stream. The first
// message after subscribing is always type "snapshot"; live publishes
// follow as type "update".
type wsMessage struct {
	Type string         `json:"type"`
	Data model.Snapshot `json:"data"`
}

// WSHandler exposes the hub's subscriber interface over WebSocket:
// GET /ws?room=<id>.
type WSHandler struct {
	hub *Hub
	log *zap.Logger
}

func NewWSHandler(h *Hub, log *zap.Logger) *WSHandler {
	return &WSHandler{hub: h, log: log}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		http.Error(w, "missing room parameter", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	defer conn.Close()

	sub := h.hub.Subscribe(roomID)
	defer h.hub.Unsubscribe(sub)

	// Drain client frames so pings are answered and closes detected.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	first := true
	for {
		select {
		case <-done:
			return
		case snap, ok := <-sub.C():
			if !ok {
				deadline := time.Now().Add(time.Second)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub shutting down"), deadline)
				return
			}
			typ := "update"
			if first {
				typ = "snapshot"
				first = false
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(wsMessage{Type: typ, Data: snap}); err != nil {
				h.log.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}
