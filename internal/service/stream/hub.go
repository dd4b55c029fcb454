package stream

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"MoneyLoop/internal/domain/models"
	applogger "MoneyLoop/pkg/logger"
)

// Hub broadcasts completed run summaries to websocket subscribers so
// dashboards can watch autopilot cycles live.
type Hub struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	l        *applogger.Logger
}

func NewHub(l *applogger.Logger) *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		l: l,
	}
}

// Subscribe upgrades the request and registers the connection until the
// peer goes away.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	// Drain control frames; the read error signals disconnect.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

// Broadcast sends one run summary to every subscriber. Slow or broken
// connections are dropped rather than blocking the run.
func (h *Hub) Broadcast(summary models.RunSummary) {
	b, err := json.Marshal(summary)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			if h.l != nil {
				h.l.Debug("run feed write error", applogger.Error(err))
			}
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// Close drops all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.Close()
	}
	h.conns = make(map[*websocket.Conn]bool)
}
