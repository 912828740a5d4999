package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/808vita/sdg-6-water-agents/internal/protocol"
)

const (
	hubClientBuffer = 16
	wsWriteTimeout  = 10 * time.Second
	wsPingInterval  = 30 * time.Second
)

// Hub broadcasts map commands to every connected websocket client. It
// implements the orchestrator's command sink; a slow client drops commands
// instead of stalling the turn that produced them.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan protocol.MapCommand]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan protocol.MapCommand]struct{})}
}

func (h *Hub) Publish(cmd protocol.MapCommand) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- cmd:
		default:
		}
	}
}

func (h *Hub) subscribe() chan protocol.MapCommand {
	ch := make(chan protocol.MapCommand, hubClientBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[ch] = struct{}{}
	return ch
}

func (h *Hub) unsubscribe(ch chan protocol.MapCommand) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ch)
}

// ClientCount reports connected feed clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleMapWS streams map commands to a browser client. The feed is
// one-way; inbound frames are read only to notice the close handshake.
func (s *Server) handleMapWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "map feed not configured")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if s.cfg.AllowAnyOrigin {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				// Non-browser clients often omit Origin. Allow them.
				return true
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false
			}
			return strings.EqualFold(u.Host, r.Host)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := s.hub.subscribe()
	defer s.hub.unsubscribe(ch)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case cmd := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(cmd); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
