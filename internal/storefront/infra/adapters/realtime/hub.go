// Package realtime pushes new orders to connected dashboard sessions over
// WebSocket. Delivery is best effort: a session only sees events published
// while it is connected, and a session that falls behind loses messages.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/wire"
)

const (
	defaultQueueSize = 16
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMessageSize   = 4096
)

var _ ports.Broadcaster = (*Hub)(nil)

// Hub tracks live sessions and fans events out to them.
type Hub struct {
	upgrader  websocket.Upgrader
	queueSize int

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

type Option func(*Hub)

// WithQueueSize bounds the per-session outbound queue.
func WithQueueSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

// WithCheckOrigin replaces the upgrader's origin check. The default accepts
// every origin.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// NewHub returns an empty hub. Mount it as an http.Handler and pass it to
// the order service as the Broadcaster.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		queueSize: defaultQueueSize,
		sessions:  make(map[string]*session),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type session struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *session) close() {
	s.once.Do(func() { close(s.send) })
}

// ServeHTTP upgrades the request and runs the session until the peer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	s := &session{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.queueSize),
	}
	if !h.register(s) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	slog.InfoContext(r.Context(), "client connected", "session_id", s.id, "remote_addr", r.RemoteAddr)

	go h.writePump(s)
	h.readPump(s)

	h.unregister(s)
	slog.Info("client disconnected", "session_id", s.id)
}

// Broadcast encodes order once and queues it to every current session
// without blocking.
func (h *Hub) Broadcast(ctx context.Context, order entity.Order) {
	msg, err := json.Marshal(wire.Event{Event: wire.EventNewOrder, Data: wire.FromOrder(order)})
	if err != nil {
		slog.ErrorContext(ctx, "encode realtime event", "order_id", order.ID, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.sessions {
		select {
		case s.send <- msg:
		default:
			slog.WarnContext(ctx, "session queue full, event dropped", "session_id", id, "order_id", order.ID)
		}
	}
}

// Len returns the number of connected sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close disconnects every session and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, s := range h.sessions {
		s.close()
		delete(h.sessions, id)
	}
}

func (h *Hub) register(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s.id] = s
	return true
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s.id]; ok {
		delete(h.sessions, s.id)
		s.close()
	}
}

// readPump discards client frames; it exists to process control frames and
// to notice the peer going away.
func (h *Hub) readPump(s *session) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read failed", "session_id", s.id, "error", err)
			}
			return
		}
	}
}

// writePump owns all writes to the connection. It exits when the send
// queue is closed or a write fails, and closes the connection either way.
func (h *Hub) writePump(s *session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Debug("websocket write failed", "session_id", s.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
