package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const subscriberBuffer = 4

// Hub fans resolved plans out to WebSocket subscribers. A client receives
// the current plan on connect and a fresh payload whenever the watched
// manifest re-resolves. Slow clients are dropped rather than blocking
// the broadcaster.
type Hub struct {
	mu      sync.Mutex
	subs    map[*subscriber]struct{}
	current []byte
	logger  *slog.Logger
}

type subscriber struct {
	ch chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[*subscriber]struct{}),
		logger: logger.With("component", "hub"),
	}
}

// Broadcast encodes payload and queues it to every subscriber. The payload
// also becomes the greeting for future subscribers. Subscribers whose
// buffers are full are dropped.
func (h *Hub) Broadcast(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("hub: encode broadcast", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.current = data
	for sub := range h.subs {
		select {
		case sub.ch <- data:
		default:
			delete(h.subs, sub)
			close(sub.ch)
			h.logger.Warn("hub: dropped slow subscriber")
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) add() (*subscriber, []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{ch: make(chan []byte, subscriberBuffer)}
	h.subs[sub] = struct{}{}
	return sub, h.current
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

// handleWS is the HTTP handler for GET /ws/plan.
func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Error("hub: websocket accept failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close(websocket.StatusInternalError, "unexpected close")
	}()

	sub, greeting := h.add()
	defer h.remove(sub)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader goroutine: the protocol is push-only, so any read result
	// means the client went away (or misbehaved); either way we cancel.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	if greeting != nil {
		if err := h.write(ctx, conn, greeting); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case data, ok := <-sub.ch:
			if !ok {
				_ = conn.Close(websocket.StatusPolicyViolation, "too slow")
				return
			}
			if err := h.write(ctx, conn, data); err != nil {
				return
			}
		}
	}
}

func (h *Hub) write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
