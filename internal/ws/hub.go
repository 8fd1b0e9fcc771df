package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	writeTimeout = 3 * time.Second
	// sendBuffer is how many patches a watcher may fall behind before it is
	// dropped.
	sendBuffer = 256
)

type watcher struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub fans generation patches out to every watching connection. Each watcher
// has its own queue and writer goroutine, so a stalled watcher never holds up
// Broadcast or the run publishing through it.
type Hub struct {
	mu       sync.Mutex
	watchers map[*websocket.Conn]*watcher
}

func NewHub() *Hub {
	return &Hub{watchers: make(map[*websocket.Conn]*watcher)}
}

func (h *Hub) Add(conn *websocket.Conn) {
	w := &watcher{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.watchers[conn] = w
	h.mu.Unlock()
	go h.writeLoop(w)
}

func (h *Hub) Remove(conn *websocket.Conn) {
	h.detach(conn)
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers)
}

// Broadcast queues message for every watcher. A watcher whose queue is full
// is closed and dropped.
func (h *Hub) Broadcast(ctx context.Context, message []byte) {
	if ctx.Err() != nil {
		return
	}
	var slow []*watcher
	h.mu.Lock()
	for conn, w := range h.watchers {
		select {
		case w.send <- message:
		default:
			delete(h.watchers, conn)
			close(w.done)
			slow = append(slow, w)
		}
	}
	h.mu.Unlock()

	for _, w := range slow {
		go w.conn.Close(websocket.StatusPolicyViolation, "watcher too slow")
	}
}

func (h *Hub) BroadcastJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(ctx, data)
	return nil
}

// CloseAll closes every watcher with reason, used on shutdown.
func (h *Hub) CloseAll(reason string) {
	h.mu.Lock()
	watchers := h.watchers
	h.watchers = make(map[*websocket.Conn]*watcher)
	h.mu.Unlock()

	for _, w := range watchers {
		close(w.done)
		_ = w.conn.Close(websocket.StatusGoingAway, reason)
	}
}

func (h *Hub) writeLoop(w *watcher) {
	for {
		select {
		case <-w.done:
			return
		case msg := <-w.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := w.conn.Write(ctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				if h.detach(w.conn) {
					_ = w.conn.Close(websocket.StatusNormalClosure, "")
				}
				return
			}
		}
	}
}

// detach forgets conn and stops its writer; it reports whether conn was still
// registered.
func (h *Hub) detach(conn *websocket.Conn) bool {
	h.mu.Lock()
	w, ok := h.watchers[conn]
	delete(h.watchers, conn)
	h.mu.Unlock()
	if ok {
		close(w.done)
	}
	return ok
}
