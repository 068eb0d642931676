package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/airguitar/internal/app"
)

const (
	hubQueueSize = 16
	writeTimeout = time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// AnalysisHub broadcasts frame results to websocket clients.
// Publish never blocks the pipeline: when clients fall behind, frames are dropped.
type AnalysisHub struct {
	logger  *zap.Logger
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	frames  chan []byte
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewAnalysisHub creates a hub and starts its broadcast loop.
func NewAnalysisHub(logger *zap.Logger) *AnalysisHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &AnalysisHub{
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
		frames:  make(chan []byte, hubQueueSize),
		done:    make(chan struct{}),
	}
	h.wg.Add(1)
	go h.broadcast()
	return h
}

// Publish queues a frame result for every connected client.
func (h *AnalysisHub) Publish(result app.FrameResult) {
	if h.Clients() == 0 {
		return
	}

	msg, err := json.Marshal(result)
	if err != nil {
		h.logger.Warn("encode frame result", zap.Error(err))
		return
	}

	select {
	case <-h.done:
	case h.frames <- msg:
	default:
	}
}

// Clients returns the number of connected clients.
func (h *AnalysisHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *AnalysisHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer h.remove(conn)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *AnalysisHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// broadcast is the only writer to client connections.
func (h *AnalysisHub) broadcast() {
	defer h.wg.Done()

	for {
		select {
		case <-h.done:
			return
		case msg := <-h.frames:
			h.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.mu.RUnlock()

			for _, conn := range conns {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					h.logger.Debug("dropping websocket client", zap.Error(err))
					conn.Close()
					h.remove(conn)
				}
			}
		}
	}
}

// Close stops broadcasting and disconnects every client.
func (h *AnalysisHub) Close() {
	h.once.Do(func() {
		close(h.done)
		h.wg.Wait()

		h.mu.Lock()
		defer h.mu.Unlock()
		for conn := range h.clients {
			conn.Close()
			delete(h.clients, conn)
		}
	})
}
