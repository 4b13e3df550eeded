package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"saoke/internal/fetch"
	"saoke/internal/log"
)

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// ProgressEvent is one message of the progress stream.
type ProgressEvent struct {
	Type     string          `json:"type"` // progress | completed | failed
	RunID    string          `json:"run_id"`
	Progress *fetch.Progress `json:"progress,omitempty"`
	Percent  *float64        `json:"percent,omitempty"`
	Display  string          `json:"display,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ProgressHub fans transfer observations out to websocket clients. New
// clients receive the latest event on connect.
type ProgressHub struct {
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan ProgressEvent
	clients    map[*wsClient]struct{}
	done       chan struct{}

	mu     sync.RWMutex
	latest *ProgressEvent

	logger   *log.Logger
	upgrader websocket.Upgrader
}

type wsClient struct {
	hub  *ProgressHub
	conn *websocket.Conn
	send chan ProgressEvent
}

func NewProgressHub(logger *log.Logger) *ProgressHub {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ProgressHub{
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan ProgressEvent, 256),
		clients:    make(map[*wsClient]struct{}),
		done:       make(chan struct{}),
		logger:     logger.WithComponent(log.ComponentProgress),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run is the hub loop; it returns when ctx is done and closes all clients.
func (h *ProgressHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			if ev := h.Latest(); ev != nil {
				c.send <- *ev
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case ev := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- ev:
				default:
					// slow consumer
					delete(h.clients, c)
					close(c.send)
				}
			}

		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		}
	}
}

// Latest returns the most recent event, or nil before the first run.
func (h *ProgressHub) Latest() *ProgressEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return nil
	}
	ev := *h.latest
	return &ev
}

// Publish records ev as latest and queues it for broadcast. It never
// blocks the caller: events are dropped when the queue is full.
func (h *ProgressHub) Publish(ev ProgressEvent) {
	h.mu.Lock()
	h.latest = &ev
	h.mu.Unlock()

	select {
	case h.broadcast <- ev:
	default:
		h.logger.Debug("Progress event dropped", log.FieldRunID, ev.RunID)
	}
}

// ObserveProgress implements ports.ProgressObserver.
func (h *ProgressHub) ObserveProgress(runID string, p fetch.Progress) {
	ev := ProgressEvent{Type: "progress", RunID: runID, Progress: &p, Display: p.String()}
	if pct, ok := p.Percent(); ok {
		ev.Percent = &pct
	}
	h.Publish(ev)
}

// RunFinished publishes the terminal event of a run. An empty runID
// refers to the run currently streaming progress, if any.
func (h *ProgressHub) RunFinished(runID string, err error) {
	latest := h.Latest()
	if runID == "" && latest != nil && latest.Type == "progress" {
		runID = latest.RunID
	}
	ev := ProgressEvent{Type: "completed", RunID: runID}
	if latest != nil && runID != "" && latest.RunID == runID {
		ev.Progress, ev.Percent, ev.Display = latest.Progress, latest.Percent, latest.Display
	}
	if err != nil {
		ev.Type = "failed"
		ev.Error = err.Error()
	}
	h.Publish(ev)
}

// ServeWS upgrades the request and streams events to the client.
func (h *ProgressHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to upgrade websocket", log.FieldError, err)
		return
	}

	c := &wsClient{hub: h, conn: conn, send: make(chan ProgressEvent, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only watches the connection; clients send nothing meaningful.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("WebSocket closed", log.FieldError, err)
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
