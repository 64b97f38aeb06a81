// Package bridge is the websocket link to the browser extension. It carries
// tab messages and notifications out, and optional platform events in.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"Mansoor88-6/session-tracker/internal/message"
	"Mansoor88-6/session-tracker/internal/notifier"
)

// ErrNoReceiver means no extension connection accepted the frame.
var ErrNoReceiver = errors.New("no receiving extension connection")

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Only the local extension connects; origins are chrome-extension:// ids.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Frame is one outbound websocket message.
type Frame struct {
	TabID             *int                   `json:"tabId,omitempty"`
	Message           *message.TabMessage    `json:"message,omitempty"`
	Notification      *notifier.Notification `json:"notification,omitempty"`
	ClearNotification string                 `json:"clearNotification,omitempty"`
}

// EventSink receives inbound frames, which are platform events.
type EventSink func(ctx context.Context, data []byte) error

type connection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *connection) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*connection
	sink        EventSink
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*connection),
		logger:      logger,
	}
}

// SetEventSink installs the handler for inbound frames.
func (h *Hub) SetEventSink(sink EventSink) {
	h.mu.Lock()
	h.sink = sink
	h.mu.Unlock()
}

// Connected returns the number of live extension connections.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.New()
	c := &connection{conn: conn}
	h.register(id, c)

	go func() {
		defer h.unregister(id, c)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			h.dispatchInbound(data)
		}
	}()
}

func (h *Hub) dispatchInbound(data []byte) {
	h.mu.RLock()
	sink := h.sink
	h.mu.RUnlock()
	if sink == nil {
		return
	}
	if err := sink(context.Background(), data); err != nil {
		h.logger.Warn("Inbound bridge frame rejected", zap.Error(err))
	}
}

func (h *Hub) register(id uuid.UUID, c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[id] = c
	h.logger.Info("Extension connected",
		zap.String("connection_id", id.String()),
		zap.Int("total", len(h.connections)),
	)
}

func (h *Hub) unregister(id uuid.UUID, c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.conn.Close()
	delete(h.connections, id)
	h.logger.Info("Extension disconnected", zap.String("connection_id", id.String()))
}

// Send writes a frame to every connection. It fails with ErrNoReceiver when
// no connection took it.
func (h *Hub) Send(frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	h.mu.RLock()
	conns := make([]*connection, 0, len(h.connections))
	for _, c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range conns {
		if err := c.write(data); err != nil {
			h.logger.Debug("Bridge write failed", zap.Error(err))
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return ErrNoReceiver
	}
	return nil
}

// SendToTab delivers a message to one tab's content script.
func (h *Hub) SendToTab(tabID int, msg message.TabMessage) error {
	return h.Send(Frame{TabID: &tabID, Message: &msg})
}

// Broadcast delivers a message to the extension itself rather than a tab.
func (h *Hub) Broadcast(msg message.TabMessage) error {
	return h.Send(Frame{Message: &msg})
}

func (h *Hub) Notify(_ context.Context, n notifier.Notification) error {
	return h.Send(Frame{Notification: &n})
}

func (h *Hub) Clear(_ context.Context, id string) error {
	return h.Send(Frame{ClearNotification: id})
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.connections {
		c.conn.Close()
		delete(h.connections, id)
	}
}
