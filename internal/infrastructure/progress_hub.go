package infrastructure

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/internal/domain"
	"github.com/yourusername/clipfetch/internal/telemetry"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

// ConnectedEvent is the first frame sent on every progress socket
type ConnectedEvent struct {
	Event    string `json:"event"`
	ClientID string `json:"clientId"`
}

// hubClient is one socket subscribed to a client channel
type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// ProgressHub fans progress events out to WebSocket connections grouped by
// client identifier. Several sockets may share one identifier.
type ProgressHub struct {
	rooms        map[string]map[*hubClient]struct{}
	mu           sync.RWMutex
	sendBuffer   int
	pingInterval time.Duration
	telemetry    *telemetry.Telemetry
	logger       *zap.Logger
}

// NewProgressHub creates a new progress hub
func NewProgressHub(config *domain.ProgressConfig, tel *telemetry.Telemetry, logger *zap.Logger) *ProgressHub {
	sendBuffer := config.SendBuffer
	if sendBuffer < 1 {
		sendBuffer = 1
	}
	pingInterval := config.PingInterval
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &ProgressHub{
		rooms:        make(map[string]map[*hubClient]struct{}),
		sendBuffer:   sendBuffer,
		pingInterval: pingInterval,
		telemetry:    tel,
		logger:       logger,
	}
}

// Serve registers conn under clientID and pumps frames until the socket
// closes. It blocks for the lifetime of the connection.
func (h *ProgressHub) Serve(clientID string, conn *websocket.Conn) {
	c := &hubClient{
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
	}

	hello, _ := json.Marshal(ConnectedEvent{Event: "connected", ClientID: clientID})
	c.send <- hello

	h.register(clientID, c)
	defer func() {
		h.unregister(clientID, c)
		conn.Close()
	}()

	h.logger.Info("Progress client connected",
		zap.String("client_id", clientID),
		zap.String("remote_addr", conn.RemoteAddr().String()))

	pongWait := 2 * h.pingInterval
	done := make(chan struct{})

	// Inbound frames are ignored; reading keeps pong handling alive.
	go func() {
		defer close(done)
		conn.SetReadLimit(maxMessageSize)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("Failed to write progress frame",
					zap.String("client_id", clientID),
					zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-done:
			h.logger.Info("Progress client disconnected", zap.String("client_id", clientID))
			return
		}
	}
}

func (h *ProgressHub) register(clientID string, c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[clientID]
	if !ok {
		room = make(map[*hubClient]struct{})
		h.rooms[clientID] = room
	}
	room[c] = struct{}{}
	h.telemetry.SocketConnected(1)
}

func (h *ProgressHub) unregister(clientID string, c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[clientID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, clientID)
	}
	h.telemetry.SocketConnected(-1)
}

// Publish queues event for every socket of clientID without blocking. It
// reports whether at least one socket accepted the frame.
func (h *ProgressHub) Publish(clientID string, event domain.ProgressEvent) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[clientID]
	if len(room) == 0 {
		return false
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal progress event", zap.Error(err))
		return false
	}

	delivered := false
	for c := range room {
		select {
		case c.send <- data:
			delivered = true
		default:
			// slow reader, drop the frame
		}
	}

	return delivered
}

// Connected returns the number of open sockets
func (h *ProgressHub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

// HasClient reports whether any socket is subscribed to clientID
func (h *ProgressHub) HasClient(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[clientID]) > 0
}

// Close drops every open socket. Serve loops exit on their own.
func (h *ProgressHub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, room := range h.rooms {
		for c := range room {
			c.conn.Close()
		}
	}
}
