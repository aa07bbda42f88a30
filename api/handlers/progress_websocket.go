package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the form page may be served from anywhere
	},
}

// ProgressServer pumps progress frames to one socket until it closes
type ProgressServer interface {
	Serve(clientID string, conn *websocket.Conn)
}

// ProgressSocketHandler handles WebSocket connections for progress events
type ProgressSocketHandler struct {
	hub    ProgressServer
	logger *zap.Logger
}

// NewProgressSocketHandler creates a new progress socket handler
func NewProgressSocketHandler(hub ProgressServer, log *zap.Logger) *ProgressSocketHandler {
	return &ProgressSocketHandler{
		hub:    hub,
		logger: log,
	}
}

// HandleWebSocket handles GET /ws. A well-formed client_id query parameter
// joins that channel; otherwise a fresh identifier is assigned.
func (h *ProgressSocketHandler) HandleWebSocket(c *gin.Context) {
	clientID := c.Query("client_id")
	if !domain.ValidClientID(clientID) {
		clientID = uuid.New().String()
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}

	h.hub.Serve(clientID, conn)
}
