package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zettelhub/hub/internal/domain/hub"
	"github.com/zettelhub/hub/internal/infrastructure/logging"
	"github.com/zettelhub/hub/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Message is the envelope for client intents.
type Message struct {
	Type        string `json:"type"`
	Question    string `json:"question,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	Focused     bool   `json:"focused,omitempty"`
	FocusPrompt string `json:"focus_prompt,omitempty"`
}

// Handler streams snapshots to connected renderers and accepts the
// same intents the REST surface does.
type Handler struct {
	hub     *hub.Hub
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(h *hub.Hub, logger *logging.Logger, metrics *monitoring.Metrics) *Handler {
	return &Handler{hub: h, logger: logger, metrics: metrics}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}
	h.logger.Debug("Renderer connected", zap.String("conn_id", connID))

	// Writes come from both the snapshot stream and intent replies
	var writeMu sync.Mutex
	send := func(data interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(data)
	}

	send(map[string]interface{}{
		"type":    "system",
		"message": "Connected to ZettelHub",
	})
	send(map[string]interface{}{
		"type":  "snapshot",
		"state": h.hub.Snapshot(),
	})

	updates := h.hub.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for snap := range updates {
			if err := send(map[string]interface{}{
				"type":  "snapshot",
				"state": snap,
			}); err != nil {
				return
			}
		}
	}()

	ctx := c.Request.Context()
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Debug("Renderer disconnected",
				zap.String("conn_id", connID),
				zap.Error(err))
			break
		}

		switch msg.Type {
		case "chat":
			h.hub.Send(ctx, msg.Question)
		case "create_session":
			if _, err := h.hub.CreateSession(ctx, msg.Focused, msg.FocusPrompt); err != nil {
				h.sendError(send, err.Error())
			}
		case "select_session":
			if err := h.hub.SelectSession(ctx, msg.SessionID); err != nil {
				h.sendError(send, err.Error())
			}
		case "ping":
			send(map[string]interface{}{"type": "pong"})
		default:
			h.sendError(send, "unknown message type")
		}
	}

	h.hub.Unsubscribe(updates)
	<-done
}

func (h *Handler) sendError(send func(interface{}) error, msg string) {
	send(map[string]interface{}{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().Unix(),
	})
}
