package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zettelhub/hub/internal/domain/hub"
	"github.com/zettelhub/hub/internal/domain/session"
	"github.com/zettelhub/hub/internal/infrastructure/logging"
	"github.com/zettelhub/hub/internal/shared/id"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	hub    *hub.Hub
	logger *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(h *hub.Hub, logger *logging.Logger) *Handlers {
	return &Handlers{hub: h, logger: logger}
}

// CreateSessionRequest opens a new session. A focused session narrows
// the document library to the focus prompt.
type CreateSessionRequest struct {
	Focused     bool   `json:"focused"`
	FocusPrompt string `json:"focus_prompt"`
}

// ChatRequest submits a question on the active session.
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "ZettelHub",
		"version": "1.0.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	snap := h.hub.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": len(snap.Sessions),
		"library":  gin.H{"state": snap.Library.State, "documents": len(snap.Library.Documents)},
		"degraded": snap.Degraded,
	})
}

// State returns the full renderer snapshot
func (h *Handlers) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Snapshot())
}

// CreateSession opens a new session and makes it active
func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.hub.CreateSession(c.Request.Context(), req.Focused, req.FocusPrompt)
	if err != nil {
		if errors.Is(err, session.ErrEmptyFocusPrompt) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": sess.ID,
		"title":      sess.DisplayTitle(),
		"state":      h.hub.Snapshot(),
	})
}

// SelectSession activates an existing session
func (h *Handlers) SelectSession(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := id.ParseSessionID(sessionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	if err := h.hub.SelectSession(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": h.hub.Snapshot()})
}

// Chat submits a question on the active session. Remote failures are
// not HTTP errors: the outcome lands in the transcript either way,
// and the response carries the reconciled snapshot.
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.hub.Send(c.Request.Context(), req.Question)
	c.JSON(http.StatusOK, gin.H{"state": h.hub.Snapshot()})
}

// RefreshDocuments re-reads the document listing from the service
func (h *Handlers) RefreshDocuments(c *gin.Context) {
	h.hub.RefreshLibrary(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"state": h.hub.Snapshot()})
}
