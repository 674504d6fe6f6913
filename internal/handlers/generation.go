package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/morphic/api/internal/generation"
	"github.com/morphic/api/internal/middleware"
	"github.com/morphic/api/internal/models"
)

// GenerationHandler handles generation runs and session reads
type GenerationHandler struct {
	registry     *generation.Registry
	orchestrator *generation.Orchestrator
	logger       *zap.Logger
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(registry *generation.Registry, orchestrator *generation.Orchestrator, logger *zap.Logger) *GenerationHandler {
	return &GenerationHandler{registry: registry, orchestrator: orchestrator, logger: logger}
}

// GenerateBody is the request body for starting a run. SessionID is
// optional; when set the run reuses that session, replacing its state.
type GenerateBody struct {
	models.GenerationRequest
	SessionID string `json:"session_id,omitempty"`
}

// Generate starts a generation run and returns immediately. The run
// proceeds asynchronously; clients poll the session or follow its
// timeline.
func (h *GenerationHandler) Generate(c *gin.Context) {
	var body GenerateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		middleware.BadRequest(c, "idea and model_id are required")
		return
	}

	var session *generation.Session
	if body.SessionID != "" {
		id, err := uuid.Parse(body.SessionID)
		if err != nil {
			middleware.BadRequest(c, "invalid session id")
			return
		}
		if session = h.registry.Get(id); session == nil {
			middleware.NotFound(c, "session not found")
			return
		}
	} else {
		session = h.registry.Create()
	}

	// Detached from the request context so the run survives the
	// client disconnecting after the 202. No deadline is imposed here;
	// a stuck provider surfaces through the circuit breaker.
	go h.orchestrator.Generate(context.Background(), session, body.GenerationRequest)

	c.JSON(http.StatusAccepted, gin.H{
		"session_id": session.ID(),
		"phase":      models.PhaseBlueprint,
		"message":    "Generation started",
	})
}

// GetSession returns the current session snapshot
func (h *GenerationHandler) GetSession(c *gin.Context) {
	session := h.lookup(c)
	if session == nil {
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// GetTimeline returns the session's event log, newest last. An
// optional limit query parameter returns only the trailing events.
func (h *GenerationHandler) GetTimeline(c *gin.Context) {
	session := h.lookup(c)
	if session == nil {
		return
	}

	events := session.Timeline()
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			middleware.BadRequest(c, "limit must be a non-negative integer")
			return
		}
		if limit < len(events) {
			events = events[len(events)-limit:]
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID(),
		"events":     events,
	})
}

// GetResult returns the terminal result of the last completed run
func (h *GenerationHandler) GetResult(c *gin.Context) {
	session := h.lookup(c)
	if session == nil {
		return
	}

	result := session.Result()
	if result == nil {
		if session.Phase() == models.PhaseFailed {
			middleware.RespondErrorWithDetails(c, http.StatusConflict, middleware.ErrCodeInternalError,
				"Generation failed", session.Error())
			return
		}
		middleware.RespondError(c, http.StatusConflict, middleware.ErrCodeBadRequest, "Generation has not completed")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *GenerationHandler) lookup(c *gin.Context) *generation.Session {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		middleware.BadRequest(c, "invalid session id")
		return nil
	}
	session := h.registry.Get(id)
	if session == nil {
		middleware.NotFound(c, "session not found")
		return nil
	}
	return session
}
