package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/morphic/api/internal/generation"
	"github.com/morphic/api/internal/middleware"
	"github.com/morphic/api/internal/models"
	"github.com/morphic/api/internal/preview"
)

// PreviewHandler serves preview manifests and ingests runtime status
type PreviewHandler struct {
	registry *generation.Registry
	relay    *preview.Relay
}

// NewPreviewHandler creates a new preview handler
func NewPreviewHandler(registry *generation.Registry, relay *preview.Relay) *PreviewHandler {
	return &PreviewHandler{registry: registry, relay: relay}
}

// GetManifest returns the session's preview payload plus the CDN
// bundles the runtime must load before executing it
func (h *PreviewHandler) GetManifest(c *gin.Context) {
	session := h.lookup(c)
	if session == nil {
		return
	}

	payload := session.PreviewPayload()
	if payload == nil {
		middleware.NotFound(c, "no preview payload yet")
		return
	}

	c.JSON(http.StatusOK, preview.BuildManifest(payload))
}

// PostStatus relays an out-of-band status message from the preview
// runtime into the session timeline
func (h *PreviewHandler) PostStatus(c *gin.Context) {
	session := h.lookup(c)
	if session == nil {
		return
	}

	var status models.PreviewStatus
	if err := c.ShouldBindJSON(&status); err != nil {
		middleware.BadRequest(c, "invalid status payload")
		return
	}

	if err := h.relay.Ingest(session, status); err != nil {
		middleware.RespondError(c, http.StatusBadRequest, middleware.ErrCodeInvalidPreviewState, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": status.State})
}

func (h *PreviewHandler) lookup(c *gin.Context) *generation.Session {
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
