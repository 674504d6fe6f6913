package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/morphic/api/internal/export"
	"github.com/morphic/api/internal/generation"
	"github.com/morphic/api/internal/middleware"
)

// ExportHandler streams generation results as downloadable bundles
type ExportHandler struct {
	registry *generation.Registry
	logger   *zap.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(registry *generation.Registry, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{registry: registry, logger: logger}
}

// Download streams the session's completed result as a zip archive
func (h *ExportHandler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		middleware.BadRequest(c, "invalid session id")
		return
	}
	session := h.registry.Get(id)
	if session == nil {
		middleware.NotFound(c, "session not found")
		return
	}

	result := session.Result()
	if result == nil || result.Artifact == nil {
		middleware.RespondError(c, http.StatusConflict, middleware.ErrCodeExportUnavailable,
			"No completed generation to export")
		return
	}

	bundle := &export.Bundle{Result: result}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", bundle.Filename()))

	if err := bundle.Write(c.Writer); err != nil {
		// Headers are already out; log and drop the connection.
		h.logger.Error("export stream failed",
			zap.String("session_id", id.String()),
			zap.Error(err),
		)
		c.Abort()
	}
}
