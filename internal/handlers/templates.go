package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/morphic/api/internal/templates"
)

// TemplatesHandler serves the fixed template catalog
type TemplatesHandler struct{}

// NewTemplatesHandler creates a new templates handler
func NewTemplatesHandler() *TemplatesHandler {
	return &TemplatesHandler{}
}

// List returns the catalog in matching-priority order
func (h *TemplatesHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": templates.Catalog})
}
