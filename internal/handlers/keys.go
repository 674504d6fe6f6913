package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/morphic/api/internal/keybridge"
	"github.com/morphic/api/internal/middleware"
)

// CredentialHandler manages the stored model API key. Responses never
// contain the key itself, only presence and scope.
type CredentialHandler struct {
	bridge *keybridge.Bridge
}

// NewCredentialHandler creates a new credential handler
func NewCredentialHandler(bridge *keybridge.Bridge) *CredentialHandler {
	return &CredentialHandler{bridge: bridge}
}

// SetCredentialRequest is the request body for storing a key
type SetCredentialRequest struct {
	Key   string `json:"key" binding:"required"`
	Scope string `json:"scope,omitempty"` // "durable" (default) or "session"
}

// Set stores the key in the requested scope
func (h *CredentialHandler) Set(c *gin.Context) {
	var req SetCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, "key is required")
		return
	}

	preferred := keybridge.ScopeDurable
	switch req.Scope {
	case "", string(keybridge.ScopeDurable):
	case string(keybridge.ScopeSession):
		preferred = keybridge.ScopeSession
	default:
		middleware.BadRequest(c, "scope must be durable or session")
		return
	}

	if _, err := h.bridge.Set(req.Key, preferred); err != nil {
		middleware.InternalError(c, "failed to store credential")
		return
	}

	c.JSON(http.StatusOK, h.bridge.Snapshot())
}

// Clear removes the key from both scopes
func (h *CredentialHandler) Clear(c *gin.Context) {
	h.bridge.Clear()
	c.JSON(http.StatusOK, h.bridge.Snapshot())
}

// Get reports presence and scope without exposing the key
func (h *CredentialHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.bridge.Snapshot())
}
