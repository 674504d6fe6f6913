package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/morphic/api/internal/cache"
	"github.com/morphic/api/internal/generation"
	"github.com/morphic/api/internal/keybridge"
	"github.com/morphic/api/internal/llm"
	"github.com/morphic/api/internal/models"
	"github.com/morphic/api/internal/preview"
	"github.com/morphic/api/internal/repair"
)

const planJSON = `{"summary":"Dashboard app","components":["header","chart"],"dataFlows":["user -> dashboard"],"aiFeatures":["recommendations"],"risks":["latency"],"complexityScore":0.4}`

// scriptedCaller replays canned responses in order
type scriptedCaller struct {
	responses []string
}

func (c *scriptedCaller) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	content := c.responses[0]
	if len(c.responses) > 1 {
		c.responses = c.responses[1:]
	}
	return &llm.ChatResponse{
		Choices: []llm.ChatChoice{{Message: llm.ChatMessage{Role: "assistant", Content: content}}},
		Usage:   &llm.ChatUsage{TotalTokens: 42},
	}, nil
}

type testServer struct {
	router   *gin.Engine
	registry *generation.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	durable, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	fallback, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	tiered := cache.NewTiered(durable, fallback, logger)

	caller := &scriptedCaller{responses: []string{
		planJSON,
		"const App = () => React.createElement('div', null, 'ok');\nexports.default = App;",
	}}

	validators, fixers := repair.Defaults()
	orch := generation.NewOrchestrator(
		generation.NewBlueprintAgent(caller, cache.NewPlanCache(tiered), logger),
		generation.NewDeltaAgent(caller, logger),
		repair.New(repair.DefaultMaxAttempts, validators, fixers, logger),
		cache.NewCodeCache(tiered),
		time.Millisecond,
		nil,
		logger,
	)

	registry := generation.NewRegistry(nil)
	relay := preview.NewRelay(logger)

	bridge, err := keybridge.New(filepath.Join(t.TempDir(), "key"), "test-secret", logger)
	require.NoError(t, err)

	generationHandler := NewGenerationHandler(registry, orch, logger)
	previewHandler := NewPreviewHandler(registry, relay)
	credentialHandler := NewCredentialHandler(bridge)
	exportHandler := NewExportHandler(registry, logger)
	templatesHandler := NewTemplatesHandler()

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.POST("/generate", generationHandler.Generate)
	v1.GET("/session/:id", generationHandler.GetSession)
	v1.GET("/session/:id/timeline", generationHandler.GetTimeline)
	v1.GET("/session/:id/result", generationHandler.GetResult)
	v1.GET("/session/:id/preview", previewHandler.GetManifest)
	v1.POST("/session/:id/preview/status", previewHandler.PostStatus)
	v1.GET("/session/:id/export", exportHandler.Download)
	v1.POST("/credential", credentialHandler.Set)
	v1.DELETE("/credential", credentialHandler.Clear)
	v1.GET("/credential", credentialHandler.Get)
	v1.GET("/templates", templatesHandler.List)

	return &testServer{router: router, registry: registry}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) startGeneration(t *testing.T) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/generate", models.GenerationRequest{
		Idea:    "sales dashboard with charts",
		ModelID: "llama-3.3-70b",
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func (s *testServer) waitCompleted(t *testing.T, sessionID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		w := s.do(http.MethodGet, "/api/v1/session/"+sessionID, nil)
		if w.Code != http.StatusOK {
			return false
		}
		var state struct {
			Phase models.GenerationPhase `json:"phase"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
			return false
		}
		return state.Phase == models.PhaseCompleted || state.Phase == models.PhaseFailed
	}, 5*time.Second, 10*time.Millisecond)
}

func TestGenerateLifecycle(t *testing.T) {
	srv := newTestServer(t)
	sessionID := srv.startGeneration(t)
	srv.waitCompleted(t, sessionID)

	w := srv.do(http.MethodGet, "/api/v1/session/"+sessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var state generation.SessionState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, models.PhaseCompleted, state.Phase)
	assert.NotNil(t, state.Blueprint)
	assert.Equal(t, "Dashboard app", state.Blueprint.Summary)
	assert.NotNil(t, state.Artifact)

	w = srv.do(http.MethodGet, "/api/v1/session/"+sessionID+"/result", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.GenerationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Cached)
	assert.Equal(t, "dashboard-aurora", result.Template.TemplateID)
}

func TestGenerateReusesSession(t *testing.T) {
	srv := newTestServer(t)
	session := srv.registry.Create()

	w := srv.do(http.MethodPost, "/api/v1/generate", map[string]string{
		"idea":       "sales dashboard with charts",
		"model_id":   "llama-3.3-70b",
		"session_id": session.ID().String(),
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, session.ID().String(), resp.SessionID)
	srv.waitCompleted(t, resp.SessionID)

	w = srv.do(http.MethodPost, "/api/v1/generate", map[string]string{
		"idea":       "x",
		"model_id":   "m",
		"session_id": "11111111-2222-3333-4444-555555555555",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateRejectsMissingFields(t *testing.T) {
	srv := newTestServer(t)
	w := srv.do(http.MethodPost, "/api/v1/generate", map[string]string{"idea": "no model"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionNotFound(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/api/v1/session/8b8f4f0e-13a9-44bb-9a78-0fc2b5d2f001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(http.MethodGet, "/api/v1/session/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimelineLimit(t *testing.T) {
	srv := newTestServer(t)
	sessionID := srv.startGeneration(t)
	srv.waitCompleted(t, sessionID)

	w := srv.do(http.MethodGet, "/api/v1/session/"+sessionID+"/timeline?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Events []models.TimelineEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Events, 2)

	w = srv.do(http.MethodGet, "/api/v1/session/"+sessionID+"/timeline?limit=oops", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResultBeforeCompletion(t *testing.T) {
	srv := newTestServer(t)
	session := srv.registry.Create()

	w := srv.do(http.MethodGet, "/api/v1/session/"+session.ID().String()+"/result", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPreviewManifestAndStatus(t *testing.T) {
	srv := newTestServer(t)
	sessionID := srv.startGeneration(t)
	srv.waitCompleted(t, sessionID)

	w := srv.do(http.MethodGet, "/api/v1/session/"+sessionID+"/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var manifest preview.Manifest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &manifest))
	require.NotNil(t, manifest.Payload)
	assert.NotEmpty(t, manifest.Payload.Code)
	assert.GreaterOrEqual(t, len(manifest.Dependencies), len(preview.DefaultDependencies))

	w = srv.do(http.MethodPost, "/api/v1/session/"+sessionID+"/preview/status",
		models.PreviewStatus{State: models.PreviewStateRendered, Message: "Rendered"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(http.MethodPost, "/api/v1/session/"+sessionID+"/preview/status",
		models.PreviewStatus{State: "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewManifestBeforeArtifact(t *testing.T) {
	srv := newTestServer(t)
	session := srv.registry.Create()

	w := srv.do(http.MethodGet, "/api/v1/session/"+session.ID().String()+"/preview", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCredentialLifecycle(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/api/v1/credential", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap keybridge.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.False(t, snap.Present)

	w = srv.do(http.MethodPost, "/api/v1/credential", map[string]string{"key": "gsk_test", "scope": "session"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.True(t, snap.Present)
	assert.Equal(t, keybridge.ScopeSession, snap.Scope)
	assert.NotContains(t, w.Body.String(), "gsk_test")

	w = srv.do(http.MethodDelete, "/api/v1/credential", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.False(t, snap.Present)

	w = srv.do(http.MethodPost, "/api/v1/credential", map[string]string{"key": "k", "scope": "weird"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportBundle(t *testing.T) {
	srv := newTestServer(t)
	sessionID := srv.startGeneration(t)
	srv.waitCompleted(t, sessionID)

	w := srv.do(http.MethodGet, "/api/v1/session/"+sessionID+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".zip")
	assert.NotZero(t, w.Body.Len())
}

func TestExportBeforeCompletion(t *testing.T) {
	srv := newTestServer(t)
	session := srv.registry.Create()

	w := srv.do(http.MethodGet, "/api/v1/session/"+session.ID().String()+"/export", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTemplatesList(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/api/v1/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Templates []struct {
			ID string `json:"id"`
		} `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Templates, 4)
	assert.Equal(t, "dashboard-aurora", resp.Templates[0].ID)
}
