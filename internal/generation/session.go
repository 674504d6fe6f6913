package generation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/morphic/api/internal/models"
)

// TimelinePublisher mirrors timeline events to an external bus.
// Implementations must tolerate being called from multiple goroutines.
type TimelinePublisher interface {
	PublishTimeline(sessionID string, event models.TimelineEvent)
}

// Session holds the mutable state of one generation surface: the
// active request, phase, timeline and preview handoff. Sessions are
// independent; a server owns many. The timeline is append-only and
// unbounded here; trimming is a display concern.
type Session struct {
	id        uuid.UUID
	publisher TimelinePublisher // may be nil

	mu             sync.RWMutex
	phase          models.GenerationPhase
	request        *models.GenerationRequest
	blueprint      *models.BlueprintPlan
	template       *models.TemplateSelection
	artifact       *models.CodeArtifact
	result         *models.GenerationResult
	statusMessage  string
	cached         bool
	errMsg         string
	startedAt      time.Time
	completedAt    time.Time
	timeline       []models.TimelineEvent
	previewPayload *models.PreviewPayload
	previewStatus  models.PreviewStatus
}

// SessionState is a read-only snapshot served over the API
type SessionState struct {
	ID            uuid.UUID                 `json:"id"`
	Phase         models.GenerationPhase    `json:"phase"`
	Request       *models.GenerationRequest `json:"request,omitempty"`
	Blueprint     *models.BlueprintPlan     `json:"blueprint,omitempty"`
	Template      *models.TemplateSelection `json:"template,omitempty"`
	Artifact      *models.CodeArtifact      `json:"artifact,omitempty"`
	StatusMessage string                    `json:"status_message"`
	Cached        bool                      `json:"cached"`
	Error         string                    `json:"error,omitempty"`
	StartedAt     *time.Time                `json:"started_at,omitempty"`
	CompletedAt   *time.Time                `json:"completed_at,omitempty"`
	PreviewStatus models.PreviewStatus      `json:"preview_status"`
	EventCount    int                       `json:"event_count"`
}

// NewSession creates an idle session. publisher may be nil.
func NewSession(publisher TimelinePublisher) *Session {
	return &Session{
		id:            uuid.New(),
		publisher:     publisher,
		phase:         models.PhaseIdle,
		statusMessage: "Describe an experience to begin.",
		previewStatus: models.PreviewStatus{State: models.PreviewStateIdle, Message: "Awaiting preview render"},
	}
}

// ID returns the session identifier
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Begin resets the session for a new run and enters the blueprint
// phase. Prior blueprint/template/artifact state is cleared immediately;
// in-flight work from an older run is not cancelled.
func (s *Session) Begin(req models.GenerationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqCopy := req
	s.phase = models.PhaseBlueprint
	s.request = &reqCopy
	s.blueprint = nil
	s.template = nil
	s.artifact = nil
	s.result = nil
	s.errMsg = ""
	s.cached = false
	s.statusMessage = "Crafting blueprint plan..."
	s.startedAt = time.Now()
	s.completedAt = time.Time{}
	s.previewPayload = nil
	s.previewStatus = models.PreviewStatus{State: models.PreviewStateInitializing, Message: "Preparing preview runtime..."}

	s.appendLocked(models.PhaseBlueprint, "Crafting blueprint plan...", map[string]interface{}{"model_id": req.ModelID})
	s.appendLocked(models.PhaseStatus, "Preparing preview runtime...", map[string]interface{}{"state": models.PreviewStateInitializing})
}

// SetBlueprint records the obtained plan and enters template matching
func (s *Session) SetBlueprint(plan *models.BlueprintPlan, cached bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message := "Blueprint ready. Matching templates..."
	if cached {
		message = "Reusing cached blueprint."
	}
	s.blueprint = plan
	s.cached = cached
	s.phase = models.PhaseTemplateMatching
	s.statusMessage = message
	s.appendLocked(models.PhaseTemplateMatching, message, map[string]interface{}{"cached": cached})
}

// SetTemplate records the selection and enters validation
func (s *Session) SetTemplate(sel models.TemplateSelection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message := "Validating plan and template compatibility..."
	s.template = &sel
	s.phase = models.PhaseValidation
	s.statusMessage = message
	s.appendLocked(models.PhaseValidation, message, map[string]interface{}{"template_id": sel.TemplateID})
}

// SetPhase records a bare phase transition
func (s *Session) SetPhase(phase models.GenerationPhase, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = phase
	s.statusMessage = message
	s.appendLocked(phase, message, nil)
}

// SetArtifact records the code artifact, builds the preview payload and
// enters auto-repair.
func (s *Session) SetArtifact(artifact *models.CodeArtifact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message := "Ensuring generated code is production-ready..."
	s.artifact = artifact
	s.phase = models.PhaseAutoRepair
	s.statusMessage = message

	payload := &models.PreviewPayload{
		Code:      artifact.Code,
		CreatedAt: time.Now(),
		Metadata:  map[string]interface{}{"token_usage": artifact.TokenUsage},
	}
	if s.template != nil {
		payload.TemplateID = s.template.TemplateID
	}
	if s.blueprint != nil {
		payload.BlueprintID = s.blueprint.ID.String()
	}
	s.previewPayload = payload

	s.appendLocked(models.PhaseAutoRepair, message, map[string]interface{}{"token_usage": artifact.TokenUsage})
}

// Complete records the terminal result of a successful run
func (s *Session) Complete(result *models.GenerationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message := "Preview ready with fresh generation."
	if result.Cached {
		message = "Preview ready from cache."
	}
	s.result = result
	s.blueprint = result.Blueprint
	s.template = result.Template
	s.artifact = result.Artifact
	s.cached = result.Cached
	s.phase = models.PhaseCompleted
	s.statusMessage = "Preview ready!"
	s.completedAt = time.Now()
	s.previewStatus = models.PreviewStatus{State: models.PreviewStateLoading, Message: "Streaming preview to runtime..."}

	s.appendLocked(models.PhaseCompleted, message, map[string]interface{}{
		"duration_ms": result.DurationMs,
		"cached":      result.Cached,
	})
}

// Fail records a terminal error; no partial result survives
func (s *Session) Fail(errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = models.PhaseFailed
	s.errMsg = errMsg
	s.result = nil
	s.statusMessage = "Generation failed. Adjust prompt or retry."
	s.completedAt = time.Now()
	s.previewStatus = models.PreviewStatus{State: models.PreviewStateError, Message: errMsg, Errors: []string{errMsg}}

	s.appendLocked(models.PhaseFailed, errMsg, nil)
}

// ApplyPreviewStatus relays an out-of-band runtime message into the
// session, independent of orchestrator progress.
func (s *Session) ApplyPreviewStatus(status models.PreviewStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.previewStatus = status
	meta := map[string]interface{}{"state": status.State}
	if len(status.Errors) > 0 {
		meta["errors"] = status.Errors
	}
	s.appendLocked(models.PhaseStatus, status.Message, meta)
}

// StartedAt returns when the current run began
func (s *Session) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// Phase returns the current phase
func (s *Session) Phase() models.GenerationPhase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Error returns the recorded failure message, empty when none
func (s *Session) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Result returns the terminal result of the last completed run
func (s *Session) Result() *models.GenerationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// PreviewPayload returns the current preview handoff, nil before the
// first artifact.
func (s *Session) PreviewPayload() *models.PreviewPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previewPayload
}

// State returns a snapshot for API responses
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := SessionState{
		ID:            s.id,
		Phase:         s.phase,
		Request:       s.request,
		Blueprint:     s.blueprint,
		Template:      s.template,
		Artifact:      s.artifact,
		StatusMessage: s.statusMessage,
		Cached:        s.cached,
		Error:         s.errMsg,
		PreviewStatus: s.previewStatus,
		EventCount:    len(s.timeline),
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		state.StartedAt = &t
	}
	if !s.completedAt.IsZero() {
		t := s.completedAt
		state.CompletedAt = &t
	}
	return state
}

// Timeline returns a copy of the append-only event log. Callers apply
// their own retention (e.g. display last N).
func (s *Session) Timeline() []models.TimelineEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]models.TimelineEvent, len(s.timeline))
	copy(events, s.timeline)
	return events
}

func (s *Session) appendLocked(phase models.GenerationPhase, message string, meta map[string]interface{}) {
	event := models.TimelineEvent{
		ID:        uuid.New(),
		Phase:     phase,
		Message:   message,
		Timestamp: time.Now(),
		Meta:      meta,
	}
	s.timeline = append(s.timeline, event)
	if s.publisher != nil {
		s.publisher.PublishTimeline(s.id.String(), event)
	}
}
