package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationPhase represents the lifecycle state of a generation run
type GenerationPhase string

const (
	PhaseIdle             GenerationPhase = "idle"
	PhaseBlueprint        GenerationPhase = "blueprint"
	PhaseTemplateMatching GenerationPhase = "template-matching"
	PhaseValidation       GenerationPhase = "validation"
	PhaseDelta            GenerationPhase = "delta"
	PhaseAutoRepair       GenerationPhase = "auto-repair"
	PhaseCompleted        GenerationPhase = "completed"
	PhaseFailed           GenerationPhase = "failed"
)

// PhaseStatus marks timeline entries relayed from the preview runtime,
// which sit outside the orchestrator state machine.
const PhaseStatus GenerationPhase = "status"

// GenerationRequest is the immutable input for one generation run
type GenerationRequest struct {
	Idea    string `json:"idea" binding:"required"`
	ModelID string `json:"model_id" binding:"required"`
	Tone    string `json:"tone,omitempty"`
	Context string `json:"context,omitempty"`
}

// BlueprintPlan is the structured plan drafted before code generation.
// Cached by Fingerprint, not ID: two creations for the same fingerprint
// produce distinct IDs but deduplicate in the cache.
type BlueprintPlan struct {
	ID              uuid.UUID `json:"id"`
	Fingerprint     string    `json:"fingerprint"`
	Summary         string    `json:"summary"`
	Components      []string  `json:"components"`
	DataFlows       []string  `json:"data_flows"`
	Risks           []string  `json:"risks"`
	AIFeatures      []string  `json:"ai_features"`
	ComplexityScore float64   `json:"complexity_score"` // clamped to [0,1]
	CreatedAt       time.Time `json:"created_at"`
}

// TemplateSelection is the deterministic template match for a plan.
// Recomputed each run, never persisted.
type TemplateSelection struct {
	TemplateID string  `json:"template_id"`
	Confidence float64 `json:"confidence"` // capped at 0.99
	Rationale  string  `json:"rationale"`
}

// CodeArtifact is generated component source plus generation metadata
type CodeArtifact struct {
	Code           string `json:"code"`
	TokenUsage     int    `json:"token_usage"`
	RepairAttempts int    `json:"repair_attempts"`
}

// GenerationResult is the terminal artifact of one orchestrator run.
// Not cached itself; Cached reflects whether the artifact came from cache.
type GenerationResult struct {
	Blueprint  *BlueprintPlan     `json:"blueprint"`
	Template   *TemplateSelection `json:"template"`
	Artifact   *CodeArtifact      `json:"artifact"`
	DurationMs int64              `json:"duration_ms"`
	Cached     bool               `json:"cached"`
}

// PreviewPayload is handed to the preview runtime; each new generation
// supersedes it wholesale.
type PreviewPayload struct {
	Code        string                 `json:"code"`
	CreatedAt   time.Time              `json:"created_at"`
	TemplateID  string                 `json:"template_id,omitempty"`
	BlueprintID string                 `json:"blueprint_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// TimelineEvent is one entry in the append-only audit trail of a session
type TimelineEvent struct {
	ID        uuid.UUID              `json:"id"`
	Phase     GenerationPhase        `json:"phase"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// PreviewState is the runtime-reported state of a render cycle
type PreviewState string

const (
	PreviewStateIdle         PreviewState = "idle"
	PreviewStateInitializing PreviewState = "initializing"
	PreviewStateLoading      PreviewState = "loading"
	PreviewStateRendered     PreviewState = "rendered"
	PreviewStateError        PreviewState = "error"
)

// PreviewStatus is an out-of-band message posted by the preview runtime
type PreviewStatus struct {
	State   PreviewState `json:"state"`
	Message string       `json:"message,omitempty"`
	Errors  []string     `json:"errors,omitempty"`
}

// Terminal reports whether the status ends the current render cycle
func (s PreviewStatus) Terminal() bool {
	return s.State == PreviewStateRendered || s.State == PreviewStateError
}
