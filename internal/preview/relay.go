package preview

import (
	"fmt"

	"github.com/morphic/api/internal/models"
	"go.uber.org/zap"
)

// Manifest is the handoff to the isolated preview runtime: the payload
// plus every CDN bundle the runtime must inject before executing it.
// The rendering mechanism itself lives outside this service.
type Manifest struct {
	Payload      *models.PreviewPayload `json:"payload"`
	Dependencies []string               `json:"dependencies"`
}

// BuildManifest assembles the runtime manifest for a payload
func BuildManifest(payload *models.PreviewPayload) Manifest {
	deps := append([]string{}, DefaultDependencies...)
	deps = append(deps, DetectDependencies(payload.Code)...)
	return Manifest{Payload: payload, Dependencies: deps}
}

// SessionSink receives relayed runtime statuses
type SessionSink interface {
	ApplyPreviewStatus(status models.PreviewStatus)
}

// Relay validates out-of-band status messages from the preview runtime
// and forwards them into the owning session's timeline. The runtime
// reports asynchronously; relayed state is independent of orchestrator
// progress.
type Relay struct {
	logger *zap.Logger
}

// NewRelay creates a relay
func NewRelay(logger *zap.Logger) *Relay {
	return &Relay{logger: logger}
}

var validStates = map[models.PreviewState]bool{
	models.PreviewStateInitializing: true,
	models.PreviewStateLoading:      true,
	models.PreviewStateRendered:     true,
	models.PreviewStateError:        true,
}

// Ingest forwards one status message. Unknown states are rejected so a
// misbehaving runtime cannot write arbitrary phases into the timeline.
func (r *Relay) Ingest(sink SessionSink, status models.PreviewStatus) error {
	if !validStates[status.State] {
		return fmt.Errorf("unknown preview state %q", status.State)
	}

	if status.State == models.PreviewStateError {
		r.logger.Warn("preview runtime reported error",
			zap.String("message", status.Message),
			zap.Strings("errors", status.Errors),
		)
	}

	sink.ApplyPreviewStatus(status)
	return nil
}
