package generation

import (
	"context"
	"time"

	"github.com/morphic/api/internal/cache"
	"github.com/morphic/api/internal/fingerprint"
	"github.com/morphic/api/internal/metrics"
	"github.com/morphic/api/internal/models"
	"github.com/morphic/api/internal/repair"
	"github.com/morphic/api/internal/templates"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Orchestrator sequences one generation run through its phases:
// blueprint, template matching, validation, delta, auto-repair,
// completion. It owns no session state; callers pass the session the
// run should mutate.
type Orchestrator struct {
	blueprint      *BlueprintAgent
	delta          *DeltaAgent
	repairs        *repair.Pipeline
	codeCache      *cache.CodeCache
	settleDelay    time.Duration
	onPreviewReady func(*models.GenerationResult)
	tracer         trace.Tracer
	logger         *zap.Logger
}

// NewOrchestrator wires the pipeline. onPreviewReady may be nil.
func NewOrchestrator(
	blueprint *BlueprintAgent,
	delta *DeltaAgent,
	repairs *repair.Pipeline,
	codeCache *cache.CodeCache,
	settleDelay time.Duration,
	onPreviewReady func(*models.GenerationResult),
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		blueprint:      blueprint,
		delta:          delta,
		repairs:        repairs,
		codeCache:      codeCache,
		settleDelay:    settleDelay,
		onPreviewReady: onPreviewReady,
		tracer:         otel.Tracer("morphic/generation"),
		logger:         logger,
	}
}

// Generate runs the full pipeline for a request against the given
// session. On failure it records the error in the session and returns
// nil; agent errors never escape to the caller.
func (o *Orchestrator) Generate(ctx context.Context, session *Session, req models.GenerationRequest) *models.GenerationResult {
	ctx, span := o.tracer.Start(ctx, "generate",
		trace.WithAttributes(attribute.String("model_id", req.ModelID)))
	defer span.End()

	session.Begin(req)
	fp := fingerprint.Compute(req)

	result, err := o.run(ctx, session, req, fp)
	if err != nil {
		o.logger.Warn("generation failed",
			zap.String("session_id", session.ID().String()),
			zap.String("fingerprint", fp),
			zap.Error(err),
		)
		metrics.GenerationsTotal.WithLabelValues("failed").Inc()
		session.Fail(err.Error())
		return nil
	}

	metrics.GenerationsTotal.WithLabelValues("completed").Inc()
	metrics.GenerationDuration.Observe(float64(result.DurationMs) / 1000)
	session.Complete(result)

	if o.onPreviewReady != nil {
		o.onPreviewReady(result)
	}
	return result
}

func (o *Orchestrator) run(ctx context.Context, session *Session, req models.GenerationRequest, fp string) (*models.GenerationResult, error) {
	// blueprint
	blueprintCtx, blueprintSpan := o.tracer.Start(ctx, "blueprint")
	plan, planCached, err := o.blueprint.Obtain(blueprintCtx, req, fp)
	blueprintSpan.End()
	if err != nil {
		return nil, err
	}
	session.SetBlueprint(plan, planCached)

	// template-matching: synchronous and deterministic, no remote call
	selection := templates.Match(plan, req.Tone)
	session.SetTemplate(selection)

	// validation: a short settle delay lets attached surfaces catch up
	// before the expensive stage starts
	select {
	case <-time.After(o.settleDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// delta: cached artifacts skip both the model call and repair
	artifact, codeCached := o.codeCache.Read(ctx, fp)
	if codeCached {
		metrics.CacheLookups.WithLabelValues("delta", "hit").Inc()
		session.SetArtifact(artifact)
	} else {
		metrics.CacheLookups.WithLabelValues("delta", "miss").Inc()
		session.SetPhase(models.PhaseDelta, "Requesting delta code from the model...")

		deltaCtx, deltaSpan := o.tracer.Start(ctx, "delta")
		generated, err := o.delta.Generate(deltaCtx, req, plan, selection)
		deltaSpan.End()
		if err != nil {
			return nil, err
		}

		_, repairSpan := o.tracer.Start(ctx, "auto-repair")
		repaired := o.repairs.Run(generated.Code)
		repairSpan.End()
		metrics.RepairAttempts.Observe(float64(repaired.Attempts))

		artifact = &models.CodeArtifact{
			Code:           repaired.Code,
			TokenUsage:     generated.TokenUsage,
			RepairAttempts: repaired.Attempts,
		}
		session.SetArtifact(artifact)
		// Only fully-formed artifacts that went through repair reach the cache.
		o.codeCache.Write(ctx, fp, artifact)
	}

	return &models.GenerationResult{
		Blueprint:  plan,
		Template:   &selection,
		Artifact:   artifact,
		DurationMs: time.Since(session.StartedAt()).Milliseconds(),
		Cached:     codeCached,
	}, nil
}
