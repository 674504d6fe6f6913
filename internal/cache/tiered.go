package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/morphic/api/internal/models"
	"go.uber.org/zap"
)

// Tiered reads through a durable structured store with a flat fallback.
// Every write mirrors into the fallback so reads survive the durable
// store going away. Storage failures are logged and swallowed: caching
// is an optimization, never a correctness requirement.
type Tiered struct {
	durable  Store
	fallback Store
	logger   *zap.Logger
}

// NewTiered combines a durable store and a fallback store
func NewTiered(durable, fallback Store, logger *zap.Logger) *Tiered {
	return &Tiered{durable: durable, fallback: fallback, logger: logger}
}

// Read unmarshals the entry for key into v. It returns false when
// neither tier holds a usable entry; it never returns an error.
func (t *Tiered) Read(ctx context.Context, namespace, key string, v interface{}) bool {
	payload, err := t.durable.Read(ctx, namespace, key)
	if err == nil {
		if json.Unmarshal(payload, v) == nil {
			return true
		}
		t.logger.Warn("durable cache entry corrupt, trying fallback",
			zap.String("namespace", namespace), zap.String("key", key))
	} else if !errors.Is(err, ErrNotFound) {
		t.logger.Warn("durable cache read failed, trying fallback",
			zap.String("namespace", namespace), zap.String("key", key), zap.Error(err))
	}

	payload, err = t.fallback.Read(ctx, namespace, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			t.logger.Warn("fallback cache read failed",
				zap.String("namespace", namespace), zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if json.Unmarshal(payload, v) != nil {
		// Corrupt fallback entries are evicted so they cannot keep
		// shadowing future writes.
		if err := t.fallback.Delete(ctx, namespace, key); err != nil {
			t.logger.Warn("failed to evict corrupt fallback entry",
				zap.String("namespace", namespace), zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

// Write marshals v under key in both tiers, best-effort
func (t *Tiered) Write(ctx context.Context, namespace, key string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		t.logger.Warn("cache marshal failed",
			zap.String("namespace", namespace), zap.String("key", key), zap.Error(err))
		return
	}
	if err := t.durable.Write(ctx, namespace, key, payload); err != nil {
		t.logger.Warn("durable cache write failed, fallback only",
			zap.String("namespace", namespace), zap.String("key", key), zap.Error(err))
	}
	if err := t.fallback.Write(ctx, namespace, key, payload); err != nil {
		t.logger.Warn("fallback cache write failed",
			zap.String("namespace", namespace), zap.String("key", key), zap.Error(err))
	}
}

// PlanCache stores blueprint plans keyed by request fingerprint
type PlanCache struct {
	tiered *Tiered
}

// NewPlanCache creates the blueprint cache
func NewPlanCache(tiered *Tiered) *PlanCache {
	return &PlanCache{tiered: tiered}
}

// Read returns the cached plan for a fingerprint, if any
func (c *PlanCache) Read(ctx context.Context, fp string) (*models.BlueprintPlan, bool) {
	var plan models.BlueprintPlan
	if !c.tiered.Read(ctx, NamespaceBlueprint, fp, &plan) {
		return nil, false
	}
	return &plan, true
}

// Write caches a fully-formed plan under its fingerprint
func (c *PlanCache) Write(ctx context.Context, plan *models.BlueprintPlan) {
	c.tiered.Write(ctx, NamespaceBlueprint, plan.Fingerprint, plan)
}

// CodeCache stores repaired code artifacts keyed by request fingerprint
type CodeCache struct {
	tiered *Tiered
}

// NewCodeCache creates the artifact cache
func NewCodeCache(tiered *Tiered) *CodeCache {
	return &CodeCache{tiered: tiered}
}

// Read returns the cached artifact for a fingerprint, if any
func (c *CodeCache) Read(ctx context.Context, fp string) (*models.CodeArtifact, bool) {
	var artifact models.CodeArtifact
	if !c.tiered.Read(ctx, NamespaceDelta, fp, &artifact) {
		return nil, false
	}
	return &artifact, true
}

// Write caches an artifact that has passed through the repair pipeline
func (c *CodeCache) Write(ctx context.Context, fp string, artifact *models.CodeArtifact) {
	c.tiered.Write(ctx, NamespaceDelta, fp, artifact)
}
