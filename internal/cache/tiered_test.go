package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/morphic/api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// brokenStore simulates a durable store that is unavailable at runtime
type brokenStore struct{}

func (brokenStore) Read(ctx context.Context, namespace, key string) ([]byte, error) {
	return nil, errors.New("store unavailable")
}

func (brokenStore) Write(ctx context.Context, namespace, key string, payload []byte) error {
	return errors.New("store unavailable")
}

func (brokenStore) Delete(ctx context.Context, namespace, key string) error {
	return errors.New("store unavailable")
}

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func samplePlan(fp string) *models.BlueprintPlan {
	return &models.BlueprintPlan{
		ID:              uuid.New(),
		Fingerprint:     fp,
		Summary:         "Dashboard app",
		Components:      []string{"header", "chart"},
		DataFlows:       []string{"user -> dashboard"},
		Risks:           []string{"latency"},
		AIFeatures:      []string{"recommendations"},
		ComplexityScore: 0.4,
		CreatedAt:       time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestPlanCacheRoundTrip(t *testing.T) {
	tiered := NewTiered(newFileStore(t), newFileStore(t), zap.NewNop())
	planCache := NewPlanCache(tiered)
	ctx := context.Background()

	plan := samplePlan("fp-round-trip")
	planCache.Write(ctx, plan)

	got, ok := planCache.Read(ctx, "fp-round-trip")
	require.True(t, ok)
	assert.Equal(t, plan, got)
}

func TestReadFallsBackWhenDurableUnavailable(t *testing.T) {
	fallback := newFileStore(t)
	tiered := NewTiered(brokenStore{}, fallback, zap.NewNop())
	codeCache := NewCodeCache(tiered)
	ctx := context.Background()

	artifact := &models.CodeArtifact{Code: "const App = () => null", TokenUsage: 42, RepairAttempts: 1}
	codeCache.Write(ctx, "fp-fallback", artifact)

	got, ok := codeCache.Read(ctx, "fp-fallback")
	require.True(t, ok)
	assert.Equal(t, artifact, got)
}

func TestReadAbsentDoesNotFail(t *testing.T) {
	tiered := NewTiered(brokenStore{}, newFileStore(t), zap.NewNop())
	planCache := NewPlanCache(tiered)

	_, ok := planCache.Read(context.Background(), "missing")
	assert.False(t, ok)
}

func TestCorruptFallbackEntryIsEvicted(t *testing.T) {
	dir := t.TempDir()
	fallback, err := NewFileStore(dir)
	require.NoError(t, err)
	tiered := NewTiered(brokenStore{}, fallback, zap.NewNop())
	planCache := NewPlanCache(tiered)

	path := filepath.Join(dir, NamespaceBlueprint+"-fp-corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, ok := planCache.Read(context.Background(), "fp-corrupt")
	assert.False(t, ok)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "corrupt entry should be evicted")
}

func TestWriteSwallowsTotalStorageFailure(t *testing.T) {
	tiered := NewTiered(brokenStore{}, brokenStore{}, zap.NewNop())
	planCache := NewPlanCache(tiered)

	// Must not panic or surface an error to the caller.
	planCache.Write(context.Background(), samplePlan("fp-doomed"))

	_, ok := planCache.Read(context.Background(), "fp-doomed")
	assert.False(t, ok)
}

func TestLastWriteWinsPerFingerprint(t *testing.T) {
	tiered := NewTiered(newFileStore(t), newFileStore(t), zap.NewNop())
	codeCache := NewCodeCache(tiered)
	ctx := context.Background()

	codeCache.Write(ctx, "fp-ties", &models.CodeArtifact{Code: "v1"})
	codeCache.Write(ctx, "fp-ties", &models.CodeArtifact{Code: "v2"})

	got, ok := codeCache.Read(ctx, "fp-ties")
	require.True(t, ok)
	assert.Equal(t, "v2", got.Code)
}
