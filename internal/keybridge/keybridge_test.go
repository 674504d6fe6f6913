package keybridge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newBridge(t *testing.T) (*Bridge, string) {
	t.Helper()
	file := filepath.Join(t.TempDir(), "key")
	b, err := New(file, "test-secret", zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return b, file
}

func TestDurableRoundTrip(t *testing.T) {
	b, file := newBridge(t)

	scope, err := b.Set("sk-durable", ScopeDurable)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if scope != ScopeDurable {
		t.Fatalf("expected durable scope, got %s", scope)
	}
	if got := b.Credential(); got != "sk-durable" {
		t.Errorf("expected key back, got %q", got)
	}

	// The on-disk copy must not contain the plaintext key.
	raw, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("reading key file: %v", err)
	}
	if strings.Contains(string(raw), "sk-durable") {
		t.Error("key stored in plaintext")
	}
}

func TestSessionScopeClearsDurable(t *testing.T) {
	b, file := newBridge(t)

	b.Set("sk-durable", ScopeDurable)
	b.Set("sk-session", ScopeSession)

	if got := b.Credential(); got != "sk-session" {
		t.Errorf("expected session key, got %q", got)
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("durable copy should be removed when session scope is chosen")
	}
}

func TestEmptyValueClears(t *testing.T) {
	b, _ := newBridge(t)

	b.Set("sk-key", ScopeSession)
	scope, _ := b.Set("   ", ScopeSession)

	if scope != ScopeNone {
		t.Errorf("expected none scope, got %s", scope)
	}
	if b.Credential() != "" {
		t.Error("credential should be empty after clearing")
	}
}

func TestSnapshotNeverExposesKey(t *testing.T) {
	b, _ := newBridge(t)

	snap := b.Snapshot()
	if snap.Present || snap.Scope != ScopeNone {
		t.Errorf("unexpected empty snapshot: %+v", snap)
	}

	b.Set("sk-key", ScopeDurable)
	snap = b.Snapshot()
	if !snap.Present || snap.Scope != ScopeDurable {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if !snap.Capabilities.Session {
		t.Error("session scope should always be available")
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	file := filepath.Join(t.TempDir(), "key")
	first, err := New(file, "secret", zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	first.Set("sk-persist", ScopeDurable)

	second, err := New(file, "secret", zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := second.Credential(); got != "sk-persist" {
		t.Errorf("expected persisted key, got %q", got)
	}
}
