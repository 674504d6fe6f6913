package cache

import (
	"context"
	"errors"
)

// Namespaces for the two artifact caches. Both are keyed by the request
// fingerprint, so a fingerprint maps to at most one entry per namespace.
const (
	NamespaceBlueprint = "blueprint"
	NamespaceDelta     = "delta"
)

// ErrNotFound reports that a key has no entry in a store
var ErrNotFound = errors.New("cache: entry not found")

// Store is one tier of the artifact cache. Payloads are opaque JSON;
// implementations must treat writes as last-write-wins.
type Store interface {
	Read(ctx context.Context, namespace, key string) ([]byte, error)
	Write(ctx context.Context, namespace, key string, payload []byte) error
	Delete(ctx context.Context, namespace, key string) error
}
