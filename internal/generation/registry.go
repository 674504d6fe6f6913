package generation

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks live sessions by id. Sessions are kept for the
// lifetime of the process; there is no eviction since each one holds
// only the latest run's state.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*Session
	publisher TimelinePublisher
}

// NewRegistry creates a registry. publisher may be nil; it is handed
// to every session the registry creates.
func NewRegistry(publisher TimelinePublisher) *Registry {
	return &Registry{
		sessions:  make(map[uuid.UUID]*Session),
		publisher: publisher,
	}
}

// Create registers a fresh idle session
func (r *Registry) Create() *Session {
	session := NewSession(r.publisher)
	r.mu.Lock()
	r.sessions[session.ID()] = session
	r.mu.Unlock()
	return session
}

// Get returns the session for an id, nil when unknown
func (r *Registry) Get(id uuid.UUID) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}
