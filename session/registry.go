package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the sessions owned by a host process. It replaces any
// process-wide session state: the host creates one and passes it around.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Manager
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Manager)}
}

// Add registers m under a fresh id.
func (r *Registry) Add(m *Manager) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.sessions[id] = m
	r.mu.Unlock()
	return id
}

// Get looks up a session.
func (r *Registry) Get(id uuid.UUID) (*Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.sessions[id]
	return m, ok
}

// Remove forgets a session and reports whether it was registered.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// IDs returns the registered ids in a stable order.
func (r *Registry) IDs() []uuid.UUID {
	r.mu.RLock()
	ids := make([]uuid.UUID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StopAll stops every running session and returns the first error.
func (r *Registry) StopAll() error {
	var first error
	for _, id := range r.IDs() {
		m, ok := r.Get(id)
		if !ok {
			continue
		}
		if err := m.Stop(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
