package session

import (
	"sync"

	"github.com/google/uuid"
)

type registryKey struct {
	testID    uuid.UUID
	studentID int
}

// Registry holds the live sessions of in-progress attempts, keyed by
// (test, student). Each attempt owns an independent session; nothing
// is shared between entries.
type Registry struct {
	mu       sync.RWMutex
	sessions map[registryKey]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[registryKey]*Session)}
}

// Get returns the live session for an attempt, if one is in memory.
func (r *Registry) Get(testID uuid.UUID, studentID int) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[registryKey{testID, studentID}]
	return s, ok
}

// PutIfAbsent registers a session unless the key is already taken, in
// which case the existing session is returned and the caller must adopt
// it. Two devices racing to start the same attempt have to converge on
// one session; last-writer-wins would leave the loser's countdown armed
// against a session nobody can reach.
func (r *Registry) PutIfAbsent(testID uuid.UUID, studentID int, s *Session) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey{testID, studentID}
	if existing, ok := r.sessions[key]; ok {
		return existing, false
	}
	r.sessions[key] = s
	return s, true
}

// Evict drops a session, but only the exact one the caller holds. A
// stale eviction must never remove a live replacement registered under
// the same key.
func (r *Registry) Evict(testID uuid.UUID, studentID int, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey{testID, studentID}
	if r.sessions[key] == s {
		delete(r.sessions, key)
	}
}

// Len reports the number of live sessions, for monitoring.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
