package posing

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"poser-sync/internal/skeleton"
)

// Registry owns the posing sessions of every character this client knows.
type Registry struct {
	opts     Options
	sessions map[uuid.UUID]*Session
}

func NewRegistry(opts Options) *Registry {
	return &Registry{opts: opts.withDefaults(), sessions: make(map[uuid.UUID]*Session)}
}

// Start begins posing rig, returning the existing session if already posing.
func (r *Registry) Start(rig *skeleton.Rig) *Session {
	if s, ok := r.sessions[rig.ID]; ok && s.Active() {
		return s
	}
	s := New(rig, r.opts)
	s.Activate()
	r.sessions[rig.ID] = s
	return s
}

// Get returns the active session for id.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	s, ok := r.sessions[id]
	if !ok || !s.Active() {
		return nil, false
	}
	return s, true
}

// Stop deactivates and forgets the session for id.
func (r *Registry) Stop(id uuid.UUID) bool {
	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.Deactivate()
	delete(r.sessions, id)
	return true
}

// IDs lists posed characters in a stable order.
func (r *Registry) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Update advances every session by dt.
func (r *Registry) Update(dt time.Duration) int {
	moved := 0
	for _, s := range r.sessions {
		moved += s.Update(dt)
	}
	return moved
}
