// Package session maps opaque session identifiers to per-user conversation
// memory and expires idle sessions.
//
// A session represents one isolated conversation: an identity plus a bounded
// [memory.Memory]. The [Registry] owns every session exclusively; callers
// never hold references to sessions, only to the Memory resolved for a
// request.
//
// Key operations:
//
//   - Session lifecycle: [Registry.Resolve], [Registry.Clear], [Registry.Delete]
//   - Monitoring: [Registry.Stats]
//
// # Expiry
//
// Sessions idle longer than the configured timeout are removed by a sweep
// that runs opportunistically on every Resolve; there is no background
// timer. Expiry is strict: a session last touched exactly timeout ago
// survives a sweep run at that instant.
//
// # Concurrency
//
// Registry is safe for concurrent use. A single mutex serializes every
// mutation of the session map, so sweep-and-insert races cannot drop or
// resurrect a session. The lock covers registry bookkeeping only; callers
// perform search and generation after Resolve returns, without holding it.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vidyalabs/vidya/internal/log"
	"github.com/vidyalabs/vidya/internal/memory"
)

// DefaultTimeout is how long a session may sit idle before a sweep
// removes it.
const DefaultTimeout = 60 * time.Minute

// statsSessionLimit caps the number of per-session summaries returned by
// Stats to keep the payload bounded.
const statsSessionLimit = 10

// entry holds one session's state. Owned exclusively by the Registry.
type entry struct {
	memory       *memory.Memory
	createdAt    time.Time
	lastAccessed time.Time
}

// Registry maps session ids to conversation memory and expires idle
// sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry

	timeout     time.Duration
	memCapacity int
	now         func() time.Time
	logger      log.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithTimeout sets the idle timeout after which sessions are swept.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMemoryCapacity sets the message capacity of newly created memories.
func WithMemoryCapacity(capacity int) Option {
	return func(r *Registry) {
		r.memCapacity = capacity
	}
}

// WithClock injects the time source. Tests use a fake clock to exercise
// expiry deterministically.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger log.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}

	r := &Registry{
		sessions:    make(map[string]*entry),
		timeout:     DefaultTimeout,
		memCapacity: memory.DefaultCapacity,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the Memory for id, refreshing its last-access time.
//
// When id is empty, unknown, or expired, a new session is created under a
// fresh collision-resistant identifier; a stale id never resurrects an old
// session and never falls back to another user's. Resolve never fails:
// stale identifiers are expected under the timeout policy, not exceptional.
//
// Every call sweeps expired sessions first.
func (r *Registry) Resolve(id string) (string, *memory.Memory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	if id != "" {
		if e, ok := r.sessions[id]; ok {
			e.lastAccessed = now
			return id, e.memory
		}
	}

	newID := uuid.NewString()
	r.sessions[newID] = &entry{
		memory:       memory.New(r.memCapacity),
		createdAt:    now,
		lastAccessed: now,
	}
	r.logger.Debug("created session", "id", newID, "active", len(r.sessions))
	return newID, r.sessions[newID].memory
}

// Clear empties a session's memory without deleting the session entry.
// No-op when id is unknown.
func (r *Registry) Clear(id string) {
	r.mu.Lock()
	e, ok := r.sessions[id]
	r.mu.Unlock()

	if ok {
		e.memory.Clear()
		r.logger.Debug("cleared session", "id", id)
	}
}

// Delete removes a session entirely. No-op when id is unknown.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		delete(r.sessions, id)
		r.logger.Debug("deleted session", "id", id)
	}
}

// sweepLocked removes sessions idle strictly longer than the timeout.
// Caller must hold r.mu.
func (r *Registry) sweepLocked(now time.Time) {
	for id, e := range r.sessions {
		if now.Sub(e.lastAccessed) > r.timeout {
			delete(r.sessions, id)
			r.logger.Debug("swept idle session", "id", id)
		}
	}
}

// Summary describes one active session for monitoring output.
type Summary struct {
	ID         string  `json:"id"` // truncated, not a usable identifier
	Messages   int     `json:"messages"`
	AgeMinutes float64 `json:"age_minutes"`
}

// Stats reports the number of active sessions plus a bounded list of
// per-session summaries.
type Stats struct {
	ActiveSessions int       `json:"active_sessions"`
	Sessions       []Summary `json:"sessions"`
}

// Stats returns a snapshot of the registry.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	stats := Stats{
		ActiveSessions: len(r.sessions),
		Sessions:       make([]Summary, 0, min(len(r.sessions), statsSessionLimit)),
	}
	for id, e := range r.sessions {
		if len(stats.Sessions) >= statsSessionLimit {
			break
		}
		stats.Sessions = append(stats.Sessions, Summary{
			ID:         truncateID(id),
			Messages:   e.memory.Len(),
			AgeMinutes: now.Sub(e.createdAt).Minutes(),
		})
	}
	return stats
}

// truncateID shortens a session id for display so stats output never leaks
// a resolvable identifier.
func truncateID(id string) string {
	const visible = 8
	if len(id) <= visible {
		return id
	}
	return id[:visible] + "..."
}
