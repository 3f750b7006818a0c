package loginsession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-session/auth"
	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/rs/zerolog/log"
)

var _ Registry = (*InMemoryRegistry)(nil)

type entry struct {
	session  *auth.Session
	lastSeen time.Time
}

// InMemoryRegistry is an in-memory implementation of Registry with idle expiry
type InMemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*entry // browser session id -> login session
	idle     time.Duration
	nowTime  func() time.Time
}

// RegistryOption defines a function type to modify the InMemoryRegistry instance.
type RegistryOption func(*InMemoryRegistry)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) RegistryOption {
	return func(r *InMemoryRegistry) {
		r.nowTime = nowFunc
	}
}

// NewInMemoryRegistry creates a registry dropping sessions unused for longer than idle.
// A non-positive idle keeps sessions until they are deleted.
func NewInMemoryRegistry(idle time.Duration, opts ...RegistryOption) *InMemoryRegistry {
	r := &InMemoryRegistry{
		sessions: make(map[string]*entry),
		idle:     idle,
		nowTime:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the session for id, creating it with factory when absent or idle-expired
func (r *InMemoryRegistry) GetOrCreate(id string, factory Factory) (*auth.Session, bool, error) {
	if id == "" {
		return nil, false, fmt.Errorf("[loginsession GetOrCreate] id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowTime()
	if e, ok := r.sessions[id]; ok && !r.expired(e, now) {
		e.lastSeen = now
		return e.session, false, nil
	}

	session, err := factory()
	if err != nil {
		return nil, false, fmt.Errorf("[loginsession GetOrCreate] %w", err)
	}
	r.sessions[id] = &entry{session: session, lastSeen: now}
	return session, true, nil
}

// Get retrieves the live session for id
func (r *InMemoryRegistry) Get(id string) (*auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[id]
	if !ok || r.expired(e, r.nowTime()) {
		return nil, fmt.Errorf("[loginsession Get] session %q: %w", id, autherrors.ErrNotFound)
	}
	return e.session, nil
}

// Resume returns the live session for id and marks it as seen.
// Unlike GetOrCreate it never creates: an unknown id is ErrNotFound.
func (r *InMemoryRegistry) Resume(id string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowTime()
	e, ok := r.sessions[id]
	if !ok || r.expired(e, now) {
		return nil, fmt.Errorf("[loginsession Resume] session %q: %w", id, autherrors.ErrNotFound)
	}
	e.lastSeen = now
	return e.session, nil
}

// Rotate files the live session held under oldID under newID instead.
// oldID stops resolving.
func (r *InMemoryRegistry) Rotate(oldID, newID string) error {
	if newID == "" {
		return fmt.Errorf("[loginsession Rotate] new id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowTime()
	e, ok := r.sessions[oldID]
	if !ok || r.expired(e, now) {
		return fmt.Errorf("[loginsession Rotate] session %q: %w", oldID, autherrors.ErrNotFound)
	}
	if _, taken := r.sessions[newID]; taken {
		return fmt.Errorf("[loginsession Rotate] session %q already exists", newID)
	}

	delete(r.sessions, oldID)
	e.lastSeen = now
	r.sessions[newID] = e
	return nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (r *InMemoryRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Prune drops every session idle at now and returns how many were dropped
func (r *InMemoryRegistry) Prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	pruned := 0
	for id, e := range r.sessions {
		if r.expired(e, now) {
			delete(r.sessions, id)
			pruned++
		}
	}
	return pruned
}

func (r *InMemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// RunJanitor prunes idle sessions every interval until ctx is done
func (r *InMemoryRegistry) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.idle <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Prune(r.nowTime()); n > 0 {
				log.Debug().Int("pruned", n).Int("remaining", r.Len()).Msg("Pruned idle login sessions")
			}
		}
	}
}

func (r *InMemoryRegistry) expired(e *entry, now time.Time) bool {
	return r.idle > 0 && !now.Before(e.lastSeen.Add(r.idle))
}
