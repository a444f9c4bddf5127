package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"ovenprofile/internal/metrics"
	"ovenprofile/internal/table"
)

// ErrNotFound is returned for an unknown or expired session id.
var ErrNotFound = errors.New("session not found")

// LoadFunc loads a fresh Table Store. Every session gets its own.
type LoadFunc func(ctx context.Context) (*table.Store, error)

// Registry holds live sessions keyed by id.
type Registry struct {
	load LoadFunc
	ttl  time.Duration

	// now is replaced in tests.
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns a registry whose sessions expire after ttl of
// inactivity. A zero ttl disables expiry.
func NewRegistry(load LoadFunc, ttl time.Duration) *Registry {
	return &Registry{
		load:     load,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create loads the datasets and starts a session. A load failure creates
// nothing and is returned as is.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	store, err := r.load(ctx)
	if err != nil {
		metrics.CounterLoadFailures.Inc()
		log.Printf("[session] load failed: %v", err)
		return nil, err
	}

	s := New(uuid.NewString(), store, r.now())

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	metrics.CounterSessionsCreated.Inc()
	log.Printf("[session] created %s: %d datasets, %d measurements", s.ID, store.Len(), s.index.Len())
	return s, nil
}

// Get returns a live session and marks it as used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%q", id)
	}
	s.touch(r.now())
	return s, nil
}

// Delete drops a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Expire drops sessions idle for longer than the ttl and returns how many
// were dropped.
func (r *Registry) Expire() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run calls Expire every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Expire(); n > 0 {
				log.Printf("[session] expired %d idle sessions", n)
			}
		}
	}
}
