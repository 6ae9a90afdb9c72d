// Package session maps browser sessions to forum instances. Each session
// owns one identity-provider handle and one forum with its live
// subscriptions; idle sessions are reaped in the background.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miniforum-dev/miniforum/internal/forum"
	"github.com/miniforum-dev/miniforum/shared/docstore"
	"github.com/miniforum-dev/miniforum/shared/identity"
	"github.com/miniforum-dev/miniforum/shared/logger"
)

// ProviderFactory creates a fresh identity session handle.
type ProviderFactory func() identity.Provider

type entry struct {
	forum    *forum.Forum
	provider identity.Provider
	cancel   context.CancelFunc
	lastSeen time.Time
}

type Registry struct {
	factory  ProviderFactory
	store    docstore.Store
	verifier identity.TokenVerifier // may be nil
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
}

// New builds a registry. verifier may be nil when token resume is not
// available (the memory provider without a configured verifier).
func New(factory ProviderFactory, store docstore.Store, verifier identity.TokenVerifier, ttl time.Duration) *Registry {
	return &Registry{
		factory:  factory,
		store:    store,
		verifier: verifier,
		ttl:      ttl,
		sessions: make(map[string]*entry),
	}
}

// Create starts a new session and returns its id. The forum's subscriptions
// live until Drop or the idle reaper removes it.
func (r *Registry) Create(ctx context.Context) (string, *forum.Forum, error) {
	provider := r.factory()
	f := forum.New(provider, r.store)

	forumCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := f.Start(forumCtx); err != nil {
		cancel()
		return "", nil, err
	}

	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &entry{forum: f, provider: provider, cancel: cancel, lastSeen: time.Now()}
	r.mu.Unlock()

	logger.Log.Debug("session created", "session", id)
	return id, f, nil
}

// Get returns the session's forum and marks it as recently used.
func (r *Registry) Get(id string) (*forum.Forum, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.forum, true
}

// Resume verifies an id token obtained through the provider's own SDK and
// signs the session in as that user without a password round trip.
func (r *Registry) Resume(ctx context.Context, id, idToken string) error {
	if r.verifier == nil {
		return &resumeUnavailableError{}
	}

	r.mu.Lock()
	e, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return &unknownSessionError{}
	}

	user, err := r.verifier.Verify(ctx, idToken)
	if err != nil {
		return err
	}
	adopter, ok := e.provider.(identity.Adopter)
	if !ok {
		return &resumeUnavailableError{}
	}
	adopter.Adopt(user)
	return nil
}

// Drop tears the session down: subscriptions are cancelled before the
// entry disappears.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	e.forum.Close()
	e.cancel()
	logger.Log.Debug("session dropped", "session", id)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StartReaper starts a background goroutine that drops sessions idle for
// longer than the registry ttl.
func (r *Registry) StartReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started session reaper", "interval", interval, "ttl", r.ttl)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, id := range r.expired() {
					r.Drop(id)
				}
			case <-ctx.Done():
				logger.Log.Info("session reaper shutting down")
				return
			}
		}
	}()
}

func (r *Registry) expired() []string {
	cutoff := time.Now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			out = append(out, id)
		}
	}
	return out
}

type unknownSessionError struct{}

func (e *unknownSessionError) Error() string { return "unknown session" }

type resumeUnavailableError struct{}

func (e *resumeUnavailableError) Error() string { return "session resume not available" }

// IsUnknownSession reports whether err names a session this registry does
// not hold.
func IsUnknownSession(err error) bool {
	_, ok := err.(*unknownSessionError)
	return ok
}
