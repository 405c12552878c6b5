// Package registry implements the staging registry (C4): the process-wide
// map of live StagingSessions, indexed by id and by (profile, credential
// fingerprint) for ownership checks.
package registry

import (
	"sync"
	"time"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
	"github.com/aras-services/nxrm2-portal-bridge/internal/idmint"
)

// Clock is injected so sweep tests can control time instead of sleeping.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	index    map[string]map[string]struct{}

	mint  *idmint.Mint
	clock Clock
}

func New(clock Clock) *Registry {
	if clock == nil {
		clock = RealClock{}
	}
	return &Registry{
		sessions: map[string]*domain.Session{},
		index:    map[string]map[string]struct{}{},
		mint:     idmint.New(),
		clock:    clock,
	}
}

func indexKey(profile, fingerprint string) string {
	return profile + "\x00" + fingerprint
}

// Create mints an id and inserts the resulting session under a single lock,
// so no other caller can observe a minted id that isn't yet registered.
// createBundle is invoked while the lock is held; it only does local
// filesystem work (mkdir), never a network call.
func (r *Registry) Create(profile, fingerprint, authHeader, description string, createBundle func(id string) (domain.BundleRef, error)) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.mint.Next(profile)
	if err != nil {
		return nil, err
	}
	ref, err := createBundle(id)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	sess := &domain.Session{
		ID:                    id,
		Profile:               profile,
		Description:           description,
		CredentialFingerprint: fingerprint,
		AuthHeader:            authHeader,
		State:                 domain.StateOpen,
		Bundle:                ref,
		CreatedAt:             now,
		UpdatedAt:             now,
		LastActivityAt:        now,
	}
	r.sessions[id] = sess
	key := indexKey(profile, fingerprint)
	if r.index[key] == nil {
		r.index[key] = map[string]struct{}{}
	}
	r.index[key][id] = struct{}{}
	return sess, nil
}

func (r *Registry) Get(id string) (*domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) IDsForProfile(profile, fingerprint string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.index[indexKey(profile, fingerprint)]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Touch updates LastActivityAt, which the inactivity sweep reads to decide
// whether an Open session should be force-closed.
func (r *Registry) Touch(id string, now time.Time) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return
	}
	s.Lock()
	s.LastActivityAt = now
	s.Unlock()
}

// Evict removes a session from the registry and returns it, or nil if it
// was already gone. It does not touch the session's bundle; callers are
// responsible for destroying it via the bundle store.
func (r *Registry) Evict(id string) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	delete(r.sessions, id)
	key := indexKey(s.Profile, s.CredentialFingerprint)
	if set, ok := r.index[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.index, key)
		}
	}
	return s
}

func (r *Registry) Snapshot() []*domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
