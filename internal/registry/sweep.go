package registry

import (
	"context"
	"time"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
	"github.com/aras-services/nxrm2-portal-bridge/internal/statemachine"
)

type SweepConfig struct {
	Interval          time.Duration
	InactivityTimeout time.Duration
	RetentionWindow   time.Duration
}

// Sweep runs until ctx is cancelled. Each tick it force-closes Open
// sessions past InactivityTimeout and evicts terminal sessions past
// RetentionWindow, calling back into the orchestrator/bundle store to do
// the actual work under the session's own lock.
func (r *Registry) Sweep(ctx context.Context, cfg SweepConfig, onInactivity, onEvict func(*domain.Session)) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce(cfg, onInactivity, onEvict)
		}
	}
}

func (r *Registry) sweepOnce(cfg SweepConfig, onInactivity, onEvict func(*domain.Session)) {
	now := r.clock.Now()
	var stale, dead []*domain.Session

	for _, s := range r.Snapshot() {
		s.Lock()
		state, last := s.State, s.LastActivityAt
		s.Unlock()

		switch {
		case statemachine.IsTerminal(state) && now.Sub(last) > cfg.RetentionWindow:
			dead = append(dead, s)
		case state == domain.StateOpen && now.Sub(last) > cfg.InactivityTimeout:
			stale = append(stale, s)
		}
	}

	for _, s := range stale {
		if onInactivity != nil {
			onInactivity(s)
		}
	}
	for _, s := range dead {
		if r.Evict(s.ID) != nil && onEvict != nil {
			onEvict(s)
		}
	}
}
