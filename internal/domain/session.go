package domain

import (
	"sync"
	"time"
)

// State is a StagingSession's position in the lifecycle graph described in
// the state transition engine. Values match the wire vocabulary used in
// logs and tests, not the NXRM2 response format — see VisibleType for that.
type State string

const (
	StateOpen      State = "Open"
	StateClosing   State = "Closing"
	StateClosed    State = "Closed"
	StatePromoting State = "Promoting"
	StateReleased  State = "Released"
	StateFailed    State = "Failed"
	StateDropped   State = "Dropped"
)

// BundleRef is an opaque handle to the on-disk bundle backing a session. It
// is created and interpreted only by the bundle store that issued it; the
// registry and handlers pass it around without knowing its concrete type.
type BundleRef interface {
	SessionID() string
	Root() string
}

// Session is a StagingSession: one NXRM2 "staging repository" as seen by a
// publishing client, plus the bookkeeping needed to drive it to the Portal.
// Every field access that isn't itself atomic must happen under Lock.
type Session struct {
	mu sync.Mutex

	ID                    string
	Profile               string
	Description           string
	CredentialFingerprint string
	// AuthHeader is the Authorization header value captured when the
	// session was opened, forwarded to the Portal on close/promote even
	// when that transition is driven by the inactivity sweep rather than a
	// live request.
	AuthHeader            string
	State                 State
	Bundle                BundleRef
	PortalDeploymentID    string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	LastActivityAt        time.Time
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// VisibleType maps the internal state onto the four values the NXRM2 wire
// format allows for <type>. Closing and Promoting read as "closed" since
// NXRM2 clients only poll for open/closed/released; Failed and Dropped read
// as "not_found" because the legacy format has no dedicated failure value.
func (s *Session) VisibleType() string {
	switch s.State {
	case StateOpen:
		return "open"
	case StateClosing, StateClosed, StatePromoting:
		return "closed"
	case StateReleased:
		return "released"
	default:
		return "not_found"
	}
}
