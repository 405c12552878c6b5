// Package statemachine enforces the StagingSession transition graph: the
// one place allowed to change a session's State field.
package statemachine

import (
	"fmt"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
)

type Event string

const (
	EventFinish            Event = "finish"
	EventInactivityTimeout Event = "inactivity-timeout"
	EventPortalAccept      Event = "portal-accept"
	EventPortalReject      Event = "portal-reject"
	EventPromote           Event = "promote"
	EventPortalPublish     Event = "portal-publish"
	EventDrop              Event = "drop"
)

var transitions = map[domain.State]map[Event]domain.State{
	domain.StateOpen: {
		EventFinish:            domain.StateClosing,
		EventInactivityTimeout: domain.StateClosing,
		EventDrop:              domain.StateDropped,
	},
	domain.StateClosing: {
		EventPortalAccept: domain.StateClosed,
		EventPortalReject: domain.StateFailed,
		EventDrop:         domain.StateDropped,
	},
	domain.StateClosed: {
		EventPromote: domain.StatePromoting,
		EventDrop:    domain.StateDropped,
	},
	domain.StatePromoting: {
		EventPortalPublish: domain.StateReleased,
		EventPortalReject:  domain.StateFailed,
		EventDrop:          domain.StateDropped,
	},
	domain.StateReleased: {
		EventDrop: domain.StateDropped,
	},
	domain.StateFailed: {
		EventDrop: domain.StateDropped,
	},
	domain.StateDropped: {},
}

// Apply advances sess.State according to ev, or returns an
// IllegalTransition error leaving the state untouched. The caller must
// already hold sess.Lock().
func Apply(sess *domain.Session, ev Event) error {
	next, ok := transitions[sess.State][ev]
	if !ok {
		return domain.NewError(domain.KindIllegalTransition,
			fmt.Sprintf("cannot apply %q from state %q", ev, sess.State))
	}
	sess.State = next
	return nil
}

// IsTerminal reports whether a session in this state will never transition
// again except via an explicit drop.
func IsTerminal(s domain.State) bool {
	return s == domain.StateReleased || s == domain.StateFailed || s == domain.StateDropped
}
