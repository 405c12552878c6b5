package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
)

func TestApply_AllowedTransitions(t *testing.T) {
	tests := []struct {
		name  string
		from  domain.State
		event Event
		want  domain.State
	}{
		{"finish closes an open session", domain.StateOpen, EventFinish, domain.StateClosing},
		{"inactivity timeout behaves like finish", domain.StateOpen, EventInactivityTimeout, domain.StateClosing},
		{"portal accept closes", domain.StateClosing, EventPortalAccept, domain.StateClosed},
		{"portal reject fails", domain.StateClosing, EventPortalReject, domain.StateFailed},
		{"promote moves to promoting", domain.StateClosed, EventPromote, domain.StatePromoting},
		{"portal publish releases", domain.StatePromoting, EventPortalPublish, domain.StateReleased},
		{"portal reject during promote fails", domain.StatePromoting, EventPortalReject, domain.StateFailed},
		{"drop from open", domain.StateOpen, EventDrop, domain.StateDropped},
		{"drop from released", domain.StateReleased, EventDrop, domain.StateDropped},
		{"drop from failed", domain.StateFailed, EventDrop, domain.StateDropped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &domain.Session{State: tt.from}
			require.NoError(t, Apply(sess, tt.event))
			assert.Equal(t, tt.want, sess.State)
		})
	}
}

func TestApply_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name  string
		from  domain.State
		event Event
	}{
		{"cannot promote an open session", domain.StateOpen, EventPromote},
		{"cannot finish a closed session", domain.StateClosed, EventFinish},
		{"cannot publish from open", domain.StateOpen, EventPortalPublish},
		{"dropped sessions accept nothing", domain.StateDropped, EventFinish},
		{"dropped sessions cannot be dropped again", domain.StateDropped, EventDrop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &domain.Session{State: tt.from}
			err := Apply(sess, tt.event)
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindIllegalTransition))
			assert.Equal(t, tt.from, sess.State, "state must not change on a rejected transition")
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(domain.StateReleased))
	assert.True(t, IsTerminal(domain.StateFailed))
	assert.True(t, IsTerminal(domain.StateDropped))
	assert.False(t, IsTerminal(domain.StateOpen))
	assert.False(t, IsTerminal(domain.StateClosing))
	assert.False(t, IsTerminal(domain.StateClosed))
	assert.False(t, IsTerminal(domain.StatePromoting))
}
