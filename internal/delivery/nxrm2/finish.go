package nxrm2

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
	"github.com/aras-services/nxrm2-portal-bridge/internal/statemachine"
	"github.com/aras-services/nxrm2-portal-bridge/internal/wire"
)

// Finish seals a session's bundle and kicks off the Portal handoff. Calling
// it again on a session that is already Closing or Closed is a no-op: the
// client sees the same 201 it would have gotten the first time, and no
// second Portal upload is started.
func (h *Handler) Finish(w http.ResponseWriter, r *http.Request) {
	profile := chi.URLParam(r, "profile")

	creds, err := h.Credentials.Extract(r)
	if err != nil {
		wire.WriteError(w, r, err)
		return
	}

	id, err := wire.ParseFinishRequest(r)
	if err != nil {
		wire.WriteError(w, r, domain.Wrap(domain.KindMalformedBody, "invalid finish request body", err))
		return
	}

	sess, ok := h.Registry.Get(id)
	if !ok {
		wire.WriteError(w, r, domain.NewError(domain.KindNotFound, "unknown staging repository"))
		return
	}
	if sess.Profile != profile {
		wire.WriteError(w, r, domain.NewError(domain.KindNotFound, "unknown staging repository"))
		return
	}

	sess.Lock()
	mismatched := sess.CredentialFingerprint != creds.Fingerprint
	state := sess.State
	sess.Unlock()
	if mismatched {
		wire.WriteError(w, r, domain.NewError(domain.KindForbidden, "credential mismatch"))
		return
	}

	if state == domain.StateClosing || state == domain.StateClosed {
		w.WriteHeader(http.StatusCreated)
		return
	}

	if err := h.Orchestrator.Close(sess, statemachine.EventFinish); err != nil {
		wire.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
