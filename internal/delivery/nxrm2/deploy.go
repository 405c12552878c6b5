package nxrm2

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
	"github.com/aras-services/nxrm2-portal-bridge/internal/wire"
)

// Deploy accepts one file into an Open session's bundle.
func (h *Handler) Deploy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	relPath := chi.URLParam(r, "*")

	sess, ok := h.Registry.Get(id)
	if !ok {
		wire.WriteError(w, r, domain.NewError(domain.KindNotFound, "unknown staging repository"))
		return
	}

	creds, err := h.Credentials.Extract(r)
	if err != nil {
		wire.WriteError(w, r, err)
		return
	}

	sess.Lock()
	mismatched := sess.CredentialFingerprint != creds.Fingerprint
	notOpen := sess.State != domain.StateOpen
	sess.Unlock()
	if mismatched {
		wire.WriteError(w, r, domain.NewError(domain.KindForbidden, "credential mismatch"))
		return
	}
	if notOpen {
		wire.WriteError(w, r, domain.NewError(domain.KindIllegalTransition, "staging repository is not open"))
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.MaxFileBytes+1)
	if _, err := h.Store.Put(r.Context(), sess.Bundle, relPath, body); err != nil {
		wire.WriteError(w, r, err)
		return
	}

	h.Registry.Touch(id, h.Clock.Now())
	w.WriteHeader(http.StatusCreated)
}

// Probe answers the GET a plugin sometimes issues against the same path it
// just PUT, to verify the upload landed.
func (h *Handler) Probe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	relPath := chi.URLParam(r, "*")

	sess, ok := h.Registry.Get(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	creds, err := h.Credentials.Extract(r)
	if err != nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	sess.Lock()
	mismatched := sess.CredentialFingerprint != creds.Fingerprint
	sess.Unlock()
	if mismatched {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	entries, err := h.Store.Iter(sess.Bundle)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	for _, e := range entries {
		if e.RelativePath == relPath {
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}
