package nxrm2

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
	"github.com/aras-services/nxrm2-portal-bridge/internal/wire"
)

// Start mints a new staging repository id for profile and opens a bundle
// for it. The id and the bundle come into existence atomically under the
// registry's lock, so no id is ever visible without a backing bundle.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	profile := chi.URLParam(r, "profile")

	creds, err := h.Credentials.Extract(r)
	if err != nil {
		wire.WriteError(w, r, err)
		return
	}

	description, err := wire.ParseStartRequest(r)
	if err != nil {
		wire.WriteError(w, r, domain.Wrap(domain.KindMalformedBody, "invalid start request body", err))
		return
	}

	sess, err := h.Registry.Create(profile, creds.Fingerprint, creds.AuthHeader, description, func(id string) (domain.BundleRef, error) {
		return h.Store.Create(r.Context(), id)
	})
	if err != nil {
		wire.WriteError(w, r, err)
		return
	}

	wire.Write(w, r, http.StatusCreated, wire.StartResultBody{
		Data: wire.StartResultData{StagedRepositoryID: sess.ID},
	})
}
