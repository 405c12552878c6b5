package nxrm2

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
	"github.com/aras-services/nxrm2-portal-bridge/internal/wire"
)

// Status answers the NXRM2 server status probe every publishing plugin
// issues before attempting to stage anything. The version string is the
// one legacy plugins have historically accepted without complaint.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	wire.Write(w, r, http.StatusOK, wire.StatusBody{
		Data: wire.StatusData{
			APIVersion: "2.0.1",
			Version:    "2.14.3-01",
			AppName:    "Nexus Repository Manager",
			State:      "STARTED",
		},
	})
}

func renderProfile(id string) wire.ProfileBody {
	return wire.ProfileBody{ID: id, Name: id}
}

// EvaluateProfile answers profile_evaluate?g=<groupId>, used by plugins to
// discover which staging profile owns a groupId before calling start.
func (h *Handler) EvaluateProfile(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("g")
	if group == "" {
		wire.WriteError(w, r, domain.NewError(domain.KindMalformedBody, "missing required query parameter g"))
		return
	}
	wire.Write(w, r, http.StatusOK, renderProfile(group))
}

// GetProfile answers GET profiles/<id> with the same shape EvaluateProfile
// uses, since this proxy has no real profile metadata store.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "profileId")
	wire.Write(w, r, http.StatusOK, renderProfile(id))
}

// ListProfiles answers the list endpoint with a single synthetic profile
// named after the caller, since every authenticated user owns exactly one
// implicit profile in this proxy's model.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	name := "default"
	if creds, err := h.Credentials.Extract(r); err == nil && creds.Username != "" {
		name = creds.Username
	}
	wire.Write(w, r, http.StatusOK, wire.ProfilesListBody{Data: []wire.ProfileBody{renderProfile(name)}})
}
