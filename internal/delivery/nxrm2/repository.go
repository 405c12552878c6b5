package nxrm2

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
	"github.com/aras-services/nxrm2-portal-bridge/internal/wire"
)

// PollRepository is what a plugin hammers on after finish/promote to learn
// whether the Portal has accepted or released the bundle. Unknown ids
// return a 200 with type not_found rather than a 404, matching real NXRM2
// polling behavior.
func (h *Handler) PollRepository(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, ok := h.Registry.Get(id)
	if !ok {
		wire.Write(w, r, http.StatusOK, wire.StagingRepositoryBody{
			RepositoryID: id,
			Type:         "not_found",
			Provider:     "maven2",
		})
		return
	}

	sess.Lock()
	body := wire.StagingRepositoryBody{
		ProfileID:     sess.Profile,
		ProfileName:   sess.Profile,
		ProfileType:   "maven2",
		RepositoryID:  sess.ID,
		Type:          sess.VisibleType(),
		Policy:        "release",
		RepositoryURI: "",
		Created:       sess.CreatedAt.Format(time.RFC3339),
		Updated:       sess.UpdatedAt.Format(time.RFC3339),
		Description:   sess.Description,
		Provider:      "maven2",
		Transitioning: sess.State == domain.StateClosing || sess.State == domain.StatePromoting,
	}
	sess.Unlock()

	h.Registry.Touch(id, h.Clock.Now())
	wire.Write(w, r, http.StatusOK, body)
}
