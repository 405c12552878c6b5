package nxrm2

import (
	"net/http"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
	"github.com/aras-services/nxrm2-portal-bridge/internal/statemachine"
	"github.com/aras-services/nxrm2-portal-bridge/internal/wire"
)

func (h *Handler) BulkClose(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, func(sess *domain.Session) error {
		sess.Lock()
		state := sess.State
		sess.Unlock()
		if state == domain.StateClosing || state == domain.StateClosed {
			return nil
		}
		return h.Orchestrator.Close(sess, statemachine.EventFinish)
	})
}

func (h *Handler) BulkPromote(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, func(sess *domain.Session) error {
		return h.Orchestrator.Promote(sess)
	})
}

// bulk applies action to every id in the request body, checking ownership
// per id and collecting a per-id outcome instead of failing the whole
// batch on the first error.
func (h *Handler) bulk(w http.ResponseWriter, r *http.Request, action func(sess *domain.Session) error) {
	creds, err := h.Credentials.Extract(r)
	if err != nil {
		wire.WriteError(w, r, err)
		return
	}

	data, err := wire.ParseBulkRequest(r)
	if err != nil {
		wire.WriteError(w, r, domain.Wrap(domain.KindMalformedBody, "invalid bulk request body", err))
		return
	}

	results := make([]wire.BulkItemResult, 0, len(data.StagedRepositoryIDs))
	for _, id := range data.StagedRepositoryIDs {
		results = append(results, h.bulkOne(id, creds.Fingerprint, action))
	}

	wire.Write(w, r, http.StatusOK, wire.BulkResultBody{Results: results})
}

func (h *Handler) bulkOne(id, fingerprint string, action func(sess *domain.Session) error) wire.BulkItemResult {
	sess, ok := h.Registry.Get(id)
	if !ok {
		return wire.BulkItemResult{RepositoryID: id, Success: false, Error: "unknown staging repository"}
	}

	sess.Lock()
	mismatched := sess.CredentialFingerprint != fingerprint
	sess.Unlock()
	if mismatched {
		return wire.BulkItemResult{RepositoryID: id, Success: false, Error: "credential mismatch"}
	}

	if err := action(sess); err != nil {
		return wire.BulkItemResult{RepositoryID: id, Success: false, Error: err.Error()}
	}
	return wire.BulkItemResult{RepositoryID: id, Success: true}
}
