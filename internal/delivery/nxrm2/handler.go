// Package nxrm2 implements the NXRM2 endpoint handlers (C5) and the
// fallback recorder (C7): everything a legacy publishing plugin talks to.
package nxrm2

import (
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aras-services/nxrm2-portal-bridge/internal/bundle"
	"github.com/aras-services/nxrm2-portal-bridge/internal/credentials"
	"github.com/aras-services/nxrm2-portal-bridge/internal/orchestrator"
	"github.com/aras-services/nxrm2-portal-bridge/internal/registry"
)

type Clock interface {
	Now() time.Time
}

type Handler struct {
	Registry     *registry.Registry
	Store        bundle.Store
	Credentials  *credentials.Extractor
	Orchestrator *orchestrator.Orchestrator
	Logger       *zap.Logger
	Clock        Clock

	MaxFileBytes int64
	TraceBodyCap int
}

// NewHandler builds the NXRM2 endpoint handlers (C5) bound to the given
// registry, store, credential extractor, and orchestrator.
func NewHandler(reg *registry.Registry, store bundle.Store, creds *credentials.Extractor, orch *orchestrator.Orchestrator, logger *zap.Logger, clock Clock, maxFileBytes int64, traceBodyCap int) *Handler {
	return &Handler{
		Registry:     reg,
		Store:        store,
		Credentials:  creds,
		Orchestrator: orch,
		Logger:       logger,
		Clock:        clock,
		MaxFileBytes: maxFileBytes,
		TraceBodyCap: traceBodyCap,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/service/local/status", h.Status)
	r.Get("/service/local/staging/profile_evaluate", h.EvaluateProfile)
	r.Get("/service/local/staging/profiles", h.ListProfiles)
	r.Get("/service/local/staging/profiles/{profileId}", h.GetProfile)
	r.Post("/service/local/staging/profiles/{profile}/start", h.Start)
	r.Post("/service/local/staging/profiles/{profile}/finish", h.Finish)
	r.Post("/service/local/staging/bulk/close", h.BulkClose)
	r.Post("/service/local/staging/bulk/promote", h.BulkPromote)
	r.Put("/service/local/staging/deployByRepositoryId/{id}/*", h.Deploy)
	r.Get("/service/local/staging/deployByRepositoryId/{id}/*", h.Probe)
	r.Get("/service/local/staging/repository/{id}", h.PollRepository)
	r.NotFound(h.Fallback)
	r.MethodNotAllowed(h.Fallback)
}

