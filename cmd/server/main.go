// Package main implements the server entry point for the NXRM2-to-Portal
// publishing proxy. It wires the staging registry, bundle store, Portal
// client, and state transition engine behind the legacy NXRM2 staging API,
// showcasing Dependency Injection and graceful shutdown handling over a
// long-lived in-memory session registry.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/aras-services/nxrm2-portal-bridge/config"
	"github.com/aras-services/nxrm2-portal-bridge/internal/bundle"
	"github.com/aras-services/nxrm2-portal-bridge/internal/credentials"
	"github.com/aras-services/nxrm2-portal-bridge/internal/delivery/nxrm2"
	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
	"github.com/aras-services/nxrm2-portal-bridge/internal/logging"
	authmiddleware "github.com/aras-services/nxrm2-portal-bridge/internal/middleware"
	"github.com/aras-services/nxrm2-portal-bridge/internal/orchestrator"
	"github.com/aras-services/nxrm2-portal-bridge/internal/portalclient"
	"github.com/aras-services/nxrm2-portal-bridge/internal/registry"
	"github.com/aras-services/nxrm2-portal-bridge/internal/statemachine"
)

func main() {
	// PHASE 1: Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	loggers, err := logging.New(cfg.LogFilter)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer loggers.Sync()

	rootLogger := loggers.For("main")

	// PHASE 2: Credential extraction (optional bearer verification)
	var bearer *credentials.BearerVerifier
	if cfg.PortalJWTPublicKeyPath != "" {
		bearer, err = credentials.NewBearerVerifier(cfg.PortalJWTPublicKeyPath)
		if err != nil {
			rootLogger.Fatal("failed to load portal jwt public key", zap.Error(err))
		}
	}
	extractor := credentials.NewExtractor(cfg.FingerprintSalt, bearer)

	// PHASE 3: Bundle store (C3) and staging registry (C4)
	store := bundle.NewFSStore(cfg.BundleRoot, cfg.MaxFileBytes, cfg.MaxSessionBytes)
	reg := registry.New(registry.RealClock{})

	// PHASE 4: Portal client (C6) and orchestrator (C8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	portalHTTPClient := &http.Client{Timeout: cfg.HTTPTimeout}
	portal := portalclient.New(cfg.PortalCentralURL, portalHTTPClient)
	orch := orchestrator.New(ctx, store, portal, loggers.For("orchestrator"), registry.RealClock{}, cfg.MaxConcurrentUploads)

	// PHASE 5: Inactivity sweep goroutine. A session left Open past the
	// inactivity timeout is implicitly finished, exactly like a client
	// calling finish itself; a terminal session past the retention window
	// is evicted and has its bundle destroyed.
	sweepLogger := loggers.For("sweep")
	go reg.Sweep(ctx, registry.SweepConfig{
		Interval:          cfg.SweepInterval,
		InactivityTimeout: cfg.InactivityTimeout,
		RetentionWindow:   cfg.RetentionWindow,
	}, func(sess *domain.Session) {
		if err := orch.Close(sess, statemachine.EventInactivityTimeout); err != nil {
			sweepLogger.Warn("implicit close failed", zap.String("session", sess.ID), zap.Error(err))
		}
	}, func(sess *domain.Session) {
		if err := store.Destroy(sess.Bundle); err != nil {
			sweepLogger.Warn("failed to destroy evicted bundle", zap.String("session", sess.ID), zap.Error(err))
		}
	})

	// PHASE 6: Handler layer and router
	handler := nxrm2.NewHandler(reg, store, extractor, orch, loggers.For("nxrm2"), registry.RealClock{}, cfg.MaxFileBytes, cfg.TraceBodyCap)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(authmiddleware.NewCORSMiddleware())
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	handler.RegisterRoutes(r)

	// PHASE 7: Server startup
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	go func() {
		rootLogger.Info("starting server", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			rootLogger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// PHASE 8: Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	rootLogger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		rootLogger.Error("server forced to shutdown", zap.Error(err))
	}

	// Cancel the orchestrator's context so any in-flight Portal upload
	// aborts rather than leaking past process shutdown.
	cancel()

	rootLogger.Info("server exited")
}
