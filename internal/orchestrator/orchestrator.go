// Package orchestrator wires the state transition engine (C8) to the bundle
// store (C3) and the Portal client (C6): it is what a Finish or Promote
// handler calls to hand a session off asynchronously.
package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/aras-services/nxrm2-portal-bridge/internal/bundle"
	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
	"github.com/aras-services/nxrm2-portal-bridge/internal/portalclient"
	"github.com/aras-services/nxrm2-portal-bridge/internal/registry"
	"github.com/aras-services/nxrm2-portal-bridge/internal/statemachine"
)

type Orchestrator struct {
	ctx    context.Context
	store  bundle.Store
	portal *portalclient.Client
	logger *zap.Logger
	clock  registry.Clock
	sem    chan struct{}
}

// New builds an orchestrator bound to ctx; cancelling ctx (server shutdown)
// aborts any in-flight Portal call and fails the owning session.
func New(ctx context.Context, store bundle.Store, portal *portalclient.Client, logger *zap.Logger, clock registry.Clock, maxConcurrentUploads int) *Orchestrator {
	if maxConcurrentUploads < 1 {
		maxConcurrentUploads = 1
	}
	if clock == nil {
		clock = registry.RealClock{}
	}
	return &Orchestrator{
		ctx:    ctx,
		store:  store,
		portal: portal,
		logger: logger,
		clock:  clock,
		sem:    make(chan struct{}, maxConcurrentUploads),
	}
}

// Close applies ev (EventFinish or EventInactivityTimeout) to sess, seals
// its bundle, and hands it to the Portal asynchronously. The caller sees a
// successful response as soon as the transition and the seal succeed; the
// Portal outcome lands later and is only visible via polling.
func (o *Orchestrator) Close(sess *domain.Session, ev statemachine.Event) error {
	sess.Lock()
	err := statemachine.Apply(sess, ev)
	if err == nil {
		now := o.clock.Now()
		sess.LastActivityAt, sess.UpdatedAt = now, now
	}
	sess.Unlock()
	if err != nil {
		return err
	}

	if sealErr := o.store.Seal(sess.Bundle); sealErr != nil {
		o.logger.Error("failed to seal bundle", zap.String("session", sess.ID), zap.Error(sealErr))
		o.applyLocked(sess, statemachine.EventPortalReject)
		return nil
	}

	go o.submit(sess)
	return nil
}

func (o *Orchestrator) submit(sess *domain.Session) {
	o.sem <- struct{}{}
	defer func() { <-o.sem }()

	entries, err := o.store.Iter(sess.Bundle)
	if err != nil {
		o.logger.Error("failed to iterate bundle", zap.String("session", sess.ID), zap.Error(err))
		o.applyLocked(sess, statemachine.EventPortalReject)
		return
	}

	deploymentID, err := o.portal.Upload(o.ctx, portalclient.Credentials{AuthHeader: sess.AuthHeader}, entries)
	if err != nil {
		o.logger.Warn("portal upload failed", zap.String("session", sess.ID), zap.Error(err))
		o.applyLocked(sess, statemachine.EventPortalReject)
		return
	}

	sess.Lock()
	sess.PortalDeploymentID = deploymentID
	sess.Unlock()

	status, err := o.portal.CloseStatus(o.ctx, deploymentID)
	if err != nil {
		o.logger.Warn("portal status check failed", zap.String("session", sess.ID), zap.Error(err))
		o.applyLocked(sess, statemachine.EventPortalReject)
		return
	}

	ev := statemachine.EventPortalAccept
	if status == portalclient.StatusFailed || status == portalclient.StatusRejected {
		ev = statemachine.EventPortalReject
	}
	o.applyLocked(sess, ev)
}

// Promote applies EventPromote and, on success, starts polling the Portal
// for the final release outcome.
func (o *Orchestrator) Promote(sess *domain.Session) error {
	sess.Lock()
	err := statemachine.Apply(sess, statemachine.EventPromote)
	if err == nil {
		now := o.clock.Now()
		sess.LastActivityAt, sess.UpdatedAt = now, now
	}
	sess.Unlock()
	if err != nil {
		return err
	}

	go o.release(sess)
	return nil
}

func (o *Orchestrator) release(sess *domain.Session) {
	sess.Lock()
	deploymentID := sess.PortalDeploymentID
	sess.Unlock()

	if deploymentID == "" {
		o.logger.Error("promote requested without a portal deployment id", zap.String("session", sess.ID))
		o.applyLocked(sess, statemachine.EventPortalReject)
		return
	}

	status, err := o.portal.AwaitRelease(o.ctx, deploymentID)
	if err != nil {
		o.logger.Warn("portal release poll failed", zap.String("session", sess.ID), zap.Error(err))
		o.applyLocked(sess, statemachine.EventPortalReject)
		return
	}

	ev := statemachine.EventPortalReject
	if status == portalclient.StatusPublished {
		ev = statemachine.EventPortalPublish
	}
	o.applyLocked(sess, ev)
}

func (o *Orchestrator) applyLocked(sess *domain.Session, ev statemachine.Event) {
	sess.Lock()
	defer sess.Unlock()
	if err := statemachine.Apply(sess, ev); err != nil {
		o.logger.Debug("ignoring transition on terminal session", zap.String("session", sess.ID), zap.Error(err))
		return
	}
	now := o.clock.Now()
	sess.LastActivityAt, sess.UpdatedAt = now, now
}
