// Package reconcile repairs asymmetric match state in the background. The
// conditional pair commit keeps normal operation symmetric; this pass covers
// state produced outside it, such as records removed administratively or a
// half-commit left by a crashed older writer.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/WenyeZhou51/rcssa-match-backend/internal/registrant/models"
	id "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain"
	"github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/sentinel"
)

// Store is the registrant store surface the reconciler needs.
type Store interface {
	ListMatched(ctx context.Context) ([]*models.Registrant, error)
	FindByID(ctx context.Context, registrantID id.RegistrantID) (*models.Registrant, error)
	Unpair(ctx context.Context, registrantID id.RegistrantID, expectedPartner *id.RegistrantID) error
}

// Reconciler periodically re-checks the symmetry invariant across all
// matched registrants.
type Reconciler struct {
	registrants Store
	logger      *slog.Logger
	interval    time.Duration
}

func New(registrants Store, interval time.Duration, logger *slog.Logger) *Reconciler {
	return &Reconciler{registrants: registrants, logger: logger, interval: interval}
}

// Run executes the pass on a fixed interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Pass(ctx); err != nil {
				r.logger.Error("reconcile pass failed", "error", err)
			}
		}
	}
}

// Pass scans matched registrants once and unmatches any whose partner record
// is absent or does not point back. Exported so tests and operators can run
// a single pass directly.
func (r *Reconciler) Pass(ctx context.Context) error {
	matched, err := r.registrants.ListMatched(ctx)
	if err != nil {
		return err
	}

	for _, registrant := range matched {
		if registrant.MatchedWith == nil {
			// isMatched without a partner reference; repair outright.
			r.repair(ctx, registrant, "matched without partner reference")
			continue
		}
		partner, err := r.registrants.FindByID(ctx, *registrant.MatchedWith)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			r.repair(ctx, registrant, "partner record absent")
		case err != nil:
			return err
		case partner.MatchedWith == nil || *partner.MatchedWith != registrant.ID:
			r.repair(ctx, registrant, "partner points elsewhere")
		}
	}
	return nil
}

func (r *Reconciler) repair(ctx context.Context, registrant *models.Registrant, reason string) {
	// The unpair is conditional on the partner reference seen during the
	// scan. A record healed and re-paired since then fails the condition and
	// keeps its fresh pairing for the next pass to judge.
	err := r.registrants.Unpair(ctx, registrant.ID, registrant.MatchedWith)
	switch {
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrConflict):
		return
	case err != nil:
		r.logger.Error("reconcile unpair failed",
			"registrant_id", registrant.ID,
			"error", err,
		)
		return
	}
	r.logger.Info("reconciled asymmetric match",
		"registrant_id", registrant.ID,
		"reason", reason,
	)
}
