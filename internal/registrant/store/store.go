// Package store persists registrant records. Implementations return
// sentinel errors from pkg/platform/sentinel; services translate them into
// domain errors at the call site.
package store

import (
	"context"

	"github.com/WenyeZhou51/rcssa-match-backend/internal/registrant/models"
	id "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain"
)

// RegistrantStore is the single source of truth for registrants and their
// match state. The interface is the engine's serialization boundary: Pair is
// a conditional commit, so callers never issue the two match writes
// independently.
type RegistrantStore interface {
	// Create persists a new registrant. Returns sentinel.ErrAlreadyUsed when
	// the email or net ID is already taken, whether detected pre-emptively or
	// by a uniqueness violation at commit time.
	Create(ctx context.Context, registrant *models.Registrant) error

	// FindByID returns the registrant or sentinel.ErrNotFound.
	FindByID(ctx context.Context, registrantID id.RegistrantID) (*models.Registrant, error)

	// FindByEmail looks up by the email identity key (case-insensitive).
	// Returns sentinel.ErrNotFound on miss.
	FindByEmail(ctx context.Context, email string) (*models.Registrant, error)

	// Update writes the registrant's mutable fields. Returns
	// sentinel.ErrNotFound if the record no longer exists.
	Update(ctx context.Context, registrant *models.Registrant) error

	// FindCandidate returns some unmatched registrant other than exclude,
	// preferring one with the given major and falling back to any major.
	// Selection among ties is deliberately unspecified. Returns
	// sentinel.ErrNotFound when no candidate exists.
	FindCandidate(ctx context.Context, exclude id.RegistrantID, major string) (*models.Registrant, error)

	// Pair commits the symmetric match between a and b in one atomic step:
	// both records become matched, or neither does. Returns
	// sentinel.ErrConflict if either side is no longer unmatched, and
	// sentinel.ErrNotFound if either record has disappeared.
	Pair(ctx context.Context, a, b id.RegistrantID) error

	// Unpair reverts a registrant to unmatched, conditional on its recorded
	// partner still being expectedPartner. The condition keeps a stale
	// repair from clobbering a record that was healed and re-paired after
	// the caller read it. Used by the self-healing read path and the
	// reconciler. Returns sentinel.ErrNotFound if the record is gone and
	// sentinel.ErrConflict if the partner reference has moved on.
	Unpair(ctx context.Context, registrantID id.RegistrantID, expectedPartner *id.RegistrantID) error

	// Delete removes a registrant record. The orphaned partner, if any, is
	// repaired by self-healing on its next read. Returns
	// sentinel.ErrNotFound if the record does not exist.
	Delete(ctx context.Context, registrantID id.RegistrantID) error

	// ListMatched returns all currently matched registrants, for the
	// reconciliation pass.
	ListMatched(ctx context.Context) ([]*models.Registrant, error)
}
