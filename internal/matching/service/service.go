// Package service implements the matching engine: idempotent admission,
// greedy candidate allocation with a conditional commit, and the self-healing
// read path that repairs dangling partner references.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/WenyeZhou51/rcssa-match-backend/internal/matching/cache"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/platform/metrics"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/registrant/models"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/registrant/store"
	id "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain"
	dErrors "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain-errors"
	audit "github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/audit"
	"github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/sentinel"
	"github.com/WenyeZhou51/rcssa-match-backend/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RegistrantStore,AuditPublisher

// RegistrantStore is the store surface the engine needs. Declared on the
// consumer side so tests can mock exactly this contract.
type RegistrantStore interface {
	Create(ctx context.Context, registrant *models.Registrant) error
	FindByID(ctx context.Context, registrantID id.RegistrantID) (*models.Registrant, error)
	FindByEmail(ctx context.Context, email string) (*models.Registrant, error)
	FindCandidate(ctx context.Context, exclude id.RegistrantID, major string) (*models.Registrant, error)
	Pair(ctx context.Context, a, b id.RegistrantID) error
	Unpair(ctx context.Context, registrantID id.RegistrantID, expectedPartner *id.RegistrantID) error
	Delete(ctx context.Context, registrantID id.RegistrantID) error
}

var _ RegistrantStore = (store.RegistrantStore)(nil)

// AuditPublisher accepts audit events emitted by the engine.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// MatchResult is the outcome of a registration attempt.
type MatchResult struct {
	Matched bool               `json:"matched"`
	User    *models.Registrant `json:"user"`
	Match   *models.Summary    `json:"match,omitempty"`
}

// MatchStatus is the outcome of a match query.
type MatchStatus struct {
	Matched bool            `json:"matched"`
	Match   *models.Summary `json:"match,omitempty"`
}

// Service orchestrates registrant admission and pairing.
type Service struct {
	registrants  RegistrantStore
	summaries    *cache.SummaryCache
	logger       *slog.Logger
	metrics      *metrics.Metrics
	audit        AuditPublisher
	tracer       trace.Tracer
	available    func() bool
	storeTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditPublisher attaches the audit event publisher.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithSummaryCache attaches the partner summary cache.
func WithSummaryCache(c *cache.SummaryCache) Option {
	return func(s *Service) { s.summaries = c }
}

// WithAvailability sets the storage availability gate. Operations fail fast
// with a retryable error while the gate reports false.
func WithAvailability(gate func() bool) Option {
	return func(s *Service) { s.available = gate }
}

// WithStoreTimeout bounds each store-facing operation.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) { s.storeTimeout = d }
}

// New constructs the matching engine over the given store.
func New(registrants RegistrantStore, opts ...Option) *Service {
	s := &Service{
		registrants:  registrants,
		logger:       slog.Default(),
		tracer:       otel.Tracer("matching"),
		storeTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterAndMatch admits a registrant and attempts to pair it.
//
// Re-submitting an identity that already exists returns the existing record's
// current state without creating anything or attempting a new match. A newly
// created registrant triggers the allocation loop: find an unmatched
// candidate (same major preferred), attempt the conditional pair commit, and
// re-search whenever the commit reports the candidate was taken by a
// concurrent request. The loop ends when a commit lands, when the pool is
// empty, or when a concurrent request has already paired this registrant.
func (s *Service) RegisterAndMatch(ctx context.Context, params models.NewRegistrantParams) (*MatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "RegisterAndMatch")
	defer span.End()

	ctx, cancel, err := s.opContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	existing, err := s.registrants.FindByEmail(ctx, params.Email)
	switch {
	case err == nil:
		return s.resolveExisting(ctx, existing)
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, s.storeErr(ctx, err, "look up registrant by email")
	}

	registrant, err := models.NewRegistrant(id.NewRegistrantID(), params, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.registrants.Create(ctx, registrant); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			// Lost a duplicate race on email, or the net ID is taken by a
			// different email. The former resolves idempotently.
			if existing, lookupErr := s.registrants.FindByEmail(ctx, params.Email); lookupErr == nil {
				return s.resolveExisting(ctx, existing)
			}
			return nil, dErrors.New(dErrors.CodeConflict, "net ID is already registered")
		}
		return nil, s.storeErr(ctx, err, "create registrant")
	}
	span.SetAttributes(attribute.String("registrant.id", registrant.ID.String()))
	if s.metrics != nil {
		s.metrics.RegistrantsCreated.Inc()
	}
	s.emit(ctx, audit.Event{
		Category:     audit.CategoryCompliance,
		RegistrantID: registrant.ID,
		Action:       audit.EventRegistrantRegistered,
		Email:        registrant.Email,
	})

	return s.allocate(ctx, registrant)
}

// allocate runs the find-and-commit loop for a freshly created registrant.
func (s *Service) allocate(ctx context.Context, registrant *models.Registrant) (*MatchResult, error) {
	for {
		candidate, err := s.registrants.FindCandidate(ctx, registrant.ID, registrant.Major)
		if errors.Is(err, sentinel.ErrNotFound) {
			return &MatchResult{Matched: false, User: registrant}, nil
		}
		if err != nil {
			return nil, s.storeErr(ctx, err, "find candidate")
		}
		if err := registrant.CanPairWith(candidate); err != nil {
			return nil, err
		}

		err = s.registrants.Pair(ctx, registrant.ID, candidate.ID)
		switch {
		case err == nil:
			now := requestcontext.Now(ctx)
			registrant.ApplyMatch(candidate.ID, now)
			candidate.ApplyMatch(registrant.ID, now)
			s.cachePair(ctx, registrant, candidate)
			if s.metrics != nil {
				s.metrics.MatchesCommitted.Inc()
			}
			s.emit(ctx, audit.Event{
				Category:     audit.CategoryCompliance,
				RegistrantID: registrant.ID,
				PartnerID:    candidate.ID,
				Action:       audit.EventMatchCommitted,
			})
			return &MatchResult{Matched: true, User: registrant, Match: candidate.Summary()}, nil

		case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrNotFound):
			// The candidate was paired or removed between search and commit,
			// or a concurrent request claimed this registrant itself. Re-read
			// our own record to tell the two apart: re-searching while already
			// matched would loop against candidates we can never commit.
			if s.metrics != nil {
				s.metrics.PairConflicts.Inc()
			}
			s.logger.DebugContext(ctx, "pair commit lost, re-checking",
				"registrant_id", registrant.ID,
				"candidate_id", candidate.ID,
			)
			current, findErr := s.registrants.FindByID(ctx, registrant.ID)
			if findErr != nil {
				if errors.Is(findErr, sentinel.ErrNotFound) {
					return nil, dErrors.New(dErrors.CodeNotFound, "registrant not found")
				}
				return nil, s.storeErr(ctx, findErr, "re-read registrant")
			}
			if current.IsMatched {
				return s.resolveExisting(ctx, current)
			}

		default:
			return nil, s.storeErr(ctx, err, "commit pair")
		}
	}
}

// QueryMatch reports a registrant's current match state, repairing a
// dangling partner reference before answering.
func (s *Service) QueryMatch(ctx context.Context, registrantID id.RegistrantID) (*MatchStatus, error) {
	ctx, span := s.tracer.Start(ctx, "QueryMatch",
		trace.WithAttributes(attribute.String("registrant.id", registrantID.String())),
	)
	defer span.End()

	ctx, cancel, err := s.opContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	registrant, err := s.registrants.FindByID(ctx, registrantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registrant not found")
		}
		return nil, s.storeErr(ctx, err, "find registrant")
	}
	if !registrant.IsMatched {
		return &MatchStatus{Matched: false}, nil
	}

	if summary, ok := s.summaries.Get(ctx, registrant.ID); ok {
		// A hit skips the partner existence check, so a partner removed
		// behind the store's back is still reported until the cache TTL or
		// the next reconcile pass. DeleteRegistrant invalidates both keys.
		return &MatchStatus{Matched: true, Match: summary}, nil
	}

	partner, err := s.registrants.FindByID(ctx, *registrant.MatchedWith)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			if healErr := s.heal(ctx, registrant); healErr != nil {
				return nil, healErr
			}
			return &MatchStatus{Matched: false}, nil
		}
		return nil, s.storeErr(ctx, err, "find partner")
	}

	summary := partner.Summary()
	if err := s.summaries.Set(ctx, registrant.ID, summary); err != nil {
		s.logger.WarnContext(ctx, "cache partner summary", "error", err)
	}
	return &MatchStatus{Matched: true, Match: summary}, nil
}

// DeleteRegistrant removes a record. The orphaned partner, if any, is
// repaired lazily by self-healing or by the reconciler.
func (s *Service) DeleteRegistrant(ctx context.Context, registrantID id.RegistrantID) error {
	ctx, span := s.tracer.Start(ctx, "DeleteRegistrant",
		trace.WithAttributes(attribute.String("registrant.id", registrantID.String())),
	)
	defer span.End()

	ctx, cancel, err := s.opContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	registrant, err := s.registrants.FindByID(ctx, registrantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "registrant not found")
		}
		return s.storeErr(ctx, err, "find registrant")
	}

	if err := s.registrants.Delete(ctx, registrantID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "registrant not found")
		}
		return s.storeErr(ctx, err, "delete registrant")
	}

	invalidate := []id.RegistrantID{registrantID}
	if registrant.MatchedWith != nil {
		invalidate = append(invalidate, *registrant.MatchedWith)
	}
	if err := s.summaries.Invalidate(ctx, invalidate...); err != nil {
		s.logger.WarnContext(ctx, "invalidate summaries", "error", err)
	}
	s.emit(ctx, audit.Event{
		Category:     audit.CategoryCompliance,
		RegistrantID: registrantID,
		Action:       audit.EventRegistrantDeleted,
		Email:        registrant.Email,
	})
	return nil
}

// resolveExisting answers a re-submitted identity with its current state,
// taking the self-healing branch when the recorded partner is gone.
func (s *Service) resolveExisting(ctx context.Context, existing *models.Registrant) (*MatchResult, error) {
	if !existing.IsMatched {
		return &MatchResult{Matched: false, User: existing}, nil
	}

	partner, err := s.registrants.FindByID(ctx, *existing.MatchedWith)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			if healErr := s.heal(ctx, existing); healErr != nil {
				return nil, healErr
			}
			return &MatchResult{Matched: false, User: existing}, nil
		}
		return nil, s.storeErr(ctx, err, "find partner")
	}
	return &MatchResult{Matched: true, User: existing, Match: partner.Summary()}, nil
}

// heal unmatches a registrant whose partner record no longer exists and
// mutates the passed record to its repaired state.
func (s *Service) heal(ctx context.Context, registrant *models.Registrant) error {
	err := s.registrants.Unpair(ctx, registrant.ID, registrant.MatchedWith)
	switch {
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrConflict):
		// The record is gone, or a concurrent path repaired it first and it
		// may already hold a fresh pairing. Leave the stored state alone.
		return nil
	case err != nil:
		return s.storeErr(ctx, err, "heal registrant")
	}
	registrant.ApplyUnmatch(requestcontext.Now(ctx))
	if err := s.summaries.Invalidate(ctx, registrant.ID); err != nil {
		s.logger.WarnContext(ctx, "invalidate summary", "error", err)
	}
	if s.metrics != nil {
		s.metrics.SelfHeals.Inc()
	}
	s.emit(ctx, audit.Event{
		Category:     audit.CategoryOperations,
		RegistrantID: registrant.ID,
		Action:       audit.EventMatchHealed,
		Reason:       "partner record absent",
	})
	s.logger.InfoContext(ctx, "self-healed dangling match",
		"registrant_id", registrant.ID,
	)
	return nil
}

func (s *Service) cachePair(ctx context.Context, a, b *models.Registrant) {
	if err := s.summaries.Set(ctx, a.ID, b.Summary()); err != nil {
		s.logger.WarnContext(ctx, "cache partner summary", "error", err)
	}
	if err := s.summaries.Set(ctx, b.ID, a.Summary()); err != nil {
		s.logger.WarnContext(ctx, "cache partner summary", "error", err)
	}
}

// opContext checks the availability gate and bounds the operation.
func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if s.available != nil && !s.available() {
		return nil, nil, dErrors.New(dErrors.CodeUnavailable, "storage is unavailable, retry later")
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	return ctx, cancel, nil
}

// storeErr classifies a storage failure: deadline and unavailability map to
// a retryable error, everything else is internal.
func (s *Service) storeErr(ctx context.Context, err error, op string) error {
	s.logger.ErrorContext(ctx, op, "error", err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "storage timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "emit audit event", "action", event.Action, "error", err)
	}
}
