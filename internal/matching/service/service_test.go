package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/WenyeZhou51/rcssa-match-backend/internal/matching/service/mocks"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/registrant/models"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/registrant/store"
	id "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain"
	dErrors "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain-errors"
	audit "github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/audit"
	auditpublisher "github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/audit/publisher"
	"github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	service *Service
	ctx     context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.service = New(s.store)
	s.ctx = context.Background()
}

// SetupSubTest resets the store so one subtest's waiting registrants never
// become another's candidates.
func (s *ServiceSuite) SetupSubTest() {
	s.store = store.NewInMemory()
	s.service = New(s.store)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func params(netID, major string) models.NewRegistrantParams {
	return models.NewRegistrantParams{
		Name:           "Registrant " + netID,
		Email:          netID + "@rice.edu",
		NetID:          netID,
		Major:          major,
		GraduationYear: 2027,
	}
}

// TestRegisterAndMatch covers admission and allocation against a live store.
func (s *ServiceSuite) TestRegisterAndMatch() {
	s.Run("first registrant waits unmatched", func() {
		result, err := s.service.RegisterAndMatch(s.ctx, params("aa101", "Computer Science"))
		s.Require().NoError(err)
		s.False(result.Matched)
		s.Require().NotNil(result.User)
		s.Nil(result.Match)
		s.False(result.User.ID.IsNil())
	})

	s.Run("second registrant with the same major is paired", func() {
		first, err := s.service.RegisterAndMatch(s.ctx, params("bb101", "Computer Science"))
		s.Require().NoError(err)
		s.False(first.Matched)

		second, err := s.service.RegisterAndMatch(s.ctx, params("bb102", "Computer Science"))
		s.Require().NoError(err)
		s.True(second.Matched)
		s.Require().NotNil(second.Match)
		s.Equal("bb101@rice.edu", second.Match.Email)

		// The earlier registrant now sees the later one.
		status, err := s.service.QueryMatch(s.ctx, first.User.ID)
		s.Require().NoError(err)
		s.True(status.Matched)
		s.Equal("bb102@rice.edu", status.Match.Email)
	})

	s.Run("falls back across majors when no same-major registrant waits", func() {
		_, err := s.service.RegisterAndMatch(s.ctx, params("cc101", "History"))
		s.Require().NoError(err)

		result, err := s.service.RegisterAndMatch(s.ctx, params("cc102", "Physics"))
		s.Require().NoError(err)
		s.True(result.Matched)
		s.Equal("History", result.Match.Major)
	})

	s.Run("prefers the same major when several registrants wait", func() {
		// Seed two waiting registrants directly; registering them through the
		// engine would pair them with each other.
		for _, p := range []models.NewRegistrantParams{
			params("dd101", "History"),
			params("dd102", "Statistics"),
		} {
			r, err := models.NewRegistrant(id.NewRegistrantID(), p, time.Now())
			s.Require().NoError(err)
			s.Require().NoError(s.store.Create(s.ctx, r))
		}

		result, err := s.service.RegisterAndMatch(s.ctx, params("dd103", "Statistics"))
		s.Require().NoError(err)
		s.True(result.Matched)
		s.Equal("Statistics", result.Match.Major)
	})

	s.Run("rejects invalid fields without touching the store", func() {
		_, err := s.service.RegisterAndMatch(s.ctx, models.NewRegistrantParams{Email: "x@rice.edu"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, storeErr := s.store.FindByEmail(s.ctx, "x@rice.edu")
		s.ErrorIs(storeErr, sentinel.ErrNotFound)
	})
}

// TestIdempotentAdmission covers re-submitted identities.
func (s *ServiceSuite) TestIdempotentAdmission() {
	s.Run("re-registration returns current state without a new record", func() {
		first, err := s.service.RegisterAndMatch(s.ctx, params("ee101", "Math"))
		s.Require().NoError(err)

		again, err := s.service.RegisterAndMatch(s.ctx, params("ee101", "Math"))
		s.Require().NoError(err)
		s.Equal(first.User.ID, again.User.ID)
		s.False(again.Matched)
	})

	s.Run("re-registration of a matched registrant reports its partner", func() {
		first, err := s.service.RegisterAndMatch(s.ctx, params("ff101", "Math"))
		s.Require().NoError(err)
		_, err = s.service.RegisterAndMatch(s.ctx, params("ff102", "Math"))
		s.Require().NoError(err)

		again, err := s.service.RegisterAndMatch(s.ctx, params("ff101", "Math"))
		s.Require().NoError(err)
		s.Equal(first.User.ID, again.User.ID)
		s.True(again.Matched)
		s.Equal("ff102@rice.edu", again.Match.Email)
	})

	s.Run("same net ID under a different email conflicts", func() {
		_, err := s.service.RegisterAndMatch(s.ctx, params("gg101", "Math"))
		s.Require().NoError(err)

		p := params("gg101", "Math")
		p.Email = "different@rice.edu"
		_, err = s.service.RegisterAndMatch(s.ctx, p)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// TestQueryMatch covers the read path and its self-healing branch.
func (s *ServiceSuite) TestQueryMatch() {
	s.Run("unknown registrant is not found", func() {
		_, err := s.service.QueryMatch(s.ctx, id.NewRegistrantID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unmatched registrant reports no match", func() {
		result, err := s.service.RegisterAndMatch(s.ctx, params("hh101", "Math"))
		s.Require().NoError(err)

		status, err := s.service.QueryMatch(s.ctx, result.User.ID)
		s.Require().NoError(err)
		s.False(status.Matched)
		s.Nil(status.Match)
	})

	s.Run("dangling partner reference is healed on read", func() {
		first, err := s.service.RegisterAndMatch(s.ctx, params("ii101", "Math"))
		s.Require().NoError(err)
		second, err := s.service.RegisterAndMatch(s.ctx, params("ii102", "Math"))
		s.Require().NoError(err)
		s.True(second.Matched)

		s.Require().NoError(s.store.Delete(s.ctx, second.User.ID))

		status, err := s.service.QueryMatch(s.ctx, first.User.ID)
		s.Require().NoError(err)
		s.False(status.Matched)

		// The repair is persisted, so the registrant is allocatable again.
		healed, err := s.store.FindByID(s.ctx, first.User.ID)
		s.Require().NoError(err)
		s.False(healed.IsMatched)
		s.Nil(healed.MatchedWith)
	})

	s.Run("healed registrant can be re-registered into a new pairing", func() {
		first, err := s.service.RegisterAndMatch(s.ctx, params("jj101", "Math"))
		s.Require().NoError(err)
		second, err := s.service.RegisterAndMatch(s.ctx, params("jj102", "Math"))
		s.Require().NoError(err)
		s.Require().NoError(s.service.DeleteRegistrant(s.ctx, second.User.ID))

		again, err := s.service.RegisterAndMatch(s.ctx, params("jj101", "Math"))
		s.Require().NoError(err)
		s.False(again.Matched, "healing on re-registration clears the dangling reference")
		s.Equal(first.User.ID, again.User.ID)

		third, err := s.service.RegisterAndMatch(s.ctx, params("jj103", "Math"))
		s.Require().NoError(err)
		s.True(third.Matched)
		s.Equal("jj101@rice.edu", third.Match.Email)
	})
}

// TestDeleteRegistrant covers removal and the orphan it leaves behind.
func (s *ServiceSuite) TestDeleteRegistrant() {
	s.Run("unknown registrant is not found", func() {
		err := s.service.DeleteRegistrant(s.ctx, id.NewRegistrantID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("removes the record and frees its identity", func() {
		result, err := s.service.RegisterAndMatch(s.ctx, params("kk101", "Math"))
		s.Require().NoError(err)

		s.Require().NoError(s.service.DeleteRegistrant(s.ctx, result.User.ID))
		_, err = s.store.FindByID(s.ctx, result.User.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)

		fresh, err := s.service.RegisterAndMatch(s.ctx, params("kk101", "Math"))
		s.Require().NoError(err)
		s.NotEqual(result.User.ID, fresh.User.ID)
	})
}

// TestConcurrentRegistration races many admissions; every committed pairing
// must be symmetric and nobody may be paired twice.
func (s *ServiceSuite) TestConcurrentRegistration() {
	const registrants = 30

	var wg sync.WaitGroup
	results := make([]*MatchResult, registrants)
	errs := make([]error, registrants)
	for i := 0; i < registrants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := params(netID(i), "Computer Science")
			results[i], errs[i] = s.service.RegisterAndMatch(s.ctx, p)
		}(i)
	}
	wg.Wait()

	for i := range results {
		s.Require().NoError(errs[i])
	}

	// The registration responses cannot all report a partner: the first of
	// each pair answers before its partner arrives. The store is the record
	// of truth, and an even cohort pairs off completely there.
	seen := make(map[id.RegistrantID]id.RegistrantID)
	for _, result := range results {
		r, err := s.store.FindByID(s.ctx, result.User.ID)
		s.Require().NoError(err)
		s.Require().True(r.IsMatched)
		s.Require().NotNil(r.MatchedWith)

		partner, err := s.store.FindByID(s.ctx, *r.MatchedWith)
		s.Require().NoError(err)
		s.Require().NotNil(partner.MatchedWith)
		s.Equal(r.ID, *partner.MatchedWith, "pairing must be symmetric")

		if prev, ok := seen[r.ID]; ok {
			s.Equal(prev, *r.MatchedWith, "no registrant holds two partners")
		}
		seen[r.ID] = *r.MatchedWith
	}
}

// TestAuditTrail verifies the engine emits events through the publisher.
func (s *ServiceSuite) TestAuditTrail() {
	publisher := auditpublisher.NewChannel(16, nil)
	svc := New(s.store, WithAuditPublisher(publisher))

	first, err := svc.RegisterAndMatch(s.ctx, params("ll101", "Math"))
	s.Require().NoError(err)
	_, err = svc.RegisterAndMatch(s.ctx, params("ll102", "Math"))
	s.Require().NoError(err)
	s.Require().NoError(svc.DeleteRegistrant(s.ctx, first.User.ID))

	var actions []string
	for len(publisher.Inbox()) > 0 {
		event := <-publisher.Inbox()
		actions = append(actions, event.Action)
	}
	s.Equal([]string{
		audit.EventRegistrantRegistered,
		audit.EventRegistrantRegistered,
		audit.EventMatchCommitted,
		audit.EventRegistrantDeleted,
	}, actions)
}

func netID(i int) string {
	return string(rune('a'+i%26)) + string(rune('a'+i/26)) + "900"
}

// TestPairConflictRetry drives the allocation loop with a mocked store: the
// first commit loses the candidate, the loop re-searches and lands the second.
func TestPairConflictRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	registrants := mocks.NewMockRegistrantStore(ctrl)
	svc := New(registrants)

	ctx := context.Background()
	p := params("mm101", "Math")

	self := mustRegistrant(t, p)
	taken := mustRegistrant(t, params("mm102", "Math"))
	free := mustRegistrant(t, params("mm103", "Math"))

	registrants.EXPECT().FindByEmail(gomock.Any(), p.Email).Return(nil, sentinel.ErrNotFound)
	registrants.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	gomock.InOrder(
		registrants.EXPECT().FindCandidate(gomock.Any(), gomock.Any(), p.Major).Return(taken, nil),
		registrants.EXPECT().Pair(gomock.Any(), gomock.Any(), taken.ID).Return(sentinel.ErrConflict),
		registrants.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(self, nil),
		registrants.EXPECT().FindCandidate(gomock.Any(), gomock.Any(), p.Major).Return(free, nil),
		registrants.EXPECT().Pair(gomock.Any(), gomock.Any(), free.ID).Return(nil),
	)

	result, err := svc.RegisterAndMatch(ctx, p)
	require.NoError(t, err)
	require.True(t, result.Matched)
	require.Equal(t, free.Email, result.Match.Email)
}

// TestExhaustedPoolAfterConflict verifies the loop stops cleanly when the
// lost candidate was the only one.
func TestExhaustedPoolAfterConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	registrants := mocks.NewMockRegistrantStore(ctrl)
	svc := New(registrants)

	ctx := context.Background()
	p := params("nn101", "Math")
	self := mustRegistrant(t, p)
	taken := mustRegistrant(t, params("nn102", "Math"))

	registrants.EXPECT().FindByEmail(gomock.Any(), p.Email).Return(nil, sentinel.ErrNotFound)
	registrants.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	gomock.InOrder(
		registrants.EXPECT().FindCandidate(gomock.Any(), gomock.Any(), p.Major).Return(taken, nil),
		registrants.EXPECT().Pair(gomock.Any(), gomock.Any(), taken.ID).Return(sentinel.ErrConflict),
		registrants.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(self, nil),
		registrants.EXPECT().FindCandidate(gomock.Any(), gomock.Any(), p.Major).Return(nil, sentinel.ErrNotFound),
	)

	result, err := svc.RegisterAndMatch(ctx, p)
	require.NoError(t, err)
	require.False(t, result.Matched)
}

// TestAllocationResolvesWhenClaimedConcurrently covers the race where a
// concurrent request pairs the newly admitted registrant before its own
// commit lands. The loop must notice its own record is matched instead of
// re-searching forever against a candidate it can never commit.
func TestAllocationResolvesWhenClaimedConcurrently(t *testing.T) {
	ctx := context.Background()
	inner := store.NewInMemory()

	candidate := mustRegistrant(t, params("qq102", "Math"))
	rival := mustRegistrant(t, params("qq103", "Physics"))
	require.NoError(t, inner.Create(ctx, candidate))
	require.NoError(t, inner.Create(ctx, rival))

	svc := New(&claimingStore{InMemory: inner, rival: rival.ID})

	result, err := svc.RegisterAndMatch(ctx, params("qq101", "Math"))
	require.NoError(t, err)
	require.True(t, result.Matched)
	require.Equal(t, rival.Email, result.Match.Email)
	require.True(t, result.User.IsMatched)

	got, err := inner.FindByID(ctx, rival.ID)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, *got.MatchedWith)
}

// claimingStore pairs the registrant with rival right before the engine's
// own commit, so the commit loses against the registrant's own record.
type claimingStore struct {
	*store.InMemory
	rival   id.RegistrantID
	claimed bool
}

func (s *claimingStore) Pair(ctx context.Context, a, b id.RegistrantID) error {
	if !s.claimed {
		s.claimed = true
		if err := s.InMemory.Pair(ctx, a, s.rival); err != nil {
			return err
		}
	}
	return s.InMemory.Pair(ctx, a, b)
}

// TestHealLosesToConcurrentRepair verifies the read path's repair write is
// conditional: when another path already healed the record, the stale unpair
// is dropped instead of clobbering whatever state the record holds now.
func TestHealLosesToConcurrentRepair(t *testing.T) {
	ctrl := gomock.NewController(t)
	registrants := mocks.NewMockRegistrantStore(ctrl)
	svc := New(registrants)

	ctx := context.Background()
	r := mustRegistrant(t, params("rr101", "Math"))
	partner := id.NewRegistrantID()
	r.ApplyMatch(partner, time.Now())

	registrants.EXPECT().FindByID(gomock.Any(), r.ID).Return(r, nil)
	registrants.EXPECT().FindByID(gomock.Any(), partner).Return(nil, sentinel.ErrNotFound)
	registrants.EXPECT().Unpair(gomock.Any(), r.ID, r.MatchedWith).Return(sentinel.ErrConflict)

	status, err := svc.QueryMatch(ctx, r.ID)
	require.NoError(t, err)
	require.False(t, status.Matched)
}

// TestAvailabilityGate verifies operations fail fast while storage is down.
func TestAvailabilityGate(t *testing.T) {
	ctrl := gomock.NewController(t)
	registrants := mocks.NewMockRegistrantStore(ctrl)
	svc := New(registrants, WithAvailability(func() bool { return false }))

	ctx := context.Background()

	_, err := svc.RegisterAndMatch(ctx, params("oo101", "Math"))
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

	_, err = svc.QueryMatch(ctx, id.NewRegistrantID())
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

	err = svc.DeleteRegistrant(ctx, id.NewRegistrantID())
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

// TestStoreFailureClassification verifies unavailability wraps as retryable
// and anything else as internal.
func TestStoreFailureClassification(t *testing.T) {
	ctrl := gomock.NewController(t)
	registrants := mocks.NewMockRegistrantStore(ctrl)
	svc := New(registrants)

	ctx := context.Background()

	registrants.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrUnavailable)
	_, err := svc.RegisterAndMatch(ctx, params("pp101", "Math"))
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

	registrants.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)
	_, err = svc.QueryMatch(ctx, id.NewRegistrantID())
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func mustRegistrant(t *testing.T, p models.NewRegistrantParams) *models.Registrant {
	t.Helper()
	r, err := models.NewRegistrant(id.NewRegistrantID(), p, time.Now())
	require.NoError(t, err)
	return r
}
