package store

import (
	"context"
	"strings"
	"sync"

	"github.com/WenyeZhou51/rcssa-match-backend/internal/registrant/models"
	id "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain"
	"github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/sentinel"
	"github.com/WenyeZhou51/rcssa-match-backend/pkg/requestcontext"
)

// InMemory keeps registrants in maps guarded by one mutex. The mutex is the
// serialization point for Pair: both records mutate under a single hold, so
// no reader ever observes a half-committed pairing. Candidate selection
// iterates a Go map, which makes the tie-break order unspecified — that
// matches the documented policy, not an accident.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.RegistrantID]*models.Registrant
	byEmail map[string]id.RegistrantID
	byNetID map[string]id.RegistrantID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.RegistrantID]*models.Registrant),
		byEmail: make(map[string]id.RegistrantID),
		byNetID: make(map[string]id.RegistrantID),
	}
}

func (s *InMemory) Create(_ context.Context, registrant *models.Registrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	emailKey := strings.ToLower(registrant.Email)
	if _, taken := s.byEmail[emailKey]; taken {
		return sentinel.ErrAlreadyUsed
	}
	if _, taken := s.byNetID[registrant.NetID]; taken {
		return sentinel.ErrAlreadyUsed
	}

	s.byID[registrant.ID] = registrant.Clone()
	s.byEmail[emailKey] = registrant.ID
	s.byNetID[registrant.NetID] = registrant.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, registrantID id.RegistrantID) (*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.byID[registrantID]; ok {
		return r.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if registrantID, ok := s.byEmail[strings.ToLower(email)]; ok {
		return s.byID[registrantID].Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, registrant *models.Registrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[registrant.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.byID[registrant.ID] = registrant.Clone()
	return nil
}

func (s *InMemory) FindCandidate(_ context.Context, exclude id.RegistrantID, major string) (*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fallback *models.Registrant
	for _, r := range s.byID {
		if r.ID == exclude || r.IsMatched {
			continue
		}
		if r.Major == major {
			return r.Clone(), nil
		}
		if fallback == nil {
			fallback = r
		}
	}
	if fallback != nil {
		return fallback.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Pair(ctx context.Context, a, b id.RegistrantID) error {
	if a == b {
		return sentinel.ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ra, ok := s.byID[a]
	if !ok {
		return sentinel.ErrNotFound
	}
	rb, ok := s.byID[b]
	if !ok {
		return sentinel.ErrNotFound
	}
	if ra.IsMatched || rb.IsMatched {
		return sentinel.ErrConflict
	}

	now := requestcontext.Now(ctx)
	ra.ApplyMatch(b, now)
	rb.ApplyMatch(a, now)
	return nil
}

func (s *InMemory) Unpair(ctx context.Context, registrantID id.RegistrantID, expectedPartner *id.RegistrantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[registrantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !samePartner(r.MatchedWith, expectedPartner) {
		return sentinel.ErrConflict
	}
	r.ApplyUnmatch(requestcontext.Now(ctx))
	return nil
}

func samePartner(recorded, expected *id.RegistrantID) bool {
	if recorded == nil || expected == nil {
		return recorded == nil && expected == nil
	}
	return *recorded == *expected
}

func (s *InMemory) Delete(_ context.Context, registrantID id.RegistrantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[registrantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, registrantID)
	delete(s.byEmail, strings.ToLower(r.Email))
	delete(s.byNetID, r.NetID)
	return nil
}

func (s *InMemory) ListMatched(_ context.Context) ([]*models.Registrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Registrant
	for _, r := range s.byID {
		if r.IsMatched {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}
