package memory

import (
	"context"
	"sync"

	id "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain"
	audit "github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/audit"
)

// Store keeps audit events in memory. Suitable for tests and for running
// without external infrastructure.
type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *Store) ListByRegistrant(_ context.Context, registrantID id.RegistrantID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.RegistrantID == registrantID || e.PartnerID == registrantID {
			out = append(out, e)
		}
	}
	return out, nil
}
