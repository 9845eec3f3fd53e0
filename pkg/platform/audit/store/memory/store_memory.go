package memory

import (
	"context"
	"sync"

	id "studbook/pkg/domain"
	"studbook/pkg/platform/audit"
)

// Store is an append-only in-memory audit sink. Good enough for development
// and tests; production deployments layer the Kafka sink next to it.
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

// ListByMember returns events concerning a member, in append order.
func (s *Store) ListByMember(_ context.Context, memberID id.MemberID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.MemberID == memberID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListBySubject returns events for one entity (horse, transfer request).
func (s *Store) ListBySubject(_ context.Context, subject string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns a copy of every recorded event.
func (s *Store) All(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}
