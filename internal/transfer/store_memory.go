package transfer

import (
	"context"
	"sort"
	"sync"

	id "studbook/pkg/domain"
	"studbook/pkg/pagination"
	"studbook/pkg/platform/sentinel"
)

// InMemoryStore keeps transfer requests in a mutex-guarded map.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[id.TransferID]*Request
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[id.TransferID]*Request)}
}

func (s *InMemoryStore) FindByID(_ context.Context, requestID id.TransferID) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRequest(r), nil
}

func (s *InMemoryStore) Create(_ context.Context, request *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.requests[request.ID]; taken {
		return sentinel.ErrAlreadyUsed
	}
	// Mirror the partial unique index on (horse_id) WHERE status = 'pending':
	// at most one open request per horse.
	if request.Status == StatusPending {
		for _, existing := range s.requests {
			if existing.HorseID == request.HorseID && existing.Status == StatusPending {
				return sentinel.ErrAlreadyUsed
			}
		}
	}
	s.requests[request.ID] = copyRequest(request)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, request *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[request.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.requests[request.ID] = copyRequest(request)
	return nil
}

func (s *InMemoryStore) CountAndList(_ context.Context, filter Filter, page pagination.Page) (int, []*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Request
	for _, r := range s.requests {
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		if filter.HorseID != nil && r.HorseID != *filter.HorseID {
			continue
		}
		if filter.Participant != nil &&
			r.CurrentOwner != *filter.Participant && r.NewOwner != *filter.Participant {
			continue
		}
		matched = append(matched, copyRequest(r))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	return len(matched), pagination.Slice(matched, page), nil
}

func (s *InMemoryStore) Execute(_ context.Context, requestID id.TransferID,
	validate func(*Request) error, mutate func(*Request)) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(r); err != nil {
		return nil, err
	}
	mutate(r)
	return copyRequest(r), nil
}

func copyRequest(r *Request) *Request {
	dup := *r
	return &dup
}
