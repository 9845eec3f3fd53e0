package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	id "studbook/pkg/domain"
	"studbook/pkg/pagination"
	"studbook/pkg/platform/sentinel"
)

// InMemoryStore keeps horses in a mutex-guarded map. Development and test
// backend; the Postgres store is the durable one.
type InMemoryStore struct {
	mu       sync.RWMutex
	horses   map[id.HorseID]*Horse
	byRegNum map[string]id.HorseID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		horses:   make(map[id.HorseID]*Horse),
		byRegNum: make(map[string]id.HorseID),
	}
}

func (s *InMemoryStore) FindByID(_ context.Context, horseID id.HorseID) (*Horse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.horses[horseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyHorse(h), nil
}

func (s *InMemoryStore) FindByRegistrationNum(_ context.Context, regNum string) (*Horse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	horseID, ok := s.byRegNum[strings.ToLower(regNum)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyHorse(s.horses[horseID]), nil
}

func (s *InMemoryStore) Create(_ context.Context, horse *Horse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.horses[horse.ID]; taken {
		return sentinel.ErrAlreadyUsed
	}
	key := strings.ToLower(horse.RegistrationNum)
	if _, taken := s.byRegNum[key]; taken {
		return sentinel.ErrAlreadyUsed
	}

	s.horses[horse.ID] = copyHorse(horse)
	s.byRegNum[key] = horse.ID
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, horse *Horse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.horses[horse.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !strings.EqualFold(existing.RegistrationNum, horse.RegistrationNum) {
		key := strings.ToLower(horse.RegistrationNum)
		if _, taken := s.byRegNum[key]; taken {
			return sentinel.ErrAlreadyUsed
		}
		delete(s.byRegNum, strings.ToLower(existing.RegistrationNum))
		s.byRegNum[key] = horse.ID
	}
	s.horses[horse.ID] = copyHorse(horse)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, horseID id.HorseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.horses[horseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byRegNum, strings.ToLower(existing.RegistrationNum))
	delete(s.horses, horseID)
	return nil
}

func (s *InMemoryStore) CountAndList(_ context.Context, filter Filter, page pagination.Page) (int, []*Horse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Horse
	for _, h := range s.horses {
		if filter.ApprovalStatus != nil && h.ApprovalStatus != *filter.ApprovalStatus {
			continue
		}
		if filter.OwnerID != nil && h.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Search != "" && !matchesHorseSearch(h, filter.Search) {
			continue
		}
		matched = append(matched, copyHorse(h))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].RegistrationNum < matched[j].RegistrationNum
	})

	return len(matched), pagination.Slice(matched, page), nil
}

func (s *InMemoryStore) Execute(_ context.Context, horseID id.HorseID,
	validate func(*Horse) error, mutate func(*Horse)) (*Horse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.horses[horseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(h); err != nil {
		return nil, err
	}
	mutate(h)
	return copyHorse(h), nil
}

func matchesHorseSearch(h *Horse, search string) bool {
	search = strings.ToLower(search)
	return strings.Contains(strings.ToLower(h.Name), search) ||
		strings.Contains(strings.ToLower(h.RegistrationNum), search) ||
		strings.Contains(strings.ToLower(h.OwnerName), search)
}

func copyHorse(h *Horse) *Horse {
	dup := *h
	if h.PendingChanges != nil {
		dup.PendingChanges = make(map[string]string, len(h.PendingChanges))
		for k, v := range h.PendingChanges {
			dup.PendingChanges[k] = v
		}
	}
	return &dup
}
