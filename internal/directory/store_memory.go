package directory

import (
	"context"
	"sort"
	"strings"
	"sync"

	id "studbook/pkg/domain"
	"studbook/pkg/pagination"
	"studbook/pkg/platform/sentinel"
)

// InMemoryStore keeps members in a mutex-guarded map. Development and test
// backend; the Postgres store is the durable one.
type InMemoryStore struct {
	mu      sync.RWMutex
	members map[id.MemberID]*Member
	byEmail map[string]id.MemberID
	nextID  int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		members: make(map[id.MemberID]*Member),
		byEmail: make(map[string]id.MemberID),
		nextID:  1,
	}
}

func (s *InMemoryStore) FindByID(_ context.Context, memberID id.MemberID) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyMember(m), nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	memberID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyMember(s.members[memberID]), nil
}

func (s *InMemoryStore) Exists(_ context.Context, memberID id.MemberID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[memberID]
	return ok, nil
}

func (s *InMemoryStore) Create(_ context.Context, member *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if member.ID == 0 {
		for s.members[id.MemberID(s.nextID)] != nil {
			s.nextID++
		}
		member.ID = id.MemberID(s.nextID)
		s.nextID++
	} else if _, taken := s.members[member.ID]; taken {
		return sentinel.ErrAlreadyUsed
	}

	key := strings.ToLower(member.Email)
	if _, taken := s.byEmail[key]; taken {
		return sentinel.ErrAlreadyUsed
	}

	s.members[member.ID] = copyMember(member)
	s.byEmail[key] = member.ID
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, member *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.members[member.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !strings.EqualFold(existing.Email, member.Email) {
		key := strings.ToLower(member.Email)
		if _, taken := s.byEmail[key]; taken {
			return sentinel.ErrAlreadyUsed
		}
		delete(s.byEmail, strings.ToLower(existing.Email))
		s.byEmail[key] = member.ID
	}
	s.members[member.ID] = copyMember(member)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, memberID id.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.members[memberID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(existing.Email))
	delete(s.members, memberID)
	return nil
}

func (s *InMemoryStore) CountAndList(_ context.Context, filter Filter, page pagination.Page) (int, []*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Member
	for _, m := range s.members {
		if filter.IsActive != nil && m.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" && !matchesSearch(m, filter.Search) {
			continue
		}
		matched = append(matched, copyMember(m))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	return len(matched), pagination.Slice(matched, page), nil
}

func (s *InMemoryStore) Execute(_ context.Context, memberID id.MemberID,
	validate func(*Member) error, mutate func(*Member)) (*Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(m); err != nil {
		return nil, err
	}
	mutate(m)
	return copyMember(m), nil
}

func matchesSearch(m *Member, search string) bool {
	search = strings.ToLower(search)
	return strings.Contains(strings.ToLower(m.FirstName), search) ||
		strings.Contains(strings.ToLower(m.LastName), search) ||
		strings.Contains(strings.ToLower(m.Email), search)
}

func copyMember(m *Member) *Member {
	dup := *m
	dup.PendingHorses = append([]id.HorseID(nil), m.PendingHorses...)
	return &dup
}
