package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "studbook/pkg/domain"
	"studbook/pkg/pagination"
	"studbook/pkg/platform/sentinel"
)

type MemberStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *MemberStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

// SetupSubTest gives every s.Run subtest a fresh store; the subtests assume
// an empty store (free ids, exact totals).
func (s *MemberStoreSuite) SetupSubTest() {
	s.SetupTest()
}

func TestMemberStoreSuite(t *testing.T) {
	suite.Run(t, new(MemberStoreSuite))
}

func (s *MemberStoreSuite) newMember(email string) *Member {
	now := time.Now()
	return &Member{
		FirstName: "Jo",
		LastName:  "Rider",
		Email:     email,
		IsActive:  true,
		Role:      RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *MemberStoreSuite) TestCreationAndLookups() {
	s.Run("allocates an id when none is given", func() {
		member := s.newMember("alloc@example.com")
		s.Require().NoError(s.store.Create(s.ctx, member))
		s.NotZero(member.ID)

		found, err := s.store.FindByID(s.ctx, member.ID)
		s.Require().NoError(err)
		s.Equal(member.Email, found.Email)
	})

	s.Run("uses an explicit external id verbatim", func() {
		member := s.newMember("external@example.com")
		member.ID = id.MemberID(4242)
		s.Require().NoError(s.store.Create(s.ctx, member))

		found, err := s.store.FindByID(s.ctx, id.MemberID(4242))
		s.Require().NoError(err)
		s.Equal(member.Email, found.Email)
	})

	s.Run("never reallocates a taken external id", func() {
		taken := s.newMember("taken@example.com")
		taken.ID = id.MemberID(1)
		s.Require().NoError(s.store.Create(s.ctx, taken))

		auto := s.newMember("auto@example.com")
		s.Require().NoError(s.store.Create(s.ctx, auto))
		s.NotEqual(taken.ID, auto.ID)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.FindByID(s.ctx, id.MemberID(999))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("finds by email case-insensitively", func() {
		member := s.newMember("Mixed@Example.com")
		s.Require().NoError(s.store.Create(s.ctx, member))

		found, err := s.store.FindByEmail(s.ctx, "mixed@example.com")
		s.Require().NoError(err)
		s.Equal(member.ID, found.ID)
	})
}

func (s *MemberStoreSuite) TestEmailUniqueness() {
	s.Run("rejects duplicate email", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newMember("dup@example.com")))

		err := s.store.Create(s.ctx, s.newMember("DUP@example.com"))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("rejects duplicate external id", func() {
		first := s.newMember("one@example.com")
		first.ID = id.MemberID(77)
		s.Require().NoError(s.store.Create(s.ctx, first))

		second := s.newMember("two@example.com")
		second.ID = id.MemberID(77)
		s.Require().ErrorIs(s.store.Create(s.ctx, second), sentinel.ErrAlreadyUsed)
	})
}

func (s *MemberStoreSuite) TestExecute() {
	s.Run("applies mutation atomically", func() {
		member := s.newMember("exec@example.com")
		s.Require().NoError(s.store.Create(s.ctx, member))

		updated, err := s.store.Execute(s.ctx, member.ID,
			func(m *Member) error { return nil },
			func(m *Member) { m.IsActive = false },
		)
		s.Require().NoError(err)
		s.False(updated.IsActive)

		found, err := s.store.FindByID(s.ctx, member.ID)
		s.Require().NoError(err)
		s.False(found.IsActive)
	})

	s.Run("validation failure leaves the record untouched", func() {
		member := s.newMember("guard@example.com")
		s.Require().NoError(s.store.Create(s.ctx, member))

		_, err := s.store.Execute(s.ctx, member.ID,
			func(m *Member) error { return sentinel.ErrInvalidState },
			func(m *Member) { m.IsActive = false },
		)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)

		found, err := s.store.FindByID(s.ctx, member.ID)
		s.Require().NoError(err)
		s.True(found.IsActive)
	})
}

func (s *MemberStoreSuite) TestCountAndList() {
	s.Run("filters by standing and search", func() {
		active := s.newMember("anna@example.com")
		active.FirstName = "Anna"
		s.Require().NoError(s.store.Create(s.ctx, active))

		inactive := s.newMember("bert@example.com")
		inactive.FirstName = "Bert"
		inactive.IsActive = false
		s.Require().NoError(s.store.Create(s.ctx, inactive))

		isActive := true
		total, members, err := s.store.CountAndList(s.ctx,
			Filter{IsActive: &isActive}, pagination.Page{Number: 1, Size: 10})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Require().Len(members, 1)
		s.Equal("Anna", members[0].FirstName)

		total, members, err = s.store.CountAndList(s.ctx,
			Filter{Search: "bert"}, pagination.Page{Number: 1, Size: 10})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Require().Len(members, 1)
		s.Equal("Bert", members[0].FirstName)
	})

	s.Run("paginates with total count", func() {
		for _, email := range []string{"p1@x.com", "p2@x.com", "p3@x.com"} {
			s.Require().NoError(s.store.Create(s.ctx, s.newMember(email)))
		}

		total, members, err := s.store.CountAndList(s.ctx, Filter{}, pagination.Page{Number: 2, Size: 2})
		s.Require().NoError(err)
		s.Equal(3, total)
		s.Len(members, 1)
	})
}
