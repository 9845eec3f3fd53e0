package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
	"studbook/pkg/requestcontext"
	"studbook/pkg/testutil"
)

type MemberServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	service *Service
	ctx     context.Context
}

func (s *MemberServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.service = NewService(s.store, nil)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestMemberServiceSuite(t *testing.T) {
	suite.Run(t, new(MemberServiceSuite))
}

func (s *MemberServiceSuite) register(email string) *Member {
	member, err := s.service.Register(s.ctx, RegisterInput{
		FirstName: "Jo",
		LastName:  "Rider",
		Email:     email,
		Password:  "hunter2hunter2",
	})
	s.Require().NoError(err)
	return member
}

func (s *MemberServiceSuite) TestRegister() {
	s.Run("creates an active paid member with hashed password", func() {
		member := s.register("new@example.com")
		s.True(member.IsActive)
		s.True(member.IsPaid)
		s.Equal(RoleMember, member.Role)
		s.NotEqual("hunter2hunter2", member.PasswordHash)
		s.NotEmpty(member.PasswordHash)
	})

	s.Run("rejects a duplicate email with Conflict", func() {
		s.register("dup@example.com")
		_, err := s.service.Register(s.ctx, RegisterInput{
			FirstName: "Other", LastName: "Person",
			Email: "dup@example.com", Password: "anotherpass",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects a missing password", func() {
		_, err := s.service.Register(s.ctx, RegisterInput{Email: "nopass@example.com"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *MemberServiceSuite) TestAuthenticate() {
	s.Run("accepts valid credentials", func() {
		registered := s.register("login@example.com")
		member, err := s.service.Authenticate(s.ctx, "login@example.com", "hunter2hunter2")
		s.Require().NoError(err)
		s.Equal(registered.ID, member.ID)
	})

	s.Run("rejects wrong password and unknown email identically", func() {
		s.register("victim@example.com")

		_, errWrongPass := s.service.Authenticate(s.ctx, "victim@example.com", "not-the-password")
		_, errNoUser := s.service.Authenticate(s.ctx, "ghost@example.com", "whatever")

		s.Require().Error(errWrongPass)
		s.Require().Error(errNoUser)
		s.Equal(errWrongPass.Error(), errNoUser.Error())
		s.True(dErrors.HasCode(errWrongPass, dErrors.CodeForbidden))
	})
}

func (s *MemberServiceSuite) TestBootstrapAdmin() {
	at := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	ctx := testutil.FrozenContext(at)

	s.Run("creates the first admin account", func() {
		admin, err := s.service.BootstrapAdmin(ctx, BootstrapInput{
			FirstName: "Registry", LastName: "Admin",
			Email: "admin@example.com", Password: "sup3r-secret",
		})
		s.Require().NoError(err)
		s.Equal(RoleAdmin, admin.Role)
		s.True(admin.IsActive)
		s.True(at.Equal(admin.CreatedAt))

		authed, err := s.service.Authenticate(ctx, "admin@example.com", "sup3r-secret")
		s.Require().NoError(err)
		s.Equal(admin.ID, authed.ID)
	})

	s.Run("is idempotent across restarts", func() {
		input := BootstrapInput{
			FirstName: "Registry", LastName: "Admin",
			Email: "repeat@example.com", Password: "sup3r-secret",
		}
		first, err := s.service.BootstrapAdmin(ctx, input)
		s.Require().NoError(err)
		second, err := s.service.BootstrapAdmin(ctx, input)
		s.Require().NoError(err)
		s.Equal(first.ID, second.ID)
		s.Equal(RoleAdmin, second.Role)
	})

	s.Run("promotes an existing member with the configured email", func() {
		member := s.register("promoted@example.com")
		s.Equal(RoleMember, member.Role)

		admin, err := s.service.BootstrapAdmin(ctx, BootstrapInput{
			FirstName: "Registry", LastName: "Admin",
			Email: "promoted@example.com", Password: "sup3r-secret",
		})
		s.Require().NoError(err)
		s.Equal(member.ID, admin.ID)
		s.Equal(RoleAdmin, admin.Role)
	})

	s.Run("requires both email and password", func() {
		_, err := s.service.BootstrapAdmin(ctx, BootstrapInput{Email: "admin@example.com"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *MemberServiceSuite) TestSetStanding() {
	s.Run("is idempotent in both directions", func() {
		member := s.register("standing@example.com")

		for range 2 {
			updated, err := s.service.SetStanding(s.ctx, member.ID, false)
			s.Require().NoError(err)
			s.False(updated.IsActive)
		}
		for range 2 {
			updated, err := s.service.SetStanding(s.ctx, member.ID, true)
			s.Require().NoError(err)
			s.True(updated.IsActive)
		}
	})

	s.Run("returns NotFound for unknown member", func() {
		_, err := s.service.SetStanding(s.ctx, id.MemberID(9999), false)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *MemberServiceSuite) TestFindOrCreateByExternalID() {
	contactID := id.MemberID(5150)

	seed := func(email string) func(context.Context) (*Member, error) {
		return func(context.Context) (*Member, error) {
			return &Member{
				FirstName: "Synced", LastName: "Member",
				Email: email, IsActive: true, Role: RoleMember,
			}, nil
		}
	}

	s.Run("creates with the external id as primary key", func() {
		member, created, err := s.service.FindOrCreateByExternalID(s.ctx, contactID, seed("sync@example.com"))
		s.Require().NoError(err)
		s.True(created)
		s.Equal(contactID, member.ID)
	})

	s.Run("short-circuits before the seed on replay", func() {
		seedCalled := false
		member, created, err := s.service.FindOrCreateByExternalID(s.ctx, contactID,
			func(context.Context) (*Member, error) {
				seedCalled = true
				return nil, dErrors.New(dErrors.CodeUnavailable, "should not be called")
			})
		s.Require().NoError(err)
		s.False(created)
		s.False(seedCalled)
		s.Equal(contactID, member.ID)
	})

	s.Run("creates nothing when the seed fails", func() {
		missingID := id.MemberID(6161)
		_, _, err := s.service.FindOrCreateByExternalID(s.ctx, missingID,
			func(context.Context) (*Member, error) {
				return nil, dErrors.New(dErrors.CodeUnavailable, "membership platform unreachable")
			})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

		_, err = s.service.Get(s.ctx, missingID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *MemberServiceSuite) TestPendingHorseWorklist() {
	s.Run("append is deduplicated and remove is a safe no-op", func() {
		member := s.register("worklist@example.com")
		horseID := id.NewHorseID()

		s.Require().NoError(s.service.AppendPendingHorse(s.ctx, member.ID, horseID))
		s.Require().NoError(s.service.AppendPendingHorse(s.ctx, member.ID, horseID))

		found, err := s.service.Get(s.ctx, member.ID)
		s.Require().NoError(err)
		s.Len(found.PendingHorses, 1)

		s.Require().NoError(s.service.RemovePendingHorse(s.ctx, member.ID, horseID))
		s.Require().NoError(s.service.RemovePendingHorse(s.ctx, member.ID, horseID))

		found, err = s.service.Get(s.ctx, member.ID)
		s.Require().NoError(err)
		s.Empty(found.PendingHorses)
	})
}

func (s *MemberServiceSuite) TestUpdateProfile() {
	s.Run("applies only the provided fields", func() {
		member := s.register("patch@example.com")
		city := "Lexington"

		updated, err := s.service.UpdateProfile(s.ctx, member.ID, ProfilePatch{City: &city})
		s.Require().NoError(err)
		s.Equal("Lexington", updated.City)
		s.Equal(member.Email, updated.Email)
	})

	s.Run("rejects clearing the email", func() {
		member := s.register("keepemail@example.com")
		empty := ""
		_, err := s.service.UpdateProfile(s.ctx, member.ID, ProfilePatch{Email: &empty})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
