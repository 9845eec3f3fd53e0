package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"studbook/internal/directory"
	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
	"studbook/pkg/requestcontext"
)

type HorseServiceSuite struct {
	suite.Suite
	members *directory.Service
	store   *InMemoryStore
	service *Service
	ctx     context.Context

	owner *directory.Member
}

func (s *HorseServiceSuite) SetupTest() {
	s.members = directory.NewService(directory.NewInMemoryStore(), nil)
	s.store = NewInMemoryStore()
	s.service = NewService(s.store, s.members, nil, nil)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	var err error
	s.owner, err = s.members.Register(s.ctx, directory.RegisterInput{
		FirstName: "Owen", LastName: "Owner",
		Email: "owner@example.com", Password: "password123",
	})
	s.Require().NoError(err)
}

func TestHorseServiceSuite(t *testing.T) {
	suite.Run(t, new(HorseServiceSuite))
}

func (s *HorseServiceSuite) submit(regNum string) *Horse {
	horse, err := s.service.Submit(s.ctx, s.owner.ID, SubmitInput{
		RegistrationNum: regNum,
		Name:            "Thunder",
		Pedigree:        PedigreeProven,
	})
	s.Require().NoError(err)
	return horse
}

func (s *HorseServiceSuite) TestSubmit() {
	s.Run("creates a pending horse on the owner's worklist", func() {
		horse := s.submit("REG-001")
		s.Equal(StatusPending, horse.ApprovalStatus)
		s.Equal(s.owner.ID, horse.OwnerID)
		s.Equal("Owen Owner", horse.OwnerName)

		member, err := s.members.Get(s.ctx, s.owner.ID)
		s.Require().NoError(err)
		s.Contains(member.PendingHorses, horse.ID)
	})

	s.Run("rejects a duplicate registration number with Conflict", func() {
		s.submit("REG-DUP")
		_, err := s.service.Submit(s.ctx, s.owner.ID, SubmitInput{
			RegistrationNum: "REG-DUP", Name: "Other Horse",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects an inactive owner with InvalidState", func() {
		_, err := s.members.SetStanding(s.ctx, s.owner.ID, false)
		s.Require().NoError(err)
		defer func() {
			_, err := s.members.SetStanding(s.ctx, s.owner.ID, true)
			s.Require().NoError(err)
		}()

		_, err = s.service.Submit(s.ctx, s.owner.ID, SubmitInput{
			RegistrationNum: "REG-INACTIVE", Name: "Nope",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("rejects an unknown owner with NotFound", func() {
		_, err := s.service.Submit(s.ctx, id.MemberID(9999), SubmitInput{
			RegistrationNum: "REG-GHOST", Name: "Ghost",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("validates required fields and pedigree", func() {
		_, err := s.service.Submit(s.ctx, s.owner.ID, SubmitInput{Name: "No RegNum"})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

		_, err = s.service.Submit(s.ctx, s.owner.ID, SubmitInput{
			RegistrationNum: "REG-PED", Name: "Bad Pedigree", Pedigree: "legendary",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *HorseServiceSuite) TestDecide() {
	s.Run("approval clears the worklist and applies an optional new name", func() {
		horse := s.submit("REG-APPROVE")

		decided, err := s.service.Decide(s.ctx, horse.ID, StatusApproved, "Thunderstrike")
		s.Require().NoError(err)
		s.Equal(StatusApproved, decided.ApprovalStatus)
		s.Equal("Thunderstrike", decided.Name)

		member, err := s.members.Get(s.ctx, s.owner.ID)
		s.Require().NoError(err)
		s.NotContains(member.PendingHorses, horse.ID)
	})

	s.Run("rejection keeps the live name", func() {
		horse := s.submit("REG-REJECT")

		decided, err := s.service.Decide(s.ctx, horse.ID, StatusRejected, "")
		s.Require().NoError(err)
		s.Equal(StatusRejected, decided.ApprovalStatus)
		s.Equal("Thunder", decided.Name)
	})

	s.Run("a second decision fails with Conflict in any direction", func() {
		horse := s.submit("REG-TWICE")
		_, err := s.service.Decide(s.ctx, horse.ID, StatusApproved, "")
		s.Require().NoError(err)

		_, err = s.service.Decide(s.ctx, horse.ID, StatusApproved, "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.service.Decide(s.ctx, horse.ID, StatusRejected, "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects a decision that is not approved or rejected", func() {
		horse := s.submit("REG-BADDEC")
		_, err := s.service.Decide(s.ctx, horse.ID, StatusPending, "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("returns NotFound for an unknown horse", func() {
		_, err := s.service.Decide(s.ctx, id.NewHorseID(), StatusApproved, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *HorseServiceSuite) TestProposeChange() {
	s.Run("stages the value without touching the live field", func() {
		horse := s.submit("REG-STAGE")

		staged, err := s.service.ProposeChange(s.ctx, horse.ID, s.owner.ID, FieldName, "Lightning")
		s.Require().NoError(err)
		s.Equal("Thunder", staged.Name)
		s.Equal("Lightning", staged.PendingChanges[FieldName])
	})

	s.Run("restages with the latest value", func() {
		horse := s.submit("REG-RESTAGE")

		_, err := s.service.ProposeChange(s.ctx, horse.ID, s.owner.ID, FieldName, "First")
		s.Require().NoError(err)
		staged, err := s.service.ProposeChange(s.ctx, horse.ID, s.owner.ID, FieldName, "Second")
		s.Require().NoError(err)
		s.Equal("Second", staged.PendingChanges[FieldName])
	})

	s.Run("only the owner can propose", func() {
		horse := s.submit("REG-NOTOWNER")
		stranger, err := s.members.Register(s.ctx, directory.RegisterInput{
			FirstName: "Sam", LastName: "Stranger",
			Email: "stranger@example.com", Password: "password123",
		})
		s.Require().NoError(err)

		_, err = s.service.ProposeChange(s.ctx, horse.ID, stranger.ID, FieldName, "Stolen")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects ungated fields and empty values", func() {
		horse := s.submit("REG-UNGATED")

		_, err := s.service.ProposeChange(s.ctx, horse.ID, s.owner.ID, "color", "bay")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

		_, err = s.service.ProposeChange(s.ctx, horse.ID, s.owner.ID, FieldName, "  ")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *HorseServiceSuite) TestResolveChange() {
	s.Run("commit applies the staged value and clears the slot", func() {
		horse := s.submit("REG-COMMIT")
		_, err := s.service.ProposeChange(s.ctx, horse.ID, s.owner.ID, FieldName, "Lightning")
		s.Require().NoError(err)

		resolved, err := s.service.ResolveChange(s.ctx, horse.ID, FieldName, ResolveCommit)
		s.Require().NoError(err)
		s.Equal("Lightning", resolved.Name)
		s.Empty(resolved.PendingChanges)
	})

	s.Run("discard drops the staged value and keeps the live field", func() {
		horse := s.submit("REG-DISCARD")
		_, err := s.service.ProposeChange(s.ctx, horse.ID, s.owner.ID, FieldName, "Lightning")
		s.Require().NoError(err)

		resolved, err := s.service.ResolveChange(s.ctx, horse.ID, FieldName, ResolveDiscard)
		s.Require().NoError(err)
		s.Equal("Thunder", resolved.Name)
		s.Empty(resolved.PendingChanges)
	})

	s.Run("resolving with nothing staged is NotFound", func() {
		horse := s.submit("REG-EMPTYSLOT")
		_, err := s.service.ResolveChange(s.ctx, horse.ID, FieldName, ResolveCommit)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejects an unknown resolution decision", func() {
		horse := s.submit("REG-BADRES")
		_, err := s.service.ResolveChange(s.ctx, horse.ID, FieldName, "maybe")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *HorseServiceSuite) TestAssignOwner() {
	s.Run("rewrites owner id and display name together", func() {
		horse := s.submit("REG-ASSIGN")
		buyer, err := s.members.Register(s.ctx, directory.RegisterInput{
			FirstName: "Bella", LastName: "Buyer",
			Email: "buyer@example.com", Password: "password123",
		})
		s.Require().NoError(err)

		assigned, err := s.service.AssignOwner(s.ctx, horse.ID, buyer.ID)
		s.Require().NoError(err)
		s.Equal(buyer.ID, assigned.OwnerID)
		s.Equal("Bella Buyer", assigned.OwnerName)
	})

	s.Run("returns NotFound for an unknown new owner", func() {
		horse := s.submit("REG-ASSIGN-GHOST")
		_, err := s.service.AssignOwner(s.ctx, horse.ID, id.MemberID(9999))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
