package transfer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"studbook/internal/directory"
	"studbook/internal/registry"
	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
	"studbook/pkg/pagination"
	"studbook/pkg/platform/tx"
	"studbook/pkg/requestcontext"
)

type TransferServiceSuite struct {
	suite.Suite
	members *directory.Service
	horses  *registry.Service
	store   *InMemoryStore
	service *Service
	ctx     context.Context

	seller *directory.Member
	buyer  *directory.Member
	horse  *registry.Horse
}

func (s *TransferServiceSuite) SetupTest() {
	s.members = directory.NewService(directory.NewInMemoryStore(), nil)
	s.horses = registry.NewService(registry.NewInMemoryStore(), s.members, nil, nil)
	s.store = NewInMemoryStore()
	s.service = NewService(s.store, s.horses, s.members, tx.NopRunner{}, nil, nil)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	var err error
	s.seller, err = s.members.Register(s.ctx, directory.RegisterInput{
		FirstName: "Sally", LastName: "Seller",
		Email: "seller@example.com", Password: "password123",
	})
	s.Require().NoError(err)
	s.buyer, err = s.members.Register(s.ctx, directory.RegisterInput{
		FirstName: "Bella", LastName: "Buyer",
		Email: "buyer@example.com", Password: "password123",
	})
	s.Require().NoError(err)

	s.horse, err = s.horses.Submit(s.ctx, s.seller.ID, registry.SubmitInput{
		RegistrationNum: "REG-XFER", Name: "Thunder",
	})
	s.Require().NoError(err)
	s.horse, err = s.horses.Decide(s.ctx, s.horse.ID, registry.StatusApproved, "")
	s.Require().NoError(err)
}

// SetupSubTest gives every s.Run subtest a fresh store, members, and horse;
// the subtests below each assume the seller still owns an unencumbered horse.
func (s *TransferServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func TestTransferServiceSuite(t *testing.T) {
	suite.Run(t, new(TransferServiceSuite))
}

func (s *TransferServiceSuite) request() *Request {
	request, err := s.service.Request(s.ctx, s.seller.ID, s.horse.ID, s.buyer.ID)
	s.Require().NoError(err)
	return request
}

func (s *TransferServiceSuite) TestRequest() {
	s.Run("records intent without touching the horse", func() {
		request := s.request()
		s.Equal(StatusPending, request.Status)
		s.Equal(s.seller.ID, request.CurrentOwner)
		s.Equal(s.buyer.ID, request.NewOwner)

		horse, err := s.horses.Get(s.ctx, s.horse.ID)
		s.Require().NoError(err)
		s.Equal(s.seller.ID, horse.OwnerID)
		s.Equal("Sally Seller", horse.OwnerName)
	})

	s.Run("only the current owner can request", func() {
		_, err := s.service.Request(s.ctx, s.buyer.ID, s.horse.ID, s.buyer.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects transfer to the current owner", func() {
		_, err := s.service.Request(s.ctx, s.seller.ID, s.horse.ID, s.seller.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects an inactive receiving member", func() {
		_, err := s.members.SetStanding(s.ctx, s.buyer.ID, false)
		s.Require().NoError(err)
		defer func() {
			_, err := s.members.SetStanding(s.ctx, s.buyer.ID, true)
			s.Require().NoError(err)
		}()

		_, err = s.service.Request(s.ctx, s.seller.ID, s.horse.ID, s.buyer.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("rejects an unapproved horse", func() {
		pendingHorse, err := s.horses.Submit(s.ctx, s.seller.ID, registry.SubmitInput{
			RegistrationNum: "REG-PEND", Name: "Waiting",
		})
		s.Require().NoError(err)

		_, err = s.service.Request(s.ctx, s.seller.ID, pendingHorse.ID, s.buyer.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("rejects a second open request for the same horse", func() {
		s.request()
		_, err := s.service.Request(s.ctx, s.seller.ID, s.horse.ID, s.buyer.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("returns NotFound for an unknown horse", func() {
		_, err := s.service.Request(s.ctx, s.seller.ID, id.NewHorseID(), s.buyer.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *TransferServiceSuite) TestResolve() {
	s.Run("approval reassigns the horse and refreshes the owner name", func() {
		request := s.request()

		resolved, err := s.service.Resolve(s.ctx, request.ID, StatusApproved)
		s.Require().NoError(err)
		s.Equal(StatusApproved, resolved.Status)

		horse, err := s.horses.Get(s.ctx, s.horse.ID)
		s.Require().NoError(err)
		s.Equal(s.buyer.ID, horse.OwnerID)
		s.Equal("Bella Buyer", horse.OwnerName)
	})

	s.Run("rejection leaves the horse untouched", func() {
		request := s.request()

		resolved, err := s.service.Resolve(s.ctx, request.ID, StatusRejected)
		s.Require().NoError(err)
		s.Equal(StatusRejected, resolved.Status)

		horse, err := s.horses.Get(s.ctx, s.horse.ID)
		s.Require().NoError(err)
		s.Equal(s.seller.ID, horse.OwnerID)
	})

	s.Run("a second resolution fails with Conflict in any direction", func() {
		request := s.request()
		_, err := s.service.Resolve(s.ctx, request.ID, StatusRejected)
		s.Require().NoError(err)

		_, err = s.service.Resolve(s.ctx, request.ID, StatusRejected)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.service.Resolve(s.ctx, request.ID, StatusApproved)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects an unknown resolution status", func() {
		request := s.request()
		_, err := s.service.Resolve(s.ctx, request.ID, StatusPending)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("returns NotFound for an unknown request", func() {
		_, err := s.service.Resolve(s.ctx, id.NewTransferID(), StatusApproved)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestConcurrentResolution races two resolvers at one request: exactly one
// must win, the other must observe Conflict.
func (s *TransferServiceSuite) TestConcurrentResolution() {
	request := s.request()

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i, status := range []Status{StatusApproved, StatusRejected} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = s.service.Resolve(s.ctx, request.ID, status)
		}()
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case dErrors.HasCode(err, dErrors.CodeConflict):
			conflicts++
		default:
			s.Failf("unexpected resolution error", "%v", err)
		}
	}
	s.Equal(1, wins)
	s.Equal(1, conflicts)
}

// TestConcurrentRequests races two owners-to-be at one horse: the store's
// open-request uniqueness (partial unique index on SQL, the same check under
// the store mutex in memory) lets exactly one request through even when both
// callers pass the pre-create check.
func (s *TransferServiceSuite) TestConcurrentRequests() {
	other, err := s.members.Register(s.ctx, directory.RegisterInput{
		FirstName: "Oscar", LastName: "Other",
		Email: "other@example.com", Password: "password123",
	})
	s.Require().NoError(err)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i, newOwner := range []id.MemberID{s.buyer.ID, other.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = s.service.Request(s.ctx, s.seller.ID, s.horse.ID, newOwner)
		}()
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case dErrors.HasCode(err, dErrors.CodeConflict):
			conflicts++
		default:
			s.Failf("unexpected request error", "%v", err)
		}
	}
	s.Equal(1, wins)
	s.Equal(1, conflicts)

	pending := StatusPending
	total, _, err := s.store.CountAndList(s.ctx, Filter{Status: &pending, HorseID: &s.horse.ID},
		pagination.Page{Number: 1, Size: 10})
	s.Require().NoError(err)
	s.Equal(1, total)
}

func (s *TransferServiceSuite) TestAdminTransfer() {
	s.Run("reassigns directly without a request", func() {
		horse, err := s.service.AdminTransfer(s.ctx, s.horse.ID, s.buyer.ID)
		s.Require().NoError(err)
		s.Equal(s.buyer.ID, horse.OwnerID)
		s.Equal("Bella Buyer", horse.OwnerName)
	})

	s.Run("returns NotFound for an unknown member", func() {
		_, err := s.service.AdminTransfer(s.ctx, s.horse.ID, id.MemberID(9999))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
