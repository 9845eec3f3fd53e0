package transfer

import (
	"context"
	"errors"

	"studbook/internal/directory"
	"studbook/internal/registry"
	"studbook/internal/transfer/metrics"
	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
	"studbook/pkg/pagination"
	"studbook/pkg/platform/audit"
	"studbook/pkg/platform/sentinel"
	"studbook/pkg/platform/tx"
	"studbook/pkg/requestcontext"
)

// HorseRegistry is the slice of the registry service transfers need.
// *registry.Service satisfies it.
type HorseRegistry interface {
	Get(ctx context.Context, horseID id.HorseID) (*registry.Horse, error)
	AssignOwner(ctx context.Context, horseID id.HorseID, newOwnerID id.MemberID) (*registry.Horse, error)
}

// MemberDirectory is the slice of the directory service transfers need.
// *directory.Service satisfies it.
type MemberDirectory interface {
	Get(ctx context.Context, memberID id.MemberID) (*directory.Member, error)
}

// Service implements the ownership-transfer protocol: members propose, admins
// resolve, and only an approval touches the horse.
type Service struct {
	store   Store
	horses  HorseRegistry
	members MemberDirectory
	runner  tx.Runner
	audit   *audit.Publisher
	metrics *metrics.Metrics
}

func NewService(store Store, horses HorseRegistry, members MemberDirectory,
	runner tx.Runner, publisher *audit.Publisher, m *metrics.Metrics) *Service {
	return &Service{store: store, horses: horses, members: members,
		runner: runner, audit: publisher, metrics: m}
}

// Request opens a transfer proposal. The horse is not modified in any way;
// the request only records intent for an admin to adjudicate.
func (s *Service) Request(ctx context.Context, actorID id.MemberID, horseID id.HorseID, newOwnerID id.MemberID) (*Request, error) {
	horse, err := s.horses.Get(ctx, horseID)
	if err != nil {
		return nil, err
	}
	if horse.OwnerID != actorID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the current owner can request a transfer")
	}
	if horse.ApprovalStatus != registry.StatusApproved {
		return nil, dErrors.New(dErrors.CodeInvalidState, "horse registration is not approved")
	}
	if newOwnerID == horse.OwnerID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "member already owns this horse")
	}

	newOwner, err := s.members.Get(ctx, newOwnerID)
	if err != nil {
		return nil, err
	}
	if !newOwner.IsActive {
		return nil, dErrors.New(dErrors.CodeInvalidState, "receiving member is not in good standing")
	}

	pending := StatusPending
	if open, _, err := s.store.CountAndList(ctx, Filter{Status: &pending, HorseID: &horseID},
		pagination.Page{Number: 1, Size: 1}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check open transfers")
	} else if open > 0 {
		return nil, dErrors.New(dErrors.CodeConflict, "a transfer for this horse is already pending")
	}

	now := requestcontext.Now(ctx)
	request := &Request{
		ID:           id.NewTransferID(),
		HorseID:      horseID,
		CurrentOwner: horse.OwnerID,
		NewOwner:     newOwnerID,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, request); err != nil {
		return nil, wrapRequestErr(err)
	}

	s.metrics.IncrementRequested()
	s.audit.Emit(ctx, audit.Event{
		Name:     audit.EventTransferRequested,
		ActorID:  actorID,
		MemberID: newOwnerID,
		Subject:  request.ID.String(),
		Detail:   horseID.String(),
	})
	return request, nil
}

// Resolve adjudicates a pending transfer. Exactly one resolution wins; any
// later attempt fails with Conflict regardless of direction. On approval the
// ownership reassignment and the status flip land together: transactionally
// on the SQL backend, horse-write-first on the in-memory one so a failed
// reassignment leaves the request open.
func (s *Service) Resolve(ctx context.Context, requestID id.TransferID, status Status) (*Request, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resolution must be approved or rejected")
	}
	now := requestcontext.Now(ctx)

	var resolved *Request
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		resolved, err = s.store.Execute(txCtx, requestID,
			func(r *Request) error {
				if err := r.CanResolve(); err != nil {
					return dErrors.New(dErrors.CodeConflict, "transfer request is already resolved")
				}
				// The horse write happens here, before the status write,
				// while the request row/entry is held exclusively.
				if status == StatusApproved {
					if _, err := s.horses.AssignOwner(txCtx, r.HorseID, r.NewOwner); err != nil {
						return err
					}
				}
				return nil
			},
			func(r *Request) { r.ApplyResolution(status, now) },
		)
		return err
	})
	if err != nil {
		return nil, wrapRequestErr(err)
	}

	name := audit.EventTransferRejected
	if status == StatusApproved {
		name = audit.EventTransferApproved
	}
	s.metrics.IncrementResolution(string(status))
	s.audit.Emit(ctx, audit.Event{
		Name:     name,
		ActorID:  requestcontext.MemberID(ctx),
		MemberID: resolved.NewOwner,
		Subject:  resolved.ID.String(),
		Detail:   resolved.HorseID.String(),
	})
	return resolved, nil
}

// AdminTransfer reassigns ownership directly, without a member-initiated
// request. Used for corrections and paper transfers handled offline.
func (s *Service) AdminTransfer(ctx context.Context, horseID id.HorseID, newOwnerID id.MemberID) (*registry.Horse, error) {
	if _, err := s.members.Get(ctx, newOwnerID); err != nil {
		return nil, err
	}
	return s.horses.AssignOwner(ctx, horseID, newOwnerID)
}

func (s *Service) Get(ctx context.Context, requestID id.TransferID) (*Request, error) {
	request, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRequestErr(err)
	}
	return request, nil
}

func (s *Service) List(ctx context.Context, filter Filter, page pagination.Page) (int, []*Request, error) {
	return s.store.CountAndList(ctx, filter, page)
}

func wrapRequestErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "transfer request not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "a transfer for this horse is already pending")
	case dErrors.HasCode(err, dErrors.CodeBadRequest),
		dErrors.HasCode(err, dErrors.CodeNotFound),
		dErrors.HasCode(err, dErrors.CodeConflict),
		dErrors.HasCode(err, dErrors.CodeInvalidState),
		dErrors.HasCode(err, dErrors.CodeForbidden):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "transfer store failure")
	}
}
