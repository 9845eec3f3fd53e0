package registry

import (
	"context"
	"errors"
	"strings"
	"time"

	"studbook/internal/directory"
	"studbook/internal/registry/metrics"
	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
	"studbook/pkg/pagination"
	"studbook/pkg/platform/audit"
	"studbook/pkg/platform/sentinel"
	"studbook/pkg/requestcontext"
)

// MemberDirectory is the slice of the directory service the registry needs:
// owner lookups and pending-worklist maintenance. *directory.Service
// satisfies it.
type MemberDirectory interface {
	Get(ctx context.Context, memberID id.MemberID) (*directory.Member, error)
	AppendPendingHorse(ctx context.Context, memberID id.MemberID, horseID id.HorseID) error
	RemovePendingHorse(ctx context.Context, memberID id.MemberID, horseID id.HorseID) error
}

// Service orchestrates horse registration, adjudication, and gated edits.
type Service struct {
	store   Store
	members MemberDirectory
	audit   *audit.Publisher
	metrics *metrics.Metrics
}

func NewService(store Store, members MemberDirectory, publisher *audit.Publisher, m *metrics.Metrics) *Service {
	return &Service{store: store, members: members, audit: publisher, metrics: m}
}

// SubmitInput carries the fields a member provides when registering a horse.
type SubmitInput struct {
	RegistrationNum string     `json:"registrationNum"`
	Name            string     `json:"name"`
	Sex             string     `json:"sex"`
	Color           string     `json:"color"`
	Joint           string     `json:"joint"`
	Distance        string     `json:"distance"`
	BredBy          string     `json:"bredBy"`
	Pedigree        string     `json:"pedigree"`
	Points          int        `json:"pts"`
	FoalDate        *time.Time `json:"foalDate"`
	BuyDate         *time.Time `json:"buyDate"`

	RegistrationDocument string `json:"registrationDocument"`
	DNAKitDocument       string `json:"dnaKitDocument"`
}

func (in SubmitInput) toHorse(ownerID id.MemberID, ownerName string, now time.Time) *Horse {
	return &Horse{
		ID:                   id.NewHorseID(),
		RegistrationNum:      in.RegistrationNum,
		Name:                 in.Name,
		Sex:                  in.Sex,
		Color:                in.Color,
		Joint:                in.Joint,
		Distance:             in.Distance,
		BredBy:               in.BredBy,
		Pedigree:             in.Pedigree,
		Points:               in.Points,
		FoalDate:             in.FoalDate,
		BuyDate:              in.BuyDate,
		OwnerID:              ownerID,
		OwnerName:            ownerName,
		ApprovalStatus:       StatusPending,
		RegistrationDocument: in.RegistrationDocument,
		DNAKitDocument:       in.DNAKitDocument,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Submit registers a horse in the pending state and records it on the owner's
// review worklist. The owner must be an active member.
func (s *Service) Submit(ctx context.Context, ownerID id.MemberID, input SubmitInput) (*Horse, error) {
	owner, err := s.members.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !owner.IsActive {
		return nil, dErrors.New(dErrors.CodeInvalidState, "member is not in good standing")
	}

	now := requestcontext.Now(ctx)
	horse := input.toHorse(owner.ID, owner.DisplayName(), now)
	if err := horse.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, horse); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "registration number is already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create horse")
	}
	if err := s.members.AppendPendingHorse(ctx, owner.ID, horse.ID); err != nil {
		return nil, err
	}

	s.metrics.IncrementSubmitted()
	s.audit.Emit(ctx, audit.Event{
		Name:     audit.EventHorseSubmitted,
		MemberID: owner.ID,
		Subject:  horse.ID.String(),
		Detail:   horse.RegistrationNum,
	})
	return horse, nil
}

// Decide finalizes a pending registration. A second decision on the same
// horse fails with Conflict regardless of direction. On approval an optional
// corrected name may be applied, and the horse leaves the owner's worklist.
func (s *Service) Decide(ctx context.Context, horseID id.HorseID, decision ApprovalStatus, newName string) (*Horse, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return nil, dErrors.New(dErrors.CodeBadRequest, "decision must be approved or rejected")
	}
	now := requestcontext.Now(ctx)

	horse, err := s.store.Execute(ctx, horseID,
		func(h *Horse) error {
			if err := h.CanDecide(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "horse registration is already decided")
			}
			return nil
		},
		func(h *Horse) { h.ApplyDecision(decision, newName, now) },
	)
	if err != nil {
		return nil, wrapHorseErr(err)
	}

	if decision == StatusApproved {
		if err := s.members.RemovePendingHorse(ctx, horse.OwnerID, horse.ID); err != nil {
			return nil, err
		}
	}

	name := audit.EventHorseRejected
	if decision == StatusApproved {
		name = audit.EventHorseApproved
	}
	s.metrics.IncrementDecision(string(decision))
	s.audit.Emit(ctx, audit.Event{
		Name:     name,
		ActorID:  requestcontext.MemberID(ctx),
		MemberID: horse.OwnerID,
		Subject:  horse.ID.String(),
	})
	return horse, nil
}

// ProposeChange stages an edit to a gated field on a horse the actor owns.
// The live field is untouched until an admin commits the change.
func (s *Service) ProposeChange(ctx context.Context, horseID id.HorseID, actorID id.MemberID, field, value string) (*Horse, error) {
	if !GatedField(field) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "field is not subject to staged review")
	}
	if strings.TrimSpace(value) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "proposed value cannot be empty")
	}
	now := requestcontext.Now(ctx)
	horse, err := s.store.Execute(ctx, horseID,
		func(h *Horse) error {
			if h.OwnerID != actorID {
				return dErrors.New(dErrors.CodeForbidden, "only the owner can propose changes")
			}
			return nil
		},
		func(h *Horse) { _ = h.StageChange(field, value, now) },
	)
	if err != nil {
		return nil, wrapHorseErr(err)
	}

	s.audit.Emit(ctx, audit.Event{
		Name:     audit.EventNameChangeStaged,
		ActorID:  actorID,
		MemberID: horse.OwnerID,
		Subject:  horse.ID.String(),
		Detail:   field,
	})
	return horse, nil
}

// Change-resolution decisions.
const (
	ResolveCommit  = "commit"
	ResolveDiscard = "discard"
)

// ResolveChange commits or discards a staged gated-field edit. Resolving a
// field with nothing staged is NotFound.
func (s *Service) ResolveChange(ctx context.Context, horseID id.HorseID, field, decision string) (*Horse, error) {
	if decision != ResolveCommit && decision != ResolveDiscard {
		return nil, dErrors.New(dErrors.CodeBadRequest, "decision must be commit or discard")
	}
	now := requestcontext.Now(ctx)

	horse, err := s.store.Execute(ctx, horseID,
		func(h *Horse) error {
			if _, ok := h.PendingChanges[field]; !ok {
				return dErrors.New(dErrors.CodeNotFound, "no staged change for field")
			}
			return nil
		},
		func(h *Horse) {
			if decision == ResolveCommit {
				_, _ = h.CommitChange(field, now)
			} else {
				_, _ = h.DiscardChange(field, now)
			}
		},
	)
	if err != nil {
		return nil, wrapHorseErr(err)
	}

	name := audit.EventNameChangeDropped
	outcome := "discarded"
	if decision == ResolveCommit {
		name = audit.EventNameChangeApplied
		outcome = "committed"
	}
	s.metrics.IncrementChangeResolution(outcome)
	s.audit.Emit(ctx, audit.Event{
		Name:     name,
		ActorID:  requestcontext.MemberID(ctx),
		MemberID: horse.OwnerID,
		Subject:  horse.ID.String(),
		Detail:   field,
	})
	return horse, nil
}

// AssignOwner reassigns a horse to a new owner, refreshing the denormalized
// owner name from the directory. Transfers and admin reassignment both land
// here so there is exactly one owner-write path.
func (s *Service) AssignOwner(ctx context.Context, horseID id.HorseID, newOwnerID id.MemberID) (*Horse, error) {
	owner, err := s.members.Get(ctx, newOwnerID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	horse, err := s.store.Execute(ctx, horseID,
		func(h *Horse) error { return nil },
		func(h *Horse) { h.SetOwner(owner.ID, owner.DisplayName(), now) },
	)
	if err != nil {
		return nil, wrapHorseErr(err)
	}

	s.audit.Emit(ctx, audit.Event{
		Name:     audit.EventOwnershipAssigned,
		ActorID:  requestcontext.MemberID(ctx),
		MemberID: owner.ID,
		Subject:  horse.ID.String(),
	})
	return horse, nil
}

func (s *Service) Get(ctx context.Context, horseID id.HorseID) (*Horse, error) {
	horse, err := s.store.FindByID(ctx, horseID)
	if err != nil {
		return nil, wrapHorseErr(err)
	}
	return horse, nil
}

func (s *Service) List(ctx context.Context, filter Filter, page pagination.Page) (int, []*Horse, error) {
	return s.store.CountAndList(ctx, filter, page)
}

// AdminCreate records a horse directly without the owner submitting it. The
// record still starts pending so it passes through the same adjudication,
// but it never lands on the owner's worklist.
func (s *Service) AdminCreate(ctx context.Context, ownerID id.MemberID, input SubmitInput) (*Horse, error) {
	owner, err := s.members.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	horse := input.toHorse(owner.ID, owner.DisplayName(), now)
	if err := horse.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, horse); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "registration number is already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create horse")
	}

	s.audit.Emit(ctx, audit.Event{
		Name:     audit.EventHorseSubmitted,
		ActorID:  requestcontext.MemberID(ctx),
		MemberID: owner.ID,
		Subject:  horse.ID.String(),
		Detail:   horse.RegistrationNum,
	})
	return horse, nil
}

// UpdatePatch covers the fields that may change without review. Gated fields
// are deliberately absent; they go through ProposeChange.
type UpdatePatch struct {
	Sex      *string    `json:"sex"`
	Color    *string    `json:"color"`
	Joint    *string    `json:"joint"`
	Distance *string    `json:"distance"`
	BredBy   *string    `json:"bredBy"`
	Pedigree *string    `json:"pedigree"`
	Points   *int       `json:"pts"`
	SoldDate *time.Time `json:"soldDate"`
	Death    *time.Time `json:"death"`

	RegistrationDocument *string `json:"registrationDocument"`
	DNAKitDocument       *string `json:"dnaKitDocument"`
}

// Update applies ungated field edits directly.
func (s *Service) Update(ctx context.Context, horseID id.HorseID, patch UpdatePatch) (*Horse, error) {
	now := requestcontext.Now(ctx)
	horse, err := s.store.Execute(ctx, horseID,
		func(h *Horse) error {
			if patch.Pedigree != nil && *patch.Pedigree != "" &&
				*patch.Pedigree != PedigreeProven && *patch.Pedigree != PedigreeUnproven {
				return dErrors.New(dErrors.CodeBadRequest, "pedigree must be proven or unproven")
			}
			return nil
		},
		func(h *Horse) {
			applyIfSet(&h.Sex, patch.Sex)
			applyIfSet(&h.Color, patch.Color)
			applyIfSet(&h.Joint, patch.Joint)
			applyIfSet(&h.Distance, patch.Distance)
			applyIfSet(&h.BredBy, patch.BredBy)
			applyIfSet(&h.Pedigree, patch.Pedigree)
			applyIfSet(&h.RegistrationDocument, patch.RegistrationDocument)
			applyIfSet(&h.DNAKitDocument, patch.DNAKitDocument)
			if patch.Points != nil {
				h.Points = *patch.Points
			}
			if patch.SoldDate != nil {
				h.SoldDate = patch.SoldDate
			}
			if patch.Death != nil {
				h.Death = patch.Death
			}
			h.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, wrapHorseErr(err)
	}
	return horse, nil
}

// Delete physically removes a horse record. Admin-only.
func (s *Service) Delete(ctx context.Context, horseID id.HorseID) error {
	horse, err := s.store.FindByID(ctx, horseID)
	if err != nil {
		return wrapHorseErr(err)
	}
	if err := s.store.Delete(ctx, horseID); err != nil {
		return wrapHorseErr(err)
	}
	if horse.ApprovalStatus == StatusPending {
		if err := s.members.RemovePendingHorse(ctx, horse.OwnerID, horse.ID); err != nil {
			return err
		}
	}
	return nil
}

func applyIfSet(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func wrapHorseErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "horse not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "registration number is already taken")
	case dErrors.HasCode(err, dErrors.CodeBadRequest),
		dErrors.HasCode(err, dErrors.CodeNotFound),
		dErrors.HasCode(err, dErrors.CodeConflict),
		dErrors.HasCode(err, dErrors.CodeInvalidState),
		dErrors.HasCode(err, dErrors.CodeForbidden):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "horse store failure")
	}
}
