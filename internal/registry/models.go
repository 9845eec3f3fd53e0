// Package registry holds horse records and the approval state machine that
// governs how a submitted horse becomes part of the official studbook.
package registry

import (
	"strings"
	"time"

	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
)

// ApprovalStatus is the registration state machine: pending → approved or
// pending → rejected, both terminal for the initial submission.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Terminal reports whether the status can no longer change.
func (s ApprovalStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Pedigree classification values.
const (
	PedigreeProven   = "proven"
	PedigreeUnproven = "unproven"
)

// FieldName is the one field whose edits are gated for admin review. Gated
// edits go through PendingChanges, never the live field.
const FieldName = "name"

// GatedField reports whether member edits to the field require admin review.
func GatedField(field string) bool {
	return field == FieldName
}

// Horse is a registry asset exclusively owned by one member.
//
// Invariants:
//   - RegistrationNum is the unique business key and never changes
//   - OwnerName always equals the display name of the member OwnerID points
//     at; both are written together through SetOwner
//   - gated fields are staged in PendingChanges until an admin commits them
type Horse struct {
	ID              id.HorseID `json:"id"`
	RegistrationNum string     `json:"registrationNum"`
	Name            string     `json:"name"`

	Sex      string `json:"sex,omitempty"`
	Color    string `json:"color,omitempty"`
	Joint    string `json:"joint,omitempty"`
	Distance string `json:"distance,omitempty"`
	BredBy   string `json:"bredBy,omitempty"`
	Pedigree string `json:"pedigree,omitempty"`
	Points   int    `json:"pts,omitempty"`

	FoalDate *time.Time `json:"foalDate,omitempty"`
	BuyDate  *time.Time `json:"buyDate,omitempty"`
	SoldDate *time.Time `json:"soldDate,omitempty"`
	Death    *time.Time `json:"death,omitempty"`

	OwnerID id.MemberID `json:"owner"`
	// OwnerName is a denormalized cache of the owner's display name, kept
	// consistent with OwnerID on every transfer.
	OwnerName string `json:"ownerName"`

	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
	// PendingChanges maps gated field name to the proposed new value.
	PendingChanges map[string]string `json:"pendingChanges,omitempty"`

	// Opaque document references; the registry never interprets contents.
	RegistrationDocument string `json:"registrationDocument,omitempty"`
	DNAKitDocument       string `json:"dnaKitDocument,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate enforces submission invariants.
func (h *Horse) Validate() error {
	if strings.TrimSpace(h.RegistrationNum) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "registration number is required")
	}
	if strings.TrimSpace(h.Name) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "horse name is required")
	}
	if h.Pedigree != "" && h.Pedigree != PedigreeProven && h.Pedigree != PedigreeUnproven {
		return dErrors.New(dErrors.CodeBadRequest, "pedigree must be proven or unproven")
	}
	return nil
}

// SetOwner reassigns ownership and recomputes the denormalized owner name in
// the same step. Every owner write in the codebase goes through here.
func (h *Horse) SetOwner(ownerID id.MemberID, displayName string, now time.Time) {
	h.OwnerID = ownerID
	h.OwnerName = displayName
	h.UpdatedAt = now
}

// CanDecide checks that the initial-submission decision is still open.
func (h *Horse) CanDecide() error {
	if h.ApprovalStatus.Terminal() {
		return dErrors.New(dErrors.CodeInvariantViolation, "horse registration is already decided")
	}
	return nil
}

// ApplyDecision finalizes the registration. On approval an optional new name
// is written directly to the live field; this is the terminal-approval path,
// distinct from post-approval staged edits.
func (h *Horse) ApplyDecision(decision ApprovalStatus, newName string, now time.Time) {
	h.ApprovalStatus = decision
	if decision == StatusApproved && newName != "" {
		h.Name = newName
	}
	h.UpdatedAt = now
}

// StageChange records a proposed gated-field edit without touching the live
// field. Staging is independent of ApprovalStatus: an approved horse can have
// a name change pending.
func (h *Horse) StageChange(field, value string, now time.Time) error {
	if !GatedField(field) {
		return dErrors.New(dErrors.CodeBadRequest, "field is not subject to staged review")
	}
	if strings.TrimSpace(value) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "proposed value cannot be empty")
	}
	if h.PendingChanges == nil {
		h.PendingChanges = make(map[string]string)
	}
	h.PendingChanges[field] = value
	h.UpdatedAt = now
	return nil
}

// CommitChange moves a staged value onto the live field and clears the slot.
func (h *Horse) CommitChange(field string, now time.Time) (string, error) {
	value, ok := h.PendingChanges[field]
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "no staged change for field")
	}
	switch field {
	case FieldName:
		h.Name = value
	}
	delete(h.PendingChanges, field)
	h.UpdatedAt = now
	return value, nil
}

// DiscardChange clears a staged value without applying it.
func (h *Horse) DiscardChange(field string, now time.Time) (string, error) {
	value, ok := h.PendingChanges[field]
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "no staged change for field")
	}
	delete(h.PendingChanges, field)
	h.UpdatedAt = now
	return value, nil
}
