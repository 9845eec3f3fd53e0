// Package transfer implements the ownership-transfer request/approval
// protocol. A transfer request is a proposal: nothing about the horse changes
// until an admin approves it.
package transfer

import (
	"time"

	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
)

// Status is the transfer request state machine: pending → approved or
// pending → rejected, both terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Terminal reports whether the request can no longer be resolved.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Request records an intent to move a horse from CurrentOwner to NewOwner.
//
// Invariants:
//   - CurrentOwner is captured at request time and never rewritten; an
//     approval applies the transfer against the horse's owner at approval
//     time, which may have diverged
//   - Status only ever moves pending → approved or pending → rejected
type Request struct {
	ID           id.TransferID `json:"id"`
	HorseID      id.HorseID    `json:"horse"`
	CurrentOwner id.MemberID   `json:"currentOwner"`
	NewOwner     id.MemberID   `json:"newOwner"`
	Status       Status        `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// CanResolve checks that the request is still open.
func (r *Request) CanResolve() error {
	if r.Status.Terminal() {
		return dErrors.New(dErrors.CodeInvariantViolation, "transfer request is already resolved")
	}
	return nil
}

// ApplyResolution finalizes the request.
func (r *Request) ApplyResolution(status Status, now time.Time) {
	r.Status = status
	r.UpdatedAt = now
}
