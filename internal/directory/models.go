// Package directory holds member identity and account-status records. It is
// the leaf store everything else consults: the registry checks that owners
// exist and are active, the transfer protocol resolves new owners here, and
// the reconciliation engine writes membership state into it.
package directory

import (
	"strings"
	"time"

	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Member is an association member. For members created by reconciliation the
// ID is the external membership platform's contact id; once assigned it never
// changes.
type Member struct {
	ID         id.MemberID `json:"id"`
	Prefix     string      `json:"prefix,omitempty"`
	FirstName  string      `json:"firstName"`
	MiddleName string      `json:"middleName,omitempty"`
	LastName   string      `json:"lastName"`
	Suffix     string      `json:"suffix,omitempty"`

	Address  string `json:"address,omitempty"`
	Country  string `json:"country,omitempty"`
	State    string `json:"state,omitempty"`
	Province string `json:"province,omitempty"`
	City     string `json:"city,omitempty"`
	Zip      string `json:"zip,omitempty"`

	HomePhone string `json:"homePhone,omitempty"`
	WorkPhone string `json:"workPhone,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
	Email     string `json:"email"`

	PasswordHash string `json:"-"`

	// IsActive tracks account standing; reconciliation events and admin
	// action both write it, last writer wins.
	IsActive bool `json:"isActive"`
	// IsPaid defaults true: self-registration happens only after payment in
	// the membership portal.
	IsPaid   bool       `json:"isPaid"`
	Birthday *time.Time `json:"birthday,omitempty"`
	Role     string     `json:"role"`

	// PendingHorses is a worklist of horses awaiting registration approval.
	// It is a back-reference, not ownership; the horse's OwnerID is
	// authoritative.
	PendingHorses []id.HorseID `json:"pendingHorses,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayName is the name denormalized onto horses as OwnerName.
func (m *Member) DisplayName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Validate enforces the construction invariants shared by self-registration
// and reconciliation-driven creation.
func (m *Member) Validate() error {
	if strings.TrimSpace(m.FirstName) == "" || strings.TrimSpace(m.LastName) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "first and last name are required")
	}
	if strings.TrimSpace(m.Email) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	return nil
}

// ApplyStanding sets the account-standing flag. Idempotent so replayed
// membership events converge.
func (m *Member) ApplyStanding(active bool, now time.Time) {
	m.IsActive = active
	m.UpdatedAt = now
}

// AppendPendingHorse records a newly submitted horse on the worklist.
func (m *Member) AppendPendingHorse(horseID id.HorseID, now time.Time) {
	for _, existing := range m.PendingHorses {
		if existing == horseID {
			return
		}
	}
	m.PendingHorses = append(m.PendingHorses, horseID)
	m.UpdatedAt = now
}

// RemovePendingHorse clears a horse from the worklist once adjudicated.
func (m *Member) RemovePendingHorse(horseID id.HorseID, now time.Time) {
	for i, existing := range m.PendingHorses {
		if existing == horseID {
			m.PendingHorses = append(m.PendingHorses[:i], m.PendingHorses[i+1:]...)
			m.UpdatedAt = now
			return
		}
	}
}
