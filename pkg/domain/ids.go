// Package domain holds typed identifiers shared across modules.
//
// IDs are distinct types so a HorseID can never be passed where a MemberID is
// expected; the compiler enforces what the Mongo-era predecessor left to
// convention.
package domain

import (
	"strconv"

	"github.com/google/uuid"

	dErrors "studbook/pkg/domain-errors"
)

// MemberID identifies a member. For members synchronized from the membership
// platform this is the external contact id reused as the local primary key —
// there is deliberately no mapping table. Self-registered members receive a
// store-allocated id from the same keyspace.
type MemberID int64

// HorseID identifies a horse record.
type HorseID uuid.UUID

// TransferID identifies an ownership transfer request.
type TransferID uuid.UUID

// NewHorseID allocates a fresh horse id.
func NewHorseID() HorseID { return HorseID(uuid.New()) }

// NewTransferID allocates a fresh transfer request id.
func NewTransferID() TransferID { return TransferID(uuid.New()) }

// ParseMemberID validates and converts a path or payload value into a MemberID.
func ParseMemberID(s string) (MemberID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid member id")
	}
	return MemberID(n), nil
}

// ParseHorseID validates and converts a string into a HorseID.
func ParseHorseID(s string) (HorseID, error) {
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return HorseID{}, dErrors.New(dErrors.CodeBadRequest, "invalid horse id")
	}
	return HorseID(u), nil
}

// ParseTransferID validates and converts a string into a TransferID.
func ParseTransferID(s string) (TransferID, error) {
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return TransferID{}, dErrors.New(dErrors.CodeBadRequest, "invalid transfer request id")
	}
	return TransferID(u), nil
}

func (m MemberID) String() string { return strconv.FormatInt(int64(m), 10) }
func (m MemberID) IsNil() bool    { return m == 0 }

func (h HorseID) String() string { return uuid.UUID(h).String() }
func (h HorseID) IsNil() bool    { return uuid.UUID(h) == uuid.Nil }

func (t TransferID) String() string { return uuid.UUID(t).String() }
func (t TransferID) IsNil() bool    { return uuid.UUID(t) == uuid.Nil }
