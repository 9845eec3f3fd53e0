package registry

import (
	"context"

	id "studbook/pkg/domain"
	"studbook/pkg/pagination"
)

// Filter narrows horse listings. Search matches name and registration number
// case-insensitively.
type Filter struct {
	ApprovalStatus *ApprovalStatus
	OwnerID        *id.MemberID
	Search         string
}

// Store is the horse persistence contract. Implementations return sentinel
// errors; the service layer translates them into coded domain errors.
type Store interface {
	FindByID(ctx context.Context, horseID id.HorseID) (*Horse, error)
	FindByRegistrationNum(ctx context.Context, regNum string) (*Horse, error)

	// Create persists a new horse. The registration number must be unique;
	// a collision surfaces as sentinel.ErrAlreadyUsed.
	Create(ctx context.Context, horse *Horse) error
	Update(ctx context.Context, horse *Horse) error
	Delete(ctx context.Context, horseID id.HorseID) error

	CountAndList(ctx context.Context, filter Filter, page pagination.Page) (int, []*Horse, error)

	// Execute atomically validates and mutates one horse while holding the
	// store's lock (mutex in memory, FOR UPDATE on Postgres).
	Execute(ctx context.Context, horseID id.HorseID,
		validate func(*Horse) error,
		mutate func(*Horse)) (*Horse, error)
}
