package directory

import (
	"context"

	id "studbook/pkg/domain"
	"studbook/pkg/pagination"
)

// Filter narrows member listings. Search matches first name, last name, and
// email case-insensitively.
type Filter struct {
	IsActive *bool
	Search   string
}

// Store is the member persistence contract. Implementations return sentinel
// errors (sentinel.ErrNotFound, sentinel.ErrAlreadyUsed); the service layer
// translates them into coded domain errors.
type Store interface {
	FindByID(ctx context.Context, memberID id.MemberID) (*Member, error)
	FindByEmail(ctx context.Context, email string) (*Member, error)
	Exists(ctx context.Context, memberID id.MemberID) (bool, error)

	// Create persists a new member. A zero ID asks the store to allocate
	// one; a non-zero ID (external contact id) is used verbatim.
	Create(ctx context.Context, member *Member) error
	Update(ctx context.Context, member *Member) error
	Delete(ctx context.Context, memberID id.MemberID) error

	CountAndList(ctx context.Context, filter Filter, page pagination.Page) (int, []*Member, error)

	// Execute atomically validates and mutates one member while holding the
	// store's lock (mutex in memory, FOR UPDATE on Postgres).
	Execute(ctx context.Context, memberID id.MemberID,
		validate func(*Member) error,
		mutate func(*Member)) (*Member, error)
}
