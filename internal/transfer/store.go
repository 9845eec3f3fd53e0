package transfer

import (
	"context"

	id "studbook/pkg/domain"
	"studbook/pkg/pagination"
)

// Filter narrows transfer-request listings.
type Filter struct {
	Status  *Status
	HorseID *id.HorseID
	// Participant matches requests where the member is either side.
	Participant *id.MemberID
}

// Store is the transfer-request persistence contract. Implementations return
// sentinel errors; the service layer translates them.
type Store interface {
	FindByID(ctx context.Context, requestID id.TransferID) (*Request, error)
	Create(ctx context.Context, request *Request) error
	Update(ctx context.Context, request *Request) error

	CountAndList(ctx context.Context, filter Filter, page pagination.Page) (int, []*Request, error)

	// Execute atomically validates and mutates one request while holding the
	// store's lock. This is what makes double resolution lose with Conflict
	// instead of double-applying.
	Execute(ctx context.Context, requestID id.TransferID,
		validate func(*Request) error,
		mutate func(*Request)) (*Request, error)
}
