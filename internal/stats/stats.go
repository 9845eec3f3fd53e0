// Package stats aggregates headline counts for the admin dashboard.
package stats

import (
	"context"

	"studbook/internal/directory"
	"studbook/internal/registry"
	"studbook/internal/transfer"
	dErrors "studbook/pkg/domain-errors"
	"studbook/pkg/pagination"
)

// Counting views over the feature services. The concrete services satisfy
// them with their List methods.
type (
	MemberLister interface {
		List(ctx context.Context, filter directory.Filter, page pagination.Page) (int, []*directory.Member, error)
	}
	HorseLister interface {
		List(ctx context.Context, filter registry.Filter, page pagination.Page) (int, []*registry.Horse, error)
	}
	TransferLister interface {
		List(ctx context.Context, filter transfer.Filter, page pagination.Page) (int, []*transfer.Request, error)
	}
)

// Overview is the dashboard headline block.
type Overview struct {
	Members          int `json:"members"`
	ActiveMembers    int `json:"activeMembers"`
	Horses           int `json:"horses"`
	PendingHorses    int `json:"pendingHorses"`
	TransferRequests int `json:"transferRequests"`
	PendingTransfers int `json:"pendingTransfers"`
}

type Service struct {
	members   MemberLister
	horses    HorseLister
	transfers TransferLister
}

func NewService(members MemberLister, horses HorseLister, transfers TransferLister) *Service {
	return &Service{members: members, horses: horses, transfers: transfers}
}

// Overview gathers the counts. Each count reuses the feature listings with a
// single-item page, so only the totals are computed.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	probe := pagination.Page{Number: 1, Size: 1}

	var (
		o   Overview
		err error
	)
	if o.Members, _, err = s.members.List(ctx, directory.Filter{}, probe); err != nil {
		return nil, wrapStatsErr(err)
	}
	active := true
	if o.ActiveMembers, _, err = s.members.List(ctx, directory.Filter{IsActive: &active}, probe); err != nil {
		return nil, wrapStatsErr(err)
	}
	if o.Horses, _, err = s.horses.List(ctx, registry.Filter{}, probe); err != nil {
		return nil, wrapStatsErr(err)
	}
	pendingHorse := registry.StatusPending
	if o.PendingHorses, _, err = s.horses.List(ctx, registry.Filter{ApprovalStatus: &pendingHorse}, probe); err != nil {
		return nil, wrapStatsErr(err)
	}
	if o.TransferRequests, _, err = s.transfers.List(ctx, transfer.Filter{}, probe); err != nil {
		return nil, wrapStatsErr(err)
	}
	pendingTransfer := transfer.StatusPending
	if o.PendingTransfers, _, err = s.transfers.List(ctx, transfer.Filter{Status: &pendingTransfer}, probe); err != nil {
		return nil, wrapStatsErr(err)
	}
	return &o, nil
}

func wrapStatsErr(err error) error {
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate statistics")
}
