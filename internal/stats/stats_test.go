package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studbook/internal/directory"
	"studbook/internal/registry"
	"studbook/internal/transfer"
	"studbook/pkg/platform/tx"
	"studbook/pkg/requestcontext"
	"studbook/pkg/testutil"
)

func TestOverview(t *testing.T) {
	ctx := requestcontext.WithTime(context.Background(),
		time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	members := directory.NewService(directory.NewInMemoryStore(), nil)
	horses := registry.NewService(registry.NewInMemoryStore(), members, nil, nil)
	transfers := transfer.NewService(transfer.NewInMemoryStore(), horses, members, tx.NopRunner{}, nil, nil)
	service := NewService(members, horses, transfers)

	var (
		owner, buyer *directory.Member
		approved     *registry.Horse
	)

	testutil.Given(t, "members in mixed standing, horses, and an open transfer", func(t *testing.T) {
		var err error
		owner, err = members.Register(ctx, directory.RegisterInput{
			FirstName: "Olive", LastName: "Owner",
			Email: "owner@example.com", Password: "password123",
		})
		require.NoError(t, err)
		buyer, err = members.Register(ctx, directory.RegisterInput{
			FirstName: "Bella", LastName: "Buyer",
			Email: "buyer@example.com", Password: "password123",
		})
		require.NoError(t, err)
		lapsed, err := members.Register(ctx, directory.RegisterInput{
			FirstName: "Larry", LastName: "Lapsed",
			Email: "lapsed@example.com", Password: "password123",
		})
		require.NoError(t, err)
		_, err = members.SetStanding(ctx, lapsed.ID, false)
		require.NoError(t, err)

		approved, err = horses.Submit(ctx, owner.ID, registry.SubmitInput{
			RegistrationNum: "REG-STAT-1", Name: "Comet",
		})
		require.NoError(t, err)
		approved, err = horses.Decide(ctx, approved.ID, registry.StatusApproved, "")
		require.NoError(t, err)
		_, err = horses.Submit(ctx, owner.ID, registry.SubmitInput{
			RegistrationNum: "REG-STAT-2", Name: "Star",
		})
		require.NoError(t, err)

		_, err = transfers.Request(ctx, owner.ID, approved.ID, buyer.ID)
		require.NoError(t, err)
	})

	var overview *Overview
	testutil.When(t, "the overview is aggregated", func(t *testing.T) {
		var err error
		overview, err = service.Overview(ctx)
		require.NoError(t, err)
	})

	testutil.Then(t, "it reports totals alongside the pending workload", func(t *testing.T) {
		assert.Equal(t, 3, overview.Members)
		assert.Equal(t, 2, overview.ActiveMembers)
		assert.Equal(t, 2, overview.Horses)
		assert.Equal(t, 1, overview.PendingHorses)
		assert.Equal(t, 1, overview.TransferRequests)
		assert.Equal(t, 1, overview.PendingTransfers)
	})
}

func TestOverviewEmpty(t *testing.T) {
	members := directory.NewService(directory.NewInMemoryStore(), nil)
	horses := registry.NewService(registry.NewInMemoryStore(), members, nil, nil)
	transfers := transfer.NewService(transfer.NewInMemoryStore(), horses, members, tx.NopRunner{}, nil, nil)

	overview, err := NewService(members, horses, transfers).Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Overview{}, overview)
}
