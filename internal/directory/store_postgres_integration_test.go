//go:build integration

package directory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"studbook/internal/directory"
	"studbook/internal/platform/postgres"
	id "studbook/pkg/domain"
	"studbook/pkg/platform/sentinel"
	"studbook/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *directory.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.StartPostgres(s.T())
	s.Require().NoError(postgres.RunMigrations(context.Background(), s.postgres.DSN))
	s.store = directory.NewPostgresStore(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	// Truncate in dependency order
	err := s.postgres.TruncateTables(context.Background(),
		"transfer_requests", "horses", "members")
	s.Require().NoError(err)
}

func newTestMember(email string) *directory.Member {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &directory.Member{
		FirstName: "Jo",
		LastName:  "Rider",
		Email:     email,
		IsActive:  true,
		Role:      directory.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()

	member := newTestMember("pg@example.com")
	s.Require().NoError(s.store.Create(ctx, member))
	s.NotZero(member.ID)

	found, err := s.store.FindByID(ctx, member.ID)
	s.Require().NoError(err)
	s.Equal(member.Email, found.Email)

	found, err = s.store.FindByEmail(ctx, "PG@example.com")
	s.Require().NoError(err)
	s.Equal(member.ID, found.ID)
}

func (s *PostgresStoreSuite) TestExternalIDInsert() {
	ctx := context.Background()

	member := newTestMember("external@example.com")
	member.ID = id.MemberID(987654)
	s.Require().NoError(s.store.Create(ctx, member))

	found, err := s.store.FindByID(ctx, id.MemberID(987654))
	s.Require().NoError(err)
	s.Equal(member.Email, found.Email)

	dup := newTestMember("other@example.com")
	dup.ID = id.MemberID(987654)
	s.Require().ErrorIs(s.store.Create(ctx, dup), sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestUniqueEmail() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, newTestMember("unique@example.com")))
	err := s.store.Create(ctx, newTestMember("unique@example.com"))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestExecuteLocksAndMutates() {
	ctx := context.Background()

	member := newTestMember("exec@example.com")
	s.Require().NoError(s.store.Create(ctx, member))

	updated, err := s.store.Execute(ctx, member.ID,
		func(m *directory.Member) error { return nil },
		func(m *directory.Member) { m.IsActive = false },
	)
	s.Require().NoError(err)
	s.False(updated.IsActive)

	found, err := s.store.FindByID(ctx, member.ID)
	s.Require().NoError(err)
	s.False(found.IsActive)
}

func (s *PostgresStoreSuite) TestPendingHorsesRoundTrip() {
	ctx := context.Background()

	member := newTestMember("horses@example.com")
	horseID := id.NewHorseID()
	member.PendingHorses = []id.HorseID{horseID}
	s.Require().NoError(s.store.Create(ctx, member))

	found, err := s.store.FindByID(ctx, member.ID)
	s.Require().NoError(err)
	s.Require().Len(found.PendingHorses, 1)
	s.Equal(horseID, found.PendingHorses[0])
}
