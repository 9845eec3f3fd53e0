package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"studbook/pkg/platform/audit"
)

// Store appends audit events to the audit_events table. Rows are write-only
// from the service's point of view; retention and reporting run out of band.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_events (category, name, member_id, actor_id, subject, detail, request_id, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(event.Category), string(event.Name),
		int64(event.MemberID), int64(event.ActorID),
		event.Subject, event.Detail, event.RequestID, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}
