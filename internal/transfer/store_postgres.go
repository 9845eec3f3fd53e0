package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "studbook/pkg/domain"
	"studbook/pkg/pagination"
	"studbook/pkg/platform/sentinel"
	"studbook/pkg/platform/tx"
)

const requestColumns = `id, horse_id, current_owner, new_owner, status, created_at, updated_at`

// PostgresStore persists transfer requests in PostgreSQL. Queries run against
// the ambient transaction when one is in context, the pool otherwise.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.pool
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.TransferID) (*Request, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+requestColumns+` FROM transfer_requests WHERE id = $1`, requestID.String())
	return scanRequest(row)
}

func (s *PostgresStore) Create(ctx context.Context, request *Request) error {
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO transfer_requests (id, horse_id, current_owner, new_owner, status, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		request.ID.String(), request.HorseID.String(),
		int64(request.CurrentOwner), int64(request.NewOwner),
		string(request.Status), request.CreatedAt, request.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create transfer request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, request *Request) error {
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE transfer_requests SET status = $2, updated_at = $3 WHERE id = $1`,
		request.ID.String(), string(request.Status), request.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update transfer request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountAndList(ctx context.Context, filter Filter, page pagination.Page) (int, []*Request, error) {
	where, args := requestFilterClause(filter)

	var total int
	if err := s.q(ctx).QueryRow(ctx, `SELECT count(*) FROM transfer_requests`+where, args...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count transfer requests: %w", err)
	}

	args = append(args, page.Size, page.Offset())
	rows, err := s.q(ctx).Query(ctx,
		`SELECT `+requestColumns+` FROM transfer_requests`+where+
			fmt.Sprintf(` ORDER BY created_at, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return 0, nil, fmt.Errorf("list transfer requests: %w", err)
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return 0, nil, err
		}
		requests = append(requests, r)
	}
	return total, requests, rows.Err()
}

func (s *PostgresStore) Execute(ctx context.Context, requestID id.TransferID,
	validate func(*Request) error, mutate func(*Request)) (*Request, error) {
	var result *Request
	run := func(txCtx context.Context) error {
		row := s.q(txCtx).QueryRow(txCtx,
			`SELECT `+requestColumns+` FROM transfer_requests WHERE id = $1 FOR UPDATE`, requestID.String())
		r, err := scanRequest(row)
		if err != nil {
			return err
		}
		if err := validate(r); err != nil {
			return err
		}
		mutate(r)
		if err := s.Update(txCtx, r); err != nil {
			return err
		}
		result = r
		return nil
	}

	if _, ok := tx.From(ctx); ok {
		if err := run(ctx); err != nil {
			return nil, err
		}
		return result, nil
	}
	err := pgx.BeginFunc(ctx, s.pool, func(t pgx.Tx) error {
		return run(tx.WithTx(ctx, t))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func requestFilterClause(filter Filter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.HorseID != nil {
		args = append(args, filter.HorseID.String())
		clauses = append(clauses, fmt.Sprintf("horse_id = $%d", len(args)))
	}
	if filter.Participant != nil {
		args = append(args, int64(*filter.Participant))
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(current_owner = $%d OR new_owner = $%d)", n, n))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanRequest(row pgx.Row) (*Request, error) {
	var r Request
	var rawID, rawHorse, status string
	var currentOwner, newOwner int64
	err := row.Scan(&rawID, &rawHorse, &currentOwner, &newOwner, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan transfer request: %w", err)
	}
	requestID, err := id.ParseTransferID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan transfer request: %w", err)
	}
	horseID, err := id.ParseHorseID(rawHorse)
	if err != nil {
		return nil, fmt.Errorf("scan transfer request: %w", err)
	}
	r.ID = requestID
	r.HorseID = horseID
	r.CurrentOwner = id.MemberID(currentOwner)
	r.NewOwner = id.MemberID(newOwner)
	r.Status = Status(status)
	return &r, nil
}
