package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "studbook/pkg/domain"
	"studbook/pkg/pagination"
	"studbook/pkg/platform/sentinel"
	"studbook/pkg/platform/tx"
)

const horseColumns = `id, registration_num, name, sex, color, joint, distance,
	bred_by, pedigree, pts, foal_date, buy_date, sold_date, death,
	owner_id, owner_name, approval_status, pending_changes,
	registration_document, dna_kit_document, created_at, updated_at`

// PostgresStore persists horses in PostgreSQL. Queries run against the
// ambient transaction when one is in context, the pool otherwise.
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

func (s *PostgresStore) FindByID(ctx context.Context, horseID id.HorseID) (*Horse, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+horseColumns+` FROM horses WHERE id = $1`, horseID.String())
	return scanHorse(row)
}

func (s *PostgresStore) FindByRegistrationNum(ctx context.Context, regNum string) (*Horse, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+horseColumns+` FROM horses WHERE lower(registration_num) = lower($1)`, regNum)
	return scanHorse(row)
}

func (s *PostgresStore) Create(ctx context.Context, horse *Horse) error {
	changes, err := marshalChanges(horse.PendingChanges)
	if err != nil {
		return err
	}
	_, err = s.q(ctx).Exec(ctx,
		`INSERT INTO horses (id, registration_num, name, sex, color, joint, distance,
			bred_by, pedigree, pts, foal_date, buy_date, sold_date, death,
			owner_id, owner_name, approval_status, pending_changes,
			registration_document, dna_kit_document, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		horse.ID.String(), horse.RegistrationNum, horse.Name, horse.Sex, horse.Color,
		horse.Joint, horse.Distance, horse.BredBy, horse.Pedigree, horse.Points,
		horse.FoalDate, horse.BuyDate, horse.SoldDate, horse.Death,
		int64(horse.OwnerID), horse.OwnerName, string(horse.ApprovalStatus), changes,
		horse.RegistrationDocument, horse.DNAKitDocument, horse.CreatedAt, horse.UpdatedAt,
	)
	return translateHorsePgErr("create horse", err)
}

func (s *PostgresStore) Update(ctx context.Context, horse *Horse) error {
	changes, err := marshalChanges(horse.PendingChanges)
	if err != nil {
		return err
	}
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE horses SET registration_num = $2, name = $3, sex = $4, color = $5,
			joint = $6, distance = $7, bred_by = $8, pedigree = $9, pts = $10,
			foal_date = $11, buy_date = $12, sold_date = $13, death = $14,
			owner_id = $15, owner_name = $16, approval_status = $17, pending_changes = $18,
			registration_document = $19, dna_kit_document = $20, updated_at = $21
		 WHERE id = $1`,
		horse.ID.String(), horse.RegistrationNum, horse.Name, horse.Sex, horse.Color,
		horse.Joint, horse.Distance, horse.BredBy, horse.Pedigree, horse.Points,
		horse.FoalDate, horse.BuyDate, horse.SoldDate, horse.Death,
		int64(horse.OwnerID), horse.OwnerName, string(horse.ApprovalStatus), changes,
		horse.RegistrationDocument, horse.DNAKitDocument, horse.UpdatedAt,
	)
	if err != nil {
		return translateHorsePgErr("update horse", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, horseID id.HorseID) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM horses WHERE id = $1`, horseID.String())
	if err != nil {
		return fmt.Errorf("delete horse: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountAndList(ctx context.Context, filter Filter, page pagination.Page) (int, []*Horse, error) {
	where, args := horseFilterClause(filter)

	var total int
	if err := s.q(ctx).QueryRow(ctx, `SELECT count(*) FROM horses`+where, args...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count horses: %w", err)
	}

	args = append(args, page.Size, page.Offset())
	rows, err := s.q(ctx).Query(ctx,
		`SELECT `+horseColumns+` FROM horses`+where+
			fmt.Sprintf(` ORDER BY registration_num LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return 0, nil, fmt.Errorf("list horses: %w", err)
	}
	defer rows.Close()

	var horses []*Horse
	for rows.Next() {
		h, err := scanHorse(rows)
		if err != nil {
			return 0, nil, err
		}
		horses = append(horses, h)
	}
	return total, horses, rows.Err()
}

func (s *PostgresStore) Execute(ctx context.Context, horseID id.HorseID,
	validate func(*Horse) error, mutate func(*Horse)) (*Horse, error) {
	var result *Horse
	run := func(txCtx context.Context) error {
		row := s.q(txCtx).QueryRow(txCtx,
			`SELECT `+horseColumns+` FROM horses WHERE id = $1 FOR UPDATE`, horseID.String())
		h, err := scanHorse(row)
		if err != nil {
			return err
		}
		if err := validate(h); err != nil {
			return err
		}
		mutate(h)
		if err := s.Update(txCtx, h); err != nil {
			return err
		}
		result = h
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

func horseFilterClause(filter Filter) (string, []any) {
	var clauses []string
	var args []any
	if filter.ApprovalStatus != nil {
		args = append(args, string(*filter.ApprovalStatus))
		clauses = append(clauses, fmt.Sprintf("approval_status = $%d", len(args)))
	}
	if filter.OwnerID != nil {
		args = append(args, int64(*filter.OwnerID))
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(lower(name) LIKE $%d OR lower(registration_num) LIKE $%d OR lower(owner_name) LIKE $%d)", n, n, n))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanHorse(row pgx.Row) (*Horse, error) {
	var h Horse
	var rawID string
	var ownerID int64
	var status string
	var foal, buy, sold, death *time.Time
	var changes []byte
	err := row.Scan(&rawID, &h.RegistrationNum, &h.Name, &h.Sex, &h.Color, &h.Joint,
		&h.Distance, &h.BredBy, &h.Pedigree, &h.Points,
		&foal, &buy, &sold, &death,
		&ownerID, &h.OwnerName, &status, &changes,
		&h.RegistrationDocument, &h.DNAKitDocument, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan horse: %w", err)
	}
	horseID, err := id.ParseHorseID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan horse: %w", err)
	}
	h.ID = horseID
	h.OwnerID = id.MemberID(ownerID)
	h.ApprovalStatus = ApprovalStatus(status)
	h.FoalDate, h.BuyDate, h.SoldDate, h.Death = foal, buy, sold, death
	pending, err := unmarshalChanges(changes)
	if err != nil {
		return nil, err
	}
	h.PendingChanges = pending
	return &h, nil
}

func marshalChanges(changes map[string]string) ([]byte, error) {
	if changes == nil {
		changes = map[string]string{}
	}
	b, err := json.Marshal(changes)
	if err != nil {
		return nil, fmt.Errorf("marshal pending changes: %w", err)
	}
	return b, nil
}

func unmarshalChanges(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var changes map[string]string
	if err := json.Unmarshal(raw, &changes); err != nil {
		return nil, fmt.Errorf("unmarshal pending changes: %w", err)
	}
	if len(changes) == 0 {
		return nil, nil
	}
	return changes, nil
}

func translateHorsePgErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return sentinel.ErrAlreadyUsed
	}
	return fmt.Errorf("%s: %w", op, err)
}
