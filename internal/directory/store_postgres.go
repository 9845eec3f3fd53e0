package directory

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

const memberColumns = `id, prefix, first_name, middle_name, last_name, suffix,
	address, country, state, province, city, zip,
	home_phone, work_phone, mobile, email, password_hash,
	is_active, is_paid, birthday, role, pending_horses, created_at, updated_at`

// PostgresStore persists members in PostgreSQL. Queries run against the
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

func (s *PostgresStore) FindByID(ctx context.Context, memberID id.MemberID) (*Member, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, int64(memberID))
	return scanMember(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Member, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE lower(email) = lower($1)`, email)
	return scanMember(row)
}

func (s *PostgresStore) Exists(ctx context.Context, memberID id.MemberID) (bool, error) {
	var exists bool
	err := s.q(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM members WHERE id = $1)`, int64(memberID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("member exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Create(ctx context.Context, member *Member) error {
	pending, err := marshalPending(member.PendingHorses)
	if err != nil {
		return err
	}

	if member.ID == 0 {
		var allocated int64
		err = s.q(ctx).QueryRow(ctx,
			`INSERT INTO members (prefix, first_name, middle_name, last_name, suffix,
				address, country, state, province, city, zip,
				home_phone, work_phone, mobile, email, password_hash,
				is_active, is_paid, birthday, role, pending_horses, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
			 RETURNING id`,
			member.Prefix, member.FirstName, member.MiddleName, member.LastName, member.Suffix,
			member.Address, member.Country, member.State, member.Province, member.City, member.Zip,
			member.HomePhone, member.WorkPhone, member.Mobile, member.Email, member.PasswordHash,
			member.IsActive, member.IsPaid, member.Birthday, member.Role, pending,
			member.CreatedAt, member.UpdatedAt,
		).Scan(&allocated)
		if err != nil {
			return translatePgErr("create member", err)
		}
		member.ID = id.MemberID(allocated)
		return nil
	}

	_, err = s.q(ctx).Exec(ctx,
		`INSERT INTO members (id, prefix, first_name, middle_name, last_name, suffix,
			address, country, state, province, city, zip,
			home_phone, work_phone, mobile, email, password_hash,
			is_active, is_paid, birthday, role, pending_horses, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)`,
		int64(member.ID), member.Prefix, member.FirstName, member.MiddleName, member.LastName, member.Suffix,
		member.Address, member.Country, member.State, member.Province, member.City, member.Zip,
		member.HomePhone, member.WorkPhone, member.Mobile, member.Email, member.PasswordHash,
		member.IsActive, member.IsPaid, member.Birthday, member.Role, pending,
		member.CreatedAt, member.UpdatedAt,
	)
	return translatePgErr("create member", err)
}

func (s *PostgresStore) Update(ctx context.Context, member *Member) error {
	pending, err := marshalPending(member.PendingHorses)
	if err != nil {
		return err
	}
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE members SET prefix = $2, first_name = $3, middle_name = $4, last_name = $5, suffix = $6,
			address = $7, country = $8, state = $9, province = $10, city = $11, zip = $12,
			home_phone = $13, work_phone = $14, mobile = $15, email = $16, password_hash = $17,
			is_active = $18, is_paid = $19, birthday = $20, role = $21, pending_horses = $22, updated_at = $23
		 WHERE id = $1`,
		int64(member.ID), member.Prefix, member.FirstName, member.MiddleName, member.LastName, member.Suffix,
		member.Address, member.Country, member.State, member.Province, member.City, member.Zip,
		member.HomePhone, member.WorkPhone, member.Mobile, member.Email, member.PasswordHash,
		member.IsActive, member.IsPaid, member.Birthday, member.Role, pending, member.UpdatedAt,
	)
	if err != nil {
		return translatePgErr("update member", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, memberID id.MemberID) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM members WHERE id = $1`, int64(memberID))
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountAndList(ctx context.Context, filter Filter, page pagination.Page) (int, []*Member, error) {
	where, args := memberFilterClause(filter)

	var total int
	if err := s.q(ctx).QueryRow(ctx, `SELECT count(*) FROM members`+where, args...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count members: %w", err)
	}

	args = append(args, page.Size, page.Offset())
	rows, err := s.q(ctx).Query(ctx,
		`SELECT `+memberColumns+` FROM members`+where+
			fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return 0, nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return 0, nil, err
		}
		members = append(members, m)
	}
	return total, members, rows.Err()
}

func (s *PostgresStore) Execute(ctx context.Context, memberID id.MemberID,
	validate func(*Member) error, mutate func(*Member)) (*Member, error) {
	var result *Member
	run := func(txCtx context.Context) error {
		row := s.q(txCtx).QueryRow(txCtx,
			`SELECT `+memberColumns+` FROM members WHERE id = $1 FOR UPDATE`, int64(memberID))
		m, err := scanMember(row)
		if err != nil {
			return err
		}
		if err := validate(m); err != nil {
			return err
		}
		mutate(m)
		if err := s.Update(txCtx, m); err != nil {
			return err
		}
		result = m
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

func memberFilterClause(filter Filter) (string, []any) {
	var clauses []string
	var args []any
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(lower(first_name) LIKE $%d OR lower(last_name) LIKE $%d OR lower(email) LIKE $%d)", n, n, n))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	var memberID int64
	var birthday *time.Time
	var pending []byte
	err := row.Scan(&memberID, &m.Prefix, &m.FirstName, &m.MiddleName, &m.LastName, &m.Suffix,
		&m.Address, &m.Country, &m.State, &m.Province, &m.City, &m.Zip,
		&m.HomePhone, &m.WorkPhone, &m.Mobile, &m.Email, &m.PasswordHash,
		&m.IsActive, &m.IsPaid, &birthday, &m.Role, &pending, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan member: %w", err)
	}
	m.ID = id.MemberID(memberID)
	m.Birthday = birthday
	horses, err := unmarshalPending(pending)
	if err != nil {
		return nil, err
	}
	m.PendingHorses = horses
	return &m, nil
}

func marshalPending(horses []id.HorseID) ([]byte, error) {
	values := make([]string, 0, len(horses))
	for _, h := range horses {
		values = append(values, h.String())
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("marshal pending horses: %w", err)
	}
	return b, nil
}

func unmarshalPending(raw []byte) ([]id.HorseID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("unmarshal pending horses: %w", err)
	}
	var horses []id.HorseID
	for _, v := range values {
		h, err := id.ParseHorseID(v)
		if err != nil {
			return nil, fmt.Errorf("unmarshal pending horses: %w", err)
		}
		horses = append(horses, h)
	}
	return horses, nil
}

func translatePgErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return sentinel.ErrAlreadyUsed
	}
	return fmt.Errorf("%s: %w", op, err)
}
