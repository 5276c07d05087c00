// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

// Package postgres implements auth.AccountStore on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/passgate/passgate/internal/auth"
)

// emailConstraint is the unique constraint on accounts.email.
const emailConstraint = "accounts_email_key"

// pool is the subset of *pgxpool.Pool the repository uses.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements auth.AccountStore using PostgreSQL.
type AccountRepository struct {
	pool pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const selectAccount = `
	SELECT id, display_name, email, password_hash, created_at, updated_at
	FROM accounts
`

// FindByEmail retrieves an account by normalized email.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, selectAccount+`WHERE email = $1`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// FindByID retrieves an account by ID.
func (r *AccountRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, selectAccount+`WHERE id = $1`, id.String())

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// Create inserts a new account. A unique violation on email is reported as
// auth.ErrDuplicateEmail.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, display_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		account.ID.String(),
		account.DisplayName,
		account.Email,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == emailConstraint {
			return oops.Code("ACCOUNT_DUPLICATE_EMAIL").
				With("email", account.Email).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("id", account.ID.String()).
			Wrap(err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash and updated_at.
func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id ulid.ULID, passwordHash string, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), passwordHash, updatedAt)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_PASSWORD_FAILED").
			With("operation", "update password hash").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		a     auth.Account
		idStr string
	)
	if err := row.Scan(&idStr, &a.DisplayName, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	a.ID = id
	return &a, nil
}

var _ auth.AccountStore = (*AccountRepository)(nil)
