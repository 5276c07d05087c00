// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Account is a registered account holder.
type Account struct {
	ID           ulid.ULID
	DisplayName  string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount creates an Account with a fresh ID. The email is normalized.
func NewAccount(displayName, email, passwordHash string, now time.Time) (*Account, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, oops.Code("ACCOUNT_INVALID_NAME").Errorf("display name cannot be empty")
	}
	email = NormalizeEmail(email)
	if !ValidateEmailSyntax(email) {
		return nil, oops.Code("ACCOUNT_INVALID_EMAIL").With("email", email).Errorf("invalid email")
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now = now.UTC()
	return &Account{
		ID:           ulid.Make(),
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Summary returns the public projection of the account.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:    a.ID.String(),
		Name:  a.DisplayName,
		Email: a.Email,
	}
}

// Profile returns the summary plus timestamps.
func (a *Account) Profile() Profile {
	return Profile{
		AccountSummary: a.Summary(),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountSummary is what login and profile lookups return. It never carries
// the password hash.
type AccountSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile is an AccountSummary with timestamps.
type Profile struct {
	AccountSummary
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AccountStore persists accounts.
//
// Implementations return errors wrapping ErrNotFound for missing accounts and
// ErrDuplicateEmail when the email uniqueness constraint rejects a write.
// Emails passed in are already normalized.
type AccountStore interface {
	// FindByEmail retrieves an account by normalized email.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindByID retrieves an account by ID.
	FindByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// Create persists a new account.
	Create(ctx context.Context, account *Account) error

	// UpdatePasswordHash replaces the stored hash and bumps UpdatedAt.
	UpdatePasswordHash(ctx context.Context, id ulid.ULID, passwordHash string, updatedAt time.Time) error
}
