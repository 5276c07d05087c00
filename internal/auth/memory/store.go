// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

// Package memory provides an in-process AccountStore for tests and
// single-node development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/passgate/passgate/internal/auth"
)

// AccountStore keeps accounts in maps guarded by an RWMutex.
// Returned accounts are copies.
type AccountStore struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*auth.Account
	byEmail map[string]ulid.ULID
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		byID:    make(map[ulid.ULID]*auth.Account),
		byEmail: make(map[string]ulid.ULID),
	}
}

// FindByEmail retrieves an account by normalized email.
func (s *AccountStore) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
	}
	return clone(s.byID[id]), nil
}

// FindByID retrieves an account by ID.
func (s *AccountStore) FindByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return clone(a), nil
}

// Create stores a new account. The email index is checked under the write
// lock, so concurrent registrations of one email admit exactly one.
func (s *AccountStore) Create(_ context.Context, account *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[account.Email]; taken {
		return oops.Code("ACCOUNT_DUPLICATE_EMAIL").With("email", account.Email).Wrap(auth.ErrDuplicateEmail)
	}
	if _, taken := s.byID[account.ID]; taken {
		return oops.Code("ACCOUNT_DUPLICATE_ID").With("id", account.ID.String()).Errorf("account id already exists")
	}

	s.byID[account.ID] = clone(account)
	s.byEmail[account.Email] = account.ID
	return nil
}

// UpdatePasswordHash replaces the hash of an existing account.
func (s *AccountStore) UpdatePasswordHash(_ context.Context, id ulid.ULID, passwordHash string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = updatedAt
	return nil
}

// Len returns the number of stored accounts.
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func clone(a *auth.Account) *auth.Account {
	c := *a
	return &c
}

var _ auth.AccountStore = (*AccountStore)(nil)
