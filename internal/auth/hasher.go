// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package auth

import (
	"context"
	"errors"
	"runtime"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultBcryptCost is the work factor used for new password hashes.
const DefaultBcryptCost = 10

// maxBcryptPasswordBytes is bcrypt's input limit.
const maxBcryptPasswordBytes = 72

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way digest of the password.
	Hash(ctx context.Context, password string) (string, error)

	// Verify checks if the password matches the digest.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid digest.
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// BcryptHasher implements PasswordHasher using bcrypt.
// Concurrent hashing is bounded so a burst of logins cannot monopolize the CPU.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// BcryptOption configures a BcryptHasher.
type BcryptOption func(*BcryptHasher)

// WithCost overrides the bcrypt work factor. Values outside bcrypt's range
// are clamped by bcrypt itself.
func WithCost(cost int) BcryptOption {
	return func(h *BcryptHasher) {
		h.cost = cost
	}
}

// WithMaxConcurrent bounds how many hash operations run at once.
// Non-positive values fall back to GOMAXPROCS.
func WithMaxConcurrent(n int) BcryptOption {
	return func(h *BcryptHasher) {
		if n > 0 {
			h.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewBcryptHasher creates a new BcryptHasher with cost DefaultBcryptCost.
func NewBcryptHasher(opts ...BcryptOption) *BcryptHasher {
	h := &BcryptHasher{
		cost: DefaultBcryptCost,
		sem:  semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash produces a bcrypt digest of the password with a fresh salt.
func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxBcryptPasswordBytes {
		return "", oops.Code("AUTH_PASSWORD_TOO_LONG").
			With("max_bytes", maxBcryptPasswordBytes).
			Public(MsgPasswordTooLong).
			Wrap(ErrValidation)
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", oops.Code("AUTH_HASH_CANCELLED").Wrap(err)
	}
	defer h.sem.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").With("cost", h.cost).Wrap(err)
	}
	return string(digest), nil
}

// Verify checks the password against a bcrypt digest in constant time.
// Passwords over bcrypt's input limit never match; bcrypt would compare only
// their first 72 bytes.
func (h *BcryptHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if len(password) > maxBcryptPasswordBytes {
		return false, nil
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, oops.Code("AUTH_HASH_CANCELLED").Wrap(err)
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
}

// Compile-time interface check.
var _ PasswordHasher = (*BcryptHasher)(nil)
