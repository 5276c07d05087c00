// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// Store-level sentinels. AccountStore implementations wrap these.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when the store's uniqueness constraint
	// on email rejects a write.
	ErrDuplicateEmail = errors.New("duplicate email")
)

// Flow-level sentinels. Every error returned by Service wraps exactly one of
// these or is a server error.
var (
	ErrValidation            = errors.New("validation failed")
	ErrConflict              = errors.New("conflict")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUnauthorized          = errors.New("unauthorized")
)

// Public messages shown to API callers.
const (
	MsgFieldsRequired     = "All fields are required"
	MsgInvalidEmail       = "Invalid email format"
	MsgWeakPassword       = "Password must be at least 6 characters and include an uppercase letter, a lowercase letter, a number, and one of @$!%*?&"
	MsgPasswordTooLong    = "Password must be at most 72 bytes"
	MsgUserExists         = "User already exists"
	MsgInvalidCredentials = "Invalid credentials"
	MsgUserNotFound       = "User not found"
	MsgInvalidToken       = "Invalid token"
	MsgNoToken            = "Access Denied. No token provided."
	MsgServerError        = "Server error"
)

// Kind classifies an error for the caller-facing boundary.
type Kind int

// Error kinds.
const (
	KindServer Kind = iota
	KindValidation
	KindConflict
	KindInvalidCredentials
	KindNotFound
	KindInvalidOrExpiredToken
	KindUnauthorized
)

// String returns a lower-case label suitable for metrics.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindNotFound:
		return "not_found"
	case KindInvalidOrExpiredToken:
		return "invalid_token"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "server"
	}
}

// KindOf returns the Kind of err. Errors that wrap none of the flow
// sentinels are KindServer. Token failures take precedence over ErrNotFound
// so a reset for a vanished account reads as an invalid token.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindServer
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return KindInvalidOrExpiredToken
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindServer
	}
}

// PublicMessage returns the message that is safe to show the caller.
// Server errors never expose their details.
func PublicMessage(err error) string {
	if KindOf(err) == KindServer {
		return MsgServerError
	}
	return oops.GetPublic(err, MsgServerError)
}

// validationError builds an ErrValidation with a public message.
func validationError(code, public string) error {
	return oops.Code(code).Public(public).Wrap(ErrValidation)
}
