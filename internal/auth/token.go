// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Purpose tags a token with the operation it may be used for.
type Purpose string

// Token purposes.
const (
	PurposeSession Purpose = "session"
	PurposeReset   Purpose = "reset"
)

// Token lifetimes.
const (
	SessionTTL = time.Hour
	ResetTTL   = 15 * time.Minute
)

// Token verification failures, in the order Verify checks them.
var (
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrWrongPurpose     = errors.New("token purpose mismatch")
	ErrMalformedClaims  = errors.New("token claims malformed")
)

// ErrEmptySecret is returned by NewTokenService when no signing secret is given.
var ErrEmptySecret = oops.Code("TOKEN_EMPTY_SECRET").Errorf("signing secret cannot be empty")

// Claims is the JWT payload minted by TokenService.
type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 tokens tagged with a purpose.
type TokenService struct {
	secret []byte
	clock  Clock
	parser *jwt.Parser
}

// NewTokenService creates a TokenService. A nil clock uses SystemClock.
func NewTokenService(secret []byte, clock Clock) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if clock == nil {
		clock = SystemClock
	}

	s := &TokenService{
		secret: append([]byte(nil), secret...),
		clock:  clock,
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(clock.Now),
	)
	return s, nil
}

// Issue mints a token for accountID that expires ttl from now.
func (s *TokenService) Issue(accountID ulid.ULID, purpose Purpose, ttl time.Duration) (string, error) {
	now := s.clock.Now().Truncate(time.Second)
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        ulid.Make().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("purpose", string(purpose)).Wrap(err)
	}
	return signed, nil
}

// IssueSession mints a session token valid for SessionTTL.
func (s *TokenService) IssueSession(accountID ulid.ULID) (string, error) {
	return s.Issue(accountID, PurposeSession, SessionTTL)
}

// IssueReset mints a reset token valid for ResetTTL.
func (s *TokenService) IssueReset(accountID ulid.ULID) (string, error) {
	return s.Issue(accountID, PurposeReset, ResetTTL)
}

// Verify checks signature, expiry and purpose, then returns the subject.
// The returned error wraps one of ErrInvalidSignature, ErrExpired,
// ErrWrongPurpose or ErrMalformedClaims.
func (s *TokenService) Verify(token string, expected Purpose) (ulid.ULID, error) {
	var claims Claims
	_, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ulid.ULID{}, oops.Code("TOKEN_EXPIRED").With("purpose", string(expected)).Wrap(ErrExpired)
		case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
			return ulid.ULID{}, oops.Code("TOKEN_MALFORMED_CLAIMS").
				With("purpose", string(expected)).
				With("reason", err.Error()).
				Wrap(ErrMalformedClaims)
		}
		return ulid.ULID{}, oops.Code("TOKEN_INVALID").
			With("purpose", string(expected)).
			With("reason", err.Error()).
			Wrap(ErrInvalidSignature)
	}

	if claims.Purpose != expected {
		return ulid.ULID{}, oops.Code("TOKEN_WRONG_PURPOSE").
			With("expected", string(expected)).
			With("actual", string(claims.Purpose)).
			Wrap(ErrWrongPurpose)
	}

	id, err := ulid.ParseStrict(claims.Subject)
	if err != nil {
		return ulid.ULID{}, oops.Code("TOKEN_MALFORMED_CLAIMS").With("purpose", string(expected)).Wrap(ErrMalformedClaims)
	}
	return id, nil
}
