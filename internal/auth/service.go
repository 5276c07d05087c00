// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/passgate/passgate/internal/observability"
)

var tracer = otel.Tracer("passgate/auth")

// DefaultResetURL is the page reset links point at when none is configured.
const DefaultResetURL = "http://localhost:3000/reset-password"

// dummyPasswordHash is verified against when an email is unknown so login
// latency does not reveal whether an account exists. It matches no password
// a caller can submit through Login.
//
//nolint:gosec // G101: fixed bcrypt digest used only for timing equalization.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// RegisterRequest is the input to Register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // G117: request field, never serialized back
}

// LoginRequest is the input to Login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // G117: request field, never serialized back
}

// LoginResult is returned by Login.
type LoginResult struct {
	Token string         `json:"token"`
	User  AccountSummary `json:"user"`
}

// ForgotPasswordRequest is the input to ForgotPassword.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the input to ResetPassword.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// Service implements registration, login and the password reset flow.
// It is the only component that reads or writes accounts and sends mail.
type Service struct {
	accounts AccountStore
	hasher   PasswordHasher
	tokens   *TokenService
	mail     MailTransport
	clock    Clock
	logger   *slog.Logger
	resetURL string
	mailFrom string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResetURL sets the page reset links point at.
func WithResetURL(url string) ServiceOption {
	return func(s *Service) {
		if url != "" {
			s.resetURL = url
		}
	}
}

// WithMailFrom sets the sender address of reset messages.
func WithMailFrom(from string) ServiceOption {
	return func(s *Service) {
		s.mailFrom = from
	}
}

// WithClock sets the clock used for account timestamps.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService creates a Service. All collaborators are required.
func NewService(accounts AccountStore, hasher PasswordHasher, tokens *TokenService, mail MailTransport, opts ...ServiceOption) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("account store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("token service is required")
	}
	if mail == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("mail transport is required")
	}

	s := &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		mail:     mail,
		clock:    SystemClock,
		logger:   slog.Default(),
		resetURL: DefaultResetURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates an account and returns its summary.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (_ AccountSummary, err error) {
	ctx, span := tracer.Start(ctx, "auth.register")
	defer func() { finish(span, "register", err) }()

	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return AccountSummary{}, validationError("AUTH_FIELDS_REQUIRED", MsgFieldsRequired)
	}
	if !ValidateEmailSyntax(email) {
		return AccountSummary{}, validationError("AUTH_INVALID_EMAIL", MsgInvalidEmail)
	}
	if !ValidatePasswordStrength(req.Password) {
		return AccountSummary{}, validationError("AUTH_WEAK_PASSWORD", MsgWeakPassword)
	}

	_, err = s.accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return AccountSummary{}, conflictError(email)
	case !errors.Is(err, ErrNotFound):
		return AccountSummary{}, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "find account by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return AccountSummary{}, err
		}
		return AccountSummary{}, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(name, email, hash, s.clock.Now())
	if err != nil {
		return AccountSummary{}, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "new account").
			Wrap(err)
	}

	if err = s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return AccountSummary{}, conflictError(email)
		}
		return AccountSummary{}, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			Wrap(err)
	}

	span.SetAttributes(attribute.String("account.id", account.ID.String()))
	s.logger.InfoContext(ctx, "account registered", "account_id", account.ID.String())
	return account.Summary(), nil
}

// Login verifies credentials and issues a session token.
// Unknown emails and wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, req LoginRequest) (_ *LoginResult, err error) {
	ctx, span := tracer.Start(ctx, "auth.login")
	defer func() { finish(span, "login", err) }()

	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, validationError("AUTH_FIELDS_REQUIRED", MsgFieldsRequired)
	}
	if !ValidateEmailSyntax(email) {
		return nil, validationError("AUTH_INVALID_EMAIL", MsgInvalidEmail)
	}

	account, lookupErr := s.accounts.FindByEmail(ctx, email)

	var targetHash string
	exists := true
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "find account by email").
				Wrap(lookupErr)
		}
		targetHash = dummyPasswordHash
		exists = false
	} else {
		targetHash = account.PasswordHash
	}

	// Verify runs for unknown emails too.
	valid, verifyErr := s.hasher.Verify(ctx, req.Password, targetHash)
	if verifyErr != nil {
		if !exists {
			return nil, invalidCredentials()
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("account_id", account.ID.String()).
			Wrap(verifyErr)
	}
	if !exists || !valid {
		return nil, invalidCredentials()
	}

	token, err := s.tokens.IssueSession(account.ID)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue session token").
			Wrap(err)
	}

	span.SetAttributes(attribute.String("account.id", account.ID.String()))
	s.logger.DebugContext(ctx, "session issued", "account_id", account.ID.String())
	return &LoginResult{Token: token, User: account.Summary()}, nil
}

// ForgotPassword issues a reset token and mails the reset link to the
// account holder. It returns once the transport has accepted the message.
func (s *Service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (err error) {
	ctx, span := tracer.Start(ctx, "auth.forgot_password")
	defer func() { finish(span, "forgot_password", err) }()

	email := NormalizeEmail(req.Email)
	if email == "" {
		return validationError("AUTH_FIELDS_REQUIRED", MsgFieldsRequired)
	}
	if !ValidateEmailSyntax(email) {
		return validationError("AUTH_INVALID_EMAIL", MsgInvalidEmail)
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("ACCOUNT_NOT_FOUND").Public(MsgUserNotFound).Wrap(err)
		}
		return oops.Code("AUTH_FORGOT_PASSWORD_FAILED").
			With("operation", "find account by email").
			Wrap(err)
	}

	token, err := s.tokens.IssueReset(account.ID)
	if err != nil {
		return oops.Code("AUTH_FORGOT_PASSWORD_FAILED").
			With("operation", "issue reset token").
			Wrap(err)
	}

	msg, err := NewResetMessage(s.mailFrom, account.Email, s.resetURL, token)
	if err != nil {
		return oops.Code("AUTH_FORGOT_PASSWORD_FAILED").
			With("operation", "render reset message").
			Wrap(err)
	}

	if err = s.mail.Send(ctx, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("account_id", account.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "reset link sent", "account_id", account.ID.String())
	return nil
}

// ResetPassword replaces the password of the account named by a reset token.
// The new password is checked before the token.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) (err error) {
	ctx, span := tracer.Start(ctx, "auth.reset_password")
	defer func() { finish(span, "reset_password", err) }()

	if !ValidatePasswordStrength(req.NewPassword) {
		return validationError("AUTH_WEAK_PASSWORD", MsgWeakPassword)
	}

	accountID, err := s.tokens.Verify(req.Token, PurposeReset)
	if err != nil {
		return invalidToken(err)
	}

	hash, err := s.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return err
		}
		return oops.Code("AUTH_RESET_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err = s.accounts.UpdatePasswordHash(ctx, accountID, hash, s.clock.Now().UTC()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidToken(err)
		}
		return oops.Code("AUTH_RESET_PASSWORD_FAILED").
			With("operation", "update password hash").
			With("account_id", accountID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset", "account_id", accountID.String())
	return nil
}

// Authenticate resolves a session token to the account ID it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (_ ulid.ULID, err error) {
	_, span := tracer.Start(ctx, "auth.authenticate")
	defer func() { finish(span, "authenticate", err) }()

	if token == "" {
		return ulid.ULID{}, oops.Code("AUTH_NO_TOKEN").Public(MsgNoToken).Wrap(ErrUnauthorized)
	}

	id, err := s.tokens.Verify(token, PurposeSession)
	if err != nil {
		return ulid.ULID{}, invalidToken(err)
	}
	return id, nil
}

// GetProfile returns the profile of an account.
func (s *Service) GetProfile(ctx context.Context, id ulid.ULID) (_ Profile, err error) {
	ctx, span := tracer.Start(ctx, "auth.get_profile",
		trace.WithAttributes(attribute.String("account.id", id.String())),
	)
	defer func() { finish(span, "get_profile", err) }()

	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Profile{}, oops.Code("ACCOUNT_NOT_FOUND").
				With("account_id", id.String()).
				Public(MsgUserNotFound).
				Wrap(err)
		}
		return Profile{}, oops.Code("AUTH_PROFILE_FAILED").
			With("account_id", id.String()).
			Wrap(err)
	}
	return account.Profile(), nil
}

func conflictError(email string) error {
	return oops.Code("AUTH_USER_EXISTS").
		With("email", email).
		Public(MsgUserExists).
		Wrap(ErrConflict)
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").
		Public(MsgInvalidCredentials).
		Wrap(ErrInvalidCredentials)
}

// invalidToken keeps cause in the chain so errors.Is still sees ErrExpired
// and friends.
func invalidToken(cause error) error {
	return oops.Code("AUTH_INVALID_TOKEN").
		Public(MsgInvalidToken).
		Wrap(fmt.Errorf("%w: %w", ErrInvalidOrExpiredToken, cause))
}

func finish(span trace.Span, op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.SetAttributes(attribute.String("auth.outcome", outcome))
	observability.RecordAuthOperation(op, outcome)
	span.End()
}
