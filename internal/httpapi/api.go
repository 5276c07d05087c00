// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/passgate/passgate/internal/auth"
	"github.com/passgate/passgate/internal/observability"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes int64 = 1 << 20

// AuthService is the subset of *auth.Service the API drives.
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (auth.AccountSummary, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error)
	ForgotPassword(ctx context.Context, req auth.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req auth.ResetPasswordRequest) error
	Authenticate(ctx context.Context, token string) (ulid.ULID, error)
	GetProfile(ctx context.Context, id ulid.ULID) (auth.Profile, error)
}

// API holds the handlers and their dependencies.
type API struct {
	auth         AuthService
	logger       *slog.Logger
	metrics      *observability.Metrics
	maxBodyBytes int64
	engine       *gin.Engine
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the access and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics records request counts and latency into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *API) { a.metrics = m }
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

// New builds the API and its gin engine.
func New(svc AuthService, opts ...Option) (*API, error) {
	if svc == nil {
		return nil, oops.Code("HTTP_INVALID_CONFIG").Errorf("auth service is required")
	}

	a := &API{
		auth:         svc,
		logger:       slog.Default(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.engine = a.routes()
	return a, nil
}

func (a *API) routes() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(a.recovery(), a.accessLog(), a.recordMetrics(), a.limitBody())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, messageResponse{Message: MsgRouteNotFound})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, messageResponse{Message: http.StatusText(http.StatusMethodNotAllowed)})
	})

	api := r.Group("/api")
	{
		api.POST("/register", a.register)
		api.POST("/login", a.login)
		api.POST("/forgot-password", a.forgotPassword)
		api.POST("/reset-password", a.resetPassword)

		profile := api.Group("/profile", a.requireSession())
		profile.GET("", a.profile)
		profile.GET("/name", a.profileName)
		profile.GET("/email", a.profileEmail)
	}
	return r
}

// Handler returns the engine wrapped with OpenTelemetry server spans.
func (a *API) Handler() http.Handler {
	return otelhttp.NewHandler(a.engine, "passgate.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
