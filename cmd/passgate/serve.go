// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/passgate/passgate/internal/auth"
	"github.com/passgate/passgate/internal/config"
	"github.com/passgate/passgate/internal/httpapi"
	"github.com/passgate/passgate/internal/logging"
	"github.com/passgate/passgate/internal/observability"
)

const serviceName = "passgate"

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the registration, login and password reset API. Settings come
from defaults, then --config, then environment variables, then flags.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServeWithDeps(ctx, cmd, nil)
		},
	}

	def := config.Default()
	flags := cmd.Flags()
	flags.String("addr", def.HTTP.Addr, "API listen address")
	flags.String("metrics-addr", def.Metrics.Addr, "metrics and health listen address (empty disables)")
	flags.String("log-level", def.Log.Level, "log level (debug, info, warn, error)")
	flags.String("log-format", def.Log.Format, "log format (json or text)")
	flags.String("store", def.Store.Driver, "account store (memory, postgres, mongo)")
	flags.String("mail", def.Mail.Provider, "mail provider (log, smtp, mailgun, sendgrid)")

	return cmd
}

// runServeWithDeps runs the service until ctx is cancelled or a listener fails.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) (err error) {
	deps = deps.withDefaults()

	path, err := config.ResolvePath(configFile)
	if err != nil {
		return err
	}
	cfg, err := deps.ConfigLoader(path, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	})
	if err != nil {
		return err
	}

	shutdownTracing, err := deps.TracingSetup(ctx, observability.TracingConfig{
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
		ServiceName:    serviceName,
		ServiceVersion: version,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if shutdownErr := shutdownTracing(flushCtx); shutdownErr != nil {
			logger.Warn("error flushing traces", "error", shutdownErr)
		}
	}()

	backend, err := deps.BackendOpener(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if closeErr := backend.Close(closeCtx); closeErr != nil {
			logger.Warn("error closing account store", "error", closeErr)
		}
	}()

	svc, err := buildService(cfg, backend, deps, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	failures := make(chan error, 2)

	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, backend.Ping, logger)
		obsErrCh, startErr := obsServer.Start()
		if startErr != nil {
			return oops.With("operation", "start observability server").Wrap(startErr)
		}
		go forwardServerErrors(ctx, obsErrCh, "observability", failures)
		metrics = obsServer.Metrics()
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	gin.SetMode(cfg.HTTP.Mode)
	api, err := httpapi.New(svc,
		httpapi.WithLogger(logger),
		httpapi.WithMetrics(metrics),
		httpapi.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
	)
	if err != nil {
		stopServers(ctx, cfg.HTTP.ShutdownTimeout, logger, obsServer)
		return err
	}

	apiServer := deps.APIServerFactory(httpapi.ServerConfig{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}, api.Handler(), logger)
	apiErrCh, err := apiServer.Start()
	if err != nil {
		stopServers(ctx, cfg.HTTP.ShutdownTimeout, logger, obsServer)
		return oops.With("operation", "start api server").Wrap(err)
	}
	go forwardServerErrors(ctx, apiErrCh, "api", failures)

	cmd.Println("Passgate listening on", apiServer.Addr())
	logger.Info("passgate ready",
		"addr", apiServer.Addr(),
		"store", cfg.Store.Driver,
		"mail", cfg.Mail.Provider,
	)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr := <-failures:
		err = oops.Code("SERVER_FAILED").Wrap(serveErr)
	}

	stopServers(ctx, cfg.HTTP.ShutdownTimeout, logger, apiServer, obsServer)
	logger.Info("shutdown complete")
	return err
}

// buildService assembles the auth flow from config and the opened backend.
func buildService(cfg config.Config, backend *AccountBackend, deps *ServeDeps, logger *slog.Logger) (*auth.Service, error) {
	transport, err := deps.MailFactory(cfg.Mail, logger)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), nil)
	if err != nil {
		return nil, err
	}

	hasher := auth.NewBcryptHasher(
		auth.WithCost(cfg.Auth.BcryptCost),
		auth.WithMaxConcurrent(cfg.Auth.MaxConcurrentHashes),
	)

	return auth.NewService(backend.Store, hasher, tokens, transport,
		auth.WithLogger(logger),
		auth.WithResetURL(cfg.Auth.ResetURL),
		auth.WithMailFrom(cfg.Mail.From),
	)
}

// stopServers stops each non-nil server in order within the shutdown timeout.
func stopServers(ctx context.Context, timeout time.Duration, logger *slog.Logger, servers ...Server) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	for _, s := range servers {
		if s == nil {
			continue
		}
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping server", "addr", s.Addr(), "error", err)
		}
	}
}

// forwardServerErrors reports the first serve error from errCh on failures.
// It exits when the channel closes or ctx is cancelled.
func forwardServerErrors(ctx context.Context, errCh <-chan error, name string, failures chan<- error) {
	select {
	case err, ok := <-errCh:
		if !ok || err == nil {
			return
		}
		slog.Error("server error, triggering shutdown", "server", name, "error", err)
		select {
		case failures <- oops.With("server", name).Wrap(err):
		default:
		}
	case <-ctx.Done():
	}
}
