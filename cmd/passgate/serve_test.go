// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passgate/passgate/internal/auth"
	"github.com/passgate/passgate/internal/auth/memory"
	"github.com/passgate/passgate/internal/auth/mocks"
	"github.com/passgate/passgate/internal/config"
	"github.com/passgate/passgate/internal/httpapi"
	"github.com/passgate/passgate/internal/mail"
	"github.com/passgate/passgate/internal/observability"
	"github.com/passgate/passgate/pkg/errutil"
)

type mockServer struct {
	startFunc func() (<-chan error, error)
	stopFunc  func(ctx context.Context) error
	stopped   bool
}

func (m *mockServer) Start() (<-chan error, error) {
	if m.startFunc != nil {
		return m.startFunc()
	}
	return make(chan error, 1), nil
}

func (m *mockServer) Stop(ctx context.Context) error {
	m.stopped = true
	if m.stopFunc != nil {
		return m.stopFunc(ctx)
	}
	return nil
}

func (m *mockServer) Addr() string { return "127.0.0.1:5000" }

type mockObservabilityServer struct {
	mockServer
	checker observability.ReadinessChecker
}

func (m *mockObservabilityServer) Metrics() *observability.Metrics { return nil }

// announcingServer reports its bound address once Start succeeds.
type announcingServer struct {
	Server
	started chan string
}

func (s *announcingServer) Start() (<-chan error, error) {
	ch, err := s.Server.Start()
	if err == nil {
		s.started <- s.Server.Addr()
	}
	return ch, err
}

func testServeConfig() config.Config {
	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.BcryptCost = 4
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.HTTP.Mode = "test"
	cfg.HTTP.ShutdownTimeout = 2 * time.Second
	cfg.Metrics.Addr = ""
	cfg.Log.Level = "error"
	return cfg
}

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(new(bytes.Buffer))
	return cmd
}

func testServeDeps(t *testing.T, cfg config.Config) *ServeDeps {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return &ServeDeps{
		ConfigLoader: func(string, *pflag.FlagSet) (config.Config, error) { return cfg, nil },
		TracingSetup: func(context.Context, observability.TracingConfig) (observability.ShutdownFunc, error) {
			return func(context.Context) error { return nil }, nil
		},
		BackendOpener: func(context.Context, config.StoreConfig, *slog.Logger) (*AccountBackend, error) {
			return &AccountBackend{Store: memory.NewAccountStore(), Ping: noopHook, Close: noopHook}, nil
		},
		MailFactory: func(mail.Config, *slog.Logger) (auth.MailTransport, error) {
			return mocks.NewMockMailTransport(t), nil
		},
		APIServerFactory: func(httpapi.ServerConfig, http.Handler, *slog.Logger) Server {
			return &mockServer{}
		},
	}
}

func runServeAsync(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- runServeWithDeps(ctx, cmd, deps) }()
	return errCh
}

func waitServe(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("runServeWithDeps() did not return within timeout")
		return nil
	}
}

func TestRunServeWithDeps_ServesUntilCancelled(t *testing.T) {
	deps := testServeDeps(t, testServeConfig())
	started := make(chan string, 1)
	deps.APIServerFactory = func(cfg httpapi.ServerConfig, handler http.Handler, logger *slog.Logger) Server {
		return &announcingServer{Server: httpapi.NewServer(cfg, handler, logger), started: started}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd := newTestCmd()
	errCh := runServeAsync(ctx, cmd, deps)

	var addr string
	select {
	case addr = <-started:
	case err := <-errCh:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("api server did not start")
	}

	body := `{"name":"Ada","email":"ada@example.com","password":"Passw0rd!"}`
	resp, err := http.Post("http://"+addr+"/api/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, waitServe(t, errCh))
	assert.Contains(t, cmd.OutOrStdout().(*bytes.Buffer).String(), "Passgate listening on")
}

func TestRunServeWithDeps_ConfigErrors(t *testing.T) {
	t.Run("loader error", func(t *testing.T) {
		deps := testServeDeps(t, testServeConfig())
		deps.ConfigLoader = func(string, *pflag.FlagSet) (config.Config, error) {
			return config.Config{}, errors.New("unreadable")
		}
		err := runServeWithDeps(context.Background(), newTestCmd(), deps)
		assert.ErrorContains(t, err, "unreadable")
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := testServeConfig()
		cfg.Auth.JWTSecret = ""
		err := runServeWithDeps(context.Background(), newTestCmd(), testServeDeps(t, cfg))
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		errutil.AssertErrorContext(t, err, "key", "auth.jwt_secret")
	})

	t.Run("bad log format", func(t *testing.T) {
		cfg := testServeConfig()
		cfg.Log.Format = "xml"
		err := runServeWithDeps(context.Background(), newTestCmd(), testServeDeps(t, cfg))
		errutil.AssertErrorCode(t, err, "LOG_INVALID_FORMAT")
	})
}

func TestRunServeWithDeps_DependencyErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		mutate func(*ServeDeps)
	}{
		{"tracing", func(d *ServeDeps) {
			d.TracingSetup = func(context.Context, observability.TracingConfig) (observability.ShutdownFunc, error) {
				return nil, boom
			}
		}},
		{"backend", func(d *ServeDeps) {
			d.BackendOpener = func(context.Context, config.StoreConfig, *slog.Logger) (*AccountBackend, error) {
				return nil, boom
			}
		}},
		{"mail", func(d *ServeDeps) {
			d.MailFactory = func(mail.Config, *slog.Logger) (auth.MailTransport, error) { return nil, boom }
		}},
		{"api start", func(d *ServeDeps) {
			d.APIServerFactory = func(httpapi.ServerConfig, http.Handler, *slog.Logger) Server {
				return &mockServer{startFunc: func() (<-chan error, error) { return nil, boom }}
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := testServeDeps(t, testServeConfig())
			tt.mutate(deps)
			err := runServeWithDeps(context.Background(), newTestCmd(), deps)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestRunServeWithDeps_ClosesBackendOnExit(t *testing.T) {
	closed := make(chan struct{})
	deps := testServeDeps(t, testServeConfig())
	deps.BackendOpener = func(context.Context, config.StoreConfig, *slog.Logger) (*AccountBackend, error) {
		return &AccountBackend{
			Store: memory.NewAccountStore(),
			Ping:  noopHook,
			Close: func(context.Context) error {
				close(closed)
				return nil
			},
		}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, runServeWithDeps(ctx, newTestCmd(), deps))

	select {
	case <-closed:
	default:
		t.Fatal("backend was not closed")
	}
}

func TestRunServeWithDeps_ServerFailureStopsService(t *testing.T) {
	apiErrCh := make(chan error, 1)
	api := &mockServer{startFunc: func() (<-chan error, error) { return apiErrCh, nil }}
	obs := &mockObservabilityServer{}

	cfg := testServeConfig()
	cfg.Metrics.Addr = "127.0.0.1:0"
	deps := testServeDeps(t, cfg)
	deps.APIServerFactory = func(httpapi.ServerConfig, http.Handler, *slog.Logger) Server { return api }
	deps.ObservabilityServerFactory = func(_ string, checker observability.ReadinessChecker, _ *slog.Logger) ObservabilityServer {
		obs.checker = checker
		return obs
	}

	errCh := runServeAsync(context.Background(), newTestCmd(), deps)
	apiErrCh <- errors.New("accept failed")

	err := waitServe(t, errCh)
	errutil.AssertErrorCode(t, err, "SERVER_FAILED")
	errutil.AssertErrorContext(t, err, "server", "api")
	assert.True(t, api.stopped)
	assert.True(t, obs.stopped)
	require.NotNil(t, obs.checker)
	assert.NoError(t, obs.checker(context.Background()))
}

func TestRunServeWithDeps_ObservabilityStartFailure(t *testing.T) {
	cfg := testServeConfig()
	cfg.Metrics.Addr = "127.0.0.1:0"
	deps := testServeDeps(t, cfg)
	deps.ObservabilityServerFactory = func(string, observability.ReadinessChecker, *slog.Logger) ObservabilityServer {
		return &mockObservabilityServer{mockServer: mockServer{
			startFunc: func() (<-chan error, error) { return nil, errors.New("address in use") },
		}}
	}

	err := runServeWithDeps(context.Background(), newTestCmd(), deps)
	errutil.AssertErrorContext(t, err, "operation", "start observability server")
}

func TestServeFlags_MatchConfigKeys(t *testing.T) {
	cmd := NewServeCmd()
	for name := range config.FlagKeys {
		assert.NotNil(t, cmd.Flags().Lookup(name), "config.FlagKeys names unknown flag --%s", name)
	}
}

func TestOpenBackend(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("memory", func(t *testing.T) {
		backend, err := openBackend(context.Background(), config.StoreConfig{Driver: config.DriverMemory}, logger)
		require.NoError(t, err)
		assert.IsType(t, &memory.AccountStore{}, backend.Store)
		assert.NoError(t, backend.Ping(context.Background()))
		assert.NoError(t, backend.Close(context.Background()))
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := openBackend(context.Background(), config.StoreConfig{Driver: "sqlite"}, logger)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})
}

type fakeAutoMigrator struct {
	upErr, closeErr      error
	upCalled, closeCalled bool
}

func (m *fakeAutoMigrator) Up() error {
	m.upCalled = true
	return m.upErr
}

func (m *fakeAutoMigrator) Close() error {
	m.closeCalled = true
	return m.closeErr
}

func TestRunAutoMigration(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("applies and closes", func(t *testing.T) {
		m := &fakeAutoMigrator{}
		err := runAutoMigration("postgres://localhost/passgate", logger, func(string) (AutoMigrator, error) { return m, nil })
		require.NoError(t, err)
		assert.True(t, m.upCalled)
		assert.True(t, m.closeCalled)
	})

	t.Run("up failure still closes", func(t *testing.T) {
		m := &fakeAutoMigrator{upErr: errors.New("dirty")}
		err := runAutoMigration("postgres://localhost/passgate", logger, func(string) (AutoMigrator, error) { return m, nil })
		errutil.AssertErrorCode(t, err, "AUTO_MIGRATION_FAILED")
		errutil.AssertErrorContext(t, err, "operation", "apply migrations")
		assert.True(t, m.closeCalled)
	})

	t.Run("factory failure", func(t *testing.T) {
		err := runAutoMigration("postgres://localhost/passgate", logger, func(string) (AutoMigrator, error) {
			return nil, errors.New("bad url")
		})
		errutil.AssertErrorCode(t, err, "AUTO_MIGRATION_FAILED")
		errutil.AssertErrorContext(t, err, "operation", "create migrator")
	})
}
