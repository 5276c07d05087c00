// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestServer_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	srv := NewServer(ServerConfig{Addr: "127.0.0.1:0"}, handler, slog.New(slog.NewTextHandler(io.Discard, nil)))

	errCh, err := srv.Start()
	require.NoError(t, err)
	require.NotEmpty(t, srv.Addr())

	_, err = srv.Start()
	require.Error(t, err, "second start must fail")

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "ok", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, srv.Stop(ctx), "stop is idempotent")

	select {
	case err, ok := <-errCh:
		assert.False(t, ok && err != nil, "unexpected serve error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("error channel not closed after stop")
	}
}

func TestNewServer_Defaults(t *testing.T) {
	srv := NewServer(ServerConfig{Addr: ":0"}, http.NotFoundHandler(), nil)
	assert.Equal(t, DefaultReadTimeout, srv.cfg.ReadTimeout)
	assert.Equal(t, DefaultWriteTimeout, srv.cfg.WriteTimeout)
	assert.Equal(t, DefaultIdleTimeout, srv.cfg.IdleTimeout)
}

func TestServer_ListenFailure(t *testing.T) {
	srv := NewServer(ServerConfig{Addr: "256.0.0.1:bad"}, http.NotFoundHandler(), nil)
	_, err := srv.Start()
	require.Error(t, err)

	ctx := context.Background()
	assert.NoError(t, srv.Stop(ctx))
}
