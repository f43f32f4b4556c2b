// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/shopfront/internal/config"
	"github.com/shopfront/shopfront/internal/observability"
	"github.com/shopfront/shopfront/internal/shop"
	"github.com/shopfront/shopfront/internal/shop/memstore"
	"github.com/shopfront/shopfront/pkg/errutil"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.MetricsAddr = ""
	cfg.Store = config.StoreMemory
	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	return &cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockObservabilityServer records Start and Stop.
type mockObservabilityServer struct {
	startErr error
	started  bool
	stopped  bool
	metrics  *observability.Metrics
}

func (m *mockObservabilityServer) Start() (<-chan error, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	m.started = true
	return make(chan error), nil
}

func (m *mockObservabilityServer) Stop(context.Context) error {
	m.stopped = true
	return nil
}

func (m *mockObservabilityServer) Addr() string { return "127.0.0.1:9100" }

func (m *mockObservabilityServer) Metrics() *observability.Metrics { return m.metrics }

// startServe runs runServeWithDeps in the background and returns the bound
// address and a function that stops the server and returns its error.
func startServe(t *testing.T, cfg *config.Config, deps *ServeDeps) (string, func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	readyCh := make(chan string, 1)
	deps.Logger = discardLogger()
	deps.OnReady = func(addr string) { readyCh <- addr }

	cmd := &cobra.Command{}
	cmd.SetOut(new(bytes.Buffer))
	done := make(chan error, 1)
	go func() { done <- runServeWithDeps(ctx, cfg, cmd, deps) }()

	select {
	case addr := <-readyCh:
		return addr, func() error {
			cancel()
			return <-done
		}
	case err := <-done:
		cancel()
		t.Fatalf("server exited before ready: %v", err)
	case <-time.After(10 * time.Second):
		cancel()
		t.Fatal("server did not become ready")
	}
	return "", nil
}

func TestRunServe_ServesAndShutsDown(t *testing.T) {
	addr, stop := startServe(t, testConfig(), &ServeDeps{})

	resp, err := http.Get("http://" + addr + "/me")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "null", strings.TrimSpace(string(body)))
	assert.NoError(t, stop())
}

func TestRunServe_StartsAndStopsObservability(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsAddr = "127.0.0.1:0"
	obs := &mockObservabilityServer{}
	var gotReady observability.ReadinessChecker

	_, stop := startServe(t, cfg, &ServeDeps{
		ObservabilityServerFactory: func(_ string, ready observability.ReadinessChecker) ObservabilityServer {
			gotReady = ready
			return obs
		},
	})
	assert.True(t, gotReady(), "ready once the api listener is bound")
	require.NoError(t, stop())

	assert.True(t, obs.started)
	assert.True(t, obs.stopped)
	assert.False(t, gotReady())
}

func TestRunServe_StoreOpenFailure(t *testing.T) {
	deps := &ServeDeps{
		Logger: discardLogger(),
		StoreOpener: func(context.Context, *config.Config) (shop.Store, func(), error) {
			return shop.Store{}, nil, errors.New("connection refused")
		},
	}
	err := runServeWithDeps(context.Background(), testConfig(), &cobra.Command{}, deps)
	errutil.AssertErrorCode(t, err, "STORE_OPEN_FAILED")
}

func TestRunServe_ObservabilityStartFailure(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsAddr = "127.0.0.1:0"
	closed := false
	deps := &ServeDeps{
		Logger: discardLogger(),
		StoreOpener: func(context.Context, *config.Config) (shop.Store, func(), error) {
			return memstore.New(), func() { closed = true }, nil
		},
		ObservabilityServerFactory: func(string, observability.ReadinessChecker) ObservabilityServer {
			return &mockObservabilityServer{startErr: errors.New("address in use")}
		},
	}
	err := runServeWithDeps(context.Background(), cfg, &cobra.Command{}, deps)
	errutil.AssertErrorCode(t, err, "OBSERVABILITY_START_FAILED")
	assert.True(t, closed, "store is released on failure")
}

func TestRunServe_ListenFailure(t *testing.T) {
	deps := &ServeDeps{
		Logger: discardLogger(),
		ListenerFactory: func(string, string) (net.Listener, error) {
			return nil, errors.New("permission denied")
		},
	}
	err := runServeWithDeps(context.Background(), testConfig(), &cobra.Command{}, deps)
	errutil.AssertErrorCode(t, err, "HTTP_LISTEN_FAILED")
}

func TestNewMailer(t *testing.T) {
	cfg := testConfig()
	m, err := newMailer(cfg, discardLogger())
	require.NoError(t, err)
	assert.NotNil(t, m)

	cfg.Mail.Host = "smtp.example.com"
	m, err = newMailer(cfg, discardLogger())
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestOpenStore_Memory(t *testing.T) {
	s, closeFn, err := openStore(context.Background(), testConfig())
	require.NoError(t, err)
	defer closeFn()
	assert.NotNil(t, s.Users)
	assert.NotNil(t, s.Items)
	assert.NotNil(t, s.Cart)
}

func TestMonitorServerErrors_CancelsOnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	errCh <- errors.New("boom")

	monitorServerErrors(ctx, cancel, errCh, "test", discardLogger())
	assert.Error(t, ctx.Err())
}

func TestMonitorServerErrors_ClosedChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error)
	close(errCh)

	monitorServerErrors(ctx, cancel, errCh, "test", discardLogger())
	assert.NoError(t, ctx.Err())
}
