// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/internal/config"
	"github.com/shopfront/shopfront/internal/handler"
	"github.com/shopfront/shopfront/internal/logging"
	"github.com/shopfront/shopfront/internal/mail"
	"github.com/shopfront/shopfront/internal/observability"
	"github.com/shopfront/shopfront/internal/shop"
	"github.com/shopfront/shopfront/internal/shop/memstore"
	shoppg "github.com/shopfront/shopfront/internal/shop/postgres"
	"github.com/shopfront/shopfront/internal/store"
	"github.com/shopfront/shopfront/internal/web"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server. Settings come from built-in defaults, an
optional YAML file (--config), command-line flags and SHOPFRONT_*
environment variables, in increasing order of precedence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServeWithDeps(ctx, cfg, cmd, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServeWithDeps serves until ctx is cancelled or a server fails.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.StoreOpener == nil {
		deps.StoreOpener = openStore
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, ready)
		}
	}
	if deps.ListenerFactory == nil {
		deps.ListenerFactory = net.Listen
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.SetDefault(logging.Options{
			Service: "shopfront",
			Version: version,
			Format:  cfg.LogFormat,
			Level:   cfg.LogLevel,
		})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shopStore, closeStore, err := deps.StoreOpener(ctx, cfg)
	if err != nil {
		return oops.Code("STORE_OPEN_FAILED").With("store", cfg.Store).Wrap(err)
	}
	defer closeStore()

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.SessionTTL)
	if err != nil {
		return err
	}
	h, err := handler.New(shopStore, auth.NewArgon2idHasher(), tokens, mailer, cfg.FrontendURL,
		handler.WithLogger(logger))
	if err != nil {
		return err
	}

	var ready atomic.Bool
	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, ready.Load)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
		metrics = obsServer.Metrics()
	}
	defer func() {
		if obsServer == nil {
			return
		}
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		if err := obsServer.Stop(stopCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}()

	api, err := web.NewServer(h, tokens, shopStore.Users,
		web.WithMetrics(metrics),
		web.WithLogger(logger),
		web.WithSecureCookies(strings.HasPrefix(cfg.FrontendURL, "https://")))
	if err != nil {
		return err
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTPAddr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}
	httpServer := &http.Server{
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
		close(errChan)
	}()

	ready.Store(true)
	addr := listener.Addr().String()
	logger.Info("api server listening", "addr", addr, "store", cfg.Store)
	cmd.Println("Shopfront started on " + addr)
	if deps.OnReady != nil {
		deps.OnReady(addr)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err, ok := <-errChan:
		if ok {
			serveErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	}
	ready.Store(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	logger.Info("shutdown complete")
	return serveErr
}

// openStore opens the configured storage backend.
func openStore(ctx context.Context, cfg *config.Config) (shop.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		return memstore.New(), func() {}, nil
	}
	pool, err := store.Connect(ctx, cfg.DatabaseURL, store.DefaultConnectOptions)
	if err != nil {
		return shop.Store{}, nil, err
	}
	return shoppg.NewStore(pool), pool.Close, nil
}

// newMailer returns the SMTP mailer, or the logging mailer when no mail host
// is configured.
func newMailer(cfg *config.Config, logger *slog.Logger) (mail.Mailer, error) {
	if cfg.Mail.Host == "" {
		logger.Warn("no mail host configured, reset e-mails will be logged")
		return mail.NewLogMailer(logger), nil
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when the channel is closed or ctx is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
