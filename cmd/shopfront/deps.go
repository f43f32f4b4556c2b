// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/shopfront/shopfront/internal/config"
	"github.com/shopfront/shopfront/internal/observability"
	"github.com/shopfront/shopfront/internal/shop"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// StoreOpener opens the configured store. The returned function
	// releases it.
	// Default: openStore
	StoreOpener func(ctx context.Context, cfg *config.Config) (shop.Store, func(), error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// ListenerFactory creates the API listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)

	// Logger receives process logs.
	// Default: logging.SetDefault with the configured format and level
	Logger *slog.Logger

	// OnReady is called with the bound API address once requests are
	// being served.
	OnReady func(addr string)
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// MigratorDeps contains injectable dependencies for the migrate command.
type MigratorDeps struct {
	// MigratorFactory opens a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)
}

// Migrator interface wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}
