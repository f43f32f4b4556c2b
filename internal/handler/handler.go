// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

// Package handler implements the shop mutations and queries. Every operation
// receives the caller explicitly and decides authorization before touching
// the store.
package handler

import (
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/internal/mail"
	"github.com/shopfront/shopfront/internal/observability"
	"github.com/shopfront/shopfront/internal/shop"
)

// TokenSigner mints session tokens. *auth.TokenIssuer implements it.
type TokenSigner interface {
	Sign(userID ulid.ULID) (string, error)
}

// Message is the result of operations that return only a status line.
type Message struct {
	Message string `json:"message"`
}

// Handler carries the collaborators shared by all operations. It holds no
// per-request state and is safe for concurrent use.
type Handler struct {
	users       shop.UserRepository
	items       shop.ItemRepository
	cart        shop.CartRepository
	hasher      auth.PasswordHasher
	tokens      TokenSigner
	mailer      mail.Mailer
	frontendURL string
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for security events.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithClock sets the time source used for reset token expiry.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// New creates a Handler. frontendURL is the base of links sent by e-mail.
func New(store shop.Store, hasher auth.PasswordHasher, tokens TokenSigner, mailer mail.Mailer, frontendURL string, opts ...Option) (*Handler, error) {
	switch {
	case store.Users == nil:
		return nil, oops.Code("HANDLER_INVALID_CONFIG").Errorf("user repository is required")
	case store.Items == nil:
		return nil, oops.Code("HANDLER_INVALID_CONFIG").Errorf("item repository is required")
	case store.Cart == nil:
		return nil, oops.Code("HANDLER_INVALID_CONFIG").Errorf("cart repository is required")
	case hasher == nil:
		return nil, oops.Code("HANDLER_INVALID_CONFIG").Errorf("password hasher is required")
	case tokens == nil:
		return nil, oops.Code("HANDLER_INVALID_CONFIG").Errorf("token signer is required")
	case mailer == nil:
		return nil, oops.Code("HANDLER_INVALID_CONFIG").Errorf("mailer is required")
	}
	if u, err := url.Parse(frontendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, oops.Code("HANDLER_INVALID_CONFIG").
			With("frontend_url", frontendURL).
			Errorf("frontend url must be absolute")
	}

	h := &Handler{
		users:       store.Users,
		items:       store.Items,
		cart:        store.Cart,
		hasher:      hasher,
		tokens:      tokens,
		mailer:      mailer,
		frontendURL: frontendURL,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// notFound translates a repository miss into the NOT_FOUND kind. Other
// errors are wrapped with code so they surface as internal failures.
func notFound(err error, code, format string, args ...any) error {
	if errors.Is(err, shop.ErrNotFound) {
		return oops.Code(auth.CodeNotFound).Errorf(format, args...)
	}
	return oops.Code(code).Wrap(err)
}

// startSession signs a token for user and hands it to the caller's
// artifact sink.
func (h *Handler) startSession(caller *auth.Caller, user *shop.User) error {
	token, err := h.tokens.Sign(user.ID)
	if err != nil {
		return oops.Code("SESSION_ISSUE_FAILED").With("user_id", user.ID.String()).Wrap(err)
	}
	caller.DeliverSession(token)
	return nil
}

func (h *Handler) denied(caller *auth.Caller, operation, target string) {
	observability.RecordAuthorizationDenied(operation)
	h.logger.Warn("authorization denied",
		"operation", operation,
		"user_id", caller.UserID.String(),
		"target", target)
}
