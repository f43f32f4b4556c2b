// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

// Package web exposes the shop handlers as JSON over HTTP. The session token
// travels in the token cookie; every request resolves it to a caller before
// the handler runs.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/internal/handler"
	"github.com/shopfront/shopfront/internal/observability"
	"github.com/shopfront/shopfront/internal/shop"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// TokenVerifier checks a session token. *auth.TokenIssuer implements it.
type TokenVerifier interface {
	Verify(token string) (ulid.ULID, error)
}

// Server routes HTTP requests to a handler.Handler.
type Server struct {
	h       *handler.Handler
	tokens  TokenVerifier
	users   shop.UserRepository
	metrics *observability.Metrics
	logger  *slog.Logger
	secure  bool
	router  *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records every operation on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSecureCookies marks session cookies Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) { s.secure = secure }
}

// NewServer creates a Server. users loads the permissions of the caller named
// by a verified token.
func NewServer(h *handler.Handler, tokens TokenVerifier, users shop.UserRepository, opts ...Option) (*Server, error) {
	switch {
	case h == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("handler is required")
	case tokens == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("token verifier is required")
	case users == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("user repository is required")
	}

	s := &Server{h: h, tokens: tokens, users: users, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.resolveCaller)

	r.HandleFunc("/signup", s.handle("signup", s.signup)).Methods(http.MethodPost)
	r.HandleFunc("/signin", s.handle("signin", s.signin)).Methods(http.MethodPost)
	r.HandleFunc("/signout", s.handle("signout", s.signout)).Methods(http.MethodPost)
	r.HandleFunc("/request-reset", s.handle("requestReset", s.requestReset)).Methods(http.MethodPost)
	r.HandleFunc("/reset-password", s.handle("resetPassword", s.resetPassword)).Methods(http.MethodPost)

	r.HandleFunc("/items", s.handle("createItem", s.createItem)).Methods(http.MethodPost)
	r.HandleFunc("/items/{id}", s.handle("updateItem", s.updateItem)).Methods(http.MethodPatch)
	r.HandleFunc("/items/{id}", s.handle("deleteItem", s.deleteItem)).Methods(http.MethodDelete)
	r.HandleFunc("/users/{id}/permissions", s.handle("updatePermissions", s.updatePermissions)).Methods(http.MethodPut)
	r.HandleFunc("/cart", s.handle("addToCart", s.addToCart)).Methods(http.MethodPost)
	r.HandleFunc("/cart/{id}", s.handle("removeFromCart", s.removeFromCart)).Methods(http.MethodDelete)

	r.HandleFunc("/me", s.handle("me", s.me)).Methods(http.MethodGet)
	r.HandleFunc("/users", s.handle("users", s.listUsers)).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorBody{Code: auth.CodeNotFound, Message: "no such route"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorBody{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})
	return r
}

type callerKey struct{}

// resolveCaller turns the token cookie into an *auth.Caller on the request
// context. A missing, invalid or expired token, or a token for a deleted
// account, yields an anonymous caller.
func (s *Server) resolveCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		artifacts := cookieArtifacts{w: w, secure: s.secure}
		caller := auth.Anonymous(artifacts)

		if cookie, err := r.Cookie(auth.SessionArtifact); err == nil && cookie.Value != "" {
			resolved, err := s.lookupCaller(r.Context(), cookie.Value, artifacts)
			if err != nil {
				s.writeError(w, r, "resolveCaller", err)
				return
			}
			if resolved != nil {
				caller = resolved
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}

func (s *Server) lookupCaller(ctx context.Context, token string, artifacts auth.Artifacts) (*auth.Caller, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.DebugContext(ctx, "ignoring session token", "reason", auth.ErrorCode(err))
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, shop.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("CALLER_RESOLVE_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	return auth.Authenticated(user.ID, user.Permissions, artifacts), nil
}

func callerFrom(ctx context.Context) *auth.Caller {
	if c, ok := ctx.Value(callerKey{}).(*auth.Caller); ok {
		return c
	}
	return auth.Anonymous(nil)
}

// operation is one routed call. It returns the JSON response payload.
type operation func(r *http.Request, caller *auth.Caller) (any, error)

func (s *Server) handle(name string, op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		result, err := op(r, callerFrom(r.Context()))
		outcome := ""
		if err != nil {
			outcome = s.writeError(w, r, name, err)
		} else {
			writeJSON(w, http.StatusOK, result)
		}
		s.metrics.Observe(name, outcome, time.Since(start))
	}
}

// decode reads a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return oops.Code(auth.CodeValidation).Errorf("invalid request body: %s", err.Error())
	}
	return nil
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (ulid.ULID, error) {
	raw := mux.Vars(r)["id"]
	id, err := ulid.Parse(raw)
	if err != nil {
		return ulid.ULID{}, oops.Code(auth.CodeValidation).With("id", raw).Errorf("invalid id %q", raw)
	}
	return id, nil
}
