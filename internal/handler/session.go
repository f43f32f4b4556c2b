// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package handler

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/internal/mail"
	"github.com/shopfront/shopfront/internal/shop"
)

// resetUnavailable is the client-visible text for every requestReset
// failure that concerns the address itself.
const resetUnavailable = "unable to start password reset for that address"

// Signup creates an account with the default permission set and starts a
// session for it.
func (h *Handler) Signup(ctx context.Context, caller *auth.Caller, email, password, name string) (*shop.User, error) {
	email, err := shop.ValidateEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := h.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("SIGNUP_FAILED").With("operation", "hash password").Wrap(err)
	}
	user, err := shop.NewUser(email, name, hash)
	if err != nil {
		return nil, err
	}
	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, shop.ErrEmailTaken) {
			return nil, oops.Code(auth.CodeValidation).
				With("email", user.Email).
				Errorf("an account with that email already exists")
		}
		return nil, oops.Code("SIGNUP_FAILED").With("operation", "create user").Wrap(err)
	}
	if err := h.startSession(caller, user); err != nil {
		return nil, err
	}
	h.logger.InfoContext(ctx, "user signed up", "user_id", user.ID.String())
	return user, nil
}

// Signin verifies a password and starts a session.
func (h *Handler) Signin(ctx context.Context, caller *auth.Caller, email, password string) (*shop.User, error) {
	email = shop.NormalizeEmail(email)
	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err, "SIGNIN_FAILED", "no such user found for email %s", email)
	}

	ok, err := h.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, oops.Code("SIGNIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	if !ok {
		h.logger.WarnContext(ctx, "signin rejected", "user_id", user.ID.String())
		return nil, oops.Code(auth.CodeInvalidCredentials).Errorf("invalid password")
	}

	if err := h.startSession(caller, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Signout clears the session artifact. Tokens are not revoked server side.
func (h *Handler) Signout(_ context.Context, caller *auth.Caller) Message {
	caller.ClearSession()
	return Message{Message: "Goodbye!"}
}

// RequestReset stores a fresh reset token for the account and e-mails the
// plaintext link. Unknown addresses and lookup failures produce the same
// client-visible error.
func (h *Handler) RequestReset(ctx context.Context, _ *auth.Caller, email string) (Message, error) {
	email = shop.NormalizeEmail(email)
	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, shop.ErrNotFound) {
			h.logger.ErrorContext(ctx, "reset lookup failed", "error", err)
		}
		return Message{}, oops.Code(auth.CodeNotFound).
			Public(resetUnavailable).
			Errorf("no such user found for email %s", email)
	}

	token, tokenHash, err := auth.GenerateResetToken()
	if err != nil {
		return Message{}, oops.Code("RESET_REQUEST_FAILED").With("operation", "generate token").Wrap(err)
	}
	expiry := auth.ResetTokenExpiry(h.now())
	if err := h.users.SetResetToken(ctx, user.ID, tokenHash, expiry); err != nil {
		return Message{}, oops.Code("RESET_REQUEST_FAILED").
			With("operation", "store token").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	body, err := mail.RenderReset(mail.ResetLink(h.frontendURL, token), expiry)
	if err != nil {
		return Message{}, err
	}
	if err := h.mailer.Send(ctx, user.Email, mail.ResetSubject, body); err != nil {
		return Message{}, oops.Code("MAIL_SEND_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	h.logger.InfoContext(ctx, "password reset requested", "user_id", user.ID.String())
	return Message{Message: "Thanks!"}, nil
}

// ResetPassword consumes a reset token, replaces the password and starts a
// session. A token is accepted while its expiry is no older than one hour.
func (h *Handler) ResetPassword(ctx context.Context, caller *auth.Caller, resetToken, password, confirmPassword string) (*shop.User, error) {
	if password != confirmPassword {
		return nil, oops.Code(auth.CodeValidation).Errorf("your passwords don't match")
	}
	if resetToken == "" {
		return nil, oops.Code(auth.CodeInvalidOrExpiredToken).Errorf("this token is either invalid or expired")
	}

	hash, err := h.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("RESET_PASSWORD_FAILED").With("operation", "hash password").Wrap(err)
	}

	cutoff := auth.ResetTokenCutoff(h.now())
	user, err := h.users.ConsumeResetToken(ctx, auth.HashResetToken(resetToken), cutoff, hash)
	if err != nil {
		if errors.Is(err, shop.ErrNotFound) {
			return nil, oops.Code(auth.CodeInvalidOrExpiredToken).Errorf("this token is either invalid or expired")
		}
		return nil, oops.Code("RESET_PASSWORD_FAILED").With("operation", "consume token").Wrap(err)
	}

	if err := h.startSession(caller, user); err != nil {
		return nil, err
	}
	h.logger.InfoContext(ctx, "password reset completed", "user_id", user.ID.String())
	return user, nil
}
