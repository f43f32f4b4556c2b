// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package handler

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/internal/shop"
)

// Me returns the caller's account, or nil for anonymous callers and
// accounts that no longer exist.
func (h *Handler) Me(ctx context.Context, caller *auth.Caller) (*shop.User, error) {
	if !caller.IsAuthenticated() {
		return nil, nil
	}
	user, err := h.users.GetByID(ctx, caller.UserID)
	if errors.Is(err, shop.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("ME_FAILED").With("user_id", caller.UserID.String()).Wrap(err)
	}
	return user, nil
}

// Users lists every account. The caller must hold ADMIN or
// PERMISSIONUPDATE.
func (h *Handler) Users(ctx context.Context, caller *auth.Caller) ([]*shop.User, error) {
	if err := caller.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller.Permissions, auth.PermissionAdmin, auth.PermissionPermissionUpdate); err != nil {
		h.denied(caller, "users", "")
		return nil, err
	}
	users, err := h.users.List(ctx)
	if err != nil {
		return nil, oops.Code("USERS_FAILED").Wrap(err)
	}
	return users, nil
}
