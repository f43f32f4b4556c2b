// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package handler

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/internal/shop"
)

// CreateItem stores a new item owned by the caller.
func (h *Handler) CreateItem(ctx context.Context, caller *auth.Caller, fields shop.ItemFields) (*shop.Item, error) {
	if err := caller.RequireAuthenticated(); err != nil {
		return nil, err
	}
	item, err := shop.NewItem(caller.UserID, fields)
	if err != nil {
		return nil, err
	}
	if err := h.items.Create(ctx, item); err != nil {
		return nil, oops.Code("ITEM_CREATE_FAILED").With("user_id", caller.UserID.String()).Wrap(err)
	}
	return item, nil
}

// UpdateItem applies patch to an item the caller owns, or to any item when
// the caller holds ADMIN or ITEMUPDATE.
func (h *Handler) UpdateItem(ctx context.Context, caller *auth.Caller, id ulid.ULID, patch shop.ItemPatch) (*shop.Item, error) {
	if err := caller.RequireAuthenticated(); err != nil {
		return nil, err
	}
	item, err := h.items.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "ITEM_UPDATE_FAILED", "no item found with id %s", id)
	}
	if err := auth.AuthorizeOwner(caller.UserID, item.OwnerID, caller.Permissions,
		auth.PermissionAdmin, auth.PermissionItemUpdate); err != nil {
		h.denied(caller, "updateItem", id.String())
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return item, nil
	}

	updated, err := h.items.Update(ctx, id, patch)
	if err != nil {
		return nil, notFound(err, "ITEM_UPDATE_FAILED", "no item found with id %s", id)
	}
	return updated, nil
}

// DeleteItem removes an item the caller owns, or any item when the caller
// holds ADMIN or ITEMDELETE. The deleted item is returned.
func (h *Handler) DeleteItem(ctx context.Context, caller *auth.Caller, id ulid.ULID) (*shop.Item, error) {
	if err := caller.RequireAuthenticated(); err != nil {
		return nil, err
	}
	item, err := h.items.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "ITEM_DELETE_FAILED", "no item found with id %s", id)
	}
	if err := auth.AuthorizeOwner(caller.UserID, item.OwnerID, caller.Permissions,
		auth.PermissionAdmin, auth.PermissionItemDelete); err != nil {
		h.denied(caller, "deleteItem", id.String())
		return nil, err
	}

	deleted, err := h.items.Delete(ctx, id)
	if err != nil {
		return nil, notFound(err, "ITEM_DELETE_FAILED", "no item found with id %s", id)
	}
	return deleted, nil
}

// UpdatePermissions replaces the permission set of a user. The caller must
// hold ADMIN or PERMISSIONUPDATE.
func (h *Handler) UpdatePermissions(ctx context.Context, caller *auth.Caller, userID ulid.ULID, perms []auth.Permission) (*shop.User, error) {
	if err := caller.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if err := auth.Authorize(caller.Permissions, auth.PermissionAdmin, auth.PermissionPermissionUpdate); err != nil {
		h.denied(caller, "updatePermissions", userID.String())
		return nil, err
	}
	for _, p := range perms {
		if !p.Valid() {
			return nil, oops.Code(auth.CodeValidation).
				With("permission", string(p)).
				Errorf("unknown permission %q", string(p))
		}
	}

	user, err := h.users.UpdatePermissions(ctx, userID, auth.NewPermissions(perms...))
	if err != nil {
		return nil, notFound(err, "PERMISSIONS_UPDATE_FAILED", "no user found with id %s", userID)
	}
	h.logger.InfoContext(ctx, "permissions updated",
		"user_id", caller.UserID.String(),
		"target", userID.String(),
		"permissions", user.Permissions.Strings())
	return user, nil
}

// AddToCart puts one unit of an item in the caller's cart, incrementing the
// existing line if there is one.
func (h *Handler) AddToCart(ctx context.Context, caller *auth.Caller, itemID ulid.ULID) (*shop.CartItem, error) {
	if err := caller.RequireAuthenticated(); err != nil {
		return nil, err
	}
	line, err := h.cart.Upsert(ctx, caller.UserID, itemID)
	if err != nil {
		return nil, notFound(err, "CART_ADD_FAILED", "no item found with id %s", itemID)
	}
	return line, nil
}

// RemoveFromCart deletes a cart line belonging to the caller.
func (h *Handler) RemoveFromCart(ctx context.Context, caller *auth.Caller, cartItemID ulid.ULID) (*shop.CartItem, error) {
	if err := caller.RequireAuthenticated(); err != nil {
		return nil, err
	}
	line, err := h.cart.GetByID(ctx, cartItemID)
	if err != nil {
		return nil, notFound(err, "CART_REMOVE_FAILED", "no cart item found with id %s", cartItemID)
	}
	if line.UserID != caller.UserID {
		h.denied(caller, "removeFromCart", cartItemID.String())
		return nil, auth.Forbidden()
	}

	deleted, err := h.cart.Delete(ctx, cartItemID)
	if err != nil {
		return nil, notFound(err, "CART_REMOVE_FAILED", "no cart item found with id %s", cartItemID)
	}
	return deleted, nil
}
