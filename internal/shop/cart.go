// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package shop

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// CartItem is a line in a user's cart. There is at most one CartItem per
// (UserID, ItemID) pair and Quantity is always positive.
type CartItem struct {
	ID        ulid.ULID `json:"id"`
	UserID    ulid.ULID `json:"userId"`
	ItemID    ulid.ULID `json:"itemId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CartRepository manages cart persistence.
type CartRepository interface {
	// Upsert atomically adds one unit of itemID to userID's cart: it
	// creates the line with quantity 1, or increments an existing line by
	// exactly 1. Returns ErrNotFound if the item does not exist.
	Upsert(ctx context.Context, userID, itemID ulid.ULID) (*CartItem, error)

	// GetByID retrieves a cart line by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*CartItem, error)

	// ListByUser returns a user's cart lines, oldest first.
	ListByUser(ctx context.Context, userID ulid.ULID) ([]*CartItem, error)

	// Delete removes a cart line and returns it as it was.
	Delete(ctx context.Context, id ulid.ULID) (*CartItem, error)
}

// Store bundles the repositories backing one storage engine.
type Store struct {
	Users UserRepository
	Items ItemRepository
	Cart  CartRepository
}
