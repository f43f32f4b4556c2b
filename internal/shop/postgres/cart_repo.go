// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/shopfront/shopfront/internal/shop"
)

const cartColumns = `id, user_id, item_id, quantity, created_at, updated_at`

// CartRepository implements shop.CartRepository using PostgreSQL.
type CartRepository struct {
	db Querier
}

// NewCartRepository creates a new CartRepository.
func NewCartRepository(db Querier) *CartRepository {
	return &CartRepository{db: db}
}

// Upsert inserts a cart line with quantity 1 or increments the existing line
// for the same (user, item) pair. The unique index on (user_id, item_id)
// keeps concurrent adds on one line.
func (r *CartRepository) Upsert(ctx context.Context, userID, itemID ulid.ULID) (*shop.CartItem, error) {
	now := time.Now()
	row := r.db.QueryRow(ctx, `
		INSERT INTO cart_items (id, user_id, item_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $4)
		ON CONFLICT (user_id, item_id)
		DO UPDATE SET quantity = cart_items.quantity + 1, updated_at = EXCLUDED.updated_at
		RETURNING `+cartColumns,
		ulid.Make().String(), userID.String(), itemID.String(), now)
	line, err := scanCartItem(row)
	if isForeignKeyViolation(err) {
		return nil, oops.Code("CART_ITEM_NOT_FOUND").
			With("user_id", userID.String()).
			With("item_id", itemID.String()).
			Wrap(shop.ErrNotFound)
	}
	return line, err
}

// GetByID retrieves a cart line by ID.
func (r *CartRepository) GetByID(ctx context.Context, id ulid.ULID) (*shop.CartItem, error) {
	row := r.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM cart_items WHERE id = $1`, id.String())
	line, err := scanCartItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CART_ITEM_NOT_FOUND").With("cart_item_id", id.String()).Wrap(shop.ErrNotFound)
	}
	return line, err
}

// ListByUser returns the cart lines of a user ordered by creation time.
func (r *CartRepository) ListByUser(ctx context.Context, userID ulid.ULID) ([]*shop.CartItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+cartColumns+` FROM cart_items WHERE user_id = $1 ORDER BY created_at, id`,
		userID.String())
	if err != nil {
		return nil, oops.Code("CART_LIST_FAILED").
			With("operation", "query cart").
			With("user_id", userID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var lines []*shop.CartItem
	for rows.Next() {
		line, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CART_LIST_FAILED").With("operation", "iterate cart").Wrap(err)
	}
	return lines, nil
}

// Delete removes a cart line and returns it.
func (r *CartRepository) Delete(ctx context.Context, id ulid.ULID) (*shop.CartItem, error) {
	row := r.db.QueryRow(ctx, `DELETE FROM cart_items WHERE id = $1 RETURNING `+cartColumns, id.String())
	line, err := scanCartItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CART_ITEM_NOT_FOUND").With("cart_item_id", id.String()).Wrap(shop.ErrNotFound)
	}
	return line, err
}

// scanCartItem scans a single row into a CartItem.
// Callers are responsible for handling pgx.ErrNoRows.
func scanCartItem(row pgx.Row) (*shop.CartItem, error) {
	var (
		idStr, userStr, itemStr string
		line                    shop.CartItem
	)
	err := row.Scan(&idStr, &userStr, &itemStr, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isForeignKeyViolation(err) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("CART_SCAN_FAILED").With("operation", "scan cart item").Wrap(err)
	}
	if line.ID, err = parseID("CART_INVALID_ID", "cart_item_id", idStr); err != nil {
		return nil, err
	}
	if line.UserID, err = parseID("CART_INVALID_USER", "user_id", userStr); err != nil {
		return nil, err
	}
	if line.ItemID, err = parseID("CART_INVALID_ITEM", "item_id", itemStr); err != nil {
		return nil, err
	}
	return &line, nil
}

// Compile-time interface check.
var _ shop.CartRepository = (*CartRepository)(nil)
