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

const itemColumns = `id, title, description, image, large_image, price, owner_id, created_at, updated_at`

// ItemRepository implements shop.ItemRepository using PostgreSQL.
type ItemRepository struct {
	db Querier
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(db Querier) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create stores a new item.
func (r *ItemRepository) Create(ctx context.Context, item *shop.Item) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO items (id, title, description, image, large_image, price, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		item.ID.String(),
		item.Title,
		item.Description,
		item.Image,
		item.LargeImage,
		item.Price,
		item.OwnerID.String(),
		item.CreatedAt,
		item.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return oops.Code("ITEM_OWNER_NOT_FOUND").
			With("owner_id", item.OwnerID.String()).
			Wrap(shop.ErrNotFound)
	}
	if err != nil {
		return oops.Code("ITEM_CREATE_FAILED").
			With("operation", "insert item").
			With("item_id", item.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an item by ID.
func (r *ItemRepository) GetByID(ctx context.Context, id ulid.ULID) (*shop.Item, error) {
	row := r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id.String())
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ITEM_NOT_FOUND").With("item_id", id.String()).Wrap(shop.ErrNotFound)
	}
	return item, err
}

// Update applies the set fields of patch. Unset fields keep their values.
func (r *ItemRepository) Update(ctx context.Context, id ulid.ULID, patch shop.ItemPatch) (*shop.Item, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE items SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			image = COALESCE($4, image),
			large_image = COALESCE($5, large_image),
			price = COALESCE($6, price),
			updated_at = $7
		WHERE id = $1
		RETURNING `+itemColumns,
		id.String(),
		patch.Title,
		patch.Description,
		patch.Image,
		patch.LargeImage,
		patch.Price,
		time.Now(),
	)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ITEM_NOT_FOUND").With("item_id", id.String()).Wrap(shop.ErrNotFound)
	}
	return item, err
}

// Delete removes an item and returns it. Cart lines referencing the item are
// removed by the foreign key cascade.
func (r *ItemRepository) Delete(ctx context.Context, id ulid.ULID) (*shop.Item, error) {
	row := r.db.QueryRow(ctx, `DELETE FROM items WHERE id = $1 RETURNING `+itemColumns, id.String())
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ITEM_NOT_FOUND").With("item_id", id.String()).Wrap(shop.ErrNotFound)
	}
	return item, err
}

// scanItem scans a single row into an Item.
// Callers are responsible for handling pgx.ErrNoRows.
func scanItem(row pgx.Row) (*shop.Item, error) {
	var (
		idStr, ownerStr string
		item            shop.Item
	)
	err := row.Scan(&idStr, &item.Title, &item.Description, &item.Image, &item.LargeImage,
		&item.Price, &ownerStr, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ITEM_SCAN_FAILED").With("operation", "scan item").Wrap(err)
	}
	if item.ID, err = parseID("ITEM_INVALID_ID", "item_id", idStr); err != nil {
		return nil, err
	}
	if item.OwnerID, err = parseID("ITEM_INVALID_OWNER", "owner_id", ownerStr); err != nil {
		return nil, err
	}
	return &item, nil
}

// Compile-time interface check.
var _ shop.ItemRepository = (*ItemRepository)(nil)
