// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package shop

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/shopfront/shopfront/internal/auth"
)

// MaxPrice is the largest price, in cents, the items table can hold.
const MaxPrice = math.MaxInt32

// Item is a product listed for sale. OwnerID is the creating user and
// never changes.
type Item struct {
	ID          ulid.ULID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	LargeImage  string    `json:"largeImage,omitempty"`
	Price       int       `json:"price"`
	OwnerID     ulid.ULID `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ItemFields are the caller-supplied attributes of a new item.
type ItemFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	LargeImage  string `json:"largeImage"`
	Price       int    `json:"price"`
}

// ItemPatch is a partial update. Nil fields are left unchanged. The item id
// is addressed separately and is never part of a patch.
type ItemPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
	LargeImage  *string `json:"largeImage,omitempty"`
	Price       *int    `json:"price,omitempty"`
}

// NewItem creates a validated Item owned by ownerID.
func NewItem(ownerID ulid.ULID, f ItemFields) (*Item, error) {
	if ownerID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("ITEM_INVALID_OWNER").Errorf("owner ID cannot be zero")
	}
	if err := validateTitle(f.Title); err != nil {
		return nil, err
	}
	if err := validatePrice(f.Price); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Item{
		ID:          ulid.Make(),
		Title:       f.Title,
		Description: f.Description,
		Image:       f.Image,
		LargeImage:  f.LargeImage,
		Price:       f.Price,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Validate checks the fields a patch would set.
func (p ItemPatch) Validate() error {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Price != nil {
		return validatePrice(*p.Price)
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Image == nil && p.LargeImage == nil && p.Price == nil
}

// Apply writes the non-nil fields of p onto item.
func (p ItemPatch) Apply(item *Item) {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Image != nil {
		item.Image = *p.Image
	}
	if p.LargeImage != nil {
		item.LargeImage = *p.LargeImage
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return oops.Code(auth.CodeValidation).Errorf("item title cannot be empty")
	}
	return nil
}

func validatePrice(price int) error {
	if price < 0 {
		return oops.Code(auth.CodeValidation).
			With("price", price).
			Errorf("item price cannot be negative")
	}
	if price > MaxPrice {
		return oops.Code(auth.CodeValidation).
			With("price", price).
			Errorf("item price cannot exceed %d", MaxPrice)
	}
	return nil
}

// ItemRepository manages item persistence.
type ItemRepository interface {
	// Create stores a new item.
	Create(ctx context.Context, item *Item) error

	// GetByID retrieves an item by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Item, error)

	// Update applies a patch and returns the updated item.
	Update(ctx context.Context, id ulid.ULID, patch ItemPatch) (*Item, error)

	// Delete removes an item and returns it as it was before deletion.
	Delete(ctx context.Context, id ulid.ULID) (*Item, error)
}
