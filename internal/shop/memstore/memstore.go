// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

// Package memstore provides in-memory implementations of the shop
// repositories, for local development and tests.
//
// All repositories of one Store share a single mutex, so the compound
// operations (cart upsert, reset token consumption) are atomic exactly as
// they are in the Postgres implementation.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/internal/shop"
)

type state struct {
	mu    sync.Mutex
	users map[ulid.ULID]*shop.User
	items map[ulid.ULID]*shop.Item
	cart  map[ulid.ULID]*shop.CartItem
	now   func() time.Time
}

// New returns a Store whose repositories share one in-memory state.
func New() shop.Store {
	s := &state{
		users: make(map[ulid.ULID]*shop.User),
		items: make(map[ulid.ULID]*shop.Item),
		cart:  make(map[ulid.ULID]*shop.CartItem),
		now:   time.Now,
	}
	return shop.Store{
		Users: &UserRepository{s: s},
		Items: &ItemRepository{s: s},
		Cart:  &CartRepository{s: s},
	}
}

// UserRepository implements shop.UserRepository in memory.
type UserRepository struct{ s *state }

// ItemRepository implements shop.ItemRepository in memory.
type ItemRepository struct{ s *state }

// CartRepository implements shop.CartRepository in memory.
type CartRepository struct{ s *state }

// Create stores a new user.
func (r *UserRepository) Create(_ context.Context, user *shop.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return oops.Code("USER_CREATE_FAILED").
				With("email", user.Email).
				Wrap(shop.ErrEmailTaken)
		}
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id ulid.ULID) (*shop.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id.String()).Wrap(shop.ErrNotFound)
	}
	return cloneUser(u), nil
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*shop.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").Wrap(shop.ErrNotFound)
}

// List returns every user ordered by creation time.
func (r *UserRepository) List(_ context.Context) ([]*shop.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]*shop.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, cloneUser(u))
	}
	slices.SortFunc(users, func(a, b *shop.User) int { return a.ID.Compare(b.ID) })
	return users, nil
}

// UpdatePermissions replaces the permission set of a user.
func (r *UserRepository) UpdatePermissions(_ context.Context, id ulid.ULID, perms auth.Permissions) (*shop.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id.String()).Wrap(shop.ErrNotFound)
	}
	u.Permissions = slices.Clone(perms)
	u.UpdatedAt = r.s.now()
	return cloneUser(u), nil
}

// SetResetToken stores a pending reset token hash and its expiry.
func (r *UserRepository) SetResetToken(_ context.Context, id ulid.ULID, tokenHash string, expiry time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("user_id", id.String()).Wrap(shop.ErrNotFound)
	}
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpiry = &expiry
	u.UpdatedAt = r.s.now()
	return nil
}

// ConsumeResetToken matches and clears a reset token in one critical section.
func (r *UserRepository) ConsumeResetToken(_ context.Context, tokenHash string, notBefore time.Time, passwordHash string) (*shop.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.ResetTokenHash == nil || *u.ResetTokenHash != tokenHash {
			continue
		}
		if u.ResetTokenExpiry == nil || !auth.ResetTokenValid(*u.ResetTokenExpiry, notBefore) {
			continue
		}
		u.PasswordHash = passwordHash
		u.ResetTokenHash = nil
		u.ResetTokenExpiry = nil
		u.UpdatedAt = r.s.now()
		return cloneUser(u), nil
	}
	return nil, oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(shop.ErrNotFound)
}

// Create stores a new item. The owner must exist.
func (r *ItemRepository) Create(_ context.Context, item *shop.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[item.OwnerID]; !ok {
		return oops.Code("ITEM_OWNER_NOT_FOUND").
			With("owner_id", item.OwnerID.String()).
			Wrap(shop.ErrNotFound)
	}
	c := *item
	r.s.items[item.ID] = &c
	return nil
}

// GetByID retrieves an item by ID.
func (r *ItemRepository) GetByID(_ context.Context, id ulid.ULID) (*shop.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.items[id]
	if !ok {
		return nil, oops.Code("ITEM_NOT_FOUND").With("item_id", id.String()).Wrap(shop.ErrNotFound)
	}
	c := *item
	return &c, nil
}

// Update applies a patch and returns the updated item.
func (r *ItemRepository) Update(_ context.Context, id ulid.ULID, patch shop.ItemPatch) (*shop.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.items[id]
	if !ok {
		return nil, oops.Code("ITEM_NOT_FOUND").With("item_id", id.String()).Wrap(shop.ErrNotFound)
	}
	patch.Apply(item)
	item.UpdatedAt = r.s.now()
	c := *item
	return &c, nil
}

// Delete removes an item along with the cart lines referencing it.
func (r *ItemRepository) Delete(_ context.Context, id ulid.ULID) (*shop.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.items[id]
	if !ok {
		return nil, oops.Code("ITEM_NOT_FOUND").With("item_id", id.String()).Wrap(shop.ErrNotFound)
	}
	delete(r.s.items, id)
	for cid, line := range r.s.cart {
		if line.ItemID == id {
			delete(r.s.cart, cid)
		}
	}
	return item, nil
}

// Upsert adds one unit of an item to a user's cart.
func (r *CartRepository) Upsert(_ context.Context, userID, itemID ulid.ULID) (*shop.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.items[itemID]; !ok {
		return nil, oops.Code("CART_ITEM_NOT_FOUND").With("item_id", itemID.String()).Wrap(shop.ErrNotFound)
	}
	if _, ok := r.s.users[userID]; !ok {
		return nil, oops.Code("CART_USER_NOT_FOUND").With("user_id", userID.String()).Wrap(shop.ErrNotFound)
	}

	now := r.s.now()
	for _, line := range r.s.cart {
		if line.UserID == userID && line.ItemID == itemID {
			line.Quantity++
			line.UpdatedAt = now
			c := *line
			return &c, nil
		}
	}

	line := &shop.CartItem{
		ID:        ulid.Make(),
		UserID:    userID,
		ItemID:    itemID,
		Quantity:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.cart[line.ID] = line
	c := *line
	return &c, nil
}

// GetByID retrieves a cart line by ID.
func (r *CartRepository) GetByID(_ context.Context, id ulid.ULID) (*shop.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	line, ok := r.s.cart[id]
	if !ok {
		return nil, oops.Code("CART_ITEM_NOT_FOUND").With("cart_item_id", id.String()).Wrap(shop.ErrNotFound)
	}
	c := *line
	return &c, nil
}

// ListByUser returns a user's cart lines, oldest first.
func (r *CartRepository) ListByUser(_ context.Context, userID ulid.ULID) ([]*shop.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var lines []*shop.CartItem
	for _, line := range r.s.cart {
		if line.UserID == userID {
			c := *line
			lines = append(lines, &c)
		}
	}
	slices.SortFunc(lines, func(a, b *shop.CartItem) int { return a.ID.Compare(b.ID) })
	return lines, nil
}

// Delete removes a cart line and returns it.
func (r *CartRepository) Delete(_ context.Context, id ulid.ULID) (*shop.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	line, ok := r.s.cart[id]
	if !ok {
		return nil, oops.Code("CART_ITEM_NOT_FOUND").With("cart_item_id", id.String()).Wrap(shop.ErrNotFound)
	}
	delete(r.s.cart, id)
	return line, nil
}

func cloneUser(u *shop.User) *shop.User {
	c := *u
	c.Permissions = slices.Clone(u.Permissions)
	if u.ResetTokenHash != nil {
		h := *u.ResetTokenHash
		c.ResetTokenHash = &h
	}
	if u.ResetTokenExpiry != nil {
		e := *u.ResetTokenExpiry
		c.ResetTokenExpiry = &e
	}
	return &c
}

// Compile-time interface checks.
var (
	_ shop.UserRepository = (*UserRepository)(nil)
	_ shop.ItemRepository = (*ItemRepository)(nil)
	_ shop.CartRepository = (*CartRepository)(nil)
)
