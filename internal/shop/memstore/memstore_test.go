// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package memstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/internal/shop"
	"github.com/shopfront/shopfront/internal/shop/memstore"
)

func seedUser(t *testing.T, store shop.Store, email string) *shop.User {
	t.Helper()
	u, err := shop.NewUser(email, "", "hash")
	require.NoError(t, err)
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func seedItem(t *testing.T, store shop.Store, owner ulid.ULID) *shop.Item {
	t.Helper()
	item, err := shop.NewItem(owner, shop.ItemFields{Title: "Hat", Price: 100})
	require.NoError(t, err)
	require.NoError(t, store.Items.Create(context.Background(), item))
	return item
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	u := seedUser(t, store, "wes@example.com")

	t.Run("duplicate email", func(t *testing.T) {
		dup, err := shop.NewUser("WES@example.com", "", "hash")
		require.NoError(t, err)
		err = store.Users.Create(ctx, dup)
		assert.ErrorIs(t, err, shop.ErrEmailTaken)
	})

	t.Run("get by email", func(t *testing.T) {
		got, err := store.Users.GetByEmail(ctx, "wes@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = store.Users.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, shop.ErrNotFound)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		got, err := store.Users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		got.Permissions[0] = auth.PermissionAdmin

		again, err := store.Users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, auth.Permissions{auth.PermissionUser}, again.Permissions)
	})

	t.Run("update permissions replaces", func(t *testing.T) {
		got, err := store.Users.UpdatePermissions(ctx, u.ID, auth.NewPermissions(auth.PermissionAdmin))
		require.NoError(t, err)
		assert.Equal(t, auth.Permissions{auth.PermissionAdmin}, got.Permissions)

		_, err = store.Users.UpdatePermissions(ctx, ulid.Make(), nil)
		assert.ErrorIs(t, err, shop.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		seedUser(t, store, "other@example.com")
		users, err := store.Users.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, u.ID, users[0].ID)
	})
}

func TestUserRepository_ConsumeResetToken(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	u := seedUser(t, store, "wes@example.com")
	now := time.Now()

	require.NoError(t, store.Users.SetResetToken(ctx, u.ID, "hash-1", now))

	t.Run("expired token does not match", func(t *testing.T) {
		_, err := store.Users.ConsumeResetToken(ctx, "hash-1", now.Add(time.Nanosecond), "new")
		assert.ErrorIs(t, err, shop.ErrNotFound)
	})

	t.Run("wrong hash does not match", func(t *testing.T) {
		_, err := store.Users.ConsumeResetToken(ctx, "hash-2", now.Add(-time.Hour), "new")
		assert.ErrorIs(t, err, shop.ErrNotFound)
	})

	t.Run("inclusive bound matches and clears", func(t *testing.T) {
		got, err := store.Users.ConsumeResetToken(ctx, "hash-1", now, "new")
		require.NoError(t, err)
		assert.Equal(t, "new", got.PasswordHash)
		assert.Nil(t, got.ResetTokenHash)
		assert.Nil(t, got.ResetTokenExpiry)
	})

	t.Run("second use fails", func(t *testing.T) {
		_, err := store.Users.ConsumeResetToken(ctx, "hash-1", now.Add(-time.Hour), "again")
		assert.ErrorIs(t, err, shop.ErrNotFound)
	})

	t.Run("concurrent consumers win at most once", func(t *testing.T) {
		require.NoError(t, store.Users.SetResetToken(ctx, u.ID, "hash-3", now.Add(time.Hour)))

		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.Users.ConsumeResetToken(ctx, "hash-3", now, "pw"); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})
}

func TestItemRepository(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	owner := seedUser(t, store, "owner@example.com")

	t.Run("create requires existing owner", func(t *testing.T) {
		item, err := shop.NewItem(ulid.Make(), shop.ItemFields{Title: "Ghost"})
		require.NoError(t, err)
		assert.ErrorIs(t, store.Items.Create(ctx, item), shop.ErrNotFound)
	})

	t.Run("update and delete", func(t *testing.T) {
		item := seedItem(t, store, owner.ID)
		title := "Cap"
		updated, err := store.Items.Update(ctx, item.ID, shop.ItemPatch{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Cap", updated.Title)
		assert.Equal(t, 100, updated.Price)
		assert.Equal(t, owner.ID, updated.OwnerID)

		deleted, err := store.Items.Delete(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item.ID, deleted.ID)

		_, err = store.Items.GetByID(ctx, item.ID)
		assert.ErrorIs(t, err, shop.ErrNotFound)
		_, err = store.Items.Delete(ctx, item.ID)
		assert.ErrorIs(t, err, shop.ErrNotFound)
	})
}

func TestCartRepository_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("sequential adds merge into one line", func(t *testing.T) {
		store := memstore.New()
		u := seedUser(t, store, "buyer@example.com")
		item := seedItem(t, store, u.ID)

		var last *shop.CartItem
		for range 3 {
			var err error
			last, err = store.Cart.Upsert(ctx, u.ID, item.ID)
			require.NoError(t, err)
		}
		assert.Equal(t, 3, last.Quantity)

		lines, err := store.Cart.ListByUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, 3, lines[0].Quantity)
	})

	t.Run("concurrent adds never duplicate or lose increments", func(t *testing.T) {
		store := memstore.New()
		u := seedUser(t, store, "buyer@example.com")
		item := seedItem(t, store, u.ID)

		const n = 50
		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Cart.Upsert(ctx, u.ID, item.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		lines, err := store.Cart.ListByUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, n, lines[0].Quantity)
	})

	t.Run("unknown item", func(t *testing.T) {
		store := memstore.New()
		u := seedUser(t, store, "buyer@example.com")
		_, err := store.Cart.Upsert(ctx, u.ID, ulid.Make())
		assert.ErrorIs(t, err, shop.ErrNotFound)
	})

	t.Run("deleting an item drops its cart lines", func(t *testing.T) {
		store := memstore.New()
		u := seedUser(t, store, "buyer@example.com")
		item := seedItem(t, store, u.ID)
		line, err := store.Cart.Upsert(ctx, u.ID, item.ID)
		require.NoError(t, err)

		_, err = store.Items.Delete(ctx, item.ID)
		require.NoError(t, err)
		_, err = store.Cart.GetByID(ctx, line.ID)
		assert.ErrorIs(t, err, shop.ErrNotFound)
	})
}
