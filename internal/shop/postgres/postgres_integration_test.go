// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

//go:build integration

package postgres_test

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/internal/shop"
)

func createUser(email string) *shop.User {
	u, err := shop.NewUser(email, "Test User", "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA")
	Expect(err).NotTo(HaveOccurred())
	Expect(env.store.Users.Create(env.ctx, u)).To(Succeed())
	return u
}

func createItem(owner *shop.User, title string) *shop.Item {
	item, err := shop.NewItem(owner.ID, shop.ItemFields{Title: title, Price: 1000})
	Expect(err).NotTo(HaveOccurred())
	Expect(env.store.Items.Create(env.ctx, item)).To(Succeed())
	return item
}

var _ = Describe("UserRepository", func() {
	It("rejects a second account with the same email", func() {
		createUser("wes@example.com")
		dup, err := shop.NewUser("wes@example.com", "Other", "$argon2id$x")
		Expect(err).NotTo(HaveOccurred())
		Expect(env.store.Users.Create(env.ctx, dup)).To(MatchError(shop.ErrEmailTaken))
	})

	It("round-trips permissions", func() {
		u := createUser("wes@example.com")
		perms := auth.NewPermissions(auth.PermissionAdmin, auth.PermissionUser)
		updated, err := env.store.Users.UpdatePermissions(env.ctx, u.ID, perms)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Permissions).To(Equal(perms))

		got, err := env.store.Users.GetByEmail(env.ctx, "wes@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Permissions).To(Equal(perms))
	})

	It("consumes a reset token exactly once under concurrency", func() {
		u := createUser("wes@example.com")
		now := time.Now()
		Expect(env.store.Users.SetResetToken(env.ctx, u.ID, "tokenhash", now.Add(time.Hour))).To(Succeed())

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				if _, err := env.store.Users.ConsumeResetToken(env.ctx, "tokenhash", now.Add(-time.Hour), "newhash"); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				} else {
					Expect(err).To(MatchError(shop.ErrNotFound))
				}
			}()
		}
		wg.Wait()
		Expect(wins).To(Equal(1))

		got, err := env.store.Users.GetByID(env.ctx, u.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.PasswordHash).To(Equal("newhash"))
		Expect(got.HasPendingReset()).To(BeFalse())
	})

	It("does not consume a token older than the window", func() {
		u := createUser("wes@example.com")
		now := time.Now()
		Expect(env.store.Users.SetResetToken(env.ctx, u.ID, "stale", now.Add(-2*time.Hour))).To(Succeed())
		_, err := env.store.Users.ConsumeResetToken(env.ctx, "stale", now.Add(-time.Hour), "newhash")
		Expect(err).To(MatchError(shop.ErrNotFound))
	})
})

var _ = Describe("ItemRepository", func() {
	It("keeps unset fields on update", func() {
		owner := createUser("owner@example.com")
		item := createItem(owner, "Lamp")
		price := 2500
		updated, err := env.store.Items.Update(env.ctx, item.ID, shop.ItemPatch{Price: &price})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Title).To(Equal("Lamp"))
		Expect(updated.Price).To(Equal(2500))
	})

	It("rejects an unknown owner", func() {
		item, err := shop.NewItem(ulid.Make(), shop.ItemFields{Title: "Ghost", Price: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(env.store.Items.Create(env.ctx, item)).To(MatchError(shop.ErrNotFound))
	})

	It("removes cart lines with the item", func() {
		owner := createUser("owner@example.com")
		item := createItem(owner, "Lamp")
		line, err := env.store.Cart.Upsert(env.ctx, owner.ID, item.ID)
		Expect(err).NotTo(HaveOccurred())

		_, err = env.store.Items.Delete(env.ctx, item.ID)
		Expect(err).NotTo(HaveOccurred())
		_, err = env.store.Cart.GetByID(env.ctx, line.ID)
		Expect(err).To(MatchError(shop.ErrNotFound))
	})
})

var _ = Describe("CartRepository", func() {
	It("keeps one line per user and item under concurrent adds", func() {
		owner := createUser("owner@example.com")
		item := createItem(owner, "Lamp")

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				_, err := env.store.Cart.Upsert(env.ctx, owner.ID, item.ID)
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()

		lines, err := env.store.Cart.ListByUser(env.ctx, owner.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(lines).To(HaveLen(1))
		Expect(lines[0].Quantity).To(Equal(20))
	})

	It("reports an unknown item as not found", func() {
		owner := createUser("owner@example.com")
		_, err := env.store.Cart.Upsert(env.ctx, owner.ID, ulid.Make())
		Expect(err).To(MatchError(shop.ErrNotFound))
	})
})
