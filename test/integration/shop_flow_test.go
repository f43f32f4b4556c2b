// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"regexp"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/internal/shop"
	"github.com/shopfront/shopfront/internal/web"
)

var resetToken = regexp.MustCompile(`resetToken=([0-9a-f]{64})`)

// call sends a JSON request and decodes the response into out when out is
// non-nil. It returns the status code.
func call(c *http.Client, method, path string, body, out any) int {
	var buf bytes.Buffer
	if body != nil {
		Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
	}
	req, err := http.NewRequest(method, env.server.URL+path, &buf)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	if out != nil {
		Expect(json.NewDecoder(resp.Body).Decode(out)).To(Succeed())
	}
	return resp.StatusCode
}

func signup(c *http.Client, email string) shop.User {
	var u shop.User
	Expect(call(c, http.MethodPost, "/signup", map[string]string{
		"email": email, "password": "hunter22", "name": "Shopper",
	}, &u)).To(Equal(http.StatusOK))
	return u
}

var _ = Describe("Storefront over HTTP", func() {
	Describe("accounts", func() {
		It("signs up, signs out and signs back in case-insensitively", func() {
			c := newClient()
			created := signup(c, "Ada@Example.com")
			Expect(created.Permissions).To(Equal(auth.Permissions{auth.PermissionUser}))

			var me shop.User
			Expect(call(c, http.MethodGet, "/me", nil, &me)).To(Equal(http.StatusOK))
			Expect(me.ID).To(Equal(created.ID))

			Expect(call(c, http.MethodPost, "/signout", nil, nil)).To(Equal(http.StatusOK))
			var anon *shop.User
			Expect(call(c, http.MethodGet, "/me", nil, &anon)).To(Equal(http.StatusOK))
			Expect(anon).To(BeNil())

			Expect(call(c, http.MethodPost, "/signin", map[string]string{
				"email": "ada@example.com", "password": "hunter22",
			}, &me)).To(Equal(http.StatusOK))
			Expect(me.ID).To(Equal(created.ID))
		})

		It("resets a password once", func() {
			c := newClient()
			signup(c, "reset@example.com")

			Expect(call(c, http.MethodPost, "/request-reset", map[string]string{"email": "reset@example.com"}, nil)).
				To(Equal(http.StatusOK))
			m := resetToken.FindStringSubmatch(env.mail.last("reset@example.com"))
			Expect(m).NotTo(BeNil())

			req := map[string]string{"resetToken": m[1], "password": "fresh-pass", "confirmPassword": "fresh-pass"}
			Expect(call(c, http.MethodPost, "/reset-password", req, nil)).To(Equal(http.StatusOK))

			var body web.ErrorBody
			Expect(call(c, http.MethodPost, "/reset-password", req, &body)).To(Equal(http.StatusBadRequest))
			Expect(body.Code).To(Equal(auth.CodeInvalidOrExpiredToken))

			Expect(call(newClient(), http.MethodPost, "/signin", map[string]string{
				"email": "reset@example.com", "password": "fresh-pass",
			}, nil)).To(Equal(http.StatusOK))
		})
	})

	Describe("items and carts", func() {
		It("lets only the owner change an item", func() {
			owner, stranger := newClient(), newClient()
			signup(owner, "owner@example.com")
			signup(stranger, "stranger@example.com")

			var item shop.Item
			Expect(call(owner, http.MethodPost, "/items", map[string]any{"title": "Lamp", "price": 1200}, &item)).
				To(Equal(http.StatusOK))

			Expect(call(stranger, http.MethodDelete, "/items/"+item.ID.String(), nil, nil)).To(Equal(http.StatusForbidden))
			Expect(call(owner, http.MethodPatch, "/items/"+item.ID.String(), map[string]any{"title": "Desk lamp"}, &item)).
				To(Equal(http.StatusOK))
			Expect(item.Title).To(Equal("Desk lamp"))
			Expect(call(owner, http.MethodDelete, "/items/"+item.ID.String(), nil, nil)).To(Equal(http.StatusOK))
		})

		It("counts concurrent adds of the same item on one cart line", func() {
			buyer := newClient()
			signup(buyer, "buyer@example.com")
			var item shop.Item
			Expect(call(buyer, http.MethodPost, "/items", map[string]any{"title": "Mug", "price": 800}, &item)).
				To(Equal(http.StatusOK))

			const adds = 10
			var wg sync.WaitGroup
			for range adds {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					Expect(call(buyer, http.MethodPost, "/cart", map[string]string{"itemId": item.ID.String()}, nil)).
						To(Equal(http.StatusOK))
				}()
			}
			wg.Wait()

			var line shop.CartItem
			Expect(call(buyer, http.MethodPost, "/cart", map[string]string{"itemId": item.ID.String()}, &line)).
				To(Equal(http.StatusOK))
			Expect(line.Quantity).To(Equal(adds + 1))
		})
	})
})
