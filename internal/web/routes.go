// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package web

import (
	"net/http"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/internal/shop"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type requestResetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	ResetToken      string `json:"resetToken"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type permissionsRequest struct {
	Permissions []string `json:"permissions"`
}

type addToCartRequest struct {
	ItemID string `json:"itemId"`
}

func (s *Server) signup(r *http.Request, caller *auth.Caller) (any, error) {
	var req signupRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return s.h.Signup(r.Context(), caller, req.Email, req.Password, req.Name)
}

func (s *Server) signin(r *http.Request, caller *auth.Caller) (any, error) {
	var req signinRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return s.h.Signin(r.Context(), caller, req.Email, req.Password)
}

func (s *Server) signout(r *http.Request, caller *auth.Caller) (any, error) {
	return s.h.Signout(r.Context(), caller), nil
}

func (s *Server) requestReset(r *http.Request, caller *auth.Caller) (any, error) {
	var req requestResetRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return s.h.RequestReset(r.Context(), caller, req.Email)
}

func (s *Server) resetPassword(r *http.Request, caller *auth.Caller) (any, error) {
	var req resetPasswordRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return s.h.ResetPassword(r.Context(), caller, req.ResetToken, req.Password, req.ConfirmPassword)
}

func (s *Server) createItem(r *http.Request, caller *auth.Caller) (any, error) {
	var fields shop.ItemFields
	if err := decode(r, &fields); err != nil {
		return nil, err
	}
	return s.h.CreateItem(r.Context(), caller, fields)
}

func (s *Server) updateItem(r *http.Request, caller *auth.Caller) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	var patch shop.ItemPatch
	if err := decode(r, &patch); err != nil {
		return nil, err
	}
	return s.h.UpdateItem(r.Context(), caller, id, patch)
}

func (s *Server) deleteItem(r *http.Request, caller *auth.Caller) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return s.h.DeleteItem(r.Context(), caller, id)
}

func (s *Server) updatePermissions(r *http.Request, caller *auth.Caller) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	var req permissionsRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	perms, err := auth.ParsePermissions(req.Permissions)
	if err != nil {
		return nil, err
	}
	return s.h.UpdatePermissions(r.Context(), caller, id, perms)
}

func (s *Server) addToCart(r *http.Request, caller *auth.Caller) (any, error) {
	var req addToCartRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	itemID, err := ulid.Parse(req.ItemID)
	if err != nil {
		return nil, oops.Code(auth.CodeValidation).With("item_id", req.ItemID).Errorf("invalid item id %q", req.ItemID)
	}
	return s.h.AddToCart(r.Context(), caller, itemID)
}

func (s *Server) removeFromCart(r *http.Request, caller *auth.Caller) (any, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return s.h.RemoveFromCart(r.Context(), caller, id)
}

func (s *Server) me(r *http.Request, caller *auth.Caller) (any, error) {
	return s.h.Me(r.Context(), caller)
}

func (s *Server) listUsers(r *http.Request, caller *auth.Caller) (any, error) {
	return s.h.Users(r.Context(), caller)
}
