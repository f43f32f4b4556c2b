// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package auth

import (
	"slices"
	"strings"

	"github.com/samber/oops"
)

// Permission is a label granting access to restricted operations.
type Permission string

// Known permission labels.
const (
	PermissionAdmin            Permission = "ADMIN"
	PermissionUser             Permission = "USER"
	PermissionItemCreate       Permission = "ITEMCREATE"
	PermissionItemUpdate       Permission = "ITEMUPDATE"
	PermissionItemDelete       Permission = "ITEMDELETE"
	PermissionPermissionUpdate Permission = "PERMISSIONUPDATE"
)

var knownPermissions = []Permission{
	PermissionAdmin,
	PermissionUser,
	PermissionItemCreate,
	PermissionItemUpdate,
	PermissionItemDelete,
	PermissionPermissionUpdate,
}

// AllPermissions returns every known label in declaration order.
func AllPermissions() []Permission {
	return slices.Clone(knownPermissions)
}

// Valid reports whether p is a known label.
func (p Permission) Valid() bool {
	return slices.Contains(knownPermissions, p)
}

// ParsePermission converts a label to a Permission. Matching is
// case-insensitive; unknown labels are a validation error so that a typo
// can never silently grant or deny access.
func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", oops.Code(CodeValidation).
			With("permission", s).
			Errorf("unknown permission %q", s)
	}
	return p, nil
}

// Permissions is an unordered, deduplicated set of labels. It is kept as a
// sorted slice so that it serializes deterministically.
type Permissions []Permission

// NewPermissions builds a set from the given labels, dropping duplicates.
func NewPermissions(perms ...Permission) Permissions {
	set := make(Permissions, 0, len(perms))
	for _, p := range perms {
		if !slices.Contains(set, p) {
			set = append(set, p)
		}
	}
	slices.Sort(set)
	return set
}

// ParsePermissions parses every label and returns the deduplicated set.
func ParsePermissions(labels []string) (Permissions, error) {
	perms := make([]Permission, 0, len(labels))
	for _, l := range labels {
		p, err := ParsePermission(l)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return NewPermissions(perms...), nil
}

// Has reports whether p is in the set.
func (ps Permissions) Has(p Permission) bool {
	return slices.Contains(ps, p)
}

// Intersects reports whether the set shares at least one label with
// required. An empty required list never intersects.
func (ps Permissions) Intersects(required ...Permission) bool {
	for _, r := range required {
		if ps.Has(r) {
			return true
		}
	}
	return false
}

// Strings returns the labels as plain strings, for storage.
func (ps Permissions) Strings() []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}
