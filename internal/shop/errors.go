// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package shop

import "errors"

// ErrNotFound is returned when a requested entity, or the target of a
// relation, does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when creating a user whose email is already
// registered.
var ErrEmailTaken = errors.New("email already registered")
