// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

// Package shop defines the shop's persisted entities and the repository
// contracts the mutation handlers rely on.
package shop

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/shopfront/shopfront/internal/auth"
)

// User is a customer or staff account.
type User struct {
	ID               ulid.ULID        `json:"id"`
	Email            string           `json:"email"`
	Name             string           `json:"name"`
	PasswordHash     string           `json:"-"`
	Permissions      auth.Permissions `json:"permissions"`
	ResetTokenHash   *string          `json:"-"`
	ResetTokenExpiry *time.Time       `json:"-"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// NormalizeEmail trims and lowercases an address so that lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail normalizes email and checks that it looks like an address.
func ValidateEmail(email string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", oops.Code(auth.CodeValidation).Errorf("email cannot be empty")
	}
	if at := strings.IndexByte(email, '@'); at <= 0 || at == len(email)-1 {
		return "", oops.Code(auth.CodeValidation).
			With("email", email).
			Errorf("email must look like name@domain")
	}
	return email, nil
}

// NewUser creates a validated User with the default permission set.
// email is normalized; name is stored verbatim.
func NewUser(email, name, passwordHash string) (*User, error) {
	email, err := ValidateEmail(email)
	if err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Permissions:  auth.NewPermissions(auth.PermissionUser),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// HasPendingReset reports whether a reset token is stored on the user.
func (u *User) HasPendingReset() bool {
	return u.ResetTokenHash != nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by normalized email.
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns every user ordered by creation time.
	List(ctx context.Context) ([]*User, error)

	// UpdatePermissions replaces the permission set of a user.
	UpdatePermissions(ctx context.Context, id ulid.ULID, perms auth.Permissions) (*User, error)

	// SetResetToken stores a pending reset token hash and its expiry.
	SetResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expiry time.Time) error

	// ConsumeResetToken atomically finds the user whose reset token hash
	// matches and whose expiry is not before notBefore, stores
	// passwordHash, and clears both reset fields. Returns ErrNotFound when
	// no user matches, so a token can be consumed at most once.
	ConsumeResetToken(ctx context.Context, tokenHash string, notBefore time.Time, passwordHash string) (*User, error)
}
