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

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/internal/shop"
)

const userColumns = `id, email, name, password_hash, permissions,
	reset_token_hash, reset_token_expiry, created_at, updated_at`

// UserRepository implements shop.UserRepository using PostgreSQL.
type UserRepository struct {
	db Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *shop.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		user.ID.String(),
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Permissions.Strings(),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return oops.Code("USER_CREATE_FAILED").
			With("email", user.Email).
			Wrap(shop.ErrEmailTaken)
	}
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*shop.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id.String()).Wrap(shop.ErrNotFound)
	}
	return user, err
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*shop.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(shop.ErrNotFound)
	}
	return user, err
}

// List returns every user ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]*shop.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").With("operation", "query users").Wrap(err)
	}
	defer rows.Close()

	var users []*shop.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").With("operation", "iterate users").Wrap(err)
	}
	return users, nil
}

// UpdatePermissions replaces the permission set of a user.
func (r *UserRepository) UpdatePermissions(ctx context.Context, id ulid.ULID, perms auth.Permissions) (*shop.User, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE users SET permissions = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+userColumns,
		id.String(), perms.Strings(), time.Now())
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id.String()).Wrap(shop.ErrNotFound)
	}
	return user, err
}

// SetResetToken stores a pending reset token hash and its expiry.
func (r *UserRepository) SetResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expiry time.Time) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users SET reset_token_hash = $2, reset_token_expiry = $3, updated_at = $4
		WHERE id = $1
	`, id.String(), tokenHash, expiry, time.Now())
	if err != nil {
		return oops.Code("USER_SET_RESET_FAILED").
			With("operation", "update reset token").
			With("user_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("user_id", id.String()).Wrap(shop.ErrNotFound)
	}
	return nil
}

// ConsumeResetToken matches and clears a reset token in a single UPDATE, so
// concurrent requests with the same token cannot both succeed.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash string, notBefore time.Time, passwordHash string) (*shop.User, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE users
		SET password_hash = $3, reset_token_hash = NULL, reset_token_expiry = NULL, updated_at = $4
		WHERE reset_token_hash = $1 AND reset_token_expiry >= $2
		RETURNING `+userColumns,
		tokenHash, notBefore, passwordHash, time.Now())
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(shop.ErrNotFound)
	}
	return user, err
}

// scanUser scans a single row into a User.
// Callers are responsible for handling pgx.ErrNoRows.
func scanUser(row pgx.Row) (*shop.User, error) {
	var (
		idStr string
		perms []string
		u     shop.User
	)
	err := row.Scan(&idStr, &u.Email, &u.Name, &u.PasswordHash, &perms,
		&u.ResetTokenHash, &u.ResetTokenExpiry, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("USER_SCAN_FAILED").With("operation", "scan user").Wrap(err)
	}

	u.ID, err = parseID("USER_INVALID_ID", "user_id", idStr)
	if err != nil {
		return nil, err
	}
	u.Permissions, err = auth.ParsePermissions(perms)
	if err != nil {
		return nil, oops.Code("USER_INVALID_PERMISSIONS").
			With("user_id", idStr).
			With("permissions", perms).
			Errorf("stored permissions are invalid: %s", err.Error())
	}
	return &u, nil
}

// Compile-time interface check.
var _ shop.UserRepository = (*UserRepository)(nil)
