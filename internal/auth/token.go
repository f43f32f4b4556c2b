// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MinSigningKeyLen is the shortest accepted HS256 signing key.
const MinSigningKeyLen = 32

// Claims is the payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// TokenIssuer signs and verifies session tokens with a shared secret.
// The secret is injected once at construction.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. ttl is the validity horizon of every
// issued token.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < MinSigningKeyLen {
		return nil, oops.Code("TOKEN_INVALID_SECRET").
			With("min_length", MinSigningKeyLen).
			Errorf("signing secret must be at least %d bytes", MinSigningKeyLen)
	}
	if ttl <= 0 {
		return nil, oops.Code("TOKEN_INVALID_TTL").Errorf("token ttl must be positive")
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
// Useful for testing expiry.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	c := *i
	c.now = now
	return &c
}

// Sign mints a token asserting userID.
func (i *TokenIssuer) Sign(userID ulid.ULID) (string, error) {
	if isZero(userID) {
		return "", oops.Code("TOKEN_INVALID_SUBJECT").Errorf("user ID cannot be zero")
	}

	issuedAt := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.ttl)),
		},
		UserID: userID.String(),
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns the user id
// it asserts.
func (i *TokenIssuer) Verify(token string) (ulid.ULID, error) {
	if token == "" {
		return ulid.ULID{}, oops.Code("TOKEN_EMPTY").Errorf("session token cannot be empty")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return ulid.ULID{}, oops.Code("TOKEN_INVALID").Wrap(err)
	}

	userID, err := ulid.Parse(claims.UserID)
	if err != nil {
		return ulid.ULID{}, oops.Code("TOKEN_INVALID").
			With("operation", "parse user id claim").
			Wrap(err)
	}
	return userID, nil
}
