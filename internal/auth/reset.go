// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/samber/oops"
)

// Reset token configuration.
const (
	ResetTokenBytes    = 32        // 32 bytes = 64 hex chars
	ResetTokenLifetime = time.Hour // expiry = issued-at + lifetime
	ResetTokenWindow   = time.Hour // accepted while expiry >= now - window
)

// GenerateResetToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext token is mailed to the user; only the hash is persisted.
func GenerateResetToken() (token, hash string, err error) {
	tokenBytes := make([]byte, ResetTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("RESET_TOKEN_GENERATE_FAILED").
			With("requested_bytes", ResetTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, HashResetToken(token), nil
}

// HashResetToken computes the hex SHA256 digest under which a reset token
// is stored and looked up.
func HashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// ResetTokenExpiry returns the expiry stamped on a token issued at t.
func ResetTokenExpiry(issuedAt time.Time) time.Time {
	return issuedAt.Add(ResetTokenLifetime)
}

// ResetTokenCutoff returns the oldest expiry still accepted at now. A token
// is valid iff expiry >= cutoff; the bound is inclusive.
func ResetTokenCutoff(now time.Time) time.Time {
	return now.Add(-ResetTokenWindow)
}

// ResetTokenValid reports whether a token stamped with expiry is accepted
// against cutoff, as returned by ResetTokenCutoff.
func ResetTokenValid(expiry, cutoff time.Time) bool {
	return !expiry.Before(cutoff)
}
