// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

// Package auth provides the authorization and credential primitives used by
// the shopfront mutation handlers.
//
// # Primitives
//
//   - PasswordHasher / Argon2idHasher - one-way password hashing
//   - TokenIssuer - signs and verifies session tokens carrying a user id
//   - GenerateResetToken / HashResetToken - opaque password reset secrets
//   - Permission / Permissions - enumerated permission labels
//   - Authorize / AuthorizeOwner - any-of role checks and ownership checks
//   - Caller - the explicit per-call identity and artifact sink
//
// Every decision failure is an oops error carrying one of the Code* values
// declared in errors.go, so the transport layer can map it without string
// matching.
package auth
