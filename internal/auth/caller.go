// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package auth

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Session artifact configuration.
const (
	SessionArtifact       = "token"
	SessionArtifactMaxAge = 365 * 24 * time.Hour
)

// ArtifactOptions describes how a delivered artifact is stored by the client.
type ArtifactOptions struct {
	HTTPOnly bool
	MaxAge   time.Duration
}

// Artifacts delivers and clears client-held artifacts such as the session
// cookie. Implementations belong to the transport.
type Artifacts interface {
	Deliver(name, value string, opts ArtifactOptions)
	Clear(name string)
}

// Caller is the identity on whose behalf a handler runs. A zero UserID
// means the call is anonymous.
type Caller struct {
	UserID      ulid.ULID
	Permissions Permissions
	Artifacts   Artifacts
}

// Anonymous returns a caller with no identity. A nil artifacts sink is
// replaced with one that discards everything.
func Anonymous(artifacts Artifacts) *Caller {
	if artifacts == nil {
		artifacts = DiscardArtifacts{}
	}
	return &Caller{Artifacts: artifacts}
}

// Authenticated returns a caller for the given user.
func Authenticated(userID ulid.ULID, perms Permissions, artifacts Artifacts) *Caller {
	c := Anonymous(artifacts)
	c.UserID = userID
	c.Permissions = perms
	return c
}

// IsAuthenticated reports whether the caller carries a user identity.
func (c *Caller) IsAuthenticated() bool {
	return c != nil && !isZero(c.UserID)
}

// RequireAuthenticated returns UNAUTHENTICATED for anonymous callers.
func (c *Caller) RequireAuthenticated() error {
	if !c.IsAuthenticated() {
		return Unauthenticated()
	}
	return nil
}

// DeliverSession hands a freshly minted session token to the client.
func (c *Caller) DeliverSession(token string) {
	c.artifacts().Deliver(SessionArtifact, token, ArtifactOptions{
		HTTPOnly: true,
		MaxAge:   SessionArtifactMaxAge,
	})
}

// ClearSession instructs the client to discard its session token.
func (c *Caller) ClearSession() {
	c.artifacts().Clear(SessionArtifact)
}

func (c *Caller) artifacts() Artifacts {
	if c == nil || c.Artifacts == nil {
		return DiscardArtifacts{}
	}
	return c.Artifacts
}

// DiscardArtifacts is an Artifacts sink that ignores every call.
type DiscardArtifacts struct{}

// Deliver implements Artifacts.
func (DiscardArtifacts) Deliver(string, string, ArtifactOptions) {}

// Clear implements Artifacts.
func (DiscardArtifacts) Clear(string) {}
