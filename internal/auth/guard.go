// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package auth

import "github.com/oklog/ulid/v2"

// Authorize allows the call iff have and required share at least one label
// (any-of semantics). Otherwise it returns a FORBIDDEN error.
func Authorize(have Permissions, required ...Permission) error {
	if have.Intersects(required...) {
		return nil
	}
	return Forbidden()
}

// AuthorizeOwner allows the call when the caller owns the resource, or
// when Authorize would allow it. The two checks are combined with OR.
func AuthorizeOwner(callerID, ownerID ulid.ULID, have Permissions, required ...Permission) error {
	if !isZero(callerID) && callerID == ownerID {
		return nil
	}
	return Authorize(have, required...)
}

func isZero(id ulid.ULID) bool {
	return id.Compare(ulid.ULID{}) == 0
}
