// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package web

import (
	"net/http"

	"github.com/shopfront/shopfront/internal/auth"
)

// cookieArtifacts delivers caller artifacts as HTTP cookies on the response.
type cookieArtifacts struct {
	w      http.ResponseWriter
	secure bool
}

func (c cookieArtifacts) Deliver(name, value string, opts auth.ArtifactOptions) {
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		HttpOnly: opts.HTTPOnly,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c cookieArtifacts) Clear(name string) {
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

var _ auth.Artifacts = cookieArtifacts{}
