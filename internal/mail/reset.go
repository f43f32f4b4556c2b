// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package mail

import (
	"bytes"
	"embed"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// ResetSubject is the subject line of the password reset e-mail.
const ResetSubject = "Your Password Reset Token"

// ResetLink builds the frontend URL that carries a reset token.
func ResetLink(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/reset?resetToken=" + url.QueryEscape(token)
}

// RenderReset renders the HTML body of the password reset e-mail.
func RenderReset(link string, expires time.Time) (string, error) {
	var b bytes.Buffer
	err := templates.ExecuteTemplate(&b, "reset.html", struct {
		Link    string
		Expires time.Time
	}{Link: link, Expires: expires})
	if err != nil {
		return "", oops.Code("MAIL_RENDER_FAILED").With("template", "reset.html").Wrap(err)
	}
	return b.String(), nil
}
