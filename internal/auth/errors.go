// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package auth

import "github.com/samber/oops"

// Error codes for the failure kinds a handler can report to its caller.
const (
	CodeUnauthenticated       = "UNAUTHENTICATED"
	CodeForbidden             = "FORBIDDEN"
	CodeNotFound              = "NOT_FOUND"
	CodeValidation            = "VALIDATION_ERROR"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeInvalidOrExpiredToken = "INVALID_OR_EXPIRED_TOKEN"
)

// ErrorCode returns the oops code carried by err, or "" when err is not an
// oops error or carries no string code.
func ErrorCode(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// IsClientError reports whether code is one of the failure kinds whose
// message may be shown to the caller.
func IsClientError(code string) bool {
	switch code {
	case CodeUnauthenticated, CodeForbidden, CodeNotFound,
		CodeValidation, CodeInvalidCredentials, CodeInvalidOrExpiredToken:
		return true
	}
	return false
}

// Unauthenticated returns the error used when an operation needs a caller
// identity and none is present.
func Unauthenticated() error {
	return oops.Code(CodeUnauthenticated).Errorf("you must be logged in to do that")
}

// Forbidden returns a denial error. It deliberately carries no detail about
// which permission or owner was expected.
func Forbidden() error {
	return oops.Code(CodeForbidden).Errorf("you do not have permission to do that")
}
