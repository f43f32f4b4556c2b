// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package web

import (
	"encoding/json"
	"net/http"

	"github.com/samber/oops"

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/pkg/errutil"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// codeInternal is reported for every failure that is not a client error.
const codeInternal = "INTERNAL"

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case auth.CodeUnauthenticated, auth.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case auth.CodeForbidden:
		return http.StatusForbidden
	case auth.CodeNotFound:
		return http.StatusNotFound
	case auth.CodeValidation, auth.CodeInvalidOrExpiredToken:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// errorBody builds the client-visible body for err. Internal failures carry
// no detail.
func errorBody(err error) ErrorBody {
	code := auth.ErrorCode(err)
	if !auth.IsClientError(code) {
		return ErrorBody{Code: codeInternal, Message: "internal error"}
	}
	msg := err.Error()
	if oopsErr, ok := oops.AsOops(err); ok {
		if public := oopsErr.Public(); public != "" {
			msg = public
		} else {
			msg = oopsErr.Error()
		}
	}
	return ErrorBody{Code: code, Message: msg}
}

// writeError writes err as JSON and returns the outcome label for metrics:
// the error code, or INTERNAL for uncoded errors.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) string {
	body := errorBody(err)
	status := StatusFor(body.Code)
	if status == http.StatusInternalServerError {
		errutil.LogError(r.Context(), s.logger, operation+" failed", err)
	}
	writeJSON(w, status, body)

	if code := auth.ErrorCode(err); code != "" {
		return code
	}
	return codeInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	json.NewEncoder(w).Encode(v)
}
