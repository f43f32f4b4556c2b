// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

// Package mailtest provides test doubles for mail.Mailer.
package mailtest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shopfront/shopfront/internal/mail"
)

// MockMailer is a testify mock of mail.Mailer.
type MockMailer struct {
	mock.Mock
}

// Send records the call and returns the configured error.
func (m *MockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

var _ mail.Mailer = (*MockMailer)(nil)
