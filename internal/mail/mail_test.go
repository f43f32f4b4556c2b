// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"github.com/shopfront/shopfront/pkg/errutil"
)

type ctxKey struct{}

type capturedSend struct {
	ctx context.Context
	msg *gomail.Msg
}

func (c *capturedSend) rendered(t *testing.T) string {
	t.Helper()
	require.NotNil(t, c.msg, "a message should have been sent")
	var buf bytes.Buffer
	_, err := c.msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func newTestMailer(t *testing.T, cfg SMTPConfig, sendErr error) (*SMTPMailer, *capturedSend) {
	t.Helper()
	m, err := NewSMTPMailer(cfg)
	require.NoError(t, err)
	got := &capturedSend{}
	m.send = func(ctx context.Context, msg *gomail.Msg) error {
		got.ctx, got.msg = ctx, msg
		return sendErr
	}
	m.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return m, got
}

func TestNewSMTPMailer_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  SMTPConfig
	}{
		{"missing host", SMTPConfig{Port: 25, From: "shop@example.com"}},
		{"missing from", SMTPConfig{Host: "smtp.example.com", Port: 25}},
		{"bad port", SMTPConfig{Host: "smtp.example.com", Port: 0, From: "shop@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSMTPMailer(tt.cfg)
			errutil.AssertErrorCode(t, err, "MAIL_CONFIG_INVALID")
		})
	}
}

func TestSMTPMailer_Send(t *testing.T) {
	cfg := SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "shop@example.com"}

	t.Run("builds an html message", func(t *testing.T) {
		m, got := newTestMailer(t, cfg, nil)
		require.NoError(t, m.Send(context.Background(), "wes@example.com", "Hello", "<p>hi</p>"))

		rcpts, err := got.msg.GetRecipients()
		require.NoError(t, err)
		assert.Equal(t, []string{"wes@example.com"}, rcpts)

		raw := got.rendered(t)
		assert.Contains(t, raw, "shop@example.com")
		assert.Contains(t, raw, "Subject: Hello")
		assert.Contains(t, raw, "text/html")
		assert.Contains(t, raw, "<p>hi</p>")
	})

	t.Run("send runs under the caller context", func(t *testing.T) {
		m, got := newTestMailer(t, cfg, nil)
		ctx, cancel := context.WithTimeout(context.WithValue(context.Background(), ctxKey{}, "req-1"), time.Minute)
		defer cancel()
		require.NoError(t, m.Send(ctx, "wes@example.com", "Hello", "body"))

		require.NotNil(t, got.ctx)
		assert.Equal(t, "req-1", got.ctx.Value(ctxKey{}))
		deadline, ok := got.ctx.Deadline()
		require.True(t, ok)
		want, _ := ctx.Deadline()
		assert.Equal(t, want, deadline)
	})

	t.Run("invalid recipient address", func(t *testing.T) {
		m, got := newTestMailer(t, cfg, nil)
		err := m.Send(context.Background(), "not an address", "Hello", "body")
		errutil.AssertErrorCode(t, err, "MAIL_SEND_FAILED")
		assert.Nil(t, got.msg)
	})

	t.Run("relay failure is surfaced", func(t *testing.T) {
		m, _ := newTestMailer(t, cfg, errors.New("421 service not available"))
		err := m.Send(context.Background(), "wes@example.com", "Hello", "body")
		errutil.AssertErrorCode(t, err, "MAIL_SEND_FAILED")
		assert.Contains(t, err.Error(), "421")
	})

	t.Run("header injection is rejected", func(t *testing.T) {
		m, got := newTestMailer(t, cfg, nil)
		err := m.Send(context.Background(), "wes@example.com\r\nBcc: x@example.com", "Hello", "body")
		errutil.AssertErrorCode(t, err, "MAIL_SEND_FAILED")
		assert.Nil(t, got.msg, "nothing should be sent")
	})

	t.Run("cancelled context", func(t *testing.T) {
		m, got := newTestMailer(t, cfg, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := m.Send(ctx, "wes@example.com", "Hello", "body")
		require.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, got.msg)
	})
}

func TestLogMailer_Send(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	const token = "3f9a0c6d1e2b4a5f8c7d6e5f4a3b2c1d0e9f8a7b6c5d4e3f2a1b0c9d8e7f6a5b"
	body, err := RenderReset(ResetLink("https://shop.example.com", token), time.Now())
	require.NoError(t, err)
	require.Contains(t, body, token)

	require.NoError(t, m.Send(context.Background(), "wes@example.com", ResetSubject, body))
	out := buf.String()
	assert.Contains(t, out, `"to":"wes@example.com"`)
	assert.Contains(t, out, ResetSubject)
	assert.NotContains(t, out, token, "reset tokens must not reach the log")
	assert.NotContains(t, out, "resetToken=")
}

func TestResetLink(t *testing.T) {
	assert.Equal(t, "http://localhost:7777/reset?resetToken=abc123",
		ResetLink("http://localhost:7777/", "abc123"))
	assert.Equal(t, "https://shop.example.com/reset?resetToken=abc123",
		ResetLink("https://shop.example.com", "abc123"))
}

func TestRenderReset(t *testing.T) {
	link := ResetLink("https://shop.example.com", "deadbeef")
	body, err := RenderReset(link, time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, body, `href="https://shop.example.com/reset?resetToken=deadbeef"`)
	assert.Contains(t, body, "15:04 UTC on Jan 2")
}

func TestRenderReset_EscapesLink(t *testing.T) {
	body, err := RenderReset(`javascript:alert("x")`, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, body, `javascript:alert`)
}
