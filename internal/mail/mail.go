// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

// Package mail delivers transactional e-mail.
package mail

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"
	gomail "github.com/wneessen/go-mail"
)

// sendTimeout bounds each dial and SMTP command.
const sendTimeout = 15 * time.Second

// Mailer sends a single HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPConfig holds the settings for an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(ctx context.Context, msg *gomail.Msg) error

// SMTPMailer sends mail through an SMTP relay, using STARTTLS when the relay
// offers it.
type SMTPMailer struct {
	cfg  SMTPConfig
	send sendFunc
	now  func() time.Time
}

// NewSMTPMailer creates an SMTPMailer. Host and From are required; plain
// auth is used when Username is set.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("from address is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, oops.Code("MAIL_CONFIG_INVALID").With("port", cfg.Port).Errorf("smtp port out of range")
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(sendTimeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password))
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, oops.Code("MAIL_CONFIG_INVALID").With("host", cfg.Host).Wrap(err)
	}

	return &SMTPMailer{
		cfg: cfg,
		send: func(ctx context.Context, msg *gomail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
		now: time.Now,
	}, nil
}

// Send delivers the message. Cancelling ctx aborts the dial or the SMTP
// exchange in progress.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("to", to).Wrap(err)
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return oops.Code("MAIL_SEND_FAILED").Errorf("header values must not contain line breaks")
	}

	msg, err := m.buildMessage(to, subject, htmlBody)
	if err != nil {
		return err
	}
	if err := m.send(ctx, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "smtp send").
			With("to", to).
			Wrap(err)
	}
	return nil
}

func (m *SMTPMailer) buildMessage(to, subject, htmlBody string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, oops.Code("MAIL_SEND_FAILED").With("from", m.cfg.From).Wrap(err)
	}
	if err := msg.To(to); err != nil {
		return nil, oops.Code("MAIL_SEND_FAILED").With("to", to).Wrap(err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(m.now())
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)
	return msg, nil
}

// LogMailer records that a message would have been sent, without sending
// it. It is used in development when no relay is configured. Bodies carry
// secrets such as reset links, so only the envelope is logged.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer. A nil logger uses slog.Default.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// Send logs the recipient and subject and never fails.
func (m *LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.logger.InfoContext(ctx, "mail not sent, no relay configured",
		"to", to,
		"subject", subject,
		"body_bytes", len(htmlBody))
	return nil
}

// Compile-time interface checks.
var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
)
