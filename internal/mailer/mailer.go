// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

// Package mailer defines the outbound mail contract and builds the messages
// this subsystem hands off. Delivery itself is an external collaborator's
// job (an async job queue in production); nothing here observes delivery
// success or failure.
package mailer

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"time"

	"github.com/samber/oops"
)

// Message is an outbound email.
type Message struct {
	Subject    string
	HTML       string
	Recipients []string
	Sender     string
}

// Mailer accepts messages for asynchronous delivery.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ResetLink builds the password-reset URL embedded in reset emails.
func ResetLink(baseURL, token, uid string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("uid", uid)
	return fmt.Sprintf("%s/reset?%s", baseURL, q.Encode())
}

// BuildResetMessage constructs the password-reset email for a user.
func BuildResetMessage(username, email, link, sender string, ttl time.Duration) Message {
	hours := int(ttl / time.Hour)
	return Message{
		Subject: fmt.Sprintf("ChimeHook - Password Reset for %s", username),
		HTML: fmt.Sprintf(
			`<p>A password reset was requested for <strong>%s</strong>.</p>`+
				`<p><a href="%s">Reset your password</a></p>`+
				`<p>This link expires in %d hours. If you did not request it, you can ignore this email.</p>`,
			html.EscapeString(username),
			html.EscapeString(link),
			hours,
		),
		Recipients: []string{email},
		Sender:     sender,
	}
}

// LogMailer logs messages instead of delivering them. Used in development
// and tests, and as the fallback when no job queue is configured.
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

// Send logs the message.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if len(msg.Recipients) == 0 {
		return oops.Code("MAIL_NO_RECIPIENTS").Errorf("message has no recipients")
	}
	m.logger.Info("mail handed off",
		"subject", msg.Subject,
		"recipients", msg.Recipients,
		"sender", msg.Sender,
	)
	return nil
}
