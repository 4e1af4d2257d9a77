// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package mailer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimehook/chimehook/internal/mailer"
)

func TestResetLink(t *testing.T) {
	t.Run("builds the reset URL with token and uid", func(t *testing.T) {
		link := mailer.ResetLink("https://chime.example.com", "abc123", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
		assert.Equal(t, "https://chime.example.com/reset?token=abc123&uid=01ARZ3NDEKTSV4RRFFQ69G5FAV", link)
	})

	t.Run("query-escapes unsafe values", func(t *testing.T) {
		link := mailer.ResetLink("https://chime.example.com", "a b&c", "uid")
		assert.Contains(t, link, "token=a+b%26c")
	})
}

func TestBuildResetMessage(t *testing.T) {
	link := mailer.ResetLink("https://chime.example.com", "tok", "uid")

	msg := mailer.BuildResetMessage("alice", "alice@example.com", link, "no-reply@chime.example.com", 24*time.Hour)

	assert.Contains(t, msg.Subject, "alice")
	assert.Equal(t, []string{"alice@example.com"}, msg.Recipients)
	assert.Equal(t, "no-reply@chime.example.com", msg.Sender)
	assert.Contains(t, msg.HTML, "24 hours")
	assert.Contains(t, msg.HTML, "token=tok")

	t.Run("escapes HTML in the username", func(t *testing.T) {
		msg := mailer.BuildResetMessage(`<script>alert(1)</script>`, "x@example.com", link, "s", time.Hour)
		assert.NotContains(t, msg.HTML, "<script>")
		assert.Contains(t, msg.HTML, "&lt;script&gt;")
	})
}

func TestLogMailer_Send(t *testing.T) {
	t.Run("logs the handoff", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		m := mailer.NewLogMailer(logger)

		msg := mailer.BuildResetMessage("alice", "alice@example.com", "https://x/reset?token=t&uid=u", "s", time.Hour)
		require.NoError(t, m.Send(context.Background(), msg))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "mail handed off", entry["msg"])
		assert.Contains(t, entry["subject"], "alice")
	})

	t.Run("rejects a message with no recipients", func(t *testing.T) {
		m := mailer.NewLogMailer(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
		err := m.Send(context.Background(), mailer.Message{Subject: "x"})
		require.Error(t, err)
	})
}
