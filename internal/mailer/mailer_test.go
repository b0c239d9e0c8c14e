package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/config"
)

func TestNotificationTemplate_EscapesInput(t *testing.T) {
	html, err := NotificationTemplate{
		Username: "<b>bob</b>",
		Message:  "alice commented on your post.",
		Header:   "Comment Notification",
		AppLink:  "https://app.example.com",
	}.Render()
	require.NoError(t, err)
	assert.Contains(t, html, "&lt;b&gt;bob&lt;/b&gt;")
	assert.Contains(t, html, "alice commented on your post.")
	assert.Contains(t, html, `href="https://app.example.com"`)
	assert.NotContains(t, html, "<img")
}

func TestResetPasswordTemplate(t *testing.T) {
	html, err := ResetPasswordTemplate{Username: "bob", Email: "bob@example.com", Date: "01/03/2024 12:00"}.Render()
	require.NoError(t, err)
	assert.Contains(t, html, "bob@example.com")
	assert.Contains(t, html, "01/03/2024 12:00")
}

func TestNew_FallsBackToLogMailer(t *testing.T) {
	m := New(config.SMTPConfig{}, nil)
	_, ok := m.(*LogMailer)
	require.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@example.com", Subject: "s", HTML: "<p></p>"}))

	smtp := New(config.SMTPConfig{Host: "smtp.example.com", Port: 465, Username: "noreply@example.com"}, nil)
	s, ok := smtp.(*SMTPMailer)
	require.True(t, ok)
	assert.Equal(t, "noreply@example.com", s.from)
	assert.True(t, s.dialer.SSL)
}

func TestSMTPMailer_HonoursCancelledContext(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "smtp.invalid", Port: 587}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: "a@example.com"}), context.Canceled)
}
