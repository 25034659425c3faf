package utils

import (
	"strings"
	"testing"

	"github.com/gather-app/gather-backend/config"
)

func TestNewMailerDisabledWithoutHost(t *testing.T) {
	if m := NewMailer(&config.Config{}); m != nil {
		t.Fatal("expected nil mailer when SMTP is not configured")
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	m := &Mailer{fromName: "Gather", fromEmail: "noreply@gather.test"}
	msg := string(buildMessage(m.from(), "guest@example.com", "Hello", "body text"))

	for _, want := range []string{
		"From: Gather <noreply@gather.test>\r\n",
		"To: guest@example.com\r\n",
		"Subject: Hello\r\n",
		"Content-Type: text/plain; charset=UTF-8\r\n",
		"\r\nbody text",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestMailerFromWithoutName(t *testing.T) {
	m := &Mailer{fromEmail: "noreply@gather.test"}
	if got := m.from(); got != "noreply@gather.test" {
		t.Errorf("from() = %q", got)
	}
}
