package utils

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"sync"

	"github.com/gather-app/gather-backend/config"
)

// Mailer sends plain-text mail over SMTP with STARTTLS.
type Mailer struct {
	host      string
	port      string
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewMailer returns nil when SMTP is not configured.
func NewMailer(cfg *config.Config) *Mailer {
	if !cfg.SMTPEnabled() {
		log.Println("ℹ️ SMTP not configured, email notifications disabled")
		return nil
	}
	return &Mailer{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromName:  cfg.SMTPFromName,
		fromEmail: cfg.SMTPFromEmail,
	}
}

// Send delivers a single message.
func (m *Mailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if m.username != "" {
		auth := smtp.PlainAuth("", m.username, m.password, m.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := client.Mail(m.fromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write(buildMessage(m.from(), to, subject, body)); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	if err := client.Quit(); err != nil {
		log.Printf("⚠️ QUIT command error (non-critical): %v", err)
	}
	return nil
}

// SendBulkAsync fans a message out to recipients without blocking the caller.
func (m *Mailer) SendBulkAsync(recipients []string, subject, body string) {
	go func() {
		var wg sync.WaitGroup
		for _, email := range recipients {
			wg.Add(1)
			go func(to string) {
				defer wg.Done()
				if err := m.Send(to, subject, body); err != nil {
					log.Printf("❌ Failed to send email to %s: %v", to, err)
				}
			}(email)
		}
		wg.Wait()
	}()
}

func (m *Mailer) from() string {
	if m.fromName == "" {
		return m.fromEmail
	}
	return fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n%s", from, to, subject, body))
}
