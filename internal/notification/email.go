package notification

// Sender delivers one plain-text email; *utils.Mailer satisfies it.
type Sender interface {
	Send(to, subject, body string) error
}
