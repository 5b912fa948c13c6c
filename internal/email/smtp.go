package email

import (
	"fmt"
	"net/smtp"
	"net/url"
)

// SMTPServerConfig holds all the necessary configuration for connecting to an SMTP server.
type SMTPServerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string // The "From" email address
}

// EmailService provides methods for sending application emails. When SMTP is
// not configured the service is a no-op and every send reports as skipped.
type EmailService struct {
	config SMTPServerConfig
	auth   smtp.Auth
}

// NewEmailService creates a new service for sending emails.
func NewEmailService(config SMTPServerConfig) *EmailService {
	auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)
	return &EmailService{
		config: config,
		auth:   auth,
	}
}

// Configured reports whether the service has an SMTP host to talk to.
func (s *EmailService) Configured() bool {
	return s.config.Host != ""
}

func (s *EmailService) send(recipient, subject, body string) error {
	if !s.Configured() {
		return fmt.Errorf("smtp not configured, skipping email to %s", recipient)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	message := []byte(
		"To: " + recipient + "\r\n" +
			"From: " + s.config.Sender + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"\r\n" +
			body + "\r\n")

	if err := smtp.SendMail(addr, s.auth, s.config.Sender, []string{recipient}, message); err != nil {
		return fmt.Errorf("smtp error: %w", err)
	}
	return nil
}

// SendWelcomeEmail greets a newly registered user. Sending is best-effort;
// registration succeeds regardless.
func (s *EmailService) SendWelcomeEmail(recipientEmail, firstName, frontendURL string) error {
	subject := "Welcome to Court Finder!"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour account is ready. Head over to %s to start finding courts near you.\n\nSee you on the court!\nThe Court Finder Team",
		firstName,
		frontendURL,
	)
	return s.send(recipientEmail, subject, body)
}

// SendPasswordResetEmail delivers the reset link carrying the signed token.
func (s *EmailService) SendPasswordResetEmail(recipientEmail, token, frontendURL string) error {
	subject := "Reset your Court Finder password"

	resetLink := fmt.Sprintf("%s/reset_password?token=%s", frontendURL, url.QueryEscape(token))

	body := fmt.Sprintf(
		"Hi there,\n\nSomeone asked to reset the password for this address. If that was you, follow this link within 30 minutes:\n%s\n\nIf it wasn't you, ignore this email; your password is unchanged.\nThe Court Finder Team",
		resetLink,
	)
	return s.send(recipientEmail, subject, body)
}
