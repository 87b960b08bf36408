package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

var (
	// ErrSMTPAddrRequired is returned when Host/Port are missing.
	ErrSMTPAddrRequired = errors.New("mail: smtp host and port are required")
	// ErrNoRecipients is returned when the message has no recipients.
	ErrNoRecipients = errors.New("mail: no recipients provided")
	// ErrNoSender is returned when no sender can be determined.
	ErrNoSender = errors.New("mail: no sender provided")
)

// SMTP is a Mail implementation backed by net/smtp.
type SMTP struct {
	addr        string
	defaultFrom string
	auth        smtp.Auth
}

// SMTPConfig configures the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the default sender when Message.From is empty.
	From string
}

// NewSMTP constructs an SMTP mail sender.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPAddrRequired
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTP{
		addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		defaultFrom: cfg.From,
		auth:        auth,
	}, nil
}

// Send delivers the message over SMTP.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	from := msg.From
	if from == "" {
		from = s.defaultFrom
	}
	if from == "" {
		return ErrNoSender
	}

	body, contentType := msg.TextBody, "text/plain; charset=UTF-8"
	if msg.HTMLBody != "" {
		body, contentType = msg.HTMLBody, "text/html; charset=UTF-8"
	}

	headers := []string{
		"From: " + from,
		"To: " + strings.Join(msg.To, ", "),
		"Subject: " + msg.Subject,
		"MIME-Version: 1.0",
		"Content-Type: " + contentType,
	}
	raw := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	return smtp.SendMail(s.addr, s.auth, from, msg.To, []byte(raw))
}

// Close implements io.Closer; net/smtp holds no persistent connection.
func (s *SMTP) Close() error { return nil }
