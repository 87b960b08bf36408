// Package mail defines the contract for sending email messages, keeping
// the delivery pipeline independent from any concrete provider.
package mail

import (
	"context"
	"io"
)

// Message is a provider-agnostic email payload.
type Message struct {
	// From is an optional explicit sender; the implementation's default is
	// used when empty.
	From string
	// To lists the recipients.
	To []string
	// Subject is the subject line.
	Subject string
	// TextBody is the plain-text body.
	TextBody string
	// HTMLBody is the optional HTML body, preferred when present.
	HTMLBody string
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	// Send dispatches the message through the underlying provider.
	Send(ctx context.Context, msg Message) error
}
