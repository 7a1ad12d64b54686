// Package notify delivers booking and verification messages. Delivery is
// best-effort: callers hand messages to a Dispatcher and never wait on a
// provider.
package notify

import (
	"context"
)

// AppointmentNotice is the view of an appointment a message is rendered from.
type AppointmentNotice struct {
	AppointmentID string
	Name          string
	Email         string
	Phone         string
	Date          string
	SlotLabel     string
	Service       string
	Notes         string
	CancelledBy   string
}

// Sink receives booking events and verification codes.
type Sink interface {
	SendConfirmation(ctx context.Context, n AppointmentNotice) error
	SendCancellation(ctx context.Context, n AppointmentNotice) error
	SendVerificationCode(ctx context.Context, phone, code string) error
}

// EmailSender defines the interface for sending emails.
// Implementations can be swapped (SendGrid, SMTP) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMSSender sends a plain text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string // plain text
	HTML    string // optional
}
