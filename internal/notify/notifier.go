package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog"
)

// Notifier renders messages and hands them to the configured providers.
type Notifier struct {
	email      EmailSender
	sms        SMSSender
	adminEmail string
	clinicName string
	logger     zerolog.Logger
}

type NotifierConfig struct {
	ClinicName string
	// AdminEmail receives a copy of every confirmation. Empty disables it.
	AdminEmail string
}

func NewNotifier(email EmailSender, sms SMSSender, cfg NotifierConfig, logger zerolog.Logger) *Notifier {
	if cfg.ClinicName == "" {
		cfg.ClinicName = "the clinic"
	}
	return &Notifier{
		email:      email,
		sms:        sms,
		adminEmail: cfg.AdminEmail,
		clinicName: cfg.ClinicName,
		logger:     logger.With().Str("component", "notifier").Logger(),
	}
}

func (n *Notifier) SendConfirmation(ctx context.Context, a AppointmentNotice) error {
	var errs []error

	if a.Email != "" {
		msg := EmailMessage{
			To:      a.Email,
			ToName:  a.Name,
			Subject: fmt.Sprintf("Appointment confirmed for %s at %s", a.Date, a.SlotLabel),
			Body:    n.confirmationText(a),
			HTML:    n.confirmationHTML(a),
		}
		if err := n.email.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("patient confirmation: %w", err))
		}
	}

	if n.adminEmail != "" {
		msg := EmailMessage{
			To:      n.adminEmail,
			Subject: fmt.Sprintf("New appointment: %s on %s at %s", a.Name, a.Date, a.SlotLabel),
			Body:    n.adminCopyText(a),
		}
		if err := n.email.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("admin copy: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (n *Notifier) SendCancellation(ctx context.Context, a AppointmentNotice) error {
	if a.Email == "" {
		n.logger.Debug().Str("appointment_id", a.AppointmentID).Msg("no patient email, skipping cancellation notice")
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", a.Name)
	fmt.Fprintf(&b, "Your %s appointment at %s on %s at %s has been cancelled.\n", a.Service, n.clinicName, a.Date, a.SlotLabel)
	b.WriteString("Please book a new time if you still need a visit.\n")

	return n.email.Send(ctx, EmailMessage{
		To:      a.Email,
		ToName:  a.Name,
		Subject: fmt.Sprintf("Appointment cancelled for %s at %s", a.Date, a.SlotLabel),
		Body:    b.String(),
	})
}

func (n *Notifier) SendVerificationCode(ctx context.Context, phone, code string) error {
	body := fmt.Sprintf("Your %s verification code is %s", n.clinicName, code)
	return n.sms.SendSMS(ctx, phone, body)
}

func (n *Notifier) confirmationText(a AppointmentNotice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", a.Name)
	fmt.Fprintf(&b, "Your appointment at %s is confirmed.\n\n", n.clinicName)
	fmt.Fprintf(&b, "Date: %s\nTime: %s\nService: %s\n", a.Date, a.SlotLabel, a.Service)
	if a.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", a.Notes)
	}
	fmt.Fprintf(&b, "Reference: %s\n", a.AppointmentID)
	return b.String()
}

func (n *Notifier) confirmationHTML(a AppointmentNotice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hello %s,</p>", html.EscapeString(a.Name))
	fmt.Fprintf(&b, "<p>Your appointment at %s is confirmed.</p><ul>", html.EscapeString(n.clinicName))
	fmt.Fprintf(&b, "<li><strong>Date:</strong> %s</li>", html.EscapeString(a.Date))
	fmt.Fprintf(&b, "<li><strong>Time:</strong> %s</li>", html.EscapeString(a.SlotLabel))
	fmt.Fprintf(&b, "<li><strong>Service:</strong> %s</li>", html.EscapeString(a.Service))
	if a.Notes != "" {
		fmt.Fprintf(&b, "<li><strong>Notes:</strong> %s</li>", html.EscapeString(a.Notes))
	}
	fmt.Fprintf(&b, "</ul><p>Reference: %s</p>", html.EscapeString(a.AppointmentID))
	return b.String()
}

func (n *Notifier) adminCopyText(a AppointmentNotice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Patient: %s\nPhone: %s\nEmail: %s\n", a.Name, a.Phone, a.Email)
	fmt.Fprintf(&b, "Date: %s\nTime: %s\nService: %s\n", a.Date, a.SlotLabel, a.Service)
	if a.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", a.Notes)
	}
	fmt.Fprintf(&b, "Appointment: %s\n", a.AppointmentID)
	return b.String()
}
