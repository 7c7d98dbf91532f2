// Package email delivers transactional mail through Brevo or a plain SMTP
// server, selected by configuration. Both providers render the same embedded
// HTML templates.
package email

import (
	"context"

	"breed_site_backend/platform/config"
)

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte // raw file bytes (base64-encoded for Brevo)
	FileName string // e.g. "Breed_Industries_Quote_Q-2026-4821.pdf"
	MIMEType string // e.g. "application/pdf"
}

type Sender interface {
	SendQuoteEmail(ctx context.Context, toEmail, customerName, quoteNumber string, totalCents int64, pdfContent []byte) error
	SendContactAck(ctx context.Context, toEmail, name string) error
	SendContactMessage(ctx context.Context, name, fromEmail, phone, service, message string) error
	Enabled() bool
}

// NoopSender is used when no mail provider is configured. Every send succeeds
// silently; Enabled reports false so callers can refuse mail-dependent work.
type NoopSender struct{}

func (NoopSender) SendQuoteEmail(ctx context.Context, toEmail, customerName, quoteNumber string, totalCents int64, pdfContent []byte) error {
	return nil
}

func (NoopSender) SendContactAck(ctx context.Context, toEmail, name string) error { return nil }

func (NoopSender) SendContactMessage(ctx context.Context, name, fromEmail, phone, service, message string) error {
	return nil
}

func (NoopSender) Enabled() bool { return false }

// NewSender builds the configured mail provider, or a NoopSender when the
// provider's credentials are missing.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.IsEmailEnabled() {
		return NoopSender{}
	}
	switch cfg.GetMailProvider() {
	case "smtp":
		return NewSMTPSender(cfg)
	default:
		return NewBrevoSender(cfg)
	}
}
