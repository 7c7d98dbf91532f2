package email

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"breed_site_backend/platform/apperr"
	"breed_site_backend/platform/config"
)

// SMTPSender implements the Sender interface using a direct SMTP connection
// via go-mail. It renders the same HTML templates as BrevoSender but delivers
// through the configured SMTP server.
type SMTPSender struct {
	host         string
	port         int
	username     string
	password     string
	fromName     string
	fromEmail    string
	contactInbox string
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:         cfg.GetSMTPHost(),
		port:         cfg.GetSMTPPort(),
		username:     cfg.GetSMTPUsername(),
		password:     cfg.GetSMTPPassword(),
		fromName:     cfg.GetEmailFromName(),
		fromEmail:    cfg.GetEmailFromAddress(),
		contactInbox: cfg.GetContactInbox(),
	}
}

func (s *SMTPSender) Enabled() bool { return true }

func (s *SMTPSender) SendQuoteEmail(ctx context.Context, toEmail, customerName, quoteNumber string, totalCents int64, pdfContent []byte) error {
	content, err := quoteContent(customerName, quoteNumber, totalCents)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectQuoteFmt, quoteNumber)
	return s.send(ctx, toEmail, subject, content, Attachment{
		Content:  pdfContent,
		FileName: QuoteAttachmentName(quoteNumber),
		MIMEType: "application/pdf",
	})
}

func (s *SMTPSender) SendContactAck(ctx context.Context, toEmail, name string) error {
	content, err := contactAckContent(name)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectContactAck, content)
}

func (s *SMTPSender) SendContactMessage(ctx context.Context, name, fromEmail, phone, service, message string) error {
	if s.contactInbox == "" {
		return apperr.Configuration("Contact inbox is not configured.")
	}
	content, err := contactMessageContent(name, fromEmail, phone, service, message)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectContactMessageFmt, name)
	return s.send(ctx, s.contactInbox, subject, content)
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string, attachments ...Attachment) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	for _, att := range attachments {
		msg.AttachReader(att.FileName, bytes.NewReader(att.Content))
	}

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
