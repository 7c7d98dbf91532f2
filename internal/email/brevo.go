package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"breed_site_backend/platform/apperr"
	"breed_site_backend/platform/config"
)

const brevoAPIURL = "https://api.brevo.com/v3/smtp/email"

// BrevoSender delivers mail through the Brevo transactional API.
type BrevoSender struct {
	apiKey       string
	fromName     string
	fromEmail    string
	contactInbox string
	baseURL      string
	client       *http.Client
}

type brevoAttachment struct {
	Content string `json:"content"` // base64-encoded file content
	Name    string `json:"name"`
}

type brevoEmailRequest struct {
	Sender struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"sender"`
	To []struct {
		Email string `json:"email"`
	} `json:"to"`
	ReplyTo *struct {
		Email string `json:"email"`
	} `json:"replyTo,omitempty"`
	Subject     string            `json:"subject"`
	HTMLContent string            `json:"htmlContent"`
	Attachment  []brevoAttachment `json:"attachment,omitempty"`
}

func NewBrevoSender(cfg config.EmailConfig) *BrevoSender {
	return &BrevoSender{
		apiKey:       cfg.GetBrevoAPIKey(),
		fromName:     cfg.GetEmailFromName(),
		fromEmail:    cfg.GetEmailFromAddress(),
		contactInbox: cfg.GetContactInbox(),
		baseURL:      brevoAPIURL,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (b *BrevoSender) Enabled() bool { return true }

func (b *BrevoSender) SendQuoteEmail(ctx context.Context, toEmail, customerName, quoteNumber string, totalCents int64, pdfContent []byte) error {
	content, err := quoteContent(customerName, quoteNumber, totalCents)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectQuoteFmt, quoteNumber)
	return b.send(ctx, toEmail, "", subject, content, Attachment{
		Content:  pdfContent,
		FileName: QuoteAttachmentName(quoteNumber),
		MIMEType: "application/pdf",
	})
}

func (b *BrevoSender) SendContactAck(ctx context.Context, toEmail, name string) error {
	content, err := contactAckContent(name)
	if err != nil {
		return err
	}
	return b.send(ctx, toEmail, "", subjectContactAck, content)
}

func (b *BrevoSender) SendContactMessage(ctx context.Context, name, fromEmail, phone, service, message string) error {
	if b.contactInbox == "" {
		return apperr.Configuration("Contact inbox is not configured.")
	}
	content, err := contactMessageContent(name, fromEmail, phone, service, message)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectContactMessageFmt, name)
	return b.send(ctx, b.contactInbox, fromEmail, subject, content)
}

func (b *BrevoSender) send(ctx context.Context, toEmail, replyTo, subject, htmlContent string, attachments ...Attachment) error {
	payload := brevoEmailRequest{
		Subject:     subject,
		HTMLContent: htmlContent,
	}
	payload.Sender.Name = b.fromName
	payload.Sender.Email = b.fromEmail
	payload.To = []struct {
		Email string `json:"email"`
	}{{Email: toEmail}}
	if replyTo != "" {
		payload.ReplyTo = &struct {
			Email string `json:"email"`
		}{Email: replyTo}
	}

	for _, att := range attachments {
		payload.Attachment = append(payload.Attachment, brevoAttachment{
			Content: base64.StdEncoding.EncodeToString(att.Content),
			Name:    att.FileName,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", b.apiKey)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("brevo send failed: status %d: %s", resp.StatusCode, string(data))
	}

	return nil
}
