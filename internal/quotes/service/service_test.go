package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"breed_site_backend/internal/quotes/transport"
	"breed_site_backend/platform/apperr"
	"breed_site_backend/platform/logger"
)

type fakeRenderer struct {
	err    error
	output []byte
	calls  int
}

func (f *fakeRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

type fakeMailSender struct {
	enabled bool
	err     error
	sentTo  string
	sentPDF []byte
	number  string
}

func (f *fakeMailSender) SendQuoteEmail(ctx context.Context, toEmail, customerName, quoteNumber string, totalCents int64, pdfContent []byte) error {
	f.sentTo = toEmail
	f.sentPDF = pdfContent
	f.number = quoteNumber
	return f.err
}

func (f *fakeMailSender) Enabled() bool { return f.enabled }

type fakeArchiver struct {
	err     error
	objects []string
}

func (f *fakeArchiver) StoreQuotePDF(ctx context.Context, objectName string, content []byte) error {
	f.objects = append(f.objects, objectName)
	return f.err
}

type fakeQuoteNotifier struct {
	kinds []string
	data  []map[string]any
}

func (f *fakeQuoteNotifier) Notify(ctx context.Context, kind string, data map[string]any) {
	f.kinds = append(f.kinds, kind)
	f.data = append(f.data, data)
}

func validRequest() *transport.QuoteRequest {
	return &transport.QuoteRequest{
		CustomerName:  "Thandi Nkosi",
		CustomerEmail: "thandi@example.com",
		ProjectName:   "Rebrand",
		ContactPerson: "Sipho",
		Items: []transport.QuoteLineItem{
			{Name: "Logo Design", Quantity: 1, Rate: 2000},
			{Name: "Business Cards", Quantity: 2, Rate: 800},
		},
	}
}

func newTestService(t *testing.T, renderer DocumentRenderer, sender MailSender) *Service {
	t.Helper()
	svc := New(loadCatalog(t), renderer, sender, logger.New("test"), 5*time.Second, 5*time.Second)
	svc.numberFor = func(year int) string { return "Q-2026-4821" }
	return svc
}

func TestGenerateFailsWhenMailNotConfigured(t *testing.T) {
	svc := newTestService(t, &fakeRenderer{output: []byte("%PDF")}, &fakeMailSender{enabled: false})

	_, err := svc.Generate(context.Background(), validRequest())
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
	if !strings.Contains(err.Error(), "Email service is not configured.") {
		t.Errorf("err = %v", err)
	}
}

func TestGenerateFailsWithoutRenderer(t *testing.T) {
	svc := newTestService(t, nil, &fakeMailSender{enabled: true})

	_, err := svc.Generate(context.Background(), validRequest())
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
	if !strings.Contains(err.Error(), "Document service is not configured.") {
		t.Errorf("err = %v", err)
	}
}

func TestGenerateRejectsInvalidRequest(t *testing.T) {
	sender := &fakeMailSender{enabled: true}
	svc := newTestService(t, &fakeRenderer{output: []byte("%PDF")}, sender)

	req := validRequest()
	req.Items[0].Rate = -5
	_, err := svc.Generate(context.Background(), req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if sender.sentTo != "" {
		t.Error("no email must go out for an invalid request")
	}
}

func TestGenerateSuccess(t *testing.T) {
	renderer := &fakeRenderer{output: []byte("%PDF-1.4 content")}
	sender := &fakeMailSender{enabled: true}
	archiver := &fakeArchiver{}
	notifier := &fakeQuoteNotifier{}

	svc := newTestService(t, renderer, sender)
	svc.SetArchiver(archiver)
	svc.SetOperatorNotifier(notifier)

	number, err := svc.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if number != "Q-2026-4821" {
		t.Errorf("number = %q", number)
	}
	if renderer.calls != 1 {
		t.Errorf("renderer calls = %d", renderer.calls)
	}
	if sender.sentTo != "thandi@example.com" || string(sender.sentPDF) != "%PDF-1.4 content" {
		t.Errorf("sent = %q with %d bytes", sender.sentTo, len(sender.sentPDF))
	}
	if len(archiver.objects) != 1 || archiver.objects[0] != "Q-2026-4821.pdf" {
		t.Errorf("archived = %v", archiver.objects)
	}
	if len(notifier.kinds) != 1 || notifier.kinds[0] != "quote_status_update" {
		t.Fatalf("notifications = %v", notifier.kinds)
	}
	if notifier.data[0]["status"] != "generated" || notifier.data[0]["quoteNumber"] != "Q-2026-4821" {
		t.Errorf("notification data = %v", notifier.data[0])
	}
	// Subtotal 3600, 10% discount, total R3 240.00.
	if notifier.data[0]["total"] != "R3 240.00" {
		t.Errorf("notification total = %v", notifier.data[0]["total"])
	}
}

func TestGenerateRenderFailure(t *testing.T) {
	sender := &fakeMailSender{enabled: true}
	svc := newTestService(t, &fakeRenderer{err: errors.New("gotenberg /forms/chromium/convert/html returned 503")}, sender)

	_, err := svc.Generate(context.Background(), validRequest())
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
	if sender.sentTo != "" {
		t.Error("no email must go out when rendering fails")
	}
}

func TestGenerateRenderTimeoutCollapses(t *testing.T) {
	svc := newTestService(t, &fakeRenderer{err: context.DeadlineExceeded}, &fakeMailSender{enabled: true})

	_, err := svc.Generate(context.Background(), validRequest())
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Errorf("err = %v, want the literal timeout", err)
	}
}

func TestGenerateSendFailureStillReturnsNumber(t *testing.T) {
	sender := &fakeMailSender{enabled: true, err: errors.New("brevo send failed: status 500")}
	svc := newTestService(t, &fakeRenderer{output: []byte("%PDF")}, sender)

	number, err := svc.Generate(context.Background(), validRequest())
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
	if number != "Q-2026-4821" {
		t.Errorf("number = %q, the caller needs it to report partial success", number)
	}
	if !strings.Contains(err.Error(), "generated but email delivery failed") {
		t.Errorf("err = %v", err)
	}
}

func TestGenerateArchiveFailureIsNotFatal(t *testing.T) {
	sender := &fakeMailSender{enabled: true}
	svc := newTestService(t, &fakeRenderer{output: []byte("%PDF")}, sender)
	svc.SetArchiver(&fakeArchiver{err: errors.New("bucket unavailable")})

	if _, err := svc.Generate(context.Background(), validRequest()); err != nil {
		t.Errorf("archive failure must not fail generation: %v", err)
	}
	if sender.sentTo == "" {
		t.Error("email must still go out when archiving fails")
	}
}
