package contact

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"breed_site_backend/platform/apperr"
	"breed_site_backend/platform/logger"
)

type fakeSender struct {
	enabled    bool
	messageErr error
	ackErr     error
	messages   []string
	acks       []string
}

func (f *fakeSender) SendQuoteEmail(ctx context.Context, toEmail, customerName, quoteNumber string, totalCents int64, pdfContent []byte) error {
	return nil
}

func (f *fakeSender) SendContactAck(ctx context.Context, toEmail, name string) error {
	f.acks = append(f.acks, toEmail)
	return f.ackErr
}

func (f *fakeSender) SendContactMessage(ctx context.Context, name, fromEmail, phone, service, message string) error {
	f.messages = append(f.messages, fromEmail)
	return f.messageErr
}

func (f *fakeSender) Enabled() bool { return f.enabled }

type fakeNotifier struct {
	kinds []string
	data  []map[string]any
}

func (f *fakeNotifier) Notify(ctx context.Context, kind string, data map[string]any) {
	f.kinds = append(f.kinds, kind)
	f.data = append(f.data, data)
}

func newContactRouter(t *testing.T, sender *fakeSender, notifier *fakeNotifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := NewService(sender, notifier, logger.New("test"), 5*time.Second)
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func postContact(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestContactRejectsMissingFields(t *testing.T) {
	r := newContactRouter(t, &fakeSender{enabled: true}, &fakeNotifier{})

	cases := []string{
		`{"email":"jane@x.com","message":"Hi"}`,
		`{"name":"Jane","message":"Hi"}`,
		`{"name":"Jane","email":"jane@x.com"}`,
		`{"name":"  ","email":"jane@x.com","message":"Hi"}`,
	}
	for _, body := range cases {
		if w := postContact(r, body); w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestContactFailsWhenMailNotConfigured(t *testing.T) {
	sender := &fakeSender{enabled: false}
	r := newContactRouter(t, sender, &fakeNotifier{})

	w := postContact(r, `{"name":"Jane","email":"jane@x.com","message":"Hi"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Email service is not configured.") {
		t.Errorf("body = %s", w.Body.String())
	}
	if len(sender.messages) != 0 {
		t.Errorf("no mail must go out when the provider is not configured")
	}
}

func TestContactSuccessForwardsAndAcknowledges(t *testing.T) {
	sender := &fakeSender{enabled: true}
	notifier := &fakeNotifier{}
	r := newContactRouter(t, sender, notifier)

	w := postContact(r, `{"name":"Jane","email":"jane@x.com","phone":"0821234567","service":"Logo Design","message":"Hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"success":true`) {
		t.Errorf("body = %s", w.Body.String())
	}
	if len(sender.messages) != 1 || sender.messages[0] != "jane@x.com" {
		t.Errorf("forwarded messages = %v", sender.messages)
	}
	if len(sender.acks) != 1 || sender.acks[0] != "jane@x.com" {
		t.Errorf("acks = %v", sender.acks)
	}
	if len(notifier.kinds) != 1 || notifier.kinds[0] != "new_client_request" {
		t.Fatalf("notifications = %v", notifier.kinds)
	}
	if notifier.data[0]["phone"] != "27821234567" {
		t.Errorf("notification phone = %v, want normalized", notifier.data[0]["phone"])
	}
}

func TestContactMissingInboxFailsTheRequest(t *testing.T) {
	sender := &fakeSender{enabled: true, messageErr: apperr.Configuration("Contact inbox is not configured.")}
	notifier := &fakeNotifier{}
	r := newContactRouter(t, sender, notifier)

	w := postContact(r, `{"name":"Jane","email":"jane@x.com","message":"Hi"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 when the inbox is missing", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Contact inbox is not configured.") {
		t.Errorf("body = %s", w.Body.String())
	}
	if len(sender.acks) != 0 {
		t.Errorf("no acknowledgement must go out when the message was never delivered")
	}
	if len(notifier.kinds) != 0 {
		t.Errorf("no operator alert must go out when the message was never delivered")
	}
}

func TestContactProviderFailureReturnsError(t *testing.T) {
	sender := &fakeSender{enabled: true, messageErr: errors.New("brevo send failed: status 500")}
	r := newContactRouter(t, sender, &fakeNotifier{})

	w := postContact(r, `{"name":"Jane","email":"jane@x.com","message":"Hi"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestContactAckFailureDoesNotFailRequest(t *testing.T) {
	sender := &fakeSender{enabled: true, ackErr: errors.New("mailbox full")}
	r := newContactRouter(t, sender, &fakeNotifier{})

	w := postContact(r, `{"name":"Jane","email":"jane@x.com","message":"Hi"}`)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 despite ack failure", w.Code)
	}
}
