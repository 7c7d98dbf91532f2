package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"breed_site_backend/platform/logger"
)

type webhookConfigStub struct{ token string }

func (c webhookConfigStub) GetWebhookVerifyToken() string { return c.token }

type recordingApplier struct {
	calls []string
}

func (a *recordingApplier) ApplyStatusUpdate(ctx context.Context, messageID, status string) {
	a.calls = append(a.calls, messageID+"="+status)
}

func newTestRouter(t *testing.T, applier StatusApplier, dedup *Dedup) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(webhookConfigStub{token: "verify-me"}, applier, dedup, logger.New("test"))
	h.RegisterRoutes(r)
	return r
}

const statusPayload = `{
	"object": "whatsapp_business_account",
	"entry": [{
		"id": "ENTRY1",
		"changes": [{
			"field": "messages",
			"value": {
				"messaging_product": "whatsapp",
				"statuses": [
					{"id": "wamid.A", "status": "delivered", "timestamp": "1756500000", "recipient_id": "27821234567"}
				],
				"messages": [
					{"from": "27835551234", "id": "wamid.IN1", "timestamp": "1756500001", "type": "text", "text": {"body": "Hello"}}
				]
			}
		}]
	}]
}`

func TestVerifyEchoesChallenge(t *testing.T) {
	r := newTestRouter(t, &recordingApplier{}, NewDedup(nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=42abc", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "42abc" {
		t.Errorf("body = %q, want the raw challenge", w.Body.String())
	}
}

func TestVerifyRejectsBadToken(t *testing.T) {
	r := newTestRouter(t, &recordingApplier{}, NewDedup(nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=42abc", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestReceiveAppliesStatuses(t *testing.T) {
	applier := &recordingApplier{}
	r := newTestRouter(t, applier, NewDedup(nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader(statusPayload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(applier.calls) != 1 || applier.calls[0] != "wamid.A=delivered" {
		t.Errorf("applied receipts = %v", applier.calls)
	}
	if !strings.Contains(w.Body.String(), `"status":"processed"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestReceiveAcknowledgesForeignObject(t *testing.T) {
	applier := &recordingApplier{}
	r := newTestRouter(t, applier, NewDedup(nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook",
		strings.NewReader(`{"object": "instagram", "entry": []}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"received"`) {
		t.Errorf("body = %s", w.Body.String())
	}
	if len(applier.calls) != 0 {
		t.Errorf("foreign payload must not be processed, calls = %v", applier.calls)
	}
}

func TestReceiveDeduplicatesReplays(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	applier := &recordingApplier{}
	r := newTestRouter(t, applier, NewDedup(client))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader(statusPayload))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d", i, w.Code)
		}
	}

	if len(applier.calls) != 1 {
		t.Errorf("replayed receipt applied %d times, want 1", len(applier.calls))
	}
}

func TestExtractFlattensNestedPayload(t *testing.T) {
	payload := &Payload{
		Object: "whatsapp_business_account",
		Entry: []Entry{{
			ID: "E1",
			Changes: []Change{{
				Field: "messages",
				Value: Value{
					Messages: []inboundMessage{{
						From: "27835551234", ID: "wamid.IN1", Timestamp: "1756500001", Type: "text",
						Text: &struct {
							Body string `json:"body"`
						}{Body: "Hello"},
					}},
					Statuses: []statusUpdate{
						{ID: "wamid.A", Status: "read", RecipientID: "27821234567"},
					},
				},
			}},
		}},
	}

	messages, receipts, processed := Extract(payload)
	if !processed {
		t.Fatal("payload should be processed")
	}
	if len(messages) != 1 || messages[0].Text != "Hello" || messages[0].From != "27835551234" {
		t.Errorf("messages = %+v", messages)
	}
	if len(receipts) != 1 || receipts[0].MessageID != "wamid.A" || receipts[0].Status != "read" {
		t.Errorf("receipts = %+v", receipts)
	}
}
