package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"breed_site_backend/internal/notifications/repository"
	"breed_site_backend/internal/notifications/transport"
	"breed_site_backend/internal/whatsapp"
	"breed_site_backend/platform/apperr"
	"breed_site_backend/platform/logger"
)

type fakeChannel struct {
	err       error
	messageID string
	sent      []string
	lastTo    string
}

func (f *fakeChannel) Send(ctx context.Context, to, body string) (whatsapp.Result, error) {
	f.lastTo = to
	f.sent = append(f.sent, body)
	if f.err != nil {
		return whatsapp.Result{}, f.err
	}
	return whatsapp.Result{MessageID: f.messageID}, nil
}

func (f *fakeChannel) Ping(ctx context.Context) error { return f.err }
func (f *fakeChannel) Name() string                   { return "fake" }

func newTestDispatcher(channel whatsapp.Channel) (*Dispatcher, *repository.Memory) {
	store := repository.NewMemory()
	d := NewDispatcher(store, channel, "0821234567", 3, 720*time.Hour, 5*time.Second, logger.New("test"))
	return d, store
}

func validEvent() *transport.Event {
	return &transport.Event{
		Type: transport.TypeNewClientRequest,
		Data: map[string]any{
			"name":    "Thandi Nkosi",
			"email":   "thandi@example.com",
			"phone":   "0821234567",
			"service": "CIPC Registration",
		},
	}
}

func TestDispatchRejectsUnknownType(t *testing.T) {
	d, store := newTestDispatcher(&fakeChannel{messageID: "wamid.1"})

	_, err := d.Dispatch(context.Background(), &transport.Event{Type: "carrier_pigeon"}, "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}

	if stats, _ := store.Stats(context.Background()); len(stats) != 0 {
		t.Errorf("invalid event must not create a record, stats = %v", stats)
	}
}

func TestDispatchRejectsMissingFields(t *testing.T) {
	d, _ := newTestDispatcher(&fakeChannel{messageID: "wamid.1"})

	event := validEvent()
	delete(event.Data, "phone")
	_, err := d.Dispatch(context.Background(), event, "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestDispatchSuccessMarksSent(t *testing.T) {
	channel := &fakeChannel{messageID: "wamid.abc"}
	d, store := newTestDispatcher(channel)

	rec, err := d.Dispatch(context.Background(), validEvent(), "")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if rec.Status != transport.StatusSent {
		t.Errorf("status = %q, want sent", rec.Status)
	}
	if rec.MessageID != "wamid.abc" {
		t.Errorf("messageID = %q", rec.MessageID)
	}
	if channel.lastTo != "27821234567" {
		t.Errorf("recipient = %q, want normalized operator phone", channel.lastTo)
	}

	stored, err := store.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != transport.StatusSent || stored.MessageID != "wamid.abc" {
		t.Errorf("stored record = %+v", stored)
	}

	if len(channel.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(channel.sent))
	}
	body := channel.sent[0]
	for _, want := range []string{"New Client Request", "Thandi Nkosi", "thandi@example.com", "CIPC Registration"} {
		if !contains(body, want) {
			t.Errorf("message %q missing %q", body, want)
		}
	}
}

func TestDispatchFailureMarksFailed(t *testing.T) {
	channel := &fakeChannel{err: errors.New("gateway returned 401: bad token")}
	d, store := newTestDispatcher(channel)

	rec, err := d.Dispatch(context.Background(), validEvent(), "")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
	if rec.Status != transport.StatusFailed {
		t.Errorf("status = %q, want failed", rec.Status)
	}
	if !contains(rec.Error, "bad token") {
		t.Errorf("record error = %q", rec.Error)
	}

	stored, _ := store.GetByID(context.Background(), rec.ID)
	if stored.Status != transport.StatusFailed {
		t.Errorf("stored status = %q, want failed", stored.Status)
	}
}

func TestDispatchTimeoutCollapsesToLiteral(t *testing.T) {
	channel := &fakeChannel{err: context.DeadlineExceeded}
	d, _ := newTestDispatcher(channel)

	rec, _ := d.Dispatch(context.Background(), validEvent(), "")
	if rec.Error != "timeout" {
		t.Errorf("error = %q, want the literal timeout", rec.Error)
	}
}

func TestDispatchExplicitRecipientIsNormalized(t *testing.T) {
	channel := &fakeChannel{messageID: "wamid.1"}
	d, _ := newTestDispatcher(channel)

	_, err := d.Dispatch(context.Background(), validEvent(), "083 555 1234")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if channel.lastTo != "27835551234" {
		t.Errorf("recipient = %q", channel.lastTo)
	}
}

func TestRetrySweepRetriesFailedRecords(t *testing.T) {
	channel := &fakeChannel{err: errors.New("provider down")}
	d, store := newTestDispatcher(channel)

	rec, _ := d.Dispatch(context.Background(), validEvent(), "")
	if rec.Status != transport.StatusFailed {
		t.Fatalf("setup: status = %q", rec.Status)
	}

	// The provider recovers before the sweep runs.
	channel.err = nil
	channel.messageID = "wamid.retry"

	attempted, succeeded, err := d.RetrySweep(context.Background())
	if err != nil {
		t.Fatalf("RetrySweep: %v", err)
	}
	if attempted != 1 || succeeded != 1 {
		t.Errorf("attempted = %d, succeeded = %d", attempted, succeeded)
	}

	stored, _ := store.GetByID(context.Background(), rec.ID)
	if stored.Status != transport.StatusSent {
		t.Errorf("status after retry = %q, want sent", stored.Status)
	}
	if stored.RetryCount != 1 {
		t.Errorf("retryCount = %d, want 1", stored.RetryCount)
	}
	if stored.MessageID != "wamid.retry" {
		t.Errorf("messageID = %q", stored.MessageID)
	}
}

func TestRetrySweepSkipsExhaustedRecords(t *testing.T) {
	channel := &fakeChannel{err: errors.New("provider down")}
	d, store := newTestDispatcher(channel)

	rec, _ := d.Dispatch(context.Background(), validEvent(), "")
	for i := 0; i < 3; i++ {
		_ = store.IncrementRetry(context.Background(), rec.ID)
	}

	attempted, _, err := d.RetrySweep(context.Background())
	if err != nil {
		t.Fatalf("RetrySweep: %v", err)
	}
	if attempted != 0 {
		t.Errorf("attempted = %d, want 0 for an exhausted record", attempted)
	}
}

func TestPurgeDeletesOnlyOldRecords(t *testing.T) {
	channel := &fakeChannel{messageID: "wamid.1"}
	d, store := newTestDispatcher(channel)

	old, _ := d.Dispatch(context.Background(), validEvent(), "")
	fresh, _ := d.Dispatch(context.Background(), validEvent(), "")

	// Age the first record past the retention window.
	agedRec, _ := store.GetByID(context.Background(), old.ID)
	agedRec.CreatedAt = time.Now().Add(-721 * time.Hour)
	_ = store.Create(context.Background(), agedRec)

	purged, err := d.Purge(context.Background())
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
	if _, err := store.GetByID(context.Background(), old.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("aged record still present: %v", err)
	}
	if _, err := store.GetByID(context.Background(), fresh.ID); err != nil {
		t.Errorf("fresh record purged: %v", err)
	}
}

func TestApplyStatusUpdateUpgradesButNeverDowngrades(t *testing.T) {
	channel := &fakeChannel{messageID: "wamid.up"}
	d, store := newTestDispatcher(channel)

	rec, _ := d.Dispatch(context.Background(), validEvent(), "")

	d.ApplyStatusUpdate(context.Background(), "wamid.up", transport.StatusDelivered)
	stored, _ := store.GetByID(context.Background(), rec.ID)
	if stored.Status != transport.StatusDelivered {
		t.Fatalf("status = %q, want delivered", stored.Status)
	}

	d.ApplyStatusUpdate(context.Background(), "wamid.up", transport.StatusRead)
	stored, _ = store.GetByID(context.Background(), rec.ID)
	if stored.Status != transport.StatusRead {
		t.Fatalf("status = %q, want read", stored.Status)
	}

	// A late delivered receipt must not move the record back.
	d.ApplyStatusUpdate(context.Background(), "wamid.up", transport.StatusDelivered)
	stored, _ = store.GetByID(context.Background(), rec.ID)
	if stored.Status != transport.StatusRead {
		t.Errorf("status downgraded to %q", stored.Status)
	}
}

func TestApplyStatusUpdateIgnoresUnknownMessageID(t *testing.T) {
	d, store := newTestDispatcher(&fakeChannel{messageID: "wamid.1"})

	// Must not panic or create records.
	d.ApplyStatusUpdate(context.Background(), "wamid.unknown", transport.StatusDelivered)
	if stats, _ := store.Stats(context.Background()); len(stats) != 0 {
		t.Errorf("stats = %v, want empty", stats)
	}
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	d, _ := newTestDispatcher(&fakeChannel{})
	if _, _, err := d.List(context.Background(), "bogus", "", 20, 0); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
