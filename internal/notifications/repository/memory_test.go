package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"breed_site_backend/internal/notifications/transport"
	"breed_site_backend/platform/apperr"
)

func seedSentRecord(t *testing.T, m *Memory, id, messageID string) {
	t.Helper()
	ctx := context.Background()
	err := m.Create(ctx, transport.Record{
		ID:        id,
		Type:      "quote_ready",
		Recipient: "27821234567",
		Status:    transport.StatusPending,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.MarkSent(ctx, id, messageID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
}

func TestMemoryApplyProviderStatusUpgrades(t *testing.T) {
	m := NewMemory()
	seedSentRecord(t, m, "n1", "wamid.X")

	rec, err := m.ApplyProviderStatus(context.Background(), "wamid.X", transport.StatusDelivered)
	if err != nil {
		t.Fatalf("ApplyProviderStatus: %v", err)
	}
	if rec.Status != transport.StatusDelivered {
		t.Errorf("status = %q, want delivered", rec.Status)
	}
}

func TestMemoryApplyProviderStatusRejectsDowngrade(t *testing.T) {
	m := NewMemory()
	seedSentRecord(t, m, "n1", "wamid.X")
	ctx := context.Background()

	if _, err := m.ApplyProviderStatus(ctx, "wamid.X", transport.StatusRead); err != nil {
		t.Fatalf("upgrade to read: %v", err)
	}

	_, err := m.ApplyProviderStatus(ctx, "wamid.X", transport.StatusDelivered)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("error = %v, want not-found on a stale receipt", err)
	}
	if !strings.Contains(err.Error(), "does not upgrade") {
		t.Errorf("error %q should say the receipt does not upgrade the record", err)
	}

	rec, err := m.GetByID(ctx, "n1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.Status != transport.StatusRead {
		t.Errorf("status = %q, want read preserved", rec.Status)
	}
}

func TestMemoryApplyProviderStatusUnknownMessageID(t *testing.T) {
	m := NewMemory()
	seedSentRecord(t, m, "n1", "wamid.X")

	_, err := m.ApplyProviderStatus(context.Background(), "wamid.other", transport.StatusDelivered)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("error = %v, want not-found", err)
	}
	if !strings.Contains(err.Error(), "no notification for message id") {
		t.Errorf("error %q should say no record carries the message id", err)
	}
}
