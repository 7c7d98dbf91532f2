// Package repository persists the notification log.
package repository

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"breed_site_backend/internal/notifications/transport"
)

// Store is the durable notification log. The Postgres implementation backs
// production; the in-memory implementation backs tests.
type Store interface {
	Create(ctx context.Context, rec transport.Record) error
	GetByID(ctx context.Context, id string) (transport.Record, error)
	// List returns records newest first, optionally filtered by status and
	// type, along with the total count for the filter.
	List(ctx context.Context, status, notifType string, limit, offset int) ([]transport.Record, int, error)
	MarkSent(ctx context.Context, id, messageID string) error
	MarkFailed(ctx context.Context, id, errMsg string) error
	IncrementRetry(ctx context.Context, id string) error
	// ApplyProviderStatus correlates a delivery receipt to a record by the
	// provider message id. Receipts only move a record up the
	// sent -> delivered -> read chain; a failed receipt marks the record
	// failed unless it was already delivered or read.
	ApplyProviderStatus(ctx context.Context, messageID, status string) (transport.Record, error)
	// RetryCandidates returns failed records with fewer than maxRetry retry
	// attempts, oldest first.
	RetryCandidates(ctx context.Context, maxRetry, limit int) ([]transport.Record, error)
	// Purge deletes records created before the cutoff and returns the count.
	Purge(ctx context.Context, before time.Time) (int64, error)
	Stats(ctx context.Context) (map[string]int, error)
}

// NewID returns a fresh record id in the form ntf_<unix ms>_<random>.
func NewID(now time.Time) string {
	return fmt.Sprintf("ntf_%d_%06d", now.UnixMilli(), rand.Intn(1000000))
}
