package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"breed_site_backend/internal/notifications/transport"
	"breed_site_backend/platform/apperr"
)

// Memory is an in-memory Store used by tests.
type Memory struct {
	mu      sync.Mutex
	records map[string]transport.Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]transport.Record)}
}

func (m *Memory) Create(ctx context.Context, rec transport.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *Memory) GetByID(ctx context.Context, id string) (transport.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return transport.Record{}, apperr.NotFound("notification not found")
	}
	return rec, nil
}

func (m *Memory) List(ctx context.Context, status, notifType string, limit, offset int) ([]transport.Record, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]transport.Record, 0, len(m.records))
	for _, rec := range m.records {
		if status != "" && rec.Status != status {
			continue
		}
		if notifType != "" && rec.Type != notifType {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset >= total {
		return []transport.Record{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *Memory) MarkSent(ctx context.Context, id, messageID string) error {
	return m.update(id, func(rec *transport.Record) {
		rec.Status = transport.StatusSent
		rec.MessageID = messageID
		rec.Error = ""
	})
}

func (m *Memory) MarkFailed(ctx context.Context, id, errMsg string) error {
	return m.update(id, func(rec *transport.Record) {
		rec.Status = transport.StatusFailed
		rec.Error = errMsg
	})
}

func (m *Memory) IncrementRetry(ctx context.Context, id string) error {
	return m.update(id, func(rec *transport.Record) {
		rec.RetryCount++
	})
}

func (m *Memory) ApplyProviderStatus(ctx context.Context, messageID, status string) (transport.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, rec := range m.records {
		if rec.MessageID != messageID {
			continue
		}
		switch status {
		case transport.StatusFailed:
			if rec.Status != transport.StatusDelivered && rec.Status != transport.StatusRead {
				rec.Status = transport.StatusFailed
			}
		case transport.StatusSent:
			// replayed receipt, nothing to change
		default:
			if !transport.KnownStatus(status) {
				return transport.Record{}, apperr.Validation("unknown provider status: " + status)
			}
			if transport.IsUpgrade(rec.Status, status) {
				rec.Status = status
			} else {
				return transport.Record{}, apperr.NotFound("receipt does not upgrade record")
			}
		}
		rec.UpdatedAt = time.Now()
		m.records[id] = rec
		return rec, nil
	}
	return transport.Record{}, apperr.NotFound("no notification for message id")
}

func (m *Memory) RetryCandidates(ctx context.Context, maxRetry, limit int) ([]transport.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := make([]transport.Record, 0)
	for _, rec := range m.records {
		if rec.Status == transport.StatusFailed && rec.RetryCount < maxRetry {
			candidates = append(candidates, rec)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (m *Memory) Purge(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var purged int64
	for id, rec := range m.records {
		if rec.CreatedAt.Before(before) {
			delete(m.records, id)
			purged++
		}
	}
	return purged, nil
}

func (m *Memory) Stats(ctx context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make(map[string]int)
	for _, rec := range m.records {
		stats[rec.Status]++
	}
	return stats, nil
}

func (m *Memory) update(id string, mutate func(*transport.Record)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return apperr.NotFound("notification not found")
	}
	mutate(&rec)
	rec.UpdatedAt = time.Now()
	m.records[id] = rec
	return nil
}
