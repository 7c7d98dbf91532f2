package webhook

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 24 * time.Hour

// Dedup suppresses webhook replays. Providers redeliver events until they
// get a 2xx, so the same message or receipt id can arrive more than once.
type Dedup struct {
	client *redis.Client
}

// NewDedup wraps the given Redis client. A nil client disables deduplication
// and every event is treated as first-seen.
func NewDedup(client *redis.Client) *Dedup {
	return &Dedup{client: client}
}

// Seen records the event id and reports whether it was already recorded. On
// a Redis error the event is treated as unseen; processing a replay twice is
// preferable to dropping an event.
func (d *Dedup) Seen(ctx context.Context, eventID string) bool {
	if d == nil || d.client == nil || eventID == "" {
		return false
	}
	fresh, err := d.client.SetNX(ctx, "webhook:seen:"+eventID, 1, dedupTTL).Result()
	if err != nil {
		return false
	}
	return !fresh
}
