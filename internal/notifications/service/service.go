// Package service implements the notification dispatcher: validated events
// become pending log records, go out through the active message channel, and
// end up marked sent or failed. Webhook receipts and the retry and purge
// sweeps mutate the same log.
package service

import (
	"context"
	"errors"
	"time"

	"breed_site_backend/internal/notifications/repository"
	"breed_site_backend/internal/notifications/transport"
	"breed_site_backend/internal/whatsapp"
	"breed_site_backend/platform/apperr"
	"breed_site_backend/platform/logger"
	"breed_site_backend/platform/phone"
)

// Dispatcher owns the notification log and the outbound channel.
type Dispatcher struct {
	store           repository.Store
	channel         whatsapp.Channel
	operatorPhone   string
	retryMax        int
	purgeAfter      time.Duration
	providerTimeout time.Duration
	log             *logger.Logger
	now             func() time.Time
	newID           func(time.Time) string
}

func NewDispatcher(store repository.Store, channel whatsapp.Channel, operatorPhone string,
	retryMax int, purgeAfter, providerTimeout time.Duration, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		store:           store,
		channel:         channel,
		operatorPhone:   phone.NormalizeZA(operatorPhone),
		retryMax:        retryMax,
		purgeAfter:      purgeAfter,
		providerTimeout: providerTimeout,
		log:             log,
		now:             time.Now,
		newID:           repository.NewID,
	}
}

// Dispatch validates the event, records it as pending, attempts delivery and
// records the outcome. The returned record reflects the final state; on a
// provider failure both the failed record and an error are returned.
func (d *Dispatcher) Dispatch(ctx context.Context, event *transport.Event, recipient string) (transport.Record, error) {
	if err := event.Validate(); err != nil {
		return transport.Record{}, err
	}

	// The type was validated above, so a missing builder is a bug in this
	// package, not bad input.
	message, err := buildMessage(event)
	if err != nil {
		return transport.Record{}, apperr.Wrap(apperr.KindInternal, "notification type has no message builder", err)
	}

	if recipient == "" {
		recipient = d.operatorPhone
	} else {
		recipient = phone.NormalizeZA(recipient)
	}

	created := d.now()
	rec := transport.Record{
		ID:        d.newID(created),
		Type:      event.Type,
		Data:      event.Data,
		Recipient: recipient,
		Status:    transport.StatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := d.store.Create(ctx, rec); err != nil {
		return transport.Record{}, err
	}

	rec = d.attempt(ctx, rec, message)
	if rec.Status == transport.StatusFailed {
		return rec, apperr.Unavailable("notification dispatch failed: " + rec.Error)
	}
	return rec, nil
}

// attempt sends message for rec and persists the outcome. The returned record
// carries the resulting status, message id and error.
func (d *Dispatcher) attempt(ctx context.Context, rec transport.Record, message string) transport.Record {
	sendCtx, cancel := context.WithTimeout(ctx, d.providerTimeout)
	defer cancel()

	res, err := d.channel.Send(sendCtx, rec.Recipient, message)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		rec.Status = transport.StatusFailed
		rec.Error = reason
		if markErr := d.store.MarkFailed(ctx, rec.ID, reason); markErr != nil {
			d.log.DatabaseError("notifications.mark_failed", markErr)
		}
		d.log.DispatchOutcome(rec.ID, rec.Type, transport.StatusFailed, err)
		return rec
	}

	rec.Status = transport.StatusSent
	rec.MessageID = res.MessageID
	rec.Error = ""
	if markErr := d.store.MarkSent(ctx, rec.ID, res.MessageID); markErr != nil {
		d.log.DatabaseError("notifications.mark_sent", markErr)
	}
	d.log.DispatchOutcome(rec.ID, rec.Type, transport.StatusSent, nil)
	return rec
}

// Notify implements the best-effort operator alert used by the quote and
// contact flows. Dispatch failures are logged and swallowed; an alert must
// never fail the business operation that triggered it.
func (d *Dispatcher) Notify(ctx context.Context, kind string, data map[string]any) {
	event := &transport.Event{Type: kind, Data: data}
	if _, err := d.Dispatch(ctx, event, ""); err != nil {
		d.log.Warn("operator notification failed", "kind", kind, "error", err.Error())
	}
}

// RetrySweep re-attempts failed records that have retries left. Each attempt
// counts against the record's retry budget whether or not it succeeds.
func (d *Dispatcher) RetrySweep(ctx context.Context) (attempted, succeeded int, err error) {
	candidates, err := d.store.RetryCandidates(ctx, d.retryMax, 100)
	if err != nil {
		return 0, 0, err
	}

	for _, rec := range candidates {
		if err := d.store.IncrementRetry(ctx, rec.ID); err != nil {
			d.log.DatabaseError("notifications.increment_retry", err)
			continue
		}

		event := &transport.Event{Type: rec.Type, Data: rec.Data}
		message, buildErr := buildMessage(event)
		if buildErr != nil {
			d.log.Warn("retry skipped, no message builder", "logId", rec.ID, "type", rec.Type)
			continue
		}

		attempted++
		if outcome := d.attempt(ctx, rec, message); outcome.Status == transport.StatusSent {
			succeeded++
		}
	}

	d.log.Info("retry sweep finished", "attempted", attempted, "succeeded", succeeded)
	return attempted, succeeded, nil
}

// Purge deletes records older than the configured retention window.
func (d *Dispatcher) Purge(ctx context.Context) (int64, error) {
	cutoff := d.now().Add(-d.purgeAfter)
	purged, err := d.store.Purge(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	d.log.Info("notification log purged", "purged", purged, "cutoff", cutoff)
	return purged, nil
}

// ApplyStatusUpdate applies a provider delivery receipt to the record with
// the given provider message id. Receipts for unknown message ids and
// receipts that would downgrade a record are ignored.
func (d *Dispatcher) ApplyStatusUpdate(ctx context.Context, messageID, status string) {
	rec, err := d.store.ApplyProviderStatus(ctx, messageID, status)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			d.log.Debug("receipt ignored", "messageId", messageID, "status", status)
			return
		}
		d.log.Warn("receipt not applied", "messageId", messageID, "status", status, "error", err.Error())
		return
	}
	d.log.Info("delivery receipt applied", "logId", rec.ID, "status", rec.Status)
}

// Get returns a single log record.
func (d *Dispatcher) Get(ctx context.Context, id string) (transport.Record, error) {
	return d.store.GetByID(ctx, id)
}

// List returns log records newest first with the total count for the filter.
func (d *Dispatcher) List(ctx context.Context, status, notifType string, limit, offset int) ([]transport.Record, int, error) {
	if status != "" && !transport.KnownStatus(status) {
		return nil, 0, apperr.Validation("unknown status filter: " + status)
	}
	return d.store.List(ctx, status, notifType, limit, offset)
}

// Stats returns per-status record counts.
func (d *Dispatcher) Stats(ctx context.Context) (map[string]int, error) {
	return d.store.Stats(ctx)
}

// PingChannel verifies the active channel's credentials.
func (d *Dispatcher) PingChannel(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, d.providerTimeout)
	defer cancel()
	return d.channel.Ping(pingCtx)
}

// ChannelName names the active channel.
func (d *Dispatcher) ChannelName() string {
	return d.channel.Name()
}
