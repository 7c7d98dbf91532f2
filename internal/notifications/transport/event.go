// Package transport defines the notification event and record shapes shared
// by the dispatch service, the HTTP handlers and the store.
package transport

import (
	"fmt"
	"time"

	"breed_site_backend/platform/apperr"
)

// Notification types accepted by the dispatcher.
const (
	TypeNewClientRequest  = "new_client_request"
	TypeQuoteStatusUpdate = "quote_status_update"
	TypePaymentReceived   = "payment_received"
	TypeProjectMilestone  = "project_milestone"
)

// Delivery statuses of a notification record. A record starts pending, moves
// to sent or failed after the provider call, and may be upgraded to delivered
// or read by later webhook receipts.
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// requiredFields lists the data keys each notification type must carry.
var requiredFields = map[string][]string{
	TypeNewClientRequest:  {"name", "email", "phone", "service"},
	TypeQuoteStatusUpdate: {"client", "status"},
	TypePaymentReceived:   {"client", "amount"},
	TypeProjectMilestone:  {"project", "milestone"},
}

// Event is a request to notify the operator about a business occurrence.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Validate checks the event type and its required data fields.
func (e *Event) Validate() error {
	fields, ok := requiredFields[e.Type]
	if !ok {
		return apperr.Validation(fmt.Sprintf("unknown notification type: %s", e.Type))
	}
	for _, field := range fields {
		value, present := e.Data[field]
		if !present {
			return apperr.Validation(fmt.Sprintf("missing required field for %s: %s", e.Type, field))
		}
		if s, isString := value.(string); isString && s == "" {
			return apperr.Validation(fmt.Sprintf("missing required field for %s: %s", e.Type, field))
		}
	}
	return nil
}

// String returns the data value for key as a string, formatting non-string
// values with %v. Missing keys yield the empty string.
func (e *Event) String(key string) string {
	value, ok := e.Data[key]
	if !ok {
		return ""
	}
	if s, isString := value.(string); isString {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// Record is a durable entry in the notification log.
type Record struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Data       map[string]any `json:"data"`
	Recipient  string         `json:"recipient"`
	Status     string         `json:"status"`
	MessageID  string         `json:"messageId,omitempty"`
	Error      string         `json:"error,omitempty"`
	RetryCount int            `json:"retryCount"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// statusRank orders the upgrade chain sent -> delivered -> read. Provider
// receipts may only move a record up this chain, never back down.
var statusRank = map[string]int{
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// IsUpgrade reports whether a provider receipt with the given status may
// replace the current one.
func IsUpgrade(current, next string) bool {
	currentRank, ok := statusRank[current]
	if !ok {
		return false
	}
	nextRank, ok := statusRank[next]
	if !ok {
		return false
	}
	return nextRank > currentRank
}

// KnownStatus reports whether status is one of the record statuses.
func KnownStatus(status string) bool {
	switch status {
	case StatusPending, StatusSent, StatusFailed, StatusDelivered, StatusRead:
		return true
	}
	return false
}
