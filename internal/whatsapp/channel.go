// Package whatsapp holds the outbound message channel adapters. Exactly one
// channel is active per deployment, selected by configuration: the Cloud API
// channel sends template messages through the Meta Graph API, the gateway
// channel sends freeform messages through a Twilio-style REST gateway.
package whatsapp

import (
	"context"
	"fmt"

	"breed_site_backend/platform/config"
	"breed_site_backend/platform/logger"
)

// Result carries the provider's message identifier for an accepted send.
// Delivery receipts arriving later on the webhook are correlated by this id.
type Result struct {
	MessageID string
}

// Channel is a single outbound WhatsApp transport.
type Channel interface {
	// Send delivers body to the recipient phone number (digits only,
	// country code included). A nil error means the provider accepted the
	// message, not that it was delivered.
	Send(ctx context.Context, to, body string) (Result, error)
	// Ping verifies the channel's credentials against the provider without
	// sending a message.
	Ping(ctx context.Context) error
	Name() string
}

// NewChannel builds the channel selected by WHATSAPP_CHANNEL. Configuration
// validation guarantees the value is one of the known channels.
func NewChannel(cfg config.WhatsAppConfig, log *logger.Logger) (Channel, error) {
	switch cfg.GetWhatsAppChannel() {
	case "cloud":
		return NewCloudChannel(cfg, log), nil
	case "gateway":
		return NewGatewayChannel(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown whatsapp channel %q", cfg.GetWhatsAppChannel())
	}
}
