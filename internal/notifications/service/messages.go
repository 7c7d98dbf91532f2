package service

import (
	"fmt"
	"strings"

	"breed_site_backend/internal/notifications/transport"
)

// messageBuilders maps each notification type to its message-building
// function. Event validation guarantees the type exists here; a miss after
// validation is a programming error.
var messageBuilders = map[string]func(*transport.Event) string{
	transport.TypeNewClientRequest:  newClientRequestMessage,
	transport.TypeQuoteStatusUpdate: quoteStatusUpdateMessage,
	transport.TypePaymentReceived:   paymentReceivedMessage,
	transport.TypeProjectMilestone:  projectMilestoneMessage,
}

func newClientRequestMessage(e *transport.Event) string {
	lines := []string{
		"New Client Request",
		"Name: " + e.String("name"),
		"Email: " + e.String("email"),
		"Phone: " + e.String("phone"),
		"Service: " + e.String("service"),
	}
	if msg := e.String("message"); msg != "" {
		lines = append(lines, "Message: "+msg)
	}
	return strings.Join(lines, "\n")
}

func quoteStatusUpdateMessage(e *transport.Event) string {
	lines := []string{
		"Quote Status Update",
		"Client: " + e.String("client"),
		"Status: " + e.String("status"),
	}
	if number := e.String("quoteNumber"); number != "" {
		lines = append(lines, "Quote: "+number)
	}
	if total := e.String("total"); total != "" {
		lines = append(lines, "Total: "+total)
	}
	return strings.Join(lines, "\n")
}

func paymentReceivedMessage(e *transport.Event) string {
	return strings.Join([]string{
		"Payment Received",
		"Client: " + e.String("client"),
		"Amount: " + e.String("amount"),
	}, "\n")
}

func projectMilestoneMessage(e *transport.Event) string {
	return strings.Join([]string{
		"Project Milestone Reached",
		"Project: " + e.String("project"),
		"Milestone: " + e.String("milestone"),
	}, "\n")
}

// buildMessage renders the outbound text for a validated event.
func buildMessage(e *transport.Event) (string, error) {
	builder, ok := messageBuilders[e.Type]
	if !ok {
		return "", fmt.Errorf("no message builder for notification type %s", e.Type)
	}
	return builder(e), nil
}
