// Package webhook receives inbound provider callbacks: the subscription
// verification handshake, inbound messages and delivery receipts.
package webhook

// expectedObject is the top-level discriminator of WhatsApp Business
// webhook payloads. Payloads carrying anything else are acknowledged but
// not processed.
const expectedObject = "whatsapp_business_account"

// Payload mirrors the provider's nested entry/changes/value envelope.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []inboundMessage `json:"messages"`
	Statuses         []statusUpdate   `json:"statuses"`
}

type inboundMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
}

type statusUpdate struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// Message is a flattened inbound message record.
type Message struct {
	From      string
	ID        string
	Timestamp string
	Type      string
	Text      string
}

// Receipt is a flattened delivery receipt correlated to an outbound send by
// the provider message id.
type Receipt struct {
	MessageID string
	Status    string
	Recipient string
}

// Extract flattens the nested payload into message and receipt lists. The
// second return value reports whether the payload matched the expected
// discriminator; mismatches are not errors, just unprocessed payloads.
func Extract(p *Payload) ([]Message, []Receipt, bool) {
	if p.Object != expectedObject {
		return nil, nil, false
	}

	var messages []Message
	var receipts []Receipt
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				flattened := Message{
					From:      msg.From,
					ID:        msg.ID,
					Timestamp: msg.Timestamp,
					Type:      msg.Type,
				}
				if msg.Text != nil {
					flattened.Text = msg.Text.Body
				}
				messages = append(messages, flattened)
			}
			for _, status := range change.Value.Statuses {
				receipts = append(receipts, Receipt{
					MessageID: status.ID,
					Status:    status.Status,
					Recipient: status.RecipientID,
				})
			}
		}
	}
	return messages, receipts, true
}
