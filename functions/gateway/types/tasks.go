package types

import (
	"encoding/json"
	"time"
)

// QueueTask is the envelope published to the task stream. Kind selects the
// worker routine; Payload is the kind-specific body.
type QueueTask struct {
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt int64           `json:"enqueuedAt"`
}

func NewQueueTask(kind string, payload interface{}) (QueueTask, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return QueueTask{}, err
	}
	return QueueTask{
		Kind:       kind,
		Payload:    raw,
		EnqueuedAt: time.Now().Unix(),
	}, nil
}

// WebhookTask carries an acknowledged billing webhook event to the worker
type WebhookTask struct {
	Event BillingWebhookEvent `json:"event"`
}

// TicketAssetsTask asks the worker to generate the QR code and PDF for one
// issued ticket and email it to the attendee
type TicketAssetsTask struct {
	TicketId string `json:"ticketId"`
	EventId  string `json:"eventId"`
}
