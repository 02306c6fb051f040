package interfaces

import (
	"context"
	"errors"

	"github.com/eventpass/api/functions/gateway/types"
)

type PaymentServiceInterface interface {
	InitializePayment(ctx context.Context, request types.PaymentRequest) (*types.PaymentSession, error)
	VerifyPayment(ctx context.Context, reference string) (*types.PaymentVerification, error)
}

type EntitlementServiceInterface interface {
	GetSubscriberEntitlement(ctx context.Context, appUserId string) (*types.SubscriberEntitlement, error)
}

type EmailServiceInterface interface {
	SendTicketEmail(ctx context.Context, ticket types.Ticket, event types.Event, pdf []byte) error
}

type QRCodeServiceInterface interface {
	GeneratePNG(content string) ([]byte, error)
}

type TicketPDFServiceInterface interface {
	Render(ticket types.Ticket, event types.Event, qrPNG []byte) ([]byte, error)
}

// TaskHandler processes one dequeued task. A non-nil error leaves the message
// unacknowledged for redelivery.
type TaskHandler func(ctx context.Context, task types.QueueTask) error

type QueueServiceInterface interface {
	PublishMsg(ctx context.Context, job interface{}) error
	ConsumeTasks(ctx context.Context, workers int, handler TaskHandler) error
	Close() error
}

var ErrSubscriberNotFound = errors.New("subscriber not found")
