package types

import (
	"context"

	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Ticket is a single admission record issued from a bulk registration
type Ticket struct {
	Id                 string `json:"id" dynamodbav:"id"`
	EventId            string `json:"eventId" dynamodbav:"eventId"`
	UserId             string `json:"userId" dynamodbav:"userId"`
	BulkRegistrationId string `json:"bulkRegistrationId" dynamodbav:"bulkRegistrationId"`
	AttendeeName       string `json:"attendeeName" dynamodbav:"attendeeName"`
	AttendeeEmail      string `json:"attendeeEmail" dynamodbav:"attendeeEmail"`
	AttendeePhone      string `json:"attendeePhone,omitempty" dynamodbav:"attendeePhone"`
	AttendeeIndex      int    `json:"attendeeIndex" dynamodbav:"attendeeIndex"`
	Status             string `json:"status" dynamodbav:"status"`
	QRCode             string `json:"qrCode,omitempty" dynamodbav:"qrCode"`
	CreatedAt          int64  `json:"createdAt" dynamodbav:"createdAt"`
}

// TicketIssuance is the input to the all-or-nothing ticket issuance write. The
// registration must still be pending and the event must have headroom for
// Quantity more attendees at commit time or the whole batch is rejected.
type TicketIssuance struct {
	Registration BulkRegistration
	Event        Event
	PaymentRef   string
}

type TicketServiceInterface interface {
	IssueTickets(ctx context.Context, dynamodbClient DynamoDBAPI, issuance TicketIssuance) ([]Ticket, error)
	GetTicketById(ctx context.Context, dynamodbClient DynamoDBAPI, id string) (*Ticket, error)
	GetTicketsByUserID(ctx context.Context, dynamodbClient DynamoDBAPI, userId string, limit int32, startKey string) ([]Ticket, map[string]dynamodb_types.AttributeValue, error)
	GetTicketsByBulkRegistrationID(ctx context.Context, dynamodbClient DynamoDBAPI, bulkRegistrationId string) ([]Ticket, error)
	UpdateTicketQRCode(ctx context.Context, dynamodbClient DynamoDBAPI, id, qrCode string) error
}
