package types

import (
	"context"

	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// AttendeeDetail is one attendee inside a bulk registration request
type AttendeeDetail struct {
	Name  string `json:"name" validate:"required" dynamodbav:"name"`
	Email string `json:"email" validate:"required,email" dynamodbav:"email"`
	Phone string `json:"phone,omitempty" dynamodbav:"phone"`
}

// BulkRegistration represents a group ticket purchase for a single event
type BulkRegistration struct {
	Id               string           `json:"id" dynamodbav:"id"`
	EventId          string           `json:"eventId" dynamodbav:"eventId"`
	UserId           string           `json:"userId" dynamodbav:"userId"`
	Quantity         int64            `json:"quantity" dynamodbav:"quantity"`
	TotalAmountCents int64            `json:"totalAmountCents" dynamodbav:"totalAmountCents"`
	Currency         string           `json:"currency" dynamodbav:"currency"`
	Status           string           `json:"status" dynamodbav:"status"`
	AttendeeDetails  []AttendeeDetail `json:"attendeeDetails" dynamodbav:"attendeeDetails"`
	TicketIds        []string         `json:"ticketIds,omitempty" dynamodbav:"ticketIds,omitempty"`
	PaymentRef       string           `json:"paymentRef,omitempty" dynamodbav:"paymentRef"`
	PaymentUrl       string           `json:"paymentUrl,omitempty" dynamodbav:"paymentUrl"`
	CreatedAt        int64            `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt        int64            `json:"updatedAt" dynamodbav:"updatedAt"`
}

// BulkRegistrationInsert is the data required to create a new bulk registration
type BulkRegistrationInsert struct {
	EventId          string           `json:"eventId" validate:"required" dynamodbav:"eventId"`
	UserId           string           `json:"userId" validate:"required" dynamodbav:"userId"`
	Quantity         int64            `json:"quantity" validate:"required,min=2,max=50" dynamodbav:"quantity"`
	TotalAmountCents int64            `json:"totalAmountCents" dynamodbav:"totalAmountCents"`
	Currency         string           `json:"currency" validate:"required" dynamodbav:"currency"`
	Status           string           `json:"status" validate:"required" dynamodbav:"status"`
	AttendeeDetails  []AttendeeDetail `json:"attendeeDetails" validate:"required,min=2,max=50,dive" dynamodbav:"attendeeDetails"`
	PaymentRef       string           `json:"paymentRef,omitempty" dynamodbav:"paymentRef"`
	PaymentUrl       string           `json:"paymentUrl,omitempty" dynamodbav:"paymentUrl"`
	CreatedAt        int64            `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt        int64            `json:"updatedAt" dynamodbav:"updatedAt"`
}

// BulkRegistrationUpdate carries the mutable fields of a bulk registration
type BulkRegistrationUpdate struct {
	Status     string `json:"status,omitempty" dynamodbav:"status"`
	PaymentRef string `json:"paymentRef,omitempty" dynamodbav:"paymentRef"`
	PaymentUrl string `json:"paymentUrl,omitempty" dynamodbav:"paymentUrl"`
}

type BulkRegistrationServiceInterface interface {
	InsertBulkRegistration(ctx context.Context, dynamodbClient DynamoDBAPI, registration BulkRegistrationInsert) (*BulkRegistration, error)
	GetBulkRegistrationById(ctx context.Context, dynamodbClient DynamoDBAPI, id string) (*BulkRegistration, error)
	GetBulkRegistrationsByUserID(ctx context.Context, dynamodbClient DynamoDBAPI, userId string, limit int32, startKey string) ([]BulkRegistration, map[string]dynamodb_types.AttributeValue, error)
	UpdateBulkRegistration(ctx context.Context, dynamodbClient DynamoDBAPI, id string, registration BulkRegistrationUpdate) (*BulkRegistration, error)
	DeletePendingBulkRegistration(ctx context.Context, dynamodbClient DynamoDBAPI, id string) error
}
