package types

import (
	"context"
)

// Event is a row in the events catalog. The ticketing handlers read events and
// adjust attendeeCount; event authoring is owned by a separate admin surface.
type Event struct {
	Id               string `json:"id" dynamodbav:"id"`
	Name             string `json:"name" dynamodbav:"name"`
	Description      string `json:"description,omitempty" dynamodbav:"description"`
	Venue            string `json:"venue,omitempty" dynamodbav:"venue"`
	StartTime        int64  `json:"startTime" dynamodbav:"startTime"`
	TicketPriceCents int64  `json:"ticketPriceCents" dynamodbav:"ticketPriceCents"`
	Currency         string `json:"currency" dynamodbav:"currency"`
	MaxAttendees     int64  `json:"maxAttendees" dynamodbav:"maxAttendees"`
	AttendeeCount    int64  `json:"attendeeCount" dynamodbav:"attendeeCount"`
	OwnerId          string `json:"ownerId,omitempty" dynamodbav:"ownerId"`
	Status           string `json:"status,omitempty" dynamodbav:"status"`
	CreatedAt        int64  `json:"createdAt,omitempty" dynamodbav:"createdAt"`
	UpdatedAt        int64  `json:"updatedAt,omitempty" dynamodbav:"updatedAt"`
}

// RemainingCapacity returns how many attendees the event can still admit, or
// -1 when maxAttendees is unset (unlimited).
func (e *Event) RemainingCapacity() int64 {
	if e.MaxAttendees <= 0 {
		return -1
	}
	remaining := e.MaxAttendees - e.AttendeeCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

type EventServiceInterface interface {
	GetEventById(ctx context.Context, dynamodbClient DynamoDBAPI, eventId string) (*Event, error)
}
