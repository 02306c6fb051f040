package dynamodb_service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

var eventsTableName = helpers.GetDbTableName(constants.EventsTablePrefix)

func init() {
	eventsTableName = helpers.GetDbTableName(constants.EventsTablePrefix)
}

type EventService struct{}

func NewEventService() internal_types.EventServiceInterface {
	return &EventService{}
}

func (s *EventService) GetEventById(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId string) (*internal_types.Event, error) {
	if eventsTableName == "" {
		return nil, fmt.Errorf("ERR: eventsTableName is empty")
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(eventsTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"id": &dynamodb_types.AttributeValueMemberS{Value: eventId},
		},
	}

	result, err := dynamodbClient.GetItem(ctx, input)
	if err != nil {
		return nil, err
	}

	if result.Item == nil {
		return nil, nil
	}

	var event internal_types.Event
	err = attributevalue.UnmarshalMap(result.Item, &event)
	if err != nil {
		return nil, err
	}

	return &event, nil
}

type MockEventService struct {
	GetEventByIdFunc func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId string) (*internal_types.Event, error)
}

func (m *MockEventService) GetEventById(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId string) (*internal_types.Event, error) {
	return m.GetEventByIdFunc(ctx, dynamodbClient, eventId)
}
