package dynamodb_service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

var ticketsTableName = helpers.GetDbTableName(constants.TicketsTablePrefix)

func init() {
	ticketsTableName = helpers.GetDbTableName(constants.TicketsTablePrefix)
}

type TicketService struct{}

func NewTicketService() internal_types.TicketServiceInterface {
	return &TicketService{}
}

// IssueTickets writes one ticket per attendee, flips the registration to
// completed, and bumps the event attendee count as a single transaction.
// The registration must still be pending and the event must have headroom
// for the whole batch at commit time; any condition failure aborts every
// write in the transaction.
func (s *TicketService) IssueTickets(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, issuance internal_types.TicketIssuance) ([]internal_types.Ticket, error) {
	registration := issuance.Registration
	event := issuance.Event

	if ticketsTableName == "" || bulkRegistrationsTableName == "" || eventsTableName == "" {
		return nil, fmt.Errorf("ERR: table name not resolved for ticket issuance")
	}
	if len(registration.AttendeeDetails) == 0 {
		return nil, fmt.Errorf("registration %s has no attendee details", registration.Id)
	}

	now := time.Now().Unix()
	quantity := int64(len(registration.AttendeeDetails))

	tickets := make([]internal_types.Ticket, 0, quantity)
	ticketIds := make([]string, 0, quantity)
	transactItems := make([]dynamodb_types.TransactWriteItem, 0, quantity+2)

	for i, attendee := range registration.AttendeeDetails {
		ticket := internal_types.Ticket{
			Id:                 uuid.NewString(),
			EventId:            registration.EventId,
			UserId:             registration.UserId,
			BulkRegistrationId: registration.Id,
			AttendeeName:       attendee.Name,
			AttendeeEmail:      attendee.Email,
			AttendeePhone:      attendee.Phone,
			AttendeeIndex:      i,
			Status:             constants.TicketStatus.Issued,
			CreatedAt:          now,
		}

		item, err := attributevalue.MarshalMap(&ticket)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ticket %d: %w", i, err)
		}

		transactItems = append(transactItems, dynamodb_types.TransactWriteItem{
			Put: &dynamodb_types.Put{
				TableName:           aws.String(ticketsTableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			},
		})

		tickets = append(tickets, ticket)
		ticketIds = append(ticketIds, ticket.Id)
	}

	ticketIdsAttr, err := attributevalue.Marshal(ticketIds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket ids: %w", err)
	}

	transactItems = append(transactItems, dynamodb_types.TransactWriteItem{
		Update: &dynamodb_types.Update{
			TableName: aws.String(bulkRegistrationsTableName),
			Key: map[string]dynamodb_types.AttributeValue{
				"id": &dynamodb_types.AttributeValueMemberS{Value: registration.Id},
			},
			UpdateExpression:    aws.String("SET #status = :completed, ticketIds = :ticketIds, paymentRef = :paymentRef, updatedAt = :updatedAt"),
			ConditionExpression: aws.String("#status = :pending"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
				":completed":  &dynamodb_types.AttributeValueMemberS{Value: constants.RegistrationStatus.Completed},
				":pending":    &dynamodb_types.AttributeValueMemberS{Value: constants.RegistrationStatus.Pending},
				":ticketIds":  ticketIdsAttr,
				":paymentRef": &dynamodb_types.AttributeValueMemberS{Value: issuance.PaymentRef},
				":updatedAt":  &dynamodb_types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
			},
		},
	})

	// Condition expressions cannot do arithmetic, so the headroom bound is
	// computed here and compared against the live attendeeCount at commit time.
	eventUpdate := &dynamodb_types.Update{
		TableName: aws.String(eventsTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"id": &dynamodb_types.AttributeValueMemberS{Value: event.Id},
		},
		UpdateExpression: aws.String("ADD attendeeCount :quantity"),
		ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
			":quantity": &dynamodb_types.AttributeValueMemberN{Value: strconv.FormatInt(quantity, 10)},
		},
	}
	if event.MaxAttendees > 0 {
		headroom := event.MaxAttendees - quantity
		eventUpdate.ConditionExpression = aws.String("attribute_exists(id) AND attendeeCount <= :headroom")
		eventUpdate.ExpressionAttributeValues[":headroom"] = &dynamodb_types.AttributeValueMemberN{Value: strconv.FormatInt(headroom, 10)}
	} else {
		eventUpdate.ConditionExpression = aws.String("attribute_exists(id)")
	}
	transactItems = append(transactItems, dynamodb_types.TransactWriteItem{Update: eventUpdate})

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	}

	_, err = dynamodbClient.TransactWriteItems(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ticket issuance transaction failed for registration %s: %w", registration.Id, err)
	}

	return tickets, nil
}

func (s *TicketService) GetTicketById(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.Ticket, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(ticketsTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"id": &dynamodb_types.AttributeValueMemberS{Value: id},
		},
	}

	result, err := dynamodbClient.GetItem(ctx, input)
	if err != nil {
		return nil, err
	}

	if result.Item == nil {
		return nil, nil
	}

	var ticket internal_types.Ticket
	err = attributevalue.UnmarshalMap(result.Item, &ticket)
	if err != nil {
		return nil, err
	}

	return &ticket, nil
}

func (s *TicketService) GetTicketsByUserID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string, limit int32, startKey string) ([]internal_types.Ticket, map[string]dynamodb_types.AttributeValue, error) {
	keyEx := expression.Key("userId").Equal(expression.Value(userId))

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build expression: %w", err)
	}

	// userIdIndex has createdAt as its range key, so results come back newest
	// first with ScanIndexForward disabled
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(ticketsTableName),
		IndexName:                 aws.String("userIdIndex"),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(limit),
		ScanIndexForward:          aws.Bool(false),
	}

	if startKey != "" {
		input.ExclusiveStartKey = map[string]dynamodb_types.AttributeValue{
			"id":     &dynamodb_types.AttributeValueMemberS{Value: startKey},
			"userId": &dynamodb_types.AttributeValueMemberS{Value: userId},
		}
	}

	result, err := dynamodbClient.Query(ctx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("query failed: %w", err)
	}

	var tickets []internal_types.Ticket
	err = attributevalue.UnmarshalListOfMaps(result.Items, &tickets)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}

	return tickets, result.LastEvaluatedKey, nil
}

func (s *TicketService) GetTicketsByBulkRegistrationID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, bulkRegistrationId string) ([]internal_types.Ticket, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(ticketsTableName),
		IndexName:              aws.String("bulkRegistrationIdIndex"),
		KeyConditionExpression: aws.String("bulkRegistrationId = :bulkRegistrationId"),
		ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
			":bulkRegistrationId": &dynamodb_types.AttributeValueMemberS{Value: bulkRegistrationId},
		},
	}

	result, err := dynamodbClient.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	var tickets []internal_types.Ticket
	err = attributevalue.UnmarshalListOfMaps(result.Items, &tickets)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}

	return tickets, nil
}

func (s *TicketService) UpdateTicketQRCode(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id, qrCode string) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(ticketsTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"id": &dynamodb_types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET qrCode = :qrCode"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
			":qrCode": &dynamodb_types.AttributeValueMemberS{Value: qrCode},
		},
	}

	_, err := dynamodbClient.UpdateItem(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to update qr code for ticket %s: %w", id, err)
	}

	return nil
}

type MockTicketService struct {
	IssueTicketsFunc                   func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, issuance internal_types.TicketIssuance) ([]internal_types.Ticket, error)
	GetTicketByIdFunc                  func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.Ticket, error)
	GetTicketsByUserIDFunc             func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string, limit int32, startKey string) ([]internal_types.Ticket, map[string]dynamodb_types.AttributeValue, error)
	GetTicketsByBulkRegistrationIDFunc func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, bulkRegistrationId string) ([]internal_types.Ticket, error)
	UpdateTicketQRCodeFunc             func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id, qrCode string) error
}

func (m *MockTicketService) IssueTickets(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, issuance internal_types.TicketIssuance) ([]internal_types.Ticket, error) {
	return m.IssueTicketsFunc(ctx, dynamodbClient, issuance)
}

func (m *MockTicketService) GetTicketById(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.Ticket, error) {
	return m.GetTicketByIdFunc(ctx, dynamodbClient, id)
}

func (m *MockTicketService) GetTicketsByUserID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string, limit int32, startKey string) ([]internal_types.Ticket, map[string]dynamodb_types.AttributeValue, error) {
	return m.GetTicketsByUserIDFunc(ctx, dynamodbClient, userId, limit, startKey)
}

func (m *MockTicketService) GetTicketsByBulkRegistrationID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, bulkRegistrationId string) ([]internal_types.Ticket, error) {
	return m.GetTicketsByBulkRegistrationIDFunc(ctx, dynamodbClient, bulkRegistrationId)
}

func (m *MockTicketService) UpdateTicketQRCode(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id, qrCode string) error {
	return m.UpdateTicketQRCodeFunc(ctx, dynamodbClient, id, qrCode)
}
