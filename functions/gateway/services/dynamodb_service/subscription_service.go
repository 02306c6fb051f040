package dynamodb_service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

var subscriptionsTableName = helpers.GetDbTableName(constants.SubscriptionsTablePrefix)
var subscriptionEventsTableName = helpers.GetDbTableName(constants.SubscriptionEventsTablePrefix)

func init() {
	subscriptionsTableName = helpers.GetDbTableName(constants.SubscriptionsTablePrefix)
	subscriptionEventsTableName = helpers.GetDbTableName(constants.SubscriptionEventsTablePrefix)
}

type SubscriptionService struct{}

func NewSubscriptionService() internal_types.SubscriptionServiceInterface {
	return &SubscriptionService{}
}

func (s *SubscriptionService) GetSubscriptionByUserID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string) (*internal_types.Subscription, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(subscriptionsTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"userId": &dynamodb_types.AttributeValueMemberS{Value: userId},
		},
	}

	result, err := dynamodbClient.GetItem(ctx, input)
	if err != nil {
		return nil, err
	}

	if result.Item == nil {
		return nil, nil
	}

	var subscription internal_types.Subscription
	err = attributevalue.UnmarshalMap(result.Item, &subscription)
	if err != nil {
		return nil, err
	}

	return &subscription, nil
}

// ApplyTransition lands the user's plan flag, the subscription record, and
// the audit event in one transaction so a billing update can never be half
// applied. When the user document does not exist yet the plan flag update
// condition fails and nothing is written.
func (s *SubscriptionService) ApplyTransition(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, transition internal_types.SubscriptionTransition) error {
	if subscriptionsTableName == "" || subscriptionEventsTableName == "" || usersTableName == "" {
		return fmt.Errorf("ERR: table name not resolved for subscription transition")
	}

	now := time.Now().Unix()
	subscription := transition.Subscription
	subscription.UserId = transition.UserId
	subscription.UpdatedAt = now

	subscriptionItem, err := attributevalue.MarshalMap(&subscription)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription for user %s: %w", transition.UserId, err)
	}

	auditEvent := internal_types.SubscriptionEvent{
		Id:          uuid.NewString(),
		UserId:      transition.UserId,
		EventType:   transition.EventType,
		PlanId:      subscription.PlanId,
		Status:      subscription.Status,
		Detail:      transition.Detail,
		ProcessedAt: now,
	}

	auditItem, err := attributevalue.MarshalMap(&auditEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription event for user %s: %w", transition.UserId, err)
	}

	isPremium := subscription.Status == constants.SubscriptionStatus.Active && subscription.PlanId != constants.FREE_PLAN_ID

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []dynamodb_types.TransactWriteItem{
			{
				Update: &dynamodb_types.Update{
					TableName: aws.String(usersTableName),
					Key: map[string]dynamodb_types.AttributeValue{
						"id": &dynamodb_types.AttributeValueMemberS{Value: transition.UserId},
					},
					UpdateExpression:    aws.String("SET planId = :planId, isPremium = :isPremium, updatedAt = :updatedAt"),
					ConditionExpression: aws.String("attribute_exists(id)"),
					ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
						":planId":    &dynamodb_types.AttributeValueMemberS{Value: subscription.PlanId},
						":isPremium": &dynamodb_types.AttributeValueMemberBOOL{Value: isPremium},
						":updatedAt": &dynamodb_types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
					},
				},
			},
			{
				Put: &dynamodb_types.Put{
					TableName: aws.String(subscriptionsTableName),
					Item:      subscriptionItem,
				},
			},
			{
				Put: &dynamodb_types.Put{
					TableName: aws.String(subscriptionEventsTableName),
					Item:      auditItem,
				},
			},
		},
	}

	_, err = dynamodbClient.TransactWriteItems(ctx, input)
	if err != nil {
		return fmt.Errorf("subscription transition failed for user %s event %s: %w", transition.UserId, transition.EventType, err)
	}

	return nil
}

// SetNextPlanId stores a deferred plan change without touching the active
// plan; the webhook for the next renewal applies it.
func (s *SubscriptionService) SetNextPlanId(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId, nextPlanId string) (*internal_types.Subscription, error) {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(subscriptionsTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"userId": &dynamodb_types.AttributeValueMemberS{Value: userId},
		},
		UpdateExpression:    aws.String("SET nextPlanId = :nextPlanId, updatedAt = :updatedAt"),
		ConditionExpression: aws.String("attribute_exists(userId)"),
		ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
			":nextPlanId": &dynamodb_types.AttributeValueMemberS{Value: nextPlanId},
			":updatedAt":  &dynamodb_types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Unix(), 10)},
		},
		ReturnValues: dynamodb_types.ReturnValueAllNew,
	}

	result, err := dynamodbClient.UpdateItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to set next plan for user %s: %w", userId, err)
	}

	var subscription internal_types.Subscription
	err = attributevalue.UnmarshalMap(result.Attributes, &subscription)
	if err != nil {
		return nil, err
	}

	return &subscription, nil
}

func (s *SubscriptionService) GetSubscriptionEventsByUserID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string, limit int32) ([]internal_types.SubscriptionEvent, error) {
	// userIdIndex ranges on processedAt, newest first
	input := &dynamodb.QueryInput{
		TableName:              aws.String(subscriptionEventsTableName),
		IndexName:              aws.String("userIdIndex"),
		KeyConditionExpression: aws.String("userId = :userId"),
		ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
			":userId": &dynamodb_types.AttributeValueMemberS{Value: userId},
		},
		Limit:            aws.Int32(limit),
		ScanIndexForward: aws.Bool(false),
	}

	result, err := dynamodbClient.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	var events []internal_types.SubscriptionEvent
	err = attributevalue.UnmarshalListOfMaps(result.Items, &events)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}

	return events, nil
}

type MockSubscriptionService struct {
	GetSubscriptionByUserIDFunc       func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string) (*internal_types.Subscription, error)
	ApplyTransitionFunc               func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, transition internal_types.SubscriptionTransition) error
	SetNextPlanIdFunc                 func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId, nextPlanId string) (*internal_types.Subscription, error)
	GetSubscriptionEventsByUserIDFunc func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string, limit int32) ([]internal_types.SubscriptionEvent, error)
}

func (m *MockSubscriptionService) GetSubscriptionByUserID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string) (*internal_types.Subscription, error) {
	return m.GetSubscriptionByUserIDFunc(ctx, dynamodbClient, userId)
}

func (m *MockSubscriptionService) ApplyTransition(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, transition internal_types.SubscriptionTransition) error {
	return m.ApplyTransitionFunc(ctx, dynamodbClient, transition)
}

func (m *MockSubscriptionService) SetNextPlanId(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId, nextPlanId string) (*internal_types.Subscription, error) {
	return m.SetNextPlanIdFunc(ctx, dynamodbClient, userId, nextPlanId)
}

func (m *MockSubscriptionService) GetSubscriptionEventsByUserID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string, limit int32) ([]internal_types.SubscriptionEvent, error) {
	return m.GetSubscriptionEventsByUserIDFunc(ctx, dynamodbClient, userId, limit)
}
