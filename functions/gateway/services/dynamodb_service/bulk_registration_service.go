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
	validator "github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

var validate *validator.Validate = validator.New()

var bulkRegistrationsTableName = helpers.GetDbTableName(constants.BulkRegistrationsTablePrefix)

func init() {
	bulkRegistrationsTableName = helpers.GetDbTableName(constants.BulkRegistrationsTablePrefix)
}

type BulkRegistrationService struct{}

func NewBulkRegistrationService() internal_types.BulkRegistrationServiceInterface {
	return &BulkRegistrationService{}
}

func (s *BulkRegistrationService) InsertBulkRegistration(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, registration internal_types.BulkRegistrationInsert) (*internal_types.BulkRegistration, error) {
	if err := validate.Struct(registration); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if int64(len(registration.AttendeeDetails)) != registration.Quantity {
		return nil, fmt.Errorf("attendee details count %d does not match quantity %d", len(registration.AttendeeDetails), registration.Quantity)
	}

	now := time.Now().Unix()
	if registration.CreatedAt == 0 {
		registration.CreatedAt = now
	}
	registration.UpdatedAt = now

	newRegistration := internal_types.BulkRegistration{
		Id:               uuid.NewString(),
		EventId:          registration.EventId,
		UserId:           registration.UserId,
		Quantity:         registration.Quantity,
		TotalAmountCents: registration.TotalAmountCents,
		Currency:         registration.Currency,
		Status:           registration.Status,
		AttendeeDetails:  registration.AttendeeDetails,
		PaymentRef:       registration.PaymentRef,
		PaymentUrl:       registration.PaymentUrl,
		CreatedAt:        registration.CreatedAt,
		UpdatedAt:        registration.UpdatedAt,
	}

	item, err := attributevalue.MarshalMap(&newRegistration)
	if err != nil {
		return nil, err
	}

	if bulkRegistrationsTableName == "" {
		return nil, fmt.Errorf("ERR: bulkRegistrationsTableName is empty")
	}

	input := &dynamodb.PutItemInput{
		Item:                item,
		TableName:           aws.String(bulkRegistrationsTableName),
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	}

	_, err = dynamodbClient.PutItem(ctx, input)
	if err != nil {
		return nil, err
	}

	return &newRegistration, nil
}

func (s *BulkRegistrationService) GetBulkRegistrationById(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.BulkRegistration, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(bulkRegistrationsTableName),
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

	var registration internal_types.BulkRegistration
	err = attributevalue.UnmarshalMap(result.Item, &registration)
	if err != nil {
		return nil, err
	}

	return &registration, nil
}

func (s *BulkRegistrationService) GetBulkRegistrationsByUserID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string, limit int32, startKey string) ([]internal_types.BulkRegistration, map[string]dynamodb_types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(bulkRegistrationsTableName),
		IndexName:              aws.String("userIdIndex"),
		KeyConditionExpression: aws.String("userId = :userId"),
		ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
			":userId": &dynamodb_types.AttributeValueMemberS{Value: userId},
		},
		Limit:            aws.Int32(limit),
		ScanIndexForward: aws.Bool(false),
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

	var registrations []internal_types.BulkRegistration
	err = attributevalue.UnmarshalListOfMaps(result.Items, &registrations)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}

	return registrations, result.LastEvaluatedKey, nil
}

func (s *BulkRegistrationService) UpdateBulkRegistration(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string, registration internal_types.BulkRegistrationUpdate) (*internal_types.BulkRegistration, error) {
	if bulkRegistrationsTableName == "" {
		return nil, fmt.Errorf("ERR: bulkRegistrationsTableName is empty")
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(bulkRegistrationsTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"id": &dynamodb_types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  make(map[string]string),
		ExpressionAttributeValues: make(map[string]dynamodb_types.AttributeValue),
		UpdateExpression:          aws.String("SET"),
		ReturnValues:              dynamodb_types.ReturnValueAllNew,
	}

	if registration.Status != "" {
		input.ExpressionAttributeNames["#status"] = "status"
		input.ExpressionAttributeValues[":status"] = &dynamodb_types.AttributeValueMemberS{Value: registration.Status}
		*input.UpdateExpression += " #status = :status,"
	}

	if registration.PaymentRef != "" {
		input.ExpressionAttributeNames["#paymentRef"] = "paymentRef"
		input.ExpressionAttributeValues[":paymentRef"] = &dynamodb_types.AttributeValueMemberS{Value: registration.PaymentRef}
		*input.UpdateExpression += " #paymentRef = :paymentRef,"
	}

	if registration.PaymentUrl != "" {
		input.ExpressionAttributeNames["#paymentUrl"] = "paymentUrl"
		input.ExpressionAttributeValues[":paymentUrl"] = &dynamodb_types.AttributeValueMemberS{Value: registration.PaymentUrl}
		*input.UpdateExpression += " #paymentUrl = :paymentUrl,"
	}

	currentTime := time.Now().Unix()
	input.ExpressionAttributeNames["#updatedAt"] = "updatedAt"
	input.ExpressionAttributeValues[":updatedAt"] = &dynamodb_types.AttributeValueMemberN{Value: strconv.FormatInt(currentTime, 10)}
	*input.UpdateExpression += " #updatedAt = :updatedAt"

	res, err := dynamodbClient.UpdateItem(ctx, input)
	if err != nil {
		return nil, err
	}

	var updatedRegistration internal_types.BulkRegistration
	err = attributevalue.UnmarshalMap(res.Attributes, &updatedRegistration)
	if err != nil {
		return nil, err
	}

	return &updatedRegistration, nil
}

// DeletePendingBulkRegistration removes a registration only while it is still
// pending. Completed and cancelled registrations are immutable history; the
// condition failure surfaces as a ConditionalCheckFailedException.
func (s *BulkRegistrationService) DeletePendingBulkRegistration(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(bulkRegistrationsTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"id": &dynamodb_types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("#status = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
			":pending": &dynamodb_types.AttributeValueMemberS{Value: constants.RegistrationStatus.Pending},
		},
	}

	_, err := dynamodbClient.DeleteItem(ctx, input)
	if err != nil {
		return err
	}

	return nil
}

type MockBulkRegistrationService struct {
	InsertBulkRegistrationFunc        func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, registration internal_types.BulkRegistrationInsert) (*internal_types.BulkRegistration, error)
	GetBulkRegistrationByIdFunc       func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.BulkRegistration, error)
	GetBulkRegistrationsByUserIDFunc  func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string, limit int32, startKey string) ([]internal_types.BulkRegistration, map[string]dynamodb_types.AttributeValue, error)
	UpdateBulkRegistrationFunc        func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string, registration internal_types.BulkRegistrationUpdate) (*internal_types.BulkRegistration, error)
	DeletePendingBulkRegistrationFunc func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) error
}

func (m *MockBulkRegistrationService) InsertBulkRegistration(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, registration internal_types.BulkRegistrationInsert) (*internal_types.BulkRegistration, error) {
	return m.InsertBulkRegistrationFunc(ctx, dynamodbClient, registration)
}

func (m *MockBulkRegistrationService) GetBulkRegistrationById(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.BulkRegistration, error) {
	return m.GetBulkRegistrationByIdFunc(ctx, dynamodbClient, id)
}

func (m *MockBulkRegistrationService) GetBulkRegistrationsByUserID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string, limit int32, startKey string) ([]internal_types.BulkRegistration, map[string]dynamodb_types.AttributeValue, error) {
	return m.GetBulkRegistrationsByUserIDFunc(ctx, dynamodbClient, userId, limit, startKey)
}

func (m *MockBulkRegistrationService) UpdateBulkRegistration(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string, registration internal_types.BulkRegistrationUpdate) (*internal_types.BulkRegistration, error) {
	return m.UpdateBulkRegistrationFunc(ctx, dynamodbClient, id, registration)
}

func (m *MockBulkRegistrationService) DeletePendingBulkRegistration(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) error {
	return m.DeletePendingBulkRegistrationFunc(ctx, dynamodbClient, id)
}
