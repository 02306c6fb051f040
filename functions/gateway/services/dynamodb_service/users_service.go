package dynamodb_service

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

var usersTableName = helpers.GetDbTableName(constants.UsersTablePrefix)

func init() {
	usersTableName = helpers.GetDbTableName(constants.UsersTablePrefix)
}

type UserService struct{}

func NewUserService() internal_types.UserServiceInterface {
	return &UserService{}
}

func (s *UserService) GetUserByID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.User, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(usersTableName),
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

	var user internal_types.User
	err = attributevalue.UnmarshalMap(result.Item, &user)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

type MockUserService struct {
	GetUserByIDFunc func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.User, error)
}

func (m *MockUserService) GetUserByID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.User, error) {
	return m.GetUserByIDFunc(ctx, dynamodbClient, id)
}
