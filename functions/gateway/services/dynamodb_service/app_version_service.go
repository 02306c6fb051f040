package dynamodb_service

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

var appVersionsTableName = helpers.GetDbTableName(constants.AppVersionsTablePrefix)

func init() {
	appVersionsTableName = helpers.GetDbTableName(constants.AppVersionsTablePrefix)
}

type AppVersionService struct{}

func NewAppVersionService() internal_types.AppVersionServiceInterface {
	return &AppVersionService{}
}

func (s *AppVersionService) GetAppVersionByVersion(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, version string) (*internal_types.AppVersion, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(appVersionsTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"version": &dynamodb_types.AttributeValueMemberS{Value: version},
		},
	}

	result, err := dynamodbClient.GetItem(ctx, input)
	if err != nil {
		return nil, err
	}

	if result.Item == nil {
		return nil, nil
	}

	var appVersion internal_types.AppVersion
	err = attributevalue.UnmarshalMap(result.Item, &appVersion)
	if err != nil {
		return nil, err
	}

	return &appVersion, nil
}

// GetVersionInfo returns the flagged latest and minimum rows for a platform.
// The table holds a handful of rows per platform so a filtered scan is fine.
func (s *AppVersionService) GetVersionInfo(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, platform string) (*internal_types.VersionInfo, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(appVersionsTableName),
		FilterExpression: aws.String("platform = :platform AND (isLatest = :flagged OR isMinimumRequired = :flagged)"),
		ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
			":platform": &dynamodb_types.AttributeValueMemberS{Value: platform},
			":flagged":  &dynamodb_types.AttributeValueMemberBOOL{Value: true},
		},
	}

	result, err := dynamodbClient.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	var versions []internal_types.AppVersion
	err = attributevalue.UnmarshalListOfMaps(result.Items, &versions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}

	info := &internal_types.VersionInfo{}
	for i := range versions {
		if versions[i].IsLatest && info.Latest == nil {
			info.Latest = &versions[i]
		}
		if versions[i].IsMinimumRequired && info.Minimum == nil {
			info.Minimum = &versions[i]
		}
	}

	return info, nil
}

// RegisterAppVersion clears any flags the new row claims from the rows that
// currently hold them, then writes the new row. Clearing first means a crash
// between the two steps leaves the platform briefly without a flagged row
// rather than with two.
func (s *AppVersionService) RegisterAppVersion(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, appVersion internal_types.AppVersionInsert) (*internal_types.AppVersion, error) {
	if err := validate.Struct(&appVersion); err != nil {
		return nil, err
	}

	if appVersion.Platform == "" {
		appVersion.Platform = constants.IOS_PLATFORM
	}
	if appVersion.ReleasedAt == 0 {
		appVersion.ReleasedAt = time.Now().Unix()
	}

	if appVersion.IsLatest || appVersion.IsMinimumRequired {
		info, err := s.GetVersionInfo(ctx, dynamodbClient, appVersion.Platform)
		if err != nil {
			return nil, err
		}

		if appVersion.IsLatest && info.Latest != nil && info.Latest.Version != appVersion.Version {
			if err := s.clearFlag(ctx, dynamodbClient, info.Latest.Version, "isLatest"); err != nil {
				return nil, err
			}
		}
		if appVersion.IsMinimumRequired && info.Minimum != nil && info.Minimum.Version != appVersion.Version {
			if err := s.clearFlag(ctx, dynamodbClient, info.Minimum.Version, "isMinimumRequired"); err != nil {
				return nil, err
			}
		}
	}

	stored := internal_types.AppVersion{
		Version:           appVersion.Version,
		BuildNumber:       appVersion.BuildNumber,
		Platform:          appVersion.Platform,
		IsLatest:          appVersion.IsLatest,
		IsMinimumRequired: appVersion.IsMinimumRequired,
		UpdateMessage:     appVersion.UpdateMessage,
		ReleasedAt:        appVersion.ReleasedAt,
	}

	item, err := attributevalue.MarshalMap(&stored)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(appVersionsTableName),
		Item:      item,
	}

	_, err = dynamodbClient.PutItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to register app version %s: %w", appVersion.Version, err)
	}

	return &stored, nil
}

func (s *AppVersionService) clearFlag(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, version, flag string) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(appVersionsTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"version": &dynamodb_types.AttributeValueMemberS{Value: version},
		},
		UpdateExpression:    aws.String("SET #flag = :off"),
		ConditionExpression: aws.String("attribute_exists(version)"),
		ExpressionAttributeNames: map[string]string{
			"#flag": flag,
		},
		ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
			":off": &dynamodb_types.AttributeValueMemberBOOL{Value: false},
		},
	}

	_, err := dynamodbClient.UpdateItem(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to clear %s on version %s: %w", flag, version, err)
	}

	return nil
}

type MockAppVersionService struct {
	GetAppVersionByVersionFunc func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, version string) (*internal_types.AppVersion, error)
	GetVersionInfoFunc         func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, platform string) (*internal_types.VersionInfo, error)
	RegisterAppVersionFunc     func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, appVersion internal_types.AppVersionInsert) (*internal_types.AppVersion, error)
}

func (m *MockAppVersionService) GetAppVersionByVersion(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, version string) (*internal_types.AppVersion, error) {
	return m.GetAppVersionByVersionFunc(ctx, dynamodbClient, version)
}

func (m *MockAppVersionService) GetVersionInfo(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, platform string) (*internal_types.VersionInfo, error) {
	return m.GetVersionInfoFunc(ctx, dynamodbClient, platform)
}

func (m *MockAppVersionService) RegisterAppVersion(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, appVersion internal_types.AppVersionInsert) (*internal_types.AppVersion, error) {
	return m.RegisterAppVersionFunc(ctx, dynamodbClient, appVersion)
}
