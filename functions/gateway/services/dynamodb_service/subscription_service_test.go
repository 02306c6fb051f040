package dynamodb_service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/test_helpers"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

func TestApplyTransition(t *testing.T) {
	var capturedInput *dynamodb.TransactWriteItemsInput
	mockDB := &test_helpers.MockDynamoDBClient{
		TransactWriteItemsFunc: func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			capturedInput = params
			return &dynamodb.TransactWriteItemsOutput{}, nil
		},
	}

	transition := internal_types.SubscriptionTransition{
		UserId:    "user_1",
		EventType: constants.WEBHOOK_EVENT_RENEWAL,
		Detail:    "verified RENEWAL for product eventpass_premium_monthly",
		Subscription: internal_types.Subscription{
			PlanId:    constants.PREMIUM_PLAN_ID,
			Status:    constants.SubscriptionStatus.Active,
			ProductId: "eventpass_premium_monthly",
			PeriodEnd: 1757592000,
			WillRenew: true,
		},
	}

	service := NewSubscriptionService()
	if err := service.ApplyTransition(context.Background(), mockDB, transition); err != nil {
		t.Fatalf("ApplyTransition failed: %v", err)
	}

	if capturedInput == nil {
		t.Fatal("no transaction was sent")
	}
	items := capturedInput.TransactItems
	if len(items) != 3 {
		t.Fatalf("len(TransactItems) = %d, want 3 (user flag + subscription + audit event)", len(items))
	}

	userUpdate := items[0].Update
	if userUpdate == nil {
		t.Fatal("item 0 is not an Update")
	}
	if attrS(userUpdate.Key["id"]) != "user_1" {
		t.Errorf("user update Key[id] = %q, want %q", attrS(userUpdate.Key["id"]), "user_1")
	}
	if *userUpdate.ConditionExpression != "attribute_exists(id)" {
		t.Errorf("user update ConditionExpression = %q, want %q", *userUpdate.ConditionExpression, "attribute_exists(id)")
	}
	if attrS(userUpdate.ExpressionAttributeValues[":planId"]) != constants.PREMIUM_PLAN_ID {
		t.Errorf("user update :planId = %q, want %q", attrS(userUpdate.ExpressionAttributeValues[":planId"]), constants.PREMIUM_PLAN_ID)
	}
	isPremium, ok := userUpdate.ExpressionAttributeValues[":isPremium"].(*dynamodb_types.AttributeValueMemberBOOL)
	if !ok || !isPremium.Value {
		t.Error("user update :isPremium should be true for an active paid plan")
	}

	subscriptionPut := items[1].Put
	if subscriptionPut == nil {
		t.Fatal("item 1 is not a Put")
	}
	var savedSubscription internal_types.Subscription
	if err := attributevalue.UnmarshalMap(subscriptionPut.Item, &savedSubscription); err != nil {
		t.Fatalf("failed to unmarshal saved subscription: %v", err)
	}
	if savedSubscription.UserId != "user_1" {
		t.Errorf("saved subscription UserId = %q, want %q", savedSubscription.UserId, "user_1")
	}
	if savedSubscription.PlanId != constants.PREMIUM_PLAN_ID {
		t.Errorf("saved subscription PlanId = %q, want %q", savedSubscription.PlanId, constants.PREMIUM_PLAN_ID)
	}
	if savedSubscription.UpdatedAt == 0 {
		t.Error("saved subscription UpdatedAt was not stamped")
	}

	auditPut := items[2].Put
	if auditPut == nil {
		t.Fatal("item 2 is not a Put")
	}
	var savedEvent internal_types.SubscriptionEvent
	if err := attributevalue.UnmarshalMap(auditPut.Item, &savedEvent); err != nil {
		t.Fatalf("failed to unmarshal saved audit event: %v", err)
	}
	if savedEvent.Id == "" {
		t.Error("audit event has no id")
	}
	if savedEvent.UserId != "user_1" {
		t.Errorf("audit event UserId = %q, want %q", savedEvent.UserId, "user_1")
	}
	if savedEvent.EventType != constants.WEBHOOK_EVENT_RENEWAL {
		t.Errorf("audit event EventType = %q, want %q", savedEvent.EventType, constants.WEBHOOK_EVENT_RENEWAL)
	}
	if savedEvent.PlanId != constants.PREMIUM_PLAN_ID {
		t.Errorf("audit event PlanId = %q, want %q", savedEvent.PlanId, constants.PREMIUM_PLAN_ID)
	}
	if savedEvent.Detail != transition.Detail {
		t.Errorf("audit event Detail = %q, want %q", savedEvent.Detail, transition.Detail)
	}
	if savedEvent.ProcessedAt == 0 {
		t.Error("audit event ProcessedAt was not stamped")
	}
}

func TestApplyTransitionPremiumFlag(t *testing.T) {
	tests := []struct {
		name        string
		planId      string
		status      string
		wantPremium bool
	}{
		{"active paid plan", constants.BASIC_PLAN_ID, constants.SubscriptionStatus.Active, true},
		{"active free plan", constants.FREE_PLAN_ID, constants.SubscriptionStatus.Active, false},
		{"expired paid plan", constants.PREMIUM_PLAN_ID, constants.SubscriptionStatus.Expired, false},
		{"cancelled paid plan", constants.PREMIUM_PLAN_ID, constants.SubscriptionStatus.Cancelled, false},
	}

	service := NewSubscriptionService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedInput *dynamodb.TransactWriteItemsInput
			mockDB := &test_helpers.MockDynamoDBClient{
				TransactWriteItemsFunc: func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
					capturedInput = params
					return &dynamodb.TransactWriteItemsOutput{}, nil
				},
			}

			transition := internal_types.SubscriptionTransition{
				UserId:    "user_1",
				EventType: constants.SUBSCRIPTION_EVENT_SYNC,
				Subscription: internal_types.Subscription{
					PlanId: tt.planId,
					Status: tt.status,
				},
			}
			if err := service.ApplyTransition(context.Background(), mockDB, transition); err != nil {
				t.Fatalf("ApplyTransition failed: %v", err)
			}

			isPremium, ok := capturedInput.TransactItems[0].Update.ExpressionAttributeValues[":isPremium"].(*dynamodb_types.AttributeValueMemberBOOL)
			if !ok {
				t.Fatal(":isPremium is not a BOOL attribute")
			}
			if isPremium.Value != tt.wantPremium {
				t.Errorf(":isPremium = %t, want %t", isPremium.Value, tt.wantPremium)
			}
		})
	}
}

func TestApplyTransitionFailure(t *testing.T) {
	mockDB := &test_helpers.MockDynamoDBClient{
		TransactWriteItemsFunc: func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			return nil, fmt.Errorf("TransactionCanceledException")
		},
	}

	transition := internal_types.SubscriptionTransition{
		UserId:    "user_1",
		EventType: constants.WEBHOOK_EVENT_EXPIRATION,
		Subscription: internal_types.Subscription{
			PlanId: constants.FREE_PLAN_ID,
			Status: constants.SubscriptionStatus.Expired,
		},
	}

	service := NewSubscriptionService()
	err := service.ApplyTransition(context.Background(), mockDB, transition)
	if err == nil {
		t.Fatal("ApplyTransition should surface a transaction failure")
	}
	if !strings.Contains(err.Error(), "user_1") {
		t.Errorf("error %q should name the user", err.Error())
	}
	if !strings.Contains(err.Error(), constants.WEBHOOK_EVENT_EXPIRATION) {
		t.Errorf("error %q should name the event type", err.Error())
	}
}

func TestSetNextPlanId(t *testing.T) {
	updated := internal_types.Subscription{
		UserId:     "user_1",
		PlanId:     constants.PREMIUM_PLAN_ID,
		NextPlanId: constants.BASIC_PLAN_ID,
		Status:     constants.SubscriptionStatus.Active,
	}
	attributes, err := attributevalue.MarshalMap(&updated)
	if err != nil {
		t.Fatalf("failed to marshal test subscription: %v", err)
	}

	var capturedInput *dynamodb.UpdateItemInput
	mockDB := &test_helpers.MockDynamoDBClient{
		UpdateItemFunc: func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			capturedInput = params
			return &dynamodb.UpdateItemOutput{Attributes: attributes}, nil
		},
	}

	service := NewSubscriptionService()
	subscription, err := service.SetNextPlanId(context.Background(), mockDB, "user_1", constants.BASIC_PLAN_ID)
	if err != nil {
		t.Fatalf("SetNextPlanId failed: %v", err)
	}

	if attrS(capturedInput.Key["userId"]) != "user_1" {
		t.Errorf("Key[userId] = %q, want %q", attrS(capturedInput.Key["userId"]), "user_1")
	}
	if attrS(capturedInput.ExpressionAttributeValues[":nextPlanId"]) != constants.BASIC_PLAN_ID {
		t.Errorf(":nextPlanId = %q, want %q", attrS(capturedInput.ExpressionAttributeValues[":nextPlanId"]), constants.BASIC_PLAN_ID)
	}
	if *capturedInput.ConditionExpression != "attribute_exists(userId)" {
		t.Errorf("ConditionExpression = %q, want %q", *capturedInput.ConditionExpression, "attribute_exists(userId)")
	}
	if capturedInput.ReturnValues != dynamodb_types.ReturnValueAllNew {
		t.Errorf("ReturnValues = %q, want %q", capturedInput.ReturnValues, dynamodb_types.ReturnValueAllNew)
	}

	if subscription.NextPlanId != constants.BASIC_PLAN_ID {
		t.Errorf("subscription.NextPlanId = %q, want %q", subscription.NextPlanId, constants.BASIC_PLAN_ID)
	}
	if subscription.PlanId != constants.PREMIUM_PLAN_ID {
		t.Errorf("subscription.PlanId = %q, want %q (the active plan stays)", subscription.PlanId, constants.PREMIUM_PLAN_ID)
	}
}

func TestSetNextPlanIdMissingSubscription(t *testing.T) {
	mockDB := &test_helpers.MockDynamoDBClient{
		UpdateItemFunc: func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			return nil, fmt.Errorf("ConditionalCheckFailedException")
		},
	}

	service := NewSubscriptionService()
	_, err := service.SetNextPlanId(context.Background(), mockDB, "user_unknown", constants.BASIC_PLAN_ID)
	if err == nil {
		t.Fatal("SetNextPlanId should fail when the subscription row does not exist")
	}
	if !strings.Contains(err.Error(), "user_unknown") {
		t.Errorf("error %q should name the user", err.Error())
	}
}

func TestGetSubscriptionByUserID(t *testing.T) {
	subscription := internal_types.Subscription{
		UserId: "user_1",
		PlanId: constants.BASIC_PLAN_ID,
		Status: constants.SubscriptionStatus.Active,
	}
	item, err := attributevalue.MarshalMap(&subscription)
	if err != nil {
		t.Fatalf("failed to marshal test subscription: %v", err)
	}

	mockDB := &test_helpers.MockDynamoDBClient{
		GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			if attrS(params.Key["userId"]) != "user_1" {
				return &dynamodb.GetItemOutput{}, nil
			}
			return &dynamodb.GetItemOutput{Item: item}, nil
		},
	}

	service := NewSubscriptionService()

	got, err := service.GetSubscriptionByUserID(context.Background(), mockDB, "user_1")
	if err != nil {
		t.Fatalf("GetSubscriptionByUserID failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetSubscriptionByUserID returned nil for an existing subscription")
	}
	if got.PlanId != constants.BASIC_PLAN_ID {
		t.Errorf("PlanId = %q, want %q", got.PlanId, constants.BASIC_PLAN_ID)
	}

	missing, err := service.GetSubscriptionByUserID(context.Background(), mockDB, "user_unknown")
	if err != nil {
		t.Fatalf("GetSubscriptionByUserID failed: %v", err)
	}
	if missing != nil {
		t.Errorf("GetSubscriptionByUserID for a missing user = %+v, want nil", missing)
	}
}

func TestGetSubscriptionEventsByUserID(t *testing.T) {
	var capturedInput *dynamodb.QueryInput
	mockDB := &test_helpers.MockDynamoDBClient{
		QueryFunc: func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			capturedInput = params
			return &dynamodb.QueryOutput{}, nil
		},
	}

	service := NewSubscriptionService()
	if _, err := service.GetSubscriptionEventsByUserID(context.Background(), mockDB, "user_1", 10); err != nil {
		t.Fatalf("GetSubscriptionEventsByUserID failed: %v", err)
	}
	if *capturedInput.IndexName != "userIdIndex" {
		t.Errorf("IndexName = %q, want %q", *capturedInput.IndexName, "userIdIndex")
	}
	if *capturedInput.Limit != 10 {
		t.Errorf("Limit = %d, want 10", *capturedInput.Limit)
	}
	if *capturedInput.ScanIndexForward {
		t.Error("ScanIndexForward = true, want false (newest first)")
	}
}
