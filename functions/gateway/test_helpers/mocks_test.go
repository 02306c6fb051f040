package test_helpers

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/eventpass/api/functions/gateway/types"
)

func TestMockDynamoDBClientDelegates(t *testing.T) {
	mockClient := &MockDynamoDBClient{
		GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: map[string]dynamodb_types.AttributeValue{
				"id": &dynamodb_types.AttributeValueMemberS{Value: "tkt_1"},
			}}, nil
		},
	}

	result, err := mockClient.GetItem(context.Background(), &dynamodb.GetItemInput{})
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if len(result.Item) != 1 {
		t.Errorf("item attribute count = %d, want %d", len(result.Item), 1)
	}
}

func TestMockDynamoDBClientDefaults(t *testing.T) {
	// all Func fields nil: every method answers with an empty output
	mockClient := &MockDynamoDBClient{}

	if out, err := mockClient.Scan(context.Background(), &dynamodb.ScanInput{}); err != nil || out == nil {
		t.Errorf("Scan default = (%v, %v), want empty output and nil error", out, err)
	}
	if out, err := mockClient.Query(context.Background(), &dynamodb.QueryInput{}); err != nil || out == nil {
		t.Errorf("Query default = (%v, %v), want empty output and nil error", out, err)
	}
	if out, err := mockClient.TransactWriteItems(context.Background(), &dynamodb.TransactWriteItemsInput{}); err != nil || out == nil {
		t.Errorf("TransactWriteItems default = (%v, %v), want empty output and nil error", out, err)
	}
	if out, err := mockClient.DescribeTable(context.Background(), &dynamodb.DescribeTableInput{}); err != nil || out == nil {
		t.Errorf("DescribeTable default = (%v, %v), want empty output and nil error", out, err)
	}
}

func TestMockQueueServicePublish(t *testing.T) {
	queue := NewMockQueueService()

	task, err := types.NewQueueTask("webhook_event", map[string]string{"eventId": "evt_1"})
	if err != nil {
		t.Fatalf("NewQueueTask failed: %v", err)
	}
	if err := queue.PublishMsg(context.Background(), task); err != nil {
		t.Fatalf("PublishMsg failed: %v", err)
	}

	if queue.PublishedCount() != 1 {
		t.Errorf("published count = %d, want %d", queue.PublishedCount(), 1)
	}
}

func TestMockQueueServicePublishErr(t *testing.T) {
	queue := NewMockQueueService()
	queue.PublishErr = fmt.Errorf("broker unavailable")

	err := queue.PublishMsg(context.Background(), map[string]string{"eventId": "evt_1"})
	if err == nil {
		t.Fatal("PublishMsg should surface the configured error")
	}
	if queue.PublishedCount() != 0 {
		t.Errorf("published count = %d, want %d", queue.PublishedCount(), 0)
	}
}

func TestMockQueueServiceConsumeTasks(t *testing.T) {
	queue := NewMockQueueService()

	for _, id := range []string{"tkt_1", "tkt_2", "tkt_3"} {
		task, err := types.NewQueueTask("ticket_assets", types.TicketAssetsTask{TicketId: id, EventId: "evt_1"})
		if err != nil {
			t.Fatalf("NewQueueTask failed: %v", err)
		}
		if err := queue.PublishMsg(context.Background(), task); err != nil {
			t.Fatalf("PublishMsg failed: %v", err)
		}
	}

	var seen []string
	err := queue.ConsumeTasks(context.Background(), 1, func(ctx context.Context, task types.QueueTask) error {
		seen = append(seen, task.Kind)
		return nil
	})
	if err != nil {
		t.Fatalf("ConsumeTasks failed: %v", err)
	}
	if len(seen) != 3 {
		t.Errorf("consumed = %d tasks, want %d", len(seen), 3)
	}
	if queue.PublishedCount() != 0 {
		t.Errorf("remaining = %d, want drained queue", queue.PublishedCount())
	}
}

func TestMockQueueServiceConsumeStopsOnError(t *testing.T) {
	queue := NewMockQueueService()

	for i := 0; i < 3; i++ {
		task, _ := types.NewQueueTask("ticket_assets", types.TicketAssetsTask{TicketId: fmt.Sprintf("tkt_%d", i)})
		if err := queue.PublishMsg(context.Background(), task); err != nil {
			t.Fatalf("PublishMsg failed: %v", err)
		}
	}

	consumed := 0
	err := queue.ConsumeTasks(context.Background(), 1, func(ctx context.Context, task types.QueueTask) error {
		consumed++
		return fmt.Errorf("handler rejected task")
	})
	if err == nil {
		t.Fatal("ConsumeTasks should stop and surface the handler error")
	}
	if consumed != 1 {
		t.Errorf("consumed = %d, want %d", consumed, 1)
	}
}
