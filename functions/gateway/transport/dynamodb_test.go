package transport

import (
	"context"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/test_helpers"
)

func TestCreateDbClient(t *testing.T) {
	client := CreateDbClient()
	if client == nil {
		t.Error("CreateDbClient returned nil")
	}
}

func TestGetDBTestEnv(t *testing.T) {
	os.Setenv("GO_ENV", constants.GO_TEST_ENV)
	defer os.Unsetenv("GO_ENV")
	SetTestDB(nil)
	defer SetTestDB(nil)

	db1 := GetDB()
	if db1 == nil {
		t.Fatal("GetDB returned nil for test environment")
	}

	// repeat calls reuse the lazily created mock
	db2 := GetDB()
	if db1 != db2 {
		t.Error("GetDB returned different instances for test environment")
	}

	// the default mock answers scans with an empty page
	out, err := db1.Scan(context.Background(), &dynamodb.ScanInput{})
	if err != nil {
		t.Fatalf("default mock Scan failed: %v", err)
	}
	if len(out.Items) != 0 {
		t.Errorf("default mock Scan items = %d, want %d", len(out.Items), 0)
	}
}

func TestSetTestDB(t *testing.T) {
	os.Setenv("GO_ENV", constants.GO_TEST_ENV)
	defer os.Unsetenv("GO_ENV")
	defer SetTestDB(nil)

	mockDB := &test_helpers.MockDynamoDBClient{
		ScanFunc: func(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
			return &dynamodb.ScanOutput{}, nil
		},
	}

	SetTestDB(mockDB)

	retrievedDB := GetDB()
	if retrievedDB != mockDB {
		t.Error("GetDB did not return the mock DB set by SetTestDB")
	}
}
