package dynamodb_handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/eventpass/api/functions/gateway/constants"
	dynamodb_service "github.com/eventpass/api/functions/gateway/services/dynamodb_service"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

func TestGetUserProfile(t *testing.T) {
	os.Setenv("GO_ENV", constants.GO_TEST_ENV)
	defer os.Unsetenv("GO_ENV")

	t.Run("returns caller row with plan flags", func(t *testing.T) {
		var capturedId string
		userService := &dynamodb_service.MockUserService{
			GetUserByIDFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.User, error) {
				capturedId = id
				return &internal_types.User{
					Id:        id,
					Name:      "Thandi Mokoena",
					Email:     "thandi@example.com",
					PlanId:    constants.PREMIUM_PLAN_ID,
					IsPremium: true,
				}, nil
			},
		}
		handler := NewUserHandler(userService)

		req := authedRequest(http.MethodGet, "/api/profile", "", nil, constants.UserInfo{Sub: "usr_1"})
		rr := httptest.NewRecorder()

		handler.GetUserProfile(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
		}
		if capturedId != "usr_1" {
			t.Errorf("looked up user = %q, want %q", capturedId, "usr_1")
		}
		if !strings.Contains(rr.Body.String(), constants.PREMIUM_PLAN_ID) {
			t.Errorf("body %q should carry the plan id", rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), `"isPremium":true`) {
			t.Errorf("body %q should carry the premium flag", rr.Body.String())
		}
	})

	t.Run("missing user row", func(t *testing.T) {
		userService := &dynamodb_service.MockUserService{
			GetUserByIDFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.User, error) {
				return nil, nil
			},
		}
		handler := NewUserHandler(userService)

		req := authedRequest(http.MethodGet, "/api/profile", "", nil, constants.UserInfo{Sub: "usr_ghost"})
		rr := httptest.NewRecorder()

		handler.GetUserProfile(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		handler := NewUserHandler(&dynamodb_service.MockUserService{})

		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		rr := httptest.NewRecorder()

		handler.GetUserProfile(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
		}
	})
}
