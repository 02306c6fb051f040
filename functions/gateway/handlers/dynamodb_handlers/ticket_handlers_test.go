package dynamodb_handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/eventpass/api/functions/gateway/constants"
	dynamodb_service "github.com/eventpass/api/functions/gateway/services/dynamodb_service"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

func TestGetTickets(t *testing.T) {
	os.Setenv("GO_ENV", constants.GO_TEST_ENV)
	defer os.Unsetenv("GO_ENV")

	var capturedUserId string
	var capturedLimit int32
	var capturedStartKey string

	ticketService := &dynamodb_service.MockTicketService{
		GetTicketsByUserIDFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string, limit int32, startKey string) ([]internal_types.Ticket, map[string]dynamodb_types.AttributeValue, error) {
			capturedUserId = userId
			capturedLimit = limit
			capturedStartKey = startKey
			return []internal_types.Ticket{
					{Id: "tkt_2", UserId: userId, AttendeeName: "Sipho Dlamini"},
					{Id: "tkt_1", UserId: userId, AttendeeName: "Thandi Mokoena"},
				}, map[string]dynamodb_types.AttributeValue{
					"id": &dynamodb_types.AttributeValueMemberS{Value: "tkt_1"},
				}, nil
		},
	}
	handler := NewTicketHandler(ticketService)

	t.Run("lists caller tickets", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/tickets", "", nil, constants.UserInfo{Sub: "usr_1"})
		rr := httptest.NewRecorder()

		handler.GetTickets(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
		}
		if capturedUserId != "usr_1" {
			t.Errorf("userId = %q, want %q", capturedUserId, "usr_1")
		}
		if capturedLimit != constants.DEFAULT_PAGINATION_LIMIT {
			t.Errorf("limit = %d, want %d", capturedLimit, constants.DEFAULT_PAGINATION_LIMIT)
		}
		if !strings.Contains(rr.Body.String(), "tkt_2") {
			t.Errorf("body %q should list tickets", rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), `"nextStartKey":"tkt_1"`) {
			t.Errorf("body %q should carry the pagination cursor", rr.Body.String())
		}
	})

	t.Run("passes pagination through", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/tickets?limit=5&start_key=tkt_5", "", nil, constants.UserInfo{Sub: "usr_1"})
		rr := httptest.NewRecorder()

		handler.GetTickets(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
		}
		if capturedLimit != 5 {
			t.Errorf("limit = %d, want %d", capturedLimit, 5)
		}
		if capturedStartKey != "tkt_5" {
			t.Errorf("startKey = %q, want %q", capturedStartKey, "tkt_5")
		}
	})

	t.Run("rejects bad limit", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/tickets?limit=-1", "", nil, constants.UserInfo{Sub: "usr_1"})
		rr := httptest.NewRecorder()

		handler.GetTickets(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
		rr := httptest.NewRecorder()

		handler.GetTickets(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
		}
	})
}

func TestGetTicket(t *testing.T) {
	os.Setenv("GO_ENV", constants.GO_TEST_ENV)
	defer os.Unsetenv("GO_ENV")

	tests := []struct {
		name         string
		ticket       *internal_types.Ticket
		userInfo     constants.UserInfo
		expectedCode int
		wantInBody   string
	}{
		{
			name:         "owner fetches ticket",
			ticket:       &internal_types.Ticket{Id: "tkt_1", UserId: "usr_1", AttendeeName: "Thandi Mokoena", Status: "issued"},
			userInfo:     constants.UserInfo{Sub: "usr_1"},
			expectedCode: http.StatusOK,
			wantInBody:   "Thandi Mokoena",
		},
		{
			name:         "other user is forbidden",
			ticket:       &internal_types.Ticket{Id: "tkt_1", UserId: "usr_1"},
			userInfo:     constants.UserInfo{Sub: "usr_other"},
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "super admin may view",
			ticket:       &internal_types.Ticket{Id: "tkt_1", UserId: "usr_1"},
			userInfo:     constants.UserInfo{Sub: "usr_admin", Roles: []string{string(constants.SuperAdmin)}},
			expectedCode: http.StatusOK,
		},
		{
			name:         "missing ticket",
			ticket:       nil,
			userInfo:     constants.UserInfo{Sub: "usr_1"},
			expectedCode: http.StatusNotFound,
			wantInBody:   "Ticket not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticketService := &dynamodb_service.MockTicketService{
				GetTicketByIdFunc: func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.Ticket, error) {
					return tt.ticket, nil
				},
			}
			handler := NewTicketHandler(ticketService)

			req := authedRequest(http.MethodGet, "/api/tickets/tkt_1", "",
				map[string]string{constants.TICKET_ID_KEY: "tkt_1"}, tt.userInfo)
			rr := httptest.NewRecorder()

			handler.GetTicket(rr, req)

			if rr.Code != tt.expectedCode {
				t.Errorf("status = %d, want %d; body: %s", rr.Code, tt.expectedCode, rr.Body.String())
			}
			if tt.wantInBody != "" && !strings.Contains(rr.Body.String(), tt.wantInBody) {
				t.Errorf("body %q should contain %q", rr.Body.String(), tt.wantInBody)
			}
		})
	}
}
