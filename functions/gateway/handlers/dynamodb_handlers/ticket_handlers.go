package dynamodb_handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	dynamodb_service "github.com/eventpass/api/functions/gateway/services/dynamodb_service"
	"github.com/eventpass/api/functions/gateway/transport"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

type TicketHandler struct {
	TicketService internal_types.TicketServiceInterface
}

func NewTicketHandler(ticketService internal_types.TicketServiceInterface) *TicketHandler {
	return &TicketHandler{TicketService: ticketService}
}

// GetTickets lists the caller's tickets, newest first
func (h *TicketHandler) GetTickets(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := helpers.GetUserInfoFromContext(r.Context())
	if !ok {
		transport.SendErrorRes(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}

	limit := int32(constants.DEFAULT_PAGINATION_LIMIT)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.ParseInt(limitStr, 10, 32)
		if err != nil || parsed < 1 {
			transport.SendErrorRes(w, "Invalid limit", http.StatusBadRequest, err)
			return
		}
		limit = int32(parsed)
	}
	startKey := r.URL.Query().Get("start_key")

	db := transport.GetDB()
	tickets, lastEvaluatedKey, err := h.TicketService.GetTicketsByUserID(r.Context(), db, userInfo.Sub, limit, startKey)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get tickets: "+err.Error(), http.StatusInternalServerError, err)
		return
	}

	data := map[string]interface{}{
		"tickets":      tickets,
		"nextStartKey": helpers.ExtractStartKey(lastEvaluatedKey),
	}

	transport.SendJSONRes(w, data, "", http.StatusOK)
}

func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := helpers.GetUserInfoFromContext(r.Context())
	if !ok {
		transport.SendErrorRes(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}

	ticketId := mux.Vars(r)[constants.TICKET_ID_KEY]
	if ticketId == "" {
		transport.SendErrorRes(w, "Missing ticket ID", http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	ticket, err := h.TicketService.GetTicketById(r.Context(), db, ticketId)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get ticket: "+err.Error(), http.StatusInternalServerError, err)
		return
	}
	if ticket == nil {
		transport.SendErrorRes(w, "Ticket not found", http.StatusNotFound, nil)
		return
	}
	if ticket.UserId != userInfo.Sub && !helpers.HasRole(userInfo, constants.SuperAdmin) {
		transport.SendErrorRes(w, "Not authorized to view this ticket", http.StatusForbidden, nil)
		return
	}

	transport.SendJSONRes(w, ticket, "", http.StatusOK)
}

func GetTicketsHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewTicketHandler(dynamodb_service.NewTicketService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetTickets(w, r)
	}
}

func GetTicketHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewTicketHandler(dynamodb_service.NewTicketService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetTicket(w, r)
	}
}
