package dynamodb_handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	validator "github.com/go-playground/validator"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	"github.com/eventpass/api/functions/gateway/interfaces"
	"github.com/eventpass/api/functions/gateway/services"
	dynamodb_service "github.com/eventpass/api/functions/gateway/services/dynamodb_service"
	"github.com/eventpass/api/functions/gateway/transport"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

var validate *validator.Validate = validator.New()

type BulkRegistrationHandler struct {
	BulkRegistrationService internal_types.BulkRegistrationServiceInterface
	EventService            internal_types.EventServiceInterface
	TicketService           internal_types.TicketServiceInterface
	PaymentService          interfaces.PaymentServiceInterface
	QueueService            interfaces.QueueServiceInterface
}

func NewBulkRegistrationHandler(
	bulkRegistrationService internal_types.BulkRegistrationServiceInterface,
	eventService internal_types.EventServiceInterface,
	ticketService internal_types.TicketServiceInterface,
	paymentService interfaces.PaymentServiceInterface,
	queueService interfaces.QueueServiceInterface,
) *BulkRegistrationHandler {
	return &BulkRegistrationHandler{
		BulkRegistrationService: bulkRegistrationService,
		EventService:            eventService,
		TicketService:           ticketService,
		PaymentService:          paymentService,
		QueueService:            queueService,
	}
}

func (h *BulkRegistrationHandler) CreateBulkRegistration(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := helpers.GetUserInfoFromContext(r.Context())
	if !ok {
		transport.SendErrorRes(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}

	vars := mux.Vars(r)
	eventId := vars[constants.EVENT_ID_KEY]
	if eventId == "" {
		transport.SendErrorRes(w, "Missing event ID", http.StatusBadRequest, nil)
		return
	}

	var createRegistration internal_types.BulkRegistrationInsert
	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendErrorRes(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	err = json.Unmarshal(body, &createRegistration)
	if err != nil {
		transport.SendErrorRes(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest, err)
		return
	}

	if int64(len(createRegistration.AttendeeDetails)) != createRegistration.Quantity {
		transport.SendErrorRes(w, "attendeeDetails length must equal quantity", http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	event, err := h.EventService.GetEventById(r.Context(), db, eventId)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get event: "+err.Error(), http.StatusInternalServerError, err)
		return
	}
	if event == nil {
		transport.SendErrorRes(w, "Event not found", http.StatusNotFound, nil)
		return
	}
	if event.Status == constants.RegistrationStatus.Cancelled {
		transport.SendErrorRes(w, "Event is cancelled", http.StatusBadRequest, nil)
		return
	}

	// Advisory capacity check. The issuance transaction re-checks this with a
	// condition expression, so overselling is caught there even if two
	// registrations pass this read together.
	if event.MaxAttendees > 0 && event.AttendeeCount+createRegistration.Quantity > event.MaxAttendees {
		transport.SendErrorRes(w, "Not enough remaining capacity for this event", http.StatusBadRequest, nil)
		return
	}

	now := time.Now().Unix()
	createRegistration.EventId = eventId
	createRegistration.UserId = userInfo.Sub
	createRegistration.TotalAmountCents = createRegistration.Quantity * event.TicketPriceCents
	createRegistration.Currency = event.Currency
	if createRegistration.Currency == "" {
		createRegistration.Currency = constants.DEFAULT_CURRENCY
	}
	createRegistration.Status = constants.RegistrationStatus.Pending
	createRegistration.CreatedAt = now
	createRegistration.UpdatedAt = now

	err = validate.Struct(&createRegistration)
	if err != nil {
		transport.SendErrorRes(w, "Invalid body: "+err.Error(), http.StatusBadRequest, err)
		return
	}

	registration, err := h.BulkRegistrationService.InsertBulkRegistration(r.Context(), db, createRegistration)
	if err != nil {
		transport.SendErrorRes(w, "Failed to create bulk registration: "+err.Error(), http.StatusInternalServerError, err)
		return
	}

	if registration.TotalAmountCents > 0 {
		session, err := h.PaymentService.InitializePayment(r.Context(), internal_types.PaymentRequest{
			AmountCents:   registration.TotalAmountCents,
			Currency:      registration.Currency,
			CustomerEmail: userInfo.Email,
			Description:   fmt.Sprintf("%d tickets for %s", registration.Quantity, event.Name),
			Metadata: map[string]string{
				"registrationId": registration.Id,
				"eventId":        event.Id,
			},
		})
		if err != nil {
			transport.SendErrorRes(w, "Failed to initialize payment: "+err.Error(), http.StatusInternalServerError, err)
			return
		}

		registration, err = h.BulkRegistrationService.UpdateBulkRegistration(r.Context(), db, registration.Id, internal_types.BulkRegistrationUpdate{
			PaymentRef: session.Reference,
			PaymentUrl: session.AuthorizationUrl,
		})
		if err != nil {
			transport.SendErrorRes(w, "Failed to record payment session: "+err.Error(), http.StatusInternalServerError, err)
			return
		}
	}

	transport.SendJSONRes(w, registration, "Bulk registration created", http.StatusCreated)
}

func (h *BulkRegistrationHandler) GetBulkRegistration(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := helpers.GetUserInfoFromContext(r.Context())
	if !ok {
		transport.SendErrorRes(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}

	vars := mux.Vars(r)
	registrationId := vars[constants.REGISTRATION_ID_KEY]
	if registrationId == "" {
		transport.SendErrorRes(w, "Missing registration ID", http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	registration, err := h.BulkRegistrationService.GetBulkRegistrationById(r.Context(), db, registrationId)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get bulk registration: "+err.Error(), http.StatusInternalServerError, err)
		return
	}
	if registration == nil {
		transport.SendErrorRes(w, "Bulk registration not found", http.StatusNotFound, nil)
		return
	}
	if registration.UserId != userInfo.Sub && !helpers.HasRole(userInfo, constants.SuperAdmin) {
		transport.SendErrorRes(w, "Not authorized to view this registration", http.StatusForbidden, nil)
		return
	}

	data := map[string]interface{}{
		"registration": registration,
	}
	if registration.Status == constants.RegistrationStatus.Completed {
		tickets, err := h.TicketService.GetTicketsByBulkRegistrationID(r.Context(), db, registration.Id)
		if err != nil {
			transport.SendErrorRes(w, "Failed to get tickets: "+err.Error(), http.StatusInternalServerError, err)
			return
		}
		data["tickets"] = tickets
	}

	transport.SendJSONRes(w, data, "", http.StatusOK)
}

func (h *BulkRegistrationHandler) GetBulkRegistrations(w http.ResponseWriter, r *http.Request) {
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
	registrations, lastEvaluatedKey, err := h.BulkRegistrationService.GetBulkRegistrationsByUserID(r.Context(), db, userInfo.Sub, limit, startKey)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get bulk registrations: "+err.Error(), http.StatusInternalServerError, err)
		return
	}

	data := map[string]interface{}{
		"registrations": registrations,
		"nextStartKey":  helpers.ExtractStartKey(lastEvaluatedKey),
	}

	transport.SendJSONRes(w, data, "", http.StatusOK)
}

// ConfirmBulkRegistration verifies the payment settled, then issues every
// ticket, completes the registration, and bumps the event's attendee count in
// one transaction. Asset generation and email delivery fan out through the
// task queue after commit.
func (h *BulkRegistrationHandler) ConfirmBulkRegistration(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := helpers.GetUserInfoFromContext(r.Context())
	if !ok {
		transport.SendErrorRes(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}

	vars := mux.Vars(r)
	registrationId := vars[constants.REGISTRATION_ID_KEY]
	if registrationId == "" {
		transport.SendErrorRes(w, "Missing registration ID", http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	registration, err := h.BulkRegistrationService.GetBulkRegistrationById(r.Context(), db, registrationId)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get bulk registration: "+err.Error(), http.StatusInternalServerError, err)
		return
	}
	if registration == nil {
		transport.SendErrorRes(w, "Bulk registration not found", http.StatusNotFound, nil)
		return
	}
	if registration.UserId != userInfo.Sub && !helpers.HasRole(userInfo, constants.SuperAdmin) {
		transport.SendErrorRes(w, "Not authorized to confirm this registration", http.StatusForbidden, nil)
		return
	}
	if registration.Status != constants.RegistrationStatus.Pending {
		transport.SendErrorRes(w, "Bulk registration is not pending", http.StatusBadRequest, nil)
		return
	}

	if registration.TotalAmountCents > 0 {
		if registration.PaymentRef == "" {
			transport.SendErrorRes(w, "No payment session recorded for this registration", http.StatusBadRequest, nil)
			return
		}
		verification, err := h.PaymentService.VerifyPayment(r.Context(), registration.PaymentRef)
		if err != nil {
			transport.SendErrorRes(w, "Failed to verify payment: "+err.Error(), http.StatusInternalServerError, err)
			return
		}
		if !verification.Paid {
			transport.SendErrorRes(w, "Payment has not settled", http.StatusBadRequest, nil)
			return
		}
	}

	event, err := h.EventService.GetEventById(r.Context(), db, registration.EventId)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get event: "+err.Error(), http.StatusInternalServerError, err)
		return
	}
	if event == nil {
		transport.SendErrorRes(w, "Event not found", http.StatusNotFound, nil)
		return
	}

	tickets, err := h.TicketService.IssueTickets(r.Context(), db, internal_types.TicketIssuance{
		Registration: *registration,
		Event:        *event,
		PaymentRef:   registration.PaymentRef,
	})
	if err != nil {
		if strings.Contains(err.Error(), "ConditionalCheckFailed") || strings.Contains(err.Error(), "TransactionCanceled") {
			transport.SendErrorRes(w, "Event capacity or registration state changed, no tickets were issued", http.StatusBadRequest, err)
			return
		}
		transport.SendErrorRes(w, "Failed to issue tickets: "+err.Error(), http.StatusInternalServerError, err)
		return
	}

	// The transaction is committed; asset failures from here on are logged
	// and retried by the worker, never surfaced as a request failure.
	for _, ticket := range tickets {
		task, err := internal_types.NewQueueTask(constants.TASK_KIND_TICKET_ASSETS, internal_types.TicketAssetsTask{
			TicketId: ticket.Id,
			EventId:  event.Id,
		})
		if err != nil {
			log.Printf("ERR: failed to build assets task for ticket %s: %v", ticket.Id, err)
			continue
		}
		if err := h.QueueService.PublishMsg(r.Context(), task); err != nil {
			log.Printf("ERR: failed to enqueue assets task for ticket %s: %v", ticket.Id, err)
		}
	}

	data := map[string]interface{}{
		"registrationId": registration.Id,
		"status":         constants.RegistrationStatus.Completed,
		"tickets":        tickets,
	}

	transport.SendJSONRes(w, data, "Tickets issued", http.StatusOK)
}

func (h *BulkRegistrationHandler) CancelBulkRegistration(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := helpers.GetUserInfoFromContext(r.Context())
	if !ok {
		transport.SendErrorRes(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}

	vars := mux.Vars(r)
	registrationId := vars[constants.REGISTRATION_ID_KEY]
	if registrationId == "" {
		transport.SendErrorRes(w, "Missing registration ID", http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	registration, err := h.BulkRegistrationService.GetBulkRegistrationById(r.Context(), db, registrationId)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get bulk registration: "+err.Error(), http.StatusInternalServerError, err)
		return
	}
	if registration == nil {
		transport.SendErrorRes(w, "Bulk registration not found", http.StatusNotFound, nil)
		return
	}
	if registration.UserId != userInfo.Sub && !helpers.HasRole(userInfo, constants.SuperAdmin) {
		transport.SendErrorRes(w, "Not authorized to cancel this registration", http.StatusForbidden, nil)
		return
	}
	if registration.Status != constants.RegistrationStatus.Pending {
		transport.SendErrorRes(w, "Only pending registrations can be cancelled", http.StatusBadRequest, nil)
		return
	}

	err = h.BulkRegistrationService.DeletePendingBulkRegistration(r.Context(), db, registrationId)
	if err != nil {
		if strings.Contains(err.Error(), "ConditionalCheckFailed") {
			transport.SendErrorRes(w, "Registration is no longer pending", http.StatusBadRequest, err)
			return
		}
		transport.SendErrorRes(w, "Failed to cancel bulk registration: "+err.Error(), http.StatusInternalServerError, err)
		return
	}

	transport.SendJSONRes(w, nil, "Bulk registration cancelled", http.StatusOK)
}

func CreateBulkRegistrationHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := newBulkRegistrationHandlerFromProviders()
	return func(w http.ResponseWriter, r *http.Request) {
		handler.CreateBulkRegistration(w, r)
	}
}

func GetBulkRegistrationHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := newBulkRegistrationHandlerFromProviders()
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetBulkRegistration(w, r)
	}
}

func GetBulkRegistrationsHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := newBulkRegistrationHandlerFromProviders()
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetBulkRegistrations(w, r)
	}
}

func ConfirmBulkRegistrationHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	queueService, err := services.GetQueueService(r.Context())
	if err != nil {
		return func(w http.ResponseWriter, r *http.Request) {
			transport.SendErrorRes(w, "Task queue unavailable", http.StatusInternalServerError, err)
		}
	}
	handler := NewBulkRegistrationHandler(
		dynamodb_service.NewBulkRegistrationService(),
		dynamodb_service.NewEventService(),
		dynamodb_service.NewTicketService(),
		services.GetPaymentService(),
		queueService,
	)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.ConfirmBulkRegistration(w, r)
	}
}

func CancelBulkRegistrationHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := newBulkRegistrationHandlerFromProviders()
	return func(w http.ResponseWriter, r *http.Request) {
		handler.CancelBulkRegistration(w, r)
	}
}

// newBulkRegistrationHandlerFromProviders wires the handler for routes that
// never touch the queue; Confirm builds its own so a queue outage fails fast
func newBulkRegistrationHandlerFromProviders() *BulkRegistrationHandler {
	return NewBulkRegistrationHandler(
		dynamodb_service.NewBulkRegistrationService(),
		dynamodb_service.NewEventService(),
		dynamodb_service.NewTicketService(),
		services.GetPaymentService(),
		nil,
	)
}
