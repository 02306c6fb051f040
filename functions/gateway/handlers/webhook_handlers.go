package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	"github.com/eventpass/api/functions/gateway/interfaces"
	"github.com/eventpass/api/functions/gateway/services"
	"github.com/eventpass/api/functions/gateway/transport"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

type WebhookHandler struct {
	QueueService interfaces.QueueServiceInterface
}

func NewWebhookHandler(queueService interfaces.QueueServiceInterface) *WebhookHandler {
	return &WebhookHandler{QueueService: queueService}
}

// HandleBillingWebhook accepts a billing platform event. The signature is
// checked against the raw bytes before anything is parsed; an unsigned body
// never reaches the JSON decoder. Acknowledged events are queued for the
// worker, so a 200 here only means "accepted", not "applied".
func (h *WebhookHandler) HandleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.WEBHOOK_MAX_BODY_BYTES)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendErrorRes(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	secret := os.Getenv("REVENUECAT_WEBHOOK_SECRET")
	signature := r.Header.Get(constants.WEBHOOK_SIGNATURE_HEADER)
	if !helpers.VerifyWebhookSignature(body, signature, secret) {
		transport.SendErrorRes(w, "Invalid webhook signature", http.StatusUnauthorized, nil)
		return
	}

	var payload internal_types.BillingWebhookPayload
	err = json.Unmarshal(body, &payload)
	if err != nil {
		transport.SendErrorRes(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest, err)
		return
	}
	if payload.Event.Type == "" || payload.Event.AppUserId == "" {
		transport.SendErrorRes(w, "Missing event type or app_user_id", http.StatusBadRequest, nil)
		return
	}

	task, err := internal_types.NewQueueTask(constants.TASK_KIND_WEBHOOK_EVENT, internal_types.WebhookTask{
		Event: payload.Event,
	})
	if err != nil {
		transport.SendErrorRes(w, "Failed to build event task", http.StatusInternalServerError, err)
		return
	}

	err = h.QueueService.PublishMsg(r.Context(), task)
	if err != nil {
		// Not accepted; the sender's retry is the only redelivery path here
		transport.SendErrorRes(w, "Failed to enqueue event", http.StatusInternalServerError, err)
		return
	}

	log.Printf("Accepted %s webhook event %s for user %s", payload.Event.Type, payload.Event.Id, payload.Event.AppUserId)
	transport.SendJSONRes(w, map[string]string{"eventId": payload.Event.Id}, "Event accepted", http.StatusOK)
}

func HandleBillingWebhookHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	queueService, err := services.GetQueueService(r.Context())
	if err != nil {
		return func(w http.ResponseWriter, r *http.Request) {
			transport.SendErrorRes(w, "Task queue unavailable", http.StatusInternalServerError, err)
		}
	}
	handler := NewWebhookHandler(queueService)
	return func(w http.ResponseWriter, r *http.Request) {
		handler.HandleBillingWebhook(w, r)
	}
}
