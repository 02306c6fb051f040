package dynamodb_handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	"github.com/eventpass/api/functions/gateway/interfaces"
	"github.com/eventpass/api/functions/gateway/services"
	dynamodb_service "github.com/eventpass/api/functions/gateway/services/dynamodb_service"
	"github.com/eventpass/api/functions/gateway/transport"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

const recentSubscriptionEventsLimit = 10

type SubscriptionHandler struct {
	SubscriptionService internal_types.SubscriptionServiceInterface
	EntitlementService  interfaces.EntitlementServiceInterface
	PaymentService      interfaces.PaymentServiceInterface
}

func NewSubscriptionHandler(
	subscriptionService internal_types.SubscriptionServiceInterface,
	entitlementService interfaces.EntitlementServiceInterface,
	paymentService interfaces.PaymentServiceInterface,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		SubscriptionService: subscriptionService,
		EntitlementService:  entitlementService,
		PaymentService:      paymentService,
	}
}

// GetPlans returns the plan catalog. Public so the app can render pricing
// before signup.
func (h *SubscriptionHandler) GetPlans(w http.ResponseWriter, r *http.Request) {
	transport.SendJSONRes(w, map[string]interface{}{"plans": services.GetPlans()}, "", http.StatusOK)
}

func (h *SubscriptionHandler) GetSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := helpers.GetUserInfoFromContext(r.Context())
	if !ok {
		transport.SendErrorRes(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}

	db := transport.GetDB()
	subscription, err := h.SubscriptionService.GetSubscriptionByUserID(r.Context(), db, userInfo.Sub)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get subscription: "+err.Error(), http.StatusInternalServerError, err)
		return
	}
	if subscription == nil {
		transport.SendErrorRes(w, "No subscription found", http.StatusNotFound, nil)
		return
	}

	events, err := h.SubscriptionService.GetSubscriptionEventsByUserID(r.Context(), db, userInfo.Sub, recentSubscriptionEventsLimit)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get subscription history: "+err.Error(), http.StatusInternalServerError, err)
		return
	}

	data := map[string]interface{}{
		"subscription": subscription,
		"recentEvents": events,
	}

	transport.SendJSONRes(w, data, "", http.StatusOK)
}

// ChangePlan applies a self-service plan change. With a live billing period
// the change is immediate and prorated; without one the new plan is parked on
// nextPlanId for the next cycle.
func (h *SubscriptionHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	h.handlePlanChange(w, r, false)
}

// PreviewPlanChange runs the same arithmetic as ChangePlan without writing
// anything or touching the payment provider.
func (h *SubscriptionHandler) PreviewPlanChange(w http.ResponseWriter, r *http.Request) {
	h.handlePlanChange(w, r, true)
}

func (h *SubscriptionHandler) handlePlanChange(w http.ResponseWriter, r *http.Request, preview bool) {
	userInfo, ok := helpers.GetUserInfoFromContext(r.Context())
	if !ok {
		transport.SendErrorRes(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}

	var changeRequest internal_types.ChangePlanRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendErrorRes(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}
	err = json.Unmarshal(body, &changeRequest)
	if err != nil {
		transport.SendErrorRes(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest, err)
		return
	}
	err = validate.Struct(&changeRequest)
	if err != nil {
		transport.SendErrorRes(w, "Invalid body: "+err.Error(), http.StatusBadRequest, err)
		return
	}

	db := transport.GetDB()
	subscription, err := h.SubscriptionService.GetSubscriptionByUserID(r.Context(), db, userInfo.Sub)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get subscription: "+err.Error(), http.StatusInternalServerError, err)
		return
	}
	if subscription == nil {
		transport.SendErrorRes(w, "No subscription found", http.StatusNotFound, nil)
		return
	}
	if subscription.PlanId == changeRequest.NewPlanId {
		transport.SendErrorRes(w, "Already on plan "+changeRequest.NewPlanId, http.StatusBadRequest, nil)
		return
	}

	newPlan, ok := services.GetPlanByID(changeRequest.NewPlanId)
	if !ok {
		transport.SendErrorRes(w, "Unknown plan: "+changeRequest.NewPlanId, http.StatusBadRequest, nil)
		return
	}
	currentPlan, ok := services.GetPlanByID(subscription.PlanId)
	if !ok {
		// A stored plan that has left the catalog has no remaining value to
		// prorate; price it as free.
		currentPlan = &internal_types.Plan{Id: subscription.PlanId, Currency: newPlan.Currency}
	}

	now := time.Now()
	hasPeriod := subscription.PeriodStart > 0 && subscription.PeriodEnd > subscription.PeriodStart
	proration := services.CalculateProration(
		currentPlan,
		newPlan,
		time.Unix(subscription.PeriodStart, 0),
		time.Unix(subscription.PeriodEnd, 0),
		now,
	)

	response := internal_types.ChangePlanResponse{
		PlanId:    newPlan.Id,
		Proration: &proration,
	}

	if !hasPeriod {
		response.EffectiveAt = "next_billing_cycle"
		if preview {
			transport.SendJSONRes(w, response, "", http.StatusOK)
			return
		}
		updated, err := h.SubscriptionService.SetNextPlanId(r.Context(), db, userInfo.Sub, newPlan.Id)
		if err != nil {
			transport.SendErrorRes(w, "Failed to schedule plan change: "+err.Error(), http.StatusInternalServerError, err)
			return
		}
		response.PlanId = subscription.PlanId
		response.Subscription = updated
		transport.SendJSONRes(w, response, "Plan change scheduled for next billing cycle", http.StatusOK)
		return
	}

	response.EffectiveAt = "immediate"
	if preview {
		transport.SendJSONRes(w, response, "", http.StatusOK)
		return
	}

	detail := fmt.Sprintf("plan change %s -> %s (%s %s)", subscription.PlanId, newPlan.Id, proration.Kind, proration.NetAmountDisplay)

	if proration.Kind == constants.ProrationKind.UpgradeCharge {
		session, err := h.PaymentService.InitializePayment(r.Context(), internal_types.PaymentRequest{
			AmountCents:   proration.NetAmountCents,
			Currency:      newPlan.Currency,
			CustomerEmail: userInfo.Email,
			Description:   "Upgrade to " + newPlan.Name,
			Metadata: map[string]string{
				"userId":    userInfo.Sub,
				"newPlanId": newPlan.Id,
			},
		})
		if err != nil {
			transport.SendErrorRes(w, "Failed to initialize proration payment: "+err.Error(), http.StatusInternalServerError, err)
			return
		}
		response.PaymentRef = session.Reference
		response.PaymentUrl = session.AuthorizationUrl
	}

	newSubscription := *subscription
	newSubscription.PlanId = newPlan.Id
	newSubscription.ProductId = newPlan.ProductId
	newSubscription.NextPlanId = ""

	err = h.SubscriptionService.ApplyTransition(r.Context(), db, internal_types.SubscriptionTransition{
		UserId:       userInfo.Sub,
		EventType:    constants.SUBSCRIPTION_EVENT_PLAN_CHANGE,
		Detail:       detail,
		Subscription: newSubscription,
	})
	if err != nil {
		transport.SendErrorRes(w, "Failed to apply plan change: "+err.Error(), http.StatusInternalServerError, err)
		return
	}

	response.Subscription = &newSubscription
	transport.SendJSONRes(w, response, "Plan changed", http.StatusOK)
}

// SyncSubscription re-verifies the caller's entitlement with the billing
// platform and applies whatever it says, active or not. The client calls this
// after an App Store purchase completes or when its local state looks stale.
func (h *SubscriptionHandler) SyncSubscription(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := helpers.GetUserInfoFromContext(r.Context())
	if !ok {
		transport.SendErrorRes(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}

	entitlement, err := h.EntitlementService.GetSubscriberEntitlement(r.Context(), userInfo.Sub)
	if err != nil {
		if errors.Is(err, interfaces.ErrSubscriberNotFound) {
			transport.SendErrorRes(w, "No billing account found", http.StatusNotFound, err)
			return
		}
		transport.SendErrorRes(w, "Failed to verify subscription: "+err.Error(), http.StatusInternalServerError, err)
		return
	}

	newSubscription := internal_types.Subscription{
		UserId:        userInfo.Sub,
		EntitlementId: entitlement.EntitlementId,
		ProductId:     entitlement.ProductId,
		Store:         entitlement.Store,
		Environment:   entitlement.Environment,
		PeriodStart:   entitlement.PeriodStart,
		PeriodEnd:     entitlement.PeriodEnd,
		ExpiresAt:     entitlement.ExpiresAt,
		WillRenew:     entitlement.WillRenew,
	}

	if entitlement.IsActive {
		plan, ok := services.GetPlanByProductID(entitlement.ProductId)
		if !ok {
			transport.SendErrorRes(w, "No plan mapped to product "+entitlement.ProductId, http.StatusInternalServerError, nil)
			return
		}
		newSubscription.PlanId = plan.Id
		newSubscription.Status = constants.SubscriptionStatus.Active
	} else {
		newSubscription.PlanId = constants.FREE_PLAN_ID
		newSubscription.Status = constants.SubscriptionStatus.Expired
		newSubscription.WillRenew = false
	}

	db := transport.GetDB()
	err = h.SubscriptionService.ApplyTransition(r.Context(), db, internal_types.SubscriptionTransition{
		UserId:       userInfo.Sub,
		EventType:    constants.SUBSCRIPTION_EVENT_SYNC,
		Detail:       fmt.Sprintf("entitlement re-verified, active=%t", entitlement.IsActive),
		Subscription: newSubscription,
	})
	if err != nil {
		transport.SendErrorRes(w, "Failed to apply subscription state: "+err.Error(), http.StatusInternalServerError, err)
		return
	}

	transport.SendJSONRes(w, newSubscription, "Subscription synced", http.StatusOK)
}

func GetPlansHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := newSubscriptionHandlerFromProviders()
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetPlans(w, r)
	}
}

func GetSubscriptionStatusHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := newSubscriptionHandlerFromProviders()
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetSubscriptionStatus(w, r)
	}
}

func ChangePlanHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := newSubscriptionHandlerFromProviders()
	return func(w http.ResponseWriter, r *http.Request) {
		handler.ChangePlan(w, r)
	}
}

func PreviewPlanChangeHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := newSubscriptionHandlerFromProviders()
	return func(w http.ResponseWriter, r *http.Request) {
		handler.PreviewPlanChange(w, r)
	}
}

func SyncSubscriptionHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := newSubscriptionHandlerFromProviders()
	return func(w http.ResponseWriter, r *http.Request) {
		handler.SyncSubscription(w, r)
	}
}

func newSubscriptionHandlerFromProviders() *SubscriptionHandler {
	return NewSubscriptionHandler(
		dynamodb_service.NewSubscriptionService(),
		services.GetEntitlementService(),
		services.GetPaymentService(),
	)
}
