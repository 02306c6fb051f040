package services

import (
	"context"
	"fmt"
	"log"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/interfaces"
	"github.com/eventpass/api/functions/gateway/types"
)

// SubscriptionDispatcher turns billing webhook events into verified
// subscription transitions. The webhook payload is treated as a hint only;
// every state change is built from a fresh entitlement lookup.
type SubscriptionDispatcher struct {
	entitlementService  interfaces.EntitlementServiceInterface
	subscriptionService types.SubscriptionServiceInterface
}

func NewSubscriptionDispatcher(entitlementService interfaces.EntitlementServiceInterface, subscriptionService types.SubscriptionServiceInterface) *SubscriptionDispatcher {
	return &SubscriptionDispatcher{
		entitlementService:  entitlementService,
		subscriptionService: subscriptionService,
	}
}

func (d *SubscriptionDispatcher) ProcessWebhookEvent(ctx context.Context, dynamodbClient types.DynamoDBAPI, event types.BillingWebhookEvent) error {
	switch event.Type {
	case constants.WEBHOOK_EVENT_INITIAL_PURCHASE,
		constants.WEBHOOK_EVENT_RENEWAL,
		constants.WEBHOOK_EVENT_PRODUCT_CHANGE:
		return d.applyActiveEvent(ctx, dynamodbClient, event)
	case constants.WEBHOOK_EVENT_CANCELLATION:
		return d.applyDegradedEvent(ctx, dynamodbClient, event, constants.SubscriptionStatus.Cancelled)
	case constants.WEBHOOK_EVENT_EXPIRATION:
		return d.applyDegradedEvent(ctx, dynamodbClient, event, constants.SubscriptionStatus.Expired)
	case constants.WEBHOOK_EVENT_BILLING_ISSUE:
		return d.applyDegradedEvent(ctx, dynamodbClient, event, constants.SubscriptionStatus.BillingIssue)
	case constants.WEBHOOK_EVENT_TEST:
		log.Printf("Received TEST webhook event %s for user %s", event.Id, event.AppUserId)
		return nil
	default:
		log.Printf("Ignoring unknown webhook event type %q (event %s)", event.Type, event.Id)
		return nil
	}
}

// applyActiveEvent handles purchases, renewals, and product changes. The
// entitlement must verify as active; a webhook claiming a purchase for an
// inactive subscriber is rejected without writing anything.
func (d *SubscriptionDispatcher) applyActiveEvent(ctx context.Context, dynamodbClient types.DynamoDBAPI, event types.BillingWebhookEvent) error {
	entitlement, err := d.entitlementService.GetSubscriberEntitlement(ctx, event.AppUserId)
	if err != nil {
		return fmt.Errorf("entitlement verification failed for user %s event %s: %w", event.AppUserId, event.Type, err)
	}
	if !entitlement.IsActive {
		return fmt.Errorf("entitlement inactive for user %s on %s event %s, refusing to activate", event.AppUserId, event.Type, event.Id)
	}

	plan, ok := GetPlanByProductID(entitlement.ProductId)
	if !ok {
		return fmt.Errorf("no plan maps to product %q for user %s event %s", entitlement.ProductId, event.AppUserId, event.Id)
	}

	transition := types.SubscriptionTransition{
		UserId:    event.AppUserId,
		EventType: event.Type,
		Detail:    fmt.Sprintf("verified %s for product %s", event.Type, entitlement.ProductId),
		Subscription: types.Subscription{
			UserId:        event.AppUserId,
			PlanId:        plan.Id,
			Status:        constants.SubscriptionStatus.Active,
			EntitlementId: entitlement.EntitlementId,
			ProductId:     entitlement.ProductId,
			Store:         entitlement.Store,
			Environment:   entitlement.Environment,
			PeriodStart:   entitlement.PeriodStart,
			PeriodEnd:     entitlement.PeriodEnd,
			ExpiresAt:     entitlement.ExpiresAt,
			WillRenew:     entitlement.WillRenew,
		},
	}

	return d.subscriptionService.ApplyTransition(ctx, dynamodbClient, transition)
}

// applyDegradedEvent records cancellations, expirations, and billing issues.
// The entitlement is still re-verified for its period and product data, but
// an inactive result is expected here.
func (d *SubscriptionDispatcher) applyDegradedEvent(ctx context.Context, dynamodbClient types.DynamoDBAPI, event types.BillingWebhookEvent, status string) error {
	entitlement, err := d.entitlementService.GetSubscriberEntitlement(ctx, event.AppUserId)
	if err != nil {
		return fmt.Errorf("entitlement verification failed for user %s event %s: %w", event.AppUserId, event.Type, err)
	}

	planId := constants.FREE_PLAN_ID
	if status != constants.SubscriptionStatus.Expired {
		// cancelled and billing_issue subscribers keep their plan until the
		// period actually lapses
		if plan, ok := GetPlanByProductID(entitlement.ProductId); ok {
			planId = plan.Id
		} else if current, err := d.subscriptionService.GetSubscriptionByUserID(ctx, dynamodbClient, event.AppUserId); err == nil && current != nil {
			planId = current.PlanId
		}
	}

	detail := fmt.Sprintf("verified %s", event.Type)
	if event.CancelReason != "" {
		detail = fmt.Sprintf("verified %s, reason: %s", event.Type, event.CancelReason)
	}

	transition := types.SubscriptionTransition{
		UserId:    event.AppUserId,
		EventType: event.Type,
		Detail:    detail,
		Subscription: types.Subscription{
			UserId:        event.AppUserId,
			PlanId:        planId,
			Status:        status,
			EntitlementId: entitlement.EntitlementId,
			ProductId:     entitlement.ProductId,
			Store:         entitlement.Store,
			Environment:   entitlement.Environment,
			PeriodStart:   entitlement.PeriodStart,
			PeriodEnd:     entitlement.PeriodEnd,
			ExpiresAt:     entitlement.ExpiresAt,
			WillRenew:     false,
		},
	}

	return d.subscriptionService.ApplyTransition(ctx, dynamodbClient, transition)
}
