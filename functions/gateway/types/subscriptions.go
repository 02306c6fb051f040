package types

import (
	"context"
)

// Subscription is the single billing record kept per user, keyed by userId
type Subscription struct {
	UserId        string `json:"userId" dynamodbav:"userId"`
	PlanId        string `json:"planId" dynamodbav:"planId"`
	Status        string `json:"status" dynamodbav:"status"`
	EntitlementId string `json:"entitlementId,omitempty" dynamodbav:"entitlementId"`
	ProductId     string `json:"productId,omitempty" dynamodbav:"productId"`
	Store         string `json:"store,omitempty" dynamodbav:"store"`
	Environment   string `json:"environment,omitempty" dynamodbav:"environment"`
	PeriodStart   int64  `json:"periodStart,omitempty" dynamodbav:"periodStart"`
	PeriodEnd     int64  `json:"periodEnd,omitempty" dynamodbav:"periodEnd"`
	ExpiresAt     int64  `json:"expiresAt,omitempty" dynamodbav:"expiresAt"`
	WillRenew     bool   `json:"willRenew" dynamodbav:"willRenew"`
	NextPlanId    string `json:"nextPlanId,omitempty" dynamodbav:"nextPlanId"`
	UpdatedAt     int64  `json:"updatedAt" dynamodbav:"updatedAt"`
}

// SubscriptionEvent is one row in the per-user billing audit log
type SubscriptionEvent struct {
	Id          string `json:"id" dynamodbav:"id"`
	UserId      string `json:"userId" dynamodbav:"userId"`
	EventType   string `json:"eventType" dynamodbav:"eventType"`
	PlanId      string `json:"planId" dynamodbav:"planId"`
	Status      string `json:"status" dynamodbav:"status"`
	Detail      string `json:"detail,omitempty" dynamodbav:"detail"`
	ProcessedAt int64  `json:"processedAt" dynamodbav:"processedAt"`
}

// SubscriptionTransition describes a verified plan/status change. ApplyTransition
// writes the user's plan flag, the subscription record, and an audit row in one
// transaction; all three land or none do.
type SubscriptionTransition struct {
	UserId       string
	EventType    string
	Detail       string
	Subscription Subscription
}

// SubscriberEntitlement is the re-verified state fetched from the billing
// platform. Webhook payloads are never trusted directly; this is the source
// of truth a transition is built from.
type SubscriberEntitlement struct {
	AppUserId     string `json:"appUserId"`
	IsActive      bool   `json:"isActive"`
	ProductId     string `json:"productId"`
	EntitlementId string `json:"entitlementId"`
	Store         string `json:"store"`
	Environment   string `json:"environment"`
	PeriodStart   int64  `json:"periodStart"`
	PeriodEnd     int64  `json:"periodEnd"`
	ExpiresAt     int64  `json:"expiresAt"`
	WillRenew     bool   `json:"willRenew"`
}

// Plan is one entry in the subscription plan catalog
type Plan struct {
	Id          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	PriceCents  int64    `json:"priceCents"`
	Currency    string   `json:"currency"`
	Interval    string   `json:"interval"`
	ProductId   string   `json:"productId,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// ProrationResult is the outcome of comparing two plans over the remainder of
// the current billing period
type ProrationResult struct {
	Kind                  string  `json:"kind"`
	TotalDays             int     `json:"totalDays"`
	ElapsedDays           int     `json:"elapsedDays"`
	RemainingDays         int     `json:"remainingDays"`
	CurrentDailyRateCents float64 `json:"currentDailyRateCents"`
	NewDailyRateCents     float64 `json:"newDailyRateCents"`
	NetAmountCents        int64   `json:"netAmountCents"`
	NetAmountDisplay      string  `json:"netAmountDisplay"`
}

// ChangePlanRequest is the body of POST /api/subscription/change-plan and
// preview-plan-change
type ChangePlanRequest struct {
	NewPlanId string `json:"newPlanId" validate:"required"`
}

// ChangePlanResponse reports the applied (or previewed) plan change
type ChangePlanResponse struct {
	PlanId       string           `json:"planId"`
	EffectiveAt  string           `json:"effectiveAt"`
	Proration    *ProrationResult `json:"proration,omitempty"`
	PaymentRef   string           `json:"paymentRef,omitempty"`
	PaymentUrl   string           `json:"paymentUrl,omitempty"`
	Subscription *Subscription    `json:"subscription,omitempty"`
}

type SubscriptionServiceInterface interface {
	GetSubscriptionByUserID(ctx context.Context, dynamodbClient DynamoDBAPI, userId string) (*Subscription, error)
	ApplyTransition(ctx context.Context, dynamodbClient DynamoDBAPI, transition SubscriptionTransition) error
	SetNextPlanId(ctx context.Context, dynamodbClient DynamoDBAPI, userId, nextPlanId string) (*Subscription, error)
	GetSubscriptionEventsByUserID(ctx context.Context, dynamodbClient DynamoDBAPI, userId string, limit int32) ([]SubscriptionEvent, error)
}
