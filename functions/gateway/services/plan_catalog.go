package services

import (
	"os"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/types"
)

// The plan catalog is static config. Product IDs map the App Store products
// onto plans and can be overridden per stage without a deploy of new prices.
var planCatalog = []types.Plan{
	{
		Id:          constants.FREE_PLAN_ID,
		Name:        "Free",
		Description: "Browse events and hold a single ticket at a time",
		PriceCents:  0,
		Currency:    constants.DEFAULT_CURRENCY,
		Interval:    "month",
		Features:    []string{"Browse events", "Single ticket checkout"},
	},
	{
		Id:          constants.BASIC_PLAN_ID,
		Name:        "Basic",
		Description: "Bulk registrations for small groups",
		PriceCents:  4999,
		Currency:    constants.DEFAULT_CURRENCY,
		Interval:    "month",
		ProductId:   getEnvOr("BASIC_PLAN_PRODUCT_ID", "eventpass_basic_monthly"),
		Features:    []string{"Bulk registrations up to 10 attendees", "Email ticket delivery"},
	},
	{
		Id:          constants.PREMIUM_PLAN_ID,
		Name:        "Premium",
		Description: "Larger groups and priority delivery",
		PriceCents:  9999,
		Currency:    constants.DEFAULT_CURRENCY,
		Interval:    "month",
		ProductId:   getEnvOr("PREMIUM_PLAN_PRODUCT_ID", "eventpass_premium_monthly"),
		Features:    []string{"Bulk registrations up to 50 attendees", "Priority email delivery"},
	},
	{
		Id:          constants.PRO_PLAN_ID,
		Name:        "Pro",
		Description: "Everything in Premium plus organizer tooling",
		PriceCents:  19999,
		Currency:    constants.DEFAULT_CURRENCY,
		Interval:    "month",
		ProductId:   getEnvOr("PRO_PLAN_PRODUCT_ID", "eventpass_pro_monthly"),
		Features:    []string{"All Premium features", "Organizer dashboard", "Attendee exports"},
	},
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetPlans() []types.Plan {
	plans := make([]types.Plan, len(planCatalog))
	copy(plans, planCatalog)
	return plans
}

func GetPlanByID(planId string) (*types.Plan, bool) {
	for i := range planCatalog {
		if planCatalog[i].Id == planId {
			plan := planCatalog[i]
			return &plan, true
		}
	}
	return nil, false
}

// GetPlanByProductID resolves the store product on a verified entitlement back
// to a catalog plan
func GetPlanByProductID(productId string) (*types.Plan, bool) {
	if productId == "" {
		return nil, false
	}
	for i := range planCatalog {
		if planCatalog[i].ProductId == productId {
			plan := planCatalog[i]
			return &plan, true
		}
	}
	return nil, false
}
