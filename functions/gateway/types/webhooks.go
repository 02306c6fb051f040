package types

// BillingWebhookEvent is the event object inside a billing platform webhook.
// Timestamps arrive in epoch milliseconds. The payload identifies the user and
// what happened; entitlement state is always re-verified server side before
// any record is written.
type BillingWebhookEvent struct {
	Id             string `json:"id"`
	Type           string `json:"type"`
	AppUserId      string `json:"app_user_id"`
	ProductId      string `json:"product_id"`
	EntitlementId  string `json:"entitlement_id"`
	NewProductId   string `json:"new_product_id,omitempty"`
	PeriodType     string `json:"period_type,omitempty"`
	PurchasedAtMs  int64  `json:"purchased_at_ms,omitempty"`
	ExpirationAtMs int64  `json:"expiration_at_ms,omitempty"`
	EventAtMs      int64  `json:"event_timestamp_ms,omitempty"`
	Store          string `json:"store,omitempty"`
	Environment    string `json:"environment,omitempty"`
	CancelReason   string `json:"cancel_reason,omitempty"`
}

// BillingWebhookPayload is the top-level webhook body
type BillingWebhookPayload struct {
	ApiVersion string              `json:"api_version"`
	Event      BillingWebhookEvent `json:"event"`
}
