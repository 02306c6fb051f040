package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/eventpass/api/functions/gateway/interfaces"
	"github.com/eventpass/api/functions/gateway/types"
)

// entitlementEnvelope is the billing platform's subscriber document. Only the
// entitlement block is read; everything else in the payload is ignored.
type entitlementEnvelope struct {
	Subscriber struct {
		AppUserId    string `json:"app_user_id"`
		Entitlements map[string]struct {
			IsActive       bool   `json:"is_active"`
			ProductId      string `json:"product_identifier"`
			Store          string `json:"store"`
			Environment    string `json:"environment"`
			PurchasedAtMs  int64  `json:"purchased_at_ms"`
			ExpirationAtMs int64  `json:"expiration_at_ms"`
			WillRenew      bool   `json:"will_renew"`
		} `json:"entitlements"`
	} `json:"subscriber"`
}

type EntitlementService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewEntitlementService() interfaces.EntitlementServiceInterface {
	return &EntitlementService{
		baseURL:    os.Getenv("BILLING_API_URL_BASE"),
		apiKey:     os.Getenv("BILLING_API_KEY"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewEntitlementServiceWithBase points the client at a different billing API
// host, used by tests to target a local server
func NewEntitlementServiceWithBase(baseURL, apiKey string) *EntitlementService {
	return &EntitlementService{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetSubscriberEntitlement fetches the subscriber's live entitlement state
// from the billing platform. Webhook payloads only announce that something
// changed; this call is what decides the resulting plan and status.
func (s *EntitlementService) GetSubscriberEntitlement(ctx context.Context, appUserId string) (*types.SubscriberEntitlement, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("ERR: BILLING_API_URL_BASE is not configured")
	}

	subscriberURL := s.baseURL + "/subscribers/" + url.PathEscape(appUserId)
	req, err := http.NewRequestWithContext(ctx, "GET", subscriberURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ERR: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ERR: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, interfaces.ErrSubscriberNotFound
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ERR: %v from billing API for subscriber %s", res.StatusCode, appUserId)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("ERR: %v", err)
	}

	var envelope entitlementEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("ERR: failed to parse billing API response: %v", err)
	}

	entitlement := &types.SubscriberEntitlement{
		AppUserId: envelope.Subscriber.AppUserId,
	}
	if entitlement.AppUserId == "" {
		entitlement.AppUserId = appUserId
	}

	// A subscriber can hold several entitlements; take the active one, or
	// failing that the one that expired last, so a lapsed subscriber still
	// reports which product lapsed.
	for id, ent := range envelope.Subscriber.Entitlements {
		candidate := types.SubscriberEntitlement{
			AppUserId:     entitlement.AppUserId,
			IsActive:      ent.IsActive,
			ProductId:     ent.ProductId,
			EntitlementId: id,
			Store:         ent.Store,
			Environment:   ent.Environment,
			PeriodStart:   ent.PurchasedAtMs / 1000,
			PeriodEnd:     ent.ExpirationAtMs / 1000,
			ExpiresAt:     ent.ExpirationAtMs / 1000,
			WillRenew:     ent.WillRenew,
		}
		if candidate.IsActive && !entitlement.IsActive {
			*entitlement = candidate
			continue
		}
		if !entitlement.IsActive && candidate.ExpiresAt > entitlement.ExpiresAt {
			*entitlement = candidate
		}
	}

	return entitlement, nil
}

type MockEntitlementService struct {
	GetSubscriberEntitlementFunc func(ctx context.Context, appUserId string) (*types.SubscriberEntitlement, error)
}

func (m *MockEntitlementService) GetSubscriberEntitlement(ctx context.Context, appUserId string) (*types.SubscriberEntitlement, error) {
	return m.GetSubscriberEntitlementFunc(ctx, appUserId)
}
