package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/eventpass/api/functions/gateway/interfaces"
	"github.com/eventpass/api/functions/gateway/types"
)

var sc *stripe.Client
var stripeOnce sync.Once

func InitStripe() {
	stripeOnce.Do(func() {
		sc = stripe.NewClient(GetStripeSecretKey())
	})
}

func GetStripeSecretKey() string {
	sstStage := os.Getenv("SST_STAGE")
	if sstStage == "prod" {
		return os.Getenv("PROD_STRIPE_SECRET_KEY")
	}
	return os.Getenv("DEV_STRIPE_SECRET_KEY")
}

func GetStripeClient() *stripe.Client {
	InitStripe()
	return sc
}

type PaymentService struct {
	client *stripe.Client
}

func NewPaymentService() interfaces.PaymentServiceInterface {
	return &PaymentService{
		client: GetStripeClient(),
	}
}

// InitializePayment opens a checkout session for the full registration amount.
// The session reference comes back to us on verification, so the registration
// id travels in ClientReferenceID and the metadata.
func (s *PaymentService) InitializePayment(ctx context.Context, payment types.PaymentRequest) (*types.PaymentSession, error) {
	apexURL := os.Getenv("APEX_URL")

	params := &stripe.CheckoutSessionCreateParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(apexURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(apexURL + "/checkout/cancel"),
		CustomerEmail: stripe.String(payment.CustomerEmail),
		ExpiresAt:     stripe.Int64(time.Now().Add(30 * time.Minute).Unix()),
		Metadata:      payment.Metadata,
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(payment.Currency)),
					UnitAmount: stripe.Int64(payment.AmountCents),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name:     stripe.String(payment.Description),
						Metadata: payment.Metadata,
					},
				},
			},
		},
	}
	if ref, ok := payment.Metadata["registrationId"]; ok {
		params.ClientReferenceID = stripe.String(ref)
	}

	sess, err := s.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("error creating checkout session: %w", err)
	}

	return &types.PaymentSession{
		Reference:        sess.ID,
		AuthorizationUrl: sess.URL,
	}, nil
}

// VerifyPayment retrieves the session and reports whether it settled
func (s *PaymentService) VerifyPayment(ctx context.Context, reference string) (*types.PaymentVerification, error) {
	sess, err := s.client.V1CheckoutSessions.Retrieve(ctx, reference, nil)
	if err != nil {
		return nil, fmt.Errorf("error retrieving checkout session %s: %w", reference, err)
	}

	return &types.PaymentVerification{
		Reference:   sess.ID,
		Paid:        sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountCents: sess.AmountTotal,
		Currency:    strings.ToUpper(string(sess.Currency)),
	}, nil
}

type MockPaymentService struct {
	InitializePaymentFunc func(ctx context.Context, payment types.PaymentRequest) (*types.PaymentSession, error)
	VerifyPaymentFunc     func(ctx context.Context, reference string) (*types.PaymentVerification, error)
}

func (m *MockPaymentService) InitializePayment(ctx context.Context, payment types.PaymentRequest) (*types.PaymentSession, error) {
	return m.InitializePaymentFunc(ctx, payment)
}

func (m *MockPaymentService) VerifyPayment(ctx context.Context, reference string) (*types.PaymentVerification, error) {
	return m.VerifyPaymentFunc(ctx, reference)
}
