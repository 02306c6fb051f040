package types

// PaymentRequest asks the payment provider to collect an amount from a user
type PaymentRequest struct {
	AmountCents   int64             `json:"amountCents" validate:"required,min=1"`
	Currency      string            `json:"currency" validate:"required"`
	CustomerEmail string            `json:"customerEmail" validate:"required,email"`
	Description   string            `json:"description"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// PaymentSession is the provider handle returned from payment initialization.
// Reference is stored on our side; AuthorizationUrl is where the client
// completes the charge.
type PaymentSession struct {
	Reference        string `json:"reference"`
	AuthorizationUrl string `json:"authorizationUrl"`
}

// PaymentVerification is the provider's answer for a payment reference
type PaymentVerification struct {
	Reference   string `json:"reference"`
	Paid        bool   `json:"paid"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}
