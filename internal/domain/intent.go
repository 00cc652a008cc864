package domain

import "errors"

// Intent validation errors.
var (
	ErrNoPaymentMethod       = errors.New("payment intent: no payment method provided")
	ErrConflictingMethods    = errors.New("payment intent: both token and card details provided")
	ErrIncompleteCardDetails = errors.New("payment intent: incomplete card details")
)

// Item is a single line item on a charge.
type Item struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// PaymentIntent describes a charge to be made. Amounts are decimal currency
// units. Exactly one payment method (stored token or raw card) must be set,
// except in redirect mode where the gateway collects card details itself.
type PaymentIntent struct {
	Amount      float64
	Currency    string
	Description string
	ItemName    string
	Items       []Item

	// Stored token method.
	Token string

	// Raw card method.
	CardNumber  string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string

	// Customer details, all optional.
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	CustomerCity    string
	CustomerCountry string
	CustomerZip     string

	PaymentsCount  int
	Language       string
	IsDonation     bool
	IsSubscription bool

	Metadata map[string]any
}

// HasToken reports whether the intent charges a stored token.
func (p *PaymentIntent) HasToken() bool {
	return p.Token != ""
}

// HasCard reports whether the intent carries raw card details. CVV is not
// required: the gateway accepts CVV-less charges and the builder sends an
// empty string.
func (p *PaymentIntent) HasCard() bool {
	return p.CardNumber != "" && p.ExpiryMonth != "" && p.ExpiryYear != ""
}

// Validate checks the payment-method invariant. In redirect mode no local
// method is required since the gateway hosts the card form.
func (p *PaymentIntent) Validate(redirectMode bool) error {
	if p.HasToken() && (p.CardNumber != "" || p.ExpiryMonth != "" || p.ExpiryYear != "") {
		return ErrConflictingMethods
	}
	if redirectMode || p.HasToken() || p.HasCard() {
		return nil
	}
	if p.CardNumber != "" {
		return ErrIncompleteCardDetails
	}
	return ErrNoPaymentMethod
}
