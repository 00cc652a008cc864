package domain

import "time"

// Transaction types.
const (
	TransactionTypePayment      = "payment"
	TransactionTypeDonation     = "donation"
	TransactionTypeSubscription = "subscription"
)

// Payment method labels recorded on stored transactions.
const (
	MethodCreditCard = "credit_card"
	MethodToken      = "token"
	MethodRedirect   = "redirect"
)

// Transaction is a locally stored record of a gateway transaction. The
// TransactionID is the locally generated correlation id; ID is the storage
// primary key.
type Transaction struct {
	ID                  string         `json:"id"`
	TransactionID       string         `json:"transaction_id"`
	GatewayPaymentID    string         `json:"gateway_payment_id,omitempty"`
	Amount              float64        `json:"amount"`
	Currency            string         `json:"currency"`
	Status              Status         `json:"status"`
	PaymentMethod       string         `json:"payment_method"`
	Type                string         `json:"type"`
	DocumentID          string         `json:"document_id,omitempty"`
	AuthorizationNumber string         `json:"authorization_number,omitempty"`
	LastFourDigits      string         `json:"last_four_digits,omitempty"`
	CustomerID          string         `json:"customer_id,omitempty"`
	ErrorMessage        string         `json:"error_message,omitempty"`
	RefundAmount        float64        `json:"refund_amount"`
	RefundDocumentID    string         `json:"refund_document_id,omitempty"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	ProcessedAt         *time.Time     `json:"processed_at,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// RemainingRefundable returns how much of the transaction can still be
// refunded.
func (t *Transaction) RemainingRefundable() float64 {
	remaining := t.Amount - t.RefundAmount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsRefundable reports whether a refund can be issued against this
// transaction.
func (t *Transaction) IsRefundable() bool {
	return t.Status == StatusCompleted && t.RemainingRefundable() > 0
}
