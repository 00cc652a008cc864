package notify

import (
	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
)

// Kind identifies a lifecycle notification type.
type Kind string

const (
	KindPaymentCreated       Kind = "payment.created"
	KindPaymentCompleted     Kind = "payment.completed"
	KindPaymentFailed        Kind = "payment.failed"
	KindPaymentRefunded      Kind = "payment.refunded"
	KindPaymentStatusChanged Kind = "payment.status_changed"
	KindWebhookReceived      Kind = "webhook.received"
	KindTokenCreated         Kind = "token.created"
)

// Notification is implemented by all lifecycle notifications.
type Notification interface {
	Kind() Kind
}

// PaymentCreated fires once per charge attempt, after a gateway response has
// been normalized, regardless of outcome.
type PaymentCreated struct {
	Response *domain.GatewayResponse
	Intent   domain.PaymentIntent
}

func (PaymentCreated) Kind() Kind { return KindPaymentCreated }

// PaymentCompleted fires when a charge or a webhook reports a completed
// payment.
type PaymentCompleted struct {
	TransactionID       string
	Amount              float64
	Currency            string
	DocumentID          string
	AuthorizationNumber string
	CustomerID          string
	Metadata            map[string]any
}

func (PaymentCompleted) Kind() Kind { return KindPaymentCompleted }

// PaymentFailed fires when a charge attempt or a webhook reports failure.
type PaymentFailed struct {
	TransactionID string
	Amount        float64
	Currency      string
	ErrorMessage  string
	Metadata      map[string]any
}

func (PaymentFailed) Kind() Kind { return KindPaymentFailed }

// PaymentRefunded fires after a successful refund. IsPartial is true when
// the refunded amount is less than the original charge.
type PaymentRefunded struct {
	TransactionID    string
	RefundAmount     float64
	IsPartial        bool
	RefundDocumentID string
	Reason           string
	Metadata         map[string]any
}

func (PaymentRefunded) Kind() Kind { return KindPaymentRefunded }

// PaymentStatusChanged fires on a status transition that is not covered by a
// more specific notification, such as authorized to completed after capture.
type PaymentStatusChanged struct {
	TransactionID string
	OldStatus     domain.Status
	NewStatus     domain.Status
	Metadata      map[string]any
}

func (PaymentStatusChanged) Kind() Kind { return KindPaymentStatusChanged }

// WebhookReceived fires for every accepted webhook delivery, before any
// event-specific dispatch, including unrecognized event types.
type WebhookReceived struct {
	EventType string
	Payload   map[string]any
}

func (WebhookReceived) Kind() Kind { return KindWebhookReceived }

// TokenCreated fires when a charge returns a newly issued card token.
type TokenCreated struct {
	OwnerID string
	Token   domain.TokenRecord
}

func (TokenCreated) Kind() Kind { return KindTokenCreated }
