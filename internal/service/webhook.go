package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/nm-digitalhub/sumit-gateway/internal/config"
	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
	"github.com/nm-digitalhub/sumit-gateway/internal/notify"
)

// Webhook event types, accepted in dotted lowercase or PascalCase form.
const (
	WebhookEventCompleted  = "payment.completed"
	WebhookEventFailed     = "payment.failed"
	WebhookEventRefunded   = "payment.refunded"
	WebhookEventAuthorized = "payment.authorized"
)

// WebhookInvalidSignature is the error text returned for deliveries whose
// signature fails verification.
const WebhookInvalidSignature = "Invalid signature"

// WebhookResult is the outcome of processing a single delivery.
type WebhookResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WebhookProcessor verifies, parses, and dispatches gateway webhook
// deliveries. It performs no deduplication: the gateway may redeliver, and
// listeners are expected to be idempotent.
type WebhookProcessor struct {
	settings config.SettingsProvider
	bus      *notify.Bus
	logger   *slog.Logger
}

// NewWebhookProcessor creates a webhook processor.
func NewWebhookProcessor(settings config.SettingsProvider, bus *notify.Bus, logger *slog.Logger) *WebhookProcessor {
	return &WebhookProcessor{
		settings: settings,
		bus:      bus,
		logger:   logger,
	}
}

// Handle processes one webhook delivery: signature verification first, then
// parsing, then notification dispatch. Any panic past verification is
// recovered into a generic failure so the endpoint never leaks internals.
func (p *WebhookProcessor) Handle(ctx context.Context, body []byte, contentType, signature string) (result WebhookResult) {
	s := p.settings.Current()

	if !p.verifySignature(body, signature, s) {
		p.logger.WarnContext(ctx, "webhook rejected: invalid signature")
		return WebhookResult{Success: false, Error: WebhookInvalidSignature}
	}

	defer func() {
		if rec := recover(); rec != nil {
			p.logger.ErrorContext(ctx, "webhook processing panicked",
				slog.Any("panic", rec),
			)
			result = WebhookResult{Success: false, Error: "Webhook processing failed"}
		}
	}()

	payload := parseWebhookBody(body, contentType)

	eventType := pickString(payload, "EventType", "event_type")
	if eventType == "" {
		eventType = "unknown"
	}

	p.bus.Publish(ctx, notify.WebhookReceived{
		EventType: eventType,
		Payload:   payload,
	})

	p.dispatch(ctx, eventType, payload)

	return WebhookResult{Success: true, Message: "received"}
}

// verifySignature checks the HMAC-SHA256 hex signature of the raw body
// against the account API key. Verification is bypassed entirely when
// disabled by settings or in testing mode. A missing header passes: some
// gateway configurations never sign, and rejecting unsigned deliveries would
// silently drop their events. Enforcement therefore only applies to
// deliveries that claim a signature.
func (p *WebhookProcessor) verifySignature(body []byte, signature string, s config.Settings) bool {
	if !s.VerifyWebhookSig || s.TestingMode {
		return true
	}
	if signature == "" {
		return true
	}

	mac := hmac.New(sha256.New, []byte(s.APIKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

// dispatch publishes the event-specific notification. Unrecognized event
// types are logged and accepted; the generic WebhookReceived notification
// has already fired for them.
func (p *WebhookProcessor) dispatch(ctx context.Context, eventType string, payload map[string]any) {
	transactionID := pickString(payload, "TransactionID", "transaction_id")

	switch canonicalEventType(eventType) {
	case WebhookEventCompleted:
		if transactionID == "" {
			p.logger.WarnContext(ctx, "completed webhook without transaction id, skipping")
			return
		}
		p.bus.Publish(ctx, notify.PaymentCompleted{
			TransactionID: transactionID,
			Amount:        pickFloat(payload, "Amount", "amount"),
			Currency:      currencyOrDefault(payload),
			DocumentID:    pickString(payload, "DocumentID", "document_id"),
			CustomerID:    pickString(payload, "CustomerID", "customer_id"),
		})

	case WebhookEventFailed:
		if transactionID == "" {
			p.logger.WarnContext(ctx, "failed webhook without transaction id, skipping")
			return
		}
		p.bus.Publish(ctx, notify.PaymentFailed{
			TransactionID: transactionID,
			Amount:        pickFloat(payload, "Amount", "amount"),
			Currency:      currencyOrDefault(payload),
			ErrorMessage:  pickString(payload, "ErrorMessage", "error_message"),
		})

	case WebhookEventRefunded:
		if transactionID == "" {
			p.logger.WarnContext(ctx, "refunded webhook without transaction id, skipping")
			return
		}
		// A delivery without RefundAmount reports 0, not the full amount:
		// the gateway did not say how much was refunded, and recording the
		// full amount would overstate what it actually confirmed.
		amount := pickFloat(payload, "Amount", "amount")
		refundAmount := pickFloat(payload, "RefundAmount", "refund_amount")
		p.bus.Publish(ctx, notify.PaymentRefunded{
			TransactionID:    transactionID,
			RefundAmount:     refundAmount,
			IsPartial:        refundAmount < amount,
			RefundDocumentID: pickString(payload, "RefundDocumentID", "refund_document_id"),
		})

	case WebhookEventAuthorized:
		if transactionID == "" {
			p.logger.WarnContext(ctx, "authorized webhook without transaction id, skipping")
			return
		}
		p.bus.Publish(ctx, notify.PaymentStatusChanged{
			TransactionID: transactionID,
			OldStatus:     domain.StatusPending,
			NewStatus:     domain.StatusAuthorized,
		})

	default:
		p.logger.DebugContext(ctx, "unhandled webhook event type",
			slog.String("event_type", eventType),
		)
	}
}

// canonicalEventType folds PascalCase event names into the dotted lowercase
// form.
func canonicalEventType(eventType string) string {
	switch eventType {
	case "PaymentCompleted":
		return WebhookEventCompleted
	case "PaymentFailed":
		return WebhookEventFailed
	case "PaymentRefunded":
		return WebhookEventRefunded
	case "PaymentAuthorized":
		return WebhookEventAuthorized
	default:
		return strings.ToLower(eventType)
	}
}

// parseWebhookBody decodes the delivery as JSON or form-encoded data. An
// unreadable body yields an empty payload, which flows through as an unknown
// event rather than an error.
func parseWebhookBody(body []byte, contentType string) map[string]any {
	trimmed := strings.TrimSpace(string(body))

	if strings.Contains(contentType, "json") || strings.HasPrefix(trimmed, "{") {
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
			return map[string]any{}
		}
		return payload
	}

	values, err := url.ParseQuery(trimmed)
	if err != nil {
		return map[string]any{}
	}
	payload := make(map[string]any, len(values))
	for key := range values {
		payload[key] = values.Get(key)
	}
	return payload
}

// pickString returns the first present key's value, rendered as a string.
func pickString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key]; ok {
			switch t := v.(type) {
			case string:
				return t
			case float64:
				return strconv.FormatFloat(t, 'f', -1, 64)
			}
		}
	}
	return ""
}

// pickFloat returns the first present key's value as a float64, accepting
// JSON numbers and numeric strings (form-encoded bodies carry the latter).
func pickFloat(payload map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := payload[key]; ok {
			switch t := v.(type) {
			case float64:
				return t
			case string:
				if f, err := strconv.ParseFloat(t, 64); err == nil {
					return f
				}
			}
		}
	}
	return 0
}

func currencyOrDefault(payload map[string]any) string {
	if c := pickString(payload, "Currency", "currency"); c != "" {
		return c
	}
	return "ILS"
}
