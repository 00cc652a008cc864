package event

import (
	"context"
	"log/slog"

	"github.com/nm-digitalhub/sumit-gateway/internal/notify"
	"github.com/nm-digitalhub/sumit-gateway/pkg/kafka"
	"github.com/nm-digitalhub/sumit-gateway/pkg/logger"
)

// Kafka topics for relayed payment lifecycle events.
const (
	TopicPaymentsCompleted = "payments.completed"
	TopicPaymentsFailed    = "payments.failed"
	TopicPaymentsRefunded  = "payments.refunded"
	TopicPaymentsStatus    = "payments.status"
	TopicWebhooksReceived  = "payments.webhooks"
)

const (
	aggregateTypeTransaction = "transaction"
	aggregateTypeWebhook     = "webhook"
	eventSource              = "sumit-gateway"
)

// KafkaRelay forwards bus notifications to Kafka so downstream consumers can
// react to payment outcomes. Publish failures are logged and swallowed; the
// relay never blocks the payment flow on broker availability.
type KafkaRelay struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// NewKafkaRelay creates a relay over the given producer.
func NewKafkaRelay(producer *kafka.Producer, logger *slog.Logger) *KafkaRelay {
	return &KafkaRelay{
		producer: producer,
		logger:   logger,
	}
}

// Register subscribes the relay to all notifications it forwards.
func (r *KafkaRelay) Register(bus *notify.Bus) {
	bus.Subscribe(r.handle,
		notify.KindPaymentCompleted,
		notify.KindPaymentFailed,
		notify.KindPaymentRefunded,
		notify.KindPaymentStatusChanged,
		notify.KindWebhookReceived,
	)
}

func (r *KafkaRelay) handle(ctx context.Context, n notify.Notification) {
	switch v := n.(type) {
	case notify.PaymentCompleted:
		r.publish(ctx, TopicPaymentsCompleted, n, v.TransactionID, aggregateTypeTransaction)
	case notify.PaymentFailed:
		r.publish(ctx, TopicPaymentsFailed, n, v.TransactionID, aggregateTypeTransaction)
	case notify.PaymentRefunded:
		r.publish(ctx, TopicPaymentsRefunded, n, v.TransactionID, aggregateTypeTransaction)
	case notify.PaymentStatusChanged:
		r.publish(ctx, TopicPaymentsStatus, n, v.TransactionID, aggregateTypeTransaction)
	case notify.WebhookReceived:
		r.publish(ctx, TopicWebhooksReceived, n, v.EventType, aggregateTypeWebhook)
	}
}

func (r *KafkaRelay) publish(ctx context.Context, topic string, n notify.Notification, aggregateID, aggregateType string) {
	evt, err := kafka.NewEvent(string(n.Kind()), aggregateID, aggregateType, eventSource, n)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to build relay event",
			slog.String("kind", string(n.Kind())),
			slog.String("error", err.Error()),
		)
		return
	}

	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := r.producer.Publish(ctx, topic, evt); err != nil {
		r.logger.ErrorContext(ctx, "failed to relay notification",
			slog.String("topic", topic),
			slog.String("kind", string(n.Kind())),
			slog.String("error", err.Error()),
		)
	}
}
