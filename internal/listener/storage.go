package listener

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
	"github.com/nm-digitalhub/sumit-gateway/internal/notify"
	"github.com/nm-digitalhub/sumit-gateway/internal/repository"
)

// StorageListener persists lifecycle notifications through the store
// interfaces. It is the built-in persistence mode: registering it on the bus
// is all the wiring there is. Storage failures are logged, never propagated;
// payments must not fail because bookkeeping did.
type StorageListener struct {
	transactions repository.TransactionStore
	tokens       repository.TokenStore
	logger       *slog.Logger
}

// NewStorageListener creates a persistence listener.
func NewStorageListener(transactions repository.TransactionStore, tokens repository.TokenStore, logger *slog.Logger) *StorageListener {
	return &StorageListener{
		transactions: transactions,
		tokens:       tokens,
		logger:       logger,
	}
}

// Register subscribes the listener to all notifications it persists.
func (l *StorageListener) Register(bus *notify.Bus) {
	bus.Subscribe(l.handle,
		notify.KindPaymentCreated,
		notify.KindPaymentCompleted,
		notify.KindPaymentFailed,
		notify.KindPaymentRefunded,
		notify.KindPaymentStatusChanged,
		notify.KindTokenCreated,
	)
}

func (l *StorageListener) handle(ctx context.Context, n notify.Notification) {
	switch v := n.(type) {
	case notify.PaymentCreated:
		l.createTransaction(ctx, v)
	case notify.PaymentCompleted:
		l.logErr(ctx, n, l.transactions.MarkCompleted(ctx, v.TransactionID, v.DocumentID, v.AuthorizationNumber, v.CustomerID))
	case notify.PaymentFailed:
		l.logErr(ctx, n, l.transactions.MarkFailed(ctx, v.TransactionID, v.ErrorMessage))
	case notify.PaymentRefunded:
		l.logErr(ctx, n, l.transactions.RecordRefund(ctx, v.TransactionID, v.RefundAmount, v.RefundDocumentID))
	case notify.PaymentStatusChanged:
		l.transition(ctx, v)
	case notify.TokenCreated:
		l.storeToken(ctx, v)
	}
}

func (l *StorageListener) createTransaction(ctx context.Context, n notify.PaymentCreated) {
	now := time.Now().UTC()
	resp := n.Response

	status := resp.Status
	if resp.HasFailed() {
		status = domain.StatusFailed
	}

	txn := &domain.Transaction{
		ID:                  uuid.New().String(),
		TransactionID:       resp.TransactionID,
		GatewayPaymentID:    resp.PaymentID,
		Amount:              n.Intent.Amount,
		Currency:            currencyOrDefault(n.Intent.Currency),
		Status:              status,
		PaymentMethod:       paymentMethod(n.Intent),
		Type:                transactionType(n.Intent),
		DocumentID:          resp.DocumentID,
		AuthorizationNumber: resp.AuthorizationNumber,
		LastFourDigits:      resp.LastFourDigits,
		CustomerID:          resp.CustomerID,
		ErrorMessage:        resp.ErrorMessage,
		Metadata:            n.Intent.Metadata,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	l.logErr(ctx, n, l.transactions.Create(ctx, txn))
}

func (l *StorageListener) transition(ctx context.Context, n notify.PaymentStatusChanged) {
	moved, err := l.transactions.TransitionStatus(ctx, n.TransactionID, n.OldStatus, n.NewStatus)
	if err != nil {
		l.logErr(ctx, n, err)
		return
	}
	if !moved {
		l.logger.DebugContext(ctx, "status transition skipped, transaction not in expected status",
			slog.String("transaction_id", n.TransactionID),
			slog.String("from", string(n.OldStatus)),
			slog.String("to", string(n.NewStatus)),
		)
	}
}

func (l *StorageListener) storeToken(ctx context.Context, n notify.TokenCreated) {
	if l.tokens == nil {
		return
	}
	token := n.Token
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	token.CreatedAt = now
	token.UpdatedAt = now
	l.logErr(ctx, n, l.tokens.Store(ctx, &token))
}

func (l *StorageListener) logErr(ctx context.Context, n notify.Notification, err error) {
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to persist notification",
			slog.String("kind", string(n.Kind())),
			slog.String("error", err.Error()),
		)
	}
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return "ILS"
	}
	return currency
}

func paymentMethod(intent domain.PaymentIntent) string {
	switch {
	case intent.HasToken():
		return domain.MethodToken
	case intent.HasCard():
		return domain.MethodCreditCard
	default:
		return domain.MethodRedirect
	}
}

func transactionType(intent domain.PaymentIntent) string {
	switch {
	case intent.IsDonation:
		return domain.TransactionTypeDonation
	case intent.IsSubscription:
		return domain.TransactionTypeSubscription
	default:
		return domain.TransactionTypePayment
	}
}
