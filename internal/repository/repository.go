package repository

import (
	"context"

	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
)

// TransactionStore persists local transaction records. Implementations must
// tolerate webhook redeliveries: update operations are no-ops for unknown
// transaction ids rather than errors surfaced to listeners.
type TransactionStore interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	List(ctx context.Context, offset, limit int) ([]domain.Transaction, int, error)

	// MarkCompleted records a successful payment if the transaction exists.
	MarkCompleted(ctx context.Context, transactionID, documentID, authorizationNumber, customerID string) error

	// MarkFailed records a failed payment if the transaction exists.
	MarkFailed(ctx context.Context, transactionID, errorMessage string) error

	// TransitionStatus moves the transaction from one status to another
	// atomically. It returns false when the transaction was not in the
	// expected status, which serializes concurrent transitions.
	TransitionStatus(ctx context.Context, transactionID string, from, to domain.Status) (bool, error)

	// RecordRefund accumulates a refund against the transaction and flips
	// the status to refunded once fully refunded. The accumulation is
	// atomic in SQL so concurrent partial refunds cannot lose updates.
	RecordRefund(ctx context.Context, transactionID string, amount float64, refundDocumentID string) error
}

// TokenStore persists stored card tokens per owner.
type TokenStore interface {
	Store(ctx context.Context, token *domain.TokenRecord) error
	Get(ctx context.Context, id, ownerID string) (*domain.TokenRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.TokenRecord, error)
	Delete(ctx context.Context, id, ownerID string) (bool, error)
	SetDefault(ctx context.Context, id, ownerID string) (bool, error)
	TouchLastUsed(ctx context.Context, id string) error
}

// CustomerStore persists the local mirror of gateway CRM contacts.
type CustomerStore interface {
	Upsert(ctx context.Context, customer *domain.Customer) error
	GetBySumitID(ctx context.Context, sumitCustomerID string) (*domain.Customer, error)
	List(ctx context.Context, offset, limit int) ([]domain.Customer, int, error)
}
