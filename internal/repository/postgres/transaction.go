package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
	"github.com/nm-digitalhub/sumit-gateway/pkg/database"
	apperrors "github.com/nm-digitalhub/sumit-gateway/pkg/errors"
)

const transactionColumns = `id, transaction_id, gateway_payment_id, amount, currency, status, payment_method, type,
	document_id, authorization_number, last_four_digits, customer_id, error_message,
	refund_amount, refund_document_id, metadata, processed_at, created_at, updated_at`

// TransactionRepository implements repository.TransactionStore using
// PostgreSQL.
type TransactionRepository struct {
	db database.DBTX
}

// NewTransactionRepository creates a PostgreSQL-backed transaction store.
func NewTransactionRepository(db database.DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a new transaction record.
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	metadataJSON, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO transactions (id, transaction_id, gateway_payment_id, amount, currency, status, payment_method, type,
			document_id, authorization_number, last_four_digits, customer_id, error_message,
			refund_amount, refund_document_id, metadata, processed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err = r.db.Exec(ctx, query,
		t.ID,
		t.TransactionID,
		t.GatewayPaymentID,
		t.Amount,
		t.Currency,
		t.Status,
		t.PaymentMethod,
		t.Type,
		t.DocumentID,
		t.AuthorizationNumber,
		t.LastFourDigits,
		t.CustomerID,
		t.ErrorMessage,
		t.RefundAmount,
		t.RefundDocumentID,
		metadataJSON,
		t.ProcessedAt,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves a transaction by its correlation id.
func (r *TransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE transaction_id = $1`

	row := r.db.QueryRow(ctx, query, transactionID)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("transaction", transactionID)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	return t, nil
}

// List returns transactions ordered by creation time, newest first, with the
// total count.
func (r *TransactionRepository) List(ctx context.Context, offset, limit int) ([]domain.Transaction, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`

	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}

	return transactions, total, nil
}

// MarkCompleted records a successful payment. Unknown transaction ids are a
// no-op so webhook redeliveries stay harmless.
func (r *TransactionRepository) MarkCompleted(ctx context.Context, transactionID, documentID, authorizationNumber, customerID string) error {
	query := `
		UPDATE transactions
		SET status = $1, document_id = $2, authorization_number = $3, customer_id = $4,
		    processed_at = $5, updated_at = $5
		WHERE transaction_id = $6`

	_, err := r.db.Exec(ctx, query,
		domain.StatusCompleted,
		documentID,
		authorizationNumber,
		customerID,
		time.Now().UTC(),
		transactionID,
	)
	if err != nil {
		return fmt.Errorf("mark transaction completed: %w", err)
	}

	return nil
}

// MarkFailed records a failed payment. Unknown transaction ids are a no-op.
func (r *TransactionRepository) MarkFailed(ctx context.Context, transactionID, errorMessage string) error {
	query := `
		UPDATE transactions
		SET status = $1, error_message = $2, updated_at = $3
		WHERE transaction_id = $4`

	_, err := r.db.Exec(ctx, query,
		domain.StatusFailed,
		errorMessage,
		time.Now().UTC(),
		transactionID,
	)
	if err != nil {
		return fmt.Errorf("mark transaction failed: %w", err)
	}

	return nil
}

// TransitionStatus performs a compare-and-set status change. Concurrent
// transitions race on the WHERE clause, so exactly one wins.
func (r *TransactionRepository) TransitionStatus(ctx context.Context, transactionID string, from, to domain.Status) (bool, error) {
	query := `
		UPDATE transactions
		SET status = $1, updated_at = $2
		WHERE transaction_id = $3 AND status = $4`

	ct, err := r.db.Exec(ctx, query, to, time.Now().UTC(), transactionID, from)
	if err != nil {
		return false, fmt.Errorf("transition transaction status: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// RecordRefund accumulates a refund amount atomically and flips the status
// to refunded once the full amount has been returned.
func (r *TransactionRepository) RecordRefund(ctx context.Context, transactionID string, amount float64, refundDocumentID string) error {
	query := `
		UPDATE transactions
		SET refund_amount = refund_amount + $1,
		    refund_document_id = $2,
		    status = CASE WHEN refund_amount + $1 >= amount THEN $3 ELSE status END,
		    updated_at = $4
		WHERE transaction_id = $5`

	_, err := r.db.Exec(ctx, query,
		amount,
		refundDocumentID,
		domain.StatusRefunded,
		time.Now().UTC(),
		transactionID,
	)
	if err != nil {
		return fmt.Errorf("record refund: %w", err)
	}

	return nil
}

// scanTransaction scans a single row into a Transaction.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var metadataJSON []byte

	err := row.Scan(
		&t.ID,
		&t.TransactionID,
		&t.GatewayPaymentID,
		&t.Amount,
		&t.Currency,
		&t.Status,
		&t.PaymentMethod,
		&t.Type,
		&t.DocumentID,
		&t.AuthorizationNumber,
		&t.LastFourDigits,
		&t.CustomerID,
		&t.ErrorMessage,
		&t.RefundAmount,
		&t.RefundDocumentID,
		&metadataJSON,
		&t.ProcessedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &t, nil
}
