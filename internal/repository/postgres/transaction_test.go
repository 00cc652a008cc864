package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
	"github.com/nm-digitalhub/sumit-gateway/pkg/database"
	apperrors "github.com/nm-digitalhub/sumit-gateway/pkg/errors"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func setupTransactionRepo(t *testing.T) (*TransactionRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewTransactionRepository(mock)
	return repo, mock
}

func sampleTransaction() *domain.Transaction {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	processed := now.Add(2 * time.Second)
	return &domain.Transaction{
		ID:                  "f3a9c1de-6c2b-4d8e-9f01-2a3b4c5d6e7f",
		TransactionID:       "TXN-1741597200-a1b2c3d4",
		GatewayPaymentID:    "889123",
		Amount:              150.00,
		Currency:            "ILS",
		Status:              domain.StatusCompleted,
		PaymentMethod:       domain.MethodCreditCard,
		Type:                domain.TransactionTypePayment,
		DocumentID:          "DOC-42",
		AuthorizationNumber: "0012345",
		LastFourDigits:      "4242",
		CustomerID:          "CUST-7",
		ErrorMessage:        "",
		RefundAmount:        0,
		RefundDocumentID:    "",
		Metadata:            map[string]any{"order_id": "ORD-100"},
		ProcessedAt:         &processed,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func transactionColumnNames() []string {
	return []string{
		"id", "transaction_id", "gateway_payment_id", "amount", "currency",
		"status", "payment_method", "type", "document_id",
		"authorization_number", "last_four_digits", "customer_id",
		"error_message", "refund_amount", "refund_document_id", "metadata",
		"processed_at", "created_at", "updated_at",
	}
}

func transactionRow(tx *domain.Transaction) *pgxmock.Rows {
	metadataJSON, _ := json.Marshal(tx.Metadata)

	return pgxmock.NewRows(transactionColumnNames()).
		AddRow(
			tx.ID, tx.TransactionID, tx.GatewayPaymentID, tx.Amount, tx.Currency,
			tx.Status, tx.PaymentMethod, tx.Type, tx.DocumentID,
			tx.AuthorizationNumber, tx.LastFourDigits, tx.CustomerID,
			tx.ErrorMessage, tx.RefundAmount, tx.RefundDocumentID, metadataJSON,
			tx.ProcessedAt, tx.CreatedAt, tx.UpdatedAt,
		)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestTransactionRepository_Create_Success(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	tx := sampleTransaction()
	metadataJSON, _ := json.Marshal(tx.Metadata)

	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(
			tx.ID, tx.TransactionID, tx.GatewayPaymentID, tx.Amount, tx.Currency,
			tx.Status, tx.PaymentMethod, tx.Type, tx.DocumentID,
			tx.AuthorizationNumber, tx.LastFourDigits, tx.CustomerID,
			tx.ErrorMessage, tx.RefundAmount, tx.RefundDocumentID, metadataJSON,
			tx.ProcessedAt, tx.CreatedAt, tx.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), tx)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_Create_ExecError(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	tx := sampleTransaction()
	metadataJSON, _ := json.Marshal(tx.Metadata)

	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(
			tx.ID, tx.TransactionID, tx.GatewayPaymentID, tx.Amount, tx.Currency,
			tx.Status, tx.PaymentMethod, tx.Type, tx.DocumentID,
			tx.AuthorizationNumber, tx.LastFourDigits, tx.CustomerID,
			tx.ErrorMessage, tx.RefundAmount, tx.RefundDocumentID, metadataJSON,
			tx.ProcessedAt, tx.CreatedAt, tx.UpdatedAt,
		).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), tx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetByTransactionID
// ---------------------------------------------------------------------------

func TestTransactionRepository_GetByTransactionID_Success(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	tx := sampleTransaction()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE transaction_id").
		WithArgs(tx.TransactionID).
		WillReturnRows(transactionRow(tx))

	result, err := repo.GetByTransactionID(context.Background(), tx.TransactionID)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, tx.ID, result.ID)
	assert.Equal(t, tx.TransactionID, result.TransactionID)
	assert.Equal(t, tx.GatewayPaymentID, result.GatewayPaymentID)
	assert.Equal(t, tx.Amount, result.Amount)
	assert.Equal(t, tx.Currency, result.Currency)
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.Equal(t, tx.PaymentMethod, result.PaymentMethod)
	assert.Equal(t, tx.Type, result.Type)
	assert.Equal(t, tx.DocumentID, result.DocumentID)
	assert.Equal(t, tx.AuthorizationNumber, result.AuthorizationNumber)
	assert.Equal(t, tx.LastFourDigits, result.LastFourDigits)
	assert.Equal(t, tx.CustomerID, result.CustomerID)

	// Metadata round-trips through the JSONB column.
	assert.Equal(t, map[string]any{"order_id": "ORD-100"}, result.Metadata)

	require.NotNil(t, result.ProcessedAt)
	assert.Equal(t, *tx.ProcessedAt, *result.ProcessedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_GetByTransactionID_NotFound(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE transaction_id").
		WithArgs("TXN-missing").
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.GetByTransactionID(context.Background(), "TXN-missing")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_GetByTransactionID_QueryError(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE transaction_id").
		WithArgs("TXN-err").
		WillReturnError(errors.New("connection reset"))

	result, err := repo.GetByTransactionID(context.Background(), "TXN-err")
	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "get transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestTransactionRepository_List_Success(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	tx1 := sampleTransaction()
	tx2 := sampleTransaction()
	tx2.ID = "0b1c2d3e-4f50-6172-8394-a5b6c7d8e9f0"
	tx2.TransactionID = "TXN-1741597300-e5f6a7b8"
	tx2.Status = domain.StatusPending
	tx2.Metadata = nil
	tx2.ProcessedAt = nil

	metadataJSON1, _ := json.Marshal(tx1.Metadata)

	rows := pgxmock.NewRows(transactionColumnNames()).
		AddRow(
			tx1.ID, tx1.TransactionID, tx1.GatewayPaymentID, tx1.Amount, tx1.Currency,
			tx1.Status, tx1.PaymentMethod, tx1.Type, tx1.DocumentID,
			tx1.AuthorizationNumber, tx1.LastFourDigits, tx1.CustomerID,
			tx1.ErrorMessage, tx1.RefundAmount, tx1.RefundDocumentID, metadataJSON1,
			tx1.ProcessedAt, tx1.CreatedAt, tx1.UpdatedAt,
		).
		AddRow(
			tx2.ID, tx2.TransactionID, tx2.GatewayPaymentID, tx2.Amount, tx2.Currency,
			tx2.Status, tx2.PaymentMethod, tx2.Type, tx2.DocumentID,
			tx2.AuthorizationNumber, tx2.LastFourDigits, tx2.CustomerID,
			tx2.ErrorMessage, tx2.RefundAmount, tx2.RefundDocumentID, []byte(nil),
			tx2.ProcessedAt, tx2.CreatedAt, tx2.UpdatedAt,
		)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT .+ FROM transactions ORDER BY created_at DESC").
		WithArgs(0, 20).
		WillReturnRows(rows)

	transactions, total, err := repo.List(context.Background(), 0, 20)
	require.NoError(t, err)

	assert.Equal(t, 2, total)
	require.Len(t, transactions, 2)

	assert.Equal(t, tx1.TransactionID, transactions[0].TransactionID)
	assert.Equal(t, domain.StatusCompleted, transactions[0].Status)

	assert.Equal(t, tx2.TransactionID, transactions[1].TransactionID)
	assert.Equal(t, domain.StatusPending, transactions[1].Status)
	// NULL metadata must not blow up the scan.
	assert.Nil(t, transactions[1].Metadata)
	assert.Nil(t, transactions[1].ProcessedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_List_CountError(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnError(errors.New("database timeout"))

	transactions, total, err := repo.List(context.Background(), 0, 20)
	assert.Nil(t, transactions)
	assert.Equal(t, 0, total)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "count transactions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_List_QueryError(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery("SELECT .+ FROM transactions ORDER BY created_at DESC").
		WithArgs(0, 20).
		WillReturnError(errors.New("database timeout"))

	transactions, total, err := repo.List(context.Background(), 0, 20)
	assert.Nil(t, transactions)
	assert.Equal(t, 0, total)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "list transactions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// MarkCompleted / MarkFailed
// ---------------------------------------------------------------------------

func TestTransactionRepository_MarkCompleted_Success(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE transactions").
		WithArgs(
			domain.StatusCompleted, "DOC-42", "0012345", "CUST-7",
			pgxmock.AnyArg(), // processed_at / updated_at set to now
			"TXN-1741597200-a1b2c3d4",
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.MarkCompleted(context.Background(), "TXN-1741597200-a1b2c3d4", "DOC-42", "0012345", "CUST-7")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_MarkCompleted_UnknownIDIsNoop(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	// Zero rows updated is not an error: webhook redelivery for a
	// transaction this instance never stored.
	mock.ExpectExec("UPDATE transactions").
		WithArgs(
			domain.StatusCompleted, "DOC-1", "AUTH-1", "",
			pgxmock.AnyArg(),
			"TXN-unknown",
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.MarkCompleted(context.Background(), "TXN-unknown", "DOC-1", "AUTH-1", "")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_MarkFailed_Success(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE transactions").
		WithArgs(
			domain.StatusFailed, "Card declined",
			pgxmock.AnyArg(), // updated_at
			"TXN-1741597200-a1b2c3d4",
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.MarkFailed(context.Background(), "TXN-1741597200-a1b2c3d4", "Card declined")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_MarkFailed_ExecError(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE transactions").
		WithArgs(
			domain.StatusFailed, "Card declined",
			pgxmock.AnyArg(),
			"TXN-err",
		).
		WillReturnError(errors.New("connection refused"))

	err := repo.MarkFailed(context.Background(), "TXN-err", "Card declined")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mark transaction failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// TransitionStatus
// ---------------------------------------------------------------------------

func TestTransactionRepository_TransitionStatus_Wins(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE transactions").
		WithArgs(
			domain.StatusAuthorized,
			pgxmock.AnyArg(), // updated_at
			"TXN-1741597200-a1b2c3d4",
			domain.StatusPending,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.TransitionStatus(context.Background(), "TXN-1741597200-a1b2c3d4", domain.StatusPending, domain.StatusAuthorized)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_TransitionStatus_LosesRace(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	// Another writer already moved the record out of the expected status.
	mock.ExpectExec("UPDATE transactions").
		WithArgs(
			domain.StatusAuthorized,
			pgxmock.AnyArg(),
			"TXN-1741597200-a1b2c3d4",
			domain.StatusPending,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.TransitionStatus(context.Background(), "TXN-1741597200-a1b2c3d4", domain.StatusPending, domain.StatusAuthorized)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_TransitionStatus_ExecError(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE transactions").
		WithArgs(
			domain.StatusCompleted,
			pgxmock.AnyArg(),
			"TXN-err",
			domain.StatusAuthorized,
		).
		WillReturnError(errors.New("connection refused"))

	ok, err := repo.TransitionStatus(context.Background(), "TXN-err", domain.StatusAuthorized, domain.StatusCompleted)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "transition transaction status")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// RecordRefund
// ---------------------------------------------------------------------------

func TestTransactionRepository_RecordRefund_Success(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	mock.ExpectExec(`UPDATE transactions SET refund_amount = refund_amount \+ \$1`).
		WithArgs(
			40.0, "RDOC-9", domain.StatusRefunded,
			pgxmock.AnyArg(), // updated_at
			"TXN-1741597200-a1b2c3d4",
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.RecordRefund(context.Background(), "TXN-1741597200-a1b2c3d4", 40.0, "RDOC-9")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_RecordRefund_ExecError(t *testing.T) {
	repo, mock := setupTransactionRepo(t)
	defer mock.Close()

	mock.ExpectExec(`UPDATE transactions SET refund_amount = refund_amount \+ \$1`).
		WithArgs(
			40.0, "RDOC-9", domain.StatusRefunded,
			pgxmock.AnyArg(),
			"TXN-err",
		).
		WillReturnError(errors.New("connection refused"))

	err := repo.RecordRefund(context.Background(), "TXN-err", 40.0, "RDOC-9")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "record refund")
	assert.NoError(t, mock.ExpectationsWereMet())
}
