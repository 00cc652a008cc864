package service

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nm-digitalhub/sumit-gateway/internal/config"
	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
	"github.com/nm-digitalhub/sumit-gateway/internal/gateway"
	"github.com/nm-digitalhub/sumit-gateway/internal/notify"
)

// --- Mock Transport ---

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Send(ctx context.Context, path string, payload map[string]any, includeClientIP bool) (map[string]any, error) {
	args := m.Called(ctx, path, payload, includeClientIP)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

// --- Mock Stores ---

type mockTransactionStore struct {
	mock.Mock
}

func (m *mockTransactionStore) Create(ctx context.Context, txn *domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *mockTransactionStore) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *mockTransactionStore) List(ctx context.Context, offset, limit int) ([]domain.Transaction, int, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]domain.Transaction), args.Int(1), args.Error(2)
}

func (m *mockTransactionStore) MarkCompleted(ctx context.Context, transactionID, documentID, authorizationNumber, customerID string) error {
	args := m.Called(ctx, transactionID, documentID, authorizationNumber, customerID)
	return args.Error(0)
}

func (m *mockTransactionStore) MarkFailed(ctx context.Context, transactionID, errorMessage string) error {
	args := m.Called(ctx, transactionID, errorMessage)
	return args.Error(0)
}

func (m *mockTransactionStore) TransitionStatus(ctx context.Context, transactionID string, from, to domain.Status) (bool, error) {
	args := m.Called(ctx, transactionID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *mockTransactionStore) RecordRefund(ctx context.Context, transactionID string, amount float64, refundDocumentID string) error {
	args := m.Called(ctx, transactionID, amount, refundDocumentID)
	return args.Error(0)
}

type mockTokenStore struct {
	mock.Mock
}

func (m *mockTokenStore) Store(ctx context.Context, token *domain.TokenRecord) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockTokenStore) Get(ctx context.Context, id, ownerID string) (*domain.TokenRecord, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenRecord), args.Error(1)
}

func (m *mockTokenStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.TokenRecord, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.TokenRecord), args.Error(1)
}

func (m *mockTokenStore) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenStore) SetDefault(ctx context.Context, id, ownerID string) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenStore) TouchLastUsed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// busRecorder captures every notification published during a test.
type busRecorder struct {
	notifications []notify.Notification
}

func newRecordedBus(logger *slog.Logger) (*notify.Bus, *busRecorder) {
	bus := notify.NewBus(logger)
	rec := &busRecorder{}
	bus.Subscribe(func(ctx context.Context, n notify.Notification) {
		rec.notifications = append(rec.notifications, n)
	},
		notify.KindPaymentCreated,
		notify.KindPaymentCompleted,
		notify.KindPaymentFailed,
		notify.KindPaymentRefunded,
		notify.KindPaymentStatusChanged,
		notify.KindWebhookReceived,
		notify.KindTokenCreated,
	)
	return bus, rec
}

func (r *busRecorder) kinds() []notify.Kind {
	kinds := make([]notify.Kind, 0, len(r.notifications))
	for _, n := range r.notifications {
		kinds = append(kinds, n.Kind())
	}
	return kinds
}

func defaultTestSettings() config.Settings {
	return config.Settings{
		CompanyID:       "1",
		APIKey:          "k",
		PCIMode:         config.PCIModeDirect,
		TokenMethod:     config.TokenMethodJ2,
		APITimeout:      time.Second,
		MaximumPayments: 1,
	}
}

func newTestOrchestrator(transport *mockTransport, settings config.Settings) (*Orchestrator, *busRecorder, *config.SettingsStore) {
	logger := newTestLogger()
	bus, rec := newRecordedBus(logger)
	store := config.NewSettingsStore(settings)
	return NewOrchestrator(transport, store, bus, nil, nil, logger), rec, store
}

func tokenIntent(amount float64) domain.PaymentIntent {
	return domain.PaymentIntent{Amount: amount, Currency: "ILS", Token: "tok_1"}
}

// --- CreatePayment ---

func TestCreatePayment_Success(t *testing.T) {
	transport := new(mockTransport)
	orch, rec, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, gateway.PathCharge, mock.Anything, false).
		Return(map[string]any{
			"Status":              "Success",
			"PaymentID":           float64(555),
			"DocumentID":          "D-1",
			"AuthorizationNumber": "A-9",
		}, nil)

	resp := orch.CreatePayment(context.Background(), tokenIntent(100))

	require.NotNil(t, resp)
	assert.True(t, resp.Succeeded())
	assert.Equal(t, "555", resp.PaymentID)
	assert.True(t, strings.HasPrefix(resp.TransactionID, "TXN-"))

	assert.Equal(t, []notify.Kind{notify.KindPaymentCreated, notify.KindPaymentCompleted}, rec.kinds())
	completed := rec.notifications[1].(notify.PaymentCompleted)
	assert.Equal(t, resp.TransactionID, completed.TransactionID)
	assert.Equal(t, "D-1", completed.DocumentID)
	transport.AssertExpectations(t)
}

func TestCreatePayment_TransactionIDFormat(t *testing.T) {
	transport := new(mockTransport)
	orch, _, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]any{"Status": "Success"}, nil)

	resp := orch.CreatePayment(context.Background(), tokenIntent(10))

	parts := strings.SplitN(resp.TransactionID, "-", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "TXN", parts[0])
	assert.NotEmpty(t, parts[1])
	assert.Len(t, parts[2], 8)
}

func TestCreatePayment_GatewayFailure(t *testing.T) {
	transport := new(mockTransport)
	orch, rec, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]any{"Status": "Failed", "UserErrorMessage": "Card declined"}, nil)

	resp := orch.CreatePayment(context.Background(), tokenIntent(100))

	assert.True(t, resp.HasFailed())
	assert.Equal(t, "Card declined", resp.ErrorMessage)
	assert.Equal(t, []notify.Kind{notify.KindPaymentCreated, notify.KindPaymentFailed}, rec.kinds())
}

func TestCreatePayment_ErrorMessageDominatesSuccessStatus(t *testing.T) {
	transport := new(mockTransport)
	orch, rec, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]any{"Status": "Success", "UserErrorMessage": "Something went wrong"}, nil)

	resp := orch.CreatePayment(context.Background(), tokenIntent(100))

	assert.True(t, resp.HasFailed())
	assert.Equal(t, []notify.Kind{notify.KindPaymentCreated, notify.KindPaymentFailed}, rec.kinds())
}

func TestCreatePayment_TransportErrorNeverEscapes(t *testing.T) {
	transport := new(mockTransport)
	orch, rec, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &gateway.TransportError{Kind: gateway.KindTimeout, Path: gateway.PathCharge, Err: context.DeadlineExceeded})

	var resp *domain.GatewayResponse
	assert.NotPanics(t, func() {
		resp = orch.CreatePayment(context.Background(), tokenIntent(100))
	})

	require.NotNil(t, resp)
	assert.Equal(t, domain.StatusFailed, resp.Status)
	assert.NotEmpty(t, resp.ErrorMessage)
	assert.NotEmpty(t, resp.TransactionID, "local id survives a lost request")
	// No gateway response was produced, so only the failure fires.
	assert.Equal(t, []notify.Kind{notify.KindPaymentFailed}, rec.kinds())
}

func TestCreatePayment_InvalidIntent(t *testing.T) {
	transport := new(mockTransport)
	orch, rec, _ := newTestOrchestrator(transport, defaultTestSettings())

	resp := orch.CreatePayment(context.Background(), domain.PaymentIntent{Amount: 50})

	assert.True(t, resp.HasFailed())
	assert.Equal(t, []notify.Kind{notify.KindPaymentFailed}, rec.kinds())
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePayment_SettingsReadAtCallTime(t *testing.T) {
	transport := new(mockTransport)
	orch, _, store := newTestOrchestrator(transport, defaultTestSettings())

	var seenAuthoriseOnly []any
	transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			payload := args.Get(2).(map[string]any)
			seenAuthoriseOnly = append(seenAuthoriseOnly, payload["AuthoriseOnly"])
		}).
		Return(map[string]any{"Status": "Success"}, nil)

	orch.CreatePayment(context.Background(), tokenIntent(10))

	store.Update(func(s *config.Settings) { s.TestingMode = true })
	orch.CreatePayment(context.Background(), tokenIntent(10))

	require.Len(t, seenAuthoriseOnly, 2)
	assert.Equal(t, false, seenAuthoriseOnly[0])
	assert.Equal(t, true, seenAuthoriseOnly[1], "settings change visible on the next charge")
}

func TestCreatePayment_FreshTokenPublished(t *testing.T) {
	transport := new(mockTransport)
	orch, rec, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]any{
			"Status":           "Success",
			"CreditCard_Token": "tok_new",
			"LastFourDigits":   "4321",
			"CustomerID":       "C-9",
		}, nil)

	intent := domain.PaymentIntent{
		Amount:      100,
		CardNumber:  "4580000000004321",
		ExpiryMonth: "12",
		ExpiryYear:  "2030",
	}
	orch.CreatePayment(context.Background(), intent)

	kinds := rec.kinds()
	require.Contains(t, kinds, notify.KindTokenCreated)
	for _, n := range rec.notifications {
		if tc, ok := n.(notify.TokenCreated); ok {
			assert.Equal(t, "tok_new", tc.Token.Token)
			assert.Equal(t, "4321", tc.Token.LastFourDigits)
			assert.Equal(t, 12, tc.Token.ExpiryMonth)
			assert.Equal(t, 2030, tc.Token.ExpiryYear)
			assert.Equal(t, "C-9", tc.OwnerID)
		}
	}
}

func TestCreatePayment_StoredTokenChargeDoesNotRepublishToken(t *testing.T) {
	transport := new(mockTransport)
	orch, rec, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]any{"Status": "Success", "CreditCard_Token": "tok_1"}, nil)

	orch.CreatePayment(context.Background(), tokenIntent(10))

	assert.NotContains(t, rec.kinds(), notify.KindTokenCreated)
}

// --- GetTransactionStatus ---

func TestGetTransactionStatus_Success(t *testing.T) {
	transport := new(mockTransport)
	orch, _, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, gateway.PathGetPayment, mock.Anything, false).
		Return(map[string]any{"Status": "Pending"}, nil)

	resp := orch.GetTransactionStatus(context.Background(), "TXN-1-abcd1234")
	assert.Equal(t, domain.StatusPending, resp.Status)
	assert.Equal(t, "TXN-1-abcd1234", resp.TransactionID)
}

func TestGetTransactionStatus_ProbeFailureYieldsUnknown(t *testing.T) {
	transport := new(mockTransport)
	orch, _, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, gateway.PathGetPayment, mock.Anything, false).
		Return(nil, &gateway.TransportError{Kind: gateway.KindNetwork, Path: gateway.PathGetPayment})

	resp := orch.GetTransactionStatus(context.Background(), "TXN-1-abcd1234")
	assert.Equal(t, domain.StatusUnknown, resp.Status)
	assert.NotEmpty(t, resp.ErrorMessage)
}

// --- CaptureTransaction ---

func TestCaptureTransaction_RequiresAuthorizedStatus(t *testing.T) {
	transport := new(mockTransport)
	orch, rec, _ := newTestOrchestrator(transport, defaultTestSettings())

	for _, status := range []domain.Status{domain.StatusPending, domain.StatusCompleted, domain.StatusFailed, domain.StatusRefunded} {
		txn := &domain.Transaction{TransactionID: "TXN-1-a", Status: status, Amount: 100}
		resp := orch.CaptureTransaction(context.Background(), txn, 0)

		assert.Equal(t, status, resp.Status, "status reflects the record, not a new state")
		assert.Equal(t, CaptureNotAuthorizedMessage, resp.ErrorMessage)
		assert.True(t, resp.HasFailed())
	}

	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, rec.kinds(), "no notifications for a rejected capture")
}

func TestCaptureTransaction_Success(t *testing.T) {
	transport := new(mockTransport)
	orch, rec, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, gateway.PathCapture, mock.MatchedBy(func(p map[string]any) bool {
		return p["PaymentID"] == "PAY-9" && p["Amount"] == 100.0
	}), false).Return(map[string]any{"Status": "Success"}, nil)

	txn := &domain.Transaction{
		TransactionID:    "TXN-1-a",
		GatewayPaymentID: "PAY-9",
		Status:           domain.StatusAuthorized,
		Amount:           100,
	}
	resp := orch.CaptureTransaction(context.Background(), txn, 0)

	assert.True(t, resp.Succeeded())
	assert.Equal(t, domain.StatusCompleted, txn.Status)

	require.Equal(t, []notify.Kind{notify.KindPaymentStatusChanged}, rec.kinds())
	change := rec.notifications[0].(notify.PaymentStatusChanged)
	assert.Equal(t, domain.StatusAuthorized, change.OldStatus)
	assert.Equal(t, domain.StatusCompleted, change.NewStatus)
	transport.AssertExpectations(t)
}

func TestCaptureTransaction_GatewayDecline(t *testing.T) {
	transport := new(mockTransport)
	orch, rec, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, gateway.PathCapture, mock.Anything, false).
		Return(map[string]any{"Status": "Failed", "UserErrorMessage": "capture window expired"}, nil)

	txn := &domain.Transaction{TransactionID: "TXN-1-a", Status: domain.StatusAuthorized, Amount: 100}
	resp := orch.CaptureTransaction(context.Background(), txn, 0)

	assert.True(t, resp.HasFailed())
	assert.Equal(t, domain.StatusAuthorized, txn.Status, "record untouched on decline")
	assert.Empty(t, rec.kinds())
}

func TestCaptureTransaction_ErrorMessageDominatesSuccessStatus(t *testing.T) {
	transport := new(mockTransport)
	orch, rec, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, gateway.PathCapture, mock.Anything, false).
		Return(map[string]any{"Status": "Success", "UserErrorMessage": "capture flagged by risk"}, nil)

	txn := &domain.Transaction{TransactionID: "TXN-1-a", Status: domain.StatusAuthorized, Amount: 100}
	resp := orch.CaptureTransaction(context.Background(), txn, 0)

	assert.True(t, resp.HasFailed())
	assert.Equal(t, domain.StatusAuthorized, txn.Status, "record untouched when the reply carries an error message")
	assert.Empty(t, rec.kinds())
}

func TestCaptureTransaction_TransportError(t *testing.T) {
	transport := new(mockTransport)
	orch, _, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, gateway.PathCapture, mock.Anything, false).
		Return(nil, &gateway.TransportError{Kind: gateway.KindTimeout, Path: gateway.PathCapture})

	txn := &domain.Transaction{TransactionID: "TXN-1-a", Status: domain.StatusAuthorized, Amount: 100}
	resp := orch.CaptureTransaction(context.Background(), txn, 0)

	assert.True(t, resp.HasFailed())
	assert.Equal(t, domain.StatusAuthorized, resp.Status)
	assert.Equal(t, domain.StatusAuthorized, txn.Status)
}

// --- Refund ---

func TestRefund_Success(t *testing.T) {
	transport := new(mockTransport)
	orch, rec, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, gateway.PathRefund, mock.MatchedBy(func(p map[string]any) bool {
		return p["TransactionID"] == "TXN-1-a" && p["Amount"] == 50.0 && p["Reason"] == "goodwill"
	}), false).Return(map[string]any{"Status": "Success", "RefundDocumentID": "RD-1"}, nil)

	resp := orch.Refund(context.Background(), "TXN-1-a", 50, "goodwill")

	assert.Equal(t, domain.StatusRefunded, resp.Status)
	assert.Equal(t, "RD-1", resp.RefundDocumentID)

	require.Equal(t, []notify.Kind{notify.KindPaymentRefunded}, rec.kinds())
	refunded := rec.notifications[0].(notify.PaymentRefunded)
	assert.Equal(t, 50.0, refunded.RefundAmount)
	assert.False(t, refunded.IsPartial, "without a store, full refund is assumed")
}

func TestRefund_PartialDetectedAgainstStore(t *testing.T) {
	transport := new(mockTransport)
	store := new(mockTransactionStore)
	logger := newTestLogger()
	bus, rec := newRecordedBus(logger)
	orch := NewOrchestrator(transport, config.NewSettingsStore(defaultTestSettings()), bus, store, nil, logger)

	transport.On("Send", mock.Anything, gateway.PathRefund, mock.Anything, false).
		Return(map[string]any{"Status": "Success"}, nil)
	store.On("GetByTransactionID", mock.Anything, "TXN-1-a").
		Return(&domain.Transaction{TransactionID: "TXN-1-a", Amount: 100, Status: domain.StatusCompleted}, nil)

	orch.Refund(context.Background(), "TXN-1-a", 40, "")

	require.Len(t, rec.notifications, 1)
	refunded := rec.notifications[0].(notify.PaymentRefunded)
	assert.True(t, refunded.IsPartial)
}

func TestRefund_GatewayFailure(t *testing.T) {
	transport := new(mockTransport)
	orch, rec, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, gateway.PathRefund, mock.Anything, false).
		Return(map[string]any{"Status": "Failed", "UserErrorMessage": "already refunded"}, nil)

	resp := orch.Refund(context.Background(), "TXN-1-a", 50, "")

	assert.Equal(t, domain.StatusRefundFailed, resp.Status)
	assert.Empty(t, rec.kinds(), "no refund notification on failure")
}

func TestRefund_TransportError(t *testing.T) {
	transport := new(mockTransport)
	orch, _, _ := newTestOrchestrator(transport, defaultTestSettings())

	transport.On("Send", mock.Anything, gateway.PathRefund, mock.Anything, false).
		Return(nil, &gateway.TransportError{Kind: gateway.KindNetwork, Path: gateway.PathRefund})

	resp := orch.Refund(context.Background(), "TXN-1-a", 50, "")
	assert.Equal(t, domain.StatusRefundFailed, resp.Status)
	assert.NotEmpty(t, resp.ErrorMessage)
}

// --- ChargeStoredToken ---

func TestChargeStoredToken_PassThrough(t *testing.T) {
	transport := new(mockTransport)
	tokens := new(mockTokenStore)
	logger := newTestLogger()
	bus, rec := newRecordedBus(logger)
	orch := NewOrchestrator(transport, config.NewSettingsStore(defaultTestSettings()), bus, nil, tokens, logger)

	var sentPayload map[string]any
	transport.On("Send", mock.Anything, gateway.PathCharge, mock.Anything, false).
		Run(func(args mock.Arguments) { sentPayload = args.Get(2).(map[string]any) }).
		Return(map[string]any{"Status": "Success"}, nil)
	tokens.On("TouchLastUsed", mock.Anything, "tid-1").Return(nil)

	token := domain.TokenRecord{ID: "tid-1", Token: "tok_stored", CardholderName: "Dana Levi"}
	resp := orch.ChargeStoredToken(context.Background(), token, 75, TokenChargeOptions{Description: "monthly"})

	assert.True(t, resp.Succeeded())
	method := sentPayload["PaymentMethod"].(map[string]any)
	assert.Equal(t, "tok_stored", method["CreditCard_Token"])
	assert.Equal(t, []notify.Kind{notify.KindPaymentCreated, notify.KindPaymentCompleted}, rec.kinds())
	tokens.AssertExpectations(t)
}

func TestChargeStoredToken_FailureSkipsTouch(t *testing.T) {
	transport := new(mockTransport)
	tokens := new(mockTokenStore)
	logger := newTestLogger()
	bus, _ := newRecordedBus(logger)
	orch := NewOrchestrator(transport, config.NewSettingsStore(defaultTestSettings()), bus, nil, tokens, logger)

	transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]any{"Status": "Failed", "UserErrorMessage": "expired card"}, nil)

	token := domain.TokenRecord{ID: "tid-1", Token: "tok_stored"}
	resp := orch.ChargeStoredToken(context.Background(), token, 75, TokenChargeOptions{})

	assert.True(t, resp.HasFailed())
	tokens.AssertNotCalled(t, "TouchLastUsed", mock.Anything, mock.Anything)
}

// --- BeforeCharge hook ---

func TestCreatePayment_BeforeChargeHook(t *testing.T) {
	transport := new(mockTransport)
	orch, _, _ := newTestOrchestrator(transport, defaultTestSettings())
	orch.WithBeforeCharge(func(ctx context.Context, intent *domain.PaymentIntent) {
		if intent.Metadata == nil {
			intent.Metadata = map[string]any{}
		}
		intent.Metadata["screened"] = true
	})

	transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]any{"Status": "Success"}, nil)

	resp := orch.CreatePayment(context.Background(), tokenIntent(10))
	assert.True(t, resp.Succeeded())
}
