package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nm-digitalhub/sumit-gateway/internal/config"
	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
	"github.com/nm-digitalhub/sumit-gateway/internal/gateway"
	"github.com/nm-digitalhub/sumit-gateway/internal/notify"
	"github.com/nm-digitalhub/sumit-gateway/internal/repository"
)

// CaptureNotAuthorizedMessage is returned when capture is attempted on a
// transaction that is not in authorized status. External callers match on
// this text, so it must stay stable.
const CaptureNotAuthorizedMessage = "Transaction must be in authorized status to be captured"

// Transport sends a payload to a gateway API path and returns the decoded
// response.
type Transport interface {
	Send(ctx context.Context, path string, payload map[string]any, includeClientIP bool) (map[string]any, error)
}

// BeforeChargeFunc runs just before a charge request is built. It may adjust
// the intent, for example to attach fraud-screening metadata.
type BeforeChargeFunc func(ctx context.Context, intent *domain.PaymentIntent)

// Orchestrator drives the payment lifecycle against the gateway. Operations
// return a normalized *domain.GatewayResponse and never a Go error: every
// failure mode, including transport failures, is folded into the response so
// callers have a single result shape to inspect.
type Orchestrator struct {
	transport    Transport
	settings     config.SettingsProvider
	bus          *notify.Bus
	store        repository.TransactionStore // may be nil when persistence is off
	tokens       repository.TokenStore       // may be nil when persistence is off
	beforeCharge BeforeChargeFunc
	logger       *slog.Logger
}

// NewOrchestrator creates a payment orchestrator. store and tokens may be nil
// when the built-in persistence is disabled.
func NewOrchestrator(
	transport Transport,
	settings config.SettingsProvider,
	bus *notify.Bus,
	store repository.TransactionStore,
	tokens repository.TokenStore,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		transport: transport,
		settings:  settings,
		bus:       bus,
		store:     store,
		tokens:    tokens,
		logger:    logger,
	}
}

// WithBeforeCharge installs a hook invoked before each charge is built.
func (o *Orchestrator) WithBeforeCharge(fn BeforeChargeFunc) *Orchestrator {
	o.beforeCharge = fn
	return o
}

// CreatePayment charges the given intent. The local transaction id is
// generated before any network activity so even a lost request can be
// reconciled later. Settings are read at call time; changing them between
// calls affects the next charge.
func (o *Orchestrator) CreatePayment(ctx context.Context, intent domain.PaymentIntent) *domain.GatewayResponse {
	transactionID := newTransactionID()

	if o.beforeCharge != nil {
		o.beforeCharge(ctx, &intent)
	}

	s := o.settings.Current()

	if err := intent.Validate(s.PCIMode == config.PCIModeRedirect); err != nil {
		resp := failedResponse(transactionID, err.Error())
		o.publishFailure(ctx, resp, intent)
		return resp
	}

	payload := gateway.BuildChargeRequest(intent, transactionID, s)
	path := gateway.ChargePath(intent, s)

	raw, err := o.transport.Send(ctx, path, payload, s.SendClientIP)
	if err != nil {
		o.logger.ErrorContext(ctx, "charge request failed",
			slog.String("transaction_id", transactionID),
			slog.String("error", err.Error()),
		)
		resp := failedResponse(transactionID, err.Error())
		o.publishFailure(ctx, resp, intent)
		return resp
	}

	resp := gateway.ParseResponse(raw, transactionID)

	o.bus.Publish(ctx, notify.PaymentCreated{Response: resp, Intent: intent})
	o.maybePublishToken(ctx, resp, intent)

	switch {
	case resp.HasFailed():
		o.bus.Publish(ctx, notify.PaymentFailed{
			TransactionID: transactionID,
			Amount:        intent.Amount,
			Currency:      intent.Currency,
			ErrorMessage:  resp.ErrorMessage,
			Metadata:      intent.Metadata,
		})
	case resp.Succeeded():
		o.bus.Publish(ctx, notify.PaymentCompleted{
			TransactionID:       transactionID,
			Amount:              intent.Amount,
			Currency:            intent.Currency,
			DocumentID:          resp.DocumentID,
			AuthorizationNumber: resp.AuthorizationNumber,
			CustomerID:          resp.CustomerID,
			Metadata:            intent.Metadata,
		})
	}

	return resp
}

// GetTransactionStatus probes the gateway for the current state of a
// transaction. Probe failures yield StatusUnknown rather than an error: the
// transaction's true state is genuinely unknown at that point.
func (o *Orchestrator) GetTransactionStatus(ctx context.Context, transactionID string) *domain.GatewayResponse {
	s := o.settings.Current()

	raw, err := o.transport.Send(ctx, gateway.PathGetPayment, gateway.BuildStatusRequest(transactionID, s), false)
	if err != nil {
		o.logger.WarnContext(ctx, "status probe failed",
			slog.String("transaction_id", transactionID),
			slog.String("error", err.Error()),
		)
		return &domain.GatewayResponse{
			TransactionID: transactionID,
			Status:        domain.StatusUnknown,
			ErrorMessage:  err.Error(),
		}
	}

	return gateway.ParseResponse(raw, transactionID)
}

// CaptureTransaction captures a previously authorized transaction. The
// precondition is checked locally: any non-authorized status returns a fixed
// error message without touching the network. amount 0 captures the full
// amount. On success the passed record is transitioned to completed.
func (o *Orchestrator) CaptureTransaction(ctx context.Context, txn *domain.Transaction, amount float64) *domain.GatewayResponse {
	if txn.Status != domain.StatusAuthorized {
		return &domain.GatewayResponse{
			TransactionID: txn.TransactionID,
			Status:        txn.Status,
			ErrorMessage:  CaptureNotAuthorizedMessage,
		}
	}

	if amount <= 0 {
		amount = txn.Amount
	}

	s := o.settings.Current()

	paymentID := txn.GatewayPaymentID
	if paymentID == "" {
		paymentID = txn.TransactionID
	}

	raw, err := o.transport.Send(ctx, gateway.PathCapture, gateway.BuildCaptureRequest(paymentID, amount, s), false)
	if err != nil {
		o.logger.ErrorContext(ctx, "capture request failed",
			slog.String("transaction_id", txn.TransactionID),
			slog.String("error", err.Error()),
		)
		return &domain.GatewayResponse{
			TransactionID: txn.TransactionID,
			Status:        txn.Status,
			ErrorMessage:  err.Error(),
		}
	}

	resp := gateway.ParseResponse(raw, txn.TransactionID)
	if resp.HasFailed() || !resp.Succeeded() {
		// Gateway declined the capture; local state is untouched. An error
		// message on an otherwise successful reply counts as a decline.
		return resp
	}

	oldStatus := txn.Status
	txn.Status = domain.StatusCompleted

	o.bus.Publish(ctx, notify.PaymentStatusChanged{
		TransactionID: txn.TransactionID,
		OldStatus:     oldStatus,
		NewStatus:     domain.StatusCompleted,
		Metadata:      txn.Metadata,
	})

	return resp
}

// Refund issues a refund for the given amount. There is no local
// precondition: eligibility checks belong to the caller, and the gateway has
// the final say. Failure yields StatusRefundFailed with the gateway's error
// text.
func (o *Orchestrator) Refund(ctx context.Context, transactionID string, amount float64, reason string) *domain.GatewayResponse {
	s := o.settings.Current()

	raw, err := o.transport.Send(ctx, gateway.PathRefund, gateway.BuildRefundRequest(transactionID, amount, reason, s), false)
	if err != nil {
		o.logger.ErrorContext(ctx, "refund request failed",
			slog.String("transaction_id", transactionID),
			slog.String("error", err.Error()),
		)
		return &domain.GatewayResponse{
			TransactionID: transactionID,
			Status:        domain.StatusRefundFailed,
			ErrorMessage:  err.Error(),
		}
	}

	resp := gateway.ParseResponse(raw, transactionID)
	if resp.HasFailed() || !resp.Succeeded() {
		resp.Status = domain.StatusRefundFailed
		return resp
	}

	resp.Status = domain.StatusRefunded

	o.bus.Publish(ctx, notify.PaymentRefunded{
		TransactionID:    transactionID,
		RefundAmount:     amount,
		IsPartial:        o.isPartialRefund(ctx, transactionID, amount),
		RefundDocumentID: resp.RefundDocumentID,
		Reason:           reason,
	})

	return resp
}

// isPartialRefund compares the refund amount against the stored original.
// Without a store the distinction cannot be made and full refund is assumed.
func (o *Orchestrator) isPartialRefund(ctx context.Context, transactionID string, amount float64) bool {
	if o.store == nil {
		return false
	}
	txn, err := o.store.GetByTransactionID(ctx, transactionID)
	if err != nil || txn == nil {
		return false
	}
	return amount < txn.Amount
}

// publishFailure emits PaymentFailed for charges that never produced a
// gateway response.
func (o *Orchestrator) publishFailure(ctx context.Context, resp *domain.GatewayResponse, intent domain.PaymentIntent) {
	o.bus.Publish(ctx, notify.PaymentFailed{
		TransactionID: resp.TransactionID,
		Amount:        intent.Amount,
		Currency:      intent.Currency,
		ErrorMessage:  resp.ErrorMessage,
		Metadata:      intent.Metadata,
	})
}

// maybePublishToken emits TokenCreated when a charge that did not use a
// stored token returns a freshly issued one.
func (o *Orchestrator) maybePublishToken(ctx context.Context, resp *domain.GatewayResponse, intent domain.PaymentIntent) {
	if intent.HasToken() {
		return
	}
	tokenValue, ok := resp.Raw["CreditCard_Token"].(string)
	if !ok || tokenValue == "" {
		return
	}

	month, year := parseExpiry(intent)
	o.bus.Publish(ctx, notify.TokenCreated{
		OwnerID: resp.CustomerID,
		Token: domain.TokenRecord{
			ID:             uuid.New().String(),
			OwnerID:        resp.CustomerID,
			Token:          tokenValue,
			LastFourDigits: resp.LastFourDigits,
			ExpiryMonth:    month,
			ExpiryYear:     year,
			CardholderName: intent.CustomerName,
			IsActive:       true,
		},
	})
}

func parseExpiry(intent domain.PaymentIntent) (month, year int) {
	fmt.Sscanf(intent.ExpiryMonth, "%d", &month)
	fmt.Sscanf(intent.ExpiryYear, "%d", &year)
	return month, year
}

func failedResponse(transactionID, message string) *domain.GatewayResponse {
	return &domain.GatewayResponse{
		TransactionID: transactionID,
		Status:        domain.StatusFailed,
		ErrorMessage:  message,
	}
}

// newTransactionID generates the local correlation id: a timestamp plus an
// 8-character random suffix.
func newTransactionID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("TXN-%d-%s", time.Now().Unix(), suffix)
}
