package http

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
	"github.com/nm-digitalhub/sumit-gateway/internal/gateway"
	"github.com/nm-digitalhub/sumit-gateway/internal/repository"
	"github.com/nm-digitalhub/sumit-gateway/internal/service"
	apperrors "github.com/nm-digitalhub/sumit-gateway/pkg/errors"
	"github.com/nm-digitalhub/sumit-gateway/pkg/httputil"
	"github.com/nm-digitalhub/sumit-gateway/pkg/validator"
)

// PaymentHandler handles HTTP requests for charge endpoints.
type PaymentHandler struct {
	orchestrator *service.Orchestrator
	store        repository.TransactionStore // nil when persistence is off
	logger       *slog.Logger
}

// NewPaymentHandler creates a new payment HTTP handler. store may be nil;
// endpoints that need local records then report persistence as disabled.
func NewPaymentHandler(orchestrator *service.Orchestrator, store repository.TransactionStore, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		orchestrator: orchestrator,
		store:        store,
		logger:       logger,
	}
}

// --- Request DTOs ---

// ChargeItemRequest is a single line item on a charge request.
type ChargeItemRequest struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	Quantity int     `json:"quantity" validate:"omitempty,gt=0"`
}

// CreateChargeRequest is the JSON request body for creating a charge.
type CreateChargeRequest struct {
	Amount      float64             `json:"amount" validate:"required,gt=0"`
	Currency    string              `json:"currency" validate:"omitempty,len=3"`
	Description string              `json:"description"`
	ItemName    string              `json:"item_name"`
	Items       []ChargeItemRequest `json:"items" validate:"omitempty,dive"`

	Token string `json:"token"`

	CardNumber  string `json:"card_number"`
	ExpiryMonth string `json:"expiry_month" validate:"omitempty,numeric"`
	ExpiryYear  string `json:"expiry_year" validate:"omitempty,numeric"`
	CVV         string `json:"cvv"`

	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerAddress string `json:"customer_address"`
	CustomerCity    string `json:"customer_city"`
	CustomerCountry string `json:"customer_country"`
	CustomerZip     string `json:"customer_zip"`

	PaymentsCount  int            `json:"payments_count" validate:"omitempty,gte=1,lte=36"`
	Language       string         `json:"language"`
	IsDonation     bool           `json:"is_donation"`
	IsSubscription bool           `json:"is_subscription"`
	Metadata       map[string]any `json:"metadata"`
}

// CaptureRequest is the JSON request body for capturing an authorized charge.
// A zero amount captures the full transaction amount.
type CaptureRequest struct {
	Amount float64 `json:"amount" validate:"omitempty,gt=0"`
}

// RefundRequest is the JSON request body for refunding a charge.
type RefundRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Reason string  `json:"reason"`
}

// --- Handlers ---

// CreateCharge handles POST /api/v1/charges
// @Summary Create a charge
// @Description Charges the given payment method through the gateway. The result is always a normalized payment response; a failed charge returns 422 with the same body shape.
// @Tags charges
// @Accept json
// @Produce json
// @Param request body CreateChargeRequest true "Charge data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/charges [post]
func (h *PaymentHandler) CreateCharge(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CreateChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx := gateway.WithClientIP(r.Context(), clientIP(r))
	resp := h.orchestrator.CreatePayment(ctx, chargeIntent(req))

	status := http.StatusOK
	if resp.HasFailed() {
		status = http.StatusUnprocessableEntity
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: resp})
}

// GetCharge handles GET /api/v1/charges/{transactionID}
// @Summary Get charge status
// @Description Probes the gateway for the current status of a transaction. A failed probe yields status "unknown", not an error.
// @Tags charges
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/charges/{transactionID} [get]
func (h *PaymentHandler) GetCharge(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")

	resp := h.orchestrator.GetTransactionStatus(r.Context(), transactionID)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: resp})
}

// CaptureCharge handles POST /api/v1/charges/{transactionID}/capture
// @Summary Capture an authorized charge
// @Description Captures a previously authorized transaction. Only transactions in authorized status can be captured.
// @Tags charges
// @Accept json
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Param request body CaptureRequest false "Capture data"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/charges/{transactionID}/capture [post]
func (h *PaymentHandler) CaptureCharge(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writePersistenceDisabled(w)
		return
	}

	var req CaptureRequest
	if r.ContentLength > 0 {
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
	}

	transactionID := chi.URLParam(r, "transactionID")
	txn, err := h.store.GetByTransactionID(r.Context(), transactionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	resp := h.orchestrator.CaptureTransaction(r.Context(), txn, req.Amount)

	status := http.StatusOK
	if resp.HasFailed() {
		status = http.StatusUnprocessableEntity
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: resp})
}

// RefundCharge handles POST /api/v1/charges/{transactionID}/refund
// @Summary Refund a charge
// @Description Refunds part or all of a completed transaction. Eligibility is checked against the local record when persistence is enabled.
// @Tags charges
// @Accept json
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Param request body RefundRequest true "Refund data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/charges/{transactionID}/refund [post]
func (h *PaymentHandler) RefundCharge(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	transactionID := chi.URLParam(r, "transactionID")

	if h.store != nil {
		txn, err := h.store.GetByTransactionID(r.Context(), transactionID)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		if !txn.IsRefundable() {
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "REFUND_NOT_ALLOWED",
					Message: "transaction is not refundable",
				},
			})
			return
		}
		if req.Amount > txn.RemainingRefundable() {
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "REFUND_AMOUNT_EXCEEDED",
					Message: "refund amount exceeds the remaining refundable amount",
				},
			})
			return
		}
	}

	resp := h.orchestrator.Refund(r.Context(), transactionID, req.Amount, req.Reason)

	status := http.StatusOK
	if resp.Status != domain.StatusRefunded {
		status = http.StatusUnprocessableEntity
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: resp})
}

// ListTransactions handles GET /api/v1/transactions
// @Summary List local transaction records
// @Tags transactions
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param per_page query int false "Items per page (default 20, max 100)"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/transactions [get]
func (h *PaymentHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writePersistenceDisabled(w)
		return
	}

	page, perPage := pagination(r)

	txns, total, err := h.store.List(r.Context(), (page-1)*perPage, perPage)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: httputil.NewPaginatedResponse(txns, total, page, perPage),
	})
}

// --- Helpers ---

func chargeIntent(req CreateChargeRequest) domain.PaymentIntent {
	items := make([]domain.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.Item{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}

	return domain.PaymentIntent{
		Amount:          req.Amount,
		Currency:        req.Currency,
		Description:     req.Description,
		ItemName:        req.ItemName,
		Items:           items,
		Token:           req.Token,
		CardNumber:      req.CardNumber,
		ExpiryMonth:     req.ExpiryMonth,
		ExpiryYear:      req.ExpiryYear,
		CVV:             req.CVV,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		CustomerCity:    req.CustomerCity,
		CustomerCountry: req.CustomerCountry,
		CustomerZip:     req.CustomerZip,
		PaymentsCount:   req.PaymentsCount,
		Language:        req.Language,
		IsDonation:      req.IsDonation,
		IsSubscription:  req.IsSubscription,
		Metadata:        req.Metadata,
	}
}

// clientIP extracts the payer's IP, preferring the first X-Forwarded-For hop.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func pagination(r *http.Request) (page, perPage int) {
	page = 1
	perPage = 20
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 && v <= 100 {
		perPage = v
	}
	return page, perPage
}

func writePersistenceDisabled(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusNotImplemented, httputil.Response{
		Error: &httputil.ErrorResponse{
			Code:    "PERSISTENCE_DISABLED",
			Message: "local transaction storage is disabled",
		},
	})
}
