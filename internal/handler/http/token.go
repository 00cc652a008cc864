package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/nm-digitalhub/sumit-gateway/pkg/errors"
	"github.com/nm-digitalhub/sumit-gateway/pkg/httputil"
	"github.com/nm-digitalhub/sumit-gateway/pkg/validator"

	"github.com/nm-digitalhub/sumit-gateway/internal/repository"
	"github.com/nm-digitalhub/sumit-gateway/internal/service"
)

// TokenHandler handles HTTP requests for stored card tokens. Token values
// never appear in responses; only the masked metadata does.
type TokenHandler struct {
	orchestrator *service.Orchestrator
	tokens       repository.TokenStore
	logger       *slog.Logger
}

// NewTokenHandler creates a new token HTTP handler.
func NewTokenHandler(orchestrator *service.Orchestrator, tokens repository.TokenStore, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		orchestrator: orchestrator,
		tokens:       tokens,
		logger:       logger,
	}
}

// TokenChargeRequest is the JSON request body for charging a stored token.
type TokenChargeRequest struct {
	Amount        float64        `json:"amount" validate:"required,gt=0"`
	Currency      string         `json:"currency" validate:"omitempty,len=3"`
	Description   string         `json:"description"`
	PaymentsCount int            `json:"payments_count" validate:"omitempty,gte=1,lte=36"`
	Metadata      map[string]any `json:"metadata"`
}

// ListTokens handles GET /api/v1/customers/{ownerID}/tokens
func (h *TokenHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")

	tokens, err := h.tokens.ListByOwner(r.Context(), ownerID)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tokens})
}

// DeleteToken handles DELETE /api/v1/customers/{ownerID}/tokens/{tokenID}
func (h *TokenHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	tokenID, ok := httputil.ParseUUID(w, chi.URLParam(r, "tokenID"))
	if !ok {
		return
	}

	deleted, err := h.tokens.Delete(r.Context(), tokenID.String(), ownerID)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}
	if !deleted {
		httputil.WriteError(w, r, apperrors.NotFound("token", tokenID.String()), h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetDefaultToken handles POST /api/v1/customers/{ownerID}/tokens/{tokenID}/default
func (h *TokenHandler) SetDefaultToken(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	tokenID, ok := httputil.ParseUUID(w, chi.URLParam(r, "tokenID"))
	if !ok {
		return
	}

	updated, err := h.tokens.SetDefault(r.Context(), tokenID.String(), ownerID)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}
	if !updated {
		httputil.WriteError(w, r, apperrors.NotFound("token", tokenID.String()), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"default": tokenID.String()}})
}

// ChargeToken handles POST /api/v1/customers/{ownerID}/tokens/{tokenID}/charge
func (h *TokenHandler) ChargeToken(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	tokenID, ok := httputil.ParseUUID(w, chi.URLParam(r, "tokenID"))
	if !ok {
		return
	}

	var req TokenChargeRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	token, err := h.tokens.Get(r.Context(), tokenID.String(), ownerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	resp := h.orchestrator.ChargeStoredToken(r.Context(), *token, req.Amount, service.TokenChargeOptions{
		Currency:      req.Currency,
		Description:   req.Description,
		PaymentsCount: req.PaymentsCount,
		Metadata:      req.Metadata,
	})

	status := http.StatusOK
	if resp.HasFailed() {
		status = http.StatusUnprocessableEntity
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: resp})
}
