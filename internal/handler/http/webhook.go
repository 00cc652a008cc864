package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/nm-digitalhub/sumit-gateway/internal/service"
	"github.com/nm-digitalhub/sumit-gateway/pkg/httputil"
)

// SignatureHeader carries the HMAC-SHA256 signature of the raw webhook body.
const SignatureHeader = "X-Sumit-Signature"

// WebhookHandler receives gateway webhook deliveries.
type WebhookHandler struct {
	processor *service.WebhookProcessor
	logger    *slog.Logger
}

// NewWebhookHandler creates a new webhook HTTP handler.
func NewWebhookHandler(processor *service.WebhookProcessor, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    logger,
	}
}

// Receive handles POST /webhooks/sumit. A tampered signature yields 401; a
// processing failure yields 200 with success=false so the gateway does not
// retry a delivery that was received intact.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, service.WebhookResult{
			Success: false,
			Error:   "unreadable body",
		})
		return
	}

	result := h.processor.Handle(r.Context(), body, r.Header.Get("Content-Type"), r.Header.Get(SignatureHeader))

	status := http.StatusOK
	if !result.Success && result.Error == service.WebhookInvalidSignature {
		status = http.StatusUnauthorized
	}
	httputil.WriteJSON(w, status, result)
}
