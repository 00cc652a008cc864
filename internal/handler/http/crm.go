package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nm-digitalhub/sumit-gateway/internal/crm"
	"github.com/nm-digitalhub/sumit-gateway/internal/repository"
	apperrors "github.com/nm-digitalhub/sumit-gateway/pkg/errors"
	"github.com/nm-digitalhub/sumit-gateway/pkg/httputil"
)

// CRMHandler handles HTTP requests for CRM contact sync.
type CRMHandler struct {
	syncer    *crm.Syncer
	customers repository.CustomerStore // nil when persistence is off
	logger    *slog.Logger
}

// NewCRMHandler creates a new CRM HTTP handler.
func NewCRMHandler(syncer *crm.Syncer, customers repository.CustomerStore, logger *slog.Logger) *CRMHandler {
	return &CRMHandler{
		syncer:    syncer,
		customers: customers,
		logger:    logger,
	}
}

// PullCustomers handles POST /api/v1/crm/pull
func (h *CRMHandler) PullCustomers(w http.ResponseWriter, r *http.Request) {
	result := h.syncer.PullCustomers(r.Context())

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: result})
}

// PushCustomer handles POST /api/v1/crm/customers/{id}/push where id is the
// gateway customer id of a locally mirrored record.
func (h *CRMHandler) PushCustomer(w http.ResponseWriter, r *http.Request) {
	if h.customers == nil {
		writePersistenceDisabled(w)
		return
	}

	id := chi.URLParam(r, "id")

	customer, err := h.customers.GetBySumitID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result := h.syncer.PushCustomer(r.Context(), customer)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: result})
}

// ListCustomers handles GET /api/v1/crm/customers
func (h *CRMHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	if h.customers == nil {
		writePersistenceDisabled(w)
		return
	}

	page, perPage := pagination(r)

	customers, total, err := h.customers.List(r.Context(), (page-1)*perPage, perPage)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: httputil.NewPaginatedResponse(customers, total, page, perPage),
	})
}
