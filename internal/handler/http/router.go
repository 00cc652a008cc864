package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nm-digitalhub/sumit-gateway/internal/crm"
	"github.com/nm-digitalhub/sumit-gateway/internal/repository"
	"github.com/nm-digitalhub/sumit-gateway/internal/service"
	"github.com/nm-digitalhub/sumit-gateway/pkg/health"
	"github.com/nm-digitalhub/sumit-gateway/pkg/middleware"
)

// RouterDeps carries everything the router mounts. Store fields may be nil
// when built-in persistence is disabled; the affected endpoints then answer
// 501.
type RouterDeps struct {
	Orchestrator  *service.Orchestrator
	Webhooks      *service.WebhookProcessor
	Syncer        *crm.Syncer
	Transactions  repository.TransactionStore
	Tokens        repository.TokenStore
	Customers     repository.CustomerStore
	HealthHandler *health.Handler
	Logger        *slog.Logger
}

// NewRouter creates a chi router with all gateway routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.Tracing("sumit-gateway"))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.PrometheusMetrics("sumit-gateway"))

	// Health check endpoints
	r.Get("/health/live", deps.HealthHandler.LivenessHandler())
	r.Get("/health/ready", deps.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	paymentHandler := NewPaymentHandler(deps.Orchestrator, deps.Transactions, deps.Logger)
	webhookHandler := NewWebhookHandler(deps.Webhooks, deps.Logger)

	// Webhooks are signed, not JSON-validated: the raw body is the unit of
	// verification, so no content-type middleware applies here.
	r.Post("/webhooks/sumit", webhookHandler.Receive)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/charges", func(r chi.Router) {
			r.Post("/", paymentHandler.CreateCharge)
			r.Get("/{transactionID}", paymentHandler.GetCharge)
			r.Post("/{transactionID}/capture", paymentHandler.CaptureCharge)
			r.Post("/{transactionID}/refund", paymentHandler.RefundCharge)
		})

		r.Get("/transactions", paymentHandler.ListTransactions)

		if deps.Tokens != nil {
			tokenHandler := NewTokenHandler(deps.Orchestrator, deps.Tokens, deps.Logger)
			r.Route("/customers/{ownerID}/tokens", func(r chi.Router) {
				r.Get("/", tokenHandler.ListTokens)
				r.Delete("/{tokenID}", tokenHandler.DeleteToken)
				r.Post("/{tokenID}/default", tokenHandler.SetDefaultToken)
				r.Post("/{tokenID}/charge", tokenHandler.ChargeToken)
			})
		}

		if deps.Syncer != nil {
			crmHandler := NewCRMHandler(deps.Syncer, deps.Customers, deps.Logger)
			r.Route("/crm", func(r chi.Router) {
				r.Post("/pull", crmHandler.PullCustomers)
				r.Get("/customers", crmHandler.ListCustomers)
				r.Post("/customers/{id}/push", crmHandler.PushCustomer)
			})
		}
	})

	return r
}
