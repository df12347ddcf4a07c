package http

import (
	"net/http"

	"estatehub-backend/internal/config"
	"estatehub-backend/internal/security"
	"estatehub-backend/internal/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps carries everything NewRouter wires into the routes.
type RouterDeps struct {
	Workflow  Workflow
	Tokens    security.TokenManager
	Artifacts storage.ArtifactReader
	Limiter   *RateLimiter
	// Gatherer backs the metrics route; nil disables it.
	Gatherer prometheus.Gatherer
	Config   *config.Config
}

func NewRouter(deps RouterDeps) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware)
	if deps.Limiter != nil {
		router.Use(deps.Limiter.Middleware)
	}
	router.Use(AuthMiddleware(deps.Tokens))

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	if deps.Gatherer != nil && deps.Config.Metrics.Enabled {
		router.Handle(deps.Config.Metrics.Path, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	artifacts := NewArtifactHandler(deps.Artifacts)
	router.HandleFunc(storage.DownloadPrefix+"{key:.+}", artifacts.HandleDownload).Methods(http.MethodGet)

	h := NewHandler(deps.Workflow, deps.Config.MaxUploadBytes())
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/accounts", h.RegisterAccount).Methods(http.MethodPost)
	api.HandleFunc("/me", h.Me).Methods(http.MethodGet)

	api.HandleFunc("/estates", h.CreateEstate).Methods(http.MethodPost)
	api.HandleFunc("/estates/{estateId}/units", h.CreateUnit).Methods(http.MethodPost)
	api.HandleFunc("/estates/{estateId}/units/vacant", h.ListVacantUnits).Methods(http.MethodGet)
	api.HandleFunc("/units/{unitId}/vacate", h.VacateUnit).Methods(http.MethodPost)
	api.HandleFunc("/units/{unitId}/maintenance", h.SetUnitMaintenance).Methods(http.MethodPost)

	api.HandleFunc("/estates/{estateId}/access-requests", h.ListPendingRequests).Methods(http.MethodGet)
	api.HandleFunc("/access-requests", h.RequestAccess).Methods(http.MethodPost)
	api.HandleFunc("/access-requests/{tenantId}/approve", h.ApproveAndAssign).Methods(http.MethodPost)
	api.HandleFunc("/access-requests/{tenantId}/decline", h.DeclineRequest).Methods(http.MethodPost)

	api.HandleFunc("/payments", h.SubmitPayment).Methods(http.MethodPost)
	api.HandleFunc("/payments/{paymentId}/decision", h.DecidePayment).Methods(http.MethodPost)
	api.HandleFunc("/estates/{estateId}/payments", h.ListPayments).Methods(http.MethodGet)
	api.HandleFunc("/tenants/{tenantId}/balance", h.OutstandingBalance).Methods(http.MethodGet)
	api.HandleFunc("/invoices", h.IssueInvoice).Methods(http.MethodPost)
	api.HandleFunc("/invoices/overdue", h.ListOverdueInvoices).Methods(http.MethodGet)

	api.HandleFunc("/tickets", h.FileTicket).Methods(http.MethodPost)
	api.HandleFunc("/tickets/{ticketId}/status", h.AdvanceStatus).Methods(http.MethodPost)
	api.HandleFunc("/estates/{estateId}/tickets", h.ListTickets).Methods(http.MethodGet)

	return router
}
