// Package handlers wires the HTTP routes to the summary service.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/asc0ltato/summary-api/internal/httputil"
	"github.com/asc0ltato/summary-api/internal/logging"
	"github.com/asc0ltato/summary-api/internal/models"
)

// ServiceName identifies this service in health responses.
const ServiceName = "summary-api"

type summaryService interface {
	ListApproved(ctx context.Context) models.APIResponse
	HealthCheck(ctx context.Context) (mainAPI bool, service bool)
}

// Handler serves the summary API routes.
type Handler struct {
	svc    summaryService
	logger *logging.Logger
}

// New creates a Handler instance.
func New(svc summaryService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// ApprovedSummaries handles GET /api/summary/approved.
func (h *Handler) ApprovedSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, http.MethodGet)
		return
	}

	h.logger.InfoContext(r.Context(), "listing approved summaries",
		logging.Method(r.Method), logging.Path(r.URL.Path))

	resp := h.svc.ListApproved(r.Context())
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusInternalServerError
	}
	httputil.WriteJSON(w, status, resp)
}

// Health handles GET /api/summary/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, http.MethodGet)
		return
	}

	mainAPI, service := h.svc.HealthCheck(r.Context())

	status := "healthy"
	if !service {
		status = "unhealthy"
	}
	mainAPIState := "connected"
	if !mainAPI {
		mainAPIState = "disconnected"
	}

	httputil.WriteSuccess(w, http.StatusOK, models.HealthData{
		Service:   ServiceName,
		Status:    status,
		MainAPI:   mainAPIState,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, "")
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound returns the JSON 404 envelope for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, http.StatusNotFound, "Route not found", "")
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
}
