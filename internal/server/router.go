package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asc0ltato/summary-api/internal/handlers"
	"github.com/asc0ltato/summary-api/internal/middleware"
)

// NewRouter constructs a ServeMux with the summary API routes registered,
// wrapped in the request-id and CORS middleware.
func NewRouter(h *handlers.Handler, cors middleware.CORSConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/summary/approved", h.ApprovedSummaries)
	mux.HandleFunc("/api/summary/health", h.Health)

	// Health and observability endpoints
	mux.HandleFunc("/healthz", h.Healthz)
	mux.Handle("/metrics", promhttp.Handler())

	// Everything else gets the JSON 404 envelope.
	mux.HandleFunc("/", h.NotFound)

	return middleware.RequestID(middleware.CORS(cors)(mux))
}
