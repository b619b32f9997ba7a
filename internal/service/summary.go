// Package service implements the read orchestration for approved shipment
// summaries: serve from the event-fed cache when it is warm and the stream
// is live, otherwise pull from the main API and repopulate the cache.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/asc0ltato/summary-api/internal/logging"
	"github.com/asc0ltato/summary-api/internal/metrics"
	"github.com/asc0ltato/summary-api/internal/models"
	"github.com/asc0ltato/summary-api/internal/upstream"
)

// ErrUpstreamShape marks a 2xx main API response whose payload does not
// have the expected envelope.
var ErrUpstreamShape = errors.New("invalid response format from main api")

// Main API paths consumed by this service.
const (
	ApprovedGroupsPath = "/api/internal/email-groups/approved"
	HealthPath         = "/api/internal/health"
)

// internal flag stripped from outbound payloads
const aiGeneratedFlag = "is_ai_generated"

type upstreamAPI interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
}

type eventStream interface {
	Snapshot() []models.ApprovedSummary
	Merge(summaries []models.ApprovedSummary)
	IsLive() bool
}

// SummaryService decides, per request, between the cache fast path and the
// authenticated pull fallback.
type SummaryService struct {
	api    upstreamAPI
	stream eventStream
	logger *logging.Logger
}

// NewSummaryService wires the orchestrator to its collaborators.
func NewSummaryService(api upstreamAPI, stream eventStream, logger *logging.Logger) *SummaryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SummaryService{api: api, stream: stream, logger: logger}
}

// ListApproved returns all approved summaries as an envelope. Failures are
// reported inside the envelope; this method never propagates an error.
func (s *SummaryService) ListApproved(ctx context.Context) models.APIResponse {
	cached := s.stream.Snapshot()
	if len(cached) > 0 && s.stream.IsLive() {
		metrics.CacheHitsTotal.Inc()
		views := projectViews(cached)
		s.logger.InfoContext(ctx, "serving approved summaries from stream cache",
			logging.CacheSize(len(views)))
		return models.APIResponse{
			Success: true,
			Data:    views,
			Message: fmt.Sprintf("Found %d approved summaries (from event stream cache)", len(views)),
		}
	}

	metrics.FallbackFetchesTotal.Inc()
	s.logger.InfoContext(ctx, "fetching approved summaries from main api (cache empty or stream disconnected)")

	raw, err := s.api.Get(ctx, ApprovedGroupsPath)
	if err != nil {
		return s.failure(ctx, err)
	}

	var resp models.ApprovedGroupsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return s.failure(ctx, fmt.Errorf("%w: %v", ErrUpstreamShape, err))
	}
	if !resp.Success || resp.Data == nil || resp.Data.EmailGroups == nil {
		return s.failure(ctx, ErrUpstreamShape)
	}

	summaries := extractApproved(resp.Data.EmailGroups)
	s.logger.InfoContext(ctx, "retrieved approved summaries", logging.CacheSize(len(summaries)))

	if len(summaries) > 0 {
		s.stream.Merge(summaries)
	}

	return models.APIResponse{
		Success: true,
		Data:    projectViews(summaries),
		Message: fmt.Sprintf("Found %d approved summaries", len(summaries)),
	}
}

// HealthCheck probes the main API health endpoint. An unreachable main API
// is reported as mainAPI=false; the local service itself stays up.
func (s *SummaryService) HealthCheck(ctx context.Context) (mainAPI bool, service bool) {
	if _, err := s.api.Get(ctx, HealthPath); err != nil {
		s.logger.ErrorContext(ctx, "main api health check failed", logging.Error(err))
		return false, true
	}
	return true, true
}

// extractApproved selects the approved analysis of each group: a singular
// approved summary wins, else the first approved entry of the summaries
// list. Groups without one, or without a payload, are dropped.
func extractApproved(groups []models.EmailGroup) []models.ApprovedSummary {
	out := make([]models.ApprovedSummary, 0, len(groups))
	for _, group := range groups {
		var analysis json.RawMessage
		if group.Summary != nil && group.Summary.Status == models.StatusApproved {
			analysis = group.Summary.AIAnalysis
		} else {
			for _, sum := range group.Summaries {
				if sum.Status == models.StatusApproved {
					analysis = sum.AIAnalysis
					break
				}
			}
		}
		if !payloadPresent(analysis) {
			continue
		}
		out = append(out, models.ApprovedSummary{
			EmailGroupID: group.EmailGroupID,
			ShipmentData: stripInternalFlags(analysis),
		})
	}
	return out
}

func payloadPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// stripInternalFlags removes the is_ai_generated marker from an analysis
// object. Payloads that are not JSON objects pass through untouched; the
// shipment data is otherwise opaque to this service.
func stripInternalFlags(raw json.RawMessage) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return raw
	}
	if _, ok := fields[aiGeneratedFlag]; !ok {
		return raw
	}
	delete(fields, aiGeneratedFlag)
	stripped, err := json.Marshal(fields)
	if err != nil {
		return raw
	}
	return stripped
}

func projectViews(summaries []models.ApprovedSummary) []models.SummaryView {
	views := make([]models.SummaryView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, models.SummaryView{ShipmentData: s.ShipmentData})
	}
	return views
}

// failure classifies an error from the pull path into the outward envelope.
// Responses with a status carry the upstream's own message when it has one.
func (s *SummaryService) failure(ctx context.Context, err error) models.APIResponse {
	errorMessage := err.Error()

	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		errorMessage = fmt.Sprintf("Backend API error: %d", statusErr.Status)
		var body struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if jsonErr := json.Unmarshal([]byte(statusErr.Body), &body); jsonErr == nil {
			if body.Message != "" {
				errorMessage = body.Message
			} else if body.Error != "" {
				errorMessage = body.Error
			}
		}
		s.logger.ErrorContext(ctx, "error fetching approved summaries",
			logging.Status(statusErr.Status),
			slog.String("body", statusErr.Body))
	} else {
		s.logger.ErrorContext(ctx, "error fetching approved summaries", logging.Error(err))
	}

	return models.APIResponse{
		Success: false,
		Message: "Failed to fetch approved summaries",
		Error:   errorMessage,
	}
}
