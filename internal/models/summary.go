// Package models defines the wire types exchanged with the main API and
// served to callers of the summary API.
package models

import "encoding/json"

// Summary statuses as reported by the main API.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusProcessing = "processing"
	StatusFailed     = "failed"
)

// Summary is a single AI analysis attached to an email group. The analysis
// payload is opaque shipment data; this service never interprets it.
type Summary struct {
	SummaryID    string          `json:"summaryId"`
	EmailGroupID string          `json:"emailGroupId"`
	AIAnalysis   json.RawMessage `json:"aiAnalysis"`
	Status       string          `json:"status"`
}

// EmailGroup is one group in the main API's approved-groups listing.
// Depending on the backend version a group carries either a singular
// summary or a list of summaries.
type EmailGroup struct {
	EmailGroupID string    `json:"emailGroupId"`
	Summary      *Summary  `json:"summary,omitempty"`
	Summaries    []Summary `json:"summaries,omitempty"`
}

// ApprovedGroupsData is the data object of the approved-groups response.
type ApprovedGroupsData struct {
	EmailGroups []EmailGroup `json:"emailGroups"`
}

// ApprovedGroupsResponse is the envelope returned by
// GET /api/internal/email-groups/approved.
type ApprovedGroupsResponse struct {
	Success bool                `json:"success"`
	Data    *ApprovedGroupsData `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
}

// ApprovedSummary is a cached approved analysis keyed by email group.
type ApprovedSummary struct {
	EmailGroupID string          `json:"emailGroupId"`
	ShipmentData json.RawMessage `json:"shipment_data"`
}

// SummaryView is the outward projection of an approved summary. The group
// identifier is internal and is stripped before data leaves this service.
type SummaryView struct {
	ShipmentData json.RawMessage `json:"shipment_data"`
}

// APIResponse is the JSON envelope every endpoint of this service returns.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthData is the data object of the health endpoint.
type HealthData struct {
	Service   string `json:"service"`
	Status    string `json:"status"`
	MainAPI   string `json:"mainApi"`
	Timestamp string `json:"timestamp"`
}

// StreamEvent is one frame on the approved-summaries event feed.
// Frames with any other type are ignored.
type StreamEvent struct {
	Type string           `json:"type"`
	Data *ApprovedSummary `json:"data,omitempty"`
}

// EventApprovedSummary is the only frame type this service consumes.
const EventApprovedSummary = "approved_summary"
