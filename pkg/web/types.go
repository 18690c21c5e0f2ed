// Package web provides HTTP request and response types for the automation API.
package web

import (
	"time"

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence"
)

// DispatchTriggerRequest is the inbound trigger payload. Context is opaque
// to the dispatcher and copied verbatim into each scheduled run.
type DispatchTriggerRequest struct {
	Event              string         `json:"event"                          validate:"required"`
	Context            map[string]any `json:"context,omitempty"`
	TriggeringObjectID string         `json:"triggering_object_id,omitempty"`
}

// DispatchTriggerResponse acknowledges scheduling only; run outcomes are
// reported through the execution log, not this response.
type DispatchTriggerResponse struct {
	Status           string `json:"status"`
	Event            string `json:"event"`
	MatchedWorkflows int    `json:"matched_workflows"`
}

// StepRequest describes one workflow step in a create or update request.
type StepRequest struct {
	Order        int            `json:"order"         validate:"min=0"`
	ActionType   string         `json:"action_type"   validate:"required"`
	ActionConfig map[string]any `json:"action_config"`
	Name         string         `json:"name"          validate:"required"`
	Enabled      bool           `json:"enabled"`
}

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name         string        `json:"name"          validate:"required,min=3"`
	Description  string        `json:"description"`
	TriggerEvent string        `json:"trigger_event" validate:"required"`
	IsActive     bool          `json:"is_active"`
	Steps        []StepRequest `json:"steps"         validate:"dive"`
}

// UpdateWorkflowRequest represents the request body for updating an existing
// workflow. All fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name         *string       `json:"name,omitempty"          validate:"omitempty,min=3"`
	Description  *string       `json:"description,omitempty"`
	TriggerEvent *string       `json:"trigger_event,omitempty"`
	IsActive     *bool         `json:"is_active,omitempty"`
	Steps        []StepRequest `json:"steps,omitempty"         validate:"omitempty,dive"`
}

// AwardPointsRequest represents the request body for appending a ledger entry.
type AwardPointsRequest struct {
	UserID        string         `json:"user_id"        validate:"required"`
	Points        float64        `json:"points"         validate:"required"`
	Description   string         `json:"description"    validate:"required"`
	PointableType string         `json:"pointable_type,omitempty"`
	PointableID   string         `json:"pointable_id,omitempty"`
	ProjectID     string         `json:"project_id,omitempty"`
	Status        string         `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed"`
	Meta          map[string]any `json:"meta,omitempty"`
}

// LedgerEntryResponse is the API shape of one ledger entry.
type LedgerEntryResponse struct {
	ID            string         `json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	Date          string         `json:"date"`
	PointsAwarded float64        `json:"points_awarded"`
	Description   string         `json:"description"`
	Status        string         `json:"status"`
	Project       string         `json:"project,omitempty"`
	Meta          map[string]any `json:"meta,omitempty"`
}

// PaginationResponse mirrors the page metadata of the ledger query.
type PaginationResponse struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

// LedgerPageResponse is one page of ledger entries plus page metadata.
type LedgerPageResponse struct {
	Data       []LedgerEntryResponse `json:"data"`
	Pagination PaginationResponse    `json:"pagination"`
}

// TransformLedgerEntry converts a ledger entry into its API shape.
func TransformLedgerEntry(entry *models.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:            entry.ID,
		CreatedAt:     entry.CreatedAt,
		Date:          entry.CreatedAt.Format("2006-01-02"),
		PointsAwarded: entry.PointsAwarded,
		Description:   entry.Description,
		Status:        string(entry.Status),
		Project:       entry.ProjectID,
		Meta:          entry.Meta,
	}
}

// TransformLedgerPage converts a repository page into its API shape.
func TransformLedgerPage(page *persistence.LedgerPage) LedgerPageResponse {
	data := make([]LedgerEntryResponse, 0, len(page.Entries))
	for _, entry := range page.Entries {
		data = append(data, TransformLedgerEntry(entry))
	}

	return LedgerPageResponse{
		Data: data,
		Pagination: PaginationResponse{
			CurrentPage: page.Page,
			PerPage:     page.PerPage,
			Total:       page.Total,
			LastPage:    page.TotalPages,
		},
	}
}
