// Package models defines the core domain models for workflow automation and the points ledger.
package models

import "time"

// Workflow binds a trigger event to an ordered list of steps.
//
// TriggerEvent is an opaque string compared with exact equality against
// dispatched event names; there is no wildcard or hierarchical matching.
// Workflows are soft-deleted so execution log history stays resolvable.
type Workflow struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"          validate:"required,min=3"`
	Description  string          `json:"description"`
	TriggerEvent string          `json:"trigger_event" validate:"required"`
	IsActive     bool            `json:"is_active"`
	Steps        []*WorkflowStep `json:"steps"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty"`
}

// Runnable reports whether the workflow is eligible for execution.
func (w *Workflow) Runnable() bool {
	return w.IsActive && w.DeletedAt == nil
}
