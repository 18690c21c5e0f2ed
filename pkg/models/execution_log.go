package models

import "time"

// ExecutionStatus is the recorded outcome of a single step execution.
type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
	ExecutionStatusSkipped ExecutionStatus = "skipped"
)

// ExecutionLogEntry is an append-only record of one step outcome within a
// run. StepID is nil for workflow-level entries (a run with zero steps, or a
// failure before any step executed). Entries are never mutated after
// creation.
type ExecutionLogEntry struct {
	ID          string          `json:"id"`
	ExecutionID string          `json:"execution_id"`
	WorkflowID  string          `json:"workflow_id"`
	StepID      *string         `json:"step_id,omitempty"`
	Status      ExecutionStatus `json:"status"`
	Output      map[string]any  `json:"output,omitempty"`
	DurationMs  int64           `json:"duration_ms"`
	CreatedAt   time.Time       `json:"created_at"`
}
