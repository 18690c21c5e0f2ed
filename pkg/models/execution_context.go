package models

// ExecutionContext is the mutable state of one workflow run. It is private
// to the run: concurrent runs never share an instance. StepResults
// accumulates each step's output keyed by step id, so later steps can
// reference earlier results.
type ExecutionContext struct {
	ID                 string         `json:"id"`
	WorkflowID         string         `json:"workflow_id"`
	EventName          string         `json:"event_name"`
	TriggerContext     map[string]any `json:"trigger_context,omitempty"`
	TriggeringObjectID string         `json:"triggering_object_id,omitempty"`
	StepResults        map[string]any `json:"step_results,omitempty"`
}
