package models

// WorkflowStep is one action within a workflow, executed in ascending Order.
// Order is unique within the owning workflow. ActionConfig is validated
// against the action type's JSON schema before execution.
type WorkflowStep struct {
	ID           string         `json:"id"`
	WorkflowID   string         `json:"workflow_id"`
	Order        int            `json:"order"`
	ActionType   string         `json:"action_type" validate:"required"`
	ActionConfig map[string]any `json:"action_config"`
	Name         string         `json:"name" validate:"required"`
	Enabled      bool           `json:"enabled"`
}
