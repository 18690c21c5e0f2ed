package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence"
	"github.com/hubflow/hubflow/pkg/registry"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

type Workflow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	validator   *validator.Validate
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, registry *registry.Registry) *Workflow {
	return &Workflow{
		persistence: persistence,
		registry:    registry,
		validator:   validator.New(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List retrieves all workflows, soft-deleted ones excluded.
func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.WorkflowRepository().Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

// Create adds a new workflow to the repository.
func (w *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if err := w.validate(workflow); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	w.assignStepIDs(workflow)

	err := w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update modifies an existing workflow by its ID.
func (w *Workflow) Update(
	ctx context.Context,
	workflowID string,
	workflow *models.Workflow,
) (*models.Workflow, error) {
	existing, err := w.persistence.WorkflowRepository().WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return nil, ErrWorkflowNotFound
	}

	if err := w.validate(workflow); err != nil {
		return nil, err
	}

	workflow.ID = workflowID
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()
	workflow.DeletedAt = existing.DeletedAt

	w.assignStepIDs(workflow)

	err = w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Delete soft-deletes a workflow by its ID. The workflow stops matching
// trigger events but its execution history stays queryable.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	existing, err := w.persistence.WorkflowRepository().WorkflowByID(ctx, workflowID)
	if err != nil {
		return err
	}

	if existing == nil {
		return ErrWorkflowNotFound
	}

	err = w.persistence.WorkflowRepository().Delete(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

// Executions retrieves the execution log entries recorded for a workflow.
func (w *Workflow) Executions(ctx context.Context, workflowID string) ([]*models.ExecutionLogEntry, error) {
	existing, err := w.persistence.WorkflowRepository().WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return nil, ErrWorkflowNotFound
	}

	entries, err := w.persistence.ExecutionLogRepository().ByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch execution log: %w", err)
	}

	return entries, nil
}

func (w *Workflow) validate(workflow *models.Workflow) error {
	if workflow == nil {
		return ErrInvalidRequest
	}

	if err := w.validator.Struct(workflow); err != nil {
		return NewValidationError("validateWorkflow", "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	seenOrders := make(map[int]string, len(workflow.Steps))

	for _, step := range workflow.Steps {
		if err := w.validator.Struct(step); err != nil {
			return NewValidationError("validateWorkflow", "INVALID_STEP", err.Error(), ErrInvalidRequest)
		}

		if prev, ok := seenOrders[step.Order]; ok {
			return NewValidationError(
				"validateWorkflow",
				"DUPLICATE_STEP_ORDER",
				fmt.Sprintf("steps '%s' and '%s' share order %d", prev, step.Name, step.Order),
				ErrDuplicateStepOrder,
			)
		}

		seenOrders[step.Order] = step.Name

		if w.registry != nil {
			if !w.registry.IsActionRegistered(step.ActionType) {
				return NewValidationError(
					"validateWorkflow",
					"UNKNOWN_ACTION_TYPE",
					fmt.Sprintf("action type '%s' is not registered", step.ActionType),
					ErrUnknownActionType,
				)
			}

			if err := w.registry.ValidateConfig(step.ActionType, step.ActionConfig); err != nil {
				return NewValidationError("validateWorkflow", "INVALID_ACTION_CONFIG", err.Error(), ErrInvalidActionConfig)
			}
		}
	}

	return nil
}

func (w *Workflow) assignStepIDs(workflow *models.Workflow) {
	for _, step := range workflow.Steps {
		if step.ID == "" {
			step.ID = uuid.New().String()
		}

		step.WorkflowID = workflow.ID
	}
}
