// Package workflow executes matched workflows step by step and records an
// append-only execution log.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence"
	"github.com/hubflow/hubflow/pkg/protocol"
	"github.com/hubflow/hubflow/pkg/registry"
)

// RunOutcome is the overall result of one workflow run.
type RunOutcome string

const (
	RunOutcomeSuccess RunOutcome = "success"
	RunOutcomeFailed  RunOutcome = "failed"
)

// ExecutionResult summarizes a completed run. One log entry exists per
// visited step, plus a single workflow-level entry for zero-step runs.
type ExecutionResult struct {
	ExecutionID   string
	WorkflowID    string
	Outcome       RunOutcome
	StepsExecuted int
	FailedStepID  string
	Err           error
	DurationMs    int64
}

type Executor struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	logger      *slog.Logger
}

func NewExecutor(persistence persistence.Persistence, registry *registry.Registry, logger *slog.Logger) *Executor {
	return &Executor{
		persistence: persistence,
		registry:    registry,
		logger:      logger.With("module", "workflow_executor"),
	}
}

// Execute runs a workflow's steps strictly in Order. A step failure halts
// the run and leaves the remaining steps unexecuted. A gating action that
// returns protocol.ErrConditionNotMet stops the run without failing it.
func (e *Executor) Execute(ctx context.Context, workflow *models.Workflow, trigger models.TriggerEvent) (*ExecutionResult, error) {
	started := time.Now()

	executionCtx := models.ExecutionContext{
		ID:                 "exec-" + uuid.New().String(),
		WorkflowID:         workflow.ID,
		EventName:          trigger.Name,
		TriggerContext:     trigger.CopyContext(),
		TriggeringObjectID: trigger.TriggeringObjectID,
		StepResults:        make(map[string]any),
	}

	logger := e.logger.With(
		"workflow_id", workflow.ID,
		"execution_id", executionCtx.ID,
		"event", trigger.Name,
	)

	logger.Info("Starting workflow run", "steps", len(workflow.Steps))

	result := &ExecutionResult{
		ExecutionID: executionCtx.ID,
		WorkflowID:  workflow.ID,
		Outcome:     RunOutcomeSuccess,
	}

	if len(workflow.Steps) == 0 {
		err := e.appendEntry(ctx, &executionCtx, nil, models.ExecutionStatusSuccess, map[string]any{
			"message": "workflow has no steps",
		}, 0)
		if err != nil {
			return nil, err
		}

		result.DurationMs = time.Since(started).Milliseconds()

		logger.Info("Workflow run completed", "steps_executed", 0)

		return result, nil
	}

	steps := make([]*models.WorkflowStep, len(workflow.Steps))
	copy(steps, workflow.Steps)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Order < steps[j].Order
	})

	for _, step := range steps {
		halt, err := e.executeStep(ctx, &executionCtx, step, result, logger)
		if err != nil {
			return nil, err
		}

		if halt {
			break
		}
	}

	result.DurationMs = time.Since(started).Milliseconds()

	if result.Outcome == RunOutcomeFailed {
		logger.Warn("Workflow run failed",
			"failed_step", result.FailedStepID,
			"steps_executed", result.StepsExecuted,
			"error", result.Err)
	} else {
		logger.Info("Workflow run completed", "steps_executed", result.StepsExecuted)
	}

	return result, nil
}

// executeStep runs one step and appends its log entry. The returned bool
// reports whether the run must stop after this step.
func (e *Executor) executeStep(
	ctx context.Context,
	executionCtx *models.ExecutionContext,
	step *models.WorkflowStep,
	result *ExecutionResult,
	logger *slog.Logger,
) (bool, error) {
	stepLogger := logger.With("step_id", step.ID, "step_name", step.Name, "action_type", step.ActionType)

	if !step.Enabled {
		stepLogger.Info("Step disabled, skipping")

		err := e.appendEntry(ctx, executionCtx, &step.ID, models.ExecutionStatusSkipped, map[string]any{
			"reason": "step disabled",
		}, 0)

		return false, err
	}

	stepStarted := time.Now()

	output, actionErr := e.runAction(ctx, executionCtx, step, stepLogger)
	stepDuration := time.Since(stepStarted).Milliseconds()

	switch {
	case actionErr == nil:
		executionCtx.StepResults[step.ID] = output
		result.StepsExecuted++

		err := e.appendEntry(ctx, executionCtx, &step.ID, models.ExecutionStatusSuccess, output, stepDuration)

		return false, err

	case errors.Is(actionErr, protocol.ErrConditionNotMet):
		stepLogger.Info("Condition not met, stopping run")

		err := e.appendEntry(ctx, executionCtx, &step.ID, models.ExecutionStatusSkipped, output, stepDuration)

		return true, err

	default:
		stepLogger.Error("Step failed", "error", actionErr)

		result.Outcome = RunOutcomeFailed
		result.FailedStepID = step.ID
		result.Err = actionErr

		err := e.appendEntry(ctx, executionCtx, &step.ID, models.ExecutionStatusFailed, map[string]any{
			"error": actionErr.Error(),
		}, stepDuration)

		return true, err
	}
}

func (e *Executor) runAction(
	ctx context.Context,
	executionCtx *models.ExecutionContext,
	step *models.WorkflowStep,
	logger *slog.Logger,
) (map[string]any, error) {
	if err := e.registry.ValidateConfig(step.ActionType, step.ActionConfig); err != nil {
		return nil, err
	}

	action, err := e.registry.CreateAction(ctx, step.ActionType, step.ActionConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create action for step %s: %w", step.ID, err)
	}

	return action.Execute(ctx, *executionCtx, logger)
}

func (e *Executor) appendEntry(
	ctx context.Context,
	executionCtx *models.ExecutionContext,
	stepID *string,
	status models.ExecutionStatus,
	output map[string]any,
	durationMs int64,
) error {
	entry := &models.ExecutionLogEntry{
		ID:          uuid.New().String(),
		ExecutionID: executionCtx.ID,
		WorkflowID:  executionCtx.WorkflowID,
		StepID:      stepID,
		Status:      status,
		Output:      output,
		DurationMs:  durationMs,
		CreatedAt:   time.Now().UTC(),
	}

	err := e.persistence.ExecutionLogRepository().Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to append execution log entry: %w", err)
	}

	return nil
}
