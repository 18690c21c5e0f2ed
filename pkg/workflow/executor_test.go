package workflow

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubflow/hubflow/pkg/actions/condition"
	"github.com/hubflow/hubflow/pkg/actions/notify"
	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence/file"
	"github.com/hubflow/hubflow/pkg/registry"
)

func newTestRegistry() *registry.Registry {
	reg := registry.NewRegistry(slog.Default())
	reg.RegisterAction(notify.NewFactory())
	reg.RegisterAction(condition.NewFactory())

	return reg
}

func newTestExecutor(t *testing.T) (*Executor, *file.Persistence) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	executor := NewExecutor(persistence, newTestRegistry(), slog.Default())

	return executor, persistence
}

func notifyStep(id string, order int, message string) *models.WorkflowStep {
	return &models.WorkflowStep{
		ID:         id,
		Order:      order,
		ActionType: "send_notification",
		ActionConfig: map[string]any{
			"message": message,
		},
		Name:    "Step " + id,
		Enabled: true,
	}
}

func testWorkflow(steps ...*models.WorkflowStep) *models.Workflow {
	now := time.Now().UTC()

	return &models.Workflow{
		ID:           "wf-test",
		Name:         "Test Workflow",
		TriggerEvent: "task.completed",
		IsActive:     true,
		Steps:        steps,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestExecutor_Execute_StepsInOrder(t *testing.T) {
	executor, persistence := newTestExecutor(t)

	// Steps are intentionally declared out of order.
	wf := testWorkflow(
		notifyStep("step-b", 2, "second"),
		notifyStep("step-a", 1, "first"),
		notifyStep("step-c", 3, "third"),
	)

	result, err := executor.Execute(t.Context(), wf, models.TriggerEvent{Name: "task.completed"})
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeSuccess, result.Outcome)
	assert.Equal(t, 3, result.StepsExecuted)

	entries, err := persistence.ExecutionLogRepository().ByExecution(t.Context(), result.ExecutionID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.NotNil(t, entries[0].StepID)
	require.NotNil(t, entries[1].StepID)
	require.NotNil(t, entries[2].StepID)

	assert.Equal(t, "step-a", *entries[0].StepID)
	assert.Equal(t, "step-b", *entries[1].StepID)
	assert.Equal(t, "step-c", *entries[2].StepID)

	for _, entry := range entries {
		assert.Equal(t, models.ExecutionStatusSuccess, entry.Status)
		assert.Equal(t, result.ExecutionID, entry.ExecutionID)
		assert.Equal(t, "wf-test", entry.WorkflowID)
	}
}

func TestExecutor_Execute_FailureHaltsRemainingSteps(t *testing.T) {
	executor, persistence := newTestExecutor(t)

	failing := &models.WorkflowStep{
		ID:         "step-2",
		Order:      2,
		ActionType: "send_notification",
		// message is required by the action schema
		ActionConfig: map[string]any{},
		Name:         "Broken Step",
		Enabled:      true,
	}

	wf := testWorkflow(
		notifyStep("step-1", 1, "first"),
		failing,
		notifyStep("step-3", 3, "never runs"),
	)

	result, err := executor.Execute(t.Context(), wf, models.TriggerEvent{Name: "task.completed"})
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeFailed, result.Outcome)
	assert.Equal(t, "step-2", result.FailedStepID)
	assert.Equal(t, 1, result.StepsExecuted)

	entries, err := persistence.ExecutionLogRepository().ByExecution(t.Context(), result.ExecutionID)
	require.NoError(t, err)
	require.Len(t, entries, 2, "the halted step must leave no log entry")

	assert.Equal(t, models.ExecutionStatusSuccess, entries[0].Status)
	assert.Equal(t, models.ExecutionStatusFailed, entries[1].Status)
	assert.NotEmpty(t, entries[1].Output["error"])
}

func TestExecutor_Execute_ZeroStepsRecordsSingleEntry(t *testing.T) {
	executor, persistence := newTestExecutor(t)

	result, err := executor.Execute(t.Context(), testWorkflow(), models.TriggerEvent{Name: "task.completed"})
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeSuccess, result.Outcome)
	assert.Equal(t, 0, result.StepsExecuted)

	entries, err := persistence.ExecutionLogRepository().ByExecution(t.Context(), result.ExecutionID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Nil(t, entries[0].StepID)
	assert.Equal(t, models.ExecutionStatusSuccess, entries[0].Status)
}

func TestExecutor_Execute_DisabledStepSkippedWithoutHalting(t *testing.T) {
	executor, persistence := newTestExecutor(t)

	disabled := notifyStep("step-2", 2, "disabled")
	disabled.Enabled = false

	wf := testWorkflow(
		notifyStep("step-1", 1, "first"),
		disabled,
		notifyStep("step-3", 3, "third"),
	)

	result, err := executor.Execute(t.Context(), wf, models.TriggerEvent{Name: "task.completed"})
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeSuccess, result.Outcome)
	assert.Equal(t, 2, result.StepsExecuted)

	entries, err := persistence.ExecutionLogRepository().ByExecution(t.Context(), result.ExecutionID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, models.ExecutionStatusSuccess, entries[0].Status)
	assert.Equal(t, models.ExecutionStatusSkipped, entries[1].Status)
	assert.Equal(t, models.ExecutionStatusSuccess, entries[2].Status)
}

func TestExecutor_Execute_ConditionFalseStopsRunAsSkipped(t *testing.T) {
	executor, persistence := newTestExecutor(t)

	gate := &models.WorkflowStep{
		ID:         "step-gate",
		Order:      2,
		ActionType: "condition",
		ActionConfig: map[string]any{
			"left":     "{{.trigger.status}}",
			"operator": "eq",
			"right":    "done",
		},
		Name:    "Gate",
		Enabled: true,
	}

	wf := testWorkflow(
		notifyStep("step-1", 1, "first"),
		gate,
		notifyStep("step-3", 3, "never runs"),
	)

	result, err := executor.Execute(t.Context(), wf, models.TriggerEvent{
		Name:    "task.completed",
		Context: map[string]any{"status": "open"},
	})
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeSuccess, result.Outcome, "a false condition is not a failure")
	assert.Equal(t, 1, result.StepsExecuted)

	entries, err := persistence.ExecutionLogRepository().ByExecution(t.Context(), result.ExecutionID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, models.ExecutionStatusSuccess, entries[0].Status)
	assert.Equal(t, models.ExecutionStatusSkipped, entries[1].Status)
}

func TestExecutor_Execute_ConditionTrueContinues(t *testing.T) {
	executor, _ := newTestExecutor(t)

	gate := &models.WorkflowStep{
		ID:         "step-gate",
		Order:      1,
		ActionType: "condition",
		ActionConfig: map[string]any{
			"left":  "{{.trigger.status}}",
			"right": "done",
		},
		Name:    "Gate",
		Enabled: true,
	}

	wf := testWorkflow(gate, notifyStep("step-2", 2, "runs"))

	result, err := executor.Execute(t.Context(), wf, models.TriggerEvent{
		Name:    "task.completed",
		Context: map[string]any{"status": "done"},
	})
	require.NoError(t, err)

	assert.Equal(t, RunOutcomeSuccess, result.Outcome)
	assert.Equal(t, 2, result.StepsExecuted)
}

func TestExecutor_Execute_StepResultsAvailableToLaterSteps(t *testing.T) {
	executor, persistence := newTestExecutor(t)

	wf := testWorkflow(
		notifyStep("step-1", 1, "hello {{.trigger.who}}"),
		notifyStep("step-2", 2, "relayed: {{index .steps \"step-1\" \"message\"}}"),
	)

	result, err := executor.Execute(t.Context(), wf, models.TriggerEvent{
		Name:    "task.completed",
		Context: map[string]any{"who": "world"},
	})
	require.NoError(t, err)
	assert.Equal(t, RunOutcomeSuccess, result.Outcome)

	entries, err := persistence.ExecutionLogRepository().ByExecution(t.Context(), result.ExecutionID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "hello world", entries[0].Output["message"])
	assert.Equal(t, "relayed: hello world", entries[1].Output["message"])
}
