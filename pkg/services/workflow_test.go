package services

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubflow/hubflow/pkg/actions/notify"
	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence/file"
	"github.com/hubflow/hubflow/pkg/registry"
)

func newWorkflowService(t *testing.T) *Workflow {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(slog.Default())
	reg.RegisterAction(notify.NewFactory())

	return NewWorkflow(persistence, reg)
}

func validWorkflow() *models.Workflow {
	return &models.Workflow{
		Name:         "Test Workflow",
		TriggerEvent: "task.completed",
		IsActive:     true,
		Steps: []*models.WorkflowStep{
			{
				Order:        1,
				ActionType:   "send_notification",
				ActionConfig: map[string]any{"message": "done"},
				Name:         "Notify",
				Enabled:      true,
			},
		},
	}
}

func TestWorkflow_Create(t *testing.T) {
	service := newWorkflowService(t)

	created, err := service.Create(t.Context(), validWorkflow())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	require.Len(t, created.Steps, 1)
	assert.NotEmpty(t, created.Steps[0].ID)
	assert.Equal(t, created.ID, created.Steps[0].WorkflowID)
}

func TestWorkflow_Create_RequiresTriggerEvent(t *testing.T) {
	service := newWorkflowService(t)

	wf := validWorkflow()
	wf.TriggerEvent = ""

	_, err := service.Create(t.Context(), wf)
	assert.Error(t, err)
}

func TestWorkflow_Create_RequiresNameLength(t *testing.T) {
	service := newWorkflowService(t)

	wf := validWorkflow()
	wf.Name = "ab"

	_, err := service.Create(t.Context(), wf)
	assert.Error(t, err)
}

func TestWorkflow_Create_RejectsDuplicateStepOrder(t *testing.T) {
	service := newWorkflowService(t)

	wf := validWorkflow()
	wf.Steps = append(wf.Steps, &models.WorkflowStep{
		Order:        1,
		ActionType:   "send_notification",
		ActionConfig: map[string]any{"message": "again"},
		Name:         "Duplicate",
		Enabled:      true,
	})

	_, err := service.Create(t.Context(), wf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateStepOrder))
}

func TestWorkflow_Create_RejectsUnknownActionType(t *testing.T) {
	service := newWorkflowService(t)

	wf := validWorkflow()
	wf.Steps[0].ActionType = "does_not_exist"

	_, err := service.Create(t.Context(), wf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownActionType))
}

func TestWorkflow_Create_RejectsInvalidActionConfig(t *testing.T) {
	service := newWorkflowService(t)

	wf := validWorkflow()
	wf.Steps[0].ActionConfig = map[string]any{}

	_, err := service.Create(t.Context(), wf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidActionConfig))
}

func TestWorkflow_Update_PreservesCreationTime(t *testing.T) {
	service := newWorkflowService(t)

	created, err := service.Create(t.Context(), validWorkflow())
	require.NoError(t, err)

	modified := validWorkflow()
	modified.Name = "Renamed Workflow"

	updated, err := service.Update(t.Context(), created.ID, modified)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Renamed Workflow", updated.Name)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
}

func TestWorkflow_Update_NotFound(t *testing.T) {
	service := newWorkflowService(t)

	_, err := service.Update(t.Context(), "missing", validWorkflow())
	assert.Error(t, err)
}

func TestWorkflow_Delete_SoftDeletes(t *testing.T) {
	service := newWorkflowService(t)

	created, err := service.Create(t.Context(), validWorkflow())
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	workflows, err := service.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, workflows)

	// History fetch still resolves the workflow.
	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.NotNil(t, fetched.DeletedAt)
}

func TestWorkflow_Executions_NotFound(t *testing.T) {
	service := newWorkflowService(t)

	_, err := service.Executions(t.Context(), "missing")
	assert.Error(t, err)
}
