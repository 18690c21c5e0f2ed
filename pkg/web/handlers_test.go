package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubflow/hubflow/pkg/actions/notify"
	"github.com/hubflow/hubflow/pkg/channels/gochannel"
	"github.com/hubflow/hubflow/pkg/dispatcher"
	"github.com/hubflow/hubflow/pkg/eventbus"
	"github.com/hubflow/hubflow/pkg/leaderboard"
	"github.com/hubflow/hubflow/pkg/ledger"
	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence/file"
	"github.com/hubflow/hubflow/pkg/registry"
	"github.com/hubflow/hubflow/pkg/services"
	"github.com/hubflow/hubflow/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, *file.Persistence) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	registryInstance := registry.NewRegistry(slog.Default())
	registryInstance.RegisterAction(notify.NewFactory())

	handlers := web.NewAPIHandlers(
		dispatcher.NewDispatcher(persistence, bus, slog.Default()),
		services.NewWorkflow(persistence, registryInstance),
		ledger.NewService(persistence, slog.Default()),
		leaderboard.NewAggregator(persistence, slog.Default()),
		validator.New(validator.WithRequiredStructEnabled()),
		registryInstance,
	)

	app := fiber.New()

	app.Post("/triggers", handlers.DispatchTrigger)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Get("/:id/executions", handlers.GetWorkflowExecutions)

	l := app.Group("/ledger")
	l.Get("/", handlers.GetLedger)
	l.Post("/", handlers.AwardPoints)
	l.Post("/:id/reverse", handlers.ReverseLedgerEntry)

	app.Get("/leaderboard", handlers.GetLeaderboard)

	return app, persistence
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestDispatchTrigger_ReturnsQueuedSynchronously(t *testing.T) {
	app, persistence := setupTestApp(t)

	now := time.Now().UTC()
	require.NoError(t, persistence.WorkflowRepository().Save(t.Context(), &models.Workflow{
		ID:           "wf-1",
		Name:         "Notify on completion",
		TriggerEvent: "task.completed",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))

	req := jsonRequest(t, http.MethodPost, "/triggers", web.DispatchTriggerRequest{
		Event:   "task.completed",
		Context: map[string]any{"task_id": "42"},
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body web.DispatchTriggerResponse

	decodeBody(t, resp, &body)
	assert.Equal(t, "queued", body.Status)
	assert.Equal(t, "task.completed", body.Event)
	assert.Equal(t, 1, body.MatchedWorkflows)
}

func TestDispatchTrigger_MissingEventName(t *testing.T) {
	app, _ := setupTestApp(t)

	req := jsonRequest(t, http.MethodPost, "/triggers", map[string]any{
		"context": map[string]any{"task_id": "42"},
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateWorkflow_RejectsDuplicateStepOrder(t *testing.T) {
	app, _ := setupTestApp(t)

	req := jsonRequest(t, http.MethodPost, "/workflows", web.CreateWorkflowRequest{
		Name:         "Duplicate Orders",
		TriggerEvent: "task.completed",
		IsActive:     true,
		Steps: []web.StepRequest{
			{Order: 1, ActionType: "send_notification", ActionConfig: map[string]any{"message": "a"}, Name: "A", Enabled: true},
			{Order: 1, ActionType: "send_notification", ActionConfig: map[string]any{"message": "b"}, Name: "B", Enabled: true},
		},
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateWorkflow_RejectsUnknownActionType(t *testing.T) {
	app, _ := setupTestApp(t)

	req := jsonRequest(t, http.MethodPost, "/workflows", web.CreateWorkflowRequest{
		Name:         "Unknown Action",
		TriggerEvent: "task.completed",
		Steps: []web.StepRequest{
			{Order: 1, ActionType: "does_not_exist", Name: "A", Enabled: true},
		},
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWorkflowLifecycle(t *testing.T) {
	app, _ := setupTestApp(t)

	createReq := jsonRequest(t, http.MethodPost, "/workflows", web.CreateWorkflowRequest{
		Name:         "Lifecycle Workflow",
		Description:  "created then updated then deleted",
		TriggerEvent: "task.completed",
		IsActive:     true,
		Steps: []web.StepRequest{
			{Order: 1, ActionType: "send_notification", ActionConfig: map[string]any{"message": "hi"}, Name: "Notify", Enabled: true},
		},
	})

	resp, err := app.Test(createReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Workflow

	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.ID)
	assert.Len(t, created.Steps, 1)

	newName := "Renamed Workflow"

	patchReq := jsonRequest(t, http.MethodPatch, "/workflows/"+created.ID, web.UpdateWorkflowRequest{
		Name: &newName,
	})

	resp, err = app.Test(patchReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Workflow

	decodeBody(t, resp, &updated)
	assert.Equal(t, newName, updated.Name)
	assert.Len(t, updated.Steps, 1, "steps survive partial update")

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/workflows/"+created.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/workflows/", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Workflows []*models.Workflow `json:"workflows"`
		Total     int                `json:"total"`
	}

	decodeBody(t, resp, &listing)
	assert.Equal(t, 0, listing.Total)
}

func TestLedgerAwardAndReverse(t *testing.T) {
	app, _ := setupTestApp(t)

	awardReq := jsonRequest(t, http.MethodPost, "/ledger", web.AwardPointsRequest{
		UserID:        "user-7",
		Points:        10,
		Description:   "Completed task",
		PointableType: "task",
		PointableID:   "42",
	})

	resp, err := app.Test(awardReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var awarded web.LedgerEntryResponse

	decodeBody(t, resp, &awarded)
	assert.Equal(t, "confirmed", awarded.Status)
	assert.InEpsilon(t, 10.0, awarded.PointsAwarded, 1e-9)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/ledger/"+awarded.ID+"/reverse", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var reversed web.LedgerEntryResponse

	decodeBody(t, resp, &reversed)
	assert.Equal(t, "reversed", reversed.Status)
	assert.InEpsilon(t, -10.0, reversed.PointsAwarded, 1e-9)
}

func TestLedgerReverse_NotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/ledger/missing/reverse", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetLedger_RequiresUserID(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ledger/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetLedger_PaginatedShape(t *testing.T) {
	app, persistence := setupTestApp(t)

	require.NoError(t, persistence.UserRepository().Save(t.Context(), &models.User{
		ID: "user-7", Name: "Grace", UserType: models.UserTypeEmployee, Active: true,
	}))

	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, persistence.LedgerRepository().Append(t.Context(), &models.LedgerEntry{
		ID:            "entry-1",
		UserID:        "user-7",
		PointsAwarded: 10,
		Description:   "March points",
		Status:        models.LedgerStatusConfirmed,
		ProjectID:     "project-1",
		CreatedAt:     created,
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ledger/?user_id=user-7&year=2026&month=3", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page web.LedgerPageResponse

	decodeBody(t, resp, &page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "entry-1", page.Data[0].ID)
	assert.Equal(t, "2026-03-10", page.Data[0].Date)
	assert.Equal(t, "project-1", page.Data[0].Project)
	assert.Equal(t, int64(1), page.Pagination.Total)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 1, page.Pagination.LastPage)
}

func TestGetLeaderboard(t *testing.T) {
	app, persistence := setupTestApp(t)

	require.NoError(t, persistence.UserRepository().Save(t.Context(), &models.User{
		ID: "user-1", Name: "Alice", UserType: models.UserTypeEmployee, Active: true,
	}))
	require.NoError(t, persistence.UserRepository().Save(t.Context(), &models.User{
		ID: "user-2", Name: "Bob", UserType: models.UserTypeContractor, Active: true,
	}))

	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, persistence.LedgerRepository().Append(t.Context(), &models.LedgerEntry{
		ID:            "entry-1",
		UserID:        "user-2",
		PointsAwarded: 25,
		Description:   "Kudos",
		Status:        models.LedgerStatusConfirmed,
		CreatedAt:     created,
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/leaderboard?year=2026&month=3", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Year        int               `json:"year"`
		Month       int               `json:"month"`
		Leaderboard []leaderboard.Row `json:"leaderboard"`
	}

	decodeBody(t, resp, &body)
	assert.Equal(t, 2026, body.Year)
	assert.Equal(t, 3, body.Month)
	require.Len(t, body.Leaderboard, 2)

	assert.Equal(t, "user-2", body.Leaderboard[0].UserID)
	assert.InEpsilon(t, 25.0, body.Leaderboard[0].TotalPoints, 1e-9)
	assert.Equal(t, "user-1", body.Leaderboard[1].UserID)
	assert.InDelta(t, 0.0, body.Leaderboard[1].TotalPoints, 1e-9)
}
