package dispatcher

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubflow/hubflow/pkg/channels/gochannel"
	"github.com/hubflow/hubflow/pkg/eventbus"
	"github.com/hubflow/hubflow/pkg/events"
	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence/file"
)

func newTestEventBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	return eventbus.NewWatermillEventBus(pub, sub)
}

func saveWorkflow(t *testing.T, p *file.Persistence, id, event string, active bool) {
	t.Helper()

	now := time.Now().UTC()
	err := p.WorkflowRepository().Save(t.Context(), &models.Workflow{
		ID:           id,
		Name:         "Workflow " + id,
		TriggerEvent: event,
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
}

func TestDispatcher_Dispatch_RequiresEventName(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	bus := newTestEventBus(t)
	d := NewDispatcher(persistence, bus, slog.Default())

	result, err := d.Dispatch(t.Context(), models.TriggerEvent{})
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestDispatcher_Dispatch_NoMatches(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	saveWorkflow(t, persistence, "wf-1", "task.completed", true)

	bus := newTestEventBus(t)
	d := NewDispatcher(persistence, bus, slog.Default())

	result, err := d.Dispatch(t.Context(), models.TriggerEvent{Name: "kudo.given"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.MatchedWorkflows)
	assert.Equal(t, "kudo.given", result.Event)
}

func TestDispatcher_Dispatch_SchedulesOneRunPerMatch(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	saveWorkflow(t, persistence, "wf-1", "task.completed", true)
	saveWorkflow(t, persistence, "wf-2", "task.completed", true)
	saveWorkflow(t, persistence, "wf-3", "task.completed", false)
	saveWorkflow(t, persistence, "wf-4", "kudo.given", true)

	bus := newTestEventBus(t)

	var (
		mu       sync.Mutex
		received []*events.WorkflowTriggered
	)

	done := make(chan struct{}, 4)

	err := bus.Handle(events.WorkflowTriggeredEvent, func(_ context.Context, event any) error {
		triggered, ok := event.(*events.WorkflowTriggered)
		if !ok {
			t.Errorf("unexpected event type %T", event)

			return nil
		}

		mu.Lock()
		received = append(received, triggered)
		mu.Unlock()

		done <- struct{}{}

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(t.Context()))

	d := NewDispatcher(persistence, bus, slog.Default())

	trigger := models.TriggerEvent{
		Name:               "task.completed",
		Context:            map[string]any{"task_id": "42"},
		TriggeringObjectID: "42",
	}

	result, err := d.Dispatch(t.Context(), trigger)
	require.NoError(t, err)
	assert.Equal(t, 2, result.MatchedWorkflows)

	for range 2 {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for scheduled runs")
		}
	}

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, received, 2)

	workflowIDs := map[string]bool{}
	for _, event := range received {
		workflowIDs[event.WorkflowID] = true

		assert.Equal(t, "task.completed", event.EventName)
		assert.Equal(t, "42", event.TriggeringObjectID)
		assert.Equal(t, map[string]any{"task_id": "42"}, event.Context)
	}

	assert.True(t, workflowIDs["wf-1"])
	assert.True(t, workflowIDs["wf-2"])
	assert.False(t, workflowIDs["wf-3"], "inactive workflow must not be scheduled")
	assert.False(t, workflowIDs["wf-4"], "non-matching workflow must not be scheduled")
}

func TestDispatcher_Dispatch_CopiesContextPerRun(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	saveWorkflow(t, persistence, "wf-1", "standup.submitted", true)

	bus := newTestEventBus(t)

	received := make(chan *events.WorkflowTriggered, 1)

	err := bus.Handle(events.WorkflowTriggeredEvent, func(_ context.Context, event any) error {
		received <- event.(*events.WorkflowTriggered)

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(t.Context()))

	d := NewDispatcher(persistence, bus, slog.Default())

	trigger := models.TriggerEvent{
		Name:    "standup.submitted",
		Context: map[string]any{"mood": "good"},
	}

	_, err = d.Dispatch(t.Context(), trigger)
	require.NoError(t, err)

	// Mutating the caller's map after dispatch must not affect the
	// scheduled run's copy.
	trigger.Context["mood"] = "changed"

	select {
	case event := <-received:
		assert.Equal(t, "good", event.Context["mood"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for scheduled run")
	}
}
