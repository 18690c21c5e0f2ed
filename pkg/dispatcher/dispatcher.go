// Package dispatcher matches incoming trigger events to workflows and
// schedules one run per match.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hubflow/hubflow/pkg/eventbus"
	"github.com/hubflow/hubflow/pkg/events"
	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence"
	"github.com/hubflow/hubflow/pkg/services"
)

type Dispatcher struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	logger      *slog.Logger
}

// DispatchResult reports how many workflows a trigger event scheduled.
// Dispatch is fire-and-forget: the result says nothing about run outcomes.
type DispatchResult struct {
	Event              string `json:"event"`
	MatchedWorkflows   int    `json:"matched_workflows"`
	TriggeringObjectID string `json:"triggering_object_id,omitempty"`
}

func NewDispatcher(
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		persistence: persistence,
		eventBus:    eventBus,
		logger:      logger.With("module", "dispatcher"),
	}
}

// Dispatch matches the trigger event name against active workflows and
// publishes one scheduling event per match, each with its own copy of the
// trigger context. Matching is exact string comparison, no patterns.
func (d *Dispatcher) Dispatch(ctx context.Context, trigger models.TriggerEvent) (*DispatchResult, error) {
	if trigger.Name == "" {
		return nil, services.ErrEventNameRequired
	}

	workflows, err := d.persistence.WorkflowRepository().ActiveByTriggerEvent(ctx, trigger.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to match workflows for event '%s': %w", trigger.Name, err)
	}

	for _, workflow := range workflows {
		event := events.WorkflowTriggered{
			BaseEvent:          events.NewBaseEvent(events.WorkflowTriggeredEvent, workflow.ID),
			EventName:          trigger.Name,
			Context:            trigger.CopyContext(),
			TriggeringObjectID: trigger.TriggeringObjectID,
		}

		err := d.eventBus.Publish(ctx, workflow.ID, event)
		if err != nil {
			return nil, fmt.Errorf("failed to schedule workflow %s: %w", workflow.ID, err)
		}

		d.logger.Info("Workflow scheduled",
			"event", trigger.Name,
			"workflow_id", workflow.ID,
			"triggering_object_id", trigger.TriggeringObjectID)
	}

	d.logger.Info("Trigger event dispatched",
		"event", trigger.Name,
		"matched_workflows", len(workflows))

	return &DispatchResult{
		Event:              trigger.Name,
		MatchedWorkflows:   len(workflows),
		TriggeringObjectID: trigger.TriggeringObjectID,
	}, nil
}
