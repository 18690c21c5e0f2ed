package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hubflow/hubflow/pkg/eventbus"
	"github.com/hubflow/hubflow/pkg/events"
	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/otelhelper"
	"github.com/hubflow/hubflow/pkg/persistence"
	"github.com/hubflow/hubflow/pkg/registry"
	"github.com/hubflow/hubflow/pkg/workflow"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
}

func NewWorkerManager(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	registry *registry.Registry,
) *WorkerManager {
	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "hubflow-worker", "worker_id", id),
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager", "worker_id", w.id)

	tracer, err := otelhelper.NewTracer(ctx, "hubflow-worker")
	if err != nil {
		w.logger.WarnContext(ctx, "Tracing disabled, failed to initialize tracer", "error", err)
	} else {
		w.tracer = tracer
	}

	err = w.eventBus.Handle(events.WorkflowTriggeredEvent, w.handleWorkflowTriggered)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *WorkerManager) handleWorkflowTriggered(ctx context.Context, event any) error {
	triggeredEvent, ok := event.(*events.WorkflowTriggered)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for WorkflowTriggered")

		return nil
	}

	logger := w.logger.With(
		"workflow_id", triggeredEvent.WorkflowID,
		"event", triggeredEvent.EventName,
		"event_id", triggeredEvent.ID,
	)
	logger.InfoContext(ctx, "Processing workflow triggered event")

	if w.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, w.tracer, "workflow.run",
			attribute.String(otelhelper.WorkflowIDKey, triggeredEvent.WorkflowID),
			attribute.String(otelhelper.TriggerEventKey, triggeredEvent.EventName),
			attribute.String(otelhelper.WorkerIDKey, w.id),
		)
		defer span.End()
	}

	workflowItem, err := w.persistence.WorkflowRepository().WorkflowByID(ctx, triggeredEvent.WorkflowID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to fetch workflow", "error", err)

		return err
	}

	if workflowItem == nil || !workflowItem.Runnable() {
		logger.InfoContext(ctx, "Workflow no longer runnable, dropping event")

		return nil
	}

	trigger := models.TriggerEvent{
		Name:               triggeredEvent.EventName,
		Context:            triggeredEvent.Context,
		TriggeringObjectID: triggeredEvent.TriggeringObjectID,
	}

	executor := workflow.NewExecutor(w.persistence, w.registry, w.logger)

	result, err := executor.Execute(ctx, workflowItem, trigger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to execute workflow", "error", err)

		failedEvent := events.WorkflowRunFailed{
			BaseEvent: events.NewBaseEvent(events.WorkflowRunFailedEvent, triggeredEvent.WorkflowID),
			Error:     err.Error(),
		}
		failedEvent.WorkerID = w.id

		publishErr := w.eventBus.Publish(ctx, triggeredEvent.WorkflowID, failedEvent)
		if publishErr != nil {
			logger.ErrorContext(ctx, "Failed to publish run failed event", "error", publishErr)
		}

		return err
	}

	if result.Outcome == workflow.RunOutcomeFailed {
		failedEvent := events.WorkflowRunFailed{
			BaseEvent:   events.NewBaseEvent(events.WorkflowRunFailedEvent, triggeredEvent.WorkflowID),
			ExecutionID: result.ExecutionID,
			FailedStep:  result.FailedStepID,
			Error:       result.Err.Error(),
			DurationMs:  result.DurationMs,
		}
		failedEvent.WorkerID = w.id

		publishErr := w.eventBus.Publish(ctx, triggeredEvent.WorkflowID, failedEvent)
		if publishErr != nil {
			logger.ErrorContext(ctx, "Failed to publish run failed event", "error", publishErr)
		}

		return nil
	}

	finishedEvent := events.WorkflowRunFinished{
		BaseEvent:     events.NewBaseEvent(events.WorkflowRunFinishedEvent, triggeredEvent.WorkflowID),
		ExecutionID:   result.ExecutionID,
		StepsExecuted: result.StepsExecuted,
		DurationMs:    result.DurationMs,
	}
	finishedEvent.WorkerID = w.id

	publishErr := w.eventBus.Publish(ctx, triggeredEvent.WorkflowID, finishedEvent)
	if publishErr != nil {
		logger.ErrorContext(ctx, "Failed to publish run finished event", "error", publishErr)
	}

	return nil
}
