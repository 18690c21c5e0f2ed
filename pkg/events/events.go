// Package events defines event types and structures for workflow run scheduling and lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries all workflow scheduling and lifecycle events.
const Topic = "hubflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// WorkflowTriggeredEvent schedules one executor run for one matched workflow.
	WorkflowTriggeredEvent EventType = "workflow.triggered"

	// Run lifecycle events, published by workers after execution.
	WorkflowRunFinishedEvent EventType = "workflow.run.finished"
	WorkflowRunFailedEvent   EventType = "workflow.run.failed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// WorkflowTriggered is published once per matched workflow when a trigger
// event is dispatched. The context is a copy private to this run.
type WorkflowTriggered struct {
	BaseEvent

	EventName          string         `json:"event_name"`
	Context            map[string]any `json:"context,omitempty"`
	TriggeringObjectID string         `json:"triggering_object_id,omitempty"`
}

func (w WorkflowTriggered) GetType() EventType {
	return WorkflowTriggeredEvent
}

type WorkflowRunFinished struct {
	BaseEvent

	ExecutionID   string `json:"execution_id"`
	StepsExecuted int    `json:"steps_executed"`
	DurationMs    int64  `json:"duration_ms"`
}

func (w WorkflowRunFinished) GetType() EventType {
	return WorkflowRunFinishedEvent
}

type WorkflowRunFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	FailedStep  string `json:"failed_step,omitempty"`
	Error       string `json:"error"`
	DurationMs  int64  `json:"duration_ms"`
}

func (w WorkflowRunFailed) GetType() EventType {
	return WorkflowRunFailedEvent
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}
