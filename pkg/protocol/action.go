// Package protocol defines the contracts between the workflow executor and pluggable actions.
package protocol

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hubflow/hubflow/pkg/models"
)

// ErrConditionNotMet is returned by gating actions (condition) when their
// expression evaluates false. The executor records the step as skipped and
// stops the run without marking it failed.
var ErrConditionNotMet = errors.New("condition not met")

type Action interface {
	Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error)
}

type ActionFactory interface {
	// Create creates a new action instance with the given configuration.
	Create(ctx context.Context, config map[string]any) (Action, error)

	// ID returns the unique identifier for this action type.
	ID() string

	// Name returns the human-readable name for this action type.
	Name() string

	// Description returns a description of what this action does.
	Description() string

	// Schema returns the JSON schema for configuring this action.
	Schema() map[string]any
}
