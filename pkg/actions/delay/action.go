// Package delay provides the delay action, pausing a run for a fixed duration.
package delay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hubflow/hubflow/pkg/models"
)

// MaxDuration bounds a single delay step so a misconfigured workflow cannot
// hold a worker slot indefinitely.
const MaxDuration = 5 * time.Minute

type Action struct {
	duration time.Duration
}

func NewAction(config map[string]any) (*Action, error) {
	raw, _ := config["duration"].(string)

	duration, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid delay duration '%s': %w", raw, err)
	}

	if duration < 0 {
		return nil, fmt.Errorf("delay duration must not be negative, got %s", duration)
	}

	if duration > MaxDuration {
		return nil, fmt.Errorf("delay duration %s exceeds maximum %s", duration, MaxDuration)
	}

	return &Action{duration: duration}, nil
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger.Info("Delaying run", "duration", a.duration.String(), "workflow_id", executionCtx.WorkflowID)

	timer := time.NewTimer(a.duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return map[string]any{
		"delayed_ms": a.duration.Milliseconds(),
	}, nil
}
