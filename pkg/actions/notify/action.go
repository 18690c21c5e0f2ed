// Package notify provides the send-notification action.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/template"
)

type Action struct {
	message string
	channel string
	level   string
}

func NewAction(config map[string]any) *Action {
	channel, _ := config["channel"].(string)
	if channel == "" {
		channel = "default"
	}

	level, _ := config["level"].(string)
	if level == "" {
		level = "info"
	}

	message, _ := config["message"].(string)

	return &Action{
		message: message,
		channel: channel,
		level:   level,
	}
}

func (a *Action) Execute(_ context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	rendered, err := template.RenderString(a.message, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render notification message: %w", err)
	}

	logAttrs := []any{
		"channel", a.channel,
		"workflow_id", executionCtx.WorkflowID,
		"message", rendered,
	}

	switch a.level {
	case "warn":
		logger.Warn("Notification", logAttrs...)
	case "error":
		logger.Error("Notification", logAttrs...)
	default:
		logger.Info("Notification", logAttrs...)
	}

	return map[string]any{
		"message":     rendered,
		"channel":     a.channel,
		"level":       a.level,
		"notified_at": time.Now().UTC().Format(time.RFC3339),
	}, nil
}
