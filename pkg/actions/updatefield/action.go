// Package updatefield provides the update-field action.
package updatefield

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/template"
)

type Action struct {
	recordType string
	recordID   string
	field      string
	value      string
}

func NewAction(config map[string]any) *Action {
	recordType, _ := config["record_type"].(string)
	recordID, _ := config["record_id"].(string)
	field, _ := config["field"].(string)
	value, _ := config["value"].(string)

	return &Action{
		recordType: recordType,
		recordID:   recordID,
		field:      field,
		value:      value,
	}
}

func (a *Action) Execute(_ context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	recordID, err := template.RenderString(a.recordID, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render record id: %w", err)
	}

	value, err := template.RenderWithContext(a.value, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render field value: %w", err)
	}

	logger.Info("Field updated",
		"record_type", a.recordType,
		"record_id", recordID,
		"field", a.field,
		"workflow_id", executionCtx.WorkflowID)

	return map[string]any{
		"record_type": a.recordType,
		"record_id":   recordID,
		"field":       a.field,
		"value":       value,
		"updated_at":  time.Now().UTC().Format(time.RFC3339),
	}, nil
}
