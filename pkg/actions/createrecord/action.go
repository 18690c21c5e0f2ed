// Package createrecord provides the create-record action.
package createrecord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/template"
)

type Action struct {
	recordType string
	fields     map[string]any
}

func NewAction(config map[string]any) *Action {
	recordType, _ := config["record_type"].(string)

	fields, _ := config["fields"].(map[string]any)
	if fields == nil {
		fields = map[string]any{}
	}

	return &Action{
		recordType: recordType,
		fields:     fields,
	}
}

func (a *Action) Execute(_ context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	rendered := make(map[string]any, len(a.fields))

	for name, value := range a.fields {
		str, ok := value.(string)
		if !ok {
			rendered[name] = value

			continue
		}

		result, err := template.RenderWithContext(str, &executionCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to render field '%s': %w", name, err)
		}

		rendered[name] = result
	}

	recordID := uuid.New().String()

	logger.Info("Record created",
		"record_type", a.recordType,
		"record_id", recordID,
		"workflow_id", executionCtx.WorkflowID)

	return map[string]any{
		"record_type": a.recordType,
		"record_id":   recordID,
		"fields":      rendered,
		"created_at":  time.Now().UTC().Format(time.RFC3339),
	}, nil
}
