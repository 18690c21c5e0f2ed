package updatefield

import (
	"context"

	"github.com/hubflow/hubflow/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, config map[string]any) (protocol.Action, error) {
	return NewAction(config), nil
}

func (f *Factory) ID() string {
	return "update_field"
}

func (f *Factory) Name() string {
	return "Update Field"
}

func (f *Factory) Description() string {
	return "Set a single field on an existing domain record"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"title":   "Update Field Action Configuration",
		"properties": map[string]any{
			"record_type": map[string]any{
				"type":        "string",
				"description": "Type of record to update",
			},
			"record_id": map[string]any{
				"type":        "string",
				"description": "Record identifier, supports templating ({{.trigger.task_id}})",
			},
			"field": map[string]any{
				"type":        "string",
				"description": "Field name to set",
			},
			"value": map[string]any{
				"type":        "string",
				"description": "New value, supports templating",
			},
		},
		"required": []string{"record_type", "record_id", "field", "value"},
	}
}
