package createrecord

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
	return "create_record"
}

func (f *Factory) Name() string {
	return "Create Record"
}

func (f *Factory) Description() string {
	return "Create a new domain record with templated field values"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"title":   "Create Record Action Configuration",
		"properties": map[string]any{
			"record_type": map[string]any{
				"type":        "string",
				"description": "Type of record to create (task, kudo, standup)",
			},
			"fields": map[string]any{
				"type":        "object",
				"description": "Field values for the new record, string values support templating",
			},
		},
		"required": []string{"record_type"},
	}
}
