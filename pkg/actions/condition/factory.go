package condition

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
	return "condition"
}

func (f *Factory) Name() string {
	return "Condition"
}

func (f *Factory) Description() string {
	return "Gates the remaining steps of a run on a comparison between two templated values"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"title":   "Condition Action Configuration",
		"properties": map[string]any{
			"left": map[string]any{
				"type":        "string",
				"description": "Left operand, supports templating ({{.trigger.status}})",
			},
			"operator": map[string]any{
				"type":        "string",
				"enum":        []string{"eq", "ne", "gt", "gte", "lt", "lte", "contains"},
				"default":     "eq",
				"description": "Comparison operator",
			},
			"right": map[string]any{
				"type":        "string",
				"description": "Right operand, supports templating",
			},
		},
		"required": []string{"left", "right"},
	}
}
