package notify

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
	return "send_notification"
}

func (f *Factory) Name() string {
	return "Send Notification"
}

func (f *Factory) Description() string {
	return "Deliver a templated notification message to a channel"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"title":   "Send Notification Action Configuration",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message to deliver, supports templating ({{.trigger.task_name}})",
			},
			"channel": map[string]any{
				"type":        "string",
				"default":     "default",
				"description": "Logical delivery channel",
			},
			"level": map[string]any{
				"type":        "string",
				"enum":        []string{"info", "warn", "error"},
				"default":     "info",
				"description": "Notification severity",
			},
		},
		"required": []string{"message"},
	}
}
