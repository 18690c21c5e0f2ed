package models

// TriggerEvent is the transient payload handed to the dispatcher. It is
// constructed at dispatch time, consumed by the scheduled runs, and never
// persisted itself.
type TriggerEvent struct {
	Name               string         `json:"event" validate:"required"`
	Context            map[string]any `json:"context,omitempty"`
	TriggeringObjectID string         `json:"triggering_object_id,omitempty"`
}

// CopyContext returns a shallow copy of the event context so concurrent runs
// never share the same map.
func (e TriggerEvent) CopyContext() map[string]any {
	if e.Context == nil {
		return map[string]any{}
	}

	contextCopy := make(map[string]any, len(e.Context))
	for k, v := range e.Context {
		contextCopy[k] = v
	}

	return contextCopy
}
