package protocol

import (
	"context"

	"github.com/hubflow/hubflow/pkg/models"
)

// TriggerCallback hands a received trigger event to the dispatcher.
type TriggerCallback func(ctx context.Context, trigger models.TriggerEvent) error

// Receiver turns an external signal source (queue, schedule) into trigger
// events.
type Receiver interface {
	Start(ctx context.Context, callback TriggerCallback) error
	Stop(ctx context.Context) error
}
