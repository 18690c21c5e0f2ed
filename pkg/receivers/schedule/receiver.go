// Package schedule provides the cron-based trigger event receiver: each
// entry emits a named trigger event on its cron schedule.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/protocol"
)

// Entry binds one cron expression to one trigger event name.
type Entry struct {
	CronExpr string
	Event    string
}

type Receiver struct {
	entries  []Entry
	cron     *cron.Cron
	callback protocol.TriggerCallback
	logger   *slog.Logger
}

func NewReceiver(entries []Entry, logger *slog.Logger) (*Receiver, error) {
	for _, entry := range entries {
		if entry.Event == "" {
			return nil, errors.New("schedule entry event name is required")
		}

		if _, err := cron.ParseStandard(entry.CronExpr); err != nil {
			return nil, fmt.Errorf("invalid cron expression '%s': %w", entry.CronExpr, err)
		}
	}

	return &Receiver{
		entries: entries,
		logger:  logger.With("module", "schedule_receiver"),
	}, nil
}

func (r *Receiver) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	r.logger.InfoContext(ctx, "Starting schedule receiver", "entries", len(r.entries))
	r.callback = callback

	r.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	for _, entry := range r.entries {
		event := entry.Event

		id, err := r.cron.AddFunc(entry.CronExpr, func() {
			r.emit(event)
		})
		if err != nil {
			return fmt.Errorf("failed to add cron job for event %s: %w", event, err)
		}

		r.logger.InfoContext(ctx, "Scheduled trigger event", "job_id", id, "event", event, "cron", entry.CronExpr)
	}

	r.cron.Start()

	return nil
}

func (r *Receiver) emit(event string) {
	trigger := models.TriggerEvent{
		Name: event,
		Context: map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	go func() {
		err := r.callback(context.Background(), trigger)
		if err != nil {
			r.logger.Error("Error dispatching scheduled trigger event", "event", event, "error", err)
		}
	}()
}

func (r *Receiver) Stop(ctx context.Context) error {
	r.logger.InfoContext(ctx, "Stopping schedule receiver")

	if r.cron != nil {
		r.cron.Stop()
	}

	return nil
}
