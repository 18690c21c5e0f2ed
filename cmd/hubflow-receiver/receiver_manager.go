package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hubflow/hubflow/pkg/dispatcher"
	"github.com/hubflow/hubflow/pkg/eventbus"
	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence"
	"github.com/hubflow/hubflow/pkg/protocol"
	"github.com/hubflow/hubflow/pkg/receivers/queue"
	"github.com/hubflow/hubflow/pkg/receivers/schedule"
)

// ReceiverManager hosts the configured receivers and routes every received
// trigger event through the dispatcher.
type ReceiverManager struct {
	logger     *slog.Logger
	dispatcher *dispatcher.Dispatcher
	receivers  []protocol.Receiver
}

func NewReceiverManager(
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	redisAddr string,
	redisQueue string,
	schedules []string,
) (*ReceiverManager, error) {
	manager := &ReceiverManager{
		logger:     logger.With("module", "receiver_manager"),
		dispatcher: dispatcher.NewDispatcher(persistence, eventBus, logger),
	}

	if redisAddr != "" {
		queueReceiver, err := queue.NewReceiver(queue.Config{
			Addr:  redisAddr,
			Queue: redisQueue,
		}, logger)
		if err != nil {
			return nil, err
		}

		manager.receivers = append(manager.receivers, queueReceiver)
	}

	if len(schedules) > 0 {
		entries, err := parseScheduleEntries(schedules)
		if err != nil {
			return nil, err
		}

		scheduleReceiver, err := schedule.NewReceiver(entries, logger)
		if err != nil {
			return nil, err
		}

		manager.receivers = append(manager.receivers, scheduleReceiver)
	}

	if len(manager.receivers) == 0 {
		return nil, fmt.Errorf("no receivers configured, set redis-addr or schedule")
	}

	return manager, nil
}

func (m *ReceiverManager) Start(ctx context.Context) error {
	callback := func(ctx context.Context, trigger models.TriggerEvent) error {
		result, err := m.dispatcher.Dispatch(ctx, trigger)
		if err != nil {
			return err
		}

		m.logger.InfoContext(ctx, "Trigger event dispatched",
			"event", result.Event,
			"matched_workflows", result.MatchedWorkflows)

		return nil
	}

	for _, receiver := range m.receivers {
		err := receiver.Start(ctx, callback)
		if err != nil {
			return err
		}
	}

	m.logger.InfoContext(ctx, "Receiver manager started", "receivers", len(m.receivers))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	m.logger.InfoContext(ctx, "Shutting down receivers...")

	for _, receiver := range m.receivers {
		err := receiver.Stop(ctx)
		if err != nil {
			m.logger.ErrorContext(ctx, "Failed to stop receiver", "error", err)
		}
	}

	return nil
}

// parseScheduleEntries parses 'CRON_EXPR|event.name' pairs.
func parseScheduleEntries(raw []string) ([]schedule.Entry, error) {
	entries := make([]schedule.Entry, 0, len(raw))

	for _, item := range raw {
		cronExpr, event, found := strings.Cut(item, "|")
		if !found || cronExpr == "" || event == "" {
			return nil, fmt.Errorf("invalid schedule entry '%s', expected 'CRON_EXPR|event.name'", item)
		}

		entries = append(entries, schedule.Entry{
			CronExpr: strings.TrimSpace(cronExpr),
			Event:    strings.TrimSpace(event),
		})
	}

	return entries, nil
}
