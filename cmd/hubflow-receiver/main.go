package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/hubflow/hubflow/pkg/cmd"
	"github.com/hubflow/hubflow/pkg/log"
)

func main() {
	cmdRoot := &cli.Command{
		Name:                  "hubflow-receiver",
		EnableShellCompletion: true,
		Usage:                 "Receive trigger events from queues and schedules and dispatch them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for the queue receiver (empty disables it)",
				Value:   "",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis-queue",
				Usage:   "Redis list name to consume trigger events from",
				Value:   "hubflow:triggers",
				Sources: cli.EnvVars("REDIS_QUEUE"),
			},
			&cli.StringSliceFlag{
				Name:    "schedule",
				Usage:   "Scheduled trigger event in the form 'CRON_EXPR|event.name' (repeatable)",
				Sources: cli.EnvVars("SCHEDULES"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("hubflow-receiver")

			logger.InfoContext(ctx, "Initializing HubFlow Receiver")

			eventBus := cmd.NewEventBus(command.String("event-bus"), "receiver", logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			manager, err := NewReceiverManager(
				persistence,
				eventBus,
				logger,
				command.String("redis-addr"),
				command.String("redis-queue"),
				command.StringSlice("schedule"),
			)
			if err != nil {
				return err
			}

			return manager.Start(ctx)
		},
	}

	err := cmdRoot.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
