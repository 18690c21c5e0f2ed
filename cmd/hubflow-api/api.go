// Package main provides the HubFlow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/hubflow/hubflow/pkg/dispatcher"
	"github.com/hubflow/hubflow/pkg/eventbus"
	"github.com/hubflow/hubflow/pkg/leaderboard"
	"github.com/hubflow/hubflow/pkg/ledger"
	"github.com/hubflow/hubflow/pkg/persistence"
	"github.com/hubflow/hubflow/pkg/registry"
	"github.com/hubflow/hubflow/pkg/services"
	"github.com/hubflow/hubflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		registry:    registry,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	triggerDispatcher := dispatcher.NewDispatcher(a.persistence, a.eventBus, a.logger)
	workflowService := services.NewWorkflow(a.persistence, a.registry)
	ledgerService := ledger.NewService(a.persistence, a.logger)
	leaderboardAggregator := leaderboard.NewAggregator(a.persistence, a.logger)

	handlers := web.NewAPIHandlers(
		triggerDispatcher,
		workflowService,
		ledgerService,
		leaderboardAggregator,
		a.validate,
		a.registry,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("HubFlow API")
	})

	app.Post("/triggers", handlers.DispatchTrigger)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Get("/:id/executions", handlers.GetWorkflowExecutions)

	l := app.Group("/ledger")
	l.Get("/", handlers.GetLedger)
	l.Post("/", handlers.AwardPoints)
	l.Post("/:id/reverse", handlers.ReverseLedgerEntry)

	app.Get("/leaderboard", handlers.GetLeaderboard)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
