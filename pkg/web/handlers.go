// Package web provides HTTP handlers and REST API endpoints for the
// automation core: trigger dispatch, workflow management, the points ledger,
// and the leaderboard.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/hubflow/hubflow/pkg/dispatcher"
	"github.com/hubflow/hubflow/pkg/leaderboard"
	"github.com/hubflow/hubflow/pkg/ledger"
	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence"
	"github.com/hubflow/hubflow/pkg/registry"
	"github.com/hubflow/hubflow/pkg/services"
)

type APIHandlers struct {
	dispatcher      *dispatcher.Dispatcher
	workflowService *services.Workflow
	ledgerService   *ledger.Service
	leaderboard     *leaderboard.Aggregator
	validator       *validator.Validate
	registry        *registry.Registry
}

func NewAPIHandlers(
	dispatcher *dispatcher.Dispatcher,
	workflowService *services.Workflow,
	ledgerService *ledger.Service,
	leaderboard *leaderboard.Aggregator,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		dispatcher:      dispatcher,
		workflowService: workflowService,
		ledgerService:   ledgerService,
		leaderboard:     leaderboard,
		validator:       validator,
		registry:        registry,
	}
}

// DispatchTrigger accepts a trigger event and schedules runs for every
// matching active workflow. The response acknowledges scheduling only.
func (h *APIHandlers) DispatchTrigger(c fiber.Ctx) error {
	var req DispatchTriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.dispatcher.Dispatch(c.Context(), models.TriggerEvent{
		Name:               req.Event,
		Context:            req.Context,
		TriggeringObjectID: req.TriggeringObjectID,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(DispatchTriggerResponse{
		Status:           "queued",
		Event:            result.Event,
		MatchedWorkflows: result.MatchedWorkflows,
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows": workflows,
		"total":     len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		Name:         req.Name,
		Description:  req.Description,
		TriggerEvent: req.TriggerEvent,
		IsActive:     req.IsActive,
		Steps:        transformStepRequests(req.Steps),
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.TriggerEvent != nil {
		existing.TriggerEvent = *req.TriggerEvent
	}

	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if req.Steps != nil {
		existing.Steps = transformStepRequests(req.Steps)
	}

	updated, err := h.workflowService.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.workflowService.Delete(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetWorkflowExecutions returns the append-only execution log recorded for a
// workflow, oldest entries first.
func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	entries, err := h.workflowService.Executions(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflow_id": id,
		"entries":     entries,
		"total":       len(entries),
	})
}

// GetLeaderboard ranks all active users by confirmed points for the
// requested month, defaulting to the current period.
func (h *APIHandlers) GetLeaderboard(c fiber.Ctx) error {
	now := time.Now().UTC()

	year, err := queryInt(c, "year", now.Year())
	if err != nil {
		return badRequest(c, "Invalid year parameter")
	}

	month, err := queryInt(c, "month", int(now.Month()))
	if err != nil {
		return badRequest(c, "Invalid month parameter")
	}

	rows, err := h.leaderboard.Monthly(c.Context(), year, month)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"year":        year,
		"month":       month,
		"leaderboard": rows,
	})
}

// GetLedger returns one page of a user's ledger entries for a month window
// computed in the user's time zone.
func (h *APIHandlers) GetLedger(c fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return badRequest(c, "user_id is required")
	}

	year, err := queryInt(c, "year", 0)
	if err != nil {
		return badRequest(c, "Invalid year parameter")
	}

	month, err := queryInt(c, "month", 0)
	if err != nil {
		return badRequest(c, "Invalid month parameter")
	}

	page, err := queryInt(c, "page", 1)
	if err != nil {
		return badRequest(c, "Invalid page parameter")
	}

	perPage, err := queryInt(c, "per_page", 0)
	if err != nil {
		return badRequest(c, "Invalid per_page parameter")
	}

	result, err := h.ledgerService.Entries(c.Context(), ledger.EntriesRequest{
		UserID:        userID,
		Year:          year,
		Month:         month,
		ProjectID:     c.Query("project_id"),
		PointableKind: models.PointableKind(c.Query("pointable_type")),
		Status:        models.LedgerStatus(c.Query("status")),
		Page:          page,
		PerPage:       perPage,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransformLedgerPage(result))
}

// AwardPoints appends a new ledger entry.
func (h *APIHandlers) AwardPoints(c fiber.Ctx) error {
	var req AwardPointsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var pointable *models.PointableRef
	if req.PointableType != "" && req.PointableID != "" {
		pointable = &models.PointableRef{
			Kind: models.PointableKind(req.PointableType),
			ID:   req.PointableID,
		}
	}

	entry, err := h.ledgerService.Award(c.Context(), ledger.AwardRequest{
		UserID:      req.UserID,
		Points:      req.Points,
		Description: req.Description,
		Pointable:   pointable,
		ProjectID:   req.ProjectID,
		Status:      models.LedgerStatus(req.Status),
		Meta:        req.Meta,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(TransformLedgerEntry(entry))
}

// ReverseLedgerEntry appends a negating entry referencing the original.
func (h *APIHandlers) ReverseLedgerEntry(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Ledger entry ID is required")
	}

	reversal, err := h.ledgerService.Reverse(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(TransformLedgerEntry(reversal))
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "HubFlow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "HubFlow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func transformStepRequests(steps []StepRequest) []*models.WorkflowStep {
	result := make([]*models.WorkflowStep, 0, len(steps))
	for _, step := range steps {
		result = append(result, &models.WorkflowStep{
			Order:        step.Order,
			ActionType:   step.ActionType,
			ActionConfig: step.ActionConfig,
			Name:         step.Name,
			Enabled:      step.Enabled,
		})
	}

	return result
}

func queryInt(c fiber.Ctx, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}

	return strconv.Atoi(raw)
}
