// Package persistence provides the data storage abstraction for workflows, execution logs, the points ledger, and users.
package persistence

import (
	"context"
	"time"

	"github.com/hubflow/hubflow/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionLogRepository() ExecutionLogRepository
	LedgerRepository() LedgerRepository
	UserRepository() UserRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions. Implementations maintain a
// trigger_event index so ActiveByTriggerEvent is a direct lookup, rebuilt on
// every save and delete.
type WorkflowRepository interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	ActiveByTriggerEvent(ctx context.Context, triggerEvent string) ([]*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error

	// Delete soft-deletes the workflow, preserving execution log history.
	Delete(ctx context.Context, id string) error
}

// ExecutionLogRepository is append-only; entries are never updated.
type ExecutionLogRepository interface {
	Append(ctx context.Context, entry *models.ExecutionLogEntry) error
	ByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLogEntry, error)
	ByWorkflow(ctx context.Context, workflowID string) ([]*models.ExecutionLogEntry, error)
}

// LedgerFilter narrows a ledger page query. Start and End are UTC instants
// forming a half-open [Start, End) window.
type LedgerFilter struct {
	UserID        string
	Start         time.Time
	End           time.Time
	ProjectID     string
	PointableKind models.PointableKind
	Status        models.LedgerStatus
	Page          int
	PerPage       int
}

// LedgerPage is one page of ledger entries, newest first.
type LedgerPage struct {
	Entries    []*models.LedgerEntry
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

// LedgerRepository is append-only; reversals are new entries.
type LedgerRepository interface {
	Append(ctx context.Context, entry *models.LedgerEntry) error
	EntryByID(ctx context.Context, id string) (*models.LedgerEntry, error)
	Entries(ctx context.Context, filter LedgerFilter) (*LedgerPage, error)

	// ConfirmedTotals sums confirmed points per user over [start, end).
	ConfirmedTotals(ctx context.Context, start, end time.Time) (map[string]float64, error)
}

type UserRepository interface {
	Users(ctx context.Context) ([]*models.User, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}
