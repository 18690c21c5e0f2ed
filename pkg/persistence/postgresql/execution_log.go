package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hubflow/hubflow/pkg/models"
)

// ExecutionLogRepository appends per-step outcome records. The table is
// insert-only; no update statements exist here.
type ExecutionLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionLogRepository creates a new execution log repository.
func NewExecutionLogRepository(db *sql.DB, logger *slog.Logger) *ExecutionLogRepository {
	return &ExecutionLogRepository{db: db, logger: logger}
}

// Append inserts one log entry atomically.
func (er *ExecutionLogRepository) Append(ctx context.Context, entry *models.ExecutionLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	output, err := json.Marshal(entry.Output)
	if err != nil {
		return fmt.Errorf("failed to encode output for log entry %s: %w", entry.ID, err)
	}

	query := `
		INSERT INTO execution_logs (id, execution_id, workflow_id, step_id, status, output, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = er.db.ExecContext(ctx, query,
		entry.ID,
		entry.ExecutionID,
		entry.WorkflowID,
		entry.StepID,
		entry.Status,
		output,
		entry.DurationMs,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution log entry %s: %w", entry.ID, err)
	}

	return nil
}

// ByExecution returns the entries of one run ordered by creation time.
func (er *ExecutionLogRepository) ByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLogEntry, error) {
	query := `
		SELECT id, execution_id, workflow_id, step_id, status, output, duration_ms, created_at
		FROM execution_logs
		WHERE execution_id = $1
		ORDER BY created_at, id
	`

	return er.query(ctx, query, executionID)
}

// ByWorkflow returns all entries recorded for a workflow ordered by creation time.
func (er *ExecutionLogRepository) ByWorkflow(ctx context.Context, workflowID string) ([]*models.ExecutionLogEntry, error) {
	query := `
		SELECT id, execution_id, workflow_id, step_id, status, output, duration_ms, created_at
		FROM execution_logs
		WHERE workflow_id = $1
		ORDER BY created_at, id
	`

	return er.query(ctx, query, workflowID)
}

func (er *ExecutionLogRepository) query(ctx context.Context, query string, args ...any) ([]*models.ExecutionLogEntry, error) {
	rows, err := er.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution logs: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			er.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var entries []*models.ExecutionLogEntry

	for rows.Next() {
		var (
			entry  models.ExecutionLogEntry
			stepID sql.NullString
			output []byte
		)

		err := rows.Scan(
			&entry.ID,
			&entry.ExecutionID,
			&entry.WorkflowID,
			&stepID,
			&entry.Status,
			&output,
			&entry.DurationMs,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution log entry: %w", err)
		}

		if stepID.Valid {
			entry.StepID = &stepID.String
		}

		if len(output) > 0 {
			err = json.Unmarshal(output, &entry.Output)
			if err != nil {
				return nil, fmt.Errorf("failed to decode output for log entry %s: %w", entry.ID, err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating execution logs: %w", err)
	}

	return entries, nil
}
