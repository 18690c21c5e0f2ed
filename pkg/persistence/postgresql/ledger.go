package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence"
)

// LedgerRepository stores points ledger entries. Insert-only: reversals are
// new rows and historical totals never require locking.
type LedgerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLedgerRepository creates a new ledger repository.
func NewLedgerRepository(db *sql.DB, logger *slog.Logger) *LedgerRepository {
	return &LedgerRepository{db: db, logger: logger}
}

const ledgerColumns = `id, user_id, pointable_kind, pointable_id, points_awarded, description, status, project_id, reverses_entry_id, meta, created_at`

// Append inserts one ledger entry atomically.
func (lr *LedgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	meta, err := json.Marshal(entry.Meta)
	if err != nil {
		return &persistence.LedgerError{Op: "Append", EntryID: entry.ID, Err: err}
	}

	var pointableKind, pointableID sql.NullString
	if entry.Pointable != nil {
		pointableKind = sql.NullString{String: string(entry.Pointable.Kind), Valid: true}
		pointableID = sql.NullString{String: entry.Pointable.ID, Valid: true}
	}

	query := `
		INSERT INTO points_ledger (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, '')::uuid, $10, $11)
	`

	_, err = lr.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		pointableKind,
		pointableID,
		entry.PointsAwarded,
		entry.Description,
		entry.Status,
		entry.ProjectID,
		entry.ReversesEntryID,
		meta,
		entry.CreatedAt,
	)
	if err != nil {
		return &persistence.LedgerError{Op: "Append", EntryID: entry.ID, Err: err}
	}

	return nil
}

// EntryByID returns a single ledger entry.
func (lr *LedgerRepository) EntryByID(ctx context.Context, id string) (*models.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM points_ledger WHERE id = $1`

	entry, err := lr.scan(lr.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &persistence.LedgerError{Op: "EntryByID", EntryID: id, Err: persistence.ErrLedgerEntryNotFound}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entry %s: %w", id, err)
	}

	return entry, nil
}

// Entries returns one page of entries matching the filter, newest first.
func (lr *LedgerRepository) Entries(ctx context.Context, filter persistence.LedgerFilter) (*persistence.LedgerPage, error) {
	where := "WHERE 1=1"
	args := make([]any, 0, 8)

	appendArg := func(clause string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(" AND "+clause, len(args))
	}

	if filter.UserID != "" {
		appendArg("user_id = $%d", filter.UserID)
	}

	if !filter.Start.IsZero() {
		appendArg("created_at >= $%d", filter.Start)
	}

	if !filter.End.IsZero() {
		appendArg("created_at < $%d", filter.End)
	}

	if filter.ProjectID != "" {
		appendArg("project_id = $%d", filter.ProjectID)
	}

	if filter.PointableKind != "" {
		appendArg("pointable_kind = $%d", string(filter.PointableKind))
	}

	if filter.Status != "" {
		appendArg("status = $%d", string(filter.Status))
	}

	var total int64

	err := lr.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM points_ledger "+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}

	perPage := filter.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	query := fmt.Sprintf(
		"SELECT "+ledgerColumns+" FROM points_ledger "+where+" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		len(args)+1, len(args)+2,
	)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := lr.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			lr.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	entries := make([]*models.LedgerEntry, 0, perPage)

	for rows.Next() {
		entry, err := lr.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return &persistence.LedgerPage{
		Entries:    entries,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
	}, nil
}

// ConfirmedTotals sums confirmed points per user over [start, end).
func (lr *LedgerRepository) ConfirmedTotals(ctx context.Context, start, end time.Time) (map[string]float64, error) {
	query := `
		SELECT user_id, COALESCE(SUM(points_awarded), 0)
		FROM points_ledger
		WHERE status = 'confirmed' AND created_at >= $1 AND created_at < $2
		GROUP BY user_id
	`

	rows, err := lr.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger totals: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			lr.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	totals := make(map[string]float64)

	for rows.Next() {
		var (
			userID string
			sum    float64
		)

		err := rows.Scan(&userID, &sum)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger total: %w", err)
		}

		totals[userID] = sum
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger totals: %w", err)
	}

	return totals, nil
}

func (lr *LedgerRepository) scan(row rowScanner) (*models.LedgerEntry, error) {
	var (
		entry           models.LedgerEntry
		pointableKind   sql.NullString
		pointableID     sql.NullString
		projectID       sql.NullString
		reversesEntryID sql.NullString
		meta            []byte
	)

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&pointableKind,
		&pointableID,
		&entry.PointsAwarded,
		&entry.Description,
		&entry.Status,
		&projectID,
		&reversesEntryID,
		&meta,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if pointableKind.Valid && pointableID.Valid {
		entry.Pointable = &models.PointableRef{
			Kind: models.PointableKind(pointableKind.String),
			ID:   pointableID.String,
		}
	}

	entry.ProjectID = projectID.String
	entry.ReversesEntryID = reversesEntryID.String

	if len(meta) > 0 {
		err = json.Unmarshal(meta, &entry.Meta)
		if err != nil {
			return nil, fmt.Errorf("failed to decode meta for ledger entry %s: %w", entry.ID, err)
		}
	}

	return &entry, nil
}
