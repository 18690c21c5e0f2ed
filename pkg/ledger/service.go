// Package ledger manages the append-only points ledger: awards, reversals,
// and period-scoped queries.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence"
	"github.com/hubflow/hubflow/pkg/services"
)

type Service struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

func NewService(persistence persistence.Persistence, logger *slog.Logger) *Service {
	return &Service{
		persistence: persistence,
		logger:      logger.With("module", "ledger"),
	}
}

// AwardRequest describes one points award. Status defaults to confirmed.
type AwardRequest struct {
	UserID      string
	Points      float64
	Description string
	Pointable   *models.PointableRef
	ProjectID   string
	Status      models.LedgerStatus
	Meta        map[string]any
}

// Award appends a new ledger entry. The ledger is append-only, so the entry
// is immutable once written.
func (s *Service) Award(ctx context.Context, req AwardRequest) (*models.LedgerEntry, error) {
	if req.UserID == "" {
		return nil, services.ErrUserIDRequired
	}

	if req.Points == 0 {
		return nil, services.ErrPointsRequired
	}

	status := req.Status
	if status == "" {
		status = models.LedgerStatusConfirmed
	}

	entry := &models.LedgerEntry{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		Pointable:     req.Pointable,
		PointsAwarded: req.Points,
		Description:   req.Description,
		Status:        status,
		ProjectID:     req.ProjectID,
		Meta:          req.Meta,
		CreatedAt:     time.Now().UTC(),
	}

	err := s.persistence.LedgerRepository().Append(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	s.logger.Info("Points awarded",
		"entry_id", entry.ID,
		"user_id", entry.UserID,
		"points", entry.PointsAwarded,
		"status", entry.Status)

	return entry, nil
}

// Reverse appends a new entry with the original's points negated and status
// reversed, referencing the same pointable target. The original entry is
// never altered, so the audit trail stays intact.
func (s *Service) Reverse(ctx context.Context, entryID string) (*models.LedgerEntry, error) {
	original, err := s.persistence.LedgerRepository().EntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if original.Status == models.LedgerStatusReversed {
		return nil, services.ErrCannotReverseReversal
	}

	reversal := &models.LedgerEntry{
		ID:              uuid.New().String(),
		UserID:          original.UserID,
		Pointable:       original.Pointable,
		PointsAwarded:   -original.PointsAwarded,
		Description:     "Reversal: " + original.Description,
		Status:          models.LedgerStatusReversed,
		ProjectID:       original.ProjectID,
		ReversesEntryID: original.ID,
		Meta:            original.Meta,
		CreatedAt:       time.Now().UTC(),
	}

	err = s.persistence.LedgerRepository().Append(ctx, reversal)
	if err != nil {
		return nil, fmt.Errorf("failed to append reversal entry: %w", err)
	}

	s.logger.Info("Ledger entry reversed",
		"entry_id", reversal.ID,
		"reverses_entry_id", original.ID,
		"user_id", original.UserID,
		"points", reversal.PointsAwarded)

	return reversal, nil
}

// EntriesRequest queries a user's ledger for one month. Zero Year/Month
// default to the current period in the user's time zone.
type EntriesRequest struct {
	UserID        string
	Year          int
	Month         int
	ProjectID     string
	PointableKind models.PointableKind
	Status        models.LedgerStatus
	Page          int
	PerPage       int
}

// Entries returns one page of a user's ledger entries for the requested
// month. The month window is computed in the user's configured time zone and
// converted to UTC, so entries near month edges land in the right period.
func (s *Service) Entries(ctx context.Context, req EntriesRequest) (*persistence.LedgerPage, error) {
	if req.UserID == "" {
		return nil, services.ErrUserIDRequired
	}

	loc, err := s.userLocation(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	year, month := req.Year, req.Month
	if year == 0 || month == 0 {
		now := time.Now().In(loc)
		year, month = now.Year(), int(now.Month())
	}

	start, end, err := MonthWindow(year, month, loc)
	if err != nil {
		return nil, err
	}

	// Period queries default to confirmed entries.
	status := req.Status
	if status == "" {
		status = models.LedgerStatusConfirmed
	}

	page, err := s.persistence.LedgerRepository().Entries(ctx, persistence.LedgerFilter{
		UserID:        req.UserID,
		Start:         start,
		End:           end,
		ProjectID:     req.ProjectID,
		PointableKind: req.PointableKind,
		Status:        status,
		Page:          req.Page,
		PerPage:       req.PerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}

	return page, nil
}

// ConfirmedTotal computes a user's confirmed points for one month, always by
// direct aggregation over the ledger so recomputation is idempotent.
func (s *Service) ConfirmedTotal(ctx context.Context, userID string, year, month int) (*models.MonthlyPointsSnapshot, error) {
	if userID == "" {
		return nil, services.ErrUserIDRequired
	}

	loc, err := s.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}

	start, end, err := MonthWindow(year, month, loc)
	if err != nil {
		return nil, err
	}

	totals, err := s.persistence.LedgerRepository().ConfirmedTotals(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate confirmed totals: %w", err)
	}

	return &models.MonthlyPointsSnapshot{
		UserID:      userID,
		Year:        year,
		Month:       month,
		TotalPoints: totals[userID],
	}, nil
}

func (s *Service) userLocation(ctx context.Context, userID string) (*time.Location, error) {
	user, err := s.persistence.UserRepository().UserByID(ctx, userID)
	if err != nil {
		if persistence.IsUserNotFound(err) {
			return time.UTC, nil
		}

		return nil, err
	}

	return user.Location(), nil
}

// MonthWindow computes the half-open [start, end) UTC window covering one
// calendar month in the given location. The boundary conversion is exact:
// an entry written at 23:30 local on the last day of the month stays in that
// month even when UTC has already rolled over.
func MonthWindow(year, month int, loc *time.Location) (start, end time.Time, err error) {
	if year < 1 || month < 1 || month > 12 {
		return time.Time{}, time.Time{}, services.ErrInvalidPeriod
	}

	if loc == nil {
		loc = time.UTC
	}

	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end = start.AddDate(0, 1, 0)

	return start.UTC(), end.UTC(), nil
}
