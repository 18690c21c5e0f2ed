// Package leaderboard computes period-scoped point rankings over the ledger.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/hubflow/hubflow/pkg/ledger"
	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence"
)

// Row is one leaderboard position. Every active user gets a row; users with
// no confirmed entries in the period show TotalPoints 0.
type Row struct {
	UserID      string          `json:"id"`
	Name        string          `json:"name"`
	TotalPoints float64         `json:"finalPoints"`
	UserType    models.UserType `json:"userType"`
}

type Aggregator struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

func NewAggregator(persistence persistence.Persistence, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		persistence: persistence,
		logger:      logger.With("module", "leaderboard"),
	}
}

// Monthly ranks all active users by confirmed points in the given calendar
// month (UTC window). Ordering is descending by points; ties keep the
// underlying user order, stable across repeated calls on unchanged data.
func (a *Aggregator) Monthly(ctx context.Context, year, month int) ([]Row, error) {
	start, end, err := ledger.MonthWindow(year, month, time.UTC)
	if err != nil {
		return nil, err
	}

	users, err := a.persistence.UserRepository().Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	totals, err := a.persistence.LedgerRepository().ConfirmedTotals(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate confirmed totals: %w", err)
	}

	rows := make([]Row, 0, len(users))

	for _, user := range users {
		if !user.Active {
			continue
		}

		rows = append(rows, Row{
			UserID:      user.ID,
			Name:        user.Name,
			TotalPoints: totals[user.ID],
			UserType:    user.UserType,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalPoints > rows[j].TotalPoints
	})

	a.logger.Debug("Leaderboard computed", "year", year, "month", month, "rows", len(rows))

	return rows, nil
}
