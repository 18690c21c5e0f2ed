package models

import "time"

// LedgerStatus is the lifecycle state of a points ledger entry.
type LedgerStatus string

const (
	LedgerStatusPending   LedgerStatus = "pending"
	LedgerStatusConfirmed LedgerStatus = "confirmed"
	LedgerStatusReversed  LedgerStatus = "reversed"
)

// LedgerEntry is an immutable record of points awarded (or reversed) for a
// user. The ledger is the append-only source of truth: a reversal is a new
// entry with the opposite sign and status reversed, never an in-place edit.
type LedgerEntry struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id" validate:"required"`
	Pointable       *PointableRef  `json:"pointable,omitempty"`
	PointsAwarded   float64        `json:"points_awarded"`
	Description     string         `json:"description" validate:"required"`
	Status          LedgerStatus   `json:"status"`
	ProjectID       string         `json:"project_id,omitempty"`
	ReversesEntryID string         `json:"reverses_entry_id,omitempty"`
	Meta            map[string]any `json:"meta,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// MonthlyPointsSnapshot is the derived per-user total for one period. It must
// always equal the sum of confirmed ledger entries within the month window;
// recomputation is idempotent.
type MonthlyPointsSnapshot struct {
	UserID      string  `json:"user_id"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	TotalPoints float64 `json:"total_points"`
}
