package ledger

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence/file"
)

func newTestService(t *testing.T) (*Service, *file.Persistence) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	service := NewService(persistence, slog.Default())

	return service, persistence
}

func saveUser(t *testing.T, p *file.Persistence, id, timezone string) {
	t.Helper()

	err := p.UserRepository().Save(t.Context(), &models.User{
		ID:       id,
		Name:     "User " + id,
		UserType: models.UserTypeEmployee,
		Timezone: timezone,
		Active:   true,
	})
	require.NoError(t, err)
}

func TestService_Award_DefaultsToConfirmed(t *testing.T) {
	service, _ := newTestService(t)

	entry, err := service.Award(t.Context(), AwardRequest{
		UserID:      "user-1",
		Points:      10,
		Description: "Completed task",
		Pointable:   &models.PointableRef{Kind: models.PointableTask, ID: "42"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, models.LedgerStatusConfirmed, entry.Status)
	assert.InEpsilon(t, 10.0, entry.PointsAwarded, 1e-9)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestService_Award_Validation(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Award(t.Context(), AwardRequest{Points: 10, Description: "no user"})
	assert.Error(t, err)

	_, err = service.Award(t.Context(), AwardRequest{UserID: "user-1", Description: "no points"})
	assert.Error(t, err)
}

func TestService_Reverse_AppendsNegatedEntry(t *testing.T) {
	service, persistence := newTestService(t)

	original, err := service.Award(t.Context(), AwardRequest{
		UserID:      "user-1",
		Points:      10,
		Description: "Completed task",
		Pointable:   &models.PointableRef{Kind: models.PointableTask, ID: "42"},
		ProjectID:   "project-1",
	})
	require.NoError(t, err)

	reversal, err := service.Reverse(t.Context(), original.ID)
	require.NoError(t, err)

	assert.NotEqual(t, original.ID, reversal.ID)
	assert.InEpsilon(t, -10.0, reversal.PointsAwarded, 1e-9)
	assert.Equal(t, models.LedgerStatusReversed, reversal.Status)
	assert.Equal(t, original.ID, reversal.ReversesEntryID)
	assert.Equal(t, original.UserID, reversal.UserID)
	require.NotNil(t, reversal.Pointable)
	assert.Equal(t, original.Pointable.ID, reversal.Pointable.ID)

	// Net sum for the pointable is zero.
	assert.InDelta(t, 0.0, original.PointsAwarded+reversal.PointsAwarded, 1e-9)

	// The original entry is untouched.
	stored, err := persistence.LedgerRepository().EntryByID(t.Context(), original.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LedgerStatusConfirmed, stored.Status)
	assert.InEpsilon(t, 10.0, stored.PointsAwarded, 1e-9)
}

func TestService_Reverse_RejectsReversalOfReversal(t *testing.T) {
	service, _ := newTestService(t)

	original, err := service.Award(t.Context(), AwardRequest{
		UserID:      "user-1",
		Points:      5,
		Description: "Kudo",
	})
	require.NoError(t, err)

	reversal, err := service.Reverse(t.Context(), original.ID)
	require.NoError(t, err)

	_, err = service.Reverse(t.Context(), reversal.ID)
	assert.Error(t, err)
}

func TestService_Reverse_NotFound(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Reverse(t.Context(), "missing")
	assert.Error(t, err)
}

func TestMonthWindow_UTC(t *testing.T) {
	start, end, err := MonthWindow(2026, 3, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestMonthWindow_ConvertsUserZoneExactly(t *testing.T) {
	saoPaulo, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	start, end, err := MonthWindow(2026, 3, saoPaulo)
	require.NoError(t, err)

	// Midnight March 1st in Sao Paulo (UTC-3) is 03:00 UTC.
	assert.Equal(t, time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC), end)
}

func TestMonthWindow_InvalidPeriod(t *testing.T) {
	_, _, err := MonthWindow(2026, 13, time.UTC)
	assert.Error(t, err)

	_, _, err = MonthWindow(0, 1, time.UTC)
	assert.Error(t, err)
}

func TestService_Entries_MonthBoundaryInUserZone(t *testing.T) {
	service, persistence := newTestService(t)

	saveUser(t, persistence, "user-1", "America/Sao_Paulo")

	// 01:00 UTC on April 1st is still 22:00 March 31st in Sao Paulo.
	edge := &models.LedgerEntry{
		ID:            "entry-edge",
		UserID:        "user-1",
		PointsAwarded: 7,
		Description:   "Late night points",
		Status:        models.LedgerStatusConfirmed,
		CreatedAt:     time.Date(2026, 4, 1, 1, 0, 0, 0, time.UTC),
	}
	require.NoError(t, persistence.LedgerRepository().Append(t.Context(), edge))

	marchPage, err := service.Entries(t.Context(), EntriesRequest{
		UserID: "user-1",
		Year:   2026,
		Month:  3,
	})
	require.NoError(t, err)
	require.Len(t, marchPage.Entries, 1)
	assert.Equal(t, "entry-edge", marchPage.Entries[0].ID)

	aprilPage, err := service.Entries(t.Context(), EntriesRequest{
		UserID: "user-1",
		Year:   2026,
		Month:  4,
	})
	require.NoError(t, err)
	assert.Empty(t, aprilPage.Entries)
}

func TestService_Entries_FiltersByStatus(t *testing.T) {
	service, persistence := newTestService(t)

	saveUser(t, persistence, "user-1", "UTC")

	now := time.Now().UTC()

	for i, status := range []models.LedgerStatus{
		models.LedgerStatusConfirmed,
		models.LedgerStatusPending,
	} {
		require.NoError(t, persistence.LedgerRepository().Append(t.Context(), &models.LedgerEntry{
			ID:            "entry-" + string(status),
			UserID:        "user-1",
			PointsAwarded: float64(i + 1),
			Description:   "Entry",
			Status:        status,
			CreatedAt:     now,
		}))
	}

	page, err := service.Entries(t.Context(), EntriesRequest{
		UserID: "user-1",
		Year:   now.Year(),
		Month:  int(now.Month()),
		Status: models.LedgerStatusConfirmed,
	})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, models.LedgerStatusConfirmed, page.Entries[0].Status)
}

func TestService_ConfirmedTotal_MatchesDirectAggregation(t *testing.T) {
	service, persistence := newTestService(t)

	saveUser(t, persistence, "user-1", "UTC")

	created := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	entries := []*models.LedgerEntry{
		{ID: "e1", UserID: "user-1", PointsAwarded: 10, Description: "a", Status: models.LedgerStatusConfirmed, CreatedAt: created},
		{ID: "e2", UserID: "user-1", PointsAwarded: 5, Description: "b", Status: models.LedgerStatusConfirmed, CreatedAt: created},
		{ID: "e3", UserID: "user-1", PointsAwarded: 3, Description: "c", Status: models.LedgerStatusPending, CreatedAt: created},
	}
	for _, entry := range entries {
		require.NoError(t, persistence.LedgerRepository().Append(t.Context(), entry))
	}

	snapshot, err := service.ConfirmedTotal(t.Context(), "user-1", 2026, 3)
	require.NoError(t, err)
	assert.InEpsilon(t, 15.0, snapshot.TotalPoints, 1e-9)

	// Recomputation is idempotent.
	again, err := service.ConfirmedTotal(t.Context(), "user-1", 2026, 3)
	require.NoError(t, err)
	assert.InEpsilon(t, snapshot.TotalPoints, again.TotalPoints, 1e-9)
}
