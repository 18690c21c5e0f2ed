package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence"
)

// LedgerRepository stores points ledger entries as JSON files. The ledger is
// append-only: entries are written once and never rewritten.
type LedgerRepository struct {
	root string
	mu   sync.Mutex
}

// NewLedgerRepository creates a new ledger repository.
func NewLedgerRepository(root string) *LedgerRepository {
	return &LedgerRepository{root: root}
}

func (lr *LedgerRepository) dir() string {
	return filepath.Join(lr.root, "ledger")
}

// Append writes a new ledger entry. Existing entries are never overwritten.
func (lr *LedgerRepository) Append(_ context.Context, entry *models.LedgerEntry) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	err := os.MkdirAll(lr.dir(), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	path := filepath.Join(lr.dir(), entry.ID+".json")

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("ledger entry %s already exists", entry.ID)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger entry %s: %w", entry.ID, err)
	}

	return os.WriteFile(path, data, 0o644)
}

// EntryByID returns a single ledger entry.
func (lr *LedgerRepository) EntryByID(_ context.Context, id string) (*models.LedgerEntry, error) {
	data, err := os.ReadFile(filepath.Join(lr.dir(), id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &persistence.LedgerError{Op: "EntryByID", EntryID: id, Err: persistence.ErrLedgerEntryNotFound}
		}

		return nil, fmt.Errorf("failed to read ledger entry %s: %w", id, err)
	}

	var entry models.LedgerEntry

	err = json.Unmarshal(data, &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ledger entry %s: %w", id, err)
	}

	return &entry, nil
}

// Entries returns one page of entries matching the filter, newest first.
func (lr *LedgerRepository) Entries(ctx context.Context, filter persistence.LedgerFilter) (*persistence.LedgerPage, error) {
	all, err := lr.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.LedgerEntry, 0)

	for _, entry := range all {
		if filter.UserID != "" && entry.UserID != filter.UserID {
			continue
		}

		if !filter.Start.IsZero() && entry.CreatedAt.Before(filter.Start) {
			continue
		}

		if !filter.End.IsZero() && !entry.CreatedAt.Before(filter.End) {
			continue
		}

		if filter.ProjectID != "" && entry.ProjectID != filter.ProjectID {
			continue
		}

		if filter.PointableKind != "" && (entry.Pointable == nil || entry.Pointable.Kind != filter.PointableKind) {
			continue
		}

		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}

		matched = append(matched, entry)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}

		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := filter.Page
	if page < 1 {
		page = 1
	}

	perPage := filter.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	total := int64(len(matched))
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))

	start := (page - 1) * perPage
	if start > len(matched) {
		start = len(matched)
	}

	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}

	return &persistence.LedgerPage{
		Entries:    matched[start:end],
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// ConfirmedTotals sums confirmed points per user over [start, end).
func (lr *LedgerRepository) ConfirmedTotals(ctx context.Context, start, end time.Time) (map[string]float64, error) {
	all, err := lr.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64)

	for _, entry := range all {
		if entry.Status != models.LedgerStatusConfirmed {
			continue
		}

		if entry.CreatedAt.Before(start) || !entry.CreatedAt.Before(end) {
			continue
		}

		totals[entry.UserID] += entry.PointsAwarded
	}

	return totals, nil
}

func (lr *LedgerRepository) loadAll(ctx context.Context) ([]*models.LedgerEntry, error) {
	root := os.DirFS(lr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger files: %w", err)
	}

	entries := make([]*models.LedgerEntry, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		entryID := file[:len(file)-5]

		entry, err := lr.EntryByID(ctx, entryID)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
