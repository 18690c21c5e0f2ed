package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hubflow/hubflow/pkg/models"
)

// ExecutionLogRepository appends per-step outcome records as JSON files.
// Entries are never rewritten.
type ExecutionLogRepository struct {
	root string
	mu   sync.Mutex
}

// NewExecutionLogRepository creates a new execution log repository.
func NewExecutionLogRepository(root string) *ExecutionLogRepository {
	return &ExecutionLogRepository{root: root}
}

func (er *ExecutionLogRepository) dir() string {
	return filepath.Join(er.root, "execution_logs")
}

// Append writes a new log entry. Appending an entry with an id that already
// exists is rejected to keep the log append-only.
func (er *ExecutionLogRepository) Append(_ context.Context, entry *models.ExecutionLogEntry) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	err := os.MkdirAll(er.dir(), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create execution_logs directory: %w", err)
	}

	path := filepath.Join(er.dir(), entry.ID+".json")

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("execution log entry %s already exists", entry.ID)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode execution log entry %s: %w", entry.ID, err)
	}

	return os.WriteFile(path, data, 0o644)
}

// ByExecution returns the entries of one run ordered by creation time.
func (er *ExecutionLogRepository) ByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLogEntry, error) {
	return er.filter(ctx, func(entry *models.ExecutionLogEntry) bool {
		return entry.ExecutionID == executionID
	})
}

// ByWorkflow returns all entries recorded for a workflow ordered by creation time.
func (er *ExecutionLogRepository) ByWorkflow(ctx context.Context, workflowID string) ([]*models.ExecutionLogEntry, error) {
	return er.filter(ctx, func(entry *models.ExecutionLogEntry) bool {
		return entry.WorkflowID == workflowID
	})
}

func (er *ExecutionLogRepository) filter(_ context.Context, keep func(*models.ExecutionLogEntry) bool) ([]*models.ExecutionLogEntry, error) {
	root := os.DirFS(er.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*models.ExecutionLogEntry{}, nil
		}

		return nil, fmt.Errorf("failed to list execution log files: %w", err)
	}

	entries := make([]*models.ExecutionLogEntry, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		data, err := os.ReadFile(filepath.Join(er.dir(), file))
		if err != nil {
			return nil, fmt.Errorf("failed to read execution log file %s: %w", file, err)
		}

		var entry models.ExecutionLogEntry

		err = json.Unmarshal(data, &entry)
		if err != nil {
			return nil, fmt.Errorf("failed to decode execution log file %s: %w", file, err)
		}

		if keep(&entry) {
			entries = append(entries, &entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}

		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	return entries, nil
}
