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

// WorkflowRepository handles workflow-related file operations. It maintains
// an in-memory trigger_event index, rebuilt on every mutation, so dispatch
// lookups are direct rather than a scan.
type WorkflowRepository struct {
	root string

	mu           sync.RWMutex
	triggerIndex map[string][]string // trigger_event -> active workflow ids
	indexed      bool
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{
		root:         root,
		triggerIndex: make(map[string][]string),
	}
}

func (wr *WorkflowRepository) dir() string {
	return filepath.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) path(id string) string {
	return filepath.Join(wr.dir(), id+".json")
}

// Workflows returns all non-deleted workflows sorted by creation time.
func (wr *WorkflowRepository) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	all, err := wr.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(all))

	for _, workflow := range all {
		if workflow.DeletedAt == nil {
			workflows = append(workflows, workflow)
		}
	}

	sort.Slice(workflows, func(i, j int) bool {
		if workflows[i].CreatedAt.Equal(workflows[j].CreatedAt) {
			return workflows[i].ID < workflows[j].ID
		}

		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

// WorkflowByID returns a workflow by id, including soft-deleted ones so
// execution log history stays resolvable.
func (wr *WorkflowRepository) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	data, err := os.ReadFile(wr.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to read workflow file %s: %w", id, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(data, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
	}

	return &workflow, nil
}

// ActiveByTriggerEvent returns the active workflows registered for the exact
// trigger event name, via the maintained index.
func (wr *WorkflowRepository) ActiveByTriggerEvent(ctx context.Context, triggerEvent string) ([]*models.Workflow, error) {
	err := wr.ensureIndex(ctx)
	if err != nil {
		return nil, err
	}

	wr.mu.RLock()
	ids := append([]string(nil), wr.triggerIndex[triggerEvent]...)
	wr.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := wr.WorkflowByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if workflow.Runnable() {
			workflows = append(workflows, workflow)
		}
	}

	return workflows, nil
}

// Save writes the workflow and rebuilds the trigger index.
func (wr *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = time.Now().UTC()
	}

	workflow.UpdatedAt = time.Now().UTC()

	err := os.MkdirAll(wr.dir(), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode workflow %s: %w", workflow.ID, err)
	}

	err = os.WriteFile(wr.path(workflow.ID), data, 0o644)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return wr.rebuildIndex(ctx)
}

// Delete soft-deletes the workflow and rebuilds the trigger index.
func (wr *WorkflowRepository) Delete(ctx context.Context, id string) error {
	workflow, err := wr.WorkflowByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	workflow.DeletedAt = &now
	workflow.IsActive = false

	return wr.Save(ctx, workflow)
}

func (wr *WorkflowRepository) loadAll(ctx context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(wr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflowID := file[:len(file)-5] // trim .json

		workflow, err := wr.WorkflowByID(ctx, workflowID)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (wr *WorkflowRepository) ensureIndex(ctx context.Context) error {
	wr.mu.RLock()
	indexed := wr.indexed
	wr.mu.RUnlock()

	if indexed {
		return nil
	}

	return wr.rebuildIndex(ctx)
}

func (wr *WorkflowRepository) rebuildIndex(ctx context.Context) error {
	all, err := wr.loadAll(ctx)
	if err != nil {
		return err
	}

	index := make(map[string][]string)

	for _, workflow := range all {
		if workflow.Runnable() {
			index[workflow.TriggerEvent] = append(index[workflow.TriggerEvent], workflow.ID)
		}
	}

	for _, ids := range index {
		sort.Strings(ids)
	}

	wr.mu.Lock()
	wr.triggerIndex = index
	wr.indexed = true
	wr.mu.Unlock()

	return nil
}
