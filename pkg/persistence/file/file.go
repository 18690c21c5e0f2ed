// Package file provides file-based persistence used by tests and local development.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/hubflow/hubflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface on the file
// system: one JSON document per record, grouped in per-collection
// directories under the root.
type Persistence struct {
	root         string
	workflowRepo *WorkflowRepository
	execLogRepo  *ExecutionLogRepository
	ledgerRepo   *LedgerRepository
	userRepo     *UserRepository
}

// NewPersistence creates a new instance of Persistence rooted at the given
// directory. Accepts a plain path or a file:// URL.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		workflowRepo: NewWorkflowRepository(cleanRoot),
		execLogRepo:  NewExecutionLogRepository(cleanRoot),
		ledgerRepo:   NewLedgerRepository(cleanRoot),
		userRepo:     NewUserRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) ExecutionLogRepository() persistence.ExecutionLogRepository {
	return fp.execLogRepo
}

func (fp *Persistence) LedgerRepository() persistence.LedgerRepository {
	return fp.ledgerRepo
}

func (fp *Persistence) UserRepository() persistence.UserRepository {
	return fp.userRepo
}
