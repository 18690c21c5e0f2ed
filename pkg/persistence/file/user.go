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

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence"
)

// UserRepository stores users as JSON files.
type UserRepository struct {
	root string
	mu   sync.Mutex
}

// NewUserRepository creates a new user repository.
func NewUserRepository(root string) *UserRepository {
	return &UserRepository{root: root}
}

func (ur *UserRepository) dir() string {
	return filepath.Join(ur.root, "users")
}

// Users returns all users sorted by id for a stable iteration order.
func (ur *UserRepository) Users(ctx context.Context) ([]*models.User, error) {
	root := os.DirFS(ur.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list user files: %w", err)
	}

	users := make([]*models.User, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		user, err := ur.UserByID(ctx, file[:len(file)-5])
		if err != nil {
			return nil, err
		}

		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})

	return users, nil
}

// UserByID returns a single user.
func (ur *UserRepository) UserByID(_ context.Context, id string) (*models.User, error) {
	data, err := os.ReadFile(filepath.Join(ur.dir(), id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("user %s: %w", id, persistence.ErrUserNotFound)
		}

		return nil, fmt.Errorf("failed to read user %s: %w", id, err)
	}

	var user models.User

	err = json.Unmarshal(data, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}

	return &user, nil
}

// Save writes the user record.
func (ur *UserRepository) Save(_ context.Context, user *models.User) error {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	err := os.MkdirAll(ur.dir(), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create users directory: %w", err)
	}

	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user %s: %w", user.ID, err)
	}

	return os.WriteFile(filepath.Join(ur.dir(), user.ID+".json"), data, 0o644)
}
