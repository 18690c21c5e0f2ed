package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hubflow/hubflow/pkg/models"
	"github.com/hubflow/hubflow/pkg/persistence"
)

// UserRepository handles user-related database operations.
type UserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sql.DB, logger *slog.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// Users returns all users ordered by id for a stable iteration order.
func (ur *UserRepository) Users(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, name, user_type, timezone, active FROM users ORDER BY id`

	rows, err := ur.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			ur.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var users []*models.User

	for rows.Next() {
		var user models.User

		err := rows.Scan(&user.ID, &user.Name, &user.UserType, &user.Timezone, &user.Active)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// UserByID returns a single user.
func (ur *UserRepository) UserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, name, user_type, timezone, active FROM users WHERE id = $1`

	var user models.User

	err := ur.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.UserType, &user.Timezone, &user.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, persistence.ErrUserNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user %s: %w", id, err)
	}

	return &user, nil
}

// Save inserts or updates the user record.
func (ur *UserRepository) Save(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, user_type, timezone, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			user_type = EXCLUDED.user_type,
			timezone = EXCLUDED.timezone,
			active = EXCLUDED.active
	`

	_, err := ur.db.ExecContext(ctx, query, user.ID, user.Name, user.UserType, user.Timezone, user.Active)
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}

	return nil
}
