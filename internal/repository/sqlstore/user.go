package sqlstore

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-dashboard/internal/model"
	"github.com/jwalitptl/clinic-dashboard/internal/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

type UserRepository struct {
	BaseRepository
}

const userColumns = `user_id, name, email, password_hash, COALESCE(created_at, '') AS created_at`

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.get(ctx, "user.get", &user, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", notFoundOr(err, "user"))
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.get(ctx, "user.get_by_email", &user, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", notFoundOr(err, "user"))
	}
	return &user, nil
}

// List returns users ordered by id, used for the patient picker.
func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	if err := r.selectAll(ctx, "user.list", &users, `SELECT `+userColumns+` FROM users ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING user_id
	`
	err := r.get(ctx, "user.create", &user.ID, query, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdatePassword sets the hash for email and returns the rows changed.
func (r *UserRepository) UpdatePassword(ctx context.Context, email, hash string) (int64, error) {
	n, err := r.exec(ctx, "user.update_password", `UPDATE users SET password_hash = ? WHERE email = ?`, hash, email)
	if err != nil {
		return 0, fmt.Errorf("failed to update password: %w", err)
	}
	return n, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "users")
}
