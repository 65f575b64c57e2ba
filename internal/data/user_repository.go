package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const userColumns = "id, email, name, password_hash, role, active, created_at"

// UserRepository handles database operations for console users.
type UserRepository struct {
	DB *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// GetByID finds a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByEmail finds a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*User, error) {
	var user User
	if err := r.DB.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Create inserts a user and sets its ID.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	res, err := r.DB.NamedExecContext(ctx, `INSERT INTO users
		(email, name, password_hash, role, active, created_at)
		VALUES (:email, :name, :password_hash, :role, :active, :created_at)`, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	user.ID = id
	return nil
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
