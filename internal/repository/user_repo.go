package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shikshaleap/internal/database"
	"shikshaleap/internal/models"
)

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *UserRepository) WithTx(tx database.DBTX) *UserRepository {
	return &UserRepository{db: tx}
}

const userColumns = `id, email, mobile, role, is_active, created_at, updated_at`

// CreateUser inserts a new account keyed by the contact's email or mobile column
func (r *UserRepository) CreateUser(ctx context.Context, contact models.Contact, role models.Role, now time.Time) (*models.User, error) {
	var email, mobile sql.NullString
	if contact.IsEmail() {
		email = sql.NullString{String: contact.Value, Valid: true}
	} else {
		mobile = sql.NullString{String: contact.Value, Valid: true}
	}

	query := `
		INSERT INTO users (email, mobile, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, email, mobile, string(role), true, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{
		ID:        id,
		Email:     email.String,
		Mobile:    mobile.String,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetUserByContact retrieves the user whose email or mobile equals contact
func (r *UserRepository) GetUserByContact(ctx context.Context, contact string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? OR mobile = ? ORDER BY id LIMIT 1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, contact, contact))
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// UpdateRole moves a user from one role to another. It reports false when
// the stored role no longer matches from.
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, from, to models.Role, now time.Time) (bool, error) {
	query := `UPDATE users SET role = ?, updated_at = ? WHERE id = ? AND role = ?`
	result, err := r.db.ExecContext(ctx, query, string(to), now, id, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update user role: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update user role: %w", err)
	}
	return rows == 1, nil
}

// SetActive enables or disables an account. It reports false when no user has that id.
func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool, now time.Time) (bool, error) {
	query := `UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, active, now, id)
	if err != nil {
		return false, fmt.Errorf("failed to update user status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update user status: %w", err)
	}
	return rows == 1, nil
}

// CountUsers returns the number of accounts
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var email, mobile sql.NullString
	var role string
	err := row.Scan(
		&user.ID,
		&email,
		&mobile,
		&role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Email = email.String
	user.Mobile = mobile.String
	user.Role = models.Role(role)
	return user, nil
}
