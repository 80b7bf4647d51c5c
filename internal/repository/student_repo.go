package repository

import (
	"context"
	"database/sql"
	"fmt"

	"shikshaleap/internal/database"
	"shikshaleap/internal/models"
)

// StudentRepository handles database operations for student profiles
type StudentRepository struct {
	db database.DBTX
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db database.DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *StudentRepository) WithTx(tx database.DBTX) *StudentRepository {
	return &StudentRepository{db: tx}
}

// CreateStudent inserts a student profile and sets its ID.
// A second profile for the same user fails with a unique violation.
func (r *StudentRepository) CreateStudent(ctx context.Context, s *models.StudentProfile) error {
	query := `
		INSERT INTO students (user_id, first_name, last_name, dob, grade, school_name, district, state, udise_code, medium, board, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		s.UserID, s.FirstName, s.LastName, s.DOB, s.Grade, s.SchoolName,
		s.District, s.State, s.UdiseCode, s.Medium, s.Board, s.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	s.ID = id
	return nil
}

// GetStudentByUserID retrieves the profile owned by a user
func (r *StudentRepository) GetStudentByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error) {
	query := `
		SELECT id, user_id, first_name, last_name, dob, grade, school_name, district, state, udise_code, medium, board, created_at
		FROM students
		WHERE user_id = ?
	`
	s := &models.StudentProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.ID,
		&s.UserID,
		&s.FirstName,
		&s.LastName,
		&s.DOB,
		&s.Grade,
		&s.SchoolName,
		&s.District,
		&s.State,
		&s.UdiseCode,
		&s.Medium,
		&s.Board,
		&s.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	return s, nil
}
