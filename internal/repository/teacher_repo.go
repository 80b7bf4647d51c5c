package repository

import (
	"context"
	"database/sql"
	"fmt"

	"shikshaleap/internal/database"
	"shikshaleap/internal/models"
)

// TeacherRepository handles database operations for teacher profiles
type TeacherRepository struct {
	db database.DBTX
}

// NewTeacherRepository creates a new teacher repository
func NewTeacherRepository(db database.DBTX) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *TeacherRepository) WithTx(tx database.DBTX) *TeacherRepository {
	return &TeacherRepository{db: tx}
}

// CreateTeacher inserts a teacher profile and sets its ID
func (r *TeacherRepository) CreateTeacher(ctx context.Context, t *models.TeacherProfile) error {
	query := `
		INSERT INTO teachers (user_id, first_name, last_name, dob, qualification, school_name, district, state,
		                      udise_code, medium, subjects_taught, grades_taught, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		t.UserID, t.FirstName, t.LastName, t.DOB, t.Qualification, t.SchoolName, t.District,
		t.State, t.UdiseCode, t.Medium, t.SubjectsTaught, t.GradesTaught, t.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create teacher: %w", err)
	}
	t.ID = id
	return nil
}

// GetTeacherByUserID retrieves the profile owned by a user
func (r *TeacherRepository) GetTeacherByUserID(ctx context.Context, userID int64) (*models.TeacherProfile, error) {
	query := `
		SELECT id, user_id, first_name, last_name, dob, qualification, school_name, district, state,
		       udise_code, medium, subjects_taught, grades_taught, created_at
		FROM teachers
		WHERE user_id = ?
	`
	t := &models.TeacherProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&t.ID,
		&t.UserID,
		&t.FirstName,
		&t.LastName,
		&t.DOB,
		&t.Qualification,
		&t.SchoolName,
		&t.District,
		&t.State,
		&t.UdiseCode,
		&t.Medium,
		&t.SubjectsTaught,
		&t.GradesTaught,
		&t.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}

	return t, nil
}
