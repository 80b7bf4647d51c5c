package repository

import (
	"context"
	"fmt"

	"shikshaleap/internal/database"
	"shikshaleap/internal/models"
)

// ProgressRepository handles database operations for per-topic mastery
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ProgressRepository) WithTx(tx database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: tx}
}

// UpsertProgress inserts the record, or folds its mastery level into the
// existing row for the same student, subject, grade and topic.
func (r *ProgressRepository) UpsertProgress(ctx context.Context, p models.ProgressRecord) error {
	_, err := r.db.ExecContext(ctx, r.db.GetDialect().UpsertProgressQuery(),
		p.StudentID, p.Subject, p.Grade, p.Topic, p.MasteryLevel, p.LastActivity.UTC(), p.TotalTimeSpent)
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	return nil
}

// GetProgressByStudent lists a student's progress ordered by subject and topic
func (r *ProgressRepository) GetProgressByStudent(ctx context.Context, studentID int64) ([]models.ProgressRecord, error) {
	query := `
		SELECT student_id, subject, grade, topic, mastery_level, last_activity, total_time_spent
		FROM student_progress
		WHERE student_id = ?
		ORDER BY subject, topic
	`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	defer rows.Close()

	records := []models.ProgressRecord{}
	for rows.Next() {
		var p models.ProgressRecord
		if err := rows.Scan(&p.StudentID, &p.Subject, &p.Grade, &p.Topic, &p.MasteryLevel, &p.LastActivity, &p.TotalTimeSpent); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		records = append(records, p)
	}

	return records, rows.Err()
}
