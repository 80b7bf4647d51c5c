package repository

import (
	"context"
	"fmt"

	"shikshaleap/internal/database"
	"shikshaleap/internal/models"
)

// AchievementRepository handles database operations for student badges
type AchievementRepository struct {
	db database.DBTX
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db database.DBTX) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *AchievementRepository) WithTx(tx database.DBTX) *AchievementRepository {
	return &AchievementRepository{db: tx}
}

// HasAchievement reports whether the student already holds the badge
func (r *AchievementRepository) HasAchievement(ctx context.Context, studentID int64, badgeName string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM achievements WHERE student_id = ? AND badge_name = ?", studentID, badgeName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check achievement: %w", err)
	}
	return count > 0, nil
}

// CreateAchievement awards a badge and sets its ID
func (r *AchievementRepository) CreateAchievement(ctx context.Context, a *models.Achievement) error {
	query := `
		INSERT INTO achievements (student_id, badge_name, badge_type, description, icon_path, awarded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		a.StudentID, a.BadgeName, a.BadgeType, a.Description, a.IconPath, a.AwardedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create achievement: %w", err)
	}
	a.ID = id
	return nil
}

// GetAchievementsByStudent lists a student's badges, most recent first
func (r *AchievementRepository) GetAchievementsByStudent(ctx context.Context, studentID int64) ([]models.Achievement, error) {
	query := `
		SELECT id, student_id, badge_name, badge_type, description, icon_path, awarded_at
		FROM achievements
		WHERE student_id = ?
		ORDER BY awarded_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}
	defer rows.Close()

	achievements := []models.Achievement{}
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.StudentID, &a.BadgeName, &a.BadgeType, &a.Description, &a.IconPath, &a.AwardedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, a)
	}

	return achievements, rows.Err()
}
