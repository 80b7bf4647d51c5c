package repository

import (
	"context"
	"fmt"

	"shikshaleap/internal/database"
	"shikshaleap/internal/models"
)

// GameLogRepository handles database operations for game and quiz attempts
type GameLogRepository struct {
	db database.DBTX
}

// NewGameLogRepository creates a new game log repository
func NewGameLogRepository(db database.DBTX) *GameLogRepository {
	return &GameLogRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GameLogRepository) WithTx(tx database.DBTX) *GameLogRepository {
	return &GameLogRepository{db: tx}
}

// CreateGameLog records an attempt and sets its ID
func (r *GameLogRepository) CreateGameLog(ctx context.Context, g *models.GameLogEntry) error {
	query := `
		INSERT INTO game_logs (student_id, subject, grade, game_id, game_type, level, score, max_score, time_spent, played_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		g.StudentID, g.Subject, g.Grade, g.GameID, g.GameType, g.Level,
		g.Score, g.MaxScore, g.TimeSpent, g.PlayedAt.UTC(), g.Synced)
	if err != nil {
		return fmt.Errorf("failed to create game log: %w", err)
	}
	g.ID = id
	return nil
}

// CountGameLogs counts a student's attempts of the given type
func (r *GameLogRepository) CountGameLogs(ctx context.Context, studentID int64, gameType string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM game_logs WHERE student_id = ? AND game_type = ?", studentID, gameType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count game logs: %w", err)
	}
	return count, nil
}

// GetRecentGameLogs returns a student's latest attempts, newest first
func (r *GameLogRepository) GetRecentGameLogs(ctx context.Context, studentID int64, limit int) ([]models.GameLogEntry, error) {
	query := `
		SELECT id, student_id, subject, grade, game_id, game_type, level, score, max_score, time_spent, played_at, synced
		FROM game_logs
		WHERE student_id = ?
		ORDER BY played_at DESC, id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get game logs: %w", err)
	}
	defer rows.Close()

	logs := []models.GameLogEntry{}
	for rows.Next() {
		var g models.GameLogEntry
		err := rows.Scan(&g.ID, &g.StudentID, &g.Subject, &g.Grade, &g.GameID, &g.GameType,
			&g.Level, &g.Score, &g.MaxScore, &g.TimeSpent, &g.PlayedAt, &g.Synced)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game log: %w", err)
		}
		logs = append(logs, g)
	}

	return logs, rows.Err()
}
