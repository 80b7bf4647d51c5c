package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"shikshaleap/internal/database"
	"shikshaleap/internal/models"
)

// DashboardRepository aggregates attempts for teacher dashboards
type DashboardRepository struct {
	db database.DBTX
}

// NewDashboardRepository creates a new dashboard repository
func NewDashboardRepository(db database.DBTX) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// percentageExpr yields NULL for attempts with a zero max score, which AVG skips
const percentageExpr = `gl.score * 100.0 / NULLIF(gl.max_score, 0)`

// studentScope builds the WHERE clause selecting students of a school plus optional filters
func studentScope(udiseCode string, filter models.DashboardFilter) (string, []interface{}) {
	conditions := []string{"s.udise_code = ?"}
	args := []interface{}{udiseCode}

	if filter.Grade != 0 {
		conditions = append(conditions, "s.grade = ?")
		args = append(args, filter.Grade)
	}
	if filter.School != "" {
		conditions = append(conditions, "s.school_name = ?")
		args = append(args, filter.School)
	}
	if filter.District != "" {
		conditions = append(conditions, "s.district = ?")
		args = append(args, filter.District)
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// GetStudentRollups summarizes each student in scope, including students without attempts
func (r *DashboardRepository) GetStudentRollups(ctx context.Context, udiseCode string, filter models.DashboardFilter) ([]models.StudentRollup, error) {
	where, args := studentScope(udiseCode, filter)
	query := `
		SELECT s.id, s.first_name, s.last_name, s.grade, s.school_name, s.district,
		       COUNT(gl.id), AVG(` + percentageExpr + `), MAX(gl.played_at)
		FROM students s
		LEFT JOIN game_logs gl ON gl.student_id = s.id
		` + where + `
		GROUP BY s.id, s.first_name, s.last_name, s.grade, s.school_name, s.district
		ORDER BY s.grade, s.first_name, s.last_name, s.id
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get student rollups: %w", err)
	}
	defer rows.Close()

	rollups := []models.StudentRollup{}
	for rows.Next() {
		var s models.StudentRollup
		var avg sql.NullFloat64
		var last database.NullTime
		err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Grade, &s.SchoolName, &s.District,
			&s.TotalGames, &avg, &last)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student rollup: %w", err)
		}
		if avg.Valid {
			v := avg.Float64
			s.AveragePercentage = &v
		}
		s.LastActivity = last.Ptr()
		rollups = append(rollups, s)
	}

	return rollups, rows.Err()
}

// GetSubjectRollups summarizes attempts per subject across the students in scope
func (r *DashboardRepository) GetSubjectRollups(ctx context.Context, udiseCode string, filter models.DashboardFilter) ([]models.SubjectRollup, error) {
	where, args := studentScope(udiseCode, filter)
	query := `
		SELECT gl.subject, AVG(` + percentageExpr + `), COUNT(gl.id)
		FROM game_logs gl
		JOIN students s ON s.id = gl.student_id
		` + where + `
		GROUP BY gl.subject
		ORDER BY gl.subject
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get subject rollups: %w", err)
	}
	defer rows.Close()

	rollups := []models.SubjectRollup{}
	for rows.Next() {
		var s models.SubjectRollup
		var avg sql.NullFloat64
		if err := rows.Scan(&s.Subject, &avg, &s.TotalAttempts); err != nil {
			return nil, fmt.Errorf("failed to scan subject rollup: %w", err)
		}
		if avg.Valid {
			v := avg.Float64
			s.AveragePercentage = &v
		}
		rollups = append(rollups, s)
	}

	return rollups, rows.Err()
}
