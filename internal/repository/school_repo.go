package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"shikshaleap/internal/database"
	"shikshaleap/internal/models"
)

// SchoolRepository handles database operations for the UDISE school directory
type SchoolRepository struct {
	db database.DBTX
}

// NewSchoolRepository creates a new school repository
func NewSchoolRepository(db database.DBTX) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *SchoolRepository) WithTx(tx database.DBTX) *SchoolRepository {
	return &SchoolRepository{db: tx}
}

const schoolColumns = `udise_code, school_name, district, block, category, area, management`

// GetSchoolByCode retrieves a school by its UDISE code
func (r *SchoolRepository) GetSchoolByCode(ctx context.Context, code string) (*models.School, error) {
	query := `SELECT ` + schoolColumns + ` FROM udise_schools WHERE udise_code = ?`
	s := &models.School{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&s.UdiseCode,
		&s.SchoolName,
		&s.District,
		&s.Block,
		&s.Category,
		&s.Area,
		&s.Management,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get school: %w", err)
	}

	return s, nil
}

// likeEscaper quotes LIKE wildcards using '!' as the escape character
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// SearchSchools returns up to limit schools whose code, name or district
// contains term, ignoring case.
func (r *SchoolRepository) SearchSchools(ctx context.Context, term string, limit int) ([]models.School, error) {
	query := `
		SELECT ` + schoolColumns + `
		FROM udise_schools
		WHERE LOWER(udise_code) LIKE LOWER(?) ESCAPE '!'
		   OR LOWER(school_name) LIKE LOWER(?) ESCAPE '!'
		   OR LOWER(district) LIKE LOWER(?) ESCAPE '!'
		ORDER BY school_name, udise_code
		LIMIT ?
	`
	pattern := "%" + likeEscaper.Replace(term) + "%"
	rows, err := r.db.QueryContext(ctx, query, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search schools: %w", err)
	}
	defer rows.Close()

	schools := []models.School{}
	for rows.Next() {
		var s models.School
		if err := rows.Scan(&s.UdiseCode, &s.SchoolName, &s.District, &s.Block, &s.Category, &s.Area, &s.Management); err != nil {
			return nil, fmt.Errorf("failed to scan school: %w", err)
		}
		schools = append(schools, s)
	}

	return schools, rows.Err()
}

// DeleteAllSchools empties the directory
func (r *SchoolRepository) DeleteAllSchools(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM udise_schools"); err != nil {
		return fmt.Errorf("failed to clear schools: %w", err)
	}
	return nil
}

// CreateSchool inserts one directory entry
func (r *SchoolRepository) CreateSchool(ctx context.Context, s models.School) error {
	query := `
		INSERT INTO udise_schools (` + schoolColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, s.UdiseCode, s.SchoolName, s.District, s.Block, s.Category, s.Area, s.Management)
	if err != nil {
		return fmt.Errorf("failed to create school %s: %w", s.UdiseCode, err)
	}
	return nil
}

// CountSchools returns the number of directory entries
func (r *SchoolRepository) CountSchools(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM udise_schools").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count schools: %w", err)
	}
	return count, nil
}
