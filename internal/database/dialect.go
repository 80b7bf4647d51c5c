package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// UpsertProgressQuery returns the statement that inserts or folds a progress row.
	// Arguments: student_id, subject, grade, topic, mastery_level, last_activity, total_time_spent.
	UpsertProgressQuery() string

	// IsUniqueViolation reports whether err was raised by a unique constraint
	IsUniqueViolation(err error) bool
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// masteryWeight is the weight a new attempt carries when folded into an existing mastery level.
const masteryWeight = "0.3"

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// onConflictProgressUpsert is shared by SQLite and PostgreSQL, which both support ON CONFLICT.
const onConflictProgressUpsert = `
	INSERT INTO student_progress (student_id, subject, grade, topic, mastery_level, last_activity, total_time_spent)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (student_id, subject, grade, topic) DO UPDATE SET
		mastery_level = student_progress.mastery_level + (excluded.mastery_level - student_progress.mastery_level) * ` + masteryWeight + `,
		last_activity = excluded.last_activity,
		total_time_spent = student_progress.total_time_spent + excluded.total_time_spent
`
