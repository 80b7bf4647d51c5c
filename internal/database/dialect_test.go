package database

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{Path: "./data.db"})
		if !strings.HasPrefix(result, "./data.db?") || !strings.Contains(result, "_txlock=immediate") {
			t.Errorf("DSN() = %v, want immediate transactions on ./data.db", result)
		}

		result = dialect.DSN(DialectConfig{Path: "file:test.db?cache=shared"})
		if !strings.HasPrefix(result, "file:test.db?cache=shared&") {
			t.Errorf("DSN() = %v, want existing query preserved", result)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("UpsertProgressQuery", func(t *testing.T) {
		result := dialect.RewriteQuery(dialect.UpsertProgressQuery())
		if !strings.Contains(result, "$7") || strings.Contains(result, "?") {
			t.Errorf("UpsertProgressQuery() not rewritten to numbered placeholders: %s", result)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "mysql"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN forces parseTime", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{URL: "user:pass@tcp(localhost:3306)/shiksha"})
		if !strings.Contains(result, "parseTime=true") {
			t.Errorf("DSN() = %v, want parseTime=true", result)
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO users (email, role) VALUES (?, ?)",
			expected: "INSERT INTO users (email, role) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE users SET role = ?, updated_at = ? WHERE id = ?",
			expected: "UPDATE users SET role = ?, updated_at = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    bool
	}{
		{"postgres unique", NewPostgresDialect(), fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"postgres other", NewPostgresDialect(), &pq.Error{Code: "23503"}, false},
		{"mysql duplicate", NewMySQLDialect(), &mysql.MySQLError{Number: 1062}, true},
		{"mysql other", NewMySQLDialect(), &mysql.MySQLError{Number: 1452}, false},
		{"plain error", NewSQLiteDialect(), errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	content := `-- header comment
CREATE TABLE a (id INTEGER);

-- trailing comment only
CREATE INDEX idx_a ON a(id);
-- end
`
	statements := splitStatements(content)
	if len(statements) != 2 {
		t.Fatalf("splitStatements() returned %d statements, want 2: %q", len(statements), statements)
	}
	if !strings.HasSuffix(statements[1], "CREATE INDEX idx_a ON a(id)") {
		t.Errorf("unexpected second statement %q", statements[1])
	}
}

func TestNullTimeScan(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		valid bool
		want  string
	}{
		{"nil", nil, false, ""},
		{"sqlite text", "2025-03-01 10:20:30.5+00:00", true, "2025-03-01T10:20:30.5Z"},
		{"bytes", []byte("2025-03-01 10:20:30"), true, "2025-03-01T10:20:30Z"},
		{"rfc3339", "2025-03-01T10:20:30Z", true, "2025-03-01T10:20:30Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var nt NullTime
			if err := nt.Scan(tt.value); err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if nt.Valid != tt.valid {
				t.Fatalf("Valid = %v, want %v", nt.Valid, tt.valid)
			}
			if tt.valid {
				if got := nt.Time.Format("2006-01-02T15:04:05.999999999Z07:00"); got != tt.want {
					t.Errorf("Time = %v, want %v", got, tt.want)
				}
			}
		})
	}

	var nt NullTime
	if err := nt.Scan("not a time"); err == nil {
		t.Error("Scan() should reject unparsable text")
	}
}
