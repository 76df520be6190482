package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stepflowhq/stepflow/internal/config"
)

// placeholder returns the correct bind variable for the given index based on DB type.
// Postgres uses $1, $2... while MySQL and SQLite use ?
func placeholder(i int) string {
	db := config.GetSystemSettingString(config.DATABASE_TYPE)
	if db == config.DATABASE_TYPE_POSTGRES {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// formatDateInDatabase renders a timestamp the way the active database expects
// it as a bind value.
func formatDateInDatabase(t time.Time) interface{} {
	switch config.GetSystemSettingString(config.DATABASE_TYPE) {
	case config.DATABASE_TYPE_SQLITE:
		return t.UTC().Format("2006-01-02 15:04:05.000")
	case config.DATABASE_TYPE_MYSQL:
		return t.UTC().Format("2006-01-02 15:04:05.000000")
	default:
		// PostgreSQL takes time.Time directly
		return t.UTC()
	}
}

// scanTime converts a scanned nullable timestamp back to time.Time.
func scanTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}
