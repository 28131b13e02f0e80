package database

import (
	"database/sql"
	"strconv"
	"strings"
)

// Dialect hides the differences between the supported SQL backends.
type Dialect interface {
	// Name is the short name used in configuration and logs.
	Name() string
	DriverName() string
	DSN(path, url string) string
	// RewriteQuery converts ? placeholders to the backend's syntax.
	RewriteQuery(query string) string
	SupportsLastInsertID() bool
	ConfigureConnection(db *sql.DB, dsn string) error
	// GooseDialect is the dialect name understood by goose.
	GooseDialect() string
	MigrationsDir() string
}

// DialectFor returns the dialect for a configured driver name.
func DialectFor(driver string) (Dialect, bool) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3", "":
		return sqliteDialect{}, true
	case "postgres", "postgresql":
		return postgresDialect{}, true
	}
	return nil, false
}

// numberPlaceholders rewrites ? to $1, $2, ... skipping quoted literals.
func numberPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
