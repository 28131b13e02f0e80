package database

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"
)

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) DSN(path, _ string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

func (sqliteDialect) RewriteQuery(query string) string { return query }
func (sqliteDialect) SupportsLastInsertID() bool       { return true }

func (sqliteDialect) ConfigureConnection(db *sql.DB, dsn string) error {
	// Every connection to :memory: is a separate database.
	if strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		return nil
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return err
	}
	return nil
}

func (sqliteDialect) GooseDialect() string  { return "sqlite3" }
func (sqliteDialect) MigrationsDir() string { return "migrations/sqlite" }
