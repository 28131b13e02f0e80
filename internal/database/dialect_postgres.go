package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

type postgresDialect struct{}

func (postgresDialect) Name() string       { return "postgres" }
func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) DSN(_, url string) string { return url }

func (postgresDialect) RewriteQuery(query string) string { return numberPlaceholders(query) }

// lib/pq does not implement LastInsertId; inserts use RETURNING id instead.
func (postgresDialect) SupportsLastInsertID() bool { return false }

func (postgresDialect) ConfigureConnection(db *sql.DB, _ string) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
	return nil
}

func (postgresDialect) GooseDialect() string  { return "postgres" }
func (postgresDialect) MigrationsDir() string { return "migrations/postgres" }
