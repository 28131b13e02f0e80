package database

import (
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// Migrate applies all pending migrations.
func (db *DB) Migrate() error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := db.prepareGoose(); err != nil {
		return err
	}
	if err := goose.Up(db.DB, db.Dialect.MigrationsDir()); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Status logs the state of every migration through goose's logger.
func (db *DB) Status() error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := db.prepareGoose(); err != nil {
		return err
	}
	if err := goose.Status(db.DB, db.Dialect.MigrationsDir()); err != nil {
		return fmt.Errorf("goose status: %w", err)
	}
	return nil
}

// Version returns the current schema version.
func (db *DB) Version() (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := db.prepareGoose(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersion(db.DB)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	return v, nil
}

func (db *DB) prepareGoose() error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(db.Dialect.GooseDialect()); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return nil
}
