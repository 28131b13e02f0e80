package database

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/choretally/internal/config"
)

func TestNumberPlaceholders(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT * FROM chores WHERE id = ?", "SELECT * FROM chores WHERE id = $1"},
		{"UPDATE chores SET name = ?, points = ? WHERE id = ?", "UPDATE chores SET name = $1, points = $2 WHERE id = $3"},
		{"SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
	}
	for _, tt := range tests {
		if got := numberPlaceholders(tt.in); got != tt.want {
			t.Errorf("numberPlaceholders(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDialectFor(t *testing.T) {
	for _, name := range []string{"sqlite", "SQLite3", ""} {
		d, ok := DialectFor(name)
		if !ok || d.Name() != "sqlite" {
			t.Errorf("DialectFor(%q) = %v, %v; want sqlite", name, d, ok)
		}
	}
	d, ok := DialectFor("postgresql")
	if !ok || d.Name() != "postgres" {
		t.Errorf("DialectFor(postgresql) = %v, %v; want postgres", d, ok)
	}
	if _, ok := DialectFor("mysql"); ok {
		t.Error("DialectFor(mysql) should not be supported")
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestOpenMemoryMigrates(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	v, err := db.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v < 1 {
		t.Errorf("version = %d, want >= 1", v)
	}

	var n int
	err = db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM chore_groups").Scan(&n)
	if err != nil {
		t.Fatalf("query chore_groups: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestUniqueViolation(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	insert := `INSERT INTO users (email, name, created_at, updated_at) VALUES (?, '', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	if _, err := db.ExecReturningID(ctx, insert, "a@example.com"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err = db.ExecReturningID(ctx, insert, "a@example.com")
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}
	if IsUniqueViolation(errors.New("boom")) {
		t.Error("plain error reported as unique violation")
	}
	if IsUniqueViolation(nil) {
		t.Error("nil reported as unique violation")
	}
}

func TestWithTxRollsBack(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	sentinel := errors.New("abort")
	err = db.WithTx(ctx, func(q Querier) error {
		_, err := q.ExecContext(ctx, `INSERT INTO users (email, name, created_at, updated_at) VALUES (?, '', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`, "tx@example.com")
		if err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTx error = %v, want sentinel", err)
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("users = %d after rollback, want 0", n)
	}
}
