package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "wal mode",
			cfg: Config{
				Path:        filepath.Join(t.TempDir(), "wal.db"),
				WALMode:     true,
				BusyTimeout: 5,
			},
		},
		{
			name: "rollback journal",
			cfg: Config{
				Path:        filepath.Join(t.TempDir(), "journal.db"),
				BusyTimeout: 1,
			},
		},
		{
			name: "creates nested directory",
			cfg: Config{
				Path: filepath.Join(t.TempDir(), "a", "b", "nested.db"),
			},
		},
		{
			name:    "empty path",
			cfg:     Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Open(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer db.Close() //nolint:errcheck // Test cleanup

			if db.Path() != tt.cfg.Path {
				t.Errorf("Path() = %q, want %q", db.Path(), tt.cfg.Path)
			}
			if _, err := os.Stat(filepath.Dir(tt.cfg.Path)); err != nil {
				t.Errorf("database directory missing: %v", err)
			}
		})
	}
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	db := openTestDB(t)

	var enabled int
	if err := db.QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if enabled != 1 {
		t.Errorf("foreign_keys = %d, want 1", enabled)
	}
}

func TestConnectionString(t *testing.T) {
	dsn := connectionString(Config{Path: "/tmp/x.db", WALMode: true, BusyTimeout: 2})
	for _, want := range []string{"file:/tmp/x.db?", "_busy_timeout=2000", "_foreign_keys=on", "_journal_mode=WAL"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("connectionString() = %q, missing %q", dsn, want)
		}
	}

	dsn = connectionString(Config{Path: "/tmp/x.db"})
	if strings.Contains(dsn, "_journal_mode") {
		t.Errorf("connectionString() without WAL = %q, should not set journal mode", dsn)
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	db.Close() //nolint:errcheck // closing to force failure
	if err := db.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() on closed database should fail")
	}
}

func TestClose(t *testing.T) {
	db := openTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	var empty DB
	if err := empty.Close(); err != nil {
		t.Errorf("Close() on zero DB error = %v", err)
	}
}

func TestBeginTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "CREATE TABLE tx_test (id INTEGER PRIMARY KEY, v TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	t.Run("commit", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("BeginTx() error = %v", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO tx_test (v) VALUES ('kept')"); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		assertRowCount(t, db, "SELECT COUNT(*) FROM tx_test WHERE v = 'kept'", 1)
	})

	t.Run("rollback", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("BeginTx() error = %v", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO tx_test (v) VALUES ('dropped')"); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := tx.Rollback(); err != nil {
			t.Fatalf("Rollback() error = %v", err)
		}
		assertRowCount(t, db, "SELECT COUNT(*) FROM tx_test WHERE v = 'dropped'", 0)
	})
}

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(context.Background(), Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	return db
}

func assertRowCount(t *testing.T, db *DB, query string, want int) {
	t.Helper()

	var got int
	if err := db.QueryRowContext(context.Background(), query).Scan(&got); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if got != want {
		t.Errorf("%s = %d, want %d", query, got, want)
	}
}
