package migration

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func migrationFS(files map[string]string) fstest.MapFS {
	m := fstest.MapFS{}
	for name, content := range files {
		m[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return m
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	return count == 1
}

const kvSQL = "CREATE TABLE kv (key TEXT PRIMARY KEY, value TEXT);"

func TestSteps(t *testing.T) {
	r := New(nil, migrationFS(map[string]string{
		"002_updated_at.sql": "ALTER TABLE kv ADD COLUMN updated_at TEXT;",
		"001_kv.sql":         kvSQL,
		"README.md":          "not a migration",
	}), SQLite)

	steps, err := r.Steps()
	if err != nil {
		t.Fatalf("Steps failed: %v", err)
	}
	if len(steps) != 2 || steps[0].Version != 1 || steps[1].Version != 2 {
		t.Fatalf("Steps() = %+v, want versions 1 and 2 in order", steps)
	}
	if steps[0].Name != "kv" || steps[1].Name != "updated_at" {
		t.Errorf("names = %q, %q", steps[0].Name, steps[1].Name)
	}
}

func TestStepsRejectsBadNames(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{"missing underscore", map[string]string{"001kv.sql": "SELECT 1;"}, "expected NNN_name.sql"},
		{"zero version", map[string]string{"000_kv.sql": "SELECT 1;"}, "positive number"},
		{"not a number", map[string]string{"one_kv.sql": "SELECT 1;"}, "positive number"},
		{"duplicate version", map[string]string{"001_kv.sql": "SELECT 1;", "001_other.sql": "SELECT 1;"}, "duplicate migration version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, migrationFS(tt.files), SQLite).Steps()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Steps() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestUp(t *testing.T) {
	t.Run("fresh store", func(t *testing.T) {
		db := setupTestDB(t)
		r := New(db, migrationFS(map[string]string{
			"001_kv.sql":      kvSQL,
			"002_history.sql": "CREATE TABLE kv_history (key TEXT, value TEXT);",
		}), SQLite)

		n, err := r.Up()
		if err != nil || n != 2 {
			t.Fatalf("Up() = (%d, %v), want 2 applied", n, err)
		}
		if !tableExists(t, db, "kv") || !tableExists(t, db, "kv_history") {
			t.Error("tables missing after Up")
		}
		current, latest, err := r.Status()
		if err != nil || current != 2 || latest != 2 {
			t.Errorf("Status() = (%d, %d, %v), want (2, 2)", current, latest, err)
		}
	})

	t.Run("second run applies nothing", func(t *testing.T) {
		r := New(setupTestDB(t), migrationFS(map[string]string{"001_kv.sql": kvSQL}), SQLite)
		if _, err := r.Up(); err != nil {
			t.Fatal(err)
		}
		if n, err := r.Up(); err != nil || n != 0 {
			t.Errorf("second Up() = (%d, %v), want (0, nil)", n, err)
		}
	})

	t.Run("new file after upgrade", func(t *testing.T) {
		files := migrationFS(map[string]string{"001_kv.sql": kvSQL})
		r := New(setupTestDB(t), files, SQLite)
		if _, err := r.Up(); err != nil {
			t.Fatal(err)
		}

		files["002_updated_at.sql"] = &fstest.MapFile{Data: []byte("ALTER TABLE kv ADD COLUMN updated_at TEXT;")}
		current, latest, _ := r.Status()
		if current != 1 || latest != 2 {
			t.Errorf("Status() = (%d, %d), want (1, 2) before Up", current, latest)
		}
		if n, err := r.Up(); err != nil || n != 1 {
			t.Errorf("Up() = (%d, %v), want 1 applied", n, err)
		}
	})

	t.Run("failed step rolls back", func(t *testing.T) {
		db := setupTestDB(t)
		r := New(db, migrationFS(map[string]string{
			"001_kv.sql": "CREATE TABLE kv (key TEXT PRIMARY KEY); THIS IS INVALID SQL;",
		}), SQLite)

		if _, err := r.Up(); err == nil {
			t.Fatal("Up should fail on invalid SQL")
		}
		if current, _, _ := r.Status(); current != 0 {
			t.Errorf("version = %d after failed step, want 0", current)
		}
		if tableExists(t, db, "kv") {
			t.Error("kv table survived a failed step")
		}
	})
}

func TestUpRefusesNewerStore(t *testing.T) {
	db := setupTestDB(t)
	r := New(db, migrationFS(map[string]string{"001_kv.sql": kvSQL}), SQLite)
	if _, err := r.Up(); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 7"); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Up(); !errors.Is(err, ErrSchemaTooNew) {
		t.Errorf("Up() error = %v, want ErrSchemaTooNew", err)
	}
}

func TestDialectPlaceholders(t *testing.T) {
	if got := SQLite.recordVersion(); !strings.Contains(got, "?") {
		t.Errorf("sqlite insert = %q, want ? placeholder", got)
	}
	if got := Postgres.recordVersion(); !strings.Contains(got, "$1") {
		t.Errorf("postgres insert = %q, want $1 placeholder", got)
	}
}

func TestEmbeddedSQLiteMigrations(t *testing.T) {
	db := setupTestDB(t)
	r, err := ForStore(db, SQLite)
	if err != nil {
		t.Fatalf("ForStore failed: %v", err)
	}
	if _, err := r.Up(); err != nil {
		t.Fatalf("embedded migrations failed to apply: %v", err)
	}
	if !tableExists(t, db, "kv") {
		t.Error("embedded migrations did not create the kv table")
	}
	if _, err := ForStore(db, Postgres); err != nil {
		t.Errorf("postgres migrations not embedded: %v", err)
	}
}
