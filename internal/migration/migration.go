// Package migration brings a store's kv schema up to the newest embedded
// SQL file. Files are named NNN_name.sql; the applied version lives in a
// one-row schema_version table.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/julianstephens/jotlit/internal/logger"
	"github.com/julianstephens/jotlit/migrations"
)

// ErrSchemaTooNew means the store was written by a newer jotlit.
var ErrSchemaTooNew = errors.New("store schema is newer than this version of jotlit supports")

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// dir is the subdirectory of the embedded migrations for the dialect.
func (d Dialect) dir() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

func (d Dialect) recordVersion() string {
	if d == Postgres {
		return "INSERT INTO schema_version (version) VALUES ($1)"
	}
	return "INSERT INTO schema_version (version) VALUES (?)"
}

type Step struct {
	Version int
	Name    string
	SQL     string
}

type Runner struct {
	db      *sql.DB
	files   fs.FS
	dialect Dialect
}

// New returns a runner over files. Most callers want ForStore.
func New(db *sql.DB, files fs.FS, dialect Dialect) *Runner {
	return &Runner{db: db, files: files, dialect: dialect}
}

// ForStore returns a runner over the embedded migrations for dialect.
func ForStore(db *sql.DB, dialect Dialect) (*Runner, error) {
	sub, err := fs.Sub(migrations.FS, dialect.dir())
	if err != nil {
		return nil, fmt.Errorf("failed to access %s migrations: %w", dialect.dir(), err)
	}
	return New(db, sub, dialect), nil
}

// Steps returns the migration files ordered by version.
func (r *Runner) Steps() ([]Step, error) {
	files, err := fs.ReadDir(r.files, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var steps []Step
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".sql") {
			continue
		}
		num, name, ok := strings.Cut(strings.TrimSuffix(f.Name(), ".sql"), "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: expected NNN_name.sql", f.Name())
		}
		version, err := strconv.Atoi(num)
		if err != nil || version < 1 {
			return nil, fmt.Errorf("migration %s: version must be a positive number", f.Name())
		}
		body, err := fs.ReadFile(r.files, f.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", f.Name(), err)
		}
		steps = append(steps, Step{Version: version, Name: name, SQL: string(body)})
	}

	slices.SortFunc(steps, func(a, b Step) int { return a.Version - b.Version })
	for i := 1; i < len(steps); i++ {
		if steps[i].Version == steps[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", steps[i].Version)
		}
	}
	return steps, nil
}

// Status reports the applied version and the newest available one.
func (r *Runner) Status() (current, latest int, err error) {
	if current, err = r.current(); err != nil {
		return 0, 0, err
	}
	steps, err := r.Steps()
	if err != nil {
		return 0, 0, err
	}
	if len(steps) > 0 {
		latest = steps[len(steps)-1].Version
	}
	return current, latest, nil
}

// Up applies every pending step, each in its own transaction, and returns
// how many ran. A store newer than the files fails with ErrSchemaTooNew.
func (r *Runner) Up() (int, error) {
	current, err := r.current()
	if err != nil {
		return 0, err
	}
	steps, err := r.Steps()
	if err != nil {
		return 0, err
	}
	if len(steps) > 0 && current > steps[len(steps)-1].Version {
		return 0, fmt.Errorf("%w (store %d, supported %d)", ErrSchemaTooNew, current, steps[len(steps)-1].Version)
	}

	pending := lo.Filter(steps, func(s Step, _ int) bool { return s.Version > current })
	for i, step := range pending {
		if err := r.apply(step); err != nil {
			return i, err
		}
		logger.Info("Applied migration", "version", step.Version, "name", step.Name)
	}
	return len(pending), nil
}

func (r *Runner) apply(step Step) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: %w", step.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(step.SQL); err != nil {
		return fmt.Errorf("migration %d (%s) failed: %w", step.Version, step.Name, err)
	}
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("migration %d: %w", step.Version, err)
	}
	if _, err := tx.Exec(r.dialect.recordVersion(), step.Version); err != nil {
		return fmt.Errorf("migration %d: %w", step.Version, err)
	}
	return tx.Commit()
}

// current is 0 for a store that has never been migrated.
func (r *Runner) current() (int, error) {
	if _, err := r.db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return 0, fmt.Errorf("failed to create schema_version: %w", err)
	}
	var version int
	err := r.db.QueryRow("SELECT version FROM schema_version").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
