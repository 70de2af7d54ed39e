package db

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/seckatie/linkindex/internal/errors"
	"github.com/seckatie/linkindex/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type DB struct {
	db             *sql.DB
	eventListeners map[EventKind][]EventListener
}

// Migration is one embedded schema migration and whether it has been applied.
type Migration struct {
	Applied bool
	Name    string
}

func NewSQLiteDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps ":memory:" databases
	// from splitting across pool connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return &DB{
		db:             db,
		eventListeners: make(map[EventKind][]EventListener),
	}, nil
}

// Migrate applies every pending migration.
func (db *DB) Migrate() error {
	lines, err := db.ApplyMigrations()
	for _, line := range lines {
		logging.Default().Debug().Msg(line)
	}
	return err
}

// ApplyMigrations applies pending migrations in name order, each in its own
// transaction, and returns one log line per applied migration.
func (db *DB) ApplyMigrations() ([]string, error) {
	if err := db.ensureMigrationsTable(); err != nil {
		return nil, err
	}

	names, err := migrationNames()
	if err != nil {
		return nil, err
	}
	applied, err := db.appliedMigrations()
	if err != nil {
		return nil, err
	}

	var out []string
	for _, name := range names {
		if applied[name] {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name + ".sql")
		if err != nil {
			return out, fmt.Errorf("failed to read migration file: %w", err)
		}

		tx, err := db.db.Begin()
		if err != nil {
			return out, errors.TransactionFailed("begin migration "+name, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return out, fmt.Errorf("failed to apply migration %s: %w", name, err)
		}

		if _, err := tx.Exec(`
		    INSERT INTO schema_migrations (version) VALUES (?)
		`, name); err != nil {
			tx.Rollback()
			return out, fmt.Errorf("failed to mark migration as applied: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return out, errors.TransactionFailed("commit migration "+name, err)
		}

		out = append(out, fmt.Sprintf("Applying %s... OK", name))
	}

	if len(out) == 0 {
		out = append(out, "No migrations to apply.")
	}
	return out, nil
}

// ListMigrations reports every embedded migration and whether it has been applied.
func (db *DB) ListMigrations() ([]Migration, error) {
	if err := db.ensureMigrationsTable(); err != nil {
		return nil, err
	}

	names, err := migrationNames()
	if err != nil {
		return nil, err
	}
	applied, err := db.appliedMigrations()
	if err != nil {
		return nil, err
	}

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		out = append(out, Migration{Applied: applied[name], Name: name})
	}
	return out, nil
}

func (db *DB) ensureMigrationsTable() error {
	_, err := db.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema migrations table: %w", err)
	}
	return nil
}

func (db *DB) appliedMigrations() (map[string]bool, error) {
	rows, err := db.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func migrationNames() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".sql")
		if name == "" {
			logging.Default().Warn().Str("file", entry.Name()).Msg("Invalid migration file name")
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// storeError classifies a driver error. SQLite constraint failures become
// ErrConstraintViolation; anything else is returned unclassified.
func storeError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return errors.ConstraintViolation(op, err)
	}
	return errors.NewStoreError(op, nil, err)
}
