package playlist

import (
	"database/sql"
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func openDB(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "create db directory")
	}

	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// a single connection keeps PRAGMA foreign_keys in effect for every query
	database.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := database.Exec(pragma); err != nil {
			database.Close()
			return nil, errors.Wrapf(err, "apply sqlite pragma %q", pragma)
		}
	}

	if err := runMigrations(database); err != nil {
		database.Close()
		return nil, err
	}

	return database, nil
}

func runMigrations(database *sql.DB) error {
	if _, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		);
	`); err != nil {
		return errors.Wrap(err, "create schema_migrations")
	}

	entries, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return errors.Wrap(err, "list migrations")
	}
	sort.Strings(entries)

	for _, name := range entries {
		var count int
		if err := database.QueryRow("SELECT COUNT(1) FROM schema_migrations WHERE name = ?", name).Scan(&count); err != nil {
			return errors.Wrapf(err, "check migration %s", name)
		}
		if count > 0 {
			continue
		}

		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return errors.Wrapf(err, "read migration %s", name)
		}

		tx, err := database.Begin()
		if err != nil {
			return errors.Wrapf(err, "start migration tx %s", name)
		}
		if _, err := tx.Exec(string(body)); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "execute migration %s", name)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations(name, applied_at) VALUES (?, ?)",
			name,
			time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "record migration %s", name)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "commit migration %s", name)
		}
	}

	return nil
}
