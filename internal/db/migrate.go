package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrator opens a migrate instance over the live connection and runs fn on
// it. The instance is never closed: closing it would tear down the shared
// *sql.DB underneath the rest of the service.
func (db *DB) migrator(migrationsDir string, fn func(*migrate.Migrate) error) error {
	dir, err := filepath.Abs(migrationsDir)
	if err != nil {
		return fmt.Errorf("resolving migrations dir: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	return fn(m)
}

// MigrateUp applies every pending migration. A database already at the
// latest version is not an error.
func (db *DB) MigrateUp(migrationsDir string) error {
	return db.migrator(migrationsDir, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the most recent migration.
func (db *DB) MigrateDown(migrationsDir string) error {
	return db.migrator(migrationsDir, func(m *migrate.Migrate) error {
		if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		return nil
	})
}

// MigrateTo migrates up or down to the given version.
func (db *DB) MigrateTo(migrationsDir string, version uint) error {
	return db.migrator(migrationsDir, func(m *migrate.Migrate) error {
		if err := m.Migrate(version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration to version %d failed: %w", version, err)
		}
		return nil
	})
}

// MigrateForce stamps the schema version without running migrations. Only
// useful to recover a dirty database.
func (db *DB) MigrateForce(migrationsDir string, version int) error {
	return db.migrator(migrationsDir, func(m *migrate.Migrate) error {
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force to version %d failed: %w", version, err)
		}
		return nil
	})
}

// MigrateVersion reports the applied schema version and dirty flag. A fresh
// database reports version 0.
func (db *DB) MigrateVersion(migrationsDir string) (version uint, dirty bool, err error) {
	err = db.migrator(migrationsDir, func(m *migrate.Migrate) error {
		v, d, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		version, dirty = v, d
		return verr
	})
	return version, dirty, err
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) { log.Printf("[migrate] "+format, v...) }
func (migrateLogger) Verbose() bool                  { return false }

// BaselineAtVersion marks an existing measurement database as already having
// the schema of the given version, without replaying migrations. Refuses to
// touch a database that has any migration history.
func (db *DB) BaselineAtVersion(version uint) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER NOT NULL,
			dirty INTEGER NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS version_unique ON schema_migrations (version);
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		return fmt.Errorf("checking migration history: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("database already has migrations applied, cannot baseline")
	}

	if _, err := db.Exec("INSERT INTO schema_migrations (version, dirty) VALUES (?, 0)", version); err != nil {
		return fmt.Errorf("inserting baseline version: %w", err)
	}
	log.Printf("Database baselined at version %d", version)
	return nil
}

// GetMigrationStatus summarises the schema state for the migrate status
// subcommand.
func (db *DB) GetMigrationStatus(migrationsDir string) (map[string]any, error) {
	version, dirty, err := db.MigrateVersion(migrationsDir)
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("reading migration version: %w", err)
	}

	var tableExists bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_migrations'
	`).Scan(&tableExists)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("checking schema_migrations table: %w", err)
	}

	return map[string]any{
		"current_version":          version,
		"dirty":                    dirty,
		"schema_migrations_exists": tableExists,
	}, nil
}

// GetLatestMigrationVersion scans the migrations directory for the highest
// numbered *.up.sql file. Files are named NNNNNN_description.up.sql.
func GetLatestMigrationVersion(migrationsDir string) (uint, error) {
	dir, err := filepath.Abs(migrationsDir)
	if err != nil {
		return 0, fmt.Errorf("resolving migrations dir: %w", err)
	}
	entries, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return 0, fmt.Errorf("listing migrations: %w", err)
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("no migration files found in %s", dir)
	}

	var latest uint
	for _, entry := range entries {
		var v uint
		if _, err := fmt.Sscanf(filepath.Base(entry), "%d_", &v); err == nil && v > latest {
			latest = v
		}
	}
	if latest == 0 {
		return 0, fmt.Errorf("could not determine latest migration version")
	}
	return latest, nil
}

// CheckAndPromptMigrations compares the applied schema version against the
// newest migration on disk. When they differ it logs instructions for the
// operator and reports that the service should exit rather than run on a
// stale schema.
func (db *DB) CheckAndPromptMigrations(migrationsDir string) (bool, error) {
	current, dirty, err := db.MigrateVersion(migrationsDir)
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return false, fmt.Errorf("reading migration version: %w", err)
	}
	latest, err := GetLatestMigrationVersion(migrationsDir)
	if err != nil {
		return false, fmt.Errorf("reading latest migration version: %w", err)
	}

	if current == latest && !dirty {
		return false, nil
	}
	if dirty {
		return true, fmt.Errorf("database is in a dirty state (version %d). Run 'mtms-report migrate status' to diagnose", current)
	}
	if current > latest {
		return true, fmt.Errorf("database version (%d) is ahead of latest migration (%d)", current, latest)
	}

	log.Printf("Database schema is %d migration(s) behind (have %d, latest %d).", latest-current, current, latest)
	log.Printf("This measurement database appears to be from a prior installation.")
	log.Printf("Apply the outstanding migrations with: mtms-report migrate up")
	log.Printf("Inspect the state with: mtms-report migrate status")

	return true, fmt.Errorf("database schema is out of date (version %d, need %d)", current, latest)
}
