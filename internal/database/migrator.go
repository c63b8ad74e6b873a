package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrator handles database schema migrations. Migration files are read from
// the migrations/ directory at runtime so they can be updated without
// recompiling.
type Migrator struct {
	pool *pgxpool.Pool
}

// NewMigrator creates a new migration runner
func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{
		pool: pool,
	}
}

// RunMigrations executes all pending database migrations
//
// This function:
//  1. Creates a migrations tracking table if it doesn't exist
//  2. Reads all migration files from the migrations directory
//  3. Skips migrations that have already been run
//  4. Executes new migrations in alphabetical order
//  5. Records successful migrations in the tracking table
func (m *Migrator) RunMigrations(ctx context.Context) error {
	log.Println("Starting database migrations...")

	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	appliedMigrations, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	migrationsDir := "migrations"
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	// Sort migrations alphabetically to ensure correct execution order
	var migrationFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			migrationFiles = append(migrationFiles, entry.Name())
		}
	}
	sort.Strings(migrationFiles)

	migrationsRun := 0
	for _, filename := range migrationFiles {
		// Skip reset migrations (destructive operations)
		if strings.Contains(filename, "reset") {
			log.Printf("  ⊘ Skipping: %s (reset script)", filename)
			continue
		}

		if appliedMigrations[filename] {
			log.Printf("  ✓ Already applied: %s", filename)
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsDir, filename))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		log.Printf("  → Running: %s", filename)
		if _, err := m.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", filename, err)
		}

		if err := m.recordMigration(ctx, filename); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", filename, err)
		}

		migrationsRun++
	}

	if migrationsRun > 0 {
		log.Printf("✓ Successfully ran %d new migration(s)", migrationsRun)
	} else {
		log.Println("✓ All migrations already applied - database is up to date")
	}

	return nil
}

// createMigrationsTable creates the schema_migrations table if it doesn't exist
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`

	_, err := m.pool.Exec(ctx, query)
	return err
}

// getAppliedMigrations returns a map of all migrations that have been applied
func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := m.pool.Query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, err
		}
		applied[filename] = true
	}

	return applied, rows.Err()
}

// recordMigration marks a migration as applied
func (m *Migrator) recordMigration(ctx context.Context, filename string) error {
	_, err := m.pool.Exec(ctx,
		"INSERT INTO schema_migrations(filename) VALUES($1)", filename)
	return err
}
