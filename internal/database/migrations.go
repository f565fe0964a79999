package database

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Up      string
	Down    string
}

// Migrations contains all database migrations
var Migrations = []Migration{
	{
		Version: 1,
		Up: `
			CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

			CREATE TABLE IF NOT EXISTS operators (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				email VARCHAR(255) UNIQUE NOT NULL,
				display_name VARCHAR(255) NOT NULL,
				password_hash VARCHAR(255) NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_operators_email ON operators(email);
		`,
		Down: `
			DROP TABLE IF EXISTS operators;
		`,
	},
	{
		Version: 2,
		Up: `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INT PRIMARY KEY,
				applied_at TIMESTAMP NOT NULL DEFAULT NOW()
			);
		`,
		Down: `
			DROP TABLE IF EXISTS schema_migrations;
		`,
	},
	{
		Version: 3,
		Up: `
			CREATE TABLE IF NOT EXISTS processed_items (
				thing_id VARCHAR(64) PRIMARY KEY,
				domain VARCHAR(255) NOT NULL,
				seen_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_processed_items_seen_at ON processed_items(seen_at);
		`,
		Down: `
			DROP TABLE IF EXISTS processed_items;
		`,
	},
	{
		Version: 4,
		Up: `
			CREATE TABLE IF NOT EXISTS user_offenses (
				username VARCHAR(255) NOT NULL,
				domain VARCHAR(255) NOT NULL,
				removed_comments INT NOT NULL DEFAULT 0,
				removed_submissions INT NOT NULL DEFAULT 0,
				approved_comments INT NOT NULL DEFAULT 0,
				approved_submissions INT NOT NULL DEFAULT 0,
				bans INT NOT NULL DEFAULT 0,
				shadow_banned BOOLEAN NOT NULL DEFAULT false,
				tracked BOOLEAN NOT NULL DEFAULT false,
				warnings_muted BOOLEAN NOT NULL DEFAULT false,
				last_warned_at TIMESTAMP,
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
				PRIMARY KEY (username, domain)
			);

			CREATE INDEX IF NOT EXISTS idx_user_offenses_domain ON user_offenses(domain);
		`,
		Down: `
			DROP TABLE IF EXISTS user_offenses;
		`,
	},
	{
		Version: 5,
		Up: `
			CREATE TABLE IF NOT EXISTS unflaired_submissions (
				submission_id VARCHAR(64) PRIMARY KEY,
				comment_id VARCHAR(64) NOT NULL,
				domain VARCHAR(255) NOT NULL,
				author VARCHAR(255) NOT NULL,
				submitted_at TIMESTAMP NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT NOW()
			);
		`,
		Down: `
			DROP TABLE IF EXISTS unflaired_submissions;
		`,
	},
	{
		Version: 6,
		Up: `
			CREATE TABLE IF NOT EXISTS filters (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				pattern TEXT NOT NULL,
				is_regex BOOLEAN NOT NULL DEFAULT false,
				domain VARCHAR(255) NOT NULL,
				expires_at TIMESTAMP,
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				UNIQUE(domain, pattern)
			);
		`,
		Down: `
			DROP TABLE IF EXISTS filters;
		`,
	},
	{
		Version: 7,
		Up: `
			CREATE TABLE IF NOT EXISTS mod_events (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				kind VARCHAR(50) NOT NULL,
				domain VARCHAR(255) NOT NULL,
				target VARCHAR(255),
				actor VARCHAR(255),
				detail TEXT,
				metadata JSONB,
				created_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_mod_events_domain ON mod_events(domain, created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_mod_events_target ON mod_events(target);
		`,
		Down: `
			DROP TABLE IF EXISTS mod_events;
		`,
	},
	{
		Version: 8,
		Up: `
			CREATE TABLE IF NOT EXISTS watched_stickies (
				submission_id VARCHAR(64) NOT NULL,
				comment_id VARCHAR(64) NOT NULL,
				domain VARCHAR(255) NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				PRIMARY KEY (submission_id, comment_id)
			);
		`,
		Down: `
			DROP TABLE IF EXISTS watched_stickies;
		`,
	},
}

// RunMigrations runs all pending migrations
func RunMigrations(db *sql.DB) error {
	// Ensure migrations table exists
	if err := ensureMigrationsTable(db); err != nil {
		return err
	}

	// Get current version
	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return err
	}

	// Run pending migrations in ascending order by version
	sorted := make([]Migration, len(Migrations))
	copy(sorted, Migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	// Run pending migrations
	for _, migration := range sorted {
		if migration.Version <= currentVersion {
			continue
		}

		fmt.Printf("Running migration %d...\n", migration.Version)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.Exec(migration.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to run migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func getCurrentVersion(db *sql.DB) (int, error) {
	var version sql.NullInt64
	err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
