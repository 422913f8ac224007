package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Companies, projects, cost books and estimates",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS companies (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					default_op_rate REAL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS projects (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL REFERENCES companies(id),
					name TEXT NOT NULL,
					postal_code TEXT,
					city TEXT,
					state TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_projects_company ON projects(company_id)`,

				`CREATE TABLE IF NOT EXISTS price_lists (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL REFERENCES companies(id),
					name TEXT NOT NULL,
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_price_lists_company_active ON price_lists(company_id, is_active)`,

				`CREATE TABLE IF NOT EXISTS catalog_items (
					id TEXT PRIMARY KEY,
					price_list_id TEXT NOT NULL REFERENCES price_lists(id) ON DELETE CASCADE,
					category_code TEXT NOT NULL DEFAULT '',
					selection_code TEXT NOT NULL DEFAULT '',
					activity TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					unit_price REAL NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_catalog_items_list ON catalog_items(price_list_id, id)`,
				`CREATE INDEX idx_catalog_items_key ON catalog_items(category_code, selection_code)`,

				`CREATE TABLE IF NOT EXISTS estimates (
					id TEXT PRIMARY KEY,
					project_id TEXT NOT NULL REFERENCES projects(id),
					source TEXT,
					imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_estimates_project ON estimates(project_id)`,

				`CREATE TABLE IF NOT EXISTS estimate_lines (
					id TEXT PRIMARY KEY,
					estimate_id TEXT NOT NULL REFERENCES estimates(id) ON DELETE CASCADE,
					line_no INTEGER NOT NULL,
					category_code TEXT NOT NULL DEFAULT '',
					selection_code TEXT NOT NULL DEFAULT '',
					activity TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					item_amount REAL NOT NULL DEFAULT 0,
					sales_tax REAL NOT NULL DEFAULT 0,
					rcv REAL NOT NULL DEFAULT 0,
					unit_cost REAL NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_estimate_lines_estimate ON estimate_lines(estimate_id, line_no)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Regional factors, category adjustments and tax configs",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS project_regional_factors (
					id TEXT PRIMARY KEY,
					project_id TEXT NOT NULL UNIQUE REFERENCES projects(id),
					source_estimate_id TEXT NOT NULL,
					aggregate_tax_rate REAL NOT NULL,
					aggregate_op_rate REAL NOT NULL,
					total_line_items INTEGER NOT NULL,
					total_item_amount REAL NOT NULL,
					confidence REAL NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS regional_category_adjustments (
					id TEXT PRIMARY KEY,
					regional_factors_id TEXT NOT NULL REFERENCES project_regional_factors(id) ON DELETE CASCADE,
					category_code TEXT NOT NULL,
					activity TEXT,
					avg_variance REAL NOT NULL,
					median_variance REAL NOT NULL,
					sample_size INTEGER NOT NULL
				)`,
				`CREATE INDEX idx_category_adjustments_factors ON regional_category_adjustments(regional_factors_id, category_code)`,

				`CREATE TABLE IF NOT EXISTS project_tax_configs (
					project_id TEXT PRIMARY KEY REFERENCES projects(id),
					company_id TEXT NOT NULL REFERENCES companies(id),
					tax_zip_code TEXT,
					tax_city TEXT,
					tax_state TEXT,
					learned_tax_rate REAL,
					learned_from_estimate_id TEXT,
					manual_override_rate REAL,
					use_manual_override INTEGER NOT NULL DEFAULT 0,
					source TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the schema version recorded in the database file.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
