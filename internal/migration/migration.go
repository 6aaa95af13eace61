package migration

import (
	"context"

	"priorfit/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every step is
// idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createCalibrationsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create calibrations table")
	}

	if err := r.addBatchColumn(ctx, db); err != nil {
		return errors.Wrap(err, "failed to add batch_id to calibrations")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createCalibrationsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS calibrations (
			id UUID PRIMARY KEY,
			request_hash CHAR(64) NOT NULL,
			family VARCHAR(100) NOT NULL,
			lower_bound DOUBLE PRECISION NOT NULL,
			upper_bound DOUBLE PRECISION NOT NULL,
			target_mass DOUBLE PRECISION NOT NULL,
			init_guess JSONB NOT NULL DEFAULT '[]',
			fixed_params JSONB NOT NULL DEFAULT '[]',
			status VARCHAR(20) NOT NULL,
			params JSONB NOT NULL DEFAULT '[]',
			achieved_mass DOUBLE PRECISION,
			jacobian VARCHAR(20) NOT NULL DEFAULT '',
			iterations INTEGER NOT NULL DEFAULT 0,
			evaluations INTEGER NOT NULL DEFAULT 0,
			diagnostics JSONB NOT NULL DEFAULT '[]',
			error TEXT NOT NULL DEFAULT '',
			duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) addBatchColumn(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'calibrations' AND column_name = 'batch_id'
			) THEN
				ALTER TABLE calibrations ADD COLUMN batch_id UUID;
			END IF;
		END $$;
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_calibrations_created_at ON calibrations(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_calibrations_request_hash ON calibrations(request_hash, status)`,
		`CREATE INDEX IF NOT EXISTS idx_calibrations_batch_id ON calibrations(batch_id) WHERE batch_id IS NOT NULL`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
