package postgres

import (
	"context"
	"database/sql"
	"errors"

	"priorfit/domain/core"
	"priorfit/models"
	"priorfit/ports"

	"github.com/jmoiron/sqlx"
)

const calibrationColumns = `id, batch_id, request_hash, family, lower_bound, upper_bound, target_mass,
		       init_guess, fixed_params, status, params, achieved_mass, jacobian,
		       iterations, evaluations, diagnostics, error, duration_ms, created_at`

// CalibrationRepositoryImpl implements CalibrationRepository for PostgreSQL
type CalibrationRepositoryImpl struct {
	db *sqlx.DB
}

// NewCalibrationRepository creates a new PostgreSQL calibration repository
func NewCalibrationRepository(db *sqlx.DB) ports.CalibrationRepository {
	return &CalibrationRepositoryImpl{db: db}
}

// Save stores a finished calibration; saving the same ID twice overwrites it
func (r *CalibrationRepositoryImpl) Save(ctx context.Context, record *models.CalibrationRecord) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO calibrations (
			id, batch_id, request_hash, family, lower_bound, upper_bound, target_mass,
			init_guess, fixed_params, status, params, achieved_mass, jacobian,
			iterations, evaluations, diagnostics, error, duration_ms, created_at
		) VALUES (
			:id, :batch_id, :request_hash, :family, :lower_bound, :upper_bound, :target_mass,
			:init_guess, :fixed_params, :status, :params, :achieved_mass, :jacobian,
			:iterations, :evaluations, :diagnostics, :error, :duration_ms, :created_at
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			params = EXCLUDED.params,
			achieved_mass = EXCLUDED.achieved_mass,
			jacobian = EXCLUDED.jacobian,
			iterations = EXCLUDED.iterations,
			evaluations = EXCLUDED.evaluations,
			diagnostics = EXCLUDED.diagnostics,
			error = EXCLUDED.error,
			duration_ms = EXCLUDED.duration_ms
	`, record)
	return err
}

// Get retrieves a calibration by ID
func (r *CalibrationRepositoryImpl) Get(ctx context.Context, id core.CalibrationID) (*models.CalibrationRecord, error) {
	var record models.CalibrationRecord
	err := r.db.GetContext(ctx, &record, `
		SELECT `+calibrationColumns+`
		FROM calibrations
		WHERE id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("calibration", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns the most recent calibrations, newest first
func (r *CalibrationRepositoryImpl) List(ctx context.Context, limit int) ([]*models.CalibrationRecord, error) {
	records := []*models.CalibrationRecord{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT `+calibrationColumns+`
		FROM calibrations
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	return records, err
}

// FindByRequestHash returns the latest successful calibration of an identical request
func (r *CalibrationRepositoryImpl) FindByRequestHash(ctx context.Context, hash core.RequestHash) (*models.CalibrationRecord, error) {
	var record models.CalibrationRecord
	err := r.db.GetContext(ctx, &record, `
		SELECT `+calibrationColumns+`
		FROM calibrations
		WHERE request_hash = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, hash.String(), models.CalibrationSucceeded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("calibration with request hash", hash.String())
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
