package ports

import (
	"context"

	"priorfit/domain/core"
	"priorfit/models"
)

// CalibrationRepository persists calibration runs
type CalibrationRepository interface {
	// Save stores a finished calibration, successful or not
	Save(ctx context.Context, record *models.CalibrationRecord) error

	// Get retrieves a calibration by ID
	Get(ctx context.Context, id core.CalibrationID) (*models.CalibrationRecord, error)

	// List returns the most recent calibrations, newest first
	List(ctx context.Context, limit int) ([]*models.CalibrationRecord, error)

	// FindByRequestHash returns the latest successful calibration of an identical request
	FindByRequestHash(ctx context.Context, hash core.RequestHash) (*models.CalibrationRecord, error)
}
