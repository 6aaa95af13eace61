// Package memory provides process-local repository implementations used when
// no database is configured, and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"priorfit/domain/core"
	"priorfit/models"
	"priorfit/ports"
)

// calibrationRepository keeps calibration records in a map
type calibrationRepository struct {
	mu      sync.RWMutex
	records map[string]*models.CalibrationRecord
	order   []string // insertion order
}

// NewCalibrationRepository creates an empty in-memory calibration repository
func NewCalibrationRepository() ports.CalibrationRepository {
	return &calibrationRepository{
		records: make(map[string]*models.CalibrationRecord),
	}
}

// Save stores a copy of the record
func (r *calibrationRepository) Save(ctx context.Context, record *models.CalibrationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.ID]; !exists {
		r.order = append(r.order, record.ID)
	}
	stored := *record
	stored.Cached = false
	r.records[record.ID] = &stored
	return nil
}

// Get retrieves a calibration by ID
func (r *calibrationRepository) Get(ctx context.Context, id core.CalibrationID) (*models.CalibrationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id.String()]
	if !ok {
		return nil, core.NewNotFoundError("calibration", id.String())
	}
	out := *record
	return &out, nil
}

// List returns the most recent calibrations, newest first
func (r *calibrationRepository) List(ctx context.Context, limit int) ([]*models.CalibrationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.CalibrationRecord, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		record := *r.records[r.order[i]]
		out = append(out, &record)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FindByRequestHash returns the latest successful calibration with the given hash
func (r *calibrationRepository) FindByRequestHash(ctx context.Context, hash core.RequestHash) (*models.CalibrationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		record := r.records[r.order[i]]
		if record.RequestHash == hash.String() && record.Succeeded() {
			out := *record
			return &out, nil
		}
	}
	return nil, core.NewNotFoundError("calibration with request hash", hash.String())
}
