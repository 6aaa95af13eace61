package app

import (
	"context"
	"fmt"
	"time"

	"priorfit/domain/core"
	"priorfit/domain/prior"
	"priorfit/internal"
	"priorfit/internal/solver"
	"priorfit/models"
	"priorfit/ports"
)

// CalibrationRequest is a calibration addressed by family name, as it arrives
// from the CLI, a batch workbook or the HTTP API
type CalibrationRequest struct {
	Family      string             `json:"family" binding:"required"`
	Lower       float64            `json:"lower"`
	Upper       float64            `json:"upper"`
	Mass        *float64           `json:"mass,omitempty"`
	InitGuess   map[string]float64 `json:"init_guess" binding:"required"`
	FixedParams map[string]float64 `json:"fixed_params,omitempty"`

	// Reuse answers from history when an identical request already succeeded
	Reuse bool `json:"reuse,omitempty"`
}

// CalibrationSettings are the service-wide defaults applied to every request
type CalibrationSettings struct {
	DefaultMass float64
	Limits      prior.Limits
	Solver      solver.Settings
}

// DefaultCalibrationSettings returns mass 0.95 with stock limits and solver tolerances
func DefaultCalibrationSettings() CalibrationSettings {
	return CalibrationSettings{
		DefaultMass: prior.DefaultMass,
		Limits:      prior.DefaultLimits(),
		Solver:      solver.DefaultSettings(),
	}
}

// FamilyDescription is the public view of a registered family
type FamilyDescription struct {
	Name     string   `json:"name"`
	Params   []string `json:"params"`
	Analytic bool     `json:"analytic_jacobian"`
}

// CalibrationService resolves families by name, runs calibrations and keeps
// their history
type CalibrationService struct {
	registry ports.FamilyRegistry
	repo     ports.CalibrationRepository
	settings CalibrationSettings
	logger   *internal.Logger
	now      func() time.Time
}

// NewCalibrationService creates a calibration service. repo may be nil, in
// which case nothing is persisted.
func NewCalibrationService(registry ports.FamilyRegistry, repo ports.CalibrationRepository, settings CalibrationSettings, logger *internal.Logger) *CalibrationService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CalibrationService{
		registry: registry,
		repo:     repo,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Calibrate runs one request. Unknown families and malformed requests fail
// before anything is recorded; every attempted calibration is saved, and a
// failed one is returned together with its error.
func (s *CalibrationService) Calibrate(ctx context.Context, req CalibrationRequest) (*models.CalibrationRecord, error) {
	return s.calibrate(ctx, req, nil)
}

func (s *CalibrationService) calibrate(ctx context.Context, req CalibrationRequest, batchID *core.BatchID) (*models.CalibrationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	family, err := s.registry.Family(req.Family)
	if err != nil {
		return nil, err
	}

	mass := s.settings.DefaultMass
	if req.Mass != nil {
		mass = *req.Mass
	}
	order := paramNames(family)
	free := prior.FromMap(req.InitGuess, order)
	fixed := prior.FromMap(req.FixedParams, order)
	hash := core.ComputeRequestHash(family.Name(), req.Lower, req.Upper, mass, free.Names(), free.Values(), req.FixedParams)

	if req.Reuse && s.repo != nil {
		cached, err := s.repo.FindByRequestHash(ctx, hash)
		switch {
		case err == nil:
			s.logger.Debug("reusing calibration %s for %s", cached.ID, family.Name())
			cached.Cached = true
			return cached, nil
		case !core.IsNotFoundError(err):
			s.logger.Warn("calibration history lookup failed: %v", err)
		}
	}

	start := s.now()
	result, calErr := FindOptimPrior(family, req.Lower, req.Upper, free,
		WithFixed(fixed),
		WithMass(mass),
		WithLimits(s.settings.Limits),
		WithSolverSettings(s.settings.Solver),
		WithLogger(s.logger),
	)

	record := &models.CalibrationRecord{
		ID:          core.NewCalibrationID().String(),
		RequestHash: hash.String(),
		Family:      family.Name(),
		Lower:       req.Lower,
		Upper:       req.Upper,
		TargetMass:  mass,
		InitGuess:   models.JSONBAssignment(free),
		FixedParams: models.JSONBAssignment(fixed),
		DurationMS:  float64(s.now().Sub(start).Microseconds()) / 1000,
		CreatedAt:   start.UTC(),
	}
	if batchID != nil {
		id := batchID.String()
		record.BatchID = &id
	}
	if calErr != nil {
		record.Status = models.CalibrationFailed
		record.Error = calErr.Error()
	} else {
		achieved := result.AchievedMass
		record.Status = models.CalibrationSucceeded
		record.Params = models.JSONBAssignment(result.Params)
		record.AchievedMass = &achieved
		record.Jacobian = string(result.Jacobian)
		record.Iterations = result.Solver.Iterations
		record.Evaluations = result.Solver.Evaluations
		record.Diagnostics = models.JSONBDiagnostics(result.Diagnostics)
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, record); err != nil {
			return record, fmt.Errorf("failed to save calibration %s: %w", record.ID, err)
		}
	}

	return record, calErr
}

// Get retrieves a stored calibration
func (s *CalibrationService) Get(ctx context.Context, id core.CalibrationID) (*models.CalibrationRecord, error) {
	if s.repo == nil {
		return nil, core.NewNotFoundError("calibration", id.String())
	}
	return s.repo.Get(ctx, id)
}

// List returns recent calibrations, newest first
func (s *CalibrationService) List(ctx context.Context, limit int) ([]*models.CalibrationRecord, error) {
	if s.repo == nil {
		return []*models.CalibrationRecord{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}

// Families describes every registered family
func (s *CalibrationService) Families() []FamilyDescription {
	names := s.registry.Names()
	out := make([]FamilyDescription, 0, len(names))
	for _, name := range names {
		family, err := s.registry.Family(name)
		if err != nil {
			continue
		}
		_, analytic := family.(ports.DualLogCDFer)
		out = append(out, FamilyDescription{
			Name:     family.Name(),
			Params:   paramNames(family),
			Analytic: analytic,
		})
	}
	return out
}
