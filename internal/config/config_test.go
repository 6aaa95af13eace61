package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priorfit/domain/prior"
	"priorfit/internal/errors"
	"priorfit/internal/solver"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PRIOR_DEFAULT_MASS", "PRIOR_MIN_MASS", "PRIOR_MAX_MASS", "PRIOR_MASS_TOLERANCE",
		"SOLVER_FTOL", "SOLVER_XTOL", "SOLVER_GTOL", "SOLVER_MAX_EVALUATIONS", "BATCH_WORKERS", "BATCH_TIMEOUT",
		"PORT", "GIN_MODE", "DATABASE_URL", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, prior.DefaultMass, cfg.Calibration.DefaultMass)
	assert.Equal(t, prior.DefaultLimits(), cfg.Calibration.Limits)
	assert.Equal(t, solver.DefaultSettings(), cfg.Solver)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Batch.Timeout)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PRIOR_DEFAULT_MASS", "0.9")
	t.Setenv("PRIOR_MIN_MASS", "0.001")
	t.Setenv("PRIOR_MAX_MASS", "0.999")
	t.Setenv("SOLVER_MAX_EVALUATIONS", "500")
	t.Setenv("BATCH_WORKERS", "8")
	t.Setenv("DATABASE_URL", "postgres://localhost/priors?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Calibration.DefaultMass)
	assert.Equal(t, 0.001, cfg.Calibration.Limits.MinMass)
	assert.Equal(t, 0.999, cfg.Calibration.Limits.MaxMass)
	assert.Equal(t, 500, cfg.Solver.MaxEvaluations)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.True(t, cfg.Database.Enabled())
}

func TestLoadRejectsInconsistentSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"default mass outside limits", "PRIOR_DEFAULT_MASS", "0.995"},
		{"inverted limits", "PRIOR_MIN_MASS", "0.999"},
		{"negative tolerance", "SOLVER_GTOL", "-1"},
		{"no workers", "BATCH_WORKERS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestUnparseableValuesFallBack(t *testing.T) {
	t.Setenv("BATCH_WORKERS", "many")
	t.Setenv("PRIOR_DEFAULT_MASS", "most")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, prior.DefaultMass, cfg.Calibration.DefaultMass)
}
