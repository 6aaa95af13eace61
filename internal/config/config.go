package config

import (
	"os"
	"strconv"
	"time"

	"priorfit/domain/prior"
	"priorfit/internal/errors"
	"priorfit/internal/solver"
)

// Config represents the complete application configuration
type Config struct {
	Calibration CalibrationConfig
	Solver      solver.Settings
	Batch       BatchConfig
	Server      ServerConfig
	Database    DatabaseConfig
	LogLevel    string
}

// CalibrationConfig holds the default target mass and its guard-rails
type CalibrationConfig struct {
	DefaultMass float64
	Limits      prior.Limits
}

// BatchConfig holds batch calibration settings
type BatchConfig struct {
	Workers int
	Timeout time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds the optional history database; an empty URL selects
// the in-memory store
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Calibration: loadCalibrationConfig(),
		Solver:      loadSolverConfig(),
		Batch:       loadBatchConfig(),
		Server:      loadServerConfig(),
		Database:    loadDatabaseConfig(),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		DefaultMass: getEnvFloatOrDefault("PRIOR_DEFAULT_MASS", prior.DefaultMass),
		Limits: prior.Limits{
			MinMass:       getEnvFloatOrDefault("PRIOR_MIN_MASS", prior.DefaultMinMass),
			MaxMass:       getEnvFloatOrDefault("PRIOR_MAX_MASS", prior.DefaultMaxMass),
			MassTolerance: getEnvFloatOrDefault("PRIOR_MASS_TOLERANCE", prior.DefaultMassTolerance),
		},
	}
}

func loadSolverConfig() solver.Settings {
	defaults := solver.DefaultSettings()
	return solver.Settings{
		FTol:           getEnvFloatOrDefault("SOLVER_FTOL", defaults.FTol),
		XTol:           getEnvFloatOrDefault("SOLVER_XTOL", defaults.XTol),
		GTol:           getEnvFloatOrDefault("SOLVER_GTOL", defaults.GTol),
		MaxEvaluations: getEnvIntOrDefault("SOLVER_MAX_EVALUATIONS", defaults.MaxEvaluations),
		FDStep:         defaults.FDStep,
	}
}

func loadBatchConfig() BatchConfig {
	return BatchConfig{
		Workers: getEnvIntOrDefault("BATCH_WORKERS", 4),
		Timeout: getEnvDurationOrDefault("BATCH_TIMEOUT", 5*time.Minute),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		ConnMaxLifetime: getEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

func validateConfig(config *Config) error {
	if err := config.Calibration.Limits.Validate(); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if err := config.Calibration.Limits.CheckMass(config.Calibration.DefaultMass); err != nil {
		return errors.ConfigInvalid("PRIOR_DEFAULT_MASS: " + err.Error())
	}
	if err := config.Solver.Validate(); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if config.Batch.Workers < 1 {
		return errors.ConfigInvalid("BATCH_WORKERS must be at least 1")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
