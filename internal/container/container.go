package container

import (
	"context"
	"fmt"

	"priorfit/adapters/distributions"
	"priorfit/adapters/memory"
	"priorfit/adapters/postgres"
	"priorfit/app"
	"priorfit/internal"
	"priorfit/internal/api"
	"priorfit/internal/config"
	"priorfit/internal/errors"
	"priorfit/internal/migration"
	"priorfit/ports"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure; DB is nil when no DATABASE_URL is configured
	DB *sqlx.DB

	Registry        *distributions.Registry
	CalibrationRepo ports.CalibrationRepository

	Calibrations *app.CalibrationService
	Batches      *app.BatchService
}

// New creates a container backed by the in-memory history store. Call
// InitWithDatabase to switch to PostgreSQL.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:   cfg,
		Logger:   internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)),
		Registry: distributions.Default(),
	}
	c.wire(memory.NewCalibrationRepository())
	return c, nil
}

// Connect opens the configured database, runs migrations and rewires the
// services onto it. It is a no-op without a database URL.
func (c *Container) Connect(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		c.Logger.Info("DATABASE_URL not set; calibration history is kept in memory")
		return nil
	}

	db, err := sqlx.Connect("postgres", c.Config.Database.URL)
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)

	return c.InitWithDatabase(ctx, db)
}

// InitWithDatabase migrates db and switches history to PostgreSQL
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("database connection test failed", err)
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.wire(postgres.NewCalibrationRepository(db))
	c.Logger.Info("calibration history stored in PostgreSQL (schema %s)", migrator.Version())
	return nil
}

func (c *Container) wire(repo ports.CalibrationRepository) {
	c.CalibrationRepo = repo
	c.Calibrations = app.NewCalibrationService(c.Registry, repo, app.CalibrationSettings{
		DefaultMass: c.Config.Calibration.DefaultMass,
		Limits:      c.Config.Calibration.Limits,
		Solver:      c.Config.Solver,
	}, c.Logger)
	c.Batches = app.NewBatchService(c.Calibrations, c.Config.Batch.Workers, c.Logger).
		WithTimeout(c.Config.Batch.Timeout)
}

// Router builds the HTTP API
func (c *Container) Router() *gin.Engine {
	gin.SetMode(c.Config.Server.GinMode)
	handler := api.NewCalibrationHandler(c.Calibrations, c.Batches, c.Logger)
	return api.NewRouter(handler, c.Logger)
}

// Shutdown releases held resources
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
