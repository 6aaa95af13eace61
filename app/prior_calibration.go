package app

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"priorfit/domain/core"
	"priorfit/domain/prior"
	"priorfit/internal"
	"priorfit/internal/solver"
	"priorfit/ports"
)

// calibrationOptions collects FindOptimPrior settings
type calibrationOptions struct {
	mass     float64
	fixed    prior.Assignment
	fixedMap map[string]float64
	limits   prior.Limits
	solver   solver.Settings
	logger   *internal.Logger
}

// Option configures a single calibration
type Option func(*calibrationOptions)

// WithMass sets the target probability (default 0.95)
func WithMass(mass float64) Option {
	return func(o *calibrationOptions) { o.mass = mass }
}

// WithFixed pins parameters the solver must not touch
func WithFixed(fixed prior.Assignment) Option {
	return func(o *calibrationOptions) { o.fixed = fixed }
}

// WithFixedMap is WithFixed for a plain map
func WithFixedMap(fixed map[string]float64) Option {
	return func(o *calibrationOptions) { o.fixedMap = fixed }
}

// WithLimits overrides the mass guard-rails and tolerance
func WithLimits(limits prior.Limits) Option {
	return func(o *calibrationOptions) { o.limits = limits }
}

// WithSolverSettings overrides the least-squares tolerances and budget
func WithSolverSettings(settings solver.Settings) Option {
	return func(o *calibrationOptions) { o.solver = settings }
}

// WithLogger routes debug output and tolerance warnings
func WithLogger(logger *internal.Logger) Option {
	return func(o *calibrationOptions) { o.logger = logger }
}

// FindOptimPrior finds parameters of family putting mass of its probability
// between lower and upper. initGuess names the free parameters, in solver
// order, and their starting values; every other parameter of the family must
// be pinned with WithFixed or WithFixedMap.
//
// Precondition violations, a missing log-CDF capability and solver
// non-convergence are errors. A converged solution that misses the target by
// the tolerance or more is returned with a warning diagnostic.
func FindOptimPrior(family ports.DistributionFamily, lower, upper float64, initGuess prior.Assignment, opts ...Option) (*prior.Result, error) {
	o := calibrationOptions{
		mass:   prior.DefaultMass,
		limits: prior.DefaultLimits(),
		solver: solver.DefaultSettings(),
		logger: internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.limits.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidLimits, err)
	}

	fixed := o.fixed
	if o.fixedMap != nil {
		fixed = fixed.Merge(prior.FromMap(o.fixedMap, paramNames(family)))
	}

	residual, err := BuildResidual(family, prior.Interval{Lower: lower, Upper: upper}, o.mass, initGuess, fixed, o.limits)
	if err != nil {
		return nil, err
	}

	x0 := residual.InitialGuess()
	jac := ProvideJacobian(residual, x0, o.logger)

	sol, err := solve(residual, jac, x0, o.solver)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("%s calibrated in %d iterations (%d evaluations, %s jacobian, stop=%s)",
		family.Name(), sol.Iterations, sol.Evaluations, jac.Kind, sol.Status)

	return assemble(residual, sol, jac, o.limits, o.logger)
}

// FindOptimPriorMap is FindOptimPrior with the free parameters given as a map;
// solver order follows the family's declared parameter order.
func FindOptimPriorMap(family ports.DistributionFamily, lower, upper float64, initGuess map[string]float64, opts ...Option) (*prior.Result, error) {
	return FindOptimPrior(family, lower, upper, prior.FromMap(initGuess, paramNames(family)), opts...)
}

// solve runs Levenberg–Marquardt on the single-equation residual
func solve(r *Residual, jac Jacobian, x0 []float64, settings solver.Settings) (*solver.Result, error) {
	problem := solver.Problem{
		M: 1,
		Residual: func(dst, x []float64) error {
			v, err := r.Eval(x)
			dst[0] = v
			return err
		},
	}
	if jac.Kind == prior.JacobianAnalytic {
		row := make([]float64, len(x0))
		problem.Jacobian = func(dst *mat.Dense, x []float64) error {
			if err := jac.Eval(row, x); err != nil {
				return err
			}
			dst.SetRow(0, row)
			return nil
		}
	}

	sol, err := solver.LevenbergMarquardt(problem, x0, settings)
	if err != nil {
		return nil, core.NewOptimizationError("invalid_solver_input", err)
	}
	if !sol.Success() {
		return nil, core.NewOptimizationError(sol.Status.String(), sol.Err)
	}
	return sol, nil
}

func paramNames(family ports.DistributionFamily) []string {
	specs := family.Params()
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	return names
}
