package app

import (
	"fmt"
	"math"

	"priorfit/domain/core"
	"priorfit/domain/prior"
	"priorfit/ports"
)

// Residual is mass-in-interval minus target mass as a function of the free
// parameter vector. Fixed parameters are closed over.
type Residual struct {
	family   ports.DistributionFamily
	interval prior.Interval
	mass     float64
	free     prior.Assignment // initial guess; names define the vector layout
	fixed    prior.Assignment
}

// BuildResidual validates a calibration request and returns its residual.
// Checks run cheapest first and all of them run before any numerical work:
// mass, interval, parameter shapes, parameter coverage, then the log-CDF
// capability of the distribution built at the initial guess.
func BuildResidual(family ports.DistributionFamily, interval prior.Interval, mass float64,
	free, fixed prior.Assignment, limits prior.Limits) (*Residual, error) {

	if err := limits.CheckMass(mass); err != nil {
		return nil, err
	}
	if err := interval.Validate(); err != nil {
		return nil, err
	}

	specs := family.Params()
	for _, spec := range specs {
		if spec.NDims != 0 {
			return nil, core.NewShapeError(family.Name(), spec.Name, spec.NDims)
		}
	}

	if err := checkCoverage(family.Name(), specs, free, fixed); err != nil {
		return nil, err
	}

	r := &Residual{
		family:   family,
		interval: interval,
		mass:     mass,
		free:     free,
		fixed:    fixed,
	}

	dist, err := family.Dist(r.params(free.Values()))
	if err != nil {
		if core.IsPreconditionError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s rejected the initial parameters: %v", core.ErrInvalidParameter, family.Name(), err)
	}
	if _, ok := dist.(ports.LogCDFer); !ok {
		return nil, core.NewCapabilityError(family.Name(), "log-CDF")
	}

	return r, nil
}

// checkCoverage requires free ∪ fixed to be exactly the family's parameters
func checkCoverage(family string, specs []ports.ParamSpec, free, fixed prior.Assignment) error {
	declared := make(map[string]bool, len(specs))
	for _, spec := range specs {
		declared[spec.Name] = true
	}

	seen := make(map[string]bool, len(free)+len(fixed))
	for _, p := range free.Merge(fixed) {
		if !declared[p.Name] {
			return fmt.Errorf("%w: %s has no parameter %q", core.ErrUnknownParameter, family, p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: %q", core.ErrDuplicateParameter, p.Name)
		}
		seen[p.Name] = true
	}
	for _, spec := range specs {
		if !seen[spec.Name] {
			return fmt.Errorf("%w: %s.%s needs an initial guess or a fixed value", core.ErrMissingParameter, family, spec.Name)
		}
	}

	if len(free) < 1 || len(free) > 2 {
		return fmt.Errorf("%w: got %d, need 1 or 2 (one per interval bound); fix the others", core.ErrFreeParameterCount, len(free))
	}
	return nil
}

// params maps a free-parameter vector back to a full assignment
func (r *Residual) params(x []float64) map[string]float64 {
	m := make(map[string]float64, len(r.free)+len(r.fixed))
	for i, p := range r.free {
		m[p.Name] = x[i]
	}
	for _, p := range r.fixed {
		m[p.Name] = p.Value
	}
	return m
}

// MassAt returns the probability the distribution with params puts in the interval
func (r *Residual) MassAt(params map[string]float64) (float64, error) {
	dist, err := r.family.Dist(params)
	if err != nil {
		return math.NaN(), err
	}
	lc, ok := dist.(ports.LogCDFer)
	if !ok {
		return math.NaN(), core.NewCapabilityError(r.family.Name(), "log-CDF")
	}
	return math.Exp(lc.LogCDF(r.interval.Upper)) - math.Exp(lc.LogCDF(r.interval.Lower)), nil
}

// Eval computes the residual at the free-parameter vector x
func (r *Residual) Eval(x []float64) (float64, error) {
	if len(x) != len(r.free) {
		return math.NaN(), fmt.Errorf("residual expects %d free parameters, got %d", len(r.free), len(x))
	}
	m, err := r.MassAt(r.params(x))
	if err != nil {
		return math.NaN(), err
	}
	return m - r.mass, nil
}

// InitialGuess returns the solver's starting vector
func (r *Residual) InitialGuess() []float64 {
	return r.free.Values()
}

// FreeNames returns the free parameter names in vector order
func (r *Residual) FreeNames() []string {
	return r.free.Names()
}
