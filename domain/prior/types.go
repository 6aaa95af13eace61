package prior

import (
	"fmt"
	"math"
	"sort"

	"priorfit/domain/core"
)

// ============================================================================
// PARAMETER ASSIGNMENTS
// ============================================================================

// Param is one named scalar distribution parameter
type Param struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Assignment is an ordered list of parameter values. For free parameters the
// order defines the layout of the solver's optimization vector.
type Assignment []Param

// P is shorthand for building assignments: prior.Assignment{prior.P("mu", 5)}
func P(name string, value float64) Param {
	return Param{Name: name, Value: value}
}

// FromMap builds an assignment from a map, ordering keys by order. Keys absent
// from order follow in lexical order. Callers that care about solver layout
// should pass the family's declared parameter names.
func FromMap(values map[string]float64, order []string) Assignment {
	out := make(Assignment, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, name := range order {
		if v, ok := values[name]; ok {
			out = append(out, Param{Name: name, Value: v})
			seen[name] = true
		}
	}
	rest := make([]string, 0, len(values)-len(out))
	for name := range values {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, Param{Name: name, Value: values[name]})
	}
	return out
}

// Names returns parameter names in order
func (a Assignment) Names() []string {
	names := make([]string, len(a))
	for i, p := range a {
		names[i] = p.Name
	}
	return names
}

// Values returns parameter values in order
func (a Assignment) Values() []float64 {
	values := make([]float64, len(a))
	for i, p := range a {
		values[i] = p.Value
	}
	return values
}

// Get looks a parameter up by name
func (a Assignment) Get(name string) (float64, bool) {
	for _, p := range a {
		if p.Name == name {
			return p.Value, true
		}
	}
	return 0, false
}

// Has reports whether name is assigned
func (a Assignment) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Map converts the assignment to a plain map
func (a Assignment) Map() map[string]float64 {
	m := make(map[string]float64, len(a))
	for _, p := range a {
		m[p.Name] = p.Value
	}
	return m
}

// WithValues returns a copy of a carrying values in the same order.
func (a Assignment) WithValues(values []float64) Assignment {
	out := make(Assignment, len(a))
	for i, p := range a {
		out[i] = Param{Name: p.Name, Value: values[i]}
	}
	return out
}

// Merge returns a followed by every entry of other. Duplicate detection is the
// caller's job.
func (a Assignment) Merge(other Assignment) Assignment {
	out := make(Assignment, 0, len(a)+len(other))
	out = append(out, a...)
	return append(out, other...)
}

// ============================================================================
// INTERVAL AND LIMITS
// ============================================================================

// Interval is the target probability region [Lower, Upper]
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Validate checks the bounds are finite and ordered
func (iv Interval) Validate() error {
	if math.IsNaN(iv.Lower) || math.IsInf(iv.Lower, 0) || math.IsNaN(iv.Upper) || math.IsInf(iv.Upper, 0) {
		return fmt.Errorf("%w: bounds must be finite, got [%g, %g]", core.ErrInvalidInterval, iv.Lower, iv.Upper)
	}
	if !(iv.Lower < iv.Upper) {
		return fmt.Errorf("%w: lower %g must be below upper %g", core.ErrInvalidInterval, iv.Lower, iv.Upper)
	}
	return nil
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%g, %g]", iv.Lower, iv.Upper)
}

// Default guard-rails for calibration requests
const (
	DefaultMass          = 0.95
	DefaultMinMass       = 0.01
	DefaultMaxMass       = 0.99
	DefaultMassTolerance = 0.01
)

// Limits bounds acceptable target masses and sets the absolute deviation that
// triggers a tolerance warning.
type Limits struct {
	MinMass       float64 `json:"min_mass"`       // exclusive
	MaxMass       float64 `json:"max_mass"`       // exclusive
	MassTolerance float64 `json:"mass_tolerance"` // warn when |achieved-target| >= this
}

// DefaultLimits returns (0.01, 0.99) with a one percentage point tolerance
func DefaultLimits() Limits {
	return Limits{
		MinMass:       DefaultMinMass,
		MaxMass:       DefaultMaxMass,
		MassTolerance: DefaultMassTolerance,
	}
}

// CheckMass rejects masses outside the open interval (MinMass, MaxMass)
func (l Limits) CheckMass(mass float64) error {
	if math.IsNaN(mass) || !(mass > l.MinMass && mass < l.MaxMass) {
		return core.NewMassError(mass, l.MinMass, l.MaxMass)
	}
	return nil
}

// Validate checks the limits are self-consistent
func (l Limits) Validate() error {
	if !(l.MinMass >= 0 && l.MinMass < l.MaxMass && l.MaxMass <= 1) {
		return fmt.Errorf("mass limits must satisfy 0 <= min < max <= 1, got (%g, %g)", l.MinMass, l.MaxMass)
	}
	if !(l.MassTolerance > 0) {
		return fmt.Errorf("mass tolerance must be positive, got %g", l.MassTolerance)
	}
	return nil
}

// ============================================================================
// RESULTS
// ============================================================================

// JacobianKind records how the solver obtained derivatives
type JacobianKind string

const (
	JacobianAnalytic  JacobianKind = "analytic"  // forward-mode automatic differentiation
	JacobianNumerical JacobianKind = "numerical" // two-point finite differences
)

// Severity of an advisory diagnostic
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// DiagnosticCode represents structured diagnostic types
type DiagnosticCode string

const (
	DiagnosticMassTolerance DiagnosticCode = "MASS_TOLERANCE" // realized mass missed the target
	DiagnosticSolverStop    DiagnosticCode = "SOLVER_STOP"    // solver stopped on step or cost stagnation
)

// Diagnostic is an advisory message attached to a successful calibration
type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Code     DiagnosticCode `json:"code"`
	Message  string         `json:"message"`
}

// SolverReport summarizes the least-squares run
type SolverReport struct {
	Status      string  `json:"status"`
	Iterations  int     `json:"iterations"`
	Evaluations int     `json:"evaluations"`
	Cost        float64 `json:"cost"`
}

// Result is the outcome of one calibration call. It is built once and not
// mutated afterwards.
type Result struct {
	Family       string       `json:"family"`
	Interval     Interval     `json:"interval"`
	TargetMass   float64      `json:"target_mass"`
	AchievedMass float64      `json:"achieved_mass"`
	Params       Assignment   `json:"params"` // free (solved) followed by fixed
	Free         []string     `json:"free"`
	Jacobian     JacobianKind `json:"jacobian"`
	Solver       SolverReport `json:"solver"`
	Diagnostics  []Diagnostic `json:"diagnostics,omitempty"`
}

// Map returns the final parameter values keyed by name
func (r *Result) Map() map[string]float64 {
	return r.Params.Map()
}

// Warnings returns only warning-level diagnostics
func (r *Result) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// MassError is |achieved - target|
func (r *Result) MassError() float64 {
	return math.Abs(r.AchievedMass - r.TargetMass)
}
