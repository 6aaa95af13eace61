package solver

import "fmt"

// Default tolerances, matching common trust-region least-squares defaults
const (
	DefaultFTol = 1e-8
	DefaultXTol = 1e-8
	DefaultGTol = 1e-8

	// DefaultEvaluationsPerParam scales the evaluation budget with the number of unknowns
	DefaultEvaluationsPerParam = 100
)

// Settings controls convergence and the evaluation budget
type Settings struct {
	FTol float64 // relative reduction of the cost
	XTol float64 // relative step size
	GTol float64 // infinity norm of the gradient Jᵀr

	// MaxEvaluations caps residual evaluations; zero means 100 per unknown
	MaxEvaluations int

	// FDStep is the finite difference step for numerical Jacobians; zero picks
	// gonum's default for the forward formula
	FDStep float64
}

// DefaultSettings returns the stock tolerances
func DefaultSettings() Settings {
	return Settings{
		FTol: DefaultFTol,
		XTol: DefaultXTol,
		GTol: DefaultGTol,
	}
}

// Validate rejects negative tolerances and budgets
func (s Settings) Validate() error {
	if s.FTol < 0 || s.XTol < 0 || s.GTol < 0 {
		return fmt.Errorf("solver tolerances must be non-negative (ftol=%g xtol=%g gtol=%g)", s.FTol, s.XTol, s.GTol)
	}
	if s.FTol == 0 && s.XTol == 0 && s.GTol == 0 {
		return fmt.Errorf("at least one solver tolerance must be positive")
	}
	if s.MaxEvaluations < 0 {
		return fmt.Errorf("max evaluations must be non-negative, got %d", s.MaxEvaluations)
	}
	if s.FDStep < 0 {
		return fmt.Errorf("finite difference step must be non-negative, got %g", s.FDStep)
	}
	return nil
}

func (s Settings) maxEvaluations(n int) int {
	if s.MaxEvaluations > 0 {
		return s.MaxEvaluations
	}
	return DefaultEvaluationsPerParam * n
}
