package app

import (
	"fmt"
	"math"

	"priorfit/domain/core"
	"priorfit/domain/prior"
	"priorfit/internal"
	"priorfit/internal/solver"
)

// assemble merges the solved free values with the fixed ones, re-evaluates the
// mass actually achieved and attaches advisory diagnostics. A tolerance miss
// is a warning, never an error.
func assemble(r *Residual, sol *solver.Result, jac Jacobian, limits prior.Limits, logger *internal.Logger) (*prior.Result, error) {
	free := r.free.WithValues(sol.X)
	params := free.Merge(r.fixed)

	achieved, err := r.MassAt(params.Map())
	if err != nil {
		return nil, core.NewOptimizationError(sol.Status.String(), fmt.Errorf("re-evaluating mass at solution: %w", err))
	}

	result := &prior.Result{
		Family:       r.family.Name(),
		Interval:     r.interval,
		TargetMass:   r.mass,
		AchievedMass: achieved,
		Params:       params,
		Free:         r.FreeNames(),
		Jacobian:     jac.Kind,
		Solver: prior.SolverReport{
			Status:      sol.Status.String(),
			Iterations:  sol.Iterations,
			Evaluations: sol.Evaluations,
			Cost:        sol.Cost,
		},
	}

	if sol.Status != solver.GradientConverged {
		result.Diagnostics = append(result.Diagnostics, prior.Diagnostic{
			Severity: prior.SeverityInfo,
			Code:     prior.DiagnosticSolverStop,
			Message:  fmt.Sprintf("solver stopped on %s after %d iterations", sol.Status, sol.Iterations),
		})
	}

	if math.Abs(achieved-r.mass) >= limits.MassTolerance {
		msg := fmt.Sprintf("Final optimization has %.0f%% of probability mass between %g and %g instead of the requested %.0f%%. "+
			"You may need a more flexible distribution, different fixed parameters, or better initial guesses.",
			achieved*100, r.interval.Lower, r.interval.Upper, r.mass*100)
		result.Diagnostics = append(result.Diagnostics, prior.Diagnostic{
			Severity: prior.SeverityWarning,
			Code:     prior.DiagnosticMassTolerance,
			Message:  msg,
		})
		logger.Warn("%s: %s", r.family.Name(), msg)
	}

	return result, nil
}
