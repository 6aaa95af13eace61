// Package solver implements a Levenberg–Marquardt nonlinear least-squares
// solver on gonum's dense linear algebra.
package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ResidualFunc writes the m residuals at x into dst
type ResidualFunc func(dst, x []float64) error

// JacobianFunc writes the m×n Jacobian of the residuals at x into dst
type JacobianFunc func(dst *mat.Dense, x []float64) error

// Problem describes min ½‖r(x)‖² over x ∈ ℝⁿ with m residuals
type Problem struct {
	M        int
	Residual ResidualFunc

	// Jacobian is optional; nil selects forward two-point differences
	Jacobian JacobianFunc
}

// Status reports why the solver stopped
type Status int

const (
	NotTerminated Status = iota
	GradientConverged
	FunctionConverged
	StepConverged
	EvaluationLimit
	NonFiniteInitial
	JacobianFailure
)

func (s Status) String() string {
	switch s {
	case NotTerminated:
		return "not_terminated"
	case GradientConverged:
		return "gtol"
	case FunctionConverged:
		return "ftol"
	case StepConverged:
		return "xtol"
	case EvaluationLimit:
		return "max_evaluations"
	case NonFiniteInitial:
		return "non_finite_initial"
	case JacobianFailure:
		return "jacobian_failure"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Converged reports whether a convergence criterion was met
func (s Status) Converged() bool {
	return s == GradientConverged || s == FunctionConverged || s == StepConverged
}

// Result of a solver run
type Result struct {
	X                   []float64
	Residuals           []float64
	Cost                float64 // ½‖r(X)‖²
	Status              Status
	Iterations          int
	Evaluations         int // residual evaluations, excluding finite differences
	JacobianEvaluations int
	Err                 error // cause of NonFiniteInitial or JacobianFailure
}

// Success reports convergence
func (r *Result) Success() bool {
	return r.Status.Converged()
}

const (
	initialDampingScale = 1e-3
	minDampingShrink    = 1.0 / 3
)

// LevenbergMarquardt minimizes ½‖r(x)‖² starting at x0. The damped normal
// equations (JᵀJ + λI)δ = -Jᵀr are solved by Cholesky factorization and λ is
// adapted with Nielsen's gain-ratio rule. Trial points with non-finite or
// failing residuals count as rejected steps.
//
// The returned error is non-nil only for malformed input; non-convergence is
// reported through Result.Status.
func LevenbergMarquardt(p Problem, x0 []float64, settings Settings) (*Result, error) {
	n := len(x0)
	if n == 0 {
		return nil, fmt.Errorf("solver needs at least one unknown")
	}
	if p.M < 1 {
		return nil, fmt.Errorf("solver needs at least one residual, got %d", p.M)
	}
	if p.Residual == nil {
		return nil, fmt.Errorf("solver needs a residual function")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	m := p.M
	res := &Result{}
	x := append([]float64(nil), x0...)
	r := make([]float64, m)

	evaluate := func(dst, at []float64) error {
		res.Evaluations++
		if err := p.Residual(dst, at); err != nil {
			return err
		}
		if !allFinite(dst) {
			return fmt.Errorf("non-finite residual at %v", at)
		}
		return nil
	}

	if err := evaluate(r, x); err != nil {
		res.X, res.Residuals, res.Cost = x, r, math.NaN()
		res.Status, res.Err = NonFiniteInitial, err
		return res, nil
	}
	cost := 0.5 * floats.Dot(r, r)

	jac := mat.NewDense(m, n, nil)
	jacobian := func(at, rAt []float64) error {
		res.JacobianEvaluations++
		if p.Jacobian != nil {
			if err := p.Jacobian(jac, at); err != nil {
				return err
			}
		} else {
			fd.Jacobian(jac, func(y, xx []float64) {
				if err := p.Residual(y, xx); err != nil {
					for i := range y {
						y[i] = math.NaN()
					}
				}
			}, at, &fd.JacobianSettings{
				Formula:     fd.Forward,
				OriginValue: rAt,
				Step:        settings.FDStep,
			})
		}
		if !allFinite(jac.RawMatrix().Data) {
			return fmt.Errorf("non-finite Jacobian at %v", at)
		}
		return nil
	}

	maxEval := settings.maxEvaluations(n)
	jtj := mat.NewSymDense(n, nil)
	g := mat.NewVecDense(n, nil)
	damped := mat.NewSymDense(n, nil)
	step := mat.NewVecDense(n, nil)
	xNew := make([]float64, n)
	rNew := make([]float64, m)

	lambda, nu := 0.0, 2.0
	needJacobian := true

	for res.Status == NotTerminated {
		if needJacobian {
			if err := jacobian(x, r); err != nil {
				res.Status, res.Err = JacobianFailure, err
				break
			}
			jtj.SymOuterK(1, jac.T())
			g.MulVec(jac.T(), mat.NewVecDense(m, r))
			if floats.Norm(g.RawVector().Data, math.Inf(1)) <= settings.GTol {
				res.Status = GradientConverged
				break
			}
			if lambda == 0 {
				lambda = initialDampingScale * maxDiag(jtj)
				if lambda == 0 {
					lambda = initialDampingScale
				}
			}
			needJacobian = false
		}

		if res.Evaluations >= maxEval || res.Iterations >= maxEval || math.IsInf(lambda, 1) {
			res.Status = EvaluationLimit
			break
		}
		res.Iterations++

		damped.CopySym(jtj)
		for i := 0; i < n; i++ {
			damped.SetSym(i, i, damped.At(i, i)+lambda)
		}
		var chol mat.Cholesky
		if !chol.Factorize(damped) {
			lambda, nu = lambda*nu, nu*2
			continue
		}
		if err := chol.SolveVecTo(step, g); err != nil {
			lambda, nu = lambda*nu, nu*2
			continue
		}
		step.ScaleVec(-1, step)

		h := step.RawVector().Data
		if floats.Norm(h, 2) <= settings.XTol*(floats.Norm(x, 2)+settings.XTol) {
			res.Status = StepConverged
			break
		}

		floats.AddTo(xNew, x, h)
		if err := evaluate(rNew, xNew); err != nil {
			lambda, nu = lambda*nu, nu*2
			continue
		}
		costNew := 0.5 * floats.Dot(rNew, rNew)

		// L(0) - L(h) for the linear model, = ½hᵀ(λh - g)
		predicted := 0.5 * (lambda*floats.Dot(h, h) - floats.Dot(h, g.RawVector().Data))
		actual := cost - costNew
		if predicted > 0 && actual > 0 {
			rho := actual / predicted
			previous := cost
			copy(x, xNew)
			copy(r, rNew)
			cost = costNew
			lambda *= math.Max(minDampingShrink, 1-math.Pow(2*rho-1, 3))
			nu = 2
			needJacobian = true
			if actual <= settings.FTol*previous {
				res.Status = FunctionConverged
			}
			continue
		}
		lambda, nu = lambda*nu, nu*2
	}

	res.X, res.Residuals, res.Cost = x, r, cost
	return res, nil
}

func allFinite(v []float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func maxDiag(s *mat.SymDense) float64 {
	n := s.SymmetricDim()
	best := 0.0
	for i := 0; i < n; i++ {
		best = math.Max(best, s.At(i, i))
	}
	return best
}
