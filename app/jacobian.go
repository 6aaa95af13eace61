package app

import (
	"fmt"

	"gonum.org/v1/gonum/num/dual"

	"priorfit/domain/prior"
	"priorfit/internal"
	"priorfit/internal/dualmath"
	"priorfit/ports"
)

// Jacobian is the derivative strategy handed to the solver: an analytic
// gradient of the residual, or a request for numerical differencing (Eval nil).
type Jacobian struct {
	Kind prior.JacobianKind
	Eval func(dst, x []float64) error
}

// numericalJacobian is the fallback strategy
func numericalJacobian() Jacobian {
	return Jacobian{Kind: prior.JacobianNumerical}
}

// ProvideJacobian tries to differentiate the residual with forward-mode dual
// numbers. If the family has no dual log-CDF, or the probe at x0 fails for any
// reason, the numerical strategy is returned instead; that fallback is never an
// error.
func ProvideJacobian(r *Residual, x0 []float64, logger *internal.Logger) Jacobian {
	dualFamily, ok := r.family.(ports.DualLogCDFer)
	if !ok {
		logger.Debug("%s has no dual log-CDF; using finite differences", r.family.Name())
		return numericalJacobian()
	}

	eval := func(dst, x []float64) error {
		return residualGradient(r, dualFamily, dst, x)
	}

	probe := make([]float64, len(x0))
	if err := eval(probe, x0); err != nil {
		logger.Debug("automatic differentiation unavailable for %s: %v; using finite differences", r.family.Name(), err)
		return numericalJacobian()
	}
	return Jacobian{Kind: prior.JacobianAnalytic, Eval: eval}
}

// residualGradient writes d residual / d x_i for every free parameter, one
// dual pass per parameter:
// d/dx [exp(l_u) - exp(l_l)] = exp(l_u)·l_u' - exp(l_l)·l_l'
func residualGradient(r *Residual, family ports.DualLogCDFer, dst, x []float64) error {
	for i := range r.free {
		params := make(map[string]dual.Number, len(r.free)+len(r.fixed))
		for j, p := range r.free {
			v := dual.Number{Real: x[j]}
			if i == j {
				v.Emag = 1
			}
			params[p.Name] = v
		}
		for _, p := range r.fixed {
			params[p.Name] = dualmath.Const(p.Value)
		}

		upper, err := family.DualLogCDF(params, r.interval.Upper)
		if err != nil {
			return err
		}
		lower, err := family.DualLogCDF(params, r.interval.Lower)
		if err != nil {
			return err
		}

		d := dual.Sub(dual.Exp(upper), dual.Exp(lower))
		if !dualmath.IsFinite(d) {
			return fmt.Errorf("non-finite derivative with respect to %s", r.free[i].Name)
		}
		dst[i] = d.Emag
	}
	return nil
}
