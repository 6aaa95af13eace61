package distributions

import (
	"math"

	"gonum.org/v1/gonum/num/dual"
	"gonum.org/v1/gonum/stat/distuv"

	"priorfit/internal/dualmath"
	"priorfit/ports"
)

// Weibull has shape alpha and scale beta
type Weibull struct{}

func (Weibull) Name() string              { return "Weibull" }
func (Weibull) Params() []ports.ParamSpec { return scalars("alpha", "beta") }

func (f Weibull) Dist(params map[string]float64) (ports.Distribution, error) {
	r := newParamReader(f.Name(), params)
	alpha, beta := r.positive("alpha"), r.positive("beta")
	if r.err != nil {
		return nil, r.err
	}
	return weibullDist{distuv.Weibull{K: alpha, Lambda: beta}}, nil
}

func (f Weibull) DualLogCDF(params map[string]dual.Number, x float64) (dual.Number, error) {
	r := newDualReader(f.Name(), params)
	alpha, beta := r.positive("alpha"), r.positive("beta")
	if r.err != nil {
		return dual.Number{}, r.err
	}
	if x <= 0 {
		return dualmath.NegInf(), nil
	}
	// F = 1 - exp(-(x/β)^α), (x/β)^α = exp(α(log x - log β))
	logRatio := dual.Sub(dualmath.Const(math.Log(x)), dual.Log(beta))
	u := dual.Exp(dual.Mul(alpha, logRatio))
	return dualmath.Log1mExp(dual.Scale(-1, u)), nil
}

type weibullDist struct {
	distuv.Weibull
}

func (d weibullDist) LogCDF(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return dualmath.Log1mExp(dualmath.Const(-math.Pow(x/d.Lambda, d.K))).Real
}
