package distributions

import (
	"math"

	"gonum.org/v1/gonum/num/dual"
	"gonum.org/v1/gonum/stat/distuv"

	"priorfit/internal/dualmath"
	"priorfit/ports"
)

// Exponential is parameterized by its rate lam
type Exponential struct{}

func (Exponential) Name() string              { return "Exponential" }
func (Exponential) Params() []ports.ParamSpec { return scalars("lam") }

func (f Exponential) Dist(params map[string]float64) (ports.Distribution, error) {
	r := newParamReader(f.Name(), params)
	lam := r.positive("lam")
	if r.err != nil {
		return nil, r.err
	}
	return exponentialDist{distuv.Exponential{Rate: lam}}, nil
}

func (f Exponential) DualLogCDF(params map[string]dual.Number, x float64) (dual.Number, error) {
	r := newDualReader(f.Name(), params)
	lam := r.positive("lam")
	if r.err != nil {
		return dual.Number{}, r.err
	}
	if x <= 0 {
		return dualmath.NegInf(), nil
	}
	// log(1 - exp(-λx))
	return dualmath.Log1mExp(dual.Scale(-x, lam)), nil
}

type exponentialDist struct {
	distuv.Exponential
}

func (d exponentialDist) LogCDF(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return dualmath.Log1mExp(dualmath.Const(-d.Rate * x)).Real
}
