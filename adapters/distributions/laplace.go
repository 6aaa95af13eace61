package distributions

import (
	"math"

	"gonum.org/v1/gonum/num/dual"
	"gonum.org/v1/gonum/stat/distuv"

	"priorfit/internal/dualmath"
	"priorfit/ports"
)

// Laplace is the double exponential family with location mu and scale b
type Laplace struct{}

func (Laplace) Name() string              { return "Laplace" }
func (Laplace) Params() []ports.ParamSpec { return scalars("mu", "b") }

func (f Laplace) Dist(params map[string]float64) (ports.Distribution, error) {
	r := newParamReader(f.Name(), params)
	mu, b := r.get("mu"), r.positive("b")
	if r.err != nil {
		return nil, r.err
	}
	return laplaceDist{distuv.Laplace{Mu: mu, Scale: b}}, nil
}

func (f Laplace) DualLogCDF(params map[string]dual.Number, x float64) (dual.Number, error) {
	r := newDualReader(f.Name(), params)
	mu, b := r.get("mu"), r.positive("b")
	if r.err != nil {
		return dual.Number{}, r.err
	}
	z := dualmath.Div(dual.Sub(dualmath.Const(x), mu), b)
	return laplaceLogCDF(z), nil
}

// laplaceLogCDF is log F for the standard Laplace:
// z + log ½ below zero, log(1 - ½e^{-z}) above
func laplaceLogCDF(z dual.Number) dual.Number {
	if z.Real < 0 {
		return dual.Add(z, dualmath.Const(-math.Ln2))
	}
	return dualmath.Log1mExp(dual.Sub(dualmath.Const(-math.Ln2), z))
}

type laplaceDist struct {
	distuv.Laplace
}

func (d laplaceDist) LogCDF(x float64) float64 {
	return laplaceLogCDF(dualmath.Const((x - d.Mu) / d.Scale)).Real
}
