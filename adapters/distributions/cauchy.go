package distributions

import (
	"math"

	"gonum.org/v1/gonum/num/dual"

	"priorfit/internal/dualmath"
	"priorfit/ports"
)

// Cauchy has location alpha and scale beta
type Cauchy struct{}

func (Cauchy) Name() string              { return "Cauchy" }
func (Cauchy) Params() []ports.ParamSpec { return scalars("alpha", "beta") }

func (f Cauchy) Dist(params map[string]float64) (ports.Distribution, error) {
	r := newParamReader(f.Name(), params)
	alpha, beta := r.get("alpha"), r.positive("beta")
	if r.err != nil {
		return nil, r.err
	}
	return cauchyDist{Alpha: alpha, Beta: beta}, nil
}

func (f Cauchy) DualLogCDF(params map[string]dual.Number, x float64) (dual.Number, error) {
	r := newDualReader(f.Name(), params)
	alpha, beta := r.get("alpha"), r.positive("beta")
	if r.err != nil {
		return dual.Number{}, r.err
	}
	z := dualmath.Div(dual.Sub(dualmath.Const(x), alpha), beta)
	cdf := dual.Add(dualmath.Const(0.5), dual.Scale(1/math.Pi, dualmath.Atan(z)))
	return dual.Log(cdf), nil
}

type cauchyDist struct {
	Alpha, Beta float64
}

func (d cauchyDist) LogProb(x float64) float64 {
	z := (x - d.Alpha) / d.Beta
	return -math.Log(math.Pi*d.Beta) - math.Log1p(z*z)
}

func (d cauchyDist) LogCDF(x float64) float64 {
	return logCDFFromCDF(0.5 + math.Atan((x-d.Alpha)/d.Beta)/math.Pi)
}
