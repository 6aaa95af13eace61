package distributions

import (
	"math"

	"gonum.org/v1/gonum/num/dual"

	"priorfit/internal/dualmath"
	"priorfit/ports"
)

// HalfNormal is a zero-mean Normal folded onto [0, ∞)
type HalfNormal struct{}

func (HalfNormal) Name() string              { return "HalfNormal" }
func (HalfNormal) Params() []ports.ParamSpec { return scalars("sigma") }

func (f HalfNormal) Dist(params map[string]float64) (ports.Distribution, error) {
	r := newParamReader(f.Name(), params)
	sigma := r.positive("sigma")
	if r.err != nil {
		return nil, r.err
	}
	return halfNormalDist{Sigma: sigma}, nil
}

func (f HalfNormal) DualLogCDF(params map[string]dual.Number, x float64) (dual.Number, error) {
	r := newDualReader(f.Name(), params)
	sigma := r.positive("sigma")
	if r.err != nil {
		return dual.Number{}, r.err
	}
	if x <= 0 {
		return dualmath.NegInf(), nil
	}
	// F(x) = erf(t), t = x/(σ√2)
	t := dualmath.Div(dualmath.Const(x/math.Sqrt2), sigma)
	erf := math.Erf(t.Real)
	return dualmath.LogOfCDF(erf, 2/math.Sqrt(math.Pi)*math.Exp(-t.Real*t.Real), t), nil
}

type halfNormalDist struct {
	Sigma float64
}

func (d halfNormalDist) LogProb(x float64) float64 {
	if x < 0 {
		return math.Inf(-1)
	}
	z := x / d.Sigma
	return 0.5*math.Log(2/math.Pi) - math.Log(d.Sigma) - 0.5*z*z
}

func (d halfNormalDist) LogCDF(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return logCDFFromCDF(math.Erf(x / (d.Sigma * math.Sqrt2)))
}
