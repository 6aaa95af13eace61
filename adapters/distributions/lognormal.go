package distributions

import (
	"math"

	"gonum.org/v1/gonum/num/dual"
	"gonum.org/v1/gonum/stat/distuv"

	"priorfit/internal/dualmath"
	"priorfit/ports"
)

// LogNormal is the family whose logarithm is Normal(mu, sigma)
type LogNormal struct{}

func (LogNormal) Name() string              { return "LogNormal" }
func (LogNormal) Params() []ports.ParamSpec { return scalars("mu", "sigma") }

func (f LogNormal) Dist(params map[string]float64) (ports.Distribution, error) {
	r := newParamReader(f.Name(), params)
	mu, sigma := r.get("mu"), r.positive("sigma")
	if r.err != nil {
		return nil, r.err
	}
	return logNormalDist{distuv.LogNormal{Mu: mu, Sigma: sigma}}, nil
}

func (f LogNormal) DualLogCDF(params map[string]dual.Number, x float64) (dual.Number, error) {
	r := newDualReader(f.Name(), params)
	mu, sigma := r.get("mu"), r.positive("sigma")
	if r.err != nil {
		return dual.Number{}, r.err
	}
	if x <= 0 {
		return dualmath.NegInf(), nil
	}
	z := dualmath.Div(dual.Sub(dualmath.Const(math.Log(x)), mu), sigma)
	return dualmath.NormLogCDF(z), nil
}

type logNormalDist struct {
	distuv.LogNormal
}

func (d logNormalDist) LogCDF(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return dualmath.StdNormalLogCDF((math.Log(x) - d.Mu) / d.Sigma)
}
