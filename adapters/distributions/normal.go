package distributions

import (
	"gonum.org/v1/gonum/num/dual"
	"gonum.org/v1/gonum/stat/distuv"

	"priorfit/internal/dualmath"
	"priorfit/ports"
)

// Normal is the Gaussian family with mean mu and standard deviation sigma
type Normal struct{}

func (Normal) Name() string              { return "Normal" }
func (Normal) Params() []ports.ParamSpec { return scalars("mu", "sigma") }

func (f Normal) Dist(params map[string]float64) (ports.Distribution, error) {
	r := newParamReader(f.Name(), params)
	mu, sigma := r.get("mu"), r.positive("sigma")
	if r.err != nil {
		return nil, r.err
	}
	return normalDist{distuv.Normal{Mu: mu, Sigma: sigma}}, nil
}

func (f Normal) DualLogCDF(params map[string]dual.Number, x float64) (dual.Number, error) {
	r := newDualReader(f.Name(), params)
	mu, sigma := r.get("mu"), r.positive("sigma")
	if r.err != nil {
		return dual.Number{}, r.err
	}
	z := dualmath.Div(dual.Sub(dualmath.Const(x), mu), sigma)
	return dualmath.NormLogCDF(z), nil
}

type normalDist struct {
	distuv.Normal
}

func (d normalDist) LogCDF(x float64) float64 {
	return dualmath.StdNormalLogCDF((x - d.Mu) / d.Sigma)
}
