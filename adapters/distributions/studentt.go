package distributions

import (
	"gonum.org/v1/gonum/num/dual"
	"gonum.org/v1/gonum/stat/distuv"

	"priorfit/internal/dualmath"
	"priorfit/ports"
)

// StudentT is the location-scale Student's t family. Derivatives are exact in
// mu and sigma; nu must be held fixed for analytic differentiation.
type StudentT struct{}

func (StudentT) Name() string              { return "StudentT" }
func (StudentT) Params() []ports.ParamSpec { return scalars("nu", "mu", "sigma") }

func (f StudentT) Dist(params map[string]float64) (ports.Distribution, error) {
	r := newParamReader(f.Name(), params)
	nu, mu, sigma := r.positive("nu"), r.get("mu"), r.positive("sigma")
	if r.err != nil {
		return nil, r.err
	}
	return studentTDist{distuv.StudentsT{Mu: mu, Sigma: sigma, Nu: nu}}, nil
}

func (f StudentT) DualLogCDF(params map[string]dual.Number, x float64) (dual.Number, error) {
	r := newDualReader(f.Name(), params)
	mu, sigma := r.get("mu"), r.positive("sigma")
	nu := r.positiveConstant("nu")
	if r.err != nil {
		return dual.Number{}, r.err
	}
	t := dualmath.Div(dual.Sub(dualmath.Const(x), mu), sigma)
	std := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
	return dualmath.LogOfCDF(std.CDF(t.Real), std.Prob(t.Real), t), nil
}

type studentTDist struct {
	distuv.StudentsT
}

func (d studentTDist) LogCDF(x float64) float64 {
	return logCDFFromCDF(d.CDF(x))
}
