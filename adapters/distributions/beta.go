package distributions

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"priorfit/ports"
)

// Beta is supported on (0, 1). It does not implement dual evaluation, so
// calibrations fall back to finite differences.
type Beta struct{}

func (Beta) Name() string              { return "Beta" }
func (Beta) Params() []ports.ParamSpec { return scalars("alpha", "beta") }

func (f Beta) Dist(params map[string]float64) (ports.Distribution, error) {
	r := newParamReader(f.Name(), params)
	alpha, beta := r.positive("alpha"), r.positive("beta")
	if r.err != nil {
		return nil, r.err
	}
	return betaDist{distuv.Beta{Alpha: alpha, Beta: beta}}, nil
}

type betaDist struct {
	distuv.Beta
}

func (d betaDist) LogCDF(x float64) float64 {
	switch {
	case x <= 0:
		return math.Inf(-1)
	case x >= 1:
		return 0
	}
	return logCDFFromCDF(d.CDF(x))
}
