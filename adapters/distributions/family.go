// Package distributions adapts gonum's distuv distributions, plus a few closed
// form families gonum does not ship, to the ports.DistributionFamily capability
// interface.
package distributions

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/dual"

	"priorfit/domain/core"
	"priorfit/ports"
)

// scalars declares a list of scalar parameters
func scalars(names ...string) []ports.ParamSpec {
	specs := make([]ports.ParamSpec, len(names))
	for i, name := range names {
		specs[i] = ports.ParamSpec{Name: name}
	}
	return specs
}

// paramReader pulls named values out of a parameter map, remembering the first
// problem so constructors read as a flat list of requirements.
type paramReader struct {
	family string
	params map[string]float64
	err    error
}

func newParamReader(family string, params map[string]float64) *paramReader {
	return &paramReader{family: family, params: params}
}

func (r *paramReader) get(name string) float64 {
	if r.err != nil {
		return math.NaN()
	}
	v, ok := r.params[name]
	if !ok {
		r.err = fmt.Errorf("%w: %s.%s", core.ErrMissingParameter, r.family, name)
		return math.NaN()
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		r.err = core.NewParameterError(r.family, name, v, "must be finite")
	}
	return v
}

func (r *paramReader) positive(name string) float64 {
	v := r.get(name)
	if r.err == nil && !(v > 0) {
		r.err = core.NewParameterError(r.family, name, v, "must be positive")
	}
	return v
}

// dualReader is the dual-number counterpart of paramReader
type dualReader struct {
	family string
	params map[string]dual.Number
	err    error
}

func newDualReader(family string, params map[string]dual.Number) *dualReader {
	return &dualReader{family: family, params: params}
}

func (r *dualReader) get(name string) dual.Number {
	if r.err != nil {
		return dual.Number{Real: math.NaN()}
	}
	v, ok := r.params[name]
	if !ok {
		r.err = fmt.Errorf("%w: %s.%s", core.ErrMissingParameter, r.family, name)
		return dual.Number{Real: math.NaN()}
	}
	if math.IsNaN(v.Real) || math.IsInf(v.Real, 0) {
		r.err = core.NewParameterError(r.family, name, v.Real, "must be finite")
	}
	return v
}

func (r *dualReader) positive(name string) dual.Number {
	v := r.get(name)
	if r.err == nil && !(v.Real > 0) {
		r.err = core.NewParameterError(r.family, name, v.Real, "must be positive")
	}
	return v
}

// constant rejects a parameter that carries a derivative
func (r *dualReader) constant(name string) float64 {
	v := r.get(name)
	if r.err == nil && v.Emag != 0 {
		r.err = fmt.Errorf("%w: %s log-CDF with respect to %s", core.ErrNotDifferentiable, r.family, name)
	}
	return v.Real
}

func (r *dualReader) positiveConstant(name string) float64 {
	v := r.constant(name)
	if r.err == nil && !(v > 0) {
		r.err = core.NewParameterError(r.family, name, v, "must be positive")
	}
	return v
}

// logCDFFromCDF is the log-CDF used by families without a dedicated form
func logCDFFromCDF(cdf float64) float64 {
	if cdf <= 0 {
		return math.Inf(-1)
	}
	if cdf >= 1 {
		return 0
	}
	return math.Log(cdf)
}
