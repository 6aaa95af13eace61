package distributions

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/num/dual"

	"priorfit/domain/core"
	"priorfit/ports"
)

type familyCase struct {
	family ports.DistributionFamily
	params map[string]float64
	at     []float64
}

func familyCases() []familyCase {
	return []familyCase{
		{Normal{}, map[string]float64{"mu": 1, "sigma": 2}, []float64{-3, 0.5, 4}},
		{LogNormal{}, map[string]float64{"mu": 0.3, "sigma": 0.8}, []float64{0.2, 1, 5}},
		{HalfNormal{}, map[string]float64{"sigma": 1.5}, []float64{0.1, 1, 4}},
		{StudentT{}, map[string]float64{"nu": 5, "mu": 0, "sigma": 1}, []float64{-2.5, 0.3, 3}},
		{Exponential{}, map[string]float64{"lam": 0.7}, []float64{0.05, 1, 6}},
		{Gamma{}, map[string]float64{"alpha": 2.5, "beta": 1.3}, []float64{0.2, 1.5, 5}},
		{Beta{}, map[string]float64{"alpha": 2, "beta": 5}, []float64{0.05, 0.3, 0.8}},
		{Laplace{}, map[string]float64{"mu": 1, "b": 0.5}, []float64{-1, 0.9, 1.2, 3}},
		{Cauchy{}, map[string]float64{"alpha": 0, "beta": 2}, []float64{-10, 0.5, 7}},
		{Weibull{}, map[string]float64{"alpha": 1.7, "beta": 3}, []float64{0.5, 2, 8}},
	}
}

// logCDFAt builds a distribution and evaluates its log-CDF
func logCDFAt(t *testing.T, family ports.DistributionFamily, params map[string]float64, x float64) float64 {
	t.Helper()
	d, err := family.Dist(params)
	require.NoError(t, err)
	lc, ok := d.(ports.LogCDFer)
	require.True(t, ok, "%s should implement LogCDF", family.Name())
	return lc.LogCDF(x)
}

func TestLogCDFIsMonotoneAndNonPositive(t *testing.T) {
	for _, tc := range familyCases() {
		t.Run(tc.family.Name(), func(t *testing.T) {
			prev := math.Inf(-1)
			for _, x := range tc.at {
				v := logCDFAt(t, tc.family, tc.params, x)
				assert.LessOrEqual(t, v, 0.0)
				assert.Greater(t, v, prev, "log-CDF must increase at %v", x)
				prev = v
			}
		})
	}
}

func TestLogCDFMatchesCDF(t *testing.T) {
	// Spot values from closed forms.
	assert.InDelta(t, math.Log(0.5), logCDFAt(t, Normal{}, map[string]float64{"mu": 3, "sigma": 2}, 3), 1e-14)
	assert.InDelta(t, math.Log(1-math.Exp(-2)), logCDFAt(t, Exponential{}, map[string]float64{"lam": 2}, 1), 1e-14)
	assert.InDelta(t, math.Log(0.75), logCDFAt(t, Cauchy{}, map[string]float64{"alpha": 0, "beta": 1}, 1), 1e-14)
	assert.InDelta(t, math.Log(0.5), logCDFAt(t, StudentT{}, map[string]float64{"nu": 3, "mu": -1, "sigma": 4}, -1), 1e-12)
	assert.InDelta(t, math.Log(0.5*math.Exp(-1)), logCDFAt(t, Laplace{}, map[string]float64{"mu": 0, "b": 1}, -1), 1e-14)
	assert.InDelta(t, math.Log(math.Erf(1/math.Sqrt2)), logCDFAt(t, HalfNormal{}, map[string]float64{"sigma": 1}, 1), 1e-14)
	assert.Equal(t, 0.0, logCDFAt(t, Beta{}, map[string]float64{"alpha": 2, "beta": 2}, 1))
	assert.True(t, math.IsInf(logCDFAt(t, Gamma{}, map[string]float64{"alpha": 2, "beta": 2}, 0), -1))
}

func TestDualLogCDFMatchesValueAndFiniteDifferences(t *testing.T) {
	for _, tc := range familyCases() {
		dualFamily, ok := tc.family.(ports.DualLogCDFer)
		if !ok {
			continue
		}
		t.Run(tc.family.Name(), func(t *testing.T) {
			for _, spec := range tc.family.Params() {
				if tc.family.Name() == "StudentT" && spec.Name == "nu" {
					continue
				}
				if tc.family.Name() == "Gamma" && spec.Name == "alpha" {
					continue
				}
				for _, x := range tc.at {
					seeded := make(map[string]dual.Number, len(tc.params))
					for name, v := range tc.params {
						seeded[name] = dual.Number{Real: v}
					}
					seeded[spec.Name] = dual.Number{Real: tc.params[spec.Name], Emag: 1}

					got, err := dualFamily.DualLogCDF(seeded, x)
					require.NoError(t, err)
					assert.InDelta(t, logCDFAt(t, tc.family, tc.params, x), got.Real, 1e-10)

					name := spec.Name
					want := fd.Derivative(func(v float64) float64 {
						p := make(map[string]float64, len(tc.params))
						for k, pv := range tc.params {
							p[k] = pv
						}
						p[name] = v
						return logCDFAt(t, tc.family, p, x)
					}, tc.params[name], &fd.Settings{Formula: fd.Central})
					assert.InDelta(t, want, got.Emag, 1e-5*math.Max(1, math.Abs(want)),
						"d logCDF/d %s at x=%v", name, x)
				}
			}
		})
	}
}

func TestDualLogCDFRejectsNonDifferentiableParameters(t *testing.T) {
	_, err := StudentT{}.DualLogCDF(map[string]dual.Number{
		"nu":    {Real: 5, Emag: 1},
		"mu":    {Real: 0},
		"sigma": {Real: 1},
	}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNotDifferentiable))

	_, err = Gamma{}.DualLogCDF(map[string]dual.Number{
		"alpha": {Real: 2, Emag: 1},
		"beta":  {Real: 1},
	}, 1)
	assert.True(t, errors.Is(err, core.ErrNotDifferentiable))
}

func TestDistRejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		family ports.DistributionFamily
		params map[string]float64
		want   error
	}{
		{"negative sigma", Normal{}, map[string]float64{"mu": 0, "sigma": -1}, core.ErrInvalidParameter},
		{"zero rate", Exponential{}, map[string]float64{"lam": 0}, core.ErrInvalidParameter},
		{"nan location", Laplace{}, map[string]float64{"mu": math.NaN(), "b": 1}, core.ErrInvalidParameter},
		{"missing nu", StudentT{}, map[string]float64{"mu": 0, "sigma": 1}, core.ErrMissingParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.family.Dist(tt.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, core.IsPreconditionError(err))
		})
	}
}

func TestRegistry(t *testing.T) {
	r := Default()

	for _, name := range []string{"Normal", "normal", "gaussian", "Student-T", "t", "half_normal", "expon"} {
		f, err := r.Family(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	f, err := r.Family("students_t")
	require.NoError(t, err)
	assert.Equal(t, "StudentT", f.Name())

	_, err = r.Family("dirichlet")
	assert.True(t, errors.Is(err, core.ErrUnknownFamily))

	names := r.Names()
	assert.Len(t, names, 10)
	assert.Contains(t, names, "Weibull")

	for _, info := range r.Describe() {
		if info.Name == "Beta" {
			assert.False(t, info.Analytic)
		}
		if info.Name == "Normal" {
			assert.True(t, info.Analytic)
			assert.Equal(t, []string{"gaussian", "norm"}, info.Aliases)
		}
	}
}
