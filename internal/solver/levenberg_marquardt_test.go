package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// rosenbrock as residuals: r1 = 10(x2 - x1²), r2 = 1 - x1
func rosenbrock() Problem {
	return Problem{
		M: 2,
		Residual: func(dst, x []float64) error {
			dst[0] = 10 * (x[1] - x[0]*x[0])
			dst[1] = 1 - x[0]
			return nil
		},
	}
}

func rosenbrockJacobian(dst *mat.Dense, x []float64) error {
	dst.Set(0, 0, -20*x[0])
	dst.Set(0, 1, 10)
	dst.Set(1, 0, -1)
	dst.Set(1, 1, 0)
	return nil
}

func TestLevenbergMarquardtRosenbrock(t *testing.T) {
	tests := []struct {
		name     string
		jacobian JacobianFunc
	}{
		{"analytic", rosenbrockJacobian},
		{"numerical", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := rosenbrock()
			p.Jacobian = tt.jacobian

			res, err := LevenbergMarquardt(p, []float64{-1.2, 1}, DefaultSettings())
			require.NoError(t, err)
			require.True(t, res.Success(), "status %s", res.Status)

			assert.InDelta(t, 1, res.X[0], 1e-6)
			assert.InDelta(t, 1, res.X[1], 1e-6)
			assert.Less(t, res.Cost, 1e-12)
			assert.Greater(t, res.Iterations, 0)
			assert.Greater(t, res.JacobianEvaluations, 0)
		})
	}
}

func TestLevenbergMarquardtUnderdetermined(t *testing.T) {
	// One equation, two unknowns: any point on x1 + 2x2 = 3 is a root.
	p := Problem{
		M: 1,
		Residual: func(dst, x []float64) error {
			dst[0] = x[0] + 2*x[1] - 3
			return nil
		},
	}

	res, err := LevenbergMarquardt(p, []float64{0, 0}, DefaultSettings())
	require.NoError(t, err)
	require.True(t, res.Success())
	assert.InDelta(t, 3, res.X[0]+2*res.X[1], 1e-8)
	// The damped step from the origin follows the gradient direction (1, 2).
	assert.InDelta(t, 2*res.X[0], res.X[1], 1e-6)
}

func TestLevenbergMarquardtStartsAtRoot(t *testing.T) {
	p := Problem{
		M: 1,
		Residual: func(dst, x []float64) error {
			dst[0] = x[0]*x[0] - 4
			return nil
		},
	}

	res, err := LevenbergMarquardt(p, []float64{2}, DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, GradientConverged, res.Status)
	assert.Equal(t, 0, res.Iterations)
	assert.Equal(t, 1, res.Evaluations)
	assert.Equal(t, []float64{2}, res.X)
}

func TestLevenbergMarquardtRejectsInvalidTrialPoints(t *testing.T) {
	// sqrt(x) - 0.5 is undefined below zero; a full Gauss-Newton step from
	// x=4 overshoots into x<0 and must be rejected, not accepted.
	p := Problem{
		M: 1,
		Residual: func(dst, x []float64) error {
			if x[0] < 0 {
				return errors.New("negative argument")
			}
			dst[0] = math.Sqrt(x[0]) - 0.5
			return nil
		},
	}

	res, err := LevenbergMarquardt(p, []float64{4}, DefaultSettings())
	require.NoError(t, err)
	require.True(t, res.Success(), "status %s", res.Status)
	assert.InDelta(t, 0.25, res.X[0], 1e-6)
}

func TestLevenbergMarquardtFailures(t *testing.T) {
	t.Run("non-finite initial residual", func(t *testing.T) {
		p := Problem{M: 1, Residual: func(dst, x []float64) error {
			dst[0] = math.NaN()
			return nil
		}}
		res, err := LevenbergMarquardt(p, []float64{1}, DefaultSettings())
		require.NoError(t, err)
		assert.Equal(t, NonFiniteInitial, res.Status)
		assert.False(t, res.Success())
		assert.Error(t, res.Err)
	})

	t.Run("evaluation budget", func(t *testing.T) {
		settings := DefaultSettings()
		settings.MaxEvaluations = 2
		res, err := LevenbergMarquardt(rosenbrock(), []float64{-1.2, 1}, settings)
		require.NoError(t, err)
		assert.Equal(t, EvaluationLimit, res.Status)
		assert.False(t, res.Success())
		assert.LessOrEqual(t, res.Evaluations, 2)
	})

	t.Run("jacobian error", func(t *testing.T) {
		p := rosenbrock()
		p.Jacobian = func(dst *mat.Dense, x []float64) error { return errors.New("boom") }
		res, err := LevenbergMarquardt(p, []float64{-1.2, 1}, DefaultSettings())
		require.NoError(t, err)
		assert.Equal(t, JacobianFailure, res.Status)
		assert.EqualError(t, res.Err, "boom")
	})
}

func TestLevenbergMarquardtInvalidInput(t *testing.T) {
	_, err := LevenbergMarquardt(rosenbrock(), nil, DefaultSettings())
	assert.Error(t, err)

	_, err = LevenbergMarquardt(Problem{M: 0, Residual: rosenbrock().Residual}, []float64{1}, DefaultSettings())
	assert.Error(t, err)

	_, err = LevenbergMarquardt(rosenbrock(), []float64{1, 1}, Settings{FTol: -1})
	assert.Error(t, err)

	_, err = LevenbergMarquardt(rosenbrock(), []float64{1, 1}, Settings{})
	assert.Error(t, err)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "gtol", GradientConverged.String())
	assert.Equal(t, "max_evaluations", EvaluationLimit.String())
	assert.True(t, StepConverged.Converged())
	assert.False(t, JacobianFailure.Converged())
}
