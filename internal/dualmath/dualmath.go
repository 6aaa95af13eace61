// Package dualmath provides the special functions calibration needs on top of
// gonum's dual numbers. Every helper propagates the infinitesimal part with
// the chain rule so families can write their log-CDFs once and obtain exact
// first derivatives with respect to any parameter.
package dualmath

import (
	"math"

	"gonum.org/v1/gonum/num/dual"
)

const (
	invSqrt2   = 1 / math.Sqrt2
	invSqrt2Pi = 0.3989422804014327 // 1/sqrt(2π)
)

// Const lifts a constant (zero derivative)
func Const(v float64) dual.Number {
	return dual.Number{Real: v}
}

// Var lifts a variable seeded with unit derivative
func Var(v float64) dual.Number {
	return dual.Number{Real: v, Emag: 1}
}

// Chain applies a scalar function with value f and derivative df at x.Real
func Chain(f, df float64, x dual.Number) dual.Number {
	return dual.Number{Real: f, Emag: df * x.Emag}
}

// Div returns x/y
func Div(x, y dual.Number) dual.Number {
	return dual.Mul(x, dual.Inv(y))
}

// IsFinite reports whether both parts are finite
func IsFinite(x dual.Number) bool {
	return !math.IsNaN(x.Real) && !math.IsInf(x.Real, 0) && !math.IsNaN(x.Emag) && !math.IsInf(x.Emag, 0)
}

// IsConst reports whether x carries no derivative
func IsConst(x dual.Number) bool {
	return x.Emag == 0
}

// Erfc is the complementary error function
func Erfc(x dual.Number) dual.Number {
	return Chain(math.Erfc(x.Real), -2/math.Sqrt(math.Pi)*math.Exp(-x.Real*x.Real), x)
}

// Atan is the inverse tangent
func Atan(x dual.Number) dual.Number {
	return Chain(math.Atan(x.Real), 1/(1+x.Real*x.Real), x)
}

// NormLogCDF returns log Φ(z) for the standard normal
func NormLogCDF(z dual.Number) dual.Number {
	logCDF := StdNormalLogCDF(z.Real)
	// d/dz log Φ(z) = φ(z)/Φ(z), evaluated in log space for the far left tail
	logPDF := math.Log(invSqrt2Pi) - 0.5*z.Real*z.Real
	return Chain(logCDF, math.Exp(logPDF-logCDF), z)
}

// StdNormalLogCDF returns log Φ(z), accurate far into the left tail
func StdNormalLogCDF(z float64) float64 {
	if z > -20 {
		return math.Log(0.5 * math.Erfc(-z*invSqrt2))
	}
	// Asymptotic expansion: Φ(z) ≈ φ(z)/|z| · (1 - 1/z² + 3/z⁴)
	z2 := z * z
	return math.Log(invSqrt2Pi) - 0.5*z2 - math.Log(-z) + math.Log1p(-1/z2+3/(z2*z2))
}

// NegInf is log 0 with a flat derivative, used outside a distribution's support
func NegInf() dual.Number {
	return dual.Number{Real: math.Inf(-1)}
}

// LogOfCDF lifts log F(t) given F(t) and its density f(t) at t.Real
func LogOfCDF(cdf, pdf float64, t dual.Number) dual.Number {
	if cdf <= 0 {
		return NegInf()
	}
	return Chain(math.Log(cdf), pdf/cdf, t)
}

// Log1mExp returns log(1 - exp(x)) for x <= 0
func Log1mExp(x dual.Number) dual.Number {
	var v float64
	if x.Real > -math.Ln2 {
		v = math.Log(-math.Expm1(x.Real))
	} else {
		v = math.Log1p(-math.Exp(x.Real))
	}
	// d/dx log(1-e^x) = -e^x/(1-e^x)
	return Chain(v, -math.Exp(x.Real-v), x)
}
