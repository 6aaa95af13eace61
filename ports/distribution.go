package ports

import (
	"gonum.org/v1/gonum/num/dual"
)

// ParamSpec declares one parameter of a distribution family
type ParamSpec struct {
	Name  string `json:"name"`
	NDims int    `json:"ndims"` // 0 for scalars
}

// DistributionFamily is a parametric family of distributions. Implementations
// must be free of side effects so a single family value can be shared by
// concurrent calibrations.
type DistributionFamily interface {
	// Name identifies the family in errors and reports
	Name() string

	// Params lists every parameter the family takes, in canonical order
	Params() []ParamSpec

	// Dist builds a distribution from a complete parameter assignment
	Dist(params map[string]float64) (Distribution, error)
}

// Distribution is a concrete member of a family
type Distribution interface {
	LogProb(x float64) float64
}

// LogCDFer is the optional log-CDF capability calibration depends on
type LogCDFer interface {
	LogCDF(x float64) float64
}

// DualLogCDFer is implemented by families whose log-CDF can be evaluated on
// dual numbers, giving forward-mode derivatives with respect to any parameter.
// It returns core.ErrNotDifferentiable when a parameter carrying a non-zero
// infinitesimal part cannot be differentiated.
type DualLogCDFer interface {
	DualLogCDF(params map[string]dual.Number, x float64) (dual.Number, error)
}

// FamilyRegistry resolves families by name
type FamilyRegistry interface {
	Family(name string) (DistributionFamily, error)
	Names() []string
}
