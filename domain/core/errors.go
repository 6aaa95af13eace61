package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Precondition errors
	ErrPrecondition        = errors.New("precondition violated")
	ErrMassOutOfRange      = fmt.Errorf("%w: mass out of range", ErrPrecondition)
	ErrInvalidInterval     = fmt.Errorf("%w: invalid interval", ErrPrecondition)
	ErrUnsupportedShape    = fmt.Errorf("%w: non-scalar parameter", ErrPrecondition)
	ErrUnknownParameter    = fmt.Errorf("%w: unknown parameter", ErrPrecondition)
	ErrMissingParameter    = fmt.Errorf("%w: missing parameter", ErrPrecondition)
	ErrDuplicateParameter  = fmt.Errorf("%w: parameter both free and fixed", ErrPrecondition)
	ErrFreeParameterCount  = fmt.Errorf("%w: unsupported number of free parameters", ErrPrecondition)
	ErrInvalidParameter    = fmt.Errorf("%w: invalid parameter value", ErrPrecondition)
	ErrInvalidLimits       = fmt.Errorf("%w: invalid mass limits", ErrPrecondition)
	ErrUnknownFamily       = errors.New("unknown distribution family")
	ErrMissingCapability   = errors.New("missing distribution capability")
	ErrNotDifferentiable   = errors.New("expression not differentiable")
	ErrOptimizationFailed  = errors.New("optimization of parameters failed")
	ErrCalibrationNotFound = errors.New("calibration not found")
)

// Error constructors with context
func NewMassError(mass, lo, hi float64) error {
	return fmt.Errorf("%w: %g must lie strictly between %g and %g", ErrMassOutOfRange, mass, lo, hi)
}

func NewShapeError(family, param string, ndims int) error {
	return fmt.Errorf("%w: %s.%s has %d dimensions; only scalar parameters are supported", ErrUnsupportedShape, family, param, ndims)
}

func NewCapabilityError(family, capability string) error {
	return fmt.Errorf("%w: %s has no %s implementation; calibration needs it, request it for this family",
		ErrMissingCapability, family, capability)
}

func NewParameterError(family, param string, value float64, reason string) error {
	return fmt.Errorf("%w: %s.%s=%g %s", ErrInvalidParameter, family, param, value, reason)
}

func NewOptimizationError(status string, err error) error {
	if err != nil {
		return fmt.Errorf("%w (%s): %v", ErrOptimizationFailed, status, err)
	}
	return fmt.Errorf("%w (%s)", ErrOptimizationFailed, status)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrCalibrationNotFound, resource, id)
}

// Error checking helpers
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrPrecondition) || errors.Is(err, ErrUnknownFamily)
}

func IsCapabilityError(err error) bool {
	return errors.Is(err, ErrMissingCapability)
}

func IsOptimizationError(err error) bool {
	return errors.Is(err, ErrOptimizationFailed)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrCalibrationNotFound)
}
