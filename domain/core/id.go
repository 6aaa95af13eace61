package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	CalibrationID ID
	BatchID       ID
)

func (id CalibrationID) String() string { return ID(id).String() }
func (id BatchID) String() string       { return ID(id).String() }

// NewCalibrationID returns a fresh time-ordered calibration identifier
func NewCalibrationID() CalibrationID { return CalibrationID(NewID()) }

// NewBatchID returns a fresh time-ordered batch identifier
func NewBatchID() BatchID { return BatchID(NewID()) }

// ParseCalibrationID parses a string into CalibrationID
func ParseCalibrationID(s string) (CalibrationID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("calibration ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("calibration ID %q is not a UUID: %w", s, err)
	}
	return CalibrationID(s), nil
}
