package rnalign

import (
	"fmt"

	"github.com/hupe1980/rnalign/model"
)

// ErrEmptyStructure is returned when a structure has no residues.
var ErrEmptyStructure = model.ErrEmptyStructure

// ErrPointsMismatch indicates residues carrying different numbers of points.
type ErrPointsMismatch = model.ErrPointsMismatch

// ErrInvalidConfig indicates an invalid configuration value.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// ErrInvalidStructure indicates that the reference or target structure was
// rejected.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidStructure struct {
	// Role is "reference" or "target".
	Role  string
	cause error
}

func (e *ErrInvalidStructure) Error() string {
	return fmt.Sprintf("invalid %s structure: %v", e.Role, e.cause)
}

func (e *ErrInvalidStructure) Unwrap() error { return e.cause }

func validateStructures(ref, target model.Structure) error {
	if err := ref.Validate(); err != nil {
		return &ErrInvalidStructure{Role: "reference", cause: err}
	}
	if err := target.Validate(); err != nil {
		return &ErrInvalidStructure{Role: "target", cause: err}
	}

	rk, tk := ref.PointsPerResidue(), target.PointsPerResidue()
	if rk != tk {
		return &ErrInvalidStructure{
			Role:  "target",
			cause: &ErrPointsMismatch{Index: 0, Expected: rk, Actual: tk},
		}
	}
	return nil
}
