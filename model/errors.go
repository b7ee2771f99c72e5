package model

import (
	"errors"
	"fmt"
)

// ErrEmptyStructure is returned when a structure has no residues.
var ErrEmptyStructure = errors.New("structure has no residues")

// ErrPointsMismatch indicates a residue whose number of representative points
// differs from the rest of its structure.
type ErrPointsMismatch struct {
	Index    int
	Expected int
	Actual   int
}

func (e *ErrPointsMismatch) Error() string {
	return fmt.Sprintf("residue %d: expected %d representative points, got %d", e.Index, e.Expected, e.Actual)
}
