// Package model defines core types used throughout rnalign.
//
// # Geometry Types
//
//   - Point3: a value-type 3D coordinate
//   - Transform: a rigid motion (rotation + translation) applied as R·p + T
//
// # Structure Types
//
//   - Residue: a coarse-grained nucleotide (fixed set of representative points,
//     one-letter type code and an opaque structural key)
//   - Structure: an ordered, read-only sequence of residues
//
// # Result Types
//
//   - Output: the immutable result of one aligner invocation
//
// Structures are produced outside of the alignment core and are never mutated
// by it; they are shared across worker goroutines without copying.
package model
