package model

import (
	"fmt"
	"math"
	"strings"
)

// Point3 is a point (or vector) in 3D space.
type Point3 struct {
	X, Y, Z float64
}

// Add returns p + q.
func (p Point3) Add(q Point3) Point3 {
	return Point3{p.X + q.X, p.Y + q.Y, p.Z + q.Z}
}

// Sub returns p - q.
func (p Point3) Sub(q Point3) Point3 {
	return Point3{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Scale returns p * s.
func (p Point3) Scale(s float64) Point3 {
	return Point3{p.X * s, p.Y * s, p.Z * s}
}

// Dot returns the dot product of p and q.
func (p Point3) Dot(q Point3) float64 {
	return p.X*q.X + p.Y*q.Y + p.Z*q.Z
}

// Norm returns the Euclidean length of p.
func (p Point3) Norm() float64 {
	return math.Sqrt(p.Dot(p))
}

// Dist2 returns the squared Euclidean distance between p and q.
func (p Point3) Dist2(q Point3) float64 {
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return dx*dx + dy*dy + dz*dz
}

// Dist returns the Euclidean distance between p and q.
func (p Point3) Dist(q Point3) float64 {
	return math.Sqrt(p.Dist2(q))
}

// String returns a string representation of the point.
func (p Point3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X, p.Y, p.Z)
}

// Centroid returns the average position of points.
// Returns the origin for an empty slice.
func Centroid(points []Point3) Point3 {
	if len(points) == 0 {
		return Point3{}
	}
	var c Point3
	for _, p := range points {
		c.X += p.X
		c.Y += p.Y
		c.Z += p.Z
	}
	return c.Scale(1 / float64(len(points)))
}

// Residue is a coarse-grained nucleotide.
//
// Points holds the representative points in a fixed order (typically base,
// ribose and backbone centroids). Code is the one-letter type code and Key
// identifies the residue in its source structure (chain, number, insertion code).
type Residue struct {
	Points []Point3
	Code   byte
	Key    string
}

// NewResidue creates a residue. The points slice is copied.
func NewResidue(key string, code byte, points ...Point3) Residue {
	p := make([]Point3, len(points))
	copy(p, points)
	return Residue{Points: p, Code: code, Key: key}
}

// SameType reports whether both residues carry the same type code (case-insensitive).
func (r Residue) SameType(o Residue) bool {
	return strings.EqualFold(string(r.Code), string(o.Code))
}

// Structure is an ordered sequence of residues.
type Structure []Residue

// Len returns the number of residues.
func (s Structure) Len() int { return len(s) }

// PointsPerResidue returns the number of representative points per residue.
// Returns 0 for an empty structure.
func (s Structure) PointsPerResidue() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0].Points)
}

// Validate checks that the structure is non-empty and that all residues carry
// the same number of representative points.
func (s Structure) Validate() error {
	if len(s) == 0 {
		return ErrEmptyStructure
	}
	k := len(s[0].Points)
	if k == 0 {
		return &ErrPointsMismatch{Index: 0, Expected: 1, Actual: 0}
	}
	for i, r := range s {
		if len(r.Points) != k {
			return &ErrPointsMismatch{Index: i, Expected: k, Actual: len(r.Points)}
		}
	}
	return nil
}

// Sequence returns the one-letter sequence of the structure.
func (s Structure) Sequence() string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		sb.WriteByte(r.Code)
	}
	return sb.String()
}

// AppendPoints appends the representative points of the residues at indices to dst.
func (s Structure) AppendPoints(dst []Point3, indices ...int) []Point3 {
	for _, idx := range indices {
		dst = append(dst, s[idx].Points...)
	}
	return dst
}

// AllPoints returns the representative points of every residue, in order.
func (s Structure) AllPoints() []Point3 {
	dst := make([]Point3, 0, len(s)*s.PointsPerResidue())
	for _, r := range s {
		dst = append(dst, r.Points...)
	}
	return dst
}

// Points returns the flattened representative points of the residues at indices.
func (s Structure) Points(indices ...int) []Point3 {
	return s.AppendPoints(make([]Point3, 0, len(indices)*s.PointsPerResidue()), indices...)
}
