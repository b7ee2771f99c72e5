package superimpose

import (
	"errors"
	"fmt"
	"math"

	matrix "github.com/skelterjohn/go.matrix"

	"github.com/hupe1980/rnalign/model"
)

var (
	// ErrLengthMismatch is returned when the two point sets differ in length.
	ErrLengthMismatch = errors.New("point sets have different lengths")

	// ErrTooFewPoints is returned when the point sets are empty.
	ErrTooFewPoints = errors.New("point sets are empty")
)

func check(a, b []model.Point3) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return ErrTooFewPoints
	}
	return nil
}

// Fit returns the rigid transform that best maps b onto a.
func Fit(a, b []model.Point3) (model.Transform, error) {
	if err := check(a, b); err != nil {
		return model.Transform{}, err
	}

	ca := model.Centroid(a)
	cb := model.Centroid(b)

	// Cross-covariance H = Σ (b_i - cb)(a_i - ca)ᵀ.
	var h [9]float64
	for i := range a {
		p := b[i].Sub(cb)
		q := a[i].Sub(ca)
		h[0] += p.X * q.X
		h[1] += p.X * q.Y
		h[2] += p.X * q.Z
		h[3] += p.Y * q.X
		h[4] += p.Y * q.Y
		h[5] += p.Y * q.Z
		h[6] += p.Z * q.X
		h[7] += p.Z * q.Y
		h[8] += p.Z * q.Z
	}

	u, v, err := svd3(h[:])
	if err != nil {
		return model.Transform{}, err
	}

	// R = V·Uᵀ
	rot := mulTransposed(v, u)
	if det3(rot) < 0 {
		// Flip the singular vector of the smallest singular value (last row of
		// Vᵀ) and recompose.
		for r := 0; r < 3; r++ {
			v[r][2] = -v[r][2]
		}
		rot = mulTransposed(v, u)
	}

	t := model.Transform{Rotation: rot}
	rcb := t.Apply(cb)
	t.Translation = ca.Sub(rcb)
	return t, nil
}

// Apply returns t applied to every point. points is not modified.
func Apply(t model.Transform, points []model.Point3) []model.Point3 {
	return t.ApplyTo(nil, points)
}

// RMSD returns the root mean squared distance between corresponding points
// without any refitting.
func RMSD(a, b []model.Point3) (float64, error) {
	if err := check(a, b); err != nil {
		return 0, err
	}
	return math.Sqrt(SumSquares(a, b) / float64(len(a))), nil
}

// SumSquares returns Σ |a_i - b_i|². Both slices must have equal length.
func SumSquares(a, b []model.Point3) float64 {
	var sum float64
	for i := range a {
		sum += a[i].Dist2(b[i])
	}
	return sum
}

// FitRMSD fits b onto a and returns the transform together with the RMSD of
// the superposition.
func FitRMSD(a, b []model.Point3) (model.Transform, float64, error) {
	t, err := Fit(a, b)
	if err != nil {
		return model.Transform{}, 0, err
	}
	var sum float64
	for i := range a {
		sum += a[i].Dist2(t.Apply(b[i]))
	}
	return t, math.Sqrt(sum / float64(len(a))), nil
}

type mat3 = [3][3]float64

// svd3 decomposes the row-major 3×3 matrix m as U·Σ·Vᵀ and returns U and V.
func svd3(m []float64) (mat3, mat3, error) {
	var u, v mat3

	dense := matrix.MakeDenseMatrix(m, 3, 3)
	mu, _, mv, err := dense.SVD()
	if err != nil {
		return u, v, fmt.Errorf("svd: %w", err)
	}

	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			u[r][c] = mu.Get(r, c)
			v[r][c] = mv.Get(r, c)
		}
	}
	return u, v, nil
}

// mulTransposed returns a·bᵀ.
func mulTransposed(a, b mat3) mat3 {
	var out mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = a[r][0]*b[c][0] + a[r][1]*b[c][1] + a[r][2]*b[c][2]
		}
	}
	return out
}

func det3(m mat3) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}
