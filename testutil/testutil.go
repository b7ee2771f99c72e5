package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/rnalign/model"
)

// Step is the average distance between consecutive residues of a synthetic
// structure, roughly the phosphate spacing of an RNA backbone.
const Step = 6.0

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Int63 returns a non-negative pseudo-random 63-bit integer, so that the RNG
// can serve as a seed source for math/rand.
func (r *RNG) Int63() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63()
}

// Rand returns a fresh, non-shared *rand.Rand seeded from r.
func (r *RNG) Rand() *rand.Rand {
	return rand.New(rand.NewSource(r.Int63()))
}

// unitVector draws a uniformly distributed direction. Caller holds mu.
func (r *RNG) unitVector() model.Point3 {
	for {
		p := model.Point3{
			X: r.rand.NormFloat64(),
			Y: r.rand.NormFloat64(),
			Z: r.rand.NormFloat64(),
		}
		if n := p.Norm(); n > 1e-9 {
			return p.Scale(1 / n)
		}
	}
}

// Structure generates an irregular random-walk chain of n residues with k
// representative points each. Consecutive residues are about Step apart and
// every residue carries its own random point offsets, so that only the
// identity correspondence superimposes a structure onto a rigid copy of
// itself with zero RMSD.
func (r *RNG) Structure(n, k int) model.Structure {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes := []byte("ACGU")
	s := make(model.Structure, n)
	var pos model.Point3
	for i := range n {
		if i > 0 {
			step := Step * (0.8 + 0.4*r.rand.Float64())
			pos = pos.Add(r.unitVector().Scale(step))
		}
		pts := make([]model.Point3, k)
		for j := range pts {
			if j == 0 {
				pts[j] = pos
				continue
			}
			pts[j] = pos.Add(r.unitVector().Scale(1.5 + 2*r.rand.Float64()))
		}
		s[i] = model.Residue{
			Points: pts,
			Code:   codes[r.rand.Intn(len(codes))],
			Key:    fmt.Sprintf("A:%d", i+1),
		}
	}
	return s
}

// Rotation returns a uniformly distributed proper rotation matrix.
func (r *RNG) Rotation() [3][3]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rotation()
}

func (r *RNG) rotation() [3][3]float64 {
	// Random unit quaternion.
	var q [4]float64
	var n float64
	for n < 1e-9 {
		for i := range q {
			q[i] = r.rand.NormFloat64()
		}
		n = math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	}
	w, x, y, z := q[0]/n, q[1]/n, q[2]/n, q[3]/n
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}

// RigidTransform returns a random rotation combined with a random
// translation of at most maxShift along each axis.
func (r *RNG) RigidTransform(maxShift float64) model.Transform {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.Transform{
		Rotation: r.rotation(),
		Translation: model.Point3{
			X: (2*r.rand.Float64() - 1) * maxShift,
			Y: (2*r.rand.Float64() - 1) * maxShift,
			Z: (2*r.rand.Float64() - 1) * maxShift,
		},
	}
}

// Jitter returns a copy of s where every point is displaced by a Gaussian
// offset with standard deviation sigma.
func (r *RNG) Jitter(s model.Structure, sigma float64) model.Structure {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(model.Structure, len(s))
	for i, res := range s {
		pts := make([]model.Point3, len(res.Points))
		for j, p := range res.Points {
			pts[j] = p.Add(model.Point3{
				X: r.rand.NormFloat64() * sigma,
				Y: r.rand.NormFloat64() * sigma,
				Z: r.rand.NormFloat64() * sigma,
			})
		}
		out[i] = model.Residue{Points: pts, Code: res.Code, Key: res.Key}
	}
	return out
}

// Translate returns a copy of s shifted by d.
func Translate(s model.Structure, d model.Point3) model.Structure {
	t := model.Identity()
	t.Translation = d
	return t.ApplyStructure(s)
}

// Slice returns residues [from, to) of s as a new structure with keys
// renumbered from 1.
func Slice(s model.Structure, from, to int) model.Structure {
	out := make(model.Structure, 0, to-from)
	for i := from; i < to; i++ {
		res := model.NewResidue(fmt.Sprintf("B:%d", i-from+1), s[i].Code, s[i].Points...)
		out = append(out, res)
	}
	return out
}
