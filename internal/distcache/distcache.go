// Package distcache precomputes per-residue-pair distance vectors and the
// distance-only similarity scores used to prune candidate correspondences
// before any superposition is attempted.
package distcache

import (
	"math"

	"github.com/hupe1980/rnalign/model"
)

// Cache holds, for every ordered residue pair (u, v), the k distances between
// their corresponding representative points. The cache is immutable after
// construction and safe for concurrent use.
type Cache struct {
	n, k int
	data []float64
}

// New precomputes the distance vectors of s.
func New(s model.Structure) *Cache {
	n, k := len(s), s.PointsPerResidue()
	c := &Cache{n: n, k: k, data: make([]float64, n*n*k)}

	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			uv := c.offset(u, v)
			vu := c.offset(v, u)
			for i := 0; i < k; i++ {
				d := s[u].Points[i].Dist(s[v].Points[i])
				c.data[uv+i] = d
				c.data[vu+i] = d
			}
		}
	}
	return c
}

func (c *Cache) offset(u, v int) int {
	return (u*c.n + v) * c.k
}

// Len returns the number of residues.
func (c *Cache) Len() int { return c.n }

// K returns the number of representative points per residue.
func (c *Cache) K() int { return c.k }

// Get returns the distance vector of (u, v). The returned slice aliases the
// cache and must not be modified.
func (c *Cache) Get(u, v int) []float64 {
	o := c.offset(u, v)
	return c.data[o : o+c.k : o+c.k]
}

// PairScore returns Σ (dr[i]-dt[i])², a lower-bound style dissimilarity of
// two residue pairs computed from distances only.
func PairScore(dr, dt []float64) float64 {
	var sum float64
	for i := range dr {
		d := dr[i] - dt[i]
		sum += d * d
	}
	return sum
}

// TripleScore compares three residue pairs of the reference (r12, r13, r23)
// with the corresponding pairs of the target (t12, t13, t23). For every
// representative point the absolute distance differences d1, d2, d3 are
// combined as (d1-d2)² + (d2-d3)² + (d3-d1)².
func TripleScore(r12, t12, r13, t13, r23, t23 []float64) float64 {
	var sum float64
	for i := range r12 {
		d1 := math.Abs(r12[i] - t12[i])
		d2 := math.Abs(r13[i] - t13[i])
		d3 := math.Abs(r23[i] - t23[i])
		sum += (d1-d2)*(d1-d2) + (d2-d3)*(d2-d3) + (d3-d1)*(d3-d1)
	}
	return sum
}

// PairCeiling returns the pruning ceiling for PairScore: (2·limit)²·k.
func PairCeiling(limit float64, k int) float64 {
	return 4 * limit * limit * float64(k)
}

// TripleCeiling returns the pruning ceiling for TripleScore: (3·limit)²·k.
func TripleCeiling(limit float64, k int) float64 {
	return 9 * limit * limit * float64(k)
}
