package distcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rnalign/testutil"
)

func TestCacheSymmetric(t *testing.T) {
	rng := testutil.NewRNG(4711)
	s := rng.Structure(8, 3)

	c := New(s)
	require.Equal(t, 8, c.Len())
	require.Equal(t, 3, c.K())

	for u := range s {
		for v := range s {
			assert.Equal(t, c.Get(u, v), c.Get(v, u))
			for i := 0; i < 3; i++ {
				assert.InDelta(t, s[u].Points[i].Dist(s[v].Points[i]), c.Get(u, v)[i], 1e-12)
			}
		}
		assert.Equal(t, []float64{0, 0, 0}, c.Get(u, u))
	}
}

func TestRigidInvariance(t *testing.T) {
	rng := testutil.NewRNG(1)
	s := rng.Structure(6, 3)
	moved := rng.RigidTransform(15).ApplyStructure(s)

	a, b := New(s), New(moved)
	for u := range s {
		for v := range s {
			assert.InDelta(t, 0, PairScore(a.Get(u, v), b.Get(u, v)), 1e-9)
		}
	}
	assert.InDelta(t, 0, TripleScore(
		a.Get(0, 1), b.Get(0, 1),
		a.Get(0, 2), b.Get(0, 2),
		a.Get(1, 2), b.Get(1, 2),
	), 1e-9)
}

func TestScores(t *testing.T) {
	assert.InDelta(t, 5.0, PairScore([]float64{1, 2}, []float64{2, 4}), 1e-12)

	// d = (1, 0, 2): (1-0)² + (0-2)² + (2-1)² = 6
	assert.InDelta(t, 6.0, TripleScore(
		[]float64{1}, []float64{2},
		[]float64{3}, []float64{3},
		[]float64{5}, []float64{3},
	), 1e-12)
}

func TestCeilings(t *testing.T) {
	assert.InDelta(t, 4*0.65*0.65*3, PairCeiling(0.65, 3), 1e-12)
	assert.InDelta(t, 27.0, TripleCeiling(1.0, 3), 1e-12)
}
