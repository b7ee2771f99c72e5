package superimpose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rnalign/model"
	"github.com/hupe1980/rnalign/testutil"
)

func TestFitRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(4711)

	for i := range 20 {
		a := rng.Structure(5+i, 3).AllPoints()
		motion := rng.RigidTransform(30)
		b := Apply(motion, a)

		tr, rmsd, err := FitRMSD(a, b)
		require.NoError(t, err)
		assert.Less(t, rmsd, 1e-6)
		assert.InDelta(t, 1.0, tr.Det(), 1e-9)

		back := Apply(tr, b)
		for j := range a {
			assert.InDelta(t, 0, a[j].Dist(back[j]), 1e-6)
		}
	}
}

func TestFitTranslationOnly(t *testing.T) {
	rng := testutil.NewRNG(1)
	a := rng.Structure(10, 3).AllPoints()

	shift := model.Identity()
	shift.Translation = model.Point3{X: 10}
	b := Apply(shift, a)

	tr, err := Fit(a, b)
	require.NoError(t, err)
	assert.InDelta(t, -10, tr.Translation.X, 1e-6)
	assert.InDelta(t, 0, tr.Translation.Y, 1e-6)
	assert.InDelta(t, 0, tr.Translation.Z, 1e-6)
}

func TestFitMirroredInputIsProper(t *testing.T) {
	rng := testutil.NewRNG(2)
	a := rng.Structure(12, 3).AllPoints()

	mirrored := make([]model.Point3, len(a))
	for i, p := range a {
		mirrored[i] = model.Point3{X: -p.X, Y: p.Y, Z: p.Z}
	}

	tr, err := Fit(a, mirrored)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, tr.Det(), 1e-9)
}

func TestFitIsOptimal(t *testing.T) {
	rng := testutil.NewRNG(3)
	ref := rng.Structure(15, 3)
	noisy := rng.Jitter(rng.RigidTransform(20).ApplyStructure(ref), 0.5)

	a, b := ref.AllPoints(), noisy.AllPoints()
	tr, rmsd, err := FitRMSD(a, b)
	require.NoError(t, err)

	// Perturbing the optimum never lowers the RMSD.
	for range 10 {
		p := tr
		p.Translation = p.Translation.Add(model.Point3{X: 0.1 * (rng.Float64() - 0.5), Y: 0.05})
		other, err := RMSD(a, Apply(p, b))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, other+1e-12, rmsd)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		a, b []model.Point3
		err  error
	}{
		{"length mismatch", make([]model.Point3, 3), make([]model.Point3, 2), ErrLengthMismatch},
		{"empty", nil, nil, ErrTooFewPoints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(tt.a, tt.b)
			assert.ErrorIs(t, err, tt.err)

			_, err = RMSD(tt.a, tt.b)
			assert.ErrorIs(t, err, tt.err)

			_, _, err = FitRMSD(tt.a, tt.b)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestApplyDoesNotMutate(t *testing.T) {
	pts := []model.Point3{{X: 1, Y: 2, Z: 3}}
	tr := model.Identity()
	tr.Translation = model.Point3{X: 1}

	out := Apply(tr, pts)

	assert.Equal(t, model.Point3{X: 1, Y: 2, Z: 3}, pts[0])
	assert.Equal(t, model.Point3{X: 2, Y: 2, Z: 3}, out[0])
}
