package specimen

import (
	"math"
	"math/rand"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/rnalign/internal/hash"
	"github.com/hupe1980/rnalign/internal/ranking"
	"github.com/hupe1980/rnalign/model"
	"github.com/hupe1980/rnalign/superimpose"
)

const (
	crossIntervalChance = 85
	conflictDropChance  = 45
	promisingChance     = 25
	neighbourChance     = 50
	remapTries          = 5
)

// Params configures the operators.
type Params struct {
	SequenceDependent bool
	RespectOrder      bool

	// Percentages for applying 1, 2, 3 or 4 primitive mutations.
	SingleMutation    int
	DoubleMutation    int
	TripleMutation    int
	QuadrupleMutation int
}

// Env is the read-only context shared by all specimens of one run.
type Env struct {
	Ref    model.Structure
	Target model.Structure
	Params Params

	mutationCum [4]int
}

// NewEnv creates an Env.
func NewEnv(ref, target model.Structure, p Params) *Env {
	e := &Env{Ref: ref, Target: target, Params: p}
	e.mutationCum[0] = p.SingleMutation
	e.mutationCum[1] = e.mutationCum[0] + p.DoubleMutation
	e.mutationCum[2] = e.mutationCum[1] + p.TripleMutation
	e.mutationCum[3] = e.mutationCum[2] + p.QuadrupleMutation
	return e
}

// Specimen is one candidate alignment.
type Specimen struct {
	env *Env

	used      *bitset.BitSet
	mapping   []int
	reverse   []int
	free      *roaring.Bitmap
	promising []int

	changed bool
	rmsd    float64
	ratio   float64
}

func newEmpty(env *Env) *Specimen {
	n, m := len(env.Ref), len(env.Target)
	s := &Specimen{
		env:     env,
		used:    bitset.New(uint(n)),
		mapping: make([]int, n),
		reverse: make([]int, m),
		free:    roaring.New(),
		changed: true,
	}
	for i := range s.mapping {
		s.mapping[i] = -1
	}
	for j := range s.reverse {
		s.reverse[j] = -1
	}
	s.free.AddRange(0, uint64(m))
	return s
}

// NewRandom creates a specimen that includes every reference residue with
// probability percentage/100. An included residue is mapped to the target
// following the previous included residue's target when that one is free,
// otherwise to a random free target.
func NewRandom(env *Env, rng *rand.Rand, percentage int) *Specimen {
	s := newEmpty(env)

	selected := -1
	for i := range s.mapping {
		if rng.Intn(100) >= percentage {
			selected = -1
			continue
		}
		if selected >= 0 && s.isFree(selected+1) {
			selected++
		} else {
			selected = s.randomAvailable(rng)
		}
		if selected >= 0 {
			s.assign(i, selected)
		}
	}
	s.evaluate()
	return s
}

// FromChain creates a specimen from parallel reference/target index lists.
// Pairs that would break injectivity are skipped.
func FromChain(env *Env, ref, target []int) *Specimen {
	s := newEmpty(env)
	for i, r := range ref {
		t := target[i]
		if s.mapping[r] >= 0 || !s.isFree(t) {
			continue
		}
		s.assign(r, t)
	}
	s.evaluate()
	return s
}

// fromMapping creates a specimen from a full mapping (one entry per
// reference residue, -1 for unmapped).
func fromMapping(env *Env, mapping []int) *Specimen {
	ref := make([]int, 0, len(mapping))
	target := make([]int, 0, len(mapping))
	for i, t := range mapping {
		if t >= 0 {
			ref = append(ref, i)
			target = append(target, t)
		}
	}
	return FromChain(env, ref, target)
}

// Clone returns a deep copy of s.
func (s *Specimen) Clone() *Specimen {
	return &Specimen{
		env:       s.env,
		used:      s.used.Clone(),
		mapping:   slices.Clone(s.mapping),
		reverse:   slices.Clone(s.reverse),
		free:      s.free.Clone(),
		promising: slices.Clone(s.promising),
		changed:   s.changed,
		rmsd:      s.rmsd,
		ratio:     s.ratio,
	}
}

func (s *Specimen) isFree(t int) bool {
	return t >= 0 && t < len(s.reverse) && s.free.Contains(uint32(t))
}

// assign maps reference residue i to the free target t.
func (s *Specimen) assign(i, t int) {
	s.used.Set(uint(i))
	s.mapping[i] = t
	s.reverse[t] = i
	s.free.Remove(uint32(t))
	s.changed = true
}

// release unmaps reference residue i and frees its target.
func (s *Specimen) release(i int) {
	if t := s.mapping[i]; t >= 0 {
		s.reverse[t] = -1
		s.free.Add(uint32(t))
	}
	s.used.Clear(uint(i))
	s.mapping[i] = -1
	s.changed = true
}

// randomAvailable takes a free target out of the free set, preferring
// promising neighbours of earlier draws. Returns -1 when nothing is free.
// The caller must assign the returned target.
func (s *Specimen) randomAvailable(rng *rand.Rand) int {
	if len(s.promising) > 0 && rng.Intn(100) < promisingChance {
		for len(s.promising) > 0 {
			idx := rng.Intn(len(s.promising))
			t := s.promising[idx]
			s.promising = slices.Delete(s.promising, idx, idx+1)
			if s.isFree(t) {
				return t
			}
		}
	}

	card := s.free.GetCardinality()
	if card == 0 {
		return -1
	}
	v, err := s.free.Select(uint32(rng.Int63n(int64(card))))
	if err != nil {
		return -1
	}
	t := int(v)

	for _, nb := range [2]int{t - 1, t + 1} {
		if s.isFree(nb) && !slices.Contains(s.promising, nb) && rng.Intn(100) < neighbourChance {
			s.promising = append(s.promising, nb)
		}
	}
	return t
}

// Crossover overwrites an index interval of s with the genes of other. With
// probability 85% the interval is random, otherwise it is a tail [r, n).
func (s *Specimen) Crossover(other *Specimen, rng *rand.Rand) {
	n := len(s.mapping)
	if n < 2 {
		return
	}
	s.changed = true

	if rng.Intn(100) < crossIntervalChance {
		from := rng.Intn(n - 1)
		to := from + 1 + rng.Intn(n-from-1)
		s.crossRange(other, rng, from, to)
		return
	}
	s.crossRange(other, rng, rng.Intn(n-1)+1, n)
}

func (s *Specimen) crossRange(other *Specimen, rng *rand.Rand, from, to int) {
	for i := from; i < to; i++ {
		s.release(i)
	}

	for i := from; i < to; i++ {
		t := other.mapping[i]
		if t < 0 {
			continue
		}
		if s.isFree(t) {
			s.assign(i, t)
			continue
		}

		chance := rng.Intn(101)
		switch {
		case chance < conflictDropChance:
			// Keep the existing owner.
		case chance < 100:
			s.release(s.reverse[t])
			s.assign(i, t)
		default:
			if r := s.randomAvailable(rng); r >= 0 {
				s.assign(i, r)
			}
		}
	}
}

// Mutate applies one to four primitive mutations according to the
// cumulative mutation percentages.
func (s *Specimen) Mutate(rng *rand.Rand) {
	s.changed = true

	v := rng.Intn(100)
	count := 0
	for i, c := range s.env.mutationCum {
		if v < c {
			count = i + 1
			break
		}
	}
	for range count {
		s.mutateOnce(rng, rng.Intn(3))
	}
}

func (s *Specimen) mutateOnce(rng *rand.Rand, variant int) {
	n := len(s.mapping)
	if n == 0 {
		return
	}

	switch variant {
	case 0:
		s.toggle(rng, rng.Intn(n))
	case 1:
		if n < 2 {
			return
		}
		a := rng.Intn(n)
		b := rng.Intn(n - 1)
		if b >= a {
			b++
		}
		s.swap(a, b)
	case 2:
		s.remap(rng)
	}
}

// toggle flips the inclusion of reference residue i. A newly included
// residue continues its left neighbour's run, or precedes its right
// neighbour's, when that target is free.
func (s *Specimen) toggle(rng *rand.Rand, i int) {
	if s.mapping[i] >= 0 {
		s.release(i)
		return
	}

	selected := -1
	if i > 0 && s.mapping[i-1] >= 0 && s.isFree(s.mapping[i-1]+1) {
		selected = s.mapping[i-1] + 1
	} else if i+1 < len(s.mapping) && s.mapping[i+1] >= 0 && s.isFree(s.mapping[i+1]-1) {
		selected = s.mapping[i+1] - 1
	}
	if selected < 0 {
		selected = s.randomAvailable(rng)
	}
	if selected >= 0 {
		s.assign(i, selected)
	}
}

// swap exchanges the genes of reference residues a and b.
func (s *Specimen) swap(a, b int) {
	ta, tb := s.mapping[a], s.mapping[b]
	s.mapping[a], s.mapping[b] = tb, ta
	if tb >= 0 {
		s.reverse[tb] = a
		s.used.Set(uint(a))
	} else {
		s.used.Clear(uint(a))
	}
	if ta >= 0 {
		s.reverse[ta] = b
		s.used.Set(uint(b))
	} else {
		s.used.Clear(uint(b))
	}
	s.changed = true
}

// remap moves a random included residue to a new random free target.
func (s *Specimen) remap(rng *rand.Rand) {
	n := len(s.mapping)
	i := rng.Intn(n)
	for tries := 1; s.mapping[i] < 0; tries++ {
		if tries == remapTries {
			return
		}
		i = rng.Intn(n)
	}

	s.release(i)
	if t := s.randomAvailable(rng); t >= 0 {
		s.assign(i, t)
	}
}

// Refine applies cheap local repairs in one left-to-right pass:
//
//   - an included residue whose both neighbours are included but map more
//     than one position away is dropped;
//   - the pattern (t, -1, t+1) becomes (t, t+1, -1);
//   - the pattern (t+1, t) becomes (t, t+1).
func (s *Specimen) Refine() {
	m := s.mapping
	n := len(m)
	for i := 0; i < n; i++ {
		if m[i] < 0 {
			continue
		}
		switch {
		case i > 0 && i+1 < n && m[i-1] >= 0 && m[i+1] >= 0 &&
			abs(m[i]-m[i+1]) > 1 && abs(m[i-1]-m[i]) > 1:
			s.release(i)
		case i+2 < n && m[i+1] < 0 && m[i]+1 == m[i+2]:
			s.swap(i+1, i+2)
		case i+1 < n && m[i+1] >= 0 && m[i] == m[i+1]+1:
			s.swap(i, i+1)
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// evaluate refreshes the cached RMSD and incorrect ratio if the mapping
// changed since the last evaluation.
func (s *Specimen) evaluate() {
	if !s.changed {
		return
	}
	s.changed = false

	if s.used.None() {
		s.rmsd = math.Inf(1)
		s.ratio = 0
		return
	}

	a, b := s.points()
	_, rmsd, err := superimpose.FitRMSD(a, b)
	if err != nil {
		rmsd = math.Inf(1)
	}
	s.rmsd = rmsd
	s.ratio = ranking.IncorrectRatio(s.env.Ref, s.env.Target, s.mapping,
		s.env.Params.SequenceDependent, s.env.Params.RespectOrder)
}

func (s *Specimen) points() (a, b []model.Point3) {
	k := s.env.Ref.PointsPerResidue()
	cnt := int(s.used.Count())
	a = make([]model.Point3, 0, cnt*k)
	b = make([]model.Point3, 0, cnt*k)
	for i, t := range s.mapping {
		if t >= 0 {
			a = append(a, s.env.Ref[i].Points...)
			b = append(b, s.env.Target[t].Points...)
		}
	}
	return a, b
}

// RMSD returns the RMSD of the optimal superposition of the mapped residues,
// or +Inf for an empty specimen.
func (s *Specimen) RMSD() float64 {
	s.evaluate()
	return s.rmsd
}

// IncorrectRatio returns the fraction of incorrectly paired residues.
func (s *Specimen) IncorrectRatio() float64 {
	s.evaluate()
	return s.ratio
}

// Aligned returns the number of mapped reference residues.
func (s *Specimen) Aligned() int {
	return int(s.used.Count())
}

// Key returns the ranking key of s.
func (s *Specimen) Key() ranking.Key {
	s.evaluate()
	return ranking.Key{Aligned: s.Aligned(), RMSD: s.rmsd, IncorrectRatio: s.ratio}
}

// Fingerprint returns a hash of the mapping.
func (s *Specimen) Fingerprint() uint32 {
	return hash.Mapping(s.mapping)
}

// Equal reports whether both specimens carry the same mapping.
func (s *Specimen) Equal(o *Specimen) bool {
	return slices.Equal(s.mapping, o.mapping)
}

// Mapping returns the forward mapping. The slice must not be modified.
func (s *Specimen) Mapping() []int {
	return s.mapping
}

// transform returns the superposition of the mapped target residues onto
// the reference residues.
func (s *Specimen) transform() (model.Transform, error) {
	a, b := s.points()
	return superimpose.Fit(a, b)
}
