package geometric

import (
	"context"
	"math"
	"math/rand"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/rnalign/internal/candidate"
	"github.com/hupe1980/rnalign/internal/distcache"
	"github.com/hupe1980/rnalign/internal/pool"
	"github.com/hupe1980/rnalign/internal/ranking"
	"github.com/hupe1980/rnalign/internal/search"
	"github.com/hupe1980/rnalign/internal/specimen"
	"github.com/hupe1980/rnalign/model"
	"github.com/hupe1980/rnalign/superimpose"
)

// tripleSubBatches is the number of passes over the triple cores of a band.
const tripleSubBatches = 2

// Config configures the geometric aligner.
type Config struct {
	RMSDLimit       float64
	PairRMSDLimit   float64
	TripleRMSDLimit float64

	Threads int

	DualCoreBatches          int
	TripleCoreBatchMinimum   int
	TripleCoreBestPercentage float64

	// RefitSlack is how close (in residues) a stuck chain must be to the best
	// chain length to be refitted once.
	RefitSlack int

	SequenceDependent bool
	RespectOrder      bool
}

// Hooks receive progress notifications. All fields are optional and may be
// called concurrently.
type Hooks struct {
	OnPairCores   func(band, cores int)
	OnTripleCores func(band, subBatch, cores int)
	OnChain       func(length int, rmsd float64)
	OnFailure     pool.FailureHandler
}

type pairCore struct {
	x, y      int
	rmsd      float64
	exhausted bool
}

type tripleCore struct {
	r, t      int
	rmsd      float64
	transform model.Transform
}

// Aligner runs the geometric search for one reference/target pair.
type Aligner struct {
	cfg     Config
	ref     model.Structure
	target  model.Structure
	k       int
	refD    *distcache.Cache
	targetD *distcache.Cache

	tracker *search.Tracker
	rng     *rand.Rand
	hooks   Hooks

	// sink receives every completed chain in seeding mode.
	sink func(ref, target []int)
	stop atomic.Bool
}

// New creates an aligner. rng is only used from the calling goroutine.
func New(ref, target model.Structure, cfg Config, tracker *search.Tracker, rng *rand.Rand, hooks Hooks) *Aligner {
	if cfg.DualCoreBatches <= 0 {
		cfg.DualCoreBatches = 1
	}
	return &Aligner{
		cfg:     cfg,
		ref:     ref,
		target:  target,
		k:       ref.PointsPerResidue(),
		tracker: tracker,
		rng:     rng,
		hooks:   hooks,
	}
}

func (a *Aligner) terminated() bool {
	return a.stop.Load() || a.tracker.ShouldTerminate()
}

func (a *Aligner) compatible(r, t int) bool {
	return !a.cfg.SequenceDependent || a.ref[r].SameType(a.target[t])
}

// Run executes the search until the tracker signals termination or all
// batches are exhausted. Results are delivered through the tracker. The
// returned error is the context error if ctx ended the search.
func (a *Aligner) Run(ctx context.Context) error {
	if len(a.ref) < 3 || len(a.target) < 3 {
		return a.runSmall()
	}

	a.refD = distcache.New(a.ref)
	a.targetD = distcache.New(a.target)

	pairs := make([][2]int, 0, len(a.ref)*(len(a.ref)-1)/2)
	for i := range a.ref {
		for j := i + 1; j < len(a.ref); j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	a.rng.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })

	slots := make([][]pairCore, len(pairs))
	for band := 1; band <= a.cfg.DualCoreBatches; band++ {
		if a.terminated() {
			return nil
		}

		if err := a.pairCoresBand(ctx, pairs, slots, band); err != nil {
			return err
		}

		rounds := 0
		for _, s := range slots {
			rounds = max(rounds, len(s))
		}

		for sub := 1; sub <= tripleSubBatches; sub++ {
			for round := 0; round < rounds; round++ {
				if a.terminated() {
					return nil
				}
				if err := a.tripleRound(ctx, pairs, slots, band, sub, round); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// runSmall handles structures too short for triple cores: the best exact
// superposition of all order-preserving pairings of at most two residues.
func (a *Aligner) runSmall() error {
	n, m := len(a.ref), len(a.target)
	best := search.Result{}
	found := false

	try := func(ref, target []int) {
		ra := a.ref.Points(ref...)
		tb := a.target.Points(target...)
		_, rmsd, err := superimpose.FitRMSD(ra, tb)
		if err != nil {
			return
		}
		mapping := search.MappingFromChain(n, ref, target)
		r := search.Result{Key: a.key(mapping, rmsd), Mapping: mapping}
		if !found || ranking.Better(r.Key, best.Key, a.cfg.RMSDLimit) {
			best, found = r, true
		}
	}

	for i := 0; i < n; i++ {
		for x := 0; x < m; x++ {
			if !a.compatible(i, x) {
				continue
			}
			try([]int{i}, []int{x})
			for j := i + 1; j < n; j++ {
				for y := 0; y < m; y++ {
					if y != x && a.compatible(j, y) {
						try([]int{i, j}, []int{x, y})
					}
				}
			}
		}
	}

	if found {
		a.tracker.Offer(best)
	}
	return nil
}

func (a *Aligner) key(mapping []int, rmsd float64) ranking.Key {
	aligned := 0
	for _, t := range mapping {
		if t >= 0 {
			aligned++
		}
	}
	return ranking.Key{
		Aligned:        aligned,
		RMSD:           rmsd,
		IncorrectRatio: ranking.IncorrectRatio(a.ref, a.target, mapping, a.cfg.SequenceDependent, a.cfg.RespectOrder),
	}
}

// pairCoresBand replaces every slot with the pair cores whose RMSD falls in
// the given band, sorted best-first.
func (a *Aligner) pairCoresBand(ctx context.Context, pairs [][2]int, slots [][]pairCore, band int) error {
	bands := float64(a.cfg.DualCoreBatches)
	lo := float64(band-1) / bands * a.cfg.PairRMSDLimit
	hi := float64(band) / bands * a.cfg.PairRMSDLimit
	ceiling := distcache.PairCeiling(hi, a.k)

	var total atomic.Int64
	err := pool.Run(ctx, a.cfg.Threads, len(pairs), func(_ context.Context, unit int) {
		if a.terminated() {
			return
		}
		s := pool.Get()
		defer pool.Put(s)

		i, j := pairs[unit][0], pairs[unit][1]
		dr := a.refD.Get(i, j)
		s.Ref = a.ref.AppendPoints(s.Ref[:0], i, j)

		var cores []pairCore
		for x := range a.target {
			if !a.compatible(i, x) {
				continue
			}
			for y := range a.target {
				if x == y || !a.compatible(j, y) {
					continue
				}
				if distcache.PairScore(dr, a.targetD.Get(x, y)) > ceiling {
					continue
				}
				s.Target = a.target.AppendPoints(s.Target[:0], x, y)
				_, rmsd, err := superimpose.FitRMSD(s.Ref, s.Target)
				if err != nil {
					continue
				}
				if rmsd > hi || (band > 1 && rmsd <= lo) {
					continue
				}
				cores = append(cores, pairCore{x: x, y: y, rmsd: rmsd})
			}
		}

		slices.SortStableFunc(cores, func(p, q pairCore) int {
			switch {
			case p.rmsd < q.rmsd:
				return -1
			case p.rmsd > q.rmsd:
				return 1
			default:
				return 0
			}
		})
		slots[unit] = cores
		total.Add(int64(len(cores)))
	}, a.hooks.OnFailure)

	if a.hooks.OnPairCores != nil {
		a.hooks.OnPairCores(band, int(total.Load()))
	}
	return err
}

// tripleRound extends the round-th best pair core of every slot and grows
// chains from the resulting triple cores of the given sub-batch.
func (a *Aligner) tripleRound(ctx context.Context, pairs [][2]int, slots [][]pairCore, band, sub, round int) error {
	var total atomic.Int64
	err := pool.Run(ctx, a.cfg.Threads, len(pairs), func(_ context.Context, unit int) {
		if a.terminated() {
			return
		}
		cores := slots[unit]
		if round >= len(cores) || cores[round].exhausted {
			return
		}
		core := &cores[round]

		s := pool.Get()
		defer pool.Put(s)

		triples := a.findTriples(s, pairs[unit][0], pairs[unit][1], core.x, core.y)
		keep := max(a.cfg.TripleCoreBatchMinimum, int(float64(len(triples))*a.cfg.TripleCoreBestPercentage))
		keep = min(keep, len(triples))

		var batch []tripleCore
		if sub == 1 {
			batch = triples[:keep]
			if keep == len(triples) {
				core.exhausted = true
			}
		} else {
			batch = triples[keep:]
		}
		total.Add(int64(len(batch)))

		for _, tc := range batch {
			if a.terminated() {
				return
			}
			a.grow(s,
				[]int{pairs[unit][0], pairs[unit][1], tc.r},
				[]int{core.x, core.y, tc.t},
				tc.transform)
		}
	}, a.hooks.OnFailure)

	if a.hooks.OnTripleCores != nil {
		a.hooks.OnTripleCores(band, sub, int(total.Load()))
	}
	return err
}

// findTriples returns the triple cores extending the pair core (i,j)->(x,y),
// sorted best-first.
func (a *Aligner) findTriples(s *pool.Scratch, i, j, x, y int) []tripleCore {
	ceiling := distcache.TripleCeiling(a.cfg.TripleRMSDLimit, a.k)
	rij := a.refD.Get(i, j)
	txy := a.targetD.Get(x, y)

	var triples []tripleCore
	for r := range a.ref {
		if r == i || r == j {
			continue
		}
		rir := a.refD.Get(i, r)
		rjr := a.refD.Get(j, r)
		s.Ref = a.ref.AppendPoints(s.Ref[:0], i, j, r)

		for t := range a.target {
			if t == x || t == y || !a.compatible(r, t) {
				continue
			}
			score := distcache.TripleScore(rij, txy, rir, a.targetD.Get(x, t), rjr, a.targetD.Get(y, t))
			if score >= ceiling {
				continue
			}
			s.Target = a.target.AppendPoints(s.Target[:0], x, y, t)
			tr, rmsd, err := superimpose.FitRMSD(s.Ref, s.Target)
			if err != nil || rmsd >= a.cfg.TripleRMSDLimit {
				continue
			}
			triples = append(triples, tripleCore{r: r, t: t, rmsd: rmsd, transform: tr})
		}
	}

	slices.SortStableFunc(triples, func(p, q tripleCore) int {
		switch {
		case p.rmsd < q.rmsd:
			return -1
		case p.rmsd > q.rmsd:
			return 1
		default:
			return 0
		}
	})
	return triples
}

// grow extends a core chain greedily and offers the result.
func (a *Aligner) grow(s *pool.Scratch, ref, target []int, tr model.Transform) {
	s.UsedRef.ClearAll()
	s.UsedTarget.ClearAll()
	for i := range ref {
		s.UsedRef.Set(uint(ref[i]))
		s.UsedTarget.Set(uint(target[i]))
	}

	a.moveTarget(s, tr)
	a.fillHeap(s)
	sum := a.chainCost(s, ref, target)
	refitted := false

	for {
		c, ok := a.next(s, len(ref), sum)
		if !ok {
			bestLen := a.tracker.BestKey().Aligned
			if refitted || len(ref) < bestLen-a.cfg.RefitSlack {
				break
			}
			refitted = true

			fit, err := superimpose.Fit(a.ref.Points(ref...), a.target.Points(target...))
			if err != nil {
				break
			}
			a.moveTarget(s, fit)
			a.fillHeap(s)
			sum = a.chainCost(s, ref, target)
			continue
		}

		ref = append(ref, c.Ref)
		target = append(target, c.Target)
		s.UsedRef.Set(uint(c.Ref))
		s.UsedTarget.Set(uint(c.Target))
		sum += c.Score
	}

	a.complete(ref, target)
}

// next pops the cheapest addition that keeps the running RMSD estimate under
// the limit.
func (a *Aligner) next(s *pool.Scratch, length int, sum float64) (candidate.Candidate, bool) {
	for s.Heap.Len() > 0 {
		c, _ := s.Heap.TryPeek()
		if s.UsedRef.Test(uint(c.Ref)) || s.UsedTarget.Test(uint(c.Target)) {
			s.Heap.Pop()
			continue
		}
		est := math.Sqrt((sum + c.Score) / float64((length+1)*a.k))
		if est >= a.cfg.RMSDLimit {
			return candidate.Candidate{}, false
		}
		return s.Heap.Pop(), true
	}
	return candidate.Candidate{}, false
}

// moveTarget stores every target point moved by tr in s.Moved.
func (a *Aligner) moveTarget(s *pool.Scratch, tr model.Transform) {
	s.Moved = s.Moved[:0]
	for _, res := range a.target {
		for _, p := range res.Points {
			s.Moved = append(s.Moved, tr.Apply(p))
		}
	}
}

func (a *Aligner) cost(s *pool.Scratch, r, t int) float64 {
	moved := s.Moved[t*a.k : (t+1)*a.k]
	var sum float64
	for i, p := range a.ref[r].Points {
		sum += p.Dist2(moved[i])
	}
	return sum
}

func (a *Aligner) chainCost(s *pool.Scratch, ref, target []int) float64 {
	var sum float64
	for i := range ref {
		sum += a.cost(s, ref[i], target[i])
	}
	return sum
}

// fillHeap pushes every unused, compatible residue pair keyed by its cost
// under the current target placement.
func (a *Aligner) fillHeap(s *pool.Scratch) {
	s.Heap.Reset()
	for r := range a.ref {
		if s.UsedRef.Test(uint(r)) {
			continue
		}
		for t := range a.target {
			if s.UsedTarget.Test(uint(t)) || !a.compatible(r, t) {
				continue
			}
			s.Heap.Candidates = append(s.Heap.Candidates, candidate.Candidate{Ref: r, Target: t, Score: a.cost(s, r, t)})
		}
	}
	s.Heap.Heapify()
}

// complete fits the finished chain exactly and hands it to the tracker and,
// in seeding mode, to the sink.
func (a *Aligner) complete(ref, target []int) {
	_, rmsd, err := superimpose.FitRMSD(a.ref.Points(ref...), a.target.Points(target...))
	if err != nil {
		return
	}
	if a.hooks.OnChain != nil {
		a.hooks.OnChain(len(ref), rmsd)
	}

	mapping := search.MappingFromChain(len(a.ref), ref, target)
	a.tracker.Offer(search.Result{Key: a.key(mapping, rmsd), Mapping: mapping})

	if a.sink != nil {
		a.sink(ref, target)
	}
}

// Seed runs the search in population-seeding mode and returns up to want
// distinct specimens built from the grown chains. Chains are still offered
// to the tracker.
func (a *Aligner) Seed(ctx context.Context, env *specimen.Env, want int) []*specimen.Specimen {
	var (
		mu    sync.Mutex
		seeds []*specimen.Specimen
		seen  = make(map[uint32][]*specimen.Specimen)
	)

	a.stop.Store(false)
	a.sink = func(ref, target []int) {
		sp := specimen.FromChain(env, ref, target)
		fp := sp.Fingerprint()

		mu.Lock()
		defer mu.Unlock()
		if len(seeds) >= want {
			return
		}
		for _, o := range seen[fp] {
			if o.Equal(sp) {
				return
			}
		}
		seen[fp] = append(seen[fp], sp)
		seeds = append(seeds, sp)
		if len(seeds) >= want {
			a.stop.Store(true)
		}
	}
	defer func() { a.sink = nil }()

	_ = a.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	return seeds
}
