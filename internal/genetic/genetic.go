// Package genetic implements the population-based aligner. Every worker
// evolves its own population; the shared search.Tracker holds the global best,
// the adaptive deadline and the global stagnation counter.
package genetic

import (
	"context"
	"math"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/rnalign/internal/pool"
	"github.com/hupe1980/rnalign/internal/ranking"
	"github.com/hupe1980/rnalign/internal/search"
	"github.com/hupe1980/rnalign/internal/specimen"
)

const (
	// maxInitAttempts bounds the retries for a fresh random specimen.
	maxInitAttempts = 50

	// duplicateRetryFactor bounds duplicate regeneration per generation to
	// duplicateRetryFactor × population size draws.
	duplicateRetryFactor = 10

	minInitPercentage  = 5
	initPercentageSpan = 85
)

// Config configures the genetic aligner.
type Config struct {
	RMSDLimit float64
	Threads   int

	PopulationSize int
	BestPercentage float64

	// ResetThreadTime restarts a worker's population after this long without
	// a local improvement.
	ResetThreadTime time.Duration

	// StagnationLimit ends a worker after this many consecutive generations
	// without a local improvement. Zero disables the limit.
	StagnationLimit int

	CrossChance       int
	MutationChance    int
	NewSpecimenChance int
}

// Hooks receive progress notifications. All fields are optional and may be
// called concurrently.
type Hooks struct {
	OnGeneration func(worker, generation int, best ranking.Key)
	OnRestart    func(worker int)
	OnFailure    pool.FailureHandler
}

// SeedPool hands out clones of precomputed specimens. It is safe for
// concurrent use.
type SeedPool struct {
	mu    sync.Mutex
	seeds []*specimen.Specimen
}

// NewSeedPool creates a pool over seeds.
func NewSeedPool(seeds []*specimen.Specimen) *SeedPool {
	return &SeedPool{seeds: seeds}
}

// Take returns a clone of the next seed, or nil when the pool is exhausted.
func (p *SeedPool) Take() *specimen.Specimen {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.seeds) == 0 {
		return nil
	}
	s := p.seeds[0]
	p.seeds = p.seeds[1:]
	return s.Clone()
}

// Len returns the number of seeds left.
func (p *SeedPool) Len() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seeds)
}

// Aligner runs the genetic search.
type Aligner struct {
	cfg     Config
	env     *specimen.Env
	tracker *search.Tracker
	seeds   *SeedPool
	hooks   Hooks
	seed    int64

	crossCum, mutationCum, total int
}

// New creates an aligner. seeds may be nil. Worker w draws from a random
// stream seeded with seed+w.
func New(env *specimen.Env, cfg Config, tracker *search.Tracker, seeds *SeedPool, seed int64, hooks Hooks) *Aligner {
	a := &Aligner{
		cfg:     cfg,
		env:     env,
		tracker: tracker,
		seeds:   seeds,
		hooks:   hooks,
		seed:    seed,
	}
	a.crossCum = cfg.CrossChance
	a.mutationCum = a.crossCum + cfg.MutationChance
	a.total = a.mutationCum + cfg.NewSpecimenChance
	return a
}

// Run evolves one population per worker until the tracker signals
// termination or every worker stagnated.
func (a *Aligner) Run(ctx context.Context) error {
	threads := max(a.cfg.Threads, 1)
	return pool.Run(ctx, threads, threads, func(_ context.Context, w int) {
		a.worker(w)
	}, a.hooks.OnFailure)
}

func (a *Aligner) compare(x, y *specimen.Specimen) int {
	return ranking.Compare(x.Key(), y.Key(), a.cfg.RMSDLimit)
}

func (a *Aligner) sort(pop []*specimen.Specimen) {
	slices.SortStableFunc(pop, a.compare)
}

func (a *Aligner) offer(s *specimen.Specimen) {
	a.tracker.Offer(search.Result{Key: s.Key(), Mapping: s.Mapping()})
}

func (a *Aligner) worker(w int) {
	rng := rand.New(rand.NewSource(a.seed + int64(w)))
	stagnant := 0
	generation := 0

	for {
		pop := a.initPopulation(rng)
		best := pop[0].Clone()
		a.offer(best)
		lastImprovement := a.tracker.Now()

		for {
			if a.tracker.ShouldTerminate() {
				return
			}
			if a.cfg.StagnationLimit > 0 && stagnant >= a.cfg.StagnationLimit {
				return
			}
			if a.tracker.Now().Sub(lastImprovement) >= a.cfg.ResetThreadTime {
				break
			}

			pop = a.nextGeneration(rng, pop)
			generation++

			if ranking.Better(pop[0].Key(), best.Key(), a.cfg.RMSDLimit) {
				best = pop[0].Clone()
				lastImprovement = a.tracker.Now()
				stagnant = 0
				a.offer(best)
			} else {
				stagnant++
				a.tracker.Tick()
			}

			if a.hooks.OnGeneration != nil {
				a.hooks.OnGeneration(w, generation, best.Key())
			}
		}

		if a.hooks.OnRestart != nil {
			a.hooks.OnRestart(w)
		}
	}
}

// initPopulation builds a sorted population from the seed pool, falling back
// to fresh random specimens.
func (a *Aligner) initPopulation(rng *rand.Rand) []*specimen.Specimen {
	size := max(a.cfg.PopulationSize, 1)
	pop := make([]*specimen.Specimen, 0, size)
	for len(pop) < size {
		if s := a.seeds.Take(); s != nil {
			pop = append(pop, s)
			continue
		}
		pop = append(pop, a.fresh(rng, minInitPercentage+rng.Intn(initPercentageSpan)))
	}
	a.sort(pop)
	return pop
}

// fresh creates a random specimen with more than one aligned residue and
// RMSD within the limit. After maxInitAttempts the best-ranked attempt is
// returned.
func (a *Aligner) fresh(rng *rand.Rand, percentage int) *specimen.Specimen {
	var best *specimen.Specimen
	for range maxInitAttempts {
		s := specimen.NewRandom(a.env, rng, percentage)
		if s.Aligned() > 1 && s.RMSD() <= a.cfg.RMSDLimit {
			return s
		}
		if best == nil || a.compare(s, best) < 0 {
			best = s
		}
	}
	return best
}

// nextGeneration keeps the elite and fills the rest with offspring.
func (a *Aligner) nextGeneration(rng *rand.Rand, pop []*specimen.Specimen) []*specimen.Specimen {
	size := max(a.cfg.PopulationSize, 1)
	elite := min(int(math.Ceil(float64(len(pop))*a.cfg.BestPercentage)), len(pop), size)

	next := make([]*specimen.Specimen, 0, size)
	seen := make(map[uint32][]*specimen.Specimen, size)
	add := func(s *specimen.Specimen, force bool) bool {
		fp := s.Fingerprint()
		if !force {
			for _, o := range seen[fp] {
				if o.Equal(s) {
					return false
				}
			}
		}
		seen[fp] = append(seen[fp], s)
		next = append(next, s)
		return true
	}

	for _, s := range pop[:elite] {
		add(s, true)
	}

	retries := duplicateRetryFactor * size
	for len(next) < size {
		child := a.offspring(rng, pop)
		child.Refine()
		if !add(child, retries <= 0) {
			retries--
		}
	}

	a.sort(next)
	return next
}

func (a *Aligner) offspring(rng *rand.Rand, pop []*specimen.Specimen) *specimen.Specimen {
	v := 0
	if a.total > 0 {
		v = rng.Intn(a.total)
	}

	switch {
	case v < a.crossCum:
		child := pop[rng.Intn(len(pop))].Clone()
		child.Crossover(pop[rng.Intn(len(pop))], rng)
		return child
	case v < a.mutationCum || a.total == 0:
		child := pop[rng.Intn(len(pop))].Clone()
		child.Mutate(rng)
		return child
	default:
		return a.fresh(rng, 1+rng.Intn(100))
	}
}
