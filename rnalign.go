package rnalign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/rnalign/internal/genetic"
	"github.com/hupe1980/rnalign/internal/geometric"
	"github.com/hupe1980/rnalign/internal/pool"
	"github.com/hupe1980/rnalign/internal/ranking"
	"github.com/hupe1980/rnalign/internal/search"
	"github.com/hupe1980/rnalign/internal/specimen"
	"github.com/hupe1980/rnalign/model"
	"github.com/hupe1980/rnalign/superimpose"
)

// Align searches for the largest subset of residues of target that can be
// superimposed onto ref within cfg.RMSDLimit.
//
// Invalid input is reported before any search starts. Once the search runs,
// Align always returns the best alignment found, also when ctx ends the
// search early. An Output with Aligned == 0 means no alignment was found.
func Align(ctx context.Context, ref, target model.Structure, cfg Config, opts ...Option) (*model.Output, error) {
	o := applyOptions(cfg, opts)
	start := o.now()

	runID := o.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := o.logger.WithRunID(runID).WithMethod(cfg.Method).WithSizes(len(ref), len(target))

	fail := func(err error) (*model.Output, error) {
		log.LogResult(ctx, nil, err)
		o.metricsCollector.RecordAlign(cfg.Method, 0, 0, o.now().Sub(start), err)
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return fail(fmt.Errorf("align: %w", err))
	}
	if err := validateStructures(ref, target); err != nil {
		return fail(fmt.Errorf("align: %w", err))
	}

	if cfg.SequenceDependent && len(ref) != len(target) {
		log.WarnContext(ctx, "structures differ in length, sequence-dependent mode disabled")
		cfg.SequenceDependent = false
	}

	r := &run{
		cfg:     cfg,
		ref:     ref,
		target:  target,
		opts:    o,
		log:     log,
		metrics: o.metricsCollector,
	}
	r.tracker = search.NewTracker(ctx, r.trackerConfig(start))

	var err error
	switch cfg.Method {
	case MethodGenetic:
		err = r.genetic(ctx)
	default:
		err = r.geometric(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fail(fmt.Errorf("align: %w", err))
	}

	log.LogSearchStats(ctx, r.tracker.Stats())

	out, err := r.output(o.now().Sub(start))
	if err != nil {
		return fail(fmt.Errorf("align: %w", err))
	}

	log.LogResult(ctx, out, nil)
	o.metricsCollector.RecordAlign(cfg.Method, out.Aligned, out.RMSD, out.Elapsed, nil)
	return out, nil
}

type run struct {
	cfg     Config
	ref     model.Structure
	target  model.Structure
	opts    options
	log     *Logger
	metrics MetricsCollector
	tracker *search.Tracker
}

func (r *run) trackerConfig(start time.Time) search.Config {
	tc := search.Config{
		Start:      start,
		Budget:     r.cfg.ReturnTime,
		RMSDLimit:  r.cfg.RMSDLimit,
		MaxAligned: min(len(r.ref), len(r.target)),
		Now:        r.opts.now,
		OnImprove: func(imp search.Improvement) {
			kind := imp.Kind.String()
			r.metrics.RecordImprovement(kind, imp.Current.Aligned, imp.Current.RMSD)
			r.log.LogImprovement(context.Background(), kind, imp.Current.Aligned, imp.Current.RMSD, imp.Current.IncorrectRatio)
		},
	}
	if r.cfg.Method == MethodGenetic {
		tc.Deadline = search.DeadlinePolicy{
			Adaptive:             true,
			StartPercentage:      r.cfg.DeadlineStartPercentage,
			WaitBufferPercentage: r.cfg.WaitBufferPercentage,
			WaitBufferFlat:       r.cfg.WaitBufferFlat,
			ImprResultPercentage: r.cfg.ImprResultPercentage,
			ImprResultFlat:       r.cfg.ImprResultFlat,
			ImprRMSDPercentage:   r.cfg.ImprRMSDPercentage,
			ImprRMSDFlat:         r.cfg.ImprRMSDFlat,
		}
	}
	return tc
}

func (r *run) failureHandler(ctx context.Context, phase string) pool.FailureHandler {
	return func(err *pool.PanicError) {
		r.metrics.RecordUnitFailure()
		r.log.LogUnitFailure(ctx, phase, err)
	}
}

func (r *run) newGeometric(ctx context.Context, phase string) *geometric.Aligner {
	cfg := geometric.Config{
		RMSDLimit:                r.cfg.RMSDLimit,
		PairRMSDLimit:            r.cfg.PairRMSDLimit,
		TripleRMSDLimit:          r.cfg.TripleRMSDLimit,
		Threads:                  r.cfg.threads(),
		DualCoreBatches:          r.cfg.DualCoreBatches,
		TripleCoreBatchMinimum:   r.cfg.TripleCoreBatchMinimum,
		TripleCoreBestPercentage: r.cfg.TripleCoreBestPercentage,
		RefitSlack:               r.cfg.RefitSlack,
		SequenceDependent:        r.cfg.SequenceDependent,
		RespectOrder:             r.cfg.RespectOrder,
	}
	hooks := geometric.Hooks{
		OnPairCores: func(band, cores int) {
			r.metrics.RecordPairCores(band, cores)
			r.log.LogPhase(ctx, "pair cores", "band", band, "cores", cores)
		},
		OnTripleCores: func(band, sub, cores int) {
			r.metrics.RecordTripleCores(band, sub, cores)
			r.log.LogPhase(ctx, "triple cores", "band", band, "sub_batch", sub, "cores", cores)
		},
		OnChain:   r.metrics.RecordChain,
		OnFailure: r.failureHandler(ctx, phase),
	}
	return geometric.New(r.ref, r.target, cfg, r.tracker, r.opts.rng, hooks)
}

func (r *run) geometric(ctx context.Context) error {
	r.log.LogPhase(ctx, "geometric")
	return r.newGeometric(ctx, "geometric").Run(ctx)
}

func (r *run) genetic(ctx context.Context) error {
	env := specimen.NewEnv(r.ref, r.target, specimen.Params{
		SequenceDependent: r.cfg.SequenceDependent,
		RespectOrder:      r.cfg.RespectOrder,
		SingleMutation:    r.cfg.SingleMutation,
		DoubleMutation:    r.cfg.DoubleMutation,
		TripleMutation:    r.cfg.TripleMutation,
		QuadrupleMutation: r.cfg.QuadrupleMutation,
	})
	threads := r.cfg.threads()

	var seeds *genetic.SeedPool
	if r.cfg.GeometricPopulationSeeding {
		want := r.cfg.PopulationSize * threads
		r.log.LogPhase(ctx, "population seeding", "want", want)
		found := r.newGeometric(ctx, "population seeding").Seed(ctx, env, want)
		r.log.LogPhase(ctx, "population seeding done", "seeds", len(found))
		seeds = genetic.NewSeedPool(found)
	}

	cfg := genetic.Config{
		RMSDLimit:         r.cfg.RMSDLimit,
		Threads:           threads,
		PopulationSize:    r.cfg.PopulationSize,
		BestPercentage:    r.cfg.BestPercentage,
		ResetThreadTime:   r.cfg.ResetThreadTime,
		StagnationLimit:   r.cfg.StagnationLimit,
		CrossChance:       r.cfg.CrossChance,
		MutationChance:    r.cfg.MutationChance,
		NewSpecimenChance: r.cfg.NewSpecimenChance,
	}
	hooks := genetic.Hooks{
		OnGeneration: func(worker, generation int, _ ranking.Key) {
			r.metrics.RecordGeneration(worker, generation)
		},
		OnRestart: func(worker int) {
			r.log.LogPhase(ctx, "population restart", "worker", worker)
		},
		OnFailure: r.failureHandler(ctx, "genetic"),
	}

	r.log.LogPhase(ctx, "genetic", "threads", threads, "population", r.cfg.PopulationSize)
	return genetic.New(env, cfg, r.tracker, seeds, r.opts.rng.Int63(), hooks).Run(ctx)
}

// rmsdTolerance absorbs rounding differences between the RMSD a worker
// reported and the final refit.
const rmsdTolerance = 1e-9

// output builds the final Output from the tracker's best result. Transform
// and RMSD come from a fresh fit over all aligned pairs. A best result above
// the RMSD limit is not an alignment and yields Aligned == 0.
func (r *run) output(elapsed time.Duration) (*model.Output, error) {
	out := &model.Output{
		Method:           string(r.cfg.Method),
		ReferenceIndices: make([]int, len(r.ref)),
		TargetMapping:    make([]int, len(r.ref)),
		Transform:        model.Identity(),
		Elapsed:          elapsed,
	}
	for i := range out.ReferenceIndices {
		out.ReferenceIndices[i] = i
		out.TargetMapping[i] = -1
	}

	best, ok := r.tracker.Best()
	if !ok || best.Key.RMSD > r.cfg.RMSDLimit+rmsdTolerance {
		return out, nil
	}

	aligned := 0
	for _, t := range best.Mapping {
		if t >= 0 {
			aligned++
		}
	}
	if aligned == 0 {
		return out, nil
	}

	a, b := search.MappedPoints(r.ref, r.target, best.Mapping)
	tr, rmsd, err := superimpose.FitRMSD(a, b)
	if err != nil {
		return nil, err
	}
	if rmsd > r.cfg.RMSDLimit+rmsdTolerance {
		return out, nil
	}
	copy(out.TargetMapping, best.Mapping)
	out.Aligned = aligned
	out.Transform = tr
	out.RMSD = rmsd
	return out, nil
}
