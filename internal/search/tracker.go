// Package search holds the state shared by all workers of one alignment run:
// the best result found so far, the (possibly adaptive) deadline and the
// global stagnation counter. All of it sits behind a single mutex and is
// only touched in short compare-and-maybe-replace sections.
package search

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/rnalign/internal/ranking"
	"github.com/hupe1980/rnalign/model"
)

// Result is a snapshot of one alignment.
type Result struct {
	Key ranking.Key
	// Mapping holds one target index (or -1) per reference residue.
	Mapping []int
}

// Clone returns a deep copy of r.
func (r Result) Clone() Result {
	return Result{Key: r.Key, Mapping: slices.Clone(r.Mapping)}
}

// ImprovementKind classifies an accepted offer.
type ImprovementKind int

const (
	// ImprovementFirst is the first result ever accepted.
	ImprovementFirst ImprovementKind = iota
	// ImprovementLonger means more residues are aligned than before.
	ImprovementLonger
	// ImprovementAccurate means the same or fewer residues with a better rank.
	ImprovementAccurate
)

func (k ImprovementKind) String() string {
	switch k {
	case ImprovementFirst:
		return "first"
	case ImprovementLonger:
		return "longer"
	case ImprovementAccurate:
		return "accurate"
	default:
		return "unknown"
	}
}

// Improvement describes an accepted offer.
type Improvement struct {
	Kind     ImprovementKind
	Previous ranking.Key
	Current  ranking.Key
	Deadline time.Time
}

// DeadlinePolicy controls the adaptive deadline. The zero value disables
// adaptation: the deadline is simply start + budget.
type DeadlinePolicy struct {
	Adaptive bool

	// StartPercentage of the budget forms the initial deadline.
	StartPercentage float64

	// Clamp applied to every extension.
	WaitBufferPercentage float64
	WaitBufferFlat       time.Duration

	// Extension after a longer alignment was found.
	ImprResultPercentage float64
	ImprResultFlat       time.Duration

	// Extension after a more accurate alignment was found.
	ImprRMSDPercentage float64
	ImprRMSDFlat       time.Duration
}

// Config configures a Tracker.
type Config struct {
	Start     time.Time
	Budget    time.Duration
	RMSDLimit float64

	// MaxAligned is min(len(reference), len(target)). A within-limit result
	// with no incorrect pairs aligning that many residues ends the search.
	MaxAligned int

	Deadline DeadlinePolicy

	// OnImprove is called after every accepted offer, outside the lock.
	OnImprove func(Improvement)

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Tracker is the single shared mutable record of an alignment run.
type Tracker struct {
	ctx context.Context
	cfg Config
	end time.Time

	mu         sync.Mutex
	best       Result
	hasBest    bool
	deadline   time.Time
	stagnation int
	offers     int
}

// NewTracker creates a tracker bound to ctx.
func NewTracker(ctx context.Context, cfg Config) *Tracker {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Start.IsZero() {
		cfg.Start = cfg.Now()
	}

	t := &Tracker{
		ctx: ctx,
		cfg: cfg,
		end: cfg.Start.Add(cfg.Budget),
	}

	t.deadline = t.end
	if cfg.Deadline.Adaptive {
		t.deadline = cfg.Start.Add(time.Duration(cfg.Deadline.StartPercentage * float64(cfg.Budget)))
	}
	return t
}

// Offer proposes r as the new best. r is copied when accepted. Offer reports
// whether r replaced the current best.
func (t *Tracker) Offer(r Result) bool {
	t.mu.Lock()
	t.offers++

	if t.hasBest && !ranking.Better(r.Key, t.best.Key, t.cfg.RMSDLimit) {
		t.mu.Unlock()
		return false
	}

	imp := Improvement{Kind: ImprovementFirst, Current: r.Key}
	if t.hasBest {
		imp.Previous = t.best.Key
		imp.Kind = ImprovementAccurate
		if r.Key.Aligned > t.best.Key.Aligned {
			imp.Kind = ImprovementLonger
		}
	}

	t.best = r.Clone()
	t.hasBest = true
	t.stagnation = 0
	if t.cfg.Deadline.Adaptive {
		t.extendLocked(imp.Kind)
	}
	imp.Deadline = t.deadline
	t.mu.Unlock()

	if t.cfg.OnImprove != nil {
		t.cfg.OnImprove(imp)
	}
	return true
}

// extendLocked moves the deadline after an improvement. Caller holds mu.
func (t *Tracker) extendLocked(kind ImprovementKind) {
	p := &t.cfg.Deadline
	remaining := t.end.Sub(t.cfg.Now())
	if remaining <= 0 {
		return
	}

	pct, flat := p.ImprRMSDPercentage, p.ImprRMSDFlat
	if kind != ImprovementAccurate {
		pct, flat = p.ImprResultPercentage, p.ImprResultFlat
	}

	inc := max(time.Duration(pct*float64(remaining)), flat)
	inc = min(inc, time.Duration(p.WaitBufferPercentage*float64(remaining)))
	inc = max(inc, p.WaitBufferFlat)

	deadline := t.deadline.Add(inc)
	if deadline.After(t.end) {
		deadline = t.end
	}
	t.deadline = deadline
}

// Best returns a copy of the best result and whether one exists.
func (t *Tracker) Best() (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasBest {
		return Result{}, false
	}
	return t.best.Clone(), true
}

// BestKey returns the ranking key of the best result (zero if none).
func (t *Tracker) BestKey() ranking.Key {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.best.Key
}

// Tick records a unit of work (for example a generation) that did not
// improve the global best and returns the updated stagnation count.
func (t *Tracker) Tick() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stagnation++
	return t.stagnation
}

// Stats is a snapshot of the run's bookkeeping.
type Stats struct {
	// Offers counts every offer, accepted or not.
	Offers int
	// Stagnation counts ticks since the last accepted offer.
	Stagnation int
	Deadline   time.Time
	// Remaining is the time left until the hard end of the budget.
	Remaining    time.Duration
	FullCoverage bool
}

// Stats returns a snapshot of the run's bookkeeping.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Offers:       t.offers,
		Stagnation:   t.stagnation,
		Deadline:     t.deadline,
		Remaining:    max(t.end.Sub(t.cfg.Now()), 0),
		FullCoverage: t.fullCoverageLocked(),
	}
}

// Now returns the tracker's clock reading.
func (t *Tracker) Now() time.Time {
	return t.cfg.Now()
}

// Elapsed returns the time since the start of the run.
func (t *Tracker) Elapsed() time.Duration {
	return t.cfg.Now().Sub(t.cfg.Start)
}

// ShouldTerminate reports whether workers should stop: the clock is past the
// deadline, the best result already covers the shorter structure, or the
// context is done.
func (t *Tracker) ShouldTerminate() bool {
	if t.ctx.Err() != nil {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cfg.Now().Before(t.deadline) {
		return true
	}
	return t.fullCoverageLocked()
}

// fullCoverageLocked reports whether the best result aligns every residue of
// the shorter structure within the limit and without incorrect pairs. Caller
// holds mu.
func (t *Tracker) fullCoverageLocked() bool {
	k := t.best.Key
	return t.hasBest && t.cfg.MaxAligned > 0 &&
		k.Aligned >= t.cfg.MaxAligned &&
		k.RMSD <= t.cfg.RMSDLimit &&
		k.IncorrectRatio == 0
}

// MappingFromChain converts parallel reference/target index lists into a
// mapping of length n.
func MappingFromChain(n int, ref, target []int) []int {
	m := make([]int, n)
	for i := range m {
		m[i] = -1
	}
	for i, r := range ref {
		m[r] = target[i]
	}
	return m
}

// Chain returns the mapped pairs of mapping in reference order.
func Chain(mapping []int) (ref, target []int) {
	for i, t := range mapping {
		if t >= 0 {
			ref = append(ref, i)
			target = append(target, t)
		}
	}
	return ref, target
}

// MappedPoints returns the flattened points of all mapped residues, reference
// and target, in reference order.
func MappedPoints(ref, target model.Structure, mapping []int) (a, b []model.Point3) {
	k := ref.PointsPerResidue()
	a = make([]model.Point3, 0, len(mapping)*k)
	b = make([]model.Point3, 0, len(mapping)*k)
	for i, t := range mapping {
		if t >= 0 {
			a = append(a, ref[i].Points...)
			b = append(b, target[t].Points...)
		}
	}
	return a, b
}
