package rnalign

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting search metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
// All methods may be called concurrently from search workers.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    chains      prometheus.Counter
//	    chainLength prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordChain(length int, rmsd float64) {
//	    p.chains.Inc()
//	    p.chainLength.Observe(float64(length))
//	}
type MetricsCollector interface {
	// RecordPairCores is called once per pair band with the number of pair
	// cores that fell into it.
	RecordPairCores(band, cores int)

	// RecordTripleCores is called once per triple sub-batch with the number
	// of triple cores extended.
	RecordTripleCores(band, subBatch, cores int)

	// RecordChain is called for every chain grown to completion.
	RecordChain(length int, rmsd float64)

	// RecordGeneration is called after every genetic generation.
	RecordGeneration(worker, generation int)

	// RecordImprovement is called whenever the best alignment improves.
	RecordImprovement(kind string, aligned int, rmsd float64)

	// RecordUnitFailure is called for every unit of work that panicked.
	RecordUnitFailure()

	// RecordAlign is called once per Align call.
	RecordAlign(method Method, aligned int, rmsd float64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPairCores(int, int)                               {}
func (NoopMetricsCollector) RecordTripleCores(int, int, int)                        {}
func (NoopMetricsCollector) RecordChain(int, float64)                               {}
func (NoopMetricsCollector) RecordGeneration(int, int)                              {}
func (NoopMetricsCollector) RecordImprovement(string, int, float64)                 {}
func (NoopMetricsCollector) RecordUnitFailure()                                     {}
func (NoopMetricsCollector) RecordAlign(Method, int, float64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PairCores    atomic.Int64
	TripleCores  atomic.Int64
	Chains       atomic.Int64
	LongestChain atomic.Int64
	Generations  atomic.Int64
	Improvements atomic.Int64
	UnitFailures atomic.Int64
	AlignCount   atomic.Int64
	AlignErrors  atomic.Int64
	AlignNanos   atomic.Int64

	lastAligned atomic.Int64
	lastRMSD    atomic.Uint64
}

// RecordPairCores implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPairCores(_, cores int) {
	b.PairCores.Add(int64(cores))
}

// RecordTripleCores implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTripleCores(_, _, cores int) {
	b.TripleCores.Add(int64(cores))
}

// RecordChain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordChain(length int, _ float64) {
	b.Chains.Add(1)
	for {
		cur := b.LongestChain.Load()
		if int64(length) <= cur || b.LongestChain.CompareAndSwap(cur, int64(length)) {
			return
		}
	}
}

// RecordGeneration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGeneration(int, int) {
	b.Generations.Add(1)
}

// RecordImprovement implements MetricsCollector.
func (b *BasicMetricsCollector) RecordImprovement(_ string, aligned int, rmsd float64) {
	b.Improvements.Add(1)
	b.lastAligned.Store(int64(aligned))
	b.lastRMSD.Store(math.Float64bits(rmsd))
}

// RecordUnitFailure implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUnitFailure() {
	b.UnitFailures.Add(1)
}

// RecordAlign implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAlign(_ Method, aligned int, rmsd float64, duration time.Duration, err error) {
	b.AlignCount.Add(1)
	b.AlignNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AlignErrors.Add(1)
		return
	}
	b.lastAligned.Store(int64(aligned))
	b.lastRMSD.Store(math.Float64bits(rmsd))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		PairCores:     b.PairCores.Load(),
		TripleCores:   b.TripleCores.Load(),
		Chains:        b.Chains.Load(),
		LongestChain:  b.LongestChain.Load(),
		Generations:   b.Generations.Load(),
		Improvements:  b.Improvements.Load(),
		UnitFailures:  b.UnitFailures.Load(),
		AlignCount:    b.AlignCount.Load(),
		AlignErrors:   b.AlignErrors.Load(),
		AlignAvgNanos: b.getAvgAlignNanos(),
		LastAligned:   b.lastAligned.Load(),
		LastRMSD:      math.Float64frombits(b.lastRMSD.Load()),
	}
}

func (b *BasicMetricsCollector) getAvgAlignNanos() int64 {
	count := b.AlignCount.Load()
	if count == 0 {
		return 0
	}
	return b.AlignNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	PairCores     int64
	TripleCores   int64
	Chains        int64
	LongestChain  int64
	Generations   int64
	Improvements  int64
	UnitFailures  int64
	AlignCount    int64
	AlignErrors   int64
	AlignAvgNanos int64
	LastAligned   int64
	LastRMSD      float64
}
