// Package pool provides the bounded worker pool used by the aligners and
// reusable scratch contexts for per-candidate buffers.
// Uses sync.Pool for automatic memory reuse and bitsets for residue bookkeeping.
package pool

import (
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/rnalign/internal/candidate"
	"github.com/hupe1980/rnalign/model"
)

const (
	// DefaultMaxResidues is the default initial capacity for bitsets.
	DefaultMaxResidues = 1024

	// DefaultPointCapacity is the default capacity of the point buffers
	// (enough for a triple core of residues with a handful of points each).
	DefaultPointCapacity = 32

	// DefaultHeapCapacity is the default capacity for the candidate heap.
	DefaultHeapCapacity = 1024
)

// Scratch contains pre-allocated buffers for one unit of alignment work.
// A Scratch must not be shared between goroutines.
type Scratch struct {
	Ref    []model.Point3
	Target []model.Point3
	Moved  []model.Point3

	UsedRef    *bitset.BitSet
	UsedTarget *bitset.BitSet

	Heap *candidate.Heap
}

var scratchPool = sync.Pool{
	New: func() interface{} {
		return &Scratch{
			Ref:        make([]model.Point3, 0, DefaultPointCapacity),
			Target:     make([]model.Point3, 0, DefaultPointCapacity),
			Moved:      make([]model.Point3, 0, DefaultPointCapacity),
			UsedRef:    bitset.New(DefaultMaxResidues),
			UsedTarget: bitset.New(DefaultMaxResidues),
			Heap:       candidate.NewHeap(DefaultHeapCapacity),
		}
	},
}

// Get retrieves a cleared Scratch from the pool.
func Get() *Scratch {
	s := scratchPool.Get().(*Scratch)
	s.Reset()
	return s
}

// Put returns a Scratch to the pool for reuse.
func Put(s *Scratch) {
	if s.UsedRef.Len() > DefaultMaxResidues*16 {
		s.UsedRef = bitset.New(DefaultMaxResidues)
	}
	if s.UsedTarget.Len() > DefaultMaxResidues*16 {
		s.UsedTarget = bitset.New(DefaultMaxResidues)
	}
	if cap(s.Heap.Candidates) > DefaultHeapCapacity*64 {
		s.Heap = candidate.NewHeap(DefaultHeapCapacity)
	}
	scratchPool.Put(s)
}

// Reset clears the Scratch for reuse.
func (s *Scratch) Reset() {
	s.Ref = s.Ref[:0]
	s.Target = s.Target[:0]
	s.Moved = s.Moved[:0]
	s.UsedRef.ClearAll()
	s.UsedTarget.ClearAll()
	s.Heap.Reset()
}
