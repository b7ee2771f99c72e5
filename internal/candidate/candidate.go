package candidate

import "github.com/hupe1980/rnalign/model"

const heapArity = 4

// Candidate is a proposed correspondence of reference residue Ref with target
// residue Target. Lower scores are better. Transform is optional.
type Candidate struct {
	Ref       int
	Target    int
	Score     float64
	Transform *model.Transform
}

// Better reports whether a is better than b.
// Tie-breaker is (Ref, Target) ascending for determinism.
func Better(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if a.Ref != b.Ref {
		return a.Ref < b.Ref
	}
	return a.Target < b.Target
}

// Heap is a min-heap of candidates: the best candidate is on top.
type Heap struct {
	Candidates []Candidate
}

// NewHeap creates a heap with the given initial capacity.
func NewHeap(capacity int) *Heap {
	return &Heap{Candidates: make([]Candidate, 0, capacity)}
}

// Reset clears the heap for reuse.
func (h *Heap) Reset() {
	h.Candidates = h.Candidates[:0]
}

func (h *Heap) Len() int { return len(h.Candidates) }

func (h *Heap) Push(x Candidate) {
	h.Candidates = append(h.Candidates, x)
	h.up(h.Len() - 1)
}

// Pop removes and returns the best candidate.
// Panics if the heap is empty - caller should check Len() > 0.
func (h *Heap) Pop() Candidate {
	n := h.Len() - 1
	h.Candidates[0], h.Candidates[n] = h.Candidates[n], h.Candidates[0]
	h.down(0, n)
	x := h.Candidates[n]
	h.Candidates = h.Candidates[:n]
	return x
}

// TryPeek returns the best element and true, or zero value and false if empty.
func (h *Heap) TryPeek() (Candidate, bool) {
	if h.Len() == 0 {
		return Candidate{}, false
	}
	return h.Candidates[0], true
}

// Heapify rebuilds the heap invariant after Candidates was filled directly.
func (h *Heap) Heapify() {
	n := h.Len()
	if n < 2 {
		return
	}
	for i := (n - 2) / heapArity; i >= 0; i-- {
		h.down(i, n)
	}
}

// up moves element at j up the heap.
// 4-ary heap: parent = (j-1)/4
func (h *Heap) up(j int) {
	item := h.Candidates[j]
	for j > 0 {
		i := (j - 1) / heapArity
		if !Better(item, h.Candidates[i]) {
			break
		}
		h.Candidates[j] = h.Candidates[i]
		j = i
	}
	h.Candidates[j] = item
}

// down moves element at i0 down the heap.
// 4-ary heap: first child = 4*i+1, up to 4 children to compare.
func (h *Heap) down(i0, n int) {
	i := i0
	item := h.Candidates[i]
	for {
		firstChild := heapArity*i + 1
		if firstChild >= n {
			break
		}

		best := firstChild
		lastChild := min(firstChild+heapArity, n)
		for c := firstChild + 1; c < lastChild; c++ {
			if Better(h.Candidates[c], h.Candidates[best]) {
				best = c
			}
		}

		if !Better(h.Candidates[best], item) {
			break
		}
		h.Candidates[i] = h.Candidates[best]
		i = best
	}
	h.Candidates[i] = item
}
