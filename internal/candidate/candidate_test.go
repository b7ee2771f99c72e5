package candidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rnalign/testutil"
)

func TestHeap(t *testing.T) {
	t.Run("PopOrder", func(t *testing.T) {
		rng := testutil.NewRNG(4711)
		h := NewHeap(10)
		for i := 0; i < 100; i++ {
			h.Push(Candidate{Ref: i, Target: i, Score: rng.Float64()})
		}
		require.Equal(t, 100, h.Len())

		prev := h.Pop()
		for h.Len() > 0 {
			curr := h.Pop()
			assert.False(t, Better(curr, prev), "expected best-first pop order, got %v then %v", prev.Score, curr.Score)
			prev = curr
		}
	})

	t.Run("TieBreaking", func(t *testing.T) {
		h := NewHeap(4)
		h.Push(Candidate{Ref: 2, Target: 1, Score: 1})
		h.Push(Candidate{Ref: 1, Target: 5, Score: 1})
		h.Push(Candidate{Ref: 1, Target: 3, Score: 1})

		assert.Equal(t, Candidate{Ref: 1, Target: 3, Score: 1}, h.Pop())
		assert.Equal(t, Candidate{Ref: 1, Target: 5, Score: 1}, h.Pop())
		assert.Equal(t, Candidate{Ref: 2, Target: 1, Score: 1}, h.Pop())
	})

	t.Run("Heapify", func(t *testing.T) {
		h := NewHeap(0)
		for i, s := range []float64{5, 3, 9, 1, 7, 2, 8} {
			h.Candidates = append(h.Candidates, Candidate{Ref: i, Score: s})
		}
		h.Heapify()

		top, ok := h.TryPeek()
		require.True(t, ok)
		assert.Equal(t, 1.0, top.Score)

		var got []float64
		for h.Len() > 0 {
			got = append(got, h.Pop().Score)
		}
		assert.Equal(t, []float64{1, 2, 3, 5, 7, 8, 9}, got)
	})

	t.Run("HeapifySmall", func(t *testing.T) {
		h := NewHeap(4)
		assert.NotPanics(t, h.Heapify)
		assert.Equal(t, 0, h.Len())

		h.Candidates = append(h.Candidates, Candidate{Ref: 3, Score: 0.5})
		assert.NotPanics(t, h.Heapify)
		top, ok := h.TryPeek()
		require.True(t, ok)
		assert.Equal(t, 3, top.Ref)
		assert.Equal(t, 3, h.Pop().Ref)
		assert.Equal(t, 0, h.Len())
	})

	t.Run("Empty", func(t *testing.T) {
		h := NewHeap(0)
		_, ok := h.TryPeek()
		assert.False(t, ok)

		h.Push(Candidate{})
		h.Reset()
		assert.Equal(t, 0, h.Len())
	})
}
