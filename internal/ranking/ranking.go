// Package ranking implements the single ordering shared by every aligner:
// population sorting and global-best replacement both go through Compare.
package ranking

import (
	"github.com/hupe1980/rnalign/model"
)

// Key is the part of an alignment that participates in ranking.
type Key struct {
	Aligned        int
	RMSD           float64
	IncorrectRatio float64
}

// Compare returns a negative number when a ranks before b, a positive number
// when b ranks before a and zero when both are equivalent.
//
//  1. RMSD ≤ limit beats RMSD > limit.
//  2. Both within: lower incorrect ratio, then more aligned, then lower RMSD.
//  3. Both above: lower RMSD, then lower incorrect ratio, then more aligned.
//
// An empty alignment (Aligned == 0) is treated as above any limit.
func Compare(a, b Key, limit float64) int {
	aw, bw := a.within(limit), b.within(limit)
	switch {
	case aw && !bw:
		return -1
	case !aw && bw:
		return 1
	case aw:
		if c := cmpFloat(a.IncorrectRatio, b.IncorrectRatio); c != 0 {
			return c
		}
		if c := cmpInt(b.Aligned, a.Aligned); c != 0 {
			return c
		}
		return cmpFloat(a.RMSD, b.RMSD)
	default:
		if c := cmpFloat(a.RMSD, b.RMSD); c != 0 {
			return c
		}
		if c := cmpFloat(a.IncorrectRatio, b.IncorrectRatio); c != 0 {
			return c
		}
		return cmpInt(b.Aligned, a.Aligned)
	}
}

// Better reports whether a ranks strictly before b.
func Better(a, b Key, limit float64) bool {
	return Compare(a, b, limit) < 0
}

func (k Key) within(limit float64) bool {
	return k.Aligned > 0 && k.RMSD <= limit
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IncorrectRatio returns the fraction of mapped pairs that are incorrect.
//
// In sequence-dependent mode a pair is incorrect when the residue type codes
// differ. In respect-order mode a pair is incorrect when its target index is
// lower than the running maximum target index of the preceding pairs; the
// first mapped pair is always correct. mapping holds one target index (or -1)
// per reference residue.
func IncorrectRatio(ref, target model.Structure, mapping []int, sequenceDependent, respectOrder bool) float64 {
	if !sequenceDependent && !respectOrder {
		return 0
	}

	var aligned, incorrect int
	maxTarget := -1
	for i, t := range mapping {
		if t < 0 {
			continue
		}
		aligned++
		if sequenceDependent && !ref[i].SameType(target[t]) {
			incorrect++
		}
		if respectOrder {
			if maxTarget >= 0 && t < maxTarget {
				incorrect++
			} else {
				maxTarget = t
			}
		}
	}

	if aligned == 0 {
		return 0
	}
	return float64(incorrect) / float64(aligned)
}
