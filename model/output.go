package model

import "time"

// Output is the final result of one aligner invocation.
//
// ReferenceIndices always lists every reference residue in order (0..n-1);
// TargetMapping is parallel to it and holds the mapped target index or -1.
type Output struct {
	Method           string        `json:"method"`
	Aligned          int           `json:"aligned"`
	ReferenceIndices []int         `json:"reference_indices"`
	TargetMapping    []int         `json:"target_mapping"`
	Transform        Transform     `json:"transform"`
	Elapsed          time.Duration `json:"elapsed"`
	RMSD             float64       `json:"rmsd"`
}

// ElapsedMillis returns the processing time in whole milliseconds.
func (o *Output) ElapsedMillis() int64 {
	return o.Elapsed.Milliseconds()
}

// Pairs returns the mapped (reference, target) index pairs in reference order.
func (o *Output) Pairs() (ref, target []int) {
	ref = make([]int, 0, o.Aligned)
	target = make([]int, 0, o.Aligned)
	for i, t := range o.TargetMapping {
		if t >= 0 {
			ref = append(ref, o.ReferenceIndices[i])
			target = append(target, t)
		}
	}
	return ref, target
}

// Coverage returns the fraction of the shorter structure that is aligned.
func (o *Output) Coverage(refLen, targetLen int) float64 {
	m := min(refLen, targetLen)
	if m == 0 {
		return 0
	}
	return float64(o.Aligned) / float64(m)
}
