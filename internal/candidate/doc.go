// Package candidate provides the transient work items of the geometric search
// and the priority queue used while growing chains.
//
//   - Candidate: a proposed (reference, target) residue correspondence with a score
//   - Heap: a 4-ary min-heap of candidates (best, i.e. lowest score, on top)
package candidate
