// Package geometric implements the deterministic, batched seed-and-extend
// aligner.
//
// The search runs in three stages:
//
//  1. Pair cores: every reference residue pair is matched against every
//     ordered target residue pair. Candidates are pruned on distance vectors,
//     then superimposed exactly and kept per RMSD band.
//  2. Triple cores: the best pair cores are extended by a third residue pair,
//     again pruned on distances before an exact superposition.
//  3. Chain growth: starting from a triple core the target is moved onto the
//     reference and residue pairs are added greedily while a running RMSD
//     estimate stays under the limit.
//
// Completed chains are offered to the shared search.Tracker. In seeding mode
// the same search additionally collects distinct chains as specimens for the
// genetic aligner.
package geometric
