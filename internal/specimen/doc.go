// Package specimen implements the candidate alignment evolved by the genetic
// aligner and its operators (random initialization, crossover, mutation and
// refinement).
//
// A Specimen maps every reference residue to at most one target residue and
// every target residue to at most one reference residue. The forward mapping,
// the reverse mapping, the usage bitset and the set of free target residues
// are always kept consistent by the operators.
//
// Specimens are not safe for concurrent use. Operators take the caller's
// *rand.Rand so that each worker drives its own random stream.
package specimen
