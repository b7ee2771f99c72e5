// Package testutil provides testing utilities for rnalign.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, goroutine-safe RNG and generators for synthetic
// coarse-grained structures and rigid motions.
//
// # Synthetic Structures
//
//	rng := testutil.NewRNG(seed)
//	ref := rng.Structure(10, 3)          // irregular random walk, 3 points per residue
//	tr := rng.RigidTransform(20)          // random rotation, translation up to 20 Å
//	target := tr.ApplyStructure(ref)
//
// # Sub-structures
//
//	part := testutil.Slice(ref, 2, 7)    // residues [2, 7) with fresh keys
package testutil
