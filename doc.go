// Package rnalign finds the largest subset of residues of two coarse-grained
// RNA structures that can be rigidly superimposed within a bounded RMSD.
//
// Each residue is reduced to a fixed number of representative points (for
// example base, ribose and backbone centroids). Two search strategies are
// available and share one superposition primitive:
//
//   - geometric: deterministic, batched branch-and-extend from pair and
//     triple cores (the default);
//   - genetic: stochastic, population based, optionally seeded from the
//     geometric search.
//
// Both strategies are anytime heuristics bounded by Config.ReturnTime.
//
// # Quick Start
//
//	cfg := rnalign.DefaultConfig()
//	cfg.RMSDLimit = 3.0
//	out, err := rnalign.Align(ctx, reference, target, cfg,
//	    rnalign.WithLogger(rnalign.NewTextLogger(slog.LevelInfo)))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(out.Aligned, out.RMSD)
//
// # Output
//
// The returned model.Output lists every reference residue in
// ReferenceIndices and the mapped target residue (or -1) in TargetMapping.
// Transform moves target points onto the reference frame. RMSD is recomputed
// from the final superposition of all aligned pairs.
//
// # Observability
//
// Logging goes through Logger, a thin log/slog wrapper. Progress counters go
// through MetricsCollector; BasicMetricsCollector keeps them in memory and
// the command-line tool can export them to Prometheus.
package rnalign
