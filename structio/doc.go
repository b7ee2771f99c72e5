// Package structio reads and writes coarse-grained structure documents and
// alignment results.
//
// A structure document is JSON:
//
//	{"name": "1ehz", "residues": [{"key": "A:12", "code": "G", "points": [[x, y, z], ...]}]}
//
// Files ending in .zst or .lz4 are compressed transparently; compressed
// input is also recognized by its magic bytes.
//
// The text writers reproduce the reports of the original command-line tool:
// a summary, the residue mapping and an 80-column sequence strip.
package structio
