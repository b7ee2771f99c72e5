// Package hash provides CRC32-Castagnoli (CRC32C) checksums and the mapping
// fingerprints used to detect duplicate specimens.
//
// # Usage
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For residue mappings (ref index → target index or -1):
//
//	fp := hash.Mapping(mapping)
//
// Fingerprints are not unique; a matching fingerprint must be confirmed by
// comparing the mappings themselves.
package hash
