package hash

import (
	"encoding/binary"
	"hash/crc32"
)

// crc32cTable is pre-computed for CRC32-Castagnoli polynomial.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// Mapping returns the CRC32C fingerprint of a residue mapping. Each entry is
// encoded as a little-endian int32, so -1 (unmapped) participates like any
// other value. Equal mappings always yield equal fingerprints; callers must
// still compare mappings on a fingerprint match.
func Mapping(mapping []int) uint32 {
	var buf [64]byte
	crc := uint32(0)
	n := 0
	for _, v := range mapping {
		binary.LittleEndian.PutUint32(buf[n:], uint32(int32(v)))
		n += 4
		if n == len(buf) {
			crc = crc32.Update(crc, crc32cTable, buf[:n])
			n = 0
		}
	}
	return crc32.Update(crc, crc32cTable, buf[:n])
}
