package blob

import "hash/crc32"

// contentHash computes the 32-bit hash stamped into the raw header, over
// everything past it (§4.7). No pack dependency offers a content checksum
// (bitio, yaml.v2 and testify are all orthogonal concerns), so this one
// section uses the standard library's crc32 — recorded in DESIGN.md.
func contentHash(body []byte) uint32 {
	return crc32.ChecksumIEEE(body)
}
