// Package bitpack implements the blob's two bit-level primitives: the
// MSB-first 32-bit-word bitsets used for the default/constant flags (§6),
// and variable-width component packing for the animated data stream,
// layered over github.com/icza/bitio the same way the teacher's vendored
// RTSP parameter-set parsers use it for Golomb-coded fields
// (pkg/video/gortsplib/pkg/h264/sps.go).
package bitpack

import (
	"encoding/binary"
	"math/bits"
)

// NumWords returns the number of 32-bit words needed to hold numBits.
func NumWords(numBits int) int {
	return (numBits + 31) / 32
}

// NewBitsetBytes allocates a zeroed, little-endian-word byte buffer sized to
// hold numBits (§6 "Bitsets: 32-bit words").
func NewBitsetBytes(numBits int) []byte {
	return make([]byte, NumWords(numBits)*4)
}

// SetBit sets or clears the bit at bitOffset within words, MSB-first within
// each 32-bit word (bit 0 is the most significant bit of word 0).
func SetBit(words []byte, bitOffset int, value bool) {
	wordIndex := bitOffset / 32
	bitInWord := uint(bitOffset % 32)
	word := binary.LittleEndian.Uint32(words[wordIndex*4:])
	mask := uint32(1) << (31 - bitInWord)
	if value {
		word |= mask
	} else {
		word &^= mask
	}
	binary.LittleEndian.PutUint32(words[wordIndex*4:], word)
}

// TestBit reports the bit at bitOffset within words.
func TestBit(words []byte, bitOffset int) bool {
	wordIndex := bitOffset / 32
	bitInWord := uint(bitOffset % 32)
	word := binary.LittleEndian.Uint32(words[wordIndex*4:])
	mask := uint32(1) << (31 - bitInWord)
	return word&mask != 0
}

// PopCountBefore returns the number of set bits in [0, bitOffset), used by
// the random-access sub-track lookup (§4.10) to turn a track index into an
// offset within the constant-data and animated-data blocks without
// decompressing any earlier track.
func PopCountBefore(words []byte, bitOffset int) int {
	count := 0

	fullWords := bitOffset / 32
	for i := 0; i < fullWords; i++ {
		word := binary.LittleEndian.Uint32(words[i*4:])
		count += bits.OnesCount32(word)
	}

	if rem := bitOffset % 32; rem > 0 {
		word := binary.LittleEndian.Uint32(words[fullWords*4:])
		mask := uint32(0xFFFFFFFF) << uint(32-rem)
		count += bits.OnesCount32(word & mask)
	}

	return count
}
