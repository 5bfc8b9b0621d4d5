package decompress

import (
	"animclip/pkg/bitpack"
	"animclip/pkg/blob"
	"animclip/pkg/format"
)

// This file computes, for one sub-track's keyframe, the bit offsets its
// x/y/z components start at within a segment's animated stream. The real
// implementation keeps a small ring-buffer cache per kind and advances it
// as the per-bone loop consumes samples (§4.9); this reimplementation
// recomputes the offset on demand from the per-track format bytes instead,
// trading the cache's amortized O(1) advance for a straightforward O(group
// size) lookup per sub-track — correctness-first, documented in DESIGN.md.

// poseBitOffsets returns the bit offsets, relative to the start of
// localKey's keyframe, of kind's rank-th sub-track's x, y and z components
// and the bit width shared by all three.
func poseBitOffsets(r *blob.Reader, seg *blob.SegmentView, kind format.SubTrackKind, rank int) (x, y, z int, numBits uint8, err error) {
	priorKinds, err := priorKindBits(r, seg, kind)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	groupIndex := rank / 4
	priorGroups, err := priorGroupBits(r, seg, kind, groupIndex)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	beforeWidth, componentWidth, selfBits, err := groupLayout(r, seg, kind, rank)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	base := priorKinds + priorGroups
	return base + beforeWidth, base + componentWidth + beforeWidth, base + 2*componentWidth + beforeWidth, selfBits, nil
}

// priorKindBits sums the byte-rounded bits every kind before kind occupies
// in one keyframe.
func priorKindBits(r *blob.Reader, seg *blob.SegmentView, kind format.SubTrackKind) (int, error) {
	total := 0
	for k := format.SubTrackKind(0); k < kind; k++ {
		bits, err := kindPoseBits(r, seg, k)
		if err != nil {
			return 0, err
		}
		total += bits
	}
	return total, nil
}

// kindPoseBits sums the byte-rounded bits kind occupies in one keyframe,
// across every group of 4 sub-tracks.
func kindPoseBits(r *blob.Reader, seg *blob.SegmentView, kind format.SubTrackKind) (int, error) {
	numAnimated := r.NumAnimated(kind)
	total := 0
	for start := 0; start < numAnimated; start += 4 {
		end := start + 4
		if end > numAnimated {
			end = numAnimated
		}
		bits := 0
		for i := start; i < end; i++ {
			rate, err := r.FormatByte(seg, kind, i)
			if err != nil {
				return 0, err
			}
			bits += int(format.NumBitsAtBitRate(rate)) * 3
		}
		total += (bits + 7) / 8 * 8
	}
	return total, nil
}

// priorGroupBits sums the byte-rounded bits every group before groupIndex
// occupies within kind.
func priorGroupBits(r *blob.Reader, seg *blob.SegmentView, kind format.SubTrackKind, groupIndex int) (int, error) {
	total := 0
	for g := 0; g < groupIndex; g++ {
		start := g * 4
		end := start + 4
		numAnimated := r.NumAnimated(kind)
		if end > numAnimated {
			end = numAnimated
		}
		bits := 0
		for i := start; i < end; i++ {
			rate, err := r.FormatByte(seg, kind, i)
			if err != nil {
				return 0, err
			}
			bits += int(format.NumBitsAtBitRate(rate)) * 3
		}
		total += (bits + 7) / 8 * 8
	}
	return total, nil
}

// groupLayout reads rank's group's format bytes and returns the bit width
// preceding rank within one component's section, the full per-component
// section width for the group, and rank's own bit width.
func groupLayout(r *blob.Reader, seg *blob.SegmentView, kind format.SubTrackKind, rank int) (beforeWidth, componentWidth int, selfBits uint8, err error) {
	groupStart := (rank / 4) * 4
	within := rank - groupStart
	numAnimated := r.NumAnimated(kind)
	groupEnd := groupStart + 4
	if groupEnd > numAnimated {
		groupEnd = numAnimated
	}

	for i := groupStart; i < groupEnd; i++ {
		rate, err := r.FormatByte(seg, kind, i)
		if err != nil {
			return 0, 0, 0, err
		}
		bits := format.NumBitsAtBitRate(rate)
		if i-groupStart < within {
			beforeWidth += int(bits)
		}
		componentWidth += int(bits)
		if i-groupStart == within {
			selfBits = bits
		}
	}
	return beforeWidth, componentWidth, selfBits, nil
}

func dequantizeBits(packed uint32, numBits uint8) float32 {
	return bitpack.Dequantize(packed, numBits)
}
