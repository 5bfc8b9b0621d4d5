package blob

import (
	"fmt"

	"animclip/pkg/bitpack"
	"animclip/pkg/format"
	"animclip/pkg/rigidmath"
)

// kindActive reports whether a kind participates at all for this blob (the
// scale kind is absent entirely when HasScale is false).
func (r *Reader) kindActive(kind format.SubTrackKind) bool {
	return kind != format.KindScale || r.HasScale
}

// ClipRange reads the rank-th clip range entry of the given kind (§4.4,
// §6 "Clip range table").
func (r *Reader) ClipRange(kind format.SubTrackKind, rank int) Range {
	base := r.clipRangeOffset
	for k := format.SubTrackKind(0); k < kind; k++ {
		if r.kindActive(k) {
			base += r.numAnimated[k] * 24
		}
	}
	off := base + rank*24
	return Range{
		Min:    readVec3(r.data, off),
		Extent: readVec3(r.data, off+12),
	}
}

func readVec3(data []byte, offset int) rigidmath.Vector3 {
	return rigidmath.Vector3{X: readF32(data, offset), Y: readF32(data, offset+4), Z: readF32(data, offset+8)}
}

// formatSectionOffset returns the byte offset, relative to the segment's
// data block start, where the given kind's per-track format bytes begin.
func (r *Reader) formatSectionOffset(kind format.SubTrackKind) int {
	offset := 0
	for k := format.SubTrackKind(0); k < kind; k++ {
		offset += padTo4(r.numAnimated[k])
	}
	return offset
}

// rangeSectionOffset returns the byte offset, relative to the segment's
// range section start, where the given kind's segment range bytes begin.
func (r *Reader) rangeSectionOffset(kind format.SubTrackKind) int {
	offset := 0
	for k := format.SubTrackKind(0); k < kind; k++ {
		offset += padTo4(segmentRangeTableBytes(r.numAnimated[k]))
	}
	return offset
}

// FormatByte reads the rank-th animated sub-track's bit rate tag for the
// given kind in segment seg (§6 "Per-track format bytes").
func (r *Reader) FormatByte(seg *SegmentView, kind format.SubTrackKind, rank int) (format.BitRate, error) {
	off := seg.absoluteDataStart + seg.formatOffset + r.formatSectionOffset(kind) + rank
	if off >= len(r.data) {
		return 0, fmt.Errorf("blob: format byte out of range: %w", ErrTruncated)
	}
	return format.BitRate(r.data[off]), nil
}

// SegmentRange reads the rank-th segment-local range entry for the given
// kind in segment seg, dequantized from 8-bit halves into [0, 1] space
// (§4.4, §6).
func (r *Reader) SegmentRange(seg *SegmentView, kind format.SubTrackKind, rank int) Range {
	base := seg.absoluteDataStart + seg.rangeOffset + r.rangeSectionOffset(kind)
	numEntries := r.numAnimated[kind]
	groupIndex := rank / 4
	within := rank % 4
	groupSize := numEntries - groupIndex*4
	if groupSize > 4 {
		groupSize = 4
	}
	groupStart := base + groupIndex*4*6

	readComp := func(channel int) float32 {
		off := groupStart + channel*groupSize + within
		return bitpack.Dequantize(uint32(r.data[off]), 8)
	}
	return Range{
		Min:    rigidmath.Vector3{X: readComp(0), Y: readComp(1), Z: readComp(2)},
		Extent: rigidmath.Vector3{X: readComp(3), Y: readComp(4), Z: readComp(5)},
	}
}

// SegmentRangeBytes reads the rank-th segment-local range entry's raw 8-bit
// min/extent halves for the given kind in segment seg, without dequantizing
// them — used by the quantized-constant decode path (§4.4, §4.8 step 3),
// which reinterprets a sub-track's min and extent bytes together as one
// u16 instead of treating them as a [0, 1] range.
func (r *Reader) SegmentRangeBytes(seg *SegmentView, kind format.SubTrackKind, rank int) (min, extent [3]uint8) {
	base := seg.absoluteDataStart + seg.rangeOffset + r.rangeSectionOffset(kind)
	numEntries := r.numAnimated[kind]
	groupIndex := rank / 4
	within := rank % 4
	groupSize := numEntries - groupIndex*4
	if groupSize > 4 {
		groupSize = 4
	}
	groupStart := base + groupIndex*4*6

	readByte := func(channel int) uint8 {
		off := groupStart + channel*groupSize + within
		return r.data[off]
	}
	return [3]uint8{readByte(0), readByte(1), readByte(2)},
		[3]uint8{readByte(3), readByte(4), readByte(5)}
}

// AnimatedDataStart returns the blob-absolute byte offset of segment seg's
// bit-packed animated stream.
func (r *Reader) AnimatedDataStart(seg *SegmentView) int {
	return seg.absoluteDataStart + seg.dataOffset
}

// ReadComponentBits unpacks numBits starting at bitOffset bits into
// segment seg's animated stream.
func (r *Reader) ReadComponentBits(seg *SegmentView, bitOffset int, numBits uint8) (uint32, error) {
	absoluteBitOffset := r.AnimatedDataStart(seg)*8 + bitOffset
	reader, err := bitpack.NewReaderAt(r.data, absoluteBitOffset)
	if err != nil {
		return 0, err
	}
	return reader.ReadComponent(numBits)
}
