package blob

import (
	"fmt"

	"animclip/pkg/bitpack"
	"animclip/pkg/format"
	"animclip/pkg/rigidmath"
)

const (
	magicTag                  uint32 = 0x4c434941 // "AICL" read little-endian
	formatVersion             uint16 = 1
	algorithmUniformlySampled uint8  = 1
	trackTypeTransformQVV     uint8  = 1

	rawHeaderSize           = 16
	transformHeaderSize     = 4*5 + 4*4 // 5 section offsets + numSegments + 3 anim counts
	segmentHeaderRecordSize = 4 * 5     // animatedPoseBitSize, formatOffset, rangeOffset, dataOffset, numSamples
)

// Marshal serializes a Plan into the final blob bytes, stamping the content
// hash last (§4.7, §7 "hash stability": identical input and settings must
// reproduce identical bytes, which this function does deterministically).
func Marshal(p *Plan) ([]byte, error) {
	stride := p.Stride()
	numBits := p.NumTracks * stride

	defaultBits := bitpack.NewBitsetBytes(numBits)
	constantBits := bitpack.NewBitsetBytes(numBits)
	for i, v := range p.DefaultBits {
		if v {
			bitpack.SetBit(defaultBits, i, true)
		}
	}
	for i, v := range p.ConstantBits {
		if v {
			bitpack.SetBit(constantBits, i, true)
		}
	}

	constantData := marshalConstantData(p)
	clipRangeTable := marshalClipRangeTable(p)

	segmentBlocks := make([][]byte, len(p.Segments))
	segmentAnimatedBits := make([]uint32, len(p.Segments))
	for i := range p.Segments {
		block, poseBits, err := marshalSegment(&p.Segments[i])
		if err != nil {
			return nil, fmt.Errorf("blob: segment %d: %w", i, err)
		}
		segmentBlocks[i] = block
		segmentAnimatedBits[i] = poseBits
	}

	body := &writeCursor{}

	body.putU32(magicTag)
	body.putU16(formatVersion)
	body.putU8(algorithmUniformlySampled)
	body.putU8(trackTypeTransformQVV)
	body.putU32(uint32(p.NumTracks))
	body.putU32(uint32(p.NumSamples))
	body.putF32(p.SampleRate)
	body.putU8(uint8(p.AdditiveFormat))
	body.putU8(uint8(p.LoopingPolicy))
	body.putU8(uint8(p.RotationFormat))
	body.putU8(uint8(p.TranslationFormat))
	body.putU8(uint8(p.ScaleFormat))
	body.putU8(boolToU8(p.HasScale))
	body.align(4)

	transformHeaderOffset := body.len()
	body.putBytes(make([]byte, transformHeaderSize))

	defaultBitsetOffset := body.len()
	body.putBytes(defaultBits)

	constantBitsetOffset := body.len()
	body.putBytes(constantBits)

	constantDataOffset := body.len()
	body.putBytes(constantData)

	clipRangeOffset := body.len()
	body.putBytes(clipRangeTable)

	segmentHeadersOffset := body.len()
	body.putBytes(make([]byte, len(p.Segments)*segmentHeaderRecordSize))

	for i, block := range segmentBlocks {
		body.align(4)
		blockStart := body.len()
		body.putBytes(block)

		recordOffset := segmentHeadersOffset + i*segmentHeaderRecordSize
		formatOffset, rangeOffset, dataOffset := segmentSectionOffsets(&p.Segments[i])
		putU32At(body.buf, recordOffset+0, segmentAnimatedBits[i])
		putU32At(body.buf, recordOffset+4, uint32(formatOffset))
		putU32At(body.buf, recordOffset+8, uint32(rangeOffset))
		putU32At(body.buf, recordOffset+12, uint32(dataOffset))
		putU32At(body.buf, recordOffset+16, uint32(p.Segments[i].NumSamples))
		_ = blockStart
	}

	// At least 15 bytes of trailing safety padding for SIMD 16-byte
	// overreads past the last segment's animated data (§4.7).
	body.putBytes(make([]byte, 16))

	numAnimated := [format.NumKinds]uint32{}
	for k := 0; k < format.NumKinds; k++ {
		numAnimated[k] = uint32(len(p.ClipRanges[k]))
	}
	putU32At(body.buf, transformHeaderOffset+0, uint32(defaultBitsetOffset+rawHeaderSize))
	putU32At(body.buf, transformHeaderOffset+4, uint32(constantBitsetOffset+rawHeaderSize))
	putU32At(body.buf, transformHeaderOffset+8, uint32(constantDataOffset+rawHeaderSize))
	putU32At(body.buf, transformHeaderOffset+12, uint32(clipRangeOffset+rawHeaderSize))
	putU32At(body.buf, transformHeaderOffset+16, uint32(segmentHeadersOffset+rawHeaderSize))
	putU32At(body.buf, transformHeaderOffset+20, uint32(len(p.Segments)))
	putU32At(body.buf, transformHeaderOffset+24, numAnimated[format.KindRotation])
	putU32At(body.buf, transformHeaderOffset+28, numAnimated[format.KindTranslation])
	putU32At(body.buf, transformHeaderOffset+32, numAnimated[format.KindScale])

	hash := contentHash(body.buf)

	out := &writeCursor{}
	out.putU32(uint32(rawHeaderSize + len(body.buf)))
	out.putU32(hash)
	out.putU64(0)
	out.putBytes(body.buf)

	return out.buf, nil
}

func boolToU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func putU32At(buf []byte, offset int, v uint32) {
	buf[offset+0] = byte(v)
	buf[offset+1] = byte(v >> 8)
	buf[offset+2] = byte(v >> 16)
	buf[offset+3] = byte(v >> 24)
}

// marshalConstantData packs each kind's constant samples in SoA groups of 4
// (§6 "Constant data"), full precision, in track-sorted output order.
func marshalConstantData(p *Plan) []byte {
	c := &writeCursor{}
	for kind := 0; kind < format.NumKinds; kind++ {
		if format.SubTrackKind(kind) == format.KindScale && !p.HasScale {
			continue
		}
		packSoAGroupsF32(c, p.ConstantSamples[kind])
	}
	return c.buf
}

// packSoAGroupsF32 writes values in groups of 4, x0..x3 y0..y3 z0..z3 per
// group, the last group holding however many values remain.
func packSoAGroupsF32(c *writeCursor, values []rigidmath.Vector3) {
	for start := 0; start < len(values); start += 4 {
		end := start + 4
		if end > len(values) {
			end = len(values)
		}
		group := values[start:end]
		for _, v := range group {
			c.putF32(v.X)
		}
		for _, v := range group {
			c.putF32(v.Y)
		}
		for _, v := range group {
			c.putF32(v.Z)
		}
	}
}

// marshalClipRangeTable writes one [min.xyz, extent.xyz] record per
// animated sub-track, kind-major, in track-sorted output order (§6).
func marshalClipRangeTable(p *Plan) []byte {
	c := &writeCursor{}
	for kind := 0; kind < format.NumKinds; kind++ {
		if format.SubTrackKind(kind) == format.KindScale && !p.HasScale {
			continue
		}
		for _, r := range p.ClipRanges[kind] {
			c.putF32(r.Min.X)
			c.putF32(r.Min.Y)
			c.putF32(r.Min.Z)
			c.putF32(r.Extent.X)
			c.putF32(r.Extent.Y)
			c.putF32(r.Extent.Z)
		}
	}
	return c.buf
}

// segmentSectionOffsets returns the (formatOffset, rangeOffset, dataOffset)
// a segment's data block will use, relative to that block's own start, so
// marshalSegment and Marshal agree without marshalSegment needing to return
// three more values through an extra struct.
func segmentSectionOffsets(s *SegmentPlan) (formatOffset, rangeOffset, dataOffset int) {
	formatOffset = 0
	formatLen := 0
	for kind := 0; kind < format.NumKinds; kind++ {
		formatLen += padTo4(len(s.BitRates[kind]))
	}
	rangeOffset = formatOffset + formatLen

	rangeLen := 0
	for kind := 0; kind < format.NumKinds; kind++ {
		rangeLen += padTo4(segmentRangeTableBytes(len(s.Ranges[kind])))
	}
	dataOffset = rangeOffset + rangeLen
	return
}

func padTo4(n int) int { return (n + 3) / 4 * 4 }

// segmentRangeTableBytes returns the byte size of a SoA-grouped-by-4
// segment range table: 3 components * 2 halves (min, extent) * 1 byte each,
// per entry, grouped in fours (§6).
func segmentRangeTableBytes(numEntries int) int {
	return numEntries * 6
}
