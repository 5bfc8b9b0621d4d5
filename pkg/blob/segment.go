package blob

import (
	"fmt"
	"math"

	"animclip/pkg/bitpack"
	"animclip/pkg/format"
	"animclip/pkg/rigidmath"
)

// marshalSegment packs one segment's data block: per-track bit-rate bytes,
// segment range bytes, then the bit-packed animated stream, in that order
// (§4.7). It returns the block and the per-keyframe bit size stamped into
// the segment header.
func marshalSegment(s *SegmentPlan) ([]byte, uint32, error) {
	formatOffset, rangeOffset, dataOffset := segmentSectionOffsets(s)

	c := &writeCursor{}
	for kind := 0; kind < format.NumKinds; kind++ {
		for _, r := range s.BitRates[kind] {
			c.putU8(uint8(r))
		}
		c.align(4)
	}
	if c.len() != rangeOffset {
		return nil, 0, fmt.Errorf("blob: internal error, format section length %d != %d", c.len(), rangeOffset)
	}

	for kind := 0; kind < format.NumKinds; kind++ {
		packSegmentRangeGroups(c, s.Ranges[kind])
		c.align(4)
	}
	if c.len() != dataOffset {
		return nil, 0, fmt.Errorf("blob: internal error, range section length %d != %d", c.len(), dataOffset)
	}

	poseBits := segmentPoseBitSize(s)
	animated, err := packAnimatedData(s, poseBits)
	if err != nil {
		return nil, 0, err
	}
	c.putBytes(animated)

	_ = formatOffset
	return c.buf, poseBits, nil
}

// packSegmentRangeGroups writes SoA groups of 4: min.x0..x3, min.y0..y3,
// min.z0..z3, extent.x0..x3, extent.y0..y3, extent.z0..z3 per group, each
// component quantized to 8 bits over [0, 1] segment-local space (§6).
func packSegmentRangeGroups(c *writeCursor, ranges []Range) {
	for start := 0; start < len(ranges); start += 4 {
		end := start + 4
		if end > len(ranges) {
			end = len(ranges)
		}
		group := ranges[start:end]
		for _, r := range group {
			c.putU8(uint8(bitpack.Quantize(r.Min.X, 8)))
		}
		for _, r := range group {
			c.putU8(uint8(bitpack.Quantize(r.Min.Y, 8)))
		}
		for _, r := range group {
			c.putU8(uint8(bitpack.Quantize(r.Min.Z, 8)))
		}
		for _, r := range group {
			c.putU8(uint8(bitpack.Quantize(r.Extent.X, 8)))
		}
		for _, r := range group {
			c.putU8(uint8(bitpack.Quantize(r.Extent.Y, 8)))
		}
		for _, r := range group {
			c.putU8(uint8(bitpack.Quantize(r.Extent.Z, 8)))
		}
	}
}

// segmentPoseBitSize computes the exact number of bits one keyframe
// occupies in the animated stream, including the per-group byte-alignment
// padding (§6 "padded to byte at the end of each group-of-keys"). Because
// every keyframe in a segment shares the same per-sub-track bit rates, this
// is identical for every keyframe, which is what makes the seek algorithm's
// key0 * animated_pose_bit_size offset arithmetic valid (§4.8).
func segmentPoseBitSize(s *SegmentPlan) uint32 {
	total := 0
	for kind := 0; kind < format.NumKinds; kind++ {
		rates := s.BitRates[kind]
		for start := 0; start < len(rates); start += 4 {
			end := start + 4
			if end > len(rates) {
				end = len(rates)
			}
			groupBits := 0
			for _, r := range rates[start:end] {
				groupBits += int(format.NumBitsAtBitRate(r)) * 3
			}
			total += (groupBits + 7) / 8 * 8
		}
	}
	return uint32(total)
}

// packAnimatedData writes the keyframe-major, kind-major, group-of-4
// animated stream (§6 "Animated data ordering").
func packAnimatedData(s *SegmentPlan, poseBits uint32) ([]byte, error) {
	w := bitpack.NewWriter()
	for sample := 0; sample < s.NumSamples; sample++ {
		startBits := w.BitsWritten()
		for kind := 0; kind < format.NumKinds; kind++ {
			rates := s.BitRates[kind]
			samples := s.NormalizedSamples[kind]
			if len(rates) == 0 {
				continue
			}
			row := samples[sample]
			for start := 0; start < len(rates); start += 4 {
				end := start + 4
				if end > len(rates) {
					end = len(rates)
				}
				group := rates[start:end]
				values := row[start:end]

				if err := writeComponentChannel(w, group, values, componentX); err != nil {
					return nil, err
				}
				if err := writeComponentChannel(w, group, values, componentY); err != nil {
					return nil, err
				}
				if err := writeComponentChannel(w, group, values, componentZ); err != nil {
					return nil, err
				}
				if err := w.AlignToByte(); err != nil {
					return nil, err
				}
			}
		}
		if used := uint32(w.BitsWritten() - startBits); used != poseBits {
			return nil, fmt.Errorf("blob: keyframe %d used %d bits, expected %d", sample, used, poseBits)
		}
	}
	return w.Bytes()
}

type component int

const (
	componentX component = iota
	componentY
	componentZ
)

func writeComponentChannel(w *bitpack.Writer, rates []format.BitRate, values []rigidmath.Vector3, comp component) error {
	for i, r := range rates {
		numBits := format.NumBitsAtBitRate(r)
		v := componentOf(values[i], comp)
		if r == format.BitRateRaw {
			if err := w.WriteComponent(math.Float32bits(v), numBits); err != nil {
				return err
			}
			continue
		}
		if err := w.WriteComponent(bitpack.Quantize(v, numBits), numBits); err != nil {
			return err
		}
	}
	return nil
}

func componentOf(v rigidmath.Vector3, comp component) float32 {
	switch comp {
	case componentX:
		return v.X
	case componentY:
		return v.Y
	default:
		return v.Z
	}
}
