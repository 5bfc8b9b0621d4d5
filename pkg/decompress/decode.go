package decompress

import (
	"fmt"
	"math"

	"animclip/pkg/blob"
	"animclip/pkg/format"
	"animclip/pkg/rigidmath"
)

// DecompressTracks decodes every track's rotation, translation and scale
// (when the clip has scale) at the currently seeked time into writer
// (§4.8 "decompress_tracks").
func (c *Context) DecompressTracks(writer TrackWriter) error {
	if c.state != stateSeeked {
		return ErrNotSeeked
	}
	for i := 0; i < c.reader.NumTracks; i++ {
		if err := c.decompressTrack(i, writer); err != nil {
			return err
		}
	}
	return nil
}

// DecompressTrack decodes a single track by index, without touching any
// other track (§4.8 "decompress_track").
func (c *Context) DecompressTrack(trackIndex int, writer TrackWriter) error {
	if c.state != stateSeeked {
		return ErrNotSeeked
	}
	if trackIndex < 0 || trackIndex >= c.reader.NumTracks {
		return fmt.Errorf("decompress: track index %d out of range [0, %d)", trackIndex, c.reader.NumTracks)
	}
	return c.decompressTrack(trackIndex, writer)
}

func (c *Context) decompressTrack(trackIndex int, writer TrackWriter) error {
	r := c.reader
	stride := r.Stride()

	rotation, err := c.decompressKind(trackIndex, format.KindRotation, stride)
	if err != nil {
		return fmt.Errorf("decompress: track %d rotation: %w", trackIndex, err)
	}
	if rotation.isDefault {
		writer.WriteRotation(trackIndex, defaultRotation(writer, trackIndex))
	} else {
		writer.WriteRotation(trackIndex, rigidmath.Quat{X: rotation.X, Y: rotation.Y, Z: rotation.Z, W: rotation.w})
	}

	translation, err := c.decompressKind(trackIndex, format.KindTranslation, stride)
	if err != nil {
		return fmt.Errorf("decompress: track %d translation: %w", trackIndex, err)
	}
	if translation.isDefault {
		writer.WriteTranslation(trackIndex, defaultTranslation(writer, trackIndex))
	} else {
		writer.WriteTranslation(trackIndex, translation.Vector3)
	}

	if r.HasScale {
		scale, err := c.decompressKind(trackIndex, format.KindScale, stride)
		if err != nil {
			return fmt.Errorf("decompress: track %d scale: %w", trackIndex, err)
		}
		if scale.isDefault {
			writer.WriteScale(trackIndex, defaultScale(writer, trackIndex))
		} else {
			writer.WriteScale(trackIndex, scale.Vector3)
		}
	} else {
		writer.WriteScale(trackIndex, rigidmath.Vector3One())
	}

	return nil
}

// decodedComponent is a kind's reconstructed value plus whether it came
// from the default path, since rotation's default write needs a Quat
// while the other two kinds write the raw Vector3 that defaultRotation's
// caller already substituted for.
type decodedComponent struct {
	rigidmath.Vector3
	w         float32
	isDefault bool
}

// decompressKind implements §4.8 steps 1-5 for one sub-track of one track:
// default and constant short-circuits, otherwise a two-keyframe animated
// decode followed by interpolation.
func (c *Context) decompressKind(trackIndex int, kind format.SubTrackKind, stride int) (decodedComponent, error) {
	r := c.reader

	if r.IsDefault(trackIndex, kind, stride) {
		return decodedComponent{isDefault: true}, nil
	}

	if r.IsConstant(trackIndex, kind, stride) {
		rank := r.ConstantRank(trackIndex, kind, stride)
		sample := r.ConstantSample(kind, rank)
		return finishComponent(kind, sample, c.settings.NormalizeQuats), nil
	}

	rank := r.AnimatedRank(trackIndex, kind, stride)
	seg0 := &r.Segments[c.segment0]
	seg1 := &r.Segments[c.segment1]

	v0, err := decodeAnimatedSample(r, seg0, kind, rank, c.localKey0)
	if err != nil {
		return decodedComponent{}, err
	}
	v1, err := decodeAnimatedSample(r, seg1, kind, rank, c.localKey1)
	if err != nil {
		return decodedComponent{}, err
	}

	if kind == format.KindRotation {
		q0 := rigidmath.Quat{X: v0.X, Y: v0.Y, Z: v0.Z, W: rigidmath.ReconstructW(v0.X, v0.Y, v0.Z)}
		q1 := rigidmath.Quat{X: v1.X, Y: v1.Y, Z: v1.Z, W: rigidmath.ReconstructW(v1.X, v1.Y, v1.Z)}
		q := rigidmath.LerpShortPath(q0, q1, c.alpha)
		if c.settings.NormalizeQuats {
			q = q.Normalize()
		}
		return decodedComponent{Vector3: rigidmath.Vector3{X: q.X, Y: q.Y, Z: q.Z}, w: q.W}, nil
	}

	return decodedComponent{Vector3: rigidmath.Lerp(v0, v1, c.alpha)}, nil
}

// finishComponent turns a stored default/constant sample (xyz only for
// rotations) into a decodedComponent, reconstructing w when needed.
func finishComponent(kind format.SubTrackKind, v rigidmath.Vector3, normalize bool) decodedComponent {
	if kind != format.KindRotation {
		return decodedComponent{Vector3: v}
	}
	w := rigidmath.ReconstructW(v.X, v.Y, v.Z)
	if normalize {
		q := rigidmath.Quat{X: v.X, Y: v.Y, Z: v.Z, W: w}.Normalize()
		return decodedComponent{Vector3: rigidmath.Vector3{X: q.X, Y: q.Y, Z: q.Z}, w: q.W}
	}
	return decodedComponent{Vector3: v, w: w}
}

// decodeAnimatedSample reads one sub-track's value for one keyframe of one
// segment (§4.8 step 3): bit rate byte, then constant/raw/intermediate
// decode and range reconstruction.
func decodeAnimatedSample(r *blob.Reader, seg *blob.SegmentView, kind format.SubTrackKind, rank, localKey int) (rigidmath.Vector3, error) {
	rate, err := r.FormatByte(seg, kind, rank)
	if err != nil {
		return rigidmath.Vector3{}, err
	}

	switch rate {
	case format.BitRateConstant:
		minBytes, extentBytes := r.SegmentRangeBytes(seg, kind, rank)
		clipRange := r.ClipRange(kind, rank)
		quantized := rigidmath.Vector3{
			X: dequantizeBits(uint32(minBytes[0])<<8|uint32(extentBytes[0]), 16),
			Y: dequantizeBits(uint32(minBytes[1])<<8|uint32(extentBytes[1]), 16),
			Z: dequantizeBits(uint32(minBytes[2])<<8|uint32(extentBytes[2]), 16),
		}
		return clipRange.Denormalize(quantized), nil

	case format.BitRateRaw:
		xOff, yOff, zOff, numBits, err := poseBitOffsets(r, seg, kind, rank)
		if err != nil {
			return rigidmath.Vector3{}, err
		}
		keyBase := localKey * int(seg.AnimatedPoseBitSize)
		return readRawVector3(r, seg, keyBase+xOff, keyBase+yOff, keyBase+zOff, numBits)

	default:
		xOff, yOff, zOff, numBits, err := poseBitOffsets(r, seg, kind, rank)
		if err != nil {
			return rigidmath.Vector3{}, err
		}
		keyBase := localKey * int(seg.AnimatedPoseBitSize)
		xb, err := r.ReadComponentBits(seg, keyBase+xOff, numBits)
		if err != nil {
			return rigidmath.Vector3{}, err
		}
		yb, err := r.ReadComponentBits(seg, keyBase+yOff, numBits)
		if err != nil {
			return rigidmath.Vector3{}, err
		}
		zb, err := r.ReadComponentBits(seg, keyBase+zOff, numBits)
		if err != nil {
			return rigidmath.Vector3{}, err
		}
		segNorm := rigidmath.Vector3{
			X: dequantizeBits(xb, numBits),
			Y: dequantizeBits(yb, numBits),
			Z: dequantizeBits(zb, numBits),
		}
		segRange := r.SegmentRange(seg, kind, rank)
		clipRange := r.ClipRange(kind, rank)
		return clipRange.Denormalize(segRange.Denormalize(segNorm)), nil
	}
}

// readRawVector3 reads three independently-offset 32-bit raw floats, since a
// raw sub-track's y and z sections don't follow its own x section by a fixed
// stride: they start after every other group member's x (or y) section, and
// those can be narrower when the group mixes a raw sub-track with
// intermediate-rate siblings (see poseBitOffsets/groupLayout).
func readRawVector3(r *blob.Reader, seg *blob.SegmentView, xOff, yOff, zOff int, numBits uint8) (rigidmath.Vector3, error) {
	x, err := r.ReadComponentBits(seg, xOff, numBits)
	if err != nil {
		return rigidmath.Vector3{}, err
	}
	y, err := r.ReadComponentBits(seg, yOff, numBits)
	if err != nil {
		return rigidmath.Vector3{}, err
	}
	z, err := r.ReadComponentBits(seg, zOff, numBits)
	if err != nil {
		return rigidmath.Vector3{}, err
	}
	return rigidmath.Vector3{
		X: math.Float32frombits(x),
		Y: math.Float32frombits(y),
		Z: math.Float32frombits(z),
	}, nil
}

