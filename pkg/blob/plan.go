package blob

import (
	"animclip/pkg/format"
	"animclip/pkg/rigidmath"
)

// Range is a per-component min/extent pair used by both the clip range
// table and a segment's local range table (§4.4).
type Range struct {
	Min, Extent rigidmath.Vector3
}

// Normalize maps v into [0, 1] using this range, the inverse of Denormalize.
func (r Range) Normalize(v rigidmath.Vector3) rigidmath.Vector3 {
	return rigidmath.Vector3{
		X: safeDiv(v.X-r.Min.X, r.Extent.X),
		Y: safeDiv(v.Y-r.Min.Y, r.Extent.Y),
		Z: safeDiv(v.Z-r.Min.Z, r.Extent.Z),
	}
}

// Denormalize maps a [0, 1] value back into this range's units.
func (r Range) Denormalize(v rigidmath.Vector3) rigidmath.Vector3 {
	return rigidmath.Vector3{
		X: v.X*r.Extent.X + r.Min.X,
		Y: v.Y*r.Extent.Y + r.Min.Y,
		Z: v.Z*r.Extent.Z + r.Min.Z,
	}
}

func safeDiv(a, b float32) float32 {
	if b == 0 {
		return 0
	}
	return a / b
}

// RangeOf returns the tightest Range covering every sample, with a minimum
// extent floor so Normalize never divides by zero for a track whose values
// happen to be constant within a single segment window.
func RangeOf(samples []rigidmath.Vector3) Range {
	if len(samples) == 0 {
		return Range{Extent: rigidmath.Vector3{X: 1, Y: 1, Z: 1}}
	}
	min := samples[0]
	max := samples[0]
	for _, s := range samples[1:] {
		min.X, max.X = minMax(min.X, max.X, s.X)
		min.Y, max.Y = minMax(min.Y, max.Y, s.Y)
		min.Z, max.Z = minMax(min.Z, max.Z, s.Z)
	}
	const floor = 1e-6
	extent := rigidmath.Vector3{X: max.X - min.X, Y: max.Y - min.Y, Z: max.Z - min.Z}
	if extent.X < floor {
		extent.X = floor
	}
	if extent.Y < floor {
		extent.Y = floor
	}
	if extent.Z < floor {
		extent.Z = floor
	}
	return Range{Min: min, Extent: extent}
}

func minMax(min, max, v float32) (float32, float32) {
	if v < min {
		min = v
	}
	if v > max {
		max = v
	}
	return min, max
}

// SegmentPlan is one segment's fully-decided contents, ready to serialize.
// Every per-kind slice has one entry per animated sub-track of that kind,
// in the same order as Plan.ClipRanges[kind].
type SegmentPlan struct {
	NumSamples int

	BitRates [format.NumKinds][]format.BitRate
	Ranges   [format.NumKinds][]Range

	// NormalizedSamples[kind][sampleIndex][subTrackIndex] holds the value
	// ready to pack: for an intermediate bit rate, it is segment-range
	// normalized into [0, 1]; for BitRateRaw it is the untouched clip-space
	// value, packed as a bit-reinterpreted float32 instead of a quantized
	// integer (§4.8.3 "if raw ... skip range reconstruction").
	NormalizedSamples [format.NumKinds][][]rigidmath.Vector3
}

// Plan is the fully-decided, not-yet-serialized contents of a blob: every
// value the Writer (§4.7) needs, already computed by the compression
// pipeline. Marshal turns a Plan into bytes; Parse turns bytes back into a
// Reader that exposes the same information to the decompressor.
type Plan struct {
	NumTracks      int
	NumSamples     int
	SampleRate     float32
	AdditiveFormat rigidmath.AdditiveFormat
	HasScale       bool
	LoopingPolicy  format.LoopingPolicy

	RotationFormat    format.RotationFormat
	TranslationFormat format.VectorFormat
	ScaleFormat       format.VectorFormat

	// DefaultBits and ConstantBits are interleaved per track with a stride
	// of 2 (no scale) or 3 (with scale): rotation, translation[, scale].
	DefaultBits  []bool
	ConstantBits []bool

	// ConstantSamples[kind] holds one sample per constant (non-default)
	// sub-track of that kind, in track-sorted output order. Rotation
	// samples store xyz only, already canonicalized to W >= 0.
	ConstantSamples [format.NumKinds][]rigidmath.Vector3

	// ClipRanges[kind] holds one range per animated sub-track of that
	// kind, in track-sorted output order.
	ClipRanges [format.NumKinds][]Range

	// SegmentStartIndices holds each segment's first sample index within
	// the clip, used to map a clip-level keyframe to (segment, local key).
	SegmentStartIndices []int

	Segments []SegmentPlan
}

// Stride is the number of interleaved bitset bits per track (§6).
func (p *Plan) Stride() int {
	if p.HasScale {
		return 3
	}
	return 2
}
