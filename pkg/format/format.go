// Package format defines the wire-level enumerations shared by the
// compressor and the decompressor: bit rates, per-channel sample formats
// and the additive clip format tag (§3, §6).
package format

// BitRate is a tag in [0, NumBitRates) selecting a sub-track's packed
// component width. BitRateConstant and BitRateRaw are special: the former
// means the sample lives in the segment range buffer rather than the
// animated stream, the latter bypasses all range reduction (§3).
type BitRate uint8

// Bit rate tags. Indices 1..10 are the intermediate, searchable rates; 0 and
// NumBitRates-1 are the two special tags.
const (
	BitRateConstant BitRate = 0
	BitRateRaw      BitRate = NumBitRates - 1
)

// NumBitRates is the size of the bit rate tag space, §3's N_RATES.
const NumBitRates = 12

// numBitsAtBitRate maps a bit rate tag to its packed component width in
// bits. Three components are always packed contiguously per sample.
var numBitsAtBitRate = [NumBitRates]uint8{
	0,                      // BitRateConstant
	3, 4, 5, 6, 7, 8, 10, 12, 16, 19, // intermediate, searched smallest-first
	32, // BitRateRaw
}

// NumBitsAtBitRate returns the packed width in bits of one component at the
// given bit rate.
func NumBitsAtBitRate(rate BitRate) uint8 {
	return numBitsAtBitRate[rate]
}

// LowestIntermediateBitRate and HighestIntermediateBitRate bound the search
// space the bit-rate selector iterates over (§4.5), excluding Constant and
// Raw.
const (
	LowestIntermediateBitRate  BitRate = 1
	HighestIntermediateBitRate BitRate = NumBitRates - 2
)

// RotationFormat selects how a rotation sub-track's samples are encoded.
type RotationFormat uint8

// Rotation formats. QuatDropWVariable is the zero value so that a
// zero-valued CompressionSettings (e.g. an omitted YAML field) defaults to
// the variable, bit-rate-searched format rather than silently requesting
// raw fidelity.
const (
	// RotationFormatQuatDropWVariable stores xyz at a per-segment
	// variable bit rate and reconstructs w.
	RotationFormatQuatDropWVariable RotationFormat = iota

	// RotationFormatQuatDropWFull stores xyz at full 32-bit precision and
	// reconstructs w: 96 bits per sample, no variable bit rate.
	RotationFormatQuatDropWFull

	// RotationFormatQuatFull stores all four components at full 32-bit
	// precision: 128 bits per sample.
	RotationFormatQuatFull
)

// IsRaw reports whether the format bypasses bit-rate selection entirely:
// both full-precision variants skip the search in §4.5 and are always
// packed at BitRateRaw. The compressor writes whichever format its settings
// name; for every rotation format, QuatFull included, it stores xyz only
// and the decoder reconstructs w, which keeps the animated-data component
// pipeline uniformly 3-wide (xyz) across all three sub-track kinds.
func (f RotationFormat) IsRaw() bool {
	return f == RotationFormatQuatFull || f == RotationFormatQuatDropWFull
}

// VectorFormat selects how a translation or scale sub-track's samples are
// encoded.
type VectorFormat uint8

// Vector formats. VectorFormatVec3Variable is the zero value for the same
// reason RotationFormatQuatDropWVariable is.
const (
	// VectorFormatVec3Variable stores the three components at a
	// per-segment variable bit rate.
	VectorFormatVec3Variable VectorFormat = iota

	// VectorFormatVec3Full stores all three components at full 32-bit
	// precision: 96 bits per sample, bypassing bit-rate selection.
	VectorFormatVec3Full
)

// IsRaw reports whether the format bypasses bit-rate selection entirely.
func (f VectorFormat) IsRaw() bool { return f == VectorFormatVec3Full }

// SubTrackKind identifies which of the three channels a sub-track belongs
// to; also used as the SoA group interleaving order (§3 "rotation,
// translation, scale, in that interleaving order").
type SubTrackKind uint8

// Sub-track kinds, also their interleaving order within a keyframe.
const (
	KindRotation SubTrackKind = iota
	KindTranslation
	KindScale

	NumKinds = int(KindScale) + 1
)

// LoopingPolicy controls whether sample index NumSamples aliases sample 0
// (§4.3, GLOSSARY "Wrap policy").
type LoopingPolicy uint8

// Looping policies.
const (
	LoopingPolicyNonLooping LoopingPolicy = iota
	LoopingPolicyWrap
)
