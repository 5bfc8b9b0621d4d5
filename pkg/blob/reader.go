package blob

import (
	"encoding/binary"
	"fmt"
	"math"

	"animclip/pkg/bitpack"
	"animclip/pkg/format"
	"animclip/pkg/rigidmath"
)

// SegmentView describes one segment's absolute location and header fields,
// precomputed once when the blob is parsed (§4.8 "Bound" state).
type SegmentView struct {
	StartSample        int
	NumSamples         int
	AnimatedPoseBitSize uint32

	absoluteDataStart   int // blob-absolute byte offset of this segment's data block
	formatOffset        int
	rangeOffset         int
	dataOffset          int
}

// Reader is a parsed, read-only view over a blob's bytes, exposing exactly
// the accessors the decompressor needs without copying the underlying
// buffer (§4.8, §4.10).
type Reader struct {
	data []byte

	NumTracks      int
	NumSamples     int
	SampleRate     float32
	AdditiveFormat rigidmath.AdditiveFormat
	HasScale       bool
	LoopingPolicy  format.LoopingPolicy

	RotationFormat    format.RotationFormat
	TranslationFormat format.VectorFormat
	ScaleFormat       format.VectorFormat

	defaultBitsetOffset  int
	constantBitsetOffset int
	constantDataOffset   int
	clipRangeOffset      int

	numAnimated [format.NumKinds]int

	Segments []SegmentView

	hash uint32
}

// Parse validates the raw header and tracks header and builds a Reader.
// It does not check the content hash; call Validate for that (§7 "gate
// before binding a blob").
func Parse(data []byte) (*Reader, error) {
	rc := &readCursor{buf: data}
	size, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	hash, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	if _, err := rc.getU64(); err != nil {
		return nil, err
	}
	if int(size) != len(data) {
		return nil, fmt.Errorf("blob: header size %d does not match buffer length %d: %w", size, len(data), ErrTruncated)
	}

	magic, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	if magic != magicTag {
		return nil, ErrBadTag
	}
	version, err := rc.getU16()
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, ErrUnsupportedVersion
	}
	if _, err := rc.getU8(); err != nil { // algorithm
		return nil, err
	}
	if _, err := rc.getU8(); err != nil { // track type
		return nil, err
	}
	numTracks, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	numSamples, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	sampleRate, err := rc.getF32()
	if err != nil {
		return nil, err
	}
	additiveFormat, err := rc.getU8()
	if err != nil {
		return nil, err
	}
	loopingPolicy, err := rc.getU8()
	if err != nil {
		return nil, err
	}
	rotationFormat, err := rc.getU8()
	if err != nil {
		return nil, err
	}
	translationFormat, err := rc.getU8()
	if err != nil {
		return nil, err
	}
	scaleFormat, err := rc.getU8()
	if err != nil {
		return nil, err
	}
	hasScale, err := rc.getU8()
	if err != nil {
		return nil, err
	}
	if err := rc.align(4); err != nil {
		return nil, err
	}

	defaultBitsetOffset, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	constantBitsetOffset, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	constantDataOffset, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	clipRangeOffset, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	segmentHeadersOffset, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	numSegments, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	numAnimRot, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	numAnimTrans, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	numAnimScale, err := rc.getU32()
	if err != nil {
		return nil, err
	}
	for _, off := range []uint32{defaultBitsetOffset, constantBitsetOffset, constantDataOffset, clipRangeOffset, segmentHeadersOffset} {
		if off%4 != 0 {
			return nil, fmt.Errorf("blob: section offset %d: %w", off, ErrBadAlignment)
		}
	}

	r := &Reader{
		data:                 data,
		NumTracks:            int(numTracks),
		NumSamples:           int(numSamples),
		SampleRate:           sampleRate,
		AdditiveFormat:       rigidmath.AdditiveFormat(additiveFormat),
		HasScale:             hasScale != 0,
		LoopingPolicy:        format.LoopingPolicy(loopingPolicy),
		RotationFormat:       format.RotationFormat(rotationFormat),
		TranslationFormat:    format.VectorFormat(translationFormat),
		ScaleFormat:          format.VectorFormat(scaleFormat),
		defaultBitsetOffset:  int(defaultBitsetOffset),
		constantBitsetOffset: int(constantBitsetOffset),
		constantDataOffset:   int(constantDataOffset),
		clipRangeOffset:      int(clipRangeOffset),
		numAnimated:          [format.NumKinds]int{int(numAnimRot), int(numAnimTrans), int(numAnimScale)},
		hash:                 hash,
	}

	segments := make([]SegmentView, numSegments)
	recPos := int(segmentHeadersOffset)
	dataStart := int(segmentHeadersOffset) + int(numSegments)*segmentHeaderRecordSize
	startSample := 0
	for i := 0; i < int(numSegments); i++ {
		if recPos+segmentHeaderRecordSize > len(data) {
			return nil, fmt.Errorf("blob: segment header %d: %w", i, ErrTruncated)
		}
		poseBits := binary.LittleEndian.Uint32(data[recPos+0:])
		formatOffset := int(binary.LittleEndian.Uint32(data[recPos+4:]))
		rangeOffset := int(binary.LittleEndian.Uint32(data[recPos+8:]))
		dataOffset := int(binary.LittleEndian.Uint32(data[recPos+12:]))
		numSeg := int(binary.LittleEndian.Uint32(data[recPos+16:]))

		dataStart = align4(dataStart)
		segments[i] = SegmentView{
			StartSample:         startSample,
			NumSamples:          numSeg,
			AnimatedPoseBitSize: poseBits,
			absoluteDataStart:   dataStart,
			formatOffset:        formatOffset,
			rangeOffset:         rangeOffset,
			dataOffset:          dataOffset,
		}

		blockLen := dataOffset + (numSeg*int(poseBits)+7)/8
		dataStart += blockLen
		startSample += numSeg
		recPos += segmentHeaderRecordSize
	}
	r.Segments = segments

	return r, nil
}

func align4(n int) int { return (n + 3) / 4 * 4 }

// Validate checks the content hash the way is_valid(check_hash=true) does
// (§4.8, §7).
func (r *Reader) Validate() error {
	if len(r.data) < rawHeaderSize {
		return ErrTruncated
	}
	if contentHash(r.data[rawHeaderSize:]) != r.hash {
		return ErrHashMismatch
	}
	return nil
}

// NumAnimated returns the number of animated sub-tracks of the given kind.
func (r *Reader) NumAnimated(kind format.SubTrackKind) int { return r.numAnimated[kind] }

// IsDefault reports whether trackIndex's sub-track of the given kind is in
// the default bitset.
func (r *Reader) IsDefault(trackIndex int, kind format.SubTrackKind, stride int) bool {
	bit := trackIndex*stride + int(kind)
	return bitpack.TestBit(r.data[r.defaultBitsetOffset:], bit)
}

// IsConstant reports whether trackIndex's sub-track of the given kind is in
// the constant bitset.
func (r *Reader) IsConstant(trackIndex int, kind format.SubTrackKind, stride int) bool {
	bit := trackIndex*stride + int(kind)
	return bitpack.TestBit(r.data[r.constantBitsetOffset:], bit)
}

// Stride is the bitset stride: 2 without scale, 3 with scale (§6).
func (r *Reader) Stride() int {
	if r.HasScale {
		return 3
	}
	return 2
}

// ConstantRank returns how many sub-tracks of this kind, among tracks
// before trackIndex, are constant but not default — the index into that
// kind's constant-data block (§4.10). Default sub-tracks also carry the
// constant bit but store no constant sample.
func (r *Reader) ConstantRank(trackIndex int, kind format.SubTrackKind, stride int) int {
	count := 0
	for t := 0; t < trackIndex; t++ {
		if r.IsConstant(t, kind, stride) && !r.IsDefault(t, kind, stride) {
			count++
		}
	}
	return count
}

// AnimatedRank returns how many sub-tracks of this kind, among tracks
// before trackIndex, are animated (neither default nor constant) — the
// index into that kind's per-segment animated arrays (§4.10).
func (r *Reader) AnimatedRank(trackIndex int, kind format.SubTrackKind, stride int) int {
	count := 0
	for t := 0; t < trackIndex; t++ {
		if !r.IsDefault(t, kind, stride) && !r.IsConstant(t, kind, stride) {
			count++
		}
	}
	return count
}

// ConstantSample reads the rank-th constant sample of the given kind
// (xyz only; rotations reconstruct w with a positive sign).
func (r *Reader) ConstantSample(kind format.SubTrackKind, rank int) rigidmath.Vector3 {
	numEntries := r.constantCountFor(kind)
	return readSoAGroupF32(r.data, r.constantKindOffset(kind), rank, numEntries)
}

// constantCountFor counts the constant, non-default sub-tracks of the given
// kind, i.e. the number of entries in that kind's constant-data block.
func (r *Reader) constantCountFor(kind format.SubTrackKind) int {
	stride := r.Stride()
	count := 0
	for t := 0; t < r.NumTracks; t++ {
		if r.IsConstant(t, kind, stride) && !r.IsDefault(t, kind, stride) {
			count++
		}
	}
	return count
}

// constantKindOffset returns the byte offset where this kind's constant
// data block begins, by skipping over the preceding kinds' blocks. It calls
// ConstantKindOffsets, which rescans the bitsets for every kind on each
// call.
func (r *Reader) constantKindOffset(kind format.SubTrackKind) int {
	offsets := r.ConstantKindOffsets()
	return offsets[kind]
}

// ConstantKindOffsets returns the byte offset of each kind's constant data
// block, by scanning the constant and default bitsets once.
func (r *Reader) ConstantKindOffsets() [format.NumKinds]int {
	stride := r.Stride()
	var counts [format.NumKinds]int
	for t := 0; t < r.NumTracks; t++ {
		for k := 0; k < format.NumKinds; k++ {
			if format.SubTrackKind(k) == format.KindScale && !r.HasScale {
				continue
			}
			if r.IsConstant(t, format.SubTrackKind(k), stride) && !r.IsDefault(t, format.SubTrackKind(k), stride) {
				counts[k]++
			}
		}
	}
	var offsets [format.NumKinds]int
	offset := r.constantDataOffset
	for k := 0; k < format.NumKinds; k++ {
		offsets[k] = offset
		offset += numSoAFloatGroupBytes(counts[k])
	}
	return offsets
}

func numSoAFloatGroupBytes(numEntries int) int { return numEntries * 3 * 4 }

// readSoAGroupF32 reads the rank-th Vector3 out of an SoA-grouped-by-4
// float32 table of numEntries total entries, starting at byteOffset. Every
// group has 4 entries except possibly the last, which has numEntries%4 (or
// 4, if numEntries is an exact multiple).
func readSoAGroupF32(data []byte, byteOffset int, rank int, numEntries int) rigidmath.Vector3 {
	groupIndex := rank / 4
	within := rank % 4
	groupStart := byteOffset + groupIndex*4*3*4

	groupSize := numEntries - groupIndex*4
	if groupSize > 4 {
		groupSize = 4
	}

	xOff := groupStart + within*4
	yOff := groupStart + groupSize*4 + within*4
	zOff := groupStart + groupSize*4*2 + within*4
	return rigidmath.Vector3{
		X: readF32(data, xOff),
		Y: readF32(data, yOff),
		Z: readF32(data, zOff),
	}
}

func readF32(data []byte, offset int) float32 {
	bits := binary.LittleEndian.Uint32(data[offset:])
	return math.Float32frombits(bits)
}
