package bitpack

import (
	"bytes"
	"fmt"
	"io"

	"github.com/icza/bitio"
)

// Quantize maps a normalized value in [0, 1] to an unsigned integer with the
// given bit width, clamping for safety against values that drift slightly
// outside the unit range due to floating point error (§4.4, §4.5).
func Quantize(value float32, numBits uint8) uint32 {
	if numBits == 0 {
		return 0
	}
	maxValue := float32((uint64(1) << numBits) - 1)
	scaled := value * maxValue
	if scaled < 0 {
		return 0
	}
	if scaled > maxValue {
		return uint32(maxValue)
	}
	return uint32(scaled + 0.5)
}

// Dequantize is the inverse of Quantize: an N-bit unsigned integer back to a
// normalized float in [0, 1].
func Dequantize(packed uint32, numBits uint8) float32 {
	if numBits == 0 {
		return 0
	}
	maxValue := float32((uint64(1) << numBits) - 1)
	return float32(packed) / maxValue
}

// Writer sequentially packs fixed-width unsigned samples MSB-first, mirroring
// the bitio.Reader usage the H.264 SPS parser makes of the same library for
// Golomb-coded fields (pkg/video/gortsplib/pkg/h264/sps.go), just in the
// write direction.
type Writer struct {
	buf       *bytes.Buffer
	bw        *bitio.Writer
	bitsWritten int
}

// NewWriter returns a Writer appending to a fresh internal buffer.
func NewWriter() *Writer {
	buf := &bytes.Buffer{}
	return &Writer{buf: buf, bw: bitio.NewWriter(buf)}
}

// WriteComponent packs value using its low numBits bits, MSB-first.
func (w *Writer) WriteComponent(value uint32, numBits uint8) error {
	if numBits == 0 {
		return nil
	}
	if err := w.bw.WriteBits(uint64(value), numBits); err != nil {
		return fmt.Errorf("bitpack: write component: %w", err)
	}
	w.bitsWritten += int(numBits)
	return nil
}

// BitsWritten returns the number of component bits written so far, excluding
// any trailing alignment padding.
func (w *Writer) BitsWritten() int { return w.bitsWritten }

// AlignToByte pads with zero bits up to the next byte boundary, used after
// each animated-data sub-track group so the decompressor can issue
// unaligned word loads at group boundaries (§6).
func (w *Writer) AlignToByte() error {
	pad := uint8((8 - w.bitsWritten%8) % 8)
	if pad == 0 {
		return nil
	}
	if err := w.bw.WriteBits(0, pad); err != nil {
		return fmt.Errorf("bitpack: align to byte: %w", err)
	}
	w.bitsWritten += int(pad)
	return nil
}

// Bytes flushes any partial trailing byte with zero padding and returns the
// packed buffer. The Writer must not be used again afterward.
func (w *Writer) Bytes() ([]byte, error) {
	if err := w.bw.Close(); err != nil {
		return nil, fmt.Errorf("bitpack: flush writer: %w", err)
	}
	return w.buf.Bytes(), nil
}

// Reader unpacks fixed-width unsigned samples MSB-first starting at an
// arbitrary bit offset into a byte slice, used by the decompressor's
// random-access sub-track lookup (§4.10) as well as ordinary sequential
// per-keyframe decoding.
type Reader struct {
	br *bitio.Reader
}

// NewReaderAt returns a Reader positioned at bitOffset bits into data.
func NewReaderAt(data []byte, bitOffset int) (*Reader, error) {
	byteOffset := bitOffset / 8
	leadingBits := uint8(bitOffset % 8)
	if byteOffset > len(data) {
		return nil, fmt.Errorf("bitpack: bit offset %d out of range for %d bytes", bitOffset, len(data))
	}
	br := bitio.NewReader(bytes.NewReader(data[byteOffset:]))
	if leadingBits > 0 {
		if _, err := br.ReadBits(leadingBits); err != nil {
			return nil, fmt.Errorf("bitpack: seek to bit offset %d: %w", bitOffset, err)
		}
	}
	return &Reader{br: br}, nil
}

// ReadComponent unpacks the next numBits bits as an unsigned integer.
func (r *Reader) ReadComponent(numBits uint8) (uint32, error) {
	if numBits == 0 {
		return 0, nil
	}
	v, err := r.br.ReadBits(numBits)
	if err != nil {
		if err == io.EOF {
			return 0, fmt.Errorf("bitpack: read component: %w", io.ErrUnexpectedEOF)
		}
		return 0, fmt.Errorf("bitpack: read component: %w", err)
	}
	return uint32(v), nil
}
