package bitpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetBitAndTestBitMSBFirst(t *testing.T) {
	words := NewBitsetBytes(40)
	SetBit(words, 0, true)
	SetBit(words, 7, true)
	SetBit(words, 33, true)

	require.True(t, TestBit(words, 0))
	require.True(t, TestBit(words, 7))
	require.True(t, TestBit(words, 33))
	require.False(t, TestBit(words, 1))
	require.False(t, TestBit(words, 32))
}

func TestPopCountBefore(t *testing.T) {
	words := NewBitsetBytes(40)
	for _, bit := range []int{0, 3, 5, 31, 32, 39} {
		SetBit(words, bit, true)
	}

	require.Equal(t, 0, PopCountBefore(words, 0))
	require.Equal(t, 2, PopCountBefore(words, 4))
	require.Equal(t, 4, PopCountBefore(words, 32))
	require.Equal(t, 5, PopCountBefore(words, 33))
	require.Equal(t, 6, PopCountBefore(words, 40))
}

func TestQuantizeDequantizeRoundTrip(t *testing.T) {
	for _, bits := range []uint8{3, 8, 16, 19} {
		for _, v := range []float32{0, 0.25, 0.5, 0.75, 1} {
			packed := Quantize(v, bits)
			got := Dequantize(packed, bits)
			require.InDelta(t, float64(v), float64(got), 1.0/float64(uint64(1)<<bits-1)+1e-6)
		}
	}
}

func TestQuantizeClampsOutOfRange(t *testing.T) {
	require.EqualValues(t, 0, Quantize(-0.5, 8))
	require.EqualValues(t, 255, Quantize(1.5, 8))
}

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	values := []struct {
		v    uint32
		bits uint8
	}{
		{5, 3},
		{200, 8},
		{1, 1},
		{0x7FFFF, 19},
	}
	for _, e := range values {
		require.NoError(t, w.WriteComponent(e.v, e.bits))
	}
	data, err := w.Bytes()
	require.NoError(t, err)

	r, err := NewReaderAt(data, 0)
	require.NoError(t, err)
	for _, e := range values {
		got, err := r.ReadComponent(e.bits)
		require.NoError(t, err)
		require.Equal(t, e.v, got)
	}
}

func TestReaderAtArbitraryBitOffset(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteComponent(0b101, 3))
	require.NoError(t, w.WriteComponent(0b10110, 5))
	data, err := w.Bytes()
	require.NoError(t, err)

	r, err := NewReaderAt(data, 3)
	require.NoError(t, err)
	got, err := r.ReadComponent(5)
	require.NoError(t, err)
	require.EqualValues(t, 0b10110, got)
}
