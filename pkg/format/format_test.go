package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumBitsAtBitRateSpecialTags(t *testing.T) {
	require.EqualValues(t, 0, NumBitsAtBitRate(BitRateConstant))
	require.EqualValues(t, 32, NumBitsAtBitRate(BitRateRaw))
}

func TestNumBitsAtBitRateIsMonotonic(t *testing.T) {
	prev := uint8(0)
	for rate := LowestIntermediateBitRate; rate <= HighestIntermediateBitRate; rate++ {
		width := NumBitsAtBitRate(rate)
		require.Greater(t, width, prev)
		prev = width
	}
}

func TestRotationFormatIsRaw(t *testing.T) {
	require.True(t, RotationFormatQuatFull.IsRaw())
	require.False(t, RotationFormatQuatDropWVariable.IsRaw())
}

func TestVectorFormatIsRaw(t *testing.T) {
	require.True(t, VectorFormatVec3Full.IsRaw())
	require.False(t, VectorFormatVec3Variable.IsRaw())
}
