package blob_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"animclip/pkg/blob"
	"animclip/pkg/compress"
	"animclip/pkg/config"
	"animclip/pkg/format"
	"animclip/pkg/rigidmath"
	"animclip/pkg/track"
)

func sampleClip(numSamples int) *track.RawArray {
	root := track.Track{
		Desc: track.Description{
			ParentIndex:   track.InvalidTrackIndex,
			OutputIndex:   0,
			Precision:     0.001,
			ShellDistance: 1,
			DefaultValue:  rigidmath.Identity(),
		},
		Samples: make([]rigidmath.QVVTransform, numSamples),
	}
	for i := 0; i < numSamples; i++ {
		angle := float64(i) / float64(numSamples) * math.Pi
		root.Samples[i] = rigidmath.QVVTransform{
			Rotation:    rigidmath.Quat{X: 0, Y: float32(math.Sin(angle)), Z: 0, W: float32(math.Cos(angle))},
			Translation: rigidmath.Vector3{X: float32(i), Y: 0, Z: 0},
			Scale:       rigidmath.Vector3One(),
		}
	}
	return &track.RawArray{SampleRate: 24, Tracks: []track.Track{root}}
}

func TestMarshalParseHeaderRoundTrip(t *testing.T) {
	raw := sampleClip(24)
	data, err := compress.Compress(raw, nil, config.DefaultCompressionSettings(), nil)
	require.NoError(t, err)

	reader, err := blob.Parse(data)
	require.NoError(t, err)
	require.NoError(t, reader.Validate())

	require.Equal(t, 1, reader.NumTracks)
	require.Equal(t, 24, reader.NumSamples)
	require.Equal(t, float32(24), reader.SampleRate)
	require.Equal(t, format.LoopingPolicyNonLooping, reader.LoopingPolicy)
	require.False(t, reader.HasScale)
}

func TestValidateDetectsCorruption(t *testing.T) {
	raw := sampleClip(16)
	data, err := compress.Compress(raw, nil, config.DefaultCompressionSettings(), nil)
	require.NoError(t, err)

	corrupt := make([]byte, len(data))
	copy(corrupt, data)
	corrupt[len(corrupt)-1] ^= 0xFF

	reader, err := blob.Parse(corrupt)
	require.NoError(t, err)
	require.ErrorIs(t, reader.Validate(), blob.ErrHashMismatch)
}

func TestSegmentsCoverEveryClipSample(t *testing.T) {
	raw := sampleClip(50)
	settings := config.DefaultCompressionSettings()
	settings.IdealNumSamples = 8
	settings.MaxNumSamples = 15

	data, err := compress.Compress(raw, nil, settings, nil)
	require.NoError(t, err)

	reader, err := blob.Parse(data)
	require.NoError(t, err)
	require.NoError(t, reader.Validate())

	total := 0
	for i, seg := range reader.Segments {
		require.Equal(t, total, seg.StartSample, "segment %d starts where the previous one ended", i)
		total += seg.NumSamples
	}
	require.Equal(t, reader.NumSamples, total)
}

func TestRangeNormalizeDenormalizeRoundTrip(t *testing.T) {
	r := blob.Range{Min: rigidmath.Vector3{X: -2, Y: 0, Z: 1}, Extent: rigidmath.Vector3{X: 4, Y: 2, Z: 0.5}}
	v := rigidmath.Vector3{X: 0.5, Y: 1, Z: 1.25}

	normalized := r.Normalize(v)
	back := r.Denormalize(normalized)

	require.InDelta(t, v.X, back.X, 1e-5)
	require.InDelta(t, v.Y, back.Y, 1e-5)
	require.InDelta(t, v.Z, back.Z, 1e-5)
}

func TestRangeOfFloorsZeroExtent(t *testing.T) {
	r := blob.RangeOf([]rigidmath.Vector3{{X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}})
	require.Greater(t, r.Extent.X, float32(0))
	require.Greater(t, r.Extent.Y, float32(0))
	require.Greater(t, r.Extent.Z, float32(0))
}
