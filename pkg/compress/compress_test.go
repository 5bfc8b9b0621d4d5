package compress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"animclip/pkg/blob"
	"animclip/pkg/config"
	"animclip/pkg/format"
	"animclip/pkg/rigidmath"
	"animclip/pkg/track"
)

// twoBoneClip builds a small, two-bone animated clip: a root that swings
// through a full rotation and a constant-translation child, enough to
// exercise compaction, range extraction, segmentation and the bit-rate
// search without needing a fixture file.
func twoBoneClip(numSamples int) *track.RawArray {
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
	child := track.Track{
		Desc: track.Description{
			ParentIndex:   0,
			OutputIndex:   1,
			Precision:     0.001,
			ShellDistance: 1,
			DefaultValue:  rigidmath.Identity(),
		},
		Samples: make([]rigidmath.QVVTransform, numSamples),
	}

	for i := 0; i < numSamples; i++ {
		angle := float64(i) / float64(numSamples) * 2 * math.Pi
		root.Samples[i] = rigidmath.QVVTransform{
			Rotation:    rigidmath.Quat{X: 0, Y: 0, Z: float32(math.Sin(angle / 2)), W: float32(math.Cos(angle / 2))},
			Translation: rigidmath.Vector3{X: float32(i) * 0.1, Y: 0, Z: 0},
			Scale:       rigidmath.Vector3One(),
		}
		child.Samples[i] = rigidmath.QVVTransform{
			Rotation:    rigidmath.QuatIdentity(),
			Translation: rigidmath.Vector3{X: 1, Y: 0, Z: 0},
			Scale:       rigidmath.Vector3One(),
		}
	}

	return &track.RawArray{
		SampleRate: 30,
		Tracks:     []track.Track{root, child},
	}
}

func TestCompressProducesValidBlob(t *testing.T) {
	raw := twoBoneClip(20)
	settings := config.DefaultCompressionSettings()

	data, err := Compress(raw, nil, settings, nil)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	reader, err := blob.Parse(data)
	require.NoError(t, err)
	require.NoError(t, reader.Validate())
	require.Equal(t, 2, reader.NumTracks)
	require.Equal(t, 20, reader.NumSamples)
}

func TestCompressDetectsConstantChildTranslation(t *testing.T) {
	raw := twoBoneClip(20)
	settings := config.DefaultCompressionSettings()

	ctx := NewClipContext(raw, nil, settings, nil)
	DetectConstantAndDefault(ctx)

	require.True(t, ctx.IsConstant[1][format.KindTranslation])
	require.True(t, ctx.IsConstant[1][format.KindRotation])
	require.True(t, ctx.IsDefault[1][format.KindRotation])
}

func TestCompressRejectsInvalidInput(t *testing.T) {
	raw := twoBoneClip(20)
	raw.Tracks[0].Samples = raw.Tracks[0].Samples[:5]

	_, err := Compress(raw, nil, config.DefaultCompressionSettings(), nil)
	require.ErrorIs(t, err, track.ErrInvalidInput)
}

func TestSegmentSplitsEvenly(t *testing.T) {
	windows := Segment(32, 16, 31)
	total := 0
	for _, w := range windows {
		require.LessOrEqual(t, w.Count, 31)
		total += w.Count
	}
	require.Equal(t, 32, total)
}
