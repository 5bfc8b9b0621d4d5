package decompress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"animclip/pkg/compress"
	"animclip/pkg/config"
	"animclip/pkg/format"
	"animclip/pkg/rigidmath"
	"animclip/pkg/track"
)

// recordingWriter captures decompressed values indexed by track so a test
// can compare them back against the original raw samples.
type recordingWriter struct {
	rotation    map[int]rigidmath.Quat
	translation map[int]rigidmath.Vector3
	scale       map[int]rigidmath.Vector3
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{
		rotation:    make(map[int]rigidmath.Quat),
		translation: make(map[int]rigidmath.Vector3),
		scale:       make(map[int]rigidmath.Vector3),
	}
}

func (w *recordingWriter) WriteRotation(trackIndex int, value rigidmath.Quat) {
	w.rotation[trackIndex] = value
}
func (w *recordingWriter) WriteTranslation(trackIndex int, value rigidmath.Vector3) {
	w.translation[trackIndex] = value
}
func (w *recordingWriter) WriteScale(trackIndex int, value rigidmath.Vector3) {
	w.scale[trackIndex] = value
}

// threeBoneClip builds a chain of three bones with mixed, deliberately
// uneven motion so different sub-tracks land on different bit rates within
// the same group of four, exercising the group-aware offset math.
func threeBoneClip(numSamples int) *track.RawArray {
	mk := func(parent uint32, output uint32) track.Track {
		return track.Track{
			Desc: track.Description{
				ParentIndex:   parent,
				OutputIndex:   output,
				Precision:     0.0005,
				ShellDistance: 1,
				DefaultValue:  rigidmath.Identity(),
			},
			Samples: make([]rigidmath.QVVTransform, numSamples),
		}
	}

	root := mk(track.InvalidTrackIndex, 0)
	mid := mk(0, 1)
	tip := mk(1, 2)

	for i := 0; i < numSamples; i++ {
		f := float64(i) / float64(numSamples)
		root.Samples[i] = rigidmath.QVVTransform{
			Rotation:    rigidmath.Quat{X: 0, Y: 0, Z: float32(math.Sin(f * math.Pi)), W: float32(math.Cos(f * math.Pi))},
			Translation: rigidmath.Vector3{X: float32(f) * 2, Y: float32(f) * 0.05, Z: 0},
			Scale:       rigidmath.Vector3One(),
		}
		mid.Samples[i] = rigidmath.QVVTransform{
			Rotation:    rigidmath.Quat{X: float32(math.Sin(f * 0.3)), Y: 0, Z: 0, W: float32(math.Cos(f * 0.3))},
			Translation: rigidmath.Vector3{X: 1, Y: float32(f) * 3, Z: float32(f)},
			Scale:       rigidmath.Vector3One(),
		}
		tip.Samples[i] = rigidmath.QVVTransform{
			Rotation:    rigidmath.QuatIdentity(),
			Translation: rigidmath.Vector3{X: 0.5, Y: 0, Z: 0},
			Scale:       rigidmath.Vector3One(),
		}
	}

	return &track.RawArray{
		SampleRate: 30,
		Tracks:     []track.Track{root, mid, tip},
	}
}

func TestSeekAndDecompressRoundTrip(t *testing.T) {
	raw := threeBoneClip(40)
	settings := config.DefaultCompressionSettings()

	data, err := compress.Compress(raw, nil, settings, nil)
	require.NoError(t, err)

	ctx := NewContext(DefaultSettings())
	require.NoError(t, ctx.Initialize(data))

	reader, err := ctx.Reader()
	require.NoError(t, err)

	for i := 0; i < reader.NumSamples; i++ {
		time := float32(i) / raw.SampleRate
		require.NoError(t, ctx.Seek(time, RoundNone))

		w := newRecordingWriter()
		require.NoError(t, ctx.DecompressTracks(w))

		for trackIdx, tr := range raw.Tracks {
			precision := tr.Desc.Precision

			gotRot := w.rotation[trackIdx]
			wantRot := tr.Samples[i].Rotation
			require.InDelta(t, 0, quatAngleDelta(gotRot, wantRot), precision*50,
				"track %d rotation at sample %d", trackIdx, i)

			gotTrans := w.translation[trackIdx]
			wantTrans := tr.Samples[i].Translation
			require.InDelta(t, wantTrans.X, gotTrans.X, precision*50)
			require.InDelta(t, wantTrans.Y, gotTrans.Y, precision*50)
			require.InDelta(t, wantTrans.Z, gotTrans.Z, precision*50)
		}
	}
}

// TestRawFormatRoundTrip forces every sub-track kind to its raw, full-
// precision format (spec §8 Testable Property 3) over a clip with more than
// one animated sub-track per kind, so rotation's and translation's groups
// each pack two raw sub-tracks side by side in SoA order (x0,x1,y0,y1,z0,z1)
// rather than one sub-track's x,y,z contiguously. This is the layout the
// fixed-stride raw reader used to get wrong.
func TestRawFormatRoundTrip(t *testing.T) {
	raw := threeBoneClip(12)
	settings := config.DefaultCompressionSettings()
	settings.RotationFormat = format.RotationFormatQuatDropWFull
	settings.TranslationFormat = format.VectorFormatVec3Full
	settings.ScaleFormat = format.VectorFormatVec3Full

	data, err := compress.Compress(raw, nil, settings, nil)
	require.NoError(t, err)

	ctx := NewContext(DefaultSettings())
	require.NoError(t, ctx.Initialize(data))

	reader, err := ctx.Reader()
	require.NoError(t, err)

	for i := 0; i < reader.NumSamples; i++ {
		require.NoError(t, ctx.Seek(float32(i)/raw.SampleRate, RoundNone))

		w := newRecordingWriter()
		require.NoError(t, ctx.DecompressTracks(w))

		for trackIdx, tr := range raw.Tracks {
			wantRot := tr.Samples[i].Rotation
			gotRot := w.rotation[trackIdx]
			require.InDelta(t, 0, quatAngleDelta(gotRot, wantRot), 1e-4,
				"track %d rotation at sample %d", trackIdx, i)

			wantTrans := tr.Samples[i].Translation
			gotTrans := w.translation[trackIdx]
			require.InDelta(t, wantTrans.X, gotTrans.X, 1e-4, "track %d translation.x at sample %d", trackIdx, i)
			require.InDelta(t, wantTrans.Y, gotTrans.Y, 1e-4, "track %d translation.y at sample %d", trackIdx, i)
			require.InDelta(t, wantTrans.Z, gotTrans.Z, 1e-4, "track %d translation.z at sample %d", trackIdx, i)
		}
	}
}

func TestSeekClampsOutOfRangeTime(t *testing.T) {
	raw := threeBoneClip(10)
	data, err := compress.Compress(raw, nil, config.DefaultCompressionSettings(), nil)
	require.NoError(t, err)

	ctx := NewContext(DefaultSettings())
	require.NoError(t, ctx.Initialize(data))
	require.NoError(t, ctx.Seek(1000, RoundNone))
}

func TestSeekRejectsOutOfRangeTimeWithoutClamp(t *testing.T) {
	raw := threeBoneClip(10)
	data, err := compress.Compress(raw, nil, config.DefaultCompressionSettings(), nil)
	require.NoError(t, err)

	ctx := NewContext(Settings{ClampTime: false, NormalizeQuats: true})
	require.NoError(t, ctx.Initialize(data))
	require.Error(t, ctx.Seek(-1, RoundNone))
}

func TestDecompressBeforeSeekFails(t *testing.T) {
	raw := threeBoneClip(5)
	data, err := compress.Compress(raw, nil, config.DefaultCompressionSettings(), nil)
	require.NoError(t, err)

	ctx := NewContext(DefaultSettings())
	require.NoError(t, ctx.Initialize(data))

	w := newRecordingWriter()
	require.ErrorIs(t, ctx.DecompressTracks(w), ErrNotSeeked)
}

func TestFindLinearInterpolationSamplesRounding(t *testing.T) {
	raw := threeBoneClip(4)
	data, err := compress.Compress(raw, nil, config.DefaultCompressionSettings(), nil)
	require.NoError(t, err)

	ctx := NewContext(DefaultSettings())
	require.NoError(t, ctx.Initialize(data))
	r, err := ctx.Reader()
	require.NoError(t, err)

	key0, key1, alpha := findLinearInterpolationSamples(0.5/raw.SampleRate, r, RoundFloor)
	require.Equal(t, 0, key0)
	require.Equal(t, 1, key1)
	require.Equal(t, float32(0), alpha)

	key0, key1, alpha = findLinearInterpolationSamples(0.5/raw.SampleRate, r, RoundCeil)
	require.Equal(t, 0, key0)
	require.Equal(t, 1, key1)
	require.Equal(t, float32(1), alpha)
}

// quatAngleDelta returns the shortest rotational angle, in radians, between
// two quaternions (sign-agnostic, since q and -q represent the same
// rotation).
func quatAngleDelta(a, b rigidmath.Quat) float64 {
	dot := float64(a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W)
	if dot < 0 {
		dot = -dot
	}
	if dot > 1 {
		dot = 1
	}
	return 2 * math.Acos(dot)
}
