package shell

import (
	"testing"

	"animclip/pkg/rigidmath"
	"animclip/pkg/track"
	"github.com/stretchr/testify/require"
)

func identityClip(numSamples int, shellDistance, precision float32) *track.RawArray {
	samples := make([]track.Sample, numSamples)
	for i := range samples {
		samples[i] = rigidmath.Identity()
	}
	return &track.RawArray{
		SampleRate: 30,
		HasScale:   true,
		Tracks: []track.Track{
			{
				Desc: track.Description{
					ParentIndex:   track.InvalidTrackIndex,
					ShellDistance: shellDistance,
					Precision:     precision,
					OutputIndex:   0,
				},
				Samples: samples,
			},
		},
	}
}

func TestRigidShellCalculateZeroForEqualTransforms(t *testing.T) {
	m := RigidShell{}
	tr := rigidmath.Identity()
	require.Equal(t, float32(0), m.Calculate(tr, tr, 1.0, true))
}

func TestRigidShellCalculateDetectsRotation(t *testing.T) {
	m := RigidShell{}
	a := rigidmath.Identity()
	b := rigidmath.QVVTransform{Rotation: rigidmath.Quat{X: 0, Y: 0, Z: 1, W: 0}, Scale: rigidmath.Vector3One()}
	require.Greater(t, m.Calculate(a, b, 1.0, true), float32(0))
}

func TestComputeClipShellDistancesEmpty(t *testing.T) {
	require.Nil(t, ComputeClipShellDistances(&track.RawArray{}, nil))
}

func TestComputeClipShellDistancesIdentityClip(t *testing.T) {
	clip := identityClip(10, 1.0, 0.01)
	meta := ComputeClipShellDistances(clip, nil)
	require.Len(t, meta, 1)
	// An identity clip leaves every shell vertex at the shell radius.
	require.Equal(t, float32(1), meta[0].ParentShellDistance)
}

func TestComputeClipShellDistancesDominance(t *testing.T) {
	// Parent bone has a tiny shell; child bone has a large shell and a
	// large rotation, so it should dominate the parent's local shell
	// distance (S5).
	numSamples := 4
	parentSamples := make([]track.Sample, numSamples)
	childSamples := make([]track.Sample, numSamples)
	for i := 0; i < numSamples; i++ {
		parentSamples[i] = rigidmath.Identity()
		childSamples[i] = rigidmath.QVVTransform{
			Rotation: rigidmath.Quat{X: 0, Y: 0, Z: 0.7071, W: 0.7071},
			Scale:    rigidmath.Vector3One(),
		}
	}

	clip := &track.RawArray{
		SampleRate: 30,
		HasScale:   true,
		Tracks: []track.Track{
			{
				Desc: track.Description{
					ParentIndex:   track.InvalidTrackIndex,
					ShellDistance: 0.1,
					Precision:     0.01,
					OutputIndex:   0,
				},
				Samples: parentSamples,
			},
			{
				Desc: track.Description{
					ParentIndex:   0,
					ShellDistance: 2.0,
					Precision:     0.01,
					OutputIndex:   1,
				},
				Samples: childSamples,
			},
		},
	}

	meta := ComputeClipShellDistances(clip, nil)
	require.Len(t, meta, 2)
	require.InDelta(t, 2.0, float64(meta[0].LocalShellDistance), 1e-3)
}
