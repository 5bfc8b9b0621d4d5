package track

import (
	"testing"

	"animclip/pkg/rigidmath"
	"github.com/stretchr/testify/require"
)

func sampleArray(numSamples int) *RawArray {
	samples := make([]Sample, numSamples)
	for i := range samples {
		samples[i] = rigidmath.Identity()
	}
	return &RawArray{
		SampleRate: 30,
		Tracks: []Track{
			{
				Desc:    Description{ParentIndex: InvalidTrackIndex, OutputIndex: 0, DefaultValue: rigidmath.Identity()},
				Samples: append([]Sample(nil), samples...),
			},
		},
	}
}

func TestValidateAcceptsSimpleArray(t *testing.T) {
	require.NoError(t, sampleArray(10).Validate())
}

func TestValidateRejectsNonFiniteSample(t *testing.T) {
	a := sampleArray(4)
	a.Tracks[0].Samples[2].Translation.X = float32(1) / float32(0) // +Inf

	err := a.Validate()
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateRejectsBadParentIndex(t *testing.T) {
	a := sampleArray(4)
	a.Tracks[0].Desc.ParentIndex = 5

	err := a.Validate()
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateRejectsSelfParent(t *testing.T) {
	a := sampleArray(4)
	a.Tracks[0].Desc.ParentIndex = 0

	err := a.Validate()
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateRejectsDuplicateOutputIndex(t *testing.T) {
	a := sampleArray(4)
	a.Tracks = append(a.Tracks, a.Tracks[0])

	err := a.Validate()
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateRejectsNonContiguousOutputIndex(t *testing.T) {
	a := sampleArray(4)
	a.Tracks = append(a.Tracks, Track{
		Desc:    Description{ParentIndex: InvalidTrackIndex, OutputIndex: 2, DefaultValue: rigidmath.Identity()},
		Samples: a.Tracks[0].Samples,
	})

	err := a.Validate()
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateAllowsStrippedTracks(t *testing.T) {
	a := sampleArray(4)
	a.Tracks = append(a.Tracks, Track{
		Desc:    Description{ParentIndex: InvalidTrackIndex, OutputIndex: InvalidTrackIndex, DefaultValue: rigidmath.Identity()},
		Samples: a.Tracks[0].Samples,
	})
	a.Tracks = append(a.Tracks, Track{
		Desc:    Description{ParentIndex: InvalidTrackIndex, OutputIndex: 1, DefaultValue: rigidmath.Identity()},
		Samples: a.Tracks[0].Samples,
	})

	require.NoError(t, a.Validate())
}

func TestSortedParentFirst(t *testing.T) {
	tracks := []Track{
		{Desc: Description{ParentIndex: 2}},
		{Desc: Description{ParentIndex: 0}},
		{Desc: Description{ParentIndex: InvalidTrackIndex}},
	}

	order := SortedParentFirst(tracks)

	pos := map[uint32]int{}
	for i, idx := range order {
		pos[idx] = i
	}

	require.Less(t, pos[2], pos[0])
	require.Less(t, pos[0], pos[1])
}
