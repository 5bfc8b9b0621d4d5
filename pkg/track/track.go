// Package track defines the raw, uniformly-sampled transform track arrays
// that feed the compressor, and the per-track description that drives every
// lossy decision downstream (§3).
package track

import (
	"errors"
	"fmt"

	"animclip/pkg/rigidmath"
)

// InvalidTrackIndex marks a parent index with no parent, or an output index
// for a track that should be stripped from the compressed blob.
const InvalidTrackIndex = ^uint32(0)

// Description carries the per-bone metadata that is not itself animated
// data: hierarchy, precision budget and bind pose (§3).
type Description struct {
	// ParentIndex is the index of this track's parent in the same array,
	// or InvalidTrackIndex for a root bone.
	ParentIndex uint32

	// Precision is the maximum allowed object-space error, in the same
	// linear units as sample translations.
	Precision float32

	// ShellDistance is the radius of the virtual rigid shell used to
	// measure object-space error for this bone (§4.1).
	ShellDistance float32

	// DefaultValue is the bind pose used for default-sub-track detection
	// and for decompression writers that request variable defaults.
	DefaultValue rigidmath.QVVTransform

	// OutputIndex is the position this track occupies in the compressed
	// blob's track order, or InvalidTrackIndex to strip it entirely.
	OutputIndex uint32
}

// Sample is one rigid transform sample of a track.
type Sample = rigidmath.QVVTransform

// Track is one bone's raw, uniformly sampled transform track.
type Track struct {
	Desc    Description
	Samples []Sample
}

// RawArray is an array of raw tracks sharing a sample count and rate (§3).
type RawArray struct {
	Tracks []Track

	// SampleRate is in samples per second. All tracks share it.
	SampleRate float32

	// AdditiveFormat describes how this clip composes onto a base clip at
	// playback (§4.11). AdditiveNone for non-additive clips.
	AdditiveFormat rigidmath.AdditiveFormat

	// HasScale reports whether scale sub-tracks carry meaningful data.
	// When false every scale sample is assumed to be Vector3One().
	HasScale bool
}

// NumTracks returns the number of tracks in the array.
func (a *RawArray) NumTracks() int { return len(a.Tracks) }

// NumSamples returns the shared sample count, or 0 for an empty array.
func (a *RawArray) NumSamples() int {
	if len(a.Tracks) == 0 {
		return 0
	}
	return len(a.Tracks[0].Samples)
}

// Duration returns the clip duration in seconds: (NumSamples-1)/SampleRate,
// or 0 when there are fewer than 2 samples.
func (a *RawArray) Duration() float32 {
	n := a.NumSamples()
	if n < 2 || a.SampleRate <= 0 {
		return 0
	}
	return float32(n-1) / a.SampleRate
}

var (
	// ErrInvalidInput is returned when compression input fails validation
	// (§7): bad sample count, non-finite sample, invalid parent index,
	// duplicate or non-contiguous output indices.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSettings is returned, wrapped, by compress.Compress when
	// the compression settings fail validation, e.g. an ideal segment size
	// larger than the maximum.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrUnsupported is returned for a combination of inputs this
	// implementation does not support, e.g. an additive format on a
	// non-transform track type.
	ErrUnsupported = errors.New("unsupported")
)

// Validate checks the invariants listed in §3 and §4.12: consistent sample
// count and rate, finite samples, in-range acyclic parent indices, and a
// unique, contiguous set of output indices over non-stripped tracks.
func (a *RawArray) Validate() error {
	numTracks := len(a.Tracks)
	if numTracks == 0 {
		return nil
	}

	numSamples := len(a.Tracks[0].Samples)
	if numSamples == 0 {
		return fmt.Errorf("track array has zero samples: %w", ErrInvalidInput)
	}
	if a.SampleRate <= 0 {
		return fmt.Errorf("sample rate %v is not positive: %w", a.SampleRate, ErrInvalidInput)
	}

	outputIndices := make(map[uint32]int)
	for trackIndex := range a.Tracks {
		tr := &a.Tracks[trackIndex]

		if len(tr.Samples) != numSamples {
			return fmt.Errorf("track %d has %d samples, expected %d: %w",
				trackIndex, len(tr.Samples), numSamples, ErrInvalidInput)
		}

		for sampleIndex, sample := range tr.Samples {
			if !sample.IsFinite() {
				return fmt.Errorf("track %d sample %d is not finite: %w",
					trackIndex, sampleIndex, ErrInvalidInput)
			}
		}

		if tr.Desc.ParentIndex != InvalidTrackIndex {
			if tr.Desc.ParentIndex >= uint32(numTracks) {
				return fmt.Errorf("track %d parent index %d out of range: %w",
					trackIndex, tr.Desc.ParentIndex, ErrInvalidInput)
			}
			if tr.Desc.ParentIndex == uint32(trackIndex) {
				return fmt.Errorf("track %d is its own parent: %w", trackIndex, ErrInvalidInput)
			}
		}

		if tr.Desc.OutputIndex != InvalidTrackIndex {
			if prev, ok := outputIndices[tr.Desc.OutputIndex]; ok {
				return fmt.Errorf("tracks %d and %d share output index %d: %w",
					prev, trackIndex, tr.Desc.OutputIndex, ErrInvalidInput)
			}
			outputIndices[tr.Desc.OutputIndex] = trackIndex
		}
	}

	if err := checkAcyclic(a.Tracks); err != nil {
		return err
	}

	for i := 0; i < len(outputIndices); i++ {
		if _, ok := outputIndices[uint32(i)]; !ok {
			return fmt.Errorf("output indices are not contiguous, missing %d: %w", i, ErrInvalidInput)
		}
	}

	return nil
}

func checkAcyclic(tracks []Track) error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make([]uint8, len(tracks))

	var visit func(i uint32) error
	visit = func(i uint32) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("parent chain starting at track %d has a cycle: %w", i, ErrInvalidInput)
		}
		state[i] = visiting
		parent := tracks[i].Desc.ParentIndex
		if parent != InvalidTrackIndex {
			if err := visit(parent); err != nil {
				return err
			}
		}
		state[i] = done
		return nil
	}

	for i := range tracks {
		if err := visit(uint32(i)); err != nil {
			return err
		}
	}
	return nil
}

// SortedParentFirst returns track indices ordered so that every track
// appears after its parent (§3: "parent-first sort order of transform
// indices"). The order among siblings is stable by original index.
func SortedParentFirst(tracks []Track) []uint32 {
	depth := make([]int, len(tracks))
	var depthOf func(i uint32) int
	depthOf = func(i uint32) int {
		if depth[i] != 0 {
			return depth[i]
		}
		parent := tracks[i].Desc.ParentIndex
		if parent == InvalidTrackIndex {
			depth[i] = 1
			return 1
		}
		depth[i] = depthOf(parent) + 1
		return depth[i]
	}

	order := make([]uint32, len(tracks))
	for i := range tracks {
		order[i] = uint32(i)
		depthOf(uint32(i))
	}

	// Stable sort by depth keeps roots first without disturbing sibling
	// order, which is all parent-first traversal requires.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && depth[order[j-1]] > depth[order[j]]; j-- {
			order[j-1], order[j] = order[j], order[j-1]
		}
	}
	return order
}
