// Package decompress implements the decompressor side of the format: a
// small state machine over a parsed blob (§4.8), time-based seeking
// (§4.8), sequential and random-access sub-track decoding (§4.9, §4.10).
package decompress

import "animclip/pkg/rigidmath"

// TrackWriter receives decompressed sub-track values as they're produced.
// DecompressTracks calls all three methods for every track; for a clip
// without scale, WriteScale receives Vector3One().
type TrackWriter interface {
	WriteRotation(trackIndex int, value rigidmath.Quat)
	WriteTranslation(trackIndex int, value rigidmath.Vector3)
	WriteScale(trackIndex int, value rigidmath.Vector3)
}

// DefaultProvider is an optional TrackWriter extension that supplies a
// track's bind pose for default sub-tracks (§4.8 step 1 "the writer
// supplies it via its variable-default hook"). A writer that doesn't
// implement it gets identity for default sub-tracks.
type DefaultProvider interface {
	DefaultRotation(trackIndex int) rigidmath.Quat
	DefaultTranslation(trackIndex int) rigidmath.Vector3
	DefaultScale(trackIndex int) rigidmath.Vector3
}

func defaultRotation(w TrackWriter, trackIndex int) rigidmath.Quat {
	if d, ok := w.(DefaultProvider); ok {
		return d.DefaultRotation(trackIndex)
	}
	return rigidmath.QuatIdentity()
}

func defaultTranslation(w TrackWriter, trackIndex int) rigidmath.Vector3 {
	if d, ok := w.(DefaultProvider); ok {
		return d.DefaultTranslation(trackIndex)
	}
	return rigidmath.Vector3Zero()
}

func defaultScale(w TrackWriter, trackIndex int) rigidmath.Vector3 {
	if d, ok := w.(DefaultProvider); ok {
		return d.DefaultScale(trackIndex)
	}
	return rigidmath.Vector3One()
}
