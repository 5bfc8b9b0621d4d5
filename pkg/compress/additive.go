package compress

import (
	"math"

	"animclip/pkg/rigidmath"
	"animclip/pkg/track"
)

// additiveBaseSample looks up base's nearest sample for trackIndex at the
// object-space time of sampleIndex in clip, the same uniform-rate
// nearest-sample rule shell.ComputeClipShellDistances uses (§4.11).
func additiveBaseSample(clip, base *track.RawArray, trackIndex, sampleIndex int) rigidmath.QVVTransform {
	if trackIndex >= base.NumTracks() {
		return rigidmath.Identity()
	}

	clipDuration := clip.Duration()
	sampleTime := float32(sampleIndex) / clip.SampleRate
	if sampleTime > clipDuration {
		sampleTime = clipDuration
	}

	baseSamples := base.Tracks[trackIndex].Samples
	if len(baseSamples) <= 1 {
		if len(baseSamples) == 1 {
			return baseSamples[0]
		}
		return rigidmath.Identity()
	}

	baseDuration := base.Duration()
	var normalizedTime float32
	if clipDuration > 0 {
		normalizedTime = sampleTime / clipDuration
	}
	additiveSampleTime := normalizedTime * baseDuration

	baseSampleIndex := int(math.Round(float64(additiveSampleTime * base.SampleRate)))
	if baseSampleIndex < 0 {
		baseSampleIndex = 0
	}
	if baseSampleIndex >= len(baseSamples) {
		baseSampleIndex = len(baseSamples) - 1
	}
	return baseSamples[baseSampleIndex]
}

// applyAdditive composes an additive sample onto its base sample for error
// measurement (§4.11).
func applyAdditive(additiveFormat rigidmath.AdditiveFormat, base, additive rigidmath.QVVTransform, hasScale bool) rigidmath.QVVTransform {
	if hasScale {
		return rigidmath.ApplyAdditiveToBase(additiveFormat, base, additive)
	}
	return rigidmath.ApplyAdditiveToBaseNoScale(additiveFormat, base, additive)
}
