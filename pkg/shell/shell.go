// Package shell implements the rigid-shell object-space error metric that
// gates every lossy decision in the compressor (§4.1).
package shell

import (
	"math"

	"animclip/pkg/rigidmath"
	"animclip/pkg/track"
)

// Metadata is the per-bone shell state produced by ComputeClipShellDistances
// (§3 "Rigid-shell metadata").
type Metadata struct {
	// LocalShellDistance is the effective shell radius in this bone's
	// local space; it grows when a child bone dominates.
	LocalShellDistance float32

	// ParentShellDistance is the largest distance from the parent's
	// origin that any shell vertex reaches once this bone's local
	// transform is applied (the shell radius for an identity transform),
	// used to decide dominance over the parent.
	ParentShellDistance float32

	// Precision is the tightest precision requirement seen along the
	// dominant chain rooted at this bone.
	Precision float32
}

// ErrorMetric measures the maximum object-space displacement a rigid shell
// undergoes between two candidate transforms. The interface has no
// conversion method: Calculate always takes QVV transforms directly.
type ErrorMetric interface {
	// NeedsConversion reports whether the implementation would benefit
	// from a precomputed form of the transforms. Nothing in this module
	// converts transforms based on the answer.
	NeedsConversion(hasScale bool) bool

	// Calculate returns the maximum displacement, over the three shell
	// test vertices at distance shellDistance, between a and b.
	Calculate(a, b rigidmath.QVVTransform, shellDistance float32, hasScale bool) float32
}

// RigidShell is the default ErrorMetric: three axis-aligned test vertices at
// the shell radius, transformed by QVV multiply (§4.1).
type RigidShell struct{}

// NeedsConversion always returns false: RigidShell evaluates QVV transforms
// directly and never needs a precomputed form.
func (RigidShell) NeedsConversion(bool) bool { return false }

// Calculate implements ErrorMetric.
func (RigidShell) Calculate(a, b rigidmath.QVVTransform, shellDistance float32, hasScale bool) float32 {
	vertices := shellVertices(shellDistance)

	var maxDistance float32
	for _, v := range vertices {
		var pa, pb rigidmath.Vector3
		if hasScale {
			pa, pb = a.MulPoint3(v), b.MulPoint3(v)
		} else {
			pa, pb = a.MulPoint3NoScale(v), b.MulPoint3NoScale(v)
		}
		if d := rigidmath.Distance(pa, pb); d > maxDistance {
			maxDistance = d
		}
	}
	return maxDistance
}

func shellVertices(d float32) [3]rigidmath.Vector3 {
	return [3]rigidmath.Vector3{
		{X: d, Y: 0, Z: 0},
		{X: 0, Y: d, Z: 0},
		{X: 0, Y: 0, Z: d},
	}
}

// ComputeClipShellDistances runs the shell propagation algorithm of §4.1:
// leaf-to-root over the bone hierarchy, composing each bone's local raw
// samples (and, for additive clips, the matching base-clip sample) to
// determine how far that bone's shell travels, then bubbling dominance up
// to the parent. Returns nil if the clip has no bones or no samples.
//
// additiveBase may be nil for non-additive clips.
func ComputeClipShellDistances(clip *track.RawArray, additiveBase *track.RawArray) []Metadata {
	numTransforms := clip.NumTracks()
	numSamples := clip.NumSamples()
	if numTransforms == 0 || numSamples == 0 {
		return nil
	}

	metadata := make([]Metadata, numTransforms)
	for i := range clip.Tracks {
		metadata[i].LocalShellDistance = clip.Tracks[i].Desc.ShellDistance
		metadata[i].Precision = clip.Tracks[i].Desc.Precision
	}

	hasAdditiveBase := additiveBase != nil && additiveBase.NumTracks() > 0 && additiveBase.NumSamples() > 0

	order := track.SortedParentFirst(clip.Tracks)
	for i := len(order) - 1; i >= 0; i-- {
		transformIndex := order[i]
		desc := &clip.Tracks[transformIndex].Desc
		shell := &metadata[transformIndex]

		vertices := shellVertices(shell.LocalShellDistance)

		var parentShellDistance float32
		samples := clip.Tracks[transformIndex].Samples
		for sampleIndex, rawTransform := range samples {
			effective := rawTransform
			if hasAdditiveBase {
				baseTransform := sampleAdditiveBase(clip, additiveBase, transformIndex, sampleIndex)
				if clip.HasScale {
					effective = rigidmath.ApplyAdditiveToBase(clip.AdditiveFormat, baseTransform, rawTransform)
				} else {
					effective = rigidmath.ApplyAdditiveToBaseNoScale(clip.AdditiveFormat, baseTransform, rawTransform)
				}
			}

			for _, v := range vertices {
				var p rigidmath.Vector3
				if clip.HasScale {
					p = effective.MulPoint3(v)
				} else {
					p = effective.MulPoint3NoScale(v)
				}
				if d := p.Length(); d > parentShellDistance {
					parentShellDistance = d
				}
			}
		}

		shell.ParentShellDistance = parentShellDistance

		if shell.LocalShellDistance != desc.ShellDistance {
			// A dominant child already overwrote our local shell; we are
			// non-dominant and must budget for the error we introduce.
			shell.ParentShellDistance += desc.Precision
		}

		if desc.ParentIndex != track.InvalidTrackIndex {
			parentShell := &metadata[desc.ParentIndex]
			if shell.ParentShellDistance > parentShell.LocalShellDistance {
				parentShell.LocalShellDistance = shell.ParentShellDistance
				parentShell.Precision = shell.Precision
			}
		}
	}

	return metadata
}

// sampleAdditiveBase looks up the base clip's nearest sample for
// transformIndex at the object-space time of sampleIndex in clip, following
// the uniform-rate nearest-sample rule of §4.11.
func sampleAdditiveBase(clip, base *track.RawArray, transformIndex, sampleIndex int) rigidmath.QVVTransform {
	if transformIndex >= base.NumTracks() {
		return rigidmath.Identity()
	}

	clipDuration := clip.Duration()
	sampleTime := float32(sampleIndex) / clip.SampleRate
	if sampleTime > clipDuration {
		sampleTime = clipDuration
	}

	baseSamples := base.Tracks[transformIndex].Samples
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
