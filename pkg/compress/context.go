// Package compress implements the compression pipeline: constant/default
// compaction, the looping optimizer, range extraction, the bit-rate
// selector, segmentation and the final blob writer (§4.2-§4.7).
package compress

import (
	"animclip/pkg/config"
	"animclip/pkg/format"
	"animclip/pkg/log"
	"animclip/pkg/rigidmath"
	"animclip/pkg/shell"
	"animclip/pkg/track"
)

// ClipContext holds everything the pipeline's stages read and mutate for one
// clip: the untouched raw input, the rigid-shell metadata computed from it,
// and a lossy working copy that compaction, correction and the bit-rate
// selector progressively narrow (§3 "Clip context").
type ClipContext struct {
	Raw          *track.RawArray
	AdditiveBase *track.RawArray
	Settings     config.CompressionSettings
	Logger       *log.Logger

	// Shell is per-track rigid-shell metadata, indexed like Raw.Tracks.
	Shell []shell.Metadata

	// Order lists track indices parent-first (§3).
	Order []uint32

	// Working is a mutable copy of Raw's samples, indexed [trackIndex][sampleIndex],
	// that compaction and error correction update in place.
	Working [][]rigidmath.QVVTransform

	// IsDefault and IsConstant are indexed [trackIndex][kind], set by
	// DetectConstantAndDefault.
	IsDefault  [][format.NumKinds]bool
	IsConstant [][format.NumKinds]bool

	// LoopingPolicy is set by the looping optimizer (§4.3); NumSamples
	// reflects the post-loop-optimization sample count (one less than
	// len(Raw.Tracks[i].Samples) when looping was applied).
	LoopingPolicy format.LoopingPolicy
	NumSamples    int
}

// NewClipContext builds a ClipContext: computes rigid-shell metadata,
// the parent-first traversal order, and a working copy seeded from the raw
// samples with every rotation flipped to W >= 0, so that it survives the
// drop-W storage unchanged (§3, §4.1).
func NewClipContext(raw, additiveBase *track.RawArray, settings config.CompressionSettings, logger *log.Logger) *ClipContext {
	working := make([][]rigidmath.QVVTransform, len(raw.Tracks))
	for i, tr := range raw.Tracks {
		samples := make([]rigidmath.QVVTransform, len(tr.Samples))
		copy(samples, tr.Samples)
		for s := range samples {
			if q := samples[s].Rotation; q.W < 0 {
				samples[s].Rotation = rigidmath.Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
			}
		}
		working[i] = samples
	}

	return &ClipContext{
		Raw:           raw,
		AdditiveBase:  additiveBase,
		Settings:      settings,
		Logger:        logger,
		Shell:         shell.ComputeClipShellDistances(raw, additiveBase),
		Order:         track.SortedParentFirst(raw.Tracks),
		Working:       working,
		IsDefault:     make([][format.NumKinds]bool, len(raw.Tracks)),
		IsConstant:    make([][format.NumKinds]bool, len(raw.Tracks)),
		LoopingPolicy: format.LoopingPolicyNonLooping,
		NumSamples:    raw.NumSamples(),
	}
}

// componentOf extracts the named kind's value out of a full transform.
func componentOf(t rigidmath.QVVTransform, kind format.SubTrackKind) rigidmath.Vector3 {
	switch kind {
	case format.KindTranslation:
		return t.Translation
	case format.KindScale:
		return t.Scale
	default:
		return rigidmath.Vector3{X: t.Rotation.X, Y: t.Rotation.Y, Z: t.Rotation.Z}
	}
}

// withComponent returns t with the named kind's value replaced by v. For
// rotation, w is reconstructed with a positive sign the way the wire format
// does, since every rotation this pipeline produces is stored drop-W.
func withComponent(t rigidmath.QVVTransform, kind format.SubTrackKind, v rigidmath.Vector3) rigidmath.QVVTransform {
	switch kind {
	case format.KindTranslation:
		t.Translation = v
	case format.KindScale:
		t.Scale = v
	default:
		t.Rotation = rigidmath.Quat{X: v.X, Y: v.Y, Z: v.Z, W: rigidmath.ReconstructW(v.X, v.Y, v.Z)}
	}
	return t
}

// rawFormatFor reports whether the configured format for kind bypasses
// tolerance-based comparisons in favor of exact equality (§4.2 "raw ...
// no tolerance").
func (c *ClipContext) rawFormatFor(kind format.SubTrackKind) bool {
	switch kind {
	case format.KindRotation:
		return c.Settings.RotationFormat.IsRaw()
	case format.KindScale:
		return c.Settings.ScaleFormat.IsRaw()
	default:
		return c.Settings.TranslationFormat.IsRaw()
	}
}

// errorMetric is the shell metric every stage measures precision against.
var errorMetric shell.ErrorMetric = shell.RigidShell{}
