package compress

import (
	"animclip/pkg/format"
	"animclip/pkg/rigidmath"
)

// OptimizeLooping implements §4.3: if the first and last samples of every
// bone produce object-space error within precision under the shell metric
// (composing the additive base when applicable), the clip is declared
// wrap-looping and its last sample is dropped. Refuses (no change, no
// error) when there are fewer than 2 samples, when every channel's format
// is raw (the caller asked for reference fidelity), when the clip is
// already wrap policy, or when there are no bones.
func OptimizeLooping(ctx *ClipContext) bool {
	if ctx.NumSamples < 2 {
		return false
	}
	if ctx.LoopingPolicy == format.LoopingPolicyWrap {
		return false
	}
	if len(ctx.Raw.Tracks) == 0 {
		return false
	}
	if ctx.Settings.RotationFormat.IsRaw() && ctx.Settings.TranslationFormat.IsRaw() && ctx.Settings.ScaleFormat.IsRaw() {
		return false
	}

	lastSample := ctx.NumSamples - 1
	for trackIndex := range ctx.Raw.Tracks {
		shellMeta := &ctx.Shell[trackIndex]
		first := ctx.effectiveSample(trackIndex, 0)
		last := ctx.effectiveSample(trackIndex, lastSample)
		if errorMetric.Calculate(first, last, shellMeta.LocalShellDistance, ctx.Raw.HasScale) > shellMeta.Precision {
			return false
		}
	}

	for trackIndex := range ctx.Raw.Tracks {
		ctx.Working[trackIndex] = ctx.Working[trackIndex][:lastSample]
		ctx.Raw.Tracks[trackIndex].Samples = ctx.Raw.Tracks[trackIndex].Samples[:lastSample]
	}
	ctx.NumSamples = lastSample
	ctx.LoopingPolicy = format.LoopingPolicyWrap
	return true
}

// effectiveSample returns the raw sample composed onto the additive base at
// the matching time, or the raw sample itself for non-additive clips
// (§4.11). It's only used for the looping test, which wants object-space
// error against the clip as it will actually be played back.
func (c *ClipContext) effectiveSample(trackIndex, sampleIndex int) rigidmath.QVVTransform {
	rawSample := c.Raw.Tracks[trackIndex].Samples[sampleIndex]
	if c.AdditiveBase == nil || c.AdditiveBase.NumTracks() == 0 {
		return rawSample
	}
	base := additiveBaseSample(c.Raw, c.AdditiveBase, trackIndex, sampleIndex)
	if c.Raw.HasScale {
		return applyAdditive(c.Raw.AdditiveFormat, base, rawSample, true)
	}
	return applyAdditive(c.Raw.AdditiveFormat, base, rawSample, false)
}
