package compress

import (
	"animclip/pkg/blob"
	"animclip/pkg/format"
	"animclip/pkg/rigidmath"
)

// ExtractClipRanges computes the clip-wide min/extent of every animated
// sub-track (§4.4 "clip range"), over the whole (post-compaction,
// post-loop) working copy, in track-sorted output order.
func ExtractClipRanges(ctx *ClipContext, order *TrackOrder) [format.NumKinds][]blob.Range {
	var ranges [format.NumKinds][]blob.Range
	for kind := format.SubTrackKind(0); kind < format.NumKinds; kind++ {
		tracks := order.AnimatedTracks[kind]
		if len(tracks) == 0 {
			continue
		}
		ranges[kind] = make([]blob.Range, len(tracks))
		for i, trackIndex := range tracks {
			samples := make([]rigidmath.Vector3, ctx.NumSamples)
			for s := 0; s < ctx.NumSamples; s++ {
				samples[s] = componentOf(ctx.Working[trackIndex][s], kind)
			}
			ranges[kind][i] = blob.RangeOf(samples)
		}
	}
	return ranges
}

// clipNormalized returns trackIndex's kind component at sampleIndex, mapped
// into [0, 1] by the clip range (§4.4 "applied after clip range").
func clipNormalized(ctx *ClipContext, clipRange blob.Range, trackIndex, sampleIndex int, kind format.SubTrackKind) rigidmath.Vector3 {
	raw := componentOf(ctx.Working[trackIndex][sampleIndex], kind)
	return clipRange.Normalize(raw)
}
