package compress

import (
	"sort"

	"animclip/pkg/format"
	"animclip/pkg/track"
)

// TrackOrder buckets a clip's tracks, per sub-track kind, into default,
// constant-only and animated groups, each sorted by output index — the
// order every per-kind slice in blob.Plan must agree on (§6 "track-sorted
// output order").
type TrackOrder struct {
	SortedTracks       []int
	DefaultTracks      [format.NumKinds][]int
	ConstantOnlyTracks [format.NumKinds][]int
	AnimatedTracks     [format.NumKinds][]int
}

// BuildTrackOrder groups ctx's tracks using the constant/default flags
// DetectConstantAndDefault already computed.
func BuildTrackOrder(ctx *ClipContext) *TrackOrder {
	sorted := make([]int, 0, len(ctx.Raw.Tracks))
	for i := range ctx.Raw.Tracks {
		if ctx.Raw.Tracks[i].Desc.OutputIndex == track.InvalidTrackIndex {
			continue
		}
		sorted = append(sorted, i)
	}
	sort.Slice(sorted, func(a, b int) bool {
		return ctx.Raw.Tracks[sorted[a]].Desc.OutputIndex < ctx.Raw.Tracks[sorted[b]].Desc.OutputIndex
	})

	order := &TrackOrder{SortedTracks: sorted}
	for kind := format.SubTrackKind(0); kind < format.NumKinds; kind++ {
		if kind == format.KindScale && !ctx.Raw.HasScale {
			continue
		}
		for _, trackIndex := range sorted {
			switch {
			case ctx.IsDefault[trackIndex][kind]:
				order.DefaultTracks[kind] = append(order.DefaultTracks[kind], trackIndex)
			case ctx.IsConstant[trackIndex][kind]:
				order.ConstantOnlyTracks[kind] = append(order.ConstantOnlyTracks[kind], trackIndex)
			default:
				order.AnimatedTracks[kind] = append(order.AnimatedTracks[kind], trackIndex)
			}
		}
	}
	return order
}

// buildBitsets builds the interleaved per-track bitsets Plan
// expects, using the stride implied by ctx.Raw.HasScale.
func (o *TrackOrder) buildBitsets(ctx *ClipContext) (defaultBits, constantBits []bool) {
	stride := 2
	if ctx.Raw.HasScale {
		stride = 3
	}
	numBits := len(o.SortedTracks) * stride
	defaultBits = make([]bool, numBits)
	constantBits = make([]bool, numBits)
	for _, trackIndex := range o.SortedTracks {
		outputIndex := int(ctx.Raw.Tracks[trackIndex].Desc.OutputIndex)
		for kind := format.SubTrackKind(0); kind < format.NumKinds; kind++ {
			if kind == format.KindScale && !ctx.Raw.HasScale {
				continue
			}
			bit := outputIndex*stride + int(kind)
			defaultBits[bit] = ctx.IsDefault[trackIndex][kind]
			constantBits[bit] = ctx.IsConstant[trackIndex][kind]
		}
	}
	return defaultBits, constantBits
}
