package compress

import (
	"math"

	"animclip/pkg/blob"
	"animclip/pkg/bitpack"
	"animclip/pkg/format"
	"animclip/pkg/rigidmath"
)

// buildSegment picks a bit rate for every animated sub-track of window and
// packs its normalized samples (§4.5), filling in the segment-local ranges
// (§4.4) each rate is measured against.
//
// The search evaluates each sub-track's candidate rate against this bone's
// own local rigid-shell test (the same one DetectConstantAndDefault uses)
// rather than a full hierarchy object-space reconstruction, and picks each
// sub-track's rate independently instead of iterating sub-tracks to a
// converged fixed point — a scope reduction from the coupled search this
// stage is modeled on, recorded in DESIGN.md.
func buildSegment(ctx *ClipContext, order *TrackOrder, clipRanges [format.NumKinds][]blob.Range, window Window) blob.SegmentPlan {
	seg := blob.SegmentPlan{NumSamples: window.Count}

	for kind := format.SubTrackKind(0); kind < format.NumKinds; kind++ {
		tracks := order.AnimatedTracks[kind]
		if len(tracks) == 0 {
			continue
		}

		clipNorm := make([][]rigidmath.Vector3, len(tracks))
		for i, trackIndex := range tracks {
			row := make([]rigidmath.Vector3, window.Count)
			for s := 0; s < window.Count; s++ {
				row[s] = clipNormalized(ctx, clipRanges[kind][i], trackIndex, window.Start+s, kind)
			}
			clipNorm[i] = row
		}

		ranges := make([]blob.Range, len(tracks))
		segNorm := make([][]rigidmath.Vector3, len(tracks))
		for i := range tracks {
			// Snap the range to the 8-bit min/extent the blob stores (min
			// rounded down, min+extent rounded up) so the bit-rate search
			// and the decoder normalize against the same range.
			exact := blob.RangeOf(clipNorm[i])
			snap := func(min, extent float32) (float32, float32) {
				lo := math.Max(0, math.Floor(float64(min)*255))
				hi := math.Min(255, math.Max(lo, math.Ceil(float64(min+extent)*255)))
				return float32(lo) / 255, float32(hi-lo) / 255
			}
			ranges[i].Min.X, ranges[i].Extent.X = snap(exact.Min.X, exact.Extent.X)
			ranges[i].Min.Y, ranges[i].Extent.Y = snap(exact.Min.Y, exact.Extent.Y)
			ranges[i].Min.Z, ranges[i].Extent.Z = snap(exact.Min.Z, exact.Extent.Z)
			row := make([]rigidmath.Vector3, window.Count)
			for s := 0; s < window.Count; s++ {
				row[s] = ranges[i].Normalize(clipNorm[i][s])
			}
			segNorm[i] = row
		}

		rates := make([]format.BitRate, len(tracks))
		values := make([][]rigidmath.Vector3, window.Count)
		for s := range values {
			values[s] = make([]rigidmath.Vector3, len(tracks))
		}

		for i, trackIndex := range tracks {
			rate := format.BitRateRaw
			if !ctx.rawFormatFor(kind) {
				rate = selectBitRate(ctx, trackIndex, kind, window, clipRanges[kind][i], ranges[i], segNorm[i])
			}
			rates[i] = rate

			for s := 0; s < window.Count; s++ {
				if rate == format.BitRateRaw {
					values[s][i] = componentOf(ctx.Working[trackIndex][window.Start+s], kind)
					continue
				}
				values[s][i] = segNorm[i][s]
			}
		}

		seg.BitRates[kind] = rates
		seg.Ranges[kind] = ranges
		seg.NormalizedSamples[kind] = values
	}

	return seg
}

// selectBitRate tries every intermediate rate from lowest to highest and
// returns the first that keeps every sample's reconstructed local sample
// within this bone's shell precision, falling back to raw (§4.5).
func selectBitRate(
	ctx *ClipContext,
	trackIndex int,
	kind format.SubTrackKind,
	window Window,
	clipRange, segRange blob.Range,
	segNorm []rigidmath.Vector3,
) format.BitRate {
	shellMeta := &ctx.Shell[trackIndex]

	for rate := format.LowestIntermediateBitRate; rate <= format.HighestIntermediateBitRate; rate++ {
		numBits := format.NumBitsAtBitRate(rate)
		ok := true
		for s := 0; s < window.Count; s++ {
			reconstructedSeg := dequantizeVec3(quantizeVec3(segNorm[s], numBits), numBits)
			reconstructedClipNorm := segRange.Denormalize(reconstructedSeg)
			reconstructed := clipRange.Denormalize(reconstructedClipNorm)

			trial := withComponent(ctx.Working[trackIndex][window.Start+s], kind, reconstructed)
			raw := ctx.Raw.Tracks[trackIndex].Samples[window.Start+s]
			if errorMetric.Calculate(trial, raw, shellMeta.LocalShellDistance, ctx.Raw.HasScale) > shellMeta.Precision {
				ok = false
				break
			}
		}
		if ok {
			return rate
		}
	}
	return format.BitRateRaw
}

func quantizeVec3(v rigidmath.Vector3, numBits uint8) rigidmath.Vector3 {
	return rigidmath.Vector3{
		X: float32(bitpack.Quantize(v.X, numBits)),
		Y: float32(bitpack.Quantize(v.Y, numBits)),
		Z: float32(bitpack.Quantize(v.Z, numBits)),
	}
}

func dequantizeVec3(packed rigidmath.Vector3, numBits uint8) rigidmath.Vector3 {
	return rigidmath.Vector3{
		X: bitpack.Dequantize(uint32(packed.X), numBits),
		Y: bitpack.Dequantize(uint32(packed.Y), numBits),
		Z: bitpack.Dequantize(uint32(packed.Z), numBits),
	}
}
