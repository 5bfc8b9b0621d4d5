package compress

import (
	"fmt"

	"animclip/pkg/blob"
	"animclip/pkg/config"
	"animclip/pkg/format"
	"animclip/pkg/log"
	"animclip/pkg/rigidmath"
	"animclip/pkg/track"
)

// Compress runs the full pipeline over raw (and, for additive clips,
// additiveBase) and returns a serialized blob (§4.12: validates up front
// and refuses to produce a blob on any violation). logger may be nil, in
// which case diagnostics are discarded.
func Compress(raw, additiveBase *track.RawArray, settings config.CompressionSettings, logger *log.Logger) ([]byte, error) {
	if err := raw.Validate(); err != nil {
		return nil, fmt.Errorf("compress: invalid input: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("compress: %w: %w", track.ErrInvalidSettings, err)
	}
	if logger == nil {
		logger = log.NewDiscardLogger()
	}

	clone := cloneRawArray(raw)
	for i := range clone.Tracks {
		desc := &clone.Tracks[i].Desc
		if desc.Precision == 0 {
			desc.Precision = settings.DefaultPrecision
		}
		if desc.ShellDistance == 0 {
			desc.ShellDistance = settings.DefaultShellDistance
		}
	}
	ctx := NewClipContext(clone, additiveBase, settings, logger)

	DetectConstantAndDefault(ctx)

	if settings.EnableErrorCorrection {
		if ApplyErrorCorrection(ctx) {
			logger.Debug().Src("compact").Msg("error correction pass adjusted descendant samples")
		}
	}

	if OptimizeLooping(ctx) {
		logger.Info().Src("loop").Msg("clip declared wrap-looping, trailing sample dropped")
	}

	order := BuildTrackOrder(ctx)
	defaultBits, constantBits := order.buildBitsets(ctx)
	constantSamples := buildConstantSamples(ctx, order)
	clipRanges := ExtractClipRanges(ctx, order)

	windows := Segment(ctx.NumSamples, settings.IdealNumSamples, settings.MaxNumSamples)
	segmentStarts := make([]int, len(windows))
	segments := make([]blob.SegmentPlan, len(windows))
	for i, w := range windows {
		segmentStarts[i] = w.Start
		segments[i] = buildSegment(ctx, order, clipRanges, w)
	}

	numOutputTracks := len(order.SortedTracks)

	plan := &blob.Plan{
		NumTracks:           numOutputTracks,
		NumSamples:          ctx.NumSamples,
		SampleRate:          raw.SampleRate,
		AdditiveFormat:      raw.AdditiveFormat,
		HasScale:            raw.HasScale,
		LoopingPolicy:       ctx.LoopingPolicy,
		RotationFormat:      settings.RotationFormat,
		TranslationFormat:   settings.TranslationFormat,
		ScaleFormat:         settings.ScaleFormat,
		DefaultBits:         defaultBits,
		ConstantBits:        constantBits,
		ConstantSamples:     constantSamples,
		ClipRanges:          clipRanges,
		SegmentStartIndices: segmentStarts,
		Segments:            segments,
	}

	out, err := blob.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("compress: marshal: %w", err)
	}
	logger.Info().Src("writer").Msgf("wrote %d bytes, %d tracks, %d segments", len(out), numOutputTracks, len(segments))
	return out, nil
}

// cloneRawArray makes a deep-enough copy of raw so the looping optimizer's
// in-place sample truncation never mutates the caller's input.
func cloneRawArray(raw *track.RawArray) *track.RawArray {
	clone := &track.RawArray{
		SampleRate:     raw.SampleRate,
		AdditiveFormat: raw.AdditiveFormat,
		HasScale:       raw.HasScale,
		Tracks:         make([]track.Track, len(raw.Tracks)),
	}
	for i, tr := range raw.Tracks {
		samples := make([]rigidmath.QVVTransform, len(tr.Samples))
		copy(samples, tr.Samples)
		clone.Tracks[i] = track.Track{Desc: tr.Desc, Samples: samples}
	}
	return clone
}

// buildConstantSamples gathers one sample per constant-but-not-default
// sub-track, canonicalizing rotations to W >= 0 before dropping W (§6
// "Rotation samples store xyz only, already canonicalized to W >= 0").
func buildConstantSamples(ctx *ClipContext, order *TrackOrder) [format.NumKinds][]rigidmath.Vector3 {
	var out [format.NumKinds][]rigidmath.Vector3
	for kind := format.SubTrackKind(0); kind < format.NumKinds; kind++ {
		tracks := order.ConstantOnlyTracks[kind]
		if len(tracks) == 0 {
			continue
		}
		out[kind] = make([]rigidmath.Vector3, len(tracks))
		for i, trackIndex := range tracks {
			value := ctx.Working[trackIndex][0]
			if kind == format.KindRotation && value.Rotation.W < 0 {
				value.Rotation = rigidmath.Quat{X: -value.Rotation.X, Y: -value.Rotation.Y, Z: -value.Rotation.Z, W: -value.Rotation.W}
			}
			out[kind][i] = componentOf(value, kind)
		}
	}
	return out
}
