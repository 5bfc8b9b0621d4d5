package compress

import (
	"animclip/pkg/format"
	"animclip/pkg/rigidmath"
	"animclip/pkg/shell"
	"animclip/pkg/track"
)

// DetectConstantAndDefault runs the per-sub-track constant/default tests of
// §4.2: a sub-track is constant iff substituting every sample with the
// first sample keeps the rigid-shell error within precision at every
// sample (compared against the original raw sample, not the working copy);
// default iff the same holds substituting the description's bind value.
// Default implies constant. Passing sub-tracks are collapsed in Working to
// their single surviving value.
func DetectConstantAndDefault(ctx *ClipContext) {
	for trackIndex := range ctx.Raw.Tracks {
		desc := &ctx.Raw.Tracks[trackIndex].Desc
		shellMeta := &ctx.Shell[trackIndex]
		samples := ctx.Raw.Tracks[trackIndex].Samples
		working := ctx.Working[trackIndex]

		for kind := format.SubTrackKind(0); kind < format.NumKinds; kind++ {
			if kind == format.KindScale && !ctx.Raw.HasScale {
				continue
			}
			if len(samples) == 0 {
				continue
			}

			rawFormat := ctx.rawFormatFor(kind)

			candidate := componentOf(working[0], kind)
			if passesTolerance(working, samples, kind, candidate, shellMeta, rawFormat, ctx.Raw.HasScale) {
				ctx.IsConstant[trackIndex][kind] = true
				fillComponent(working, kind, candidate)
			}

			bindValue := componentOf(desc.DefaultValue, kind)
			if passesTolerance(working, samples, kind, bindValue, shellMeta, rawFormat, ctx.Raw.HasScale) {
				ctx.IsDefault[trackIndex][kind] = true
				ctx.IsConstant[trackIndex][kind] = true
				fillComponent(working, kind, bindValue)
			}
		}
	}
}

// passesTolerance reports whether replacing kind's component with candidate
// in every working sample stays within precision of the corresponding raw
// sample, under the rigid-shell metric evaluated in this bone's local
// space. Raw formats compare component-wise equality instead, since they
// carry no tolerance.
func passesTolerance(
	working, samples []rigidmath.QVVTransform,
	kind format.SubTrackKind,
	candidate rigidmath.Vector3,
	shellMeta *shell.Metadata,
	rawFormat bool,
	hasScale bool,
) bool {
	for s := range samples {
		if rawFormat {
			if componentOf(samples[s], kind) != candidate {
				return false
			}
			continue
		}
		trial := withComponent(working[s], kind, candidate)
		if errorMetric.Calculate(trial, samples[s], shellMeta.LocalShellDistance, hasScale) > shellMeta.Precision {
			return false
		}
	}
	return true
}

// fillComponent overwrites kind's component in every sample of working with
// value.
func fillComponent(working []rigidmath.QVVTransform, kind format.SubTrackKind, value rigidmath.Vector3) {
	for s := range working {
		working[s] = withComponent(working[s], kind, value)
	}
}

// ApplyErrorCorrection runs the optional post-compaction correction pass
// (§4.2): for every sample, in parent-first order, an animated descendant's
// local sample is replaced by the one that, composed with the
// already-compacted ancestor chain, reproduces the original object-space
// pose. It corrects rotation, then translation, then scale, since
// translation correction needs the ancestor's already-corrected rotation.
// Callers should re-extract ranges afterward since Working changed.
func ApplyErrorCorrection(ctx *ClipContext) bool {
	changed := false
	for trackIndex := range ctx.Raw.Tracks {
		for kind := format.SubTrackKind(0); kind < format.NumKinds; kind++ {
			if ctx.IsConstant[trackIndex][kind] {
				changed = true
			}
		}
	}
	if !changed {
		return false
	}

	numSamples := ctx.NumSamples
	numTracks := len(ctx.Raw.Tracks)
	oldObjectSpace := make([]rigidmath.QVVTransform, numTracks)
	newObjectSpace := make([]rigidmath.QVVTransform, numTracks)

	corrected := false
	for s := 0; s < numSamples; s++ {
		for _, trackIndex := range ctx.Order {
			desc := &ctx.Raw.Tracks[trackIndex].Desc
			parent := desc.ParentIndex
			rawSample := ctx.Raw.Tracks[trackIndex].Samples[s]

			if parent == track.InvalidTrackIndex {
				oldObjectSpace[trackIndex] = rawSample
				newObjectSpace[trackIndex] = ctx.Working[trackIndex][s]
				continue
			}

			if ctx.Raw.HasScale {
				oldObjectSpace[trackIndex] = rigidmath.Mul(rawSample, oldObjectSpace[parent])
			} else {
				oldObjectSpace[trackIndex] = rigidmath.MulNoScale(rawSample, oldObjectSpace[parent])
			}

			local := ctx.Working[trackIndex][s]
			for _, kind := range []format.SubTrackKind{format.KindRotation, format.KindTranslation, format.KindScale} {
				if kind == format.KindScale && !ctx.Raw.HasScale {
					continue
				}
				if ctx.IsConstant[trackIndex][kind] {
					continue
				}
				wanted := localFromObjectSpace(oldObjectSpace[trackIndex], newObjectSpace[parent], ctx.Raw.HasScale)
				if q := wanted.Rotation; q.W < 0 {
					wanted.Rotation = rigidmath.Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
				}
				local = withComponent(local, kind, componentOf(wanted, kind))
				corrected = true
			}
			ctx.Working[trackIndex][s] = local

			if ctx.Raw.HasScale {
				newObjectSpace[trackIndex] = rigidmath.Mul(local, newObjectSpace[parent])
			} else {
				newObjectSpace[trackIndex] = rigidmath.MulNoScale(local, newObjectSpace[parent])
			}
		}
	}
	return corrected
}

// localFromObjectSpace is the algebraic inverse of rigidmath.Mul: given an
// object-space transform and its parent's object-space transform, it
// returns the local transform that composes to it.
func localFromObjectSpace(objectSpace, parent rigidmath.QVVTransform, hasScale bool) rigidmath.QVVTransform {
	parentInv := parent.Rotation.Conjugate()
	rotation := rigidmath.QuatMul(parentInv, objectSpace.Rotation)

	if !hasScale {
		translation := parentInv.RotateVector3(objectSpace.Translation.Sub(parent.Translation))
		return rigidmath.QVVTransform{Rotation: rotation, Translation: translation, Scale: rigidmath.Vector3One()}
	}

	translation := parentInv.RotateVector3(objectSpace.Translation.Sub(parent.Translation)).Div(parent.Scale)
	scale := objectSpace.Scale.Div(parent.Scale)
	return rigidmath.QVVTransform{Rotation: rotation, Translation: translation, Scale: scale}
}
