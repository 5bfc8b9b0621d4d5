package decompress

import (
	"fmt"
	"sort"

	"animclip/pkg/blob"
	"animclip/pkg/format"
)

// Seek computes the two keyframes bracketing time t and interpolation
// weight alpha, maps them to their segments, and transitions to Seeked
// (§4.8 "Seek algorithm").
func (c *Context) Seek(t float32, rounding RoundingPolicy) error {
	if c.state == stateUninitialized {
		return ErrNotBound
	}

	duration := clipDuration(c.reader)
	if c.settings.ClampTime {
		if t < 0 {
			t = 0
		}
		if t > duration {
			t = duration
		}
	} else if t < 0 || t > duration {
		return fmt.Errorf("decompress: seek time %v outside [0, %v]", t, duration)
	}

	key0, key1, alpha := findLinearInterpolationSamples(t, c.reader, rounding)

	seg0, local0, err := findSegment(c.reader, key0)
	if err != nil {
		return fmt.Errorf("decompress: seek: %w", err)
	}
	seg1, local1, err := findSegment(c.reader, key1)
	if err != nil {
		return fmt.Errorf("decompress: seek: %w", err)
	}

	c.key0, c.key1, c.alpha = key0, key1, alpha
	c.segment0, c.localKey0 = seg0, local0
	c.segment1, c.localKey1 = seg1, local1
	c.state = stateSeeked
	return nil
}

// clipDuration is (NumSamples-1)/SampleRate for a non-looping clip; a
// wrap-looping clip's sample NumSamples aliases sample 0, so it spans one
// extra implicit sample.
func clipDuration(r *blob.Reader) float32 {
	if r.NumSamples <= 1 || r.SampleRate <= 0 {
		return 0
	}
	if r.LoopingPolicy == format.LoopingPolicyWrap {
		return float32(r.NumSamples) / r.SampleRate
	}
	return float32(r.NumSamples-1) / r.SampleRate
}

// findLinearInterpolationSamples maps a clip time to a (key0, key1, alpha)
// triple, honoring rounding and the wrap looping policy (§4.8, GLOSSARY
// "Wrap policy").
func findLinearInterpolationSamples(t float32, r *blob.Reader, rounding RoundingPolicy) (int, int, float32) {
	sampleTime := t * r.SampleRate
	key0 := int(sampleTime)
	alpha := sampleTime - float32(key0)

	numSamples := r.NumSamples
	looping := r.LoopingPolicy == format.LoopingPolicyWrap

	if key0 >= numSamples-1 && !looping {
		key0 = numSamples - 1
		alpha = 0
	}

	key1 := key0 + 1
	if key1 >= numSamples {
		if looping {
			key1 = 0
		} else {
			key1 = numSamples - 1
			alpha = 0
		}
	}

	switch rounding {
	case RoundFloor:
		alpha = 0
	case RoundCeil:
		alpha = 1
	case RoundNearest:
		if alpha >= 0.5 {
			alpha = 1
		} else {
			alpha = 0
		}
	}

	return key0, key1, alpha
}

// findSegment returns the segment index owning clip-level keyframe key and
// key's index local to that segment, via a binary search over segment
// start indices rather than the approximate-probe-then-scan the original
// cache layout is optimized for (§4.8) — a simplification recorded in
// DESIGN.md.
func findSegment(r *blob.Reader, key int) (segmentIndex, localKey int, err error) {
	segments := r.Segments
	if len(segments) == 0 {
		return 0, 0, fmt.Errorf("blob has no segments")
	}
	i := sort.Search(len(segments), func(i int) bool {
		return segments[i].StartSample > key
	}) - 1
	if i < 0 {
		i = 0
	}
	if i >= len(segments) {
		i = len(segments) - 1
	}
	return i, key - segments[i].StartSample, nil
}
