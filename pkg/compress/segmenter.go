package compress

// Window is one segment's sample range within the clip: samples
// [Start, Start+Count).
type Window struct {
	Start int
	Count int
}

// Segment splits numSamples samples into windows of close to
// idealNumSamples, never exceeding maxNumSamples (§4.6). Segmentation runs
// after compaction and looping so segment-local range extraction and the
// bit-rate search benefit from the narrower, already-compacted data.
func Segment(numSamples int, idealNumSamples, maxNumSamples uint32) []Window {
	if numSamples <= 0 {
		return nil
	}
	ideal := int(idealNumSamples)
	maxN := int(maxNumSamples)
	if ideal <= 0 {
		ideal = numSamples
	}
	if maxN < ideal {
		maxN = ideal
	}

	numSegments := (numSamples + ideal - 1) / ideal
	if numSegments == 0 {
		numSegments = 1
	}

	windows := make([]Window, 0, numSegments)
	start := 0
	for start < numSamples {
		count := ideal
		remaining := numSamples - start
		if count > remaining {
			count = remaining
		}
		if count > maxN {
			count = maxN
		}
		// Avoid stranding a tiny trailing segment: fold a short tail into
		// the previous window when it still fits the cap.
		if numSamples-(start+count) > 0 && numSamples-(start+count) < ideal/2 {
			tail := numSamples - start
			if tail <= maxN {
				count = tail
			}
		}
		windows = append(windows, Window{Start: start, Count: count})
		start += count
	}
	return windows
}
