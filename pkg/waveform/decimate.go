package waveform

// Peak is the min/max pair representing one display segment.
type Peak struct {
	Min float32
	Max float32
}

// SegmentCount returns the number of display segments for a canvas:
// one vertical stroke of lineWidth pixels per segment, no spacing.
func SegmentCount(canvasWidth, lineWidth int) int {
	if lineWidth <= 0 {
		return 0
	}
	return canvasWidth / lineWidth
}

// Decimate reduces samples to exactly totalSegments min/max pairs.
//
// Segment i scans samples [i*n, (i+1)*n) where
// n = max(1, floor(len(samples)/totalSegments)); the final segment
// absorbs the remainder, so the segment ranges partition the whole
// sample domain without gaps or overlaps. A segment past the end of a
// short input yields a zero peak, so silence and missing data both
// draw a flat line rather than vanishing.
func Decimate(samples []float32, totalSegments int) []Peak {
	if totalSegments <= 0 {
		return nil
	}

	peaks := make([]Peak, totalSegments)
	n := len(samples) / totalSegments
	if n < 1 {
		n = 1
	}

	for i := 0; i < totalSegments; i++ {
		lo := i * n
		hi := lo + n
		if i == totalSegments-1 || hi > len(samples) {
			hi = len(samples)
		}
		if lo >= hi {
			continue
		}

		mn, mx := samples[lo], samples[lo]
		for _, s := range samples[lo+1 : hi] {
			if s < mn {
				mn = s
			}
			if s > mx {
				mx = s
			}
		}
		peaks[i] = Peak{Min: mn, Max: mx}
	}

	return peaks
}
