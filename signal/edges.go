package signal

// FindRisingEdges emits crossing timestamps (femtoseconds) where an
// analog waveform goes from <=v to >v (spec.md §4.1 "Edge finders").
func FindRisingEdges(w AnalogWaveform, v float32) []int64 {
	return findAnalogEdges(w, v, true, false)
}

// FindFallingEdges emits crossing timestamps where an analog waveform
// goes from >v to <=v.
func FindFallingEdges(w AnalogWaveform, v float32) []int64 {
	return findAnalogEdges(w, v, false, true)
}

// FindZeroCrossings emits crossing timestamps in both directions,
// deduplicated (a single crossing never appears twice).
func FindZeroCrossings(w AnalogWaveform, v float32) []int64 {
	return findAnalogEdges(w, v, true, true)
}

func findAnalogEdges(w AnalogWaveform, v float32, rising, falling bool) []int64 {
	n := w.Len()
	if n < 2 {
		return nil
	}
	var edges []int64
	prev := w.At(0) > v
	for i := 0; i < n-1; i++ {
		cur := w.At(i+1) > v
		if cur == prev {
			continue
		}
		isRising := cur && !prev
		if (isRising && rising) || (!isRising && falling) {
			frac := InterpolateTime(w, i, v)
			ts := w.OffsetFS(i) + int64(float64(frac)*float64(w.OffsetFS(i+1)-w.OffsetFS(i)))
			edges = append(edges, ts)
		}
		prev = cur
	}
	return edges
}

// FindRisingEdgesDigital emits timestamps at the midpoint of each sample
// that differs from its predecessor and is a 0->1 transition. Per
// spec.md §4.1, digital edges land at timescale/2 + trigger_phase +
// offset*timescale.
func FindRisingEdgesDigital(w DigitalWaveform) []int64 {
	return findDigitalEdges(w, true, false)
}

// FindFallingEdgesDigital is the symmetric falling-edge variant.
func FindFallingEdgesDigital(w DigitalWaveform) []int64 {
	return findDigitalEdges(w, false, true)
}

// FindZeroCrossingsDigital emits both rising and falling digital edges.
func FindZeroCrossingsDigital(w DigitalWaveform) []int64 {
	return findDigitalEdges(w, true, true)
}

func findDigitalEdges(w DigitalWaveform, rising, falling bool) []int64 {
	n := w.Len()
	if n < 2 {
		return nil
	}
	half := w.TimebaseOf().Timescale / 2
	var edges []int64
	for i := 1; i < n; i++ {
		cur := w.At(i)
		prev := w.At(i - 1)
		if cur == prev {
			continue
		}
		if (cur && !prev && rising) || (!cur && prev && falling) {
			edges = append(edges, w.OffsetFS(i)+half)
		}
	}
	return edges
}
