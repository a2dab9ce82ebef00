package signal

import "math"

// Histogram bins voltages into N bins over [low, high]; values outside
// the range are clamped into the endpoint bin (spec.md §4.1 "Histogram").
func Histogram(samples []float32, low, high float32, bins int) []int {
	ret := make([]int, bins)
	if bins == 0 {
		return ret
	}
	delta := high - low
	for _, v := range samples {
		fbin := (v - low) / delta
		var bin int
		if fbin < 0 {
			bin = 0
		} else {
			bin = int(math.Floor(float64(fbin) * float64(bins)))
			if bin >= bins {
				bin = bins - 1
			}
		}
		ret[bin]++
	}
	return ret
}

// HistogramClipped is the clipped variant of Histogram: values outside
// [low, high] are discarded rather than clamped into an endpoint bin; a
// value equal to high lands in the last bin.
func HistogramClipped(samples []float32, low, high float32, bins int) []int {
	ret := make([]int, bins)
	if bins == 0 {
		return ret
	}
	delta := high - low
	for _, v := range samples {
		fbin := (v - low) / delta
		if fbin < 0 || fbin > 1 {
			continue
		}
		bin := int(math.Floor(float64(fbin) * float64(bins)))
		if bin >= bins {
			bin = bins - 1
		}
		ret[bin]++
	}
	return ret
}

// MinVoltage returns the lowest sample value.
func MinVoltage(samples []float32) float32 {
	m := float32(math.MaxFloat32)
	for _, v := range samples {
		if v < m {
			m = v
		}
	}
	return m
}

// MaxVoltage returns the highest sample value.
func MaxVoltage(samples []float32) float32 {
	m := float32(-math.MaxFloat32)
	for _, v := range samples {
		if v > m {
			m = v
		}
	}
	return m
}

// AvgVoltage returns the arithmetic mean of the samples, accumulated in
// float64 for numerical stability over deep captures.
func AvgVoltage(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += float64(v)
	}
	return float32(sum / float64(len(samples)))
}

// BaseVoltage estimates the most probable "0" level of a digital-ish
// analog waveform by peak-picking a 100-bin histogram's lower quartile
// (ported from the original's Filter::GetBaseVoltage, spec.md §9
// supplemented feature).
func BaseVoltage(samples []float32) float32 {
	return quartilePeak(samples, 0, 25)
}

// TopVoltage estimates the most probable "1" level, peak-picking the
// upper quartile of the same histogram.
func TopVoltage(samples []float32) float32 {
	return quartilePeak(samples, 75, 100)
}

func quartilePeak(samples []float32, loBinPct, hiBinPct int) float32 {
	if len(samples) == 0 {
		return 0
	}
	const nbins = 100
	vmin := MinVoltage(samples)
	vmax := MaxVoltage(samples)
	delta := vmax - vmin
	hist := Histogram(samples, vmin, vmax, nbins)

	var binval, idx int
	lo := loBinPct * nbins / 100
	hi := hiBinPct * nbins / 100
	for i := lo; i < hi; i++ {
		if hist[i] > binval {
			binval = hist[i]
			idx = i
		}
	}
	fbin := (float64(idx) + 0.5) / float64(nbins)
	return float32(fbin)*delta + vmin
}
