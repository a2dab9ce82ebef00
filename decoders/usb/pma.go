package usb

import (
	"github.com/ngscopeclient/scopehal-sub005/signal"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// DecodePMA classifies each (D+, D-) sample pair into {J, K, SE0, SE1} by
// thresholding the differential voltage, then absorbs any SE0/SE1 run
// shorter than one bit time for speed into the adjacent J/K symbol
// (spec.md §4.4.4 PMA), ported from USB2PMADecoder::Refresh.
func DecodePMA(dp, dn signal.DataSource[float32], speed Speed) *waveform.Sparse[PMASymbol] {
	out := waveform.NewSparse[PMASymbol]()
	out.CopyTimebaseFrom(dp.TimebaseOf())

	n := dp.Len()
	if l := dn.Len(); l < n {
		n = l
	}
	if n == 0 {
		return out
	}

	threshold := float32(0.4)
	if speed == SpeedHigh {
		threshold = 0.2
	}
	transitionTime := speed.transitionTimeFS()

	for i := 0; i < n; i++ {
		vp := dp.At(i)
		vn := dn.At(i)
		bp := vp > threshold
		bn := vn > threshold
		vdiff := vp - vn

		var state PMALineState
		switch {
		case abs32(vdiff) > threshold:
			positiveIsJ := speed == SpeedFull || speed == SpeedHigh
			if (vdiff > 0) == positiveIsJ {
				state = LineJ
			} else {
				state = LineK
			}
		case bp && bn:
			state = LineSE1
		default:
			state = LineSE0
		}

		offset := dp.OffsetFS(i)
		if out.Len() == 0 {
			out.Offsets = append(out.Offsets, offset)
			out.Durations = append(out.Durations, 0)
			out.Samples = append(out.Samples, PMASymbol{State: state})
			continue
		}

		last := out.Len() - 1
		if out.Samples[last].State == state {
			out.Durations[last] = offset - out.Offsets[last]
			continue
		}

		// Short SE0/SE1 glitch: absorb into the run it interrupted.
		runLen := out.Durations[last]
		if (out.Samples[last].State == LineSE0 || out.Samples[last].State == LineSE1) && runLen < transitionTime {
			out.Samples[last].State = state
			out.Durations[last] = offset - out.Offsets[last]
			continue
		}

		out.Offsets = append(out.Offsets, offset)
		out.Durations = append(out.Durations, 0)
		out.Samples = append(out.Samples, PMASymbol{State: state})
	}

	return out
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
