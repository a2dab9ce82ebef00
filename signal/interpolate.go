// Package signal provides the stateless algorithms over waveforms shared
// by every filter node and protocol decoder: sub-sample interpolation,
// edge finding, peak finding, histograms, and clock-driven resampling
// (spec.md §4.1). Each primitive is a small set of typed overloads
// parameterized over the geometry (uniform vs. sparse) and sample type,
// following the genericity of the source rather than collapsing to
// runtime type tests (spec.md §9).
package signal

import "github.com/ngscopeclient/scopehal-sub005/waveform"

// analogSource is satisfied by *waveform.Uniform[float32] and
// *waveform.Sparse[float32].
type analogSource interface {
	At(i int) float32
}

// AnalogWaveform is satisfied by the analog waveform variants.
type AnalogWaveform interface {
	waveform.Waveform
	At(i int) float32
}

// DigitalWaveform is satisfied by the digital waveform variants.
type DigitalWaveform interface {
	waveform.Waveform
	At(i int) bool
}

// InterpolateTime linearly interpolates the crossing time of threshold v
// between samples a and a+1 of an analog waveform. Returns 0 (no
// crossing) if both samples lie on the same side of v, otherwise a
// fraction in [0,1] where sample spacing is normalized to 1 (spec.md
// §4.1 "Sub-sample time interpolation").
func InterpolateTime(data analogSource, a int, v float32) float32 {
	fa := data.At(a)
	fb := data.At(a + 1)
	ag := fa > v
	bg := fb > v
	if ag == bg {
		return 0
	}
	return (v - fa) / (fb - fa)
}

// InterpolateTimeDifferential is the differential variant of
// InterpolateTime: it interpolates the crossing of threshold v on the
// waveform p-n.
func InterpolateTimeDifferential(p, n analogSource, a int, v float32) float32 {
	fa := p.At(a) - n.At(a)
	fb := p.At(a+1) - n.At(a+1)
	ag := fa > v
	bg := fb > v
	if ag == bg {
		return 0
	}
	return (v - fa) / (fb - fa)
}

// InterpolateValue linearly interpolates the voltage at position
// index+frac, where frac is already normalized to the local sample
// spacing (for sparse waveforms the caller normalizes frac by the
// spacing between index and index+1 before calling this, per spec.md
// §4.1 "Sub-sample value interpolation").
func InterpolateValue(data analogSource, index int, frac float64) float32 {
	a := data.At(index)
	b := data.At(index + 1)
	return a + float32(frac)*(b-a)
}
