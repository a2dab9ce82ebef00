package waveform

// AnalogSamples extracts the raw []float32 backing slice from a
// UniformAnalog or SparseAnalog waveform, used by callers (filter
// auto-scaling, histogram helpers) that need direct sample access
// without caring about geometry.
func AnalogSamples(w Waveform) ([]float32, bool) {
	switch v := w.(type) {
	case *UniformAnalog:
		return v.Samples, true
	case *SparseAnalog:
		return v.Samples, true
	default:
		return nil, false
	}
}
