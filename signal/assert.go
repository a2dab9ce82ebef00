package signal

import "github.com/ngscopeclient/scopehal-sub005/waveform"

// AsDigitalSource type-asserts a generic waveform down to a
// DataSource[bool], the shape protocol decoders need to bit-walk SDA,
// SCL, and similar digital input channels regardless of whether the
// upstream filter produced a uniform or sparse digital waveform.
func AsDigitalSource(w waveform.Waveform) (DataSource[bool], bool) {
	switch v := w.(type) {
	case *waveform.UniformDigital:
		return v, true
	case *waveform.SparseDigital:
		return v, true
	default:
		return nil, false
	}
}

// AsAnalogSource is the float32 analog equivalent of AsDigitalSource.
func AsAnalogSource(w waveform.Waveform) (DataSource[float32], bool) {
	switch v := w.(type) {
	case *waveform.UniformAnalog:
		return v, true
	case *waveform.SparseAnalog:
		return v, true
	default:
		return nil, false
	}
}
