package filtergraph

import "github.com/ngscopeclient/scopehal-sub005/waveform"

// OutputStream is one output of a node: a semantic stream (analog,
// digital, or decoded-protocol) plus the display metadata the UI layer
// (out of scope here, per spec.md's Non-goals) would read.
type OutputStream struct {
	Name string
	Unit string
	Type StreamType

	Waveform waveform.Waveform

	vrange    float64
	vrangeSet bool
	offset    float64
	offsetSet bool
}
