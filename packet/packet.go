// Package packet implements the semantic decoder output defined in
// spec.md §3.4: a packet is {offset, length, headers, data, display
// hint}, and decoders may merge consecutive packets under a
// decoder-defined equivalence relation (spec.md §4.5).
package packet

import "github.com/ngscopeclient/scopehal-sub005/waveform"

// Header is a single ordered key/value pair. Packets preserve header
// insertion order (spec.md §3.4 "ordered map of string->string"), which
// a plain Go map cannot do, so Headers is a slice rather than a map.
type Header struct {
	Key   string
	Value string
}

// Packet is the semantic summary of a span of symbols.
type Packet struct {
	// OffsetFS is the start of the packet in femtoseconds from the start
	// of the capture.
	OffsetFS int64

	// LengthFS is the duration of the packet in femtoseconds.
	LengthFS int64

	// Headers holds typed fields in insertion order.
	Headers []Header

	// Data is the packet's payload bytes.
	Data []byte

	// DisplayHint classifies how a UI should color this packet, e.g. to
	// flag a bad CRC (spec.md §7 "User-visible behavior").
	DisplayHint waveform.ColorHint
}

// Header looks up a header's value by key; ok is false if not present.
func (p *Packet) Header(key string) (string, bool) {
	for _, h := range p.Headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// SetHeader sets a header's value, appending it if not already present,
// preserving prior insertion order otherwise.
func (p *Packet) SetHeader(key, value string) {
	for i := range p.Headers {
		if p.Headers[i].Key == key {
			p.Headers[i].Value = value
			return
		}
	}
	p.Headers = append(p.Headers, Header{Key: key, Value: value})
}

// End returns the femtosecond timestamp immediately after the packet.
func (p *Packet) End() int64 {
	return p.OffsetFS + p.LengthFS
}
