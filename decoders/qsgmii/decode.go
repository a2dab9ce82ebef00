// Package qsgmii demultiplexes a single 8b/10b symbol stream carrying four
// round-robin interleaved QSGMII lanes back into four independent
// Ethernet-SGMII 8b/10b streams (spec.md §4.4.8).
package qsgmii

import (
	"github.com/ngscopeclient/scopehal-sub005/decoders/ibm8b10b"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

const laneCount = 4

// qsgmiiComma is the K28.1 control character QSGMII uses to mark lane 0
// of each round-robin group, distinguishing it from the K28.5 comma used
// within each demultiplexed SGMII lane.
const qsgmiiComma = 0x3c

// sgmiiComma is the K28.5 comma substituted for every K28.1 as symbols
// are handed out to their lane, so each output stream looks like an
// ordinary 8b/10b SGMII stream to downstream decoders.
const sgmiiComma = 0xbc

// Decode splits din into four lane streams, ported from
// QSGMIIDecoder::Refresh. It finds the first K28.1 to establish which
// phase (i mod 4) corresponds to lane 0, then round-robins every
// subsequent symbol out to its lane, rewriting each K28.1 to K28.5 along
// the way. If no K28.1 is found the four streams come back empty.
func Decode(din *waveform.Sparse[ibm8b10b.Symbol]) [laneCount]*waveform.Sparse[ibm8b10b.Symbol] {
	var lanes [laneCount]*waveform.Sparse[ibm8b10b.Symbol]
	for i := range lanes {
		lanes[i] = waveform.NewSparse[ibm8b10b.Symbol]()
		lanes[i].CopyTimebaseFrom(&din.Timebase)
	}

	n := din.Len()
	if n == 0 {
		return lanes
	}

	phase := 0
	found := false
	for i := 0; i < n; i++ {
		s := din.Samples[i]
		if s.Control && s.Data == qsgmiiComma {
			phase = i & 3
			found = true
			break
		}
	}
	if !found {
		return lanes
	}

	for i := 0; i < n; i++ {
		nlane := (i - phase) & 3

		s := din.Samples[i]
		if s.Control && s.Data == qsgmiiComma {
			s = ibm8b10b.Symbol{Control: true, Data: sgmiiComma, Disparity: s.Disparity}
		}

		var dur int64
		if i+laneCount >= n {
			dur = din.Durations[i]
		} else {
			dur = din.Offsets[i+laneCount] - din.Offsets[i]
		}

		lanes[nlane].Append(din.Offsets[i], dur, s)
	}

	return lanes
}
