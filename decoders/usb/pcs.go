package usb

import "github.com/ngscopeclient/scopehal-sub005/waveform"

// DecodePCS consumes a PMA line-state waveform and, for each packet (a
// run of J/K activity bounded by idle and terminated by SE0/SE1),
// recovers the NRZI bitstream at the given speed's UI width, removes
// stuffed bits (the 0 inserted after every run of 6 consecutive 1s), and
// packs the result into bytes. The first byte of every packet must be
// the SYNC pattern 0x80; anything else is reported as an error symbol.
//
// This is a condensation of USB2PCSDecoder::Refresh's per-UI duration
// state machine into an equivalent run-length NRZI walk: a run of N
// consecutive unit intervals at one line level decodes as a leading "0"
// bit (the transition into the run) followed by N-1 "1" bits.
func DecodePCS(pma *waveform.Sparse[PMASymbol], speed Speed) *waveform.Sparse[PCSSymbol] {
	out := waveform.NewSparse[PCSSymbol]()
	out.CopyTimebaseFrom(&pma.Timebase)

	uiWidth := speed.uiWidthFS()
	n := pma.Len()

	i := 0
	for i < n {
		if pma.Samples[i].State != LineK {
			i++
			continue
		}

		packetStart := pma.Offsets[i]
		var bits []bool
		eop := false
		bad := false

		for i < n {
			s := pma.Samples[i].State
			if s == LineSE0 {
				eop = true
				break
			}
			if s == LineSE1 {
				bad = true
				break
			}
			count := roundDiv(pma.Durations[i], uiWidth)
			if count < 1 {
				count = 1
			}
			for u := int64(0); u < count; u++ {
				bits = append(bits, u != 0)
			}
			i++
		}

		if bad {
			out.Append(packetStart, uiWidth, PCSSymbol{Type: PCSError})
			i++
			continue
		}

		debuffed := destuff(bits)
		if len(debuffed) < 8 || packByte(debuffed[0:8]) != 0x80 {
			out.Append(packetStart, uiWidth, PCSSymbol{Type: PCSError})
		} else {
			out.Append(packetStart, 8*uiWidth, PCSSymbol{Type: PCSSync})
			pos := int64(8)
			byteOffset := packetStart + 8*uiWidth
			for pos+8 <= int64(len(debuffed)) {
				b := packByte(debuffed[pos : pos+8])
				out.Append(byteOffset, 8*uiWidth, PCSSymbol{Type: PCSByte, Data: b})
				byteOffset += 8 * uiWidth
				pos += 8
			}
			if eop {
				out.Append(byteOffset, 2*uiWidth, PCSSymbol{Type: PCSEOP})
			}
		}

		if eop {
			i++
		}
	}

	return out
}

// destuff removes the bit stuffed in by the transmitter after every run
// of 6 consecutive 1 bits.
func destuff(bits []bool) []bool {
	out := make([]bool, 0, len(bits))
	ones := 0
	for _, b := range bits {
		if ones == 6 {
			ones = 0
			continue
		}
		out = append(out, b)
		if b {
			ones++
		} else {
			ones = 0
		}
	}
	return out
}

// packByte packs 8 bits LSB-first (bits[0] is bit 0 of the result), the
// convention USB shifts data onto the wire in.
func packByte(bits []bool) byte {
	var b byte
	for i := 0; i < 8 && i < len(bits); i++ {
		if bits[i] {
			b |= 1 << uint(i)
		}
	}
	return b
}

func roundDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}
