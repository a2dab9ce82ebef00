package ibm8b10b

import (
	"github.com/ngscopeclient/scopehal-sub005/signal"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// Decode samples the data line on every clock edge, then walks the
// resulting bitstream ten bits at a time, searching for K28.x comma
// alignment within the next commaSearchWindow bits whenever sync is lost,
// and decoding each 10-bit group via the 5b/6b + 3b/4b tables with
// running disparity tracking (spec.md §4.4.5).
func Decode(data, clk signal.DataSource[bool], commaSearchWindow int64) *waveform.Sparse[Symbol] {
	bits := signal.SampleOnEdges[bool](data, clk, signal.EdgeAny)

	out := waveform.NewSparse[Symbol]()
	out.CopyTimebaseFrom(&bits.Timebase)
	out.Timescale = 1

	n := bits.Len()
	if n < 11 {
		return out
	}

	lastDisp := -1
	first := true
	var lastSymbolLength, lastSymbolEnd, lastSymbolStart int64

	dlen := n - 11
	i := 0
	for i < dlen {
		if i == 0 {
			first = true
		}
		if bits.Offsets[i]-lastSymbolEnd > 3*lastSymbolLength {
			first = true
		}
		if first {
			i += align(bits, i, commaSearchWindow)
		}

		code6 := bitsToCode(bits, i, 0, 6)
		code5 := code5Table[code6]
		disp5 := disp5Table[code6]
		err5 := err5Table[code6]
		ctl5 := ctl5Table[code6]

		code4 := bitsToCode(bits, i, 6, 4)
		var code3, disp3 int
		var err3 bool
		if ctl5 {
			if disp5 >= 0 {
				code3 = code3PosCtlTable[code4]
			} else {
				code3 = code3NegCtlTable[code4]
			}
			err3 = err3CtlTable[code4]
		} else {
			code3 = code3Table[code4]
			err3 = err3Table[code4]
		}
		disp3 = disp3Table[code4]

		totalDisp := disp3 + disp5
		if first {
			if totalDisp < 0 {
				lastDisp = 1
			} else {
				lastDisp = -1
			}
			first = false
		}

		disperr := false
		switch {
		case totalDisp > 0 && lastDisp > 0:
			disperr = true
			lastDisp = 1
		case totalDisp < 0 && lastDisp < 0:
			disperr = true
			lastDisp = -1
		default:
			lastDisp += totalDisp
		}

		if alt3Table[code4] {
			if code5 == 23 || code5 == 27 || code5 == 29 || code5 == 30 {
				ctl5 = true
			}
		}

		symbolStart := bits.Offsets[i] - bits.Durations[i]/2
		symbolLength := bits.Offsets[i+10] - bits.Offsets[i]

		if symbolStart-lastSymbolStart > 5*symbolLength {
			first = true
		} else {
			out.Append(symbolStart, lastSymbolLength, Symbol{
				Control:   ctl5,
				Error5:    err5,
				Error3:    err3,
				ErrorDisp: disperr,
				Data:      byte(code3<<5 | code5),
				Disparity: lastDisp,
			})
		}

		lastSymbolLength = symbolLength
		lastSymbolEnd = symbolStart + symbolLength
		lastSymbolStart = symbolStart

		i += 10
	}

	return out
}

func bitsToCode(bits *waveform.Sparse[bool], base, offset, width int) byte {
	var v byte
	for j := 0; j < width; j++ {
		v <<= 1
		if bits.Samples[base+offset+j] {
			v |= 1
		}
	}
	return v
}

// align searches for the comma phase within the next commaSearchWindow
// bits starting at i, returning the offset (0-9) to add
// to i to land on a 10-bit-aligned comma boundary.
func align(bits *waveform.Sparse[bool], i int, commaSearchWindow int64) int {
	n := bits.Len()
	dend := n - 20
	if dend < 0 {
		return 0
	}

	maxCommas := 0
	maxOffset := 0
	for offset := 0; offset < 10; offset++ {
		numCommas := 0
		numErrors := 0
		for delta := 0; int64(delta) < commaSearchWindow; delta += 10 {
			base := i + offset + delta
			if base > dend {
				break
			}
			comma := true
			for j := 3; j <= 6; j++ {
				if bits.Samples[base+j] != bits.Samples[base+2] {
					comma = false
					break
				}
			}
			if bits.Samples[base+1] == bits.Samples[base+2] {
				comma = false
			}
			if bits.Samples[base+7] == bits.Samples[base+2] {
				comma = false
			}

			ones := 0
			for j := 0; j < 10; j++ {
				if bits.Samples[base+j] {
					ones++
				}
			}
			if ones != 4 && ones != 5 && ones != 6 {
				numErrors++
			}
			if comma {
				numCommas++
			}
		}

		if numErrors > numCommas {
			continue
		}
		if numCommas > maxCommas {
			maxCommas = numCommas
			maxOffset = offset
		}
	}
	return maxOffset
}
