package jtag

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/signal"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// Decode samples TDI/TDO/TMS on rising edges of TCK, walks the 16-state
// TAP controller graph starting from RunTestIdle, and emits one symbol
// per state dwell plus a write/read packet pair for every completed IR
// or DR shift. The five Unknown states of the transition tables are
// never entered by this walk.
func Decode(tdi, tdo, tms, tck signal.DataSource[bool]) (*waveform.Sparse[Symbol], []*packet.Packet) {
	dtdi := signal.SampleOnEdges[bool](tdi, tck, signal.EdgeRising)
	dtdo := signal.SampleOnEdges[bool](tdo, tck, signal.EdgeRising)
	dtms := signal.SampleOnEdges[bool](tms, tck, signal.EdgeRising)

	out := waveform.NewSparse[Symbol]()
	out.CopyTimebaseFrom(&dtms.Timebase)
	out.Timescale = 1

	var packets []*packet.Packet

	n := len(dtms.Offsets)
	if l := len(dtdi.Offsets); l < n {
		n = l
	}
	if l := len(dtdo.Offsets); l < n {
		n = l
	}
	if n == 0 {
		return out, packets
	}

	state := RunTestIdle
	istart := 0
	packStart := 0
	nbits := 0
	var idata, odata byte
	var ibytes, obytes []byte
	irval := "??"

	for i := 0; i < n; i++ {
		var next State
		if dtms.Samples[i] {
			next = stateIfTMSHigh[state]
		} else {
			next = stateIfTMSLow[state]
		}

		if state == ShiftIR || state == ShiftDR {
			idata >>= 1
			if dtdi.Samples[i] {
				idata |= 0x80
			}
			odata <<= 1
			if dtdo.Samples[i] {
				odata |= 0x01
			}
			nbits++
		}

		if next != state {
			if (state == ShiftIR || state == ShiftDR) && nbits != 8 {
				idata >>= uint(8 - nbits)
			}
			out.Append(dtms.Offsets[istart], dtms.Offsets[i]-dtms.Offsets[istart], Symbol{
				State: state,
				TDI:   idata,
				TDO:   odata,
				Bits:  nbits,
			})

			if state == ShiftIR || state == ShiftDR {
				ibytes = append(ibytes, idata)
				obytes = append(obytes, odata)

				bits := len(ibytes)*8 - 8 + nbits
				op := "DR"
				if state == ShiftIR {
					op = "IR"
				}

				writePkt := &packet.Packet{OffsetFS: dtms.Offsets[packStart]}
				writePkt.SetHeader("Operation", op+" write")
				writePkt.SetHeader("IR", irval)
				writePkt.SetHeader("Bits", fmt.Sprintf("%d", bits))
				writePkt.Data = append([]byte(nil), ibytes...)
				writePkt.LengthFS = dtms.Offsets[i] - writePkt.OffsetFS
				packets = append(packets, writePkt)

				readPkt := &packet.Packet{OffsetFS: dtms.Offsets[packStart]}
				readPkt.SetHeader("Operation", op+" read")
				readPkt.SetHeader("IR", irval)
				readPkt.SetHeader("Bits", fmt.Sprintf("%d", bits))
				readPkt.Data = append([]byte(nil), obytes...)
				readPkt.LengthFS = dtms.Offsets[i] - readPkt.OffsetFS
				packets = append(packets, readPkt)

				if state == ShiftIR {
					irval = ""
					for _, b := range ibytes {
						irval += fmt.Sprintf("%02x ", b)
					}
				}

				ibytes = nil
				obytes = nil
				nbits = 0
			}

			if next == ShiftIR || next == ShiftDR {
				packStart = i
				nbits = 0
			}

			state = next
			istart = i
		} else if nbits == 8 {
			out.Append(dtms.Offsets[istart], dtms.Offsets[i]-dtms.Offsets[istart], Symbol{
				State: state,
				TDI:   idata,
				TDO:   odata,
				Bits:  8,
			})
			ibytes = append(ibytes, idata)
			obytes = append(obytes, odata)
			istart = i
			nbits = 0
		}
	}

	return out, packets
}
