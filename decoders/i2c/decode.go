package i2c

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/signal"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// Decode walks the SDA and SCL digital channels sample by sample and
// emits a sparse symbol stream plus the list of packets found on the
// bus, ported from I2CDecoder::InnerLoop.
func Decode(sda, scl signal.DataSource[bool]) (*waveform.Sparse[Symbol], []*packet.Packet) {
	cap := waveform.NewSparse[Symbol]()
	cap.CopyTimebaseFrom(sda.TimebaseOf())
	cap.Timescale = 1

	var packets []*packet.Packet
	var pack *packet.Packet

	sdalen := sda.Len()
	scllen := scl.Len()
	if sdalen == 0 || scllen == 0 {
		return cap, packets
	}

	lastSDA := true
	lastSCL := true
	var tstart int64
	currentType := TypeError
	var currentByte byte
	var bitcount int
	lastWasStart := false
	isda, iscl := 0, 0
	var timestamp int64

	finishPacket := func() {
		if pack != nil {
			pack.LengthFS = timestamp - pack.OffsetFS
			pack.SetHeader("Len", fmt.Sprintf("%d", len(pack.Data)))
			packets = append(packets, pack)
			pack = nil
		}
	}

	emit := func(offset, duration int64, sym Symbol) {
		cap.Append(offset, duration, sym)
	}

	for {
		curSDA := sda.At(isda)
		curSCL := scl.At(iscl)

		switch {
		// SDA falling with SCL high: start (or restart, following an ACK).
		case !curSDA && lastSDA && curSCL:
			if currentType == TypeData {
				currentType = TypeRestart
				finishPacket()
			} else {
				tstart = timestamp
				currentType = TypeStart
			}
			if pack != nil {
				pack.Data = nil
				pack.Headers = nil
			} else {
				pack = &packet.Packet{}
			}
			pack.OffsetFS = timestamp
			pack.LengthFS = 0

		// End a start/restart bit: on SDA high (first bit is 1) or falling SCL.
		case (currentType == TypeStart || currentType == TypeRestart) && (curSDA || !curSCL):
			emit(tstart, timestamp-tstart, Symbol{Type: currentType})
			lastWasStart = true
			currentType = TypeData
			tstart = timestamp
			bitcount = 0
			currentByte = 0

		// SDA rising with SCL high: stop condition.
		case curSDA && !lastSDA && curSCL:
			emit(tstart, timestamp-tstart, Symbol{Type: TypeStop})
			lastWasStart = false
			tstart = timestamp
			finishPacket()

		// Rising SCL: end of the current bit.
		case curSCL && !lastSCL:
			switch currentType {
			case TypeData:
				bitcount++
				currentByte <<= 1
				if curSDA {
					currentByte |= 1
				}
				if bitcount == 8 {
					thisLen := timestamp - tstart

					if lastWasStart {
						n := len(cap.Durations) - 1
						if n >= 0 && cap.Durations[n] > 3*thisLen {
							tend := cap.Offsets[n] + cap.Durations[n]
							cap.Durations[n] = thisLen
							cap.Offsets[n] = tend - thisLen
						}
						emit(tstart, thisLen, Symbol{Type: TypeAddress, Data: currentByte})
						if pack != nil {
							pack.SetHeader("Address", fmt.Sprintf("%02x", currentByte&0xfe))
							if currentByte&1 != 0 {
								pack.SetHeader("Op", "Read")
								pack.DisplayHint = waveform.ColorDataRead
							} else {
								pack.SetHeader("Op", "Write")
								pack.DisplayHint = waveform.ColorDataWrite
							}
						}
					} else {
						emit(tstart, thisLen, Symbol{Type: TypeData, Data: currentByte})
						if pack != nil {
							pack.Data = append(pack.Data, currentByte)
						}
					}
					lastWasStart = false
					bitcount = 0
					currentByte = 0
					tstart = timestamp
					currentType = TypeAck
				}
			case TypeAck:
				emit(tstart, timestamp-tstart, Symbol{Type: TypeAck, Data: boolToByte(curSDA)})
				lastWasStart = false
				tstart = timestamp
				currentType = TypeData
			}
		}

		lastSDA = curSDA
		lastSCL = curSCL

		nextSDA := signal.GetNextEventTimestamp(sda, isda, timestamp)
		nextSCL := signal.GetNextEventTimestamp(scl, iscl, timestamp)
		next := nextSDA
		if nextSCL < next {
			next = nextSCL
		}
		if next == timestamp {
			break
		}
		timestamp = next
		signal.AdvanceToTimestamp(sda, &isda, timestamp)
		signal.AdvanceToTimestamp(scl, &iscl, timestamp)
	}

	return cap, packets
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
