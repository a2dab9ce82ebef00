package espi

import (
	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/signal"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
	"github.com/snksoft/crc"
)

// crc8Params is CRC-8 with polynomial x^8+x^2+x+1 (0x07), MSB-first, no
// reflection and no final XOR — eSPI's trailer checksum
// (ESPIDecoder::UpdateCRC8).
var crc8Params = &crc.Parameters{Width: 8, Polynomial: 0x07, Init: 0x00, ReflectIn: false, ReflectOut: false, FinalXor: 0x00}

func crc8Of(bytes []byte) uint8 {
	return uint8(crc.CalculateCRC(crc8Params, bytes))
}

const (
	txnIdle = iota
	txnOpcode
	txnConfigAddr
	txnConfigData
	txnCommandCRC8
	txnResponse
	txnResponseData
	txnStatus
	txnResponseCRC8
	txnVWireCount
	txnVWireIndex
	txnVWireData
	txnIOAddr
	txnIOData
)

// Decode walks eSPI's clock/chip-select/four-data-line bus (spec.md
// §4.4.9), ported from ESPIDecoder::Refresh: it samples the data lines
// on each SCK rising edge, auto-detects x1/x4 bus width by whether DQ2
// and DQ3 are actively driven at the start of a byte, assembles bytes,
// and runs an opcode-dispatch state machine covering GET_STATUS,
// GET/SET_CONFIGURATION, PUT/GET_VWIRE, PUT_IOWR/IORD_SHORT, and RESET,
// with a CRC8 trailer checked on both the command and response halves
// of each transaction.
//
// This is a condensed port. PUT_FLASH_C, GET_FLASH_NP, PUT_OOB/GET_OOB
// (SMBus tunneling) and PUT_PC/GET_PC are recognized by opcode only:
// the byte after the opcode is read as the command CRC8 and the
// response as a 16-bit status plus CRC8. Header and payload bytes that
// these transactions carry are not parsed, so in a transaction that has
// them the bytes that follow are misread. Opcodes outside all of the
// above emit a TypeUnsupported symbol and the rest of that transaction
// is ignored until CS# deasserts. The original also splits read sampling
// between rising-edge ("SI") and falling-edge ("SO"/"QUAD_FALLING")
// phases for command vs. response bytes in some bus-width combinations;
// this port samples every data line only on SCK's rising edge.
func Decode(sck, csn, d0, d1, d2, d3 signal.DataSource[bool], width BusWidth) (*waveform.Sparse[Symbol], []*packet.Packet) {
	out := waveform.NewSparse[Symbol]()
	out.CopyTimebaseFrom(sck.TimebaseOf())

	scsn := signal.SampleOnEdges[bool](csn, sck, signal.EdgeRising)
	sd0 := signal.SampleOnEdges[bool](d0, sck, signal.EdgeRising)
	sd1 := signal.SampleOnEdges[bool](d1, sck, signal.EdgeRising)
	sd2 := signal.SampleOnEdges[bool](d2, sck, signal.EdgeRising)
	sd3 := signal.SampleOnEdges[bool](d3, sck, signal.EdgeRising)

	n := scsn.Len()
	for _, s := range []*waveform.Sparse[bool]{sd0, sd1, sd2, sd3} {
		if l := s.Len(); l < n {
			n = l
		}
	}

	var packets []*packet.Packet
	if n == 0 {
		return out, packets
	}

	txnState := txnIdle
	selected := false
	quad := false
	var bitcount int
	var currentByte byte
	var bytestart int64
	var current Command
	var crcBytes []byte
	var count int
	var addr uint64
	var data uint64
	var payloadLen int
	var vwireRemaining int
	var fieldStart int64
	var pack *packet.Packet

	emit := func(off, dur int64, typ SymbolType, val uint64) {
		out.Append(off, dur, Symbol{Type: typ, Data: val})
	}

	finishPacket := func(end int64) {
		if pack != nil {
			pack.LengthFS = end - pack.OffsetFS
			packets = append(packets, pack)
			pack = nil
		}
	}

	for i := 0; i < n; i++ {
		cs := scsn.Samples[i]
		tnow := scsn.Offsets[i]

		if cs {
			if selected {
				finishPacket(tnow)
			}
			selected = false
			quad = false
			txnState = txnIdle
			bitcount = 0
			continue
		}
		if !selected {
			selected = true
			bitcount = 0
			currentByte = 0
			bytestart = tnow
			txnState = txnOpcode
			crcBytes = crcBytes[:0]
		}

		if bitcount == 0 {
			bytestart = tnow
			if !quad {
				if width == BusWidthX4 {
					quad = true
				} else if width == BusWidthAuto && !(sd2.Samples[i] && sd3.Samples[i]) {
					quad = true
				}
			}
		}

		if quad {
			nibble := byte(0)
			if sd0.Samples[i] {
				nibble |= 0x1
			}
			if sd1.Samples[i] {
				nibble |= 0x2
			}
			if sd2.Samples[i] {
				nibble |= 0x4
			}
			if sd3.Samples[i] {
				nibble |= 0x8
			}
			currentByte = currentByte<<4 | nibble
			bitcount += 4
		} else {
			bit := byte(0)
			if txnState == txnResponse || txnState == txnResponseData || txnState == txnStatus ||
				txnState == txnResponseCRC8 || (txnState == txnVWireData && current == CommandGetVWire) ||
				(txnState == txnVWireIndex && current == CommandGetVWire) ||
				(txnState == txnVWireCount && current == CommandGetVWire) {
				if sd1.Samples[i] {
					bit = 1
				}
			} else if sd0.Samples[i] {
				bit = 1
			}
			currentByte = currentByte<<1 | bit
			bitcount++
		}

		if bitcount < 8 {
			continue
		}
		bitcount = 0
		b := currentByte
		tend := scsn.Offsets[i] + scsn.Durations[i]
		prevState := txnState
		isWait := false

		switch txnState {
		case txnIdle:

		case txnOpcode:
			current = Command(b)
			pack = &packet.Packet{OffsetFS: bytestart}
			emit(bytestart, tend-bytestart, TypeCommandType, uint64(b))
			pack.SetHeader("Command", commandName(current))
			count, data, addr = 0, 0, 0

			switch current {
			case CommandGetConfiguration, CommandSetConfiguration:
				txnState = txnConfigAddr
			case CommandPutVWire:
				txnState = txnVWireCount
			case CommandPutIOWRShortX1:
				payloadLen, txnState = 1, txnIOAddr
			case CommandPutIOWRShortX2:
				payloadLen, txnState = 2, txnIOAddr
			case CommandPutIOWRShortX4:
				payloadLen, txnState = 4, txnIOAddr
			case CommandPutIORDShortX1, CommandPutIORDShortX2, CommandPutIORDShortX4:
				payloadLen, txnState = 0, txnIOAddr
			case CommandGetStatus, CommandGetVWire, CommandGetFlashNP, CommandGetPC,
				CommandPutOOB, CommandGetOOB, CommandReset, CommandPutFlashC, CommandPutPC:
				txnState = txnCommandCRC8
			default:
				emit(tend, 0, TypeUnsupported, uint64(b))
				txnState = txnIdle
			}

		case txnConfigAddr:
			if count == 0 {
				fieldStart = bytestart
			}
			addr = addr<<8 | uint64(b)
			count++
			if count == 2 {
				emit(fieldStart, tend-fieldStart, TypeCapsAddr, addr)
				if pack != nil {
					pack.SetHeader("Address", hex64(addr))
				}
				if current == CommandSetConfiguration {
					txnState, count, data = txnConfigData, 0, 0
				} else {
					txnState = txnCommandCRC8
				}
			}

		case txnConfigData:
			data |= uint64(b) << (uint(count&3) * 8)
			if pack != nil {
				pack.Data = append(pack.Data, b)
			}
			count++
			if count == 4 {
				emit(tend-4, 4, TypeCommandData32, data)
				txnState = txnCommandCRC8
			}

		case txnIOAddr:
			if count == 0 {
				fieldStart = bytestart
			}
			addr = addr<<8 | uint64(b)
			count++
			if count == 2 {
				emit(fieldStart, tend-fieldStart, TypeIOAddr, addr)
				if pack != nil {
					pack.SetHeader("Address", hex64(addr))
				}
				count = 0
				if current == CommandPutIOWRShortX1 || current == CommandPutIOWRShortX2 || current == CommandPutIOWRShortX4 {
					txnState = txnIOData
				} else {
					txnState = txnCommandCRC8
				}
			}

		case txnIOData:
			emit(bytestart, tend-bytestart, TypeIOData, uint64(b))
			if pack != nil {
				pack.Data = append(pack.Data, b)
			}
			count++
			if count >= payloadLen {
				txnState = txnCommandCRC8
			}

		case txnVWireCount:
			emit(bytestart, tend-bytestart, TypeVWireCount, uint64(b))
			vwireRemaining = int(b) + 1
			txnState = txnVWireIndex

		case txnVWireIndex:
			emit(bytestart, tend-bytestart, TypeVWireIndex, uint64(b))
			txnState = txnVWireData

		case txnVWireData:
			emit(bytestart, tend-bytestart, TypeVWireData, uint64(b))
			vwireRemaining--
			if vwireRemaining > 0 {
				txnState = txnVWireIndex
			} else if current == CommandPutVWire {
				txnState = txnCommandCRC8
			} else {
				txnState = txnResponseCRC8
			}

		case txnCommandCRC8:
			if b == crc8Of(crcBytes) {
				emit(bytestart, tend-bytestart, TypeCommandCRCGood, uint64(b))
			} else {
				emit(bytestart, tend-bytestart, TypeCommandCRCBad, uint64(b))
			}
			txnState = txnResponse

		case txnResponse:
			if b&0xcf == 0x0f {
				isWait = true
				l := out.Len()
				if l > 0 && out.Samples[l-1].Type == TypeWait {
					out.Durations[l-1] = tend - out.Offsets[l-1]
				} else {
					emit(bytestart, tend-bytestart, TypeWait, 0)
				}
			} else {
				crcBytes = crcBytes[:0]
				emit(bytestart, tend-bytestart, TypeResponseOp, uint64(b))
				if pack != nil {
					pack.SetHeader("Response", hex64(uint64(b)))
				}
				count, data = 0, 0
				switch current {
				case CommandGetConfiguration:
					txnState = txnResponseData
				case CommandGetVWire:
					txnState = txnVWireCount
				default:
					txnState = txnStatus
				}
			}

		case txnResponseData:
			data |= uint64(b) << (uint(count&3) * 8)
			count++
			if count == 4 {
				emit(tend-4, 4, TypeResponseData32, data)
				txnState = txnResponseCRC8
			}

		case txnStatus:
			data = data<<8 | uint64(b)
			count++
			if count == 2 {
				emit(tend-2, 2, TypeResponseStatus, data)
				txnState = txnResponseCRC8
			}

		case txnResponseCRC8:
			if b == crc8Of(crcBytes) {
				emit(bytestart, tend-bytestart, TypeResponseCRCGood, uint64(b))
			} else {
				emit(bytestart, tend-bytestart, TypeResponseCRCBad, uint64(b))
			}
			finishPacket(tend)
			txnState = txnIdle
		}

		if prevState != txnCommandCRC8 && prevState != txnResponseCRC8 && !isWait {
			crcBytes = append(crcBytes, b)
		}
	}

	if selected {
		finishPacket(scsn.Offsets[n-1] + scsn.Durations[n-1])
	}

	return out, packets
}

func hex64(v uint64) string {
	const hexd = "0123456789abcdef"
	if v == 0 {
		return "0x0"
	}
	var buf []byte
	started := false
	for shift := 60; shift >= 0; shift -= 4 {
		d := (v >> uint(shift)) & 0xf
		if d != 0 {
			started = true
		}
		if started {
			buf = append(buf, hexd[d])
		}
	}
	return "0x" + string(buf)
}

func commandName(c Command) string {
	switch c {
	case CommandPutPC:
		return "PUT_PC"
	case CommandGetPC:
		return "GET_PC"
	case CommandPutNP:
		return "PUT_NP"
	case CommandGetNP:
		return "GET_NP"
	case CommandPutVWire:
		return "PUT_VWIRE"
	case CommandGetVWire:
		return "GET_VWIRE"
	case CommandPutOOB:
		return "PUT_OOB"
	case CommandGetOOB:
		return "GET_OOB"
	case CommandPutFlashC:
		return "PUT_FLASH_C"
	case CommandGetFlashNP:
		return "GET_FLASH_NP"
	case CommandGetConfiguration:
		return "GET_CONFIGURATION"
	case CommandSetConfiguration:
		return "SET_CONFIGURATION"
	case CommandGetStatus:
		return "GET_STATUS"
	case CommandPutIORDShortX1, CommandPutIORDShortX2, CommandPutIORDShortX4:
		return "PUT_IORD_SHORT"
	case CommandPutIOWRShortX1, CommandPutIOWRShortX2, CommandPutIOWRShortX4:
		return "PUT_IOWR_SHORT"
	case CommandReset:
		return "RESET"
	default:
		return "UNKNOWN"
	}
}
