package i2c

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// RegSymbolType tags a symbol of the I2C EEPROM/Register overlay: a
// stateful re-read of an already-decoded I2CSymbol stream that groups
// a device-address write, a memory pointer, and the following
// read/write/poll data phase, ported from I2CEepromDecoder.cpp and
// I2CRegisterDecoder.cpp (spec.md §4.4.2).
type RegSymbolType int

const (
	RegSelectRead RegSymbolType = iota
	RegSelectWrite
	RegAddress
	RegData
	RegPollOK
	RegPollBusy
)

// RegSymbol is one emitted symbol of the overlay stream.
type RegSymbol struct {
	Type RegSymbolType
	Data uint32
}

func (s RegSymbol) String() string {
	switch s.Type {
	case RegSelectRead:
		return "SEL:R"
	case RegSelectWrite:
		return "SEL:W"
	case RegAddress:
		return fmt.Sprintf("@%x", s.Data)
	case RegData:
		return fmt.Sprintf("%02x", s.Data)
	case RegPollOK:
		return "POLL:OK"
	case RegPollBusy:
		return "POLL:BUSY"
	default:
		return "ERR"
	}
}

func (s RegSymbol) ColorHint() waveform.ColorHint {
	switch s.Type {
	case RegSelectRead, RegSelectWrite:
		return waveform.ColorControl
	case RegAddress:
		return waveform.ColorAddress
	case RegData:
		return waveform.ColorData
	default:
		return waveform.ColorIdle
	}
}

// baseMaskForDeviceBits returns the bitmask of device-address bits that
// must match base_addr, leaving the low deviceBits free to carry extra
// memory-pointer bits the way 24CM-series EEPROMs embed them.
func baseMaskForDeviceBits(deviceBits int) byte {
	switch deviceBits {
	case 2:
		return 0xf8
	case 1:
		return 0xfc
	default:
		return 0xfe
	}
}

// DecodeEepromRegister re-walks a decoded I2C symbol stream, matching a
// device-address write followed by a configurable-width memory pointer
// (1-4 bytes) and the following read, write, or self-timed-write-poll
// data phase (spec.md §4.4.2).
//
// deviceBits is the count (0-2) of low address bits that carry extra
// memory-pointer bits instead of device-select bits, as used by
// 24CM-series EEPROM parts with more memory than a 7-bit address can
// select directly.
func DecodeEepromRegister(
	sym *waveform.Sparse[Symbol],
	baseAddr byte,
	pointerBytes int,
	deviceBits int,
) (*waveform.Sparse[RegSymbol], []*packet.Packet) {
	cap := waveform.NewSparse[RegSymbol]()
	cap.CopyTimebaseFrom(&sym.Timebase)
	cap.Timescale = 1

	baseMask := baseMaskForDeviceBits(deviceBits)

	var packets []*packet.Packet
	var pack *packet.Packet

	const (
		stIdle = iota
		stDeviceAddr
		stDeviceAck
		stPtrByte
		stPtrAck
		stSelectOrFirstData
		stReadAddr
		stReadAddrAck
		stDataByte
		stDataAck
	)

	state := stIdle
	var tstart int64
	var ptr uint32
	addrCount := 0
	ntype := -1
	var lastDeviceAddr byte

	finish := func() {
		if pack != nil {
			pack.SetHeader("Len", fmt.Sprintf("%d", len(pack.Data)))
			packets = append(packets, pack)
			pack = nil
		}
	}

	n := sym.Len()
	for i := 0; i < n; i++ {
		s := sym.At(i)
		end := sym.Offsets[i] + sym.Durations[i]

		switch state {
		case stIdle:
			if s.Type == TypeStart || s.Type == TypeRestart {
				tstart = sym.Offsets[i]
				state = stDeviceAddr
				pack = &packet.Packet{OffsetFS: sym.Offsets[i]}
			}

		case stDeviceAddr:
			if s.Type != TypeAddress {
				state = stIdle
				continue
			}
			if s.Data&baseMask != baseAddr {
				state = stIdle
				continue
			}
			lastDeviceAddr = s.Data
			switch deviceBits {
			case 2:
				ptr = uint32(s.Data&0x6) >> 1
			case 1:
				ptr = uint32(s.Data&0x2) >> 1
			default:
				ptr = 0
			}
			if s.Data&1 != 0 {
				// a read right after the device address, with no pointer
				// update, is outside this overlay's scope
				state = stIdle
				continue
			}
			cap.Append(tstart, end-tstart, RegSymbol{Type: RegSelectRead})
			state = stDeviceAck
			tstart = end

		case stDeviceAck:
			if s.Type != TypeAck {
				state = stIdle
				continue
			}
			nlast := len(cap.Offsets) - 1
			if deviceBits == 0 {
				cap.Durations[nlast] += sym.Durations[i]
				tstart += sym.Durations[i]
			}
			ntype = nlast
			addrCount = 0
			if s.Data != 0 {
				cap.Samples[nlast].Type = RegPollBusy
				pack.SetHeader("Type", "Poll - Busy")
				finish()
				state = stIdle
				continue
			}
			state = stPtrByte

		case stPtrByte:
			if s.Type == TypeData {
				ptr = (ptr << 8) | uint32(s.Data)
				addrCount++
				state = stPtrAck
			} else if s.Type == TypeStop && addrCount == 0 {
				cap.Samples[ntype].Type = RegPollOK
				pack.SetHeader("Type", "Poll - OK")
				finish()
				state = stIdle
			} else {
				state = stIdle
			}

		case stPtrAck:
			if s.Type != TypeAck {
				state = stIdle
				continue
			}
			if s.Data != 0 {
				state = stIdle
				continue
			}
			if addrCount >= pointerBytes {
				cap.Append(tstart, end-tstart, RegSymbol{Type: RegAddress, Data: ptr})
				tstart = end
				state = stSelectOrFirstData
				pack.SetHeader("Address", fmt.Sprintf("%x", ptr))
			} else {
				state = stPtrByte
			}

		case stSelectOrFirstData:
			switch s.Type {
			case TypeRestart:
				cap.Samples[ntype].Type = RegSelectRead
				pack.SetHeader("Type", "Read")
				pack.DisplayHint = waveform.ColorDataRead
				state = stReadAddr
			case TypeData:
				cap.Append(tstart, end-tstart, RegSymbol{Type: RegData, Data: uint32(s.Data)})
				tstart = end
				pack.Data = append(pack.Data, s.Data)
				cap.Samples[ntype].Type = RegSelectWrite
				pack.SetHeader("Type", "Write")
				pack.DisplayHint = waveform.ColorDataWrite
				state = stDataAck
			default:
				state = stIdle
			}

		case stReadAddr:
			if s.Type != TypeAddress {
				state = stIdle
				continue
			}
			if s.Data&0xfe != lastDeviceAddr&0xfe || s.Data&1 == 0 {
				state = stIdle
				continue
			}
			state = stReadAddrAck

		case stReadAddrAck:
			if s.Type != TypeAck {
				state = stIdle
				continue
			}
			if s.Data != 0 {
				state = stIdle
				continue
			}
			nlast := len(cap.Offsets) - 1
			cap.Durations[nlast] = end - cap.Offsets[nlast]
			tstart = end
			state = stDataByte

		case stDataByte:
			if s.Type == TypeData {
				cap.Append(tstart, end-tstart, RegSymbol{Type: RegData, Data: uint32(s.Data)})
				pack.Data = append(pack.Data, s.Data)
				state = stDataAck
			} else {
				if s.Type == TypeStop {
					finish()
				}
				state = stIdle
			}

		case stDataAck:
			if s.Type != TypeAck {
				state = stIdle
				continue
			}
			nlast := len(cap.Offsets) - 1
			cap.Durations[nlast] = end - cap.Offsets[nlast]
			tstart = end
			if s.Data != 0 {
				finish()
				state = stIdle
			} else {
				state = stDataByte
			}
		}
	}

	return cap, packets
}
