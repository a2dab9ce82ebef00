// Package usb implements the USB 1.x/2.0 PMA -> PCS -> Packet decoder
// pipeline (spec.md §4.4.4), ported and condensed from
// original_source/scopeprotocols/USB2PMADecoder.cpp,
// USB2PCSDecoder.cpp, and USB2PacketDecoder.cpp.
package usb

import "github.com/ngscopeclient/scopehal-sub005/waveform"

// Speed selects the UI width and transition-time thresholds used by both
// the PMA and PCS stages.
type Speed int

const (
	SpeedLow  Speed = iota // 1.5 Mbps
	SpeedFull              // 12 Mbps
	SpeedHigh              // 480 Mbps
)

// uiWidthFS returns one unit interval in femtoseconds for the given speed.
func (s Speed) uiWidthFS() int64 {
	switch s {
	case SpeedHigh:
		return 2083000
	case SpeedFull:
		return 83333000
	default:
		return 666666000
	}
}

// transitionTimeFS is the glitch-absorption window: SE0/SE1 spans shorter
// than this are folded into the adjacent J/K symbol (spec.md §4.4.4 PMA).
// It is one unit interval at the given speed.
func (s Speed) transitionTimeFS() int64 {
	return s.uiWidthFS()
}

// PMALineState is the line-level classification produced by the PMA
// stage.
type PMALineState int

const (
	LineJ PMALineState = iota
	LineK
	LineSE0
	LineSE1
)

// PMASymbol is one run of constant line state.
type PMASymbol struct {
	State PMALineState
}

func (s PMASymbol) String() string {
	switch s.State {
	case LineJ:
		return "J"
	case LineK:
		return "K"
	case LineSE0:
		return "SE0"
	default:
		return "SE1"
	}
}

func (s PMASymbol) ColorHint() waveform.ColorHint {
	switch s.State {
	case LineJ, LineK:
		return waveform.ColorData
	case LineSE0:
		return waveform.ColorPreamble
	default:
		return waveform.ColorError
	}
}

// PCSSymbolType classifies one PCS-stage symbol.
type PCSSymbolType int

const (
	PCSSync PCSSymbolType = iota
	PCSByte
	PCSEOP
	PCSError
)

// PCSSymbol is one byte-granular PCS output sample, after NRZI decode and
// bit-unstuffing (spec.md §4.4.4 PCS).
type PCSSymbol struct {
	Type PCSSymbolType
	Data byte
}

func (s PCSSymbol) String() string {
	switch s.Type {
	case PCSSync:
		return "SYNC"
	case PCSEOP:
		return "EOP"
	case PCSError:
		return "ERR"
	default:
		return byteHex(s.Data)
	}
}

func byteHex(b byte) string {
	const hex = "0123456789abcdef"
	return string([]byte{hex[b>>4], hex[b&0xf]})
}

func (s PCSSymbol) ColorHint() waveform.ColorHint {
	switch s.Type {
	case PCSError:
		return waveform.ColorError
	case PCSEOP, PCSSync:
		return waveform.ColorPreamble
	default:
		return waveform.ColorData
	}
}

// PID is the 4-bit USB packet identifier, per USB 2.0 table 8-1.
type PID byte

const (
	PIDReserved PID = 0x0
	PIDOut      PID = 0x1
	PIDAck      PID = 0x2
	PIDData0    PID = 0x3
	PIDPing     PID = 0x4
	PIDSOF      PID = 0x5
	PIDNyet     PID = 0x6
	PIDData2    PID = 0x7
	PIDSplit    PID = 0x8
	PIDIn       PID = 0x9
	PIDNak      PID = 0xa
	PIDData1    PID = 0xb
	PIDPreErr   PID = 0xc
	PIDSetup    PID = 0xd
	PIDStall    PID = 0xe
	PIDMData    PID = 0xf
)

func (p PID) String() string {
	switch p {
	case PIDOut:
		return "OUT"
	case PIDAck:
		return "ACK"
	case PIDData0:
		return "DATA0"
	case PIDPing:
		return "PING"
	case PIDSOF:
		return "SOF"
	case PIDNyet:
		return "NYET"
	case PIDData2:
		return "DATA2"
	case PIDSplit:
		return "SPLIT"
	case PIDIn:
		return "IN"
	case PIDNak:
		return "NAK"
	case PIDData1:
		return "DATA1"
	case PIDPreErr:
		return "PRE/ERR"
	case PIDSetup:
		return "SETUP"
	case PIDStall:
		return "STALL"
	case PIDMData:
		return "MDATA"
	default:
		return "RESERVED"
	}
}

func (p PID) isToken() bool {
	switch p {
	case PIDOut, PIDIn, PIDSetup, PIDPing:
		return true
	}
	return false
}

func (p PID) isData() bool {
	switch p {
	case PIDData0, PIDData1, PIDData2, PIDMData:
		return true
	}
	return false
}

func (p PID) isHandshake() bool {
	switch p {
	case PIDAck, PIDNak, PIDStall, PIDNyet:
		return true
	}
	return false
}
