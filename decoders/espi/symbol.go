// Package espi decodes Intel's Enhanced Serial Peripheral Interface
// (eSPI Base Specification, Intel doc 327432-004), spec.md §4.4.9: a
// clock/chip-select/four-data-line bus with runtime x1/x4 width
// auto-detection, opcode-framed command/response packets, and a
// CRC8 trailer on both halves of each transaction.
package espi

import "github.com/ngscopeclient/scopehal-sub005/waveform"

// SymbolType classifies one decoded eSPI framing byte or multi-byte
// field.
type SymbolType int

const (
	TypeCommandType SymbolType = iota
	TypeCapsAddr
	TypeCommandData32
	TypeCommandCRCGood
	TypeCommandCRCBad
	TypeResponseOp
	TypeResponseStatus
	TypeResponseData32
	TypeResponseCRCGood
	TypeResponseCRCBad
	TypeVWireCount
	TypeVWireIndex
	TypeVWireData
	TypeIOAddr
	TypeIOData
	TypeWait
	TypeUnsupported
	TypeError
)

// Symbol is one decoded eSPI field; Data holds its value (sized per
// field: one byte for most, 16 bits for an I/O address, 32 bits for a
// configuration register).
type Symbol struct {
	Type SymbolType
	Data uint64
}

func (s Symbol) String() string {
	switch s.Type {
	case TypeCommandType:
		return "Cmd " + commandName(Command(s.Data))
	case TypeCapsAddr:
		return "Addr " + hex64(s.Data)
	case TypeCommandData32:
		return "Data " + hex64(s.Data)
	case TypeCommandCRCGood:
		return "CRC OK"
	case TypeCommandCRCBad:
		return "CRC BAD"
	case TypeResponseOp:
		return "Resp " + hex64(s.Data)
	case TypeResponseStatus:
		return "Status " + hex64(s.Data)
	case TypeResponseData32:
		return "Data " + hex64(s.Data)
	case TypeResponseCRCGood:
		return "CRC OK"
	case TypeResponseCRCBad:
		return "CRC BAD"
	case TypeVWireCount:
		return "VWire count"
	case TypeVWireIndex:
		return "VWire index"
	case TypeVWireData:
		return "VWire data"
	case TypeIOAddr:
		return "IO addr " + hex64(s.Data)
	case TypeIOData:
		return "IO data " + hex64(s.Data)
	case TypeWait:
		return "WAIT"
	case TypeUnsupported:
		return "unsupported opcode"
	default:
		return "error"
	}
}

func (s Symbol) ColorHint() waveform.ColorHint {
	switch s.Type {
	case TypeCommandCRCBad, TypeResponseCRCBad, TypeError:
		return waveform.ColorError
	case TypeCommandCRCGood, TypeResponseCRCGood:
		return waveform.ColorChecksumOK
	case TypeCommandType, TypeResponseOp:
		return waveform.ColorControl
	case TypeIOAddr, TypeCapsAddr:
		return waveform.ColorAddress
	case TypeWait:
		return waveform.ColorIdle
	default:
		return waveform.ColorData
	}
}

// Command is an eSPI opcode byte (Table 6 / Figure 37 / Figure 40 of the
// eSPI base specification).
type Command byte

const (
	CommandPutPC             Command = 0x00
	CommandGetPC             Command = 0x01
	CommandPutNP             Command = 0x02
	CommandGetNP             Command = 0x03
	CommandPutVWire          Command = 0x04
	CommandGetVWire          Command = 0x05
	CommandPutOOB            Command = 0x06
	CommandGetOOB            Command = 0x07
	CommandPutFlashC         Command = 0x08
	CommandGetFlashNP        Command = 0x09
	CommandGetConfiguration  Command = 0x21
	CommandSetConfiguration  Command = 0x22
	CommandGetStatus         Command = 0x25
	CommandPutIORDShortX1    Command = 0x40
	CommandPutIORDShortX2    Command = 0x41
	CommandPutIORDShortX4    Command = 0x43
	CommandPutIOWRShortX1    Command = 0x44
	CommandPutIOWRShortX2    Command = 0x45
	CommandPutIOWRShortX4    Command = 0x47
	CommandPutMemRD32ShortX1 Command = 0x48
	CommandPutMemRD32ShortX2 Command = 0x49
	CommandPutMemRD32ShortX4 Command = 0x4b
	CommandPutMemWR32ShortX1 Command = 0x4c
	CommandPutMemWR32ShortX2 Command = 0x4d
	CommandPutMemWR32ShortX4 Command = 0x4f
	CommandReset             Command = 0xff
)

// BusWidth selects how many DQ lines carry each bit (eSPI x1/x4 modes).
type BusWidth int

const (
	BusWidthAuto BusWidth = iota
	BusWidthX1
	BusWidthX4
)
