// Package i2c decodes an I2C bus captured as two digital waveforms (SDA,
// SCL) into a symbol stream and a packet list, grounded on
// I2CDecoder.cpp/I2CDecoder.h from the original scopeprotocols sources.
package i2c

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// SymbolType tags the kind of bus activity a Symbol represents.
type SymbolType int

const (
	TypeError SymbolType = iota
	TypeStart
	TypeRestart
	TypeStop
	TypeData
	TypeAddress
	TypeAck
)

// Symbol is one decoded bus event or byte.
type Symbol struct {
	Type SymbolType
	Data byte
}

func (s Symbol) String() string {
	switch s.Type {
	case TypeStart:
		return "START"
	case TypeRestart:
		return "RESTART"
	case TypeStop:
		return "STOP"
	case TypeAck:
		if s.Data != 0 {
			return "NAK"
		}
		return "ACK"
	case TypeAddress:
		if s.Data&1 != 0 {
			return fmt.Sprintf("R:%02x", s.Data&0xfe)
		}
		return fmt.Sprintf("W:%02x", s.Data&0xfe)
	case TypeData:
		return fmt.Sprintf("%02x", s.Data)
	default:
		return "ERR"
	}
}

func (s Symbol) ColorHint() waveform.ColorHint {
	switch s.Type {
	case TypeError:
		return waveform.ColorError
	case TypeAddress:
		return waveform.ColorAddress
	case TypeData:
		return waveform.ColorData
	case TypeAck:
		if s.Data != 0 {
			return waveform.ColorIdle
		}
		return waveform.ColorChecksumOK
	default:
		return waveform.ColorControl
	}
}
