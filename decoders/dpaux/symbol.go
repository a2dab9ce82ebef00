// Package dpaux decodes the DisplayPort AUX channel (spec.md §4.4.10): a
// Manchester-II-coded half-duplex link carrying both native DisplayPort
// sideband requests/replies and tunneled I2C-over-AUX traffic, grounded
// on DPAuxChannelDecoder.cpp/.h from the original scopeprotocols sources.
package dpaux

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// SymbolType classifies one decoded AUX framing field.
type SymbolType int

const (
	TypeError SymbolType = iota
	TypePreamble
	TypeSync
	TypeCommand
	TypeAddress
	TypeI2CAddress
	TypeLen
	TypePad
	TypeAUXReply
	TypeI2CReply
	TypeData
	TypeStop
)

// Symbol is one decoded AUX field; Data is sized for the widest field
// (the 20-bit address).
type Symbol struct {
	Type SymbolType
	Data uint32
}

func (s Symbol) String() string {
	switch s.Type {
	case TypePreamble:
		return "PREAMBLE"
	case TypeSync:
		return "SYNC"
	case TypeCommand:
		return commandName(byte(s.Data))
	case TypeAddress, TypeI2CAddress:
		return fmt.Sprintf("Addr %05x", s.Data)
	case TypeLen:
		return fmt.Sprintf("Len %d", s.Data+1)
	case TypePad:
		return "PAD"
	case TypeAUXReply:
		return replyName(byte(s.Data))
	case TypeI2CReply:
		return replyName(byte(s.Data))
	case TypeData:
		return fmt.Sprintf("%02x", s.Data)
	case TypeStop:
		return "STOP"
	default:
		return "ERR"
	}
}

func (s Symbol) ColorHint() waveform.ColorHint {
	switch s.Type {
	case TypeError:
		return waveform.ColorError
	case TypePreamble, TypeSync, TypeStop, TypePad:
		return waveform.ColorPreamble
	case TypeCommand, TypeAUXReply, TypeI2CReply, TypeLen:
		return waveform.ColorControl
	case TypeAddress, TypeI2CAddress:
		return waveform.ColorAddress
	default:
		return waveform.ColorData
	}
}

// command nibble bits (DisplayPort Standard, AUX_REQUEST Table 2-76).
const (
	cmdNativeDP = 0x8
	cmdMOT      = 0x4 // I2C "middle of transaction": keep the tunneled transaction open
)

func isNativeDP(cmd byte) bool { return cmd&cmdNativeDP != 0 }
func isWrite(cmd byte) bool    { return cmd&0x3 == 0 }

func commandName(cmd byte) string {
	write := isWrite(cmd)
	if isNativeDP(cmd) {
		if write {
			return "DP Write"
		}
		return "DP Read"
	}
	if write {
		return "I2C Write"
	}
	return "I2C Read"
}

func replyName(code byte) string {
	switch code & 0x3 {
	case 0:
		return "ACK"
	case 1:
		return "NACK"
	case 2:
		return "DEFER"
	default:
		return "NACK"
	}
}
