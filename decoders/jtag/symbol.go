// Package jtag implements the IEEE 1149.1 Test Access Port decoder
// (spec.md §4.4.4), ported from
// original_source/scopeprotocols/JtagDecoder.cpp.
package jtag

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// State is a TAP controller state. The five Unknown states form a
// resync chain in the transition tables: TMS high steps Unknown0 through
// Unknown4 and then to TestLogicReset, TMS low returns to Unknown0. No
// transition from the sixteen real states leads into them, and Decode
// starts in RunTestIdle, so Decode never enters them.
type State int

const (
	TestLogicReset State = iota
	RunTestIdle
	SelectDRScan
	SelectIRScan
	CaptureDR
	CaptureIR
	ShiftDR
	ShiftIR
	Exit1DR
	Exit1IR
	PauseDR
	PauseIR
	Exit2DR
	Exit2IR
	UpdateDR
	UpdateIR
	Unknown0
	Unknown1
	Unknown2
	Unknown3
	Unknown4
)

var stateNames = [...]string{
	"TLR", "RTI", "SLDR", "SLIR", "CDR", "CIR", "SDR", "SIR",
	"E1DR", "E1IR", "PDR", "PIR", "E2DR", "E2IR", "UDR", "UIR",
	"UNK0", "UNK1", "UNK2", "UNK3", "UNK4",
}

func (s State) String() string {
	if int(s) < 0 || int(s) >= len(stateNames) {
		return "?"
	}
	return stateNames[s]
}

// stateIfTMSHigh and stateIfTMSLow are the TAP transition tables, ported
// verbatim from JtagDecoder::Refresh's local tables.
var stateIfTMSHigh = [...]State{
	TestLogicReset, // from TestLogicReset
	SelectDRScan,   // from RunTestIdle
	SelectIRScan,   // from SelectDRScan
	TestLogicReset, // from SelectIRScan
	Exit1DR,        // from CaptureDR
	Exit1IR,        // from CaptureIR
	Exit1DR,        // from ShiftDR
	Exit1IR,        // from ShiftIR
	UpdateDR,       // from Exit1DR
	UpdateIR,       // from Exit1IR
	Exit2DR,        // from PauseDR
	Exit2IR,        // from PauseIR
	UpdateDR,       // from Exit2DR
	UpdateIR,       // from Exit2IR
	SelectDRScan,   // from UpdateDR
	SelectDRScan,   // from UpdateIR
	Unknown1, Unknown2, Unknown3, Unknown4, TestLogicReset,
}

var stateIfTMSLow = [...]State{
	RunTestIdle, // from TestLogicReset
	RunTestIdle, // from RunTestIdle
	CaptureDR,   // from SelectDRScan
	CaptureIR,   // from SelectIRScan
	ShiftDR,     // from CaptureDR
	ShiftIR,     // from CaptureIR
	ShiftDR,     // from ShiftDR
	ShiftIR,     // from ShiftIR
	PauseDR,     // from Exit1DR
	PauseIR,     // from Exit1IR
	PauseDR,     // from PauseDR
	PauseIR,     // from PauseIR
	ShiftDR,     // from Exit2DR
	ShiftIR,     // from Exit2IR
	RunTestIdle, // from UpdateDR
	RunTestIdle, // from UpdateIR
	Unknown0, Unknown0, Unknown0, Unknown0, Unknown0,
}

// Symbol is one TAP state dwell, with the bits shifted through TDI/TDO
// while in that state (only meaningful for ShiftDR/ShiftIR).
type Symbol struct {
	State State
	TDI   byte
	TDO   byte
	Bits  int
}

func (s Symbol) String() string {
	if s.Bits == 0 {
		return s.State.String()
	}
	if s.Bits == 8 {
		return fmt.Sprintf("%02x / %02x", s.TDI, s.TDO)
	}
	return fmt.Sprintf("%d'h%02x / %d'h%02x", s.Bits, s.TDI, s.Bits, s.TDO)
}

func (s Symbol) ColorHint() waveform.ColorHint {
	switch s.State {
	case Unknown0, Unknown1, Unknown2, Unknown3, Unknown4:
		return waveform.ColorError
	case ShiftDR, ShiftIR:
		return waveform.ColorData
	default:
		return waveform.ColorControl
	}
}
