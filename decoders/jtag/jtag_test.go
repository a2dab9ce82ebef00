package jtag

import (
	"testing"

	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// buildTAPTrace constructs TDI/TDO/TMS/TCK uniform waveforms driving the
// TAP through RTI -> SelectDRScan -> CaptureDR -> ShiftDR (3 bits) ->
// Exit1DR -> UpdateDR -> RunTestIdle. TCK toggles every tick; the value
// presented to SampleOnEdges at rising-edge step k is whatever sits at
// index 2k (the settled value going into the edge at index 2k+1).
func buildTAPTrace() (tdi, tdo, tms, tck *waveform.Uniform[bool]) {
	const n = 16
	tckSamples := make([]bool, n)
	tmsSamples := make([]bool, n)
	tdiSamples := make([]bool, n)
	tdoSamples := make([]bool, n)
	for i := 0; i < n; i++ {
		tckSamples[i] = i%2 == 1
	}

	// step k's value lives at index 2k.
	tmsStep := []bool{true, false, false, false, false, true, true, false}
	for k, v := range tmsStep {
		tmsSamples[2*k] = v
	}
	tdiSamples[2*3] = true
	tdiSamples[2*4] = false
	tdiSamples[2*5] = true
	tdoSamples[2*3] = false
	tdoSamples[2*4] = true
	tdoSamples[2*5] = true

	mk := func(s []bool) *waveform.Uniform[bool] {
		w := &waveform.Uniform[bool]{Samples: s}
		w.Timescale = 1
		return w
	}
	return mk(tdiSamples), mk(tdoSamples), mk(tmsSamples), mk(tckSamples)
}

func TestDecodeShiftDRProducesWriteReadPacketPair(t *testing.T) {
	tdi, tdo, tms, tck := buildTAPTrace()
	cap, packets := Decode(tdi, tdo, tms, tck)

	wantStates := []State{RunTestIdle, SelectDRScan, CaptureDR, ShiftDR, Exit1DR, UpdateDR}
	if cap.Len() != len(wantStates) {
		t.Fatalf("Decode() produced %d symbols, want %d", cap.Len(), len(wantStates))
	}
	for i, want := range wantStates {
		if cap.Samples[i].State != want {
			t.Errorf("symbol[%d].State = %v, want %v", i, cap.Samples[i].State, want)
		}
	}

	shiftSym := cap.Samples[3]
	if shiftSym.Bits != 3 {
		t.Fatalf("ShiftDR symbol.Bits = %d, want 3", shiftSym.Bits)
	}
	if shiftSym.TDI != 0x05 {
		t.Errorf("ShiftDR symbol.TDI = %#x, want 0x05", shiftSym.TDI)
	}
	if shiftSym.TDO != 0x03 {
		t.Errorf("ShiftDR symbol.TDO = %#x, want 0x03", shiftSym.TDO)
	}

	if len(packets) != 2 {
		t.Fatalf("got %d packets, want 2 (write+read)", len(packets))
	}
	write, read := packets[0], packets[1]

	if op, _ := write.Header("Operation"); op != "DR write" {
		t.Errorf("write packet Operation = %q, want %q", op, "DR write")
	}
	if bits, _ := write.Header("Bits"); bits != "3" {
		t.Errorf("write packet Bits = %q, want %q", bits, "3")
	}
	if len(write.Data) != 1 || write.Data[0] != 0x05 {
		t.Errorf("write packet Data = %v, want [0x05]", write.Data)
	}

	if op, _ := read.Header("Operation"); op != "DR read" {
		t.Errorf("read packet Operation = %q, want %q", op, "DR read")
	}
	if len(read.Data) != 1 || read.Data[0] != 0x03 {
		t.Errorf("read packet Data = %v, want [0x03]", read.Data)
	}
}

func TestStateIfTMSTransitionTables(t *testing.T) {
	if stateIfTMSHigh[RunTestIdle] != SelectDRScan {
		t.Errorf("TMS high from RunTestIdle = %v, want SelectDRScan", stateIfTMSHigh[RunTestIdle])
	}
	if stateIfTMSLow[RunTestIdle] != RunTestIdle {
		t.Errorf("TMS low from RunTestIdle = %v, want RunTestIdle", stateIfTMSLow[RunTestIdle])
	}
	if stateIfTMSHigh[SelectIRScan] != TestLogicReset {
		t.Errorf("TMS high from SelectIRScan = %v, want TestLogicReset", stateIfTMSHigh[SelectIRScan])
	}
	if stateIfTMSLow[Unknown3] != Unknown0 {
		t.Errorf("TMS low from Unknown3 = %v, want Unknown0", stateIfTMSLow[Unknown3])
	}
}

func TestSymbolStringFormats(t *testing.T) {
	s := Symbol{State: RunTestIdle}
	if got := s.String(); got != "RTI" {
		t.Errorf("String() on zero-bit symbol = %q, want %q", got, "RTI")
	}
	s8 := Symbol{State: ShiftDR, TDI: 0xab, TDO: 0xcd, Bits: 8}
	if got := s8.String(); got != "ab / cd" {
		t.Errorf("String() on 8-bit symbol = %q, want %q", got, "ab / cd")
	}
}

func TestSymbolColorHintClassifiesUnknownAsError(t *testing.T) {
	if (Symbol{State: Unknown2}).ColorHint() != waveform.ColorError {
		t.Error("ColorHint() for Unknown2, want ColorError")
	}
	if (Symbol{State: ShiftIR}).ColorHint() != waveform.ColorData {
		t.Error("ColorHint() for ShiftIR, want ColorData")
	}
	if (Symbol{State: RunTestIdle}).ColorHint() != waveform.ColorControl {
		t.Error("ColorHint() for RunTestIdle, want ColorControl")
	}
}
