// Package pcie implements the PCIe gen1/2 link training decoder
// (spec.md §4.4.6), ported from
// original_source/scopeprotocols/PCIeLinkTrainingDecoder.cpp.
package pcie

import (
	"fmt"
	"strings"

	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// LinkTrainingSymbolType classifies one field of a decoded TS1/TS2
// ordered set.
type LinkTrainingSymbolType int

const (
	TSHeader LinkTrainingSymbolType = iota
	TSLinkNumber
	TSLaneNumber
	TSNumFTS
	TSRateID
	TSTrainCtl
	TSID
	TSError
)

// LinkTrainingSymbol is one field symbol within a TS1/TS2 ordered set.
type LinkTrainingSymbol struct {
	Type LinkTrainingSymbolType
	Data byte
}

func (s LinkTrainingSymbol) String() string {
	switch s.Type {
	case TSHeader:
		if s.Data == 1 {
			return "TS1"
		}
		return "TS2"

	case TSID:
		if s.Data == 0x4a {
			return "TS1"
		}
		return "TS2"

	case TSLinkNumber:
		if s.Data == 0xf7 {
			return "Link: Unassigned"
		}
		return fmt.Sprintf("Link: %d", s.Data)

	case TSLaneNumber:
		if s.Data == 0xf7 {
			return "Lane: Unassigned"
		}
		return fmt.Sprintf("Lane: %d", s.Data)

	case TSNumFTS:
		return fmt.Sprintf("Need %d FTS", s.Data)

	case TSTrainCtl:
		return trainCtlFlags(s.Data, "No flags")

	case TSRateID:
		return rateIDFlags(s.Data)

	default:
		return "ERROR"
	}
}

func (s LinkTrainingSymbol) ColorHint() waveform.ColorHint {
	switch s.Type {
	case TSHeader, TSNumFTS, TSRateID, TSTrainCtl:
		return waveform.ColorControl
	case TSID:
		return waveform.ColorData
	case TSLinkNumber, TSLaneNumber:
		return waveform.ColorAddress
	default:
		return waveform.ColorError
	}
}

func trainCtlFlags(data byte, empty string) string {
	var b strings.Builder
	if data&0x01 != 0 {
		b.WriteString("Hot reset ")
	}
	if data&0x02 != 0 {
		b.WriteString("Disable link ")
	}
	if data&0x04 != 0 {
		b.WriteString("Loopback ")
	}
	if data&0x08 != 0 {
		b.WriteString("Disable scrambling ")
	}
	if data&0x10 != 0 {
		b.WriteString("Compliance Receive ")
	}
	if b.Len() == 0 {
		return empty
	}
	return strings.TrimRight(b.String(), " ")
}

func rateIDFlags(data byte) string {
	var b strings.Builder
	if data&0x02 != 0 {
		b.WriteString("2.5 GT/s ")
	}
	if data&0x04 != 0 {
		b.WriteString("5 GT/s ")
	}
	if data&0x08 != 0 {
		b.WriteString("8 GT/s ")
	}
	if data&0x80 != 0 {
		b.WriteString("Speed change")
	}
	return strings.TrimRight(b.String(), " ")
}

// LTSSMState is one state of the Link Training and Status State Machine
// this decoder is able to distinguish from the ordered-set stream alone.
type LTSSMState int

const (
	LTSSMDetect LTSSMState = iota
	LTSSMPollingActive
	LTSSMPollingConfiguration
	LTSSMConfiguration
	LTSSML0
	LTSSMRecoveryRcvrLock
	LTSSMRecoverySpeed
	LTSSMRecoveryRcvrCfg
)

// LTSSMSymbol is one dwell in the LTSSM state stream.
type LTSSMSymbol struct {
	State LTSSMState
}

func (s LTSSMSymbol) String() string {
	switch s.State {
	case LTSSMDetect:
		return "Detect"
	case LTSSMPollingActive:
		return "Polling.Active"
	case LTSSMPollingConfiguration:
		return "Polling.Configuration"
	case LTSSMConfiguration:
		return "Configuration"
	case LTSSML0:
		return "L0"
	case LTSSMRecoveryRcvrLock:
		return "Recovery.RcvrLock"
	case LTSSMRecoverySpeed:
		return "Recovery.Speed"
	case LTSSMRecoveryRcvrCfg:
		return "Recovery.RcvrCfg"
	default:
		return "ERROR"
	}
}

func (s LTSSMSymbol) ColorHint() waveform.ColorHint {
	switch s.State {
	case LTSSMDetect:
		return waveform.ColorIdle
	case LTSSML0:
		return waveform.ColorData
	case LTSSMPollingActive, LTSSMPollingConfiguration, LTSSMConfiguration,
		LTSSMRecoveryRcvrLock, LTSSMRecoverySpeed, LTSSMRecoveryRcvrCfg:
		return waveform.ColorControl
	default:
		return waveform.ColorError
	}
}
