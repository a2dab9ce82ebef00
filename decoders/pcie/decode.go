package pcie

import (
	"strconv"

	"github.com/ngscopeclient/scopehal-sub005/decoders/ibm8b10b"
	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

const (
	comma   = 0xbc // K28.5
	eios    = 0x7c // K28.3, electrical idle ordered set
	fts     = 0xfc // K28.7, fast training sequence
	skipSym = 0x1c // K28.0
	d102    = 0x4a // D10.2
	pad     = 0xf7 // K23.7
	ts1Sym  = 0x4a // D10.2
	ts2Sym  = 0x45 // D5.2
)

// DecodeLinkTraining walks an 8b/10b symbol stream looking for PCIe gen1/2
// TS1/TS2 ordered sets, tracks the implied LTSSM state, and emits one
// packet per recognized training set (spec.md §4.4.6 Link Training),
// ported from PCIeLinkTrainingDecoder::Refresh.
func DecodeLinkTraining(din *waveform.Sparse[ibm8b10b.Symbol]) (
	*waveform.Sparse[LinkTrainingSymbol], *waveform.Sparse[LTSSMSymbol], []*packet.Packet,
) {
	cap := waveform.NewSparse[LinkTrainingSymbol]()
	cap.CopyTimebaseFrom(&din.Timebase)

	scap := waveform.NewSparse[LTSSMSymbol]()
	scap.CopyTimebaseFrom(&din.Timebase)

	var packets []*packet.Packet

	n := din.Len()
	if n < 16 {
		return cap, scap, packets
	}
	end := n - 15

	i := 0
	for ; i < n-3; i++ {
		if din.Samples[i].Control && din.Samples[i].Data == comma {
			break
		}
	}

	lstate := LTSSMDetect
	scap.Append(0, 0, LTSSMSymbol{State: LTSSMDetect})

	extendLast := func(toOffset int64) {
		last := len(scap.Offsets) - 1
		scap.Durations[last] = toOffset - scap.Offsets[last]
	}
	enterState := func(state LTSSMState, offset, duration int64) {
		lstate = state
		scap.Append(offset, duration, LTSSMSymbol{State: state})
	}

	for ; i < end; i++ {
		s := din.Samples[i]

		if s.Control && s.Data == eios {
			if lstate == LTSSMRecoverySpeed {
				extendLast(din.Offsets[i])
				enterState(LTSSMRecoveryRcvrLock, din.Offsets[i], din.Durations[i])
			}
			continue
		}

		if s.Control && s.Data == fts {
			for i < end && din.Samples[i].Control && din.Samples[i].Data == fts {
				i++
			}
			if i < end && !din.Samples[i].Control && din.Samples[i].Data == d102 {
				continue
			}
		}

		if !s.Control || s.Data != comma {
			if lstate == LTSSMConfiguration || lstate == LTSSMRecoveryRcvrCfg {
				enterState(LTSSML0, din.Offsets[i], din.Durations[i])
			}
			if lstate == LTSSML0 {
				extendLast(din.Offsets[i] + din.Durations[i])
			}
			continue
		}

		if i+3 < end &&
			din.Samples[i+1].Control && din.Samples[i+1].Data == skipSym &&
			din.Samples[i+2].Control && din.Samples[i+2].Data == skipSym &&
			din.Samples[i+3].Control && din.Samples[i+3].Data == skipSym {
			i += 3
			continue
		}

		if din.Samples[i+1].Control && din.Samples[i+1].Data != pad {
			continue
		}
		if din.Samples[i+2].Control && din.Samples[i+2].Data != pad {
			continue
		}
		if !din.Samples[i+2].Control && din.Samples[i+2].Data > 31 {
			continue
		}

		hitTS1, hitTS2 := true, true
		for k := 0; k < 6; k++ {
			if din.Samples[i+10+k].Control {
				hitTS1, hitTS2 = false, false
				break
			}
			if din.Samples[i+10+k].Data != ts1Sym {
				hitTS1 = false
			}
			if din.Samples[i+10+k].Data != ts2Sym {
				hitTS2 = false
			}
		}
		if !hitTS1 && !hitTS2 {
			continue
		}

		pk := &packet.Packet{
			OffsetFS: din.OffsetFSSparse(din.Offsets[i]),
			LengthFS: (din.Offsets[i+15] + din.Durations[i+15] - din.Offsets[i]) * din.Timescale,
		}
		packets = append(packets, pk)

		if hitTS1 {
			cap.Append(din.Offsets[i], din.Durations[i], LinkTrainingSymbol{Type: TSHeader, Data: 1})
			pk.SetHeader("Type", "TS1")
		} else {
			cap.Append(din.Offsets[i], din.Durations[i], LinkTrainingSymbol{Type: TSHeader, Data: 2})
			pk.SetHeader("Type", "TS2")
		}

		linkID := din.Samples[i+1].Data
		cap.Append(din.Offsets[i+1], din.Durations[i+1], LinkTrainingSymbol{Type: TSLinkNumber, Data: linkID})
		if linkID == pad {
			pk.SetHeader("Link", "Unassigned")
		} else {
			pk.SetHeader("Link", strconv.Itoa(int(linkID)))
		}

		laneID := din.Samples[i+2].Data
		cap.Append(din.Offsets[i+2], din.Durations[i+2], LinkTrainingSymbol{Type: TSLaneNumber, Data: laneID})
		if laneID == pad {
			pk.SetHeader("Lane", "Unassigned")
		} else {
			pk.SetHeader("Lane", strconv.Itoa(int(laneID)))
		}

		numFTS := din.Samples[i+3].Data
		cap.Append(din.Offsets[i+3], din.Durations[i+3], LinkTrainingSymbol{Type: TSNumFTS, Data: numFTS})
		pk.SetHeader("Num FTS", strconv.Itoa(int(numFTS)))

		rates := din.Samples[i+4].Data
		cap.Append(din.Offsets[i+4], din.Durations[i+4], LinkTrainingSymbol{Type: TSRateID, Data: rates})
		srates := rateIDFlags(rates)
		if rates&0x80 != 0 {
			pk.DisplayHint = waveform.ColorControl
		}
		pk.SetHeader("Rates", srates)

		flags := din.Samples[i+5].Data
		cap.Append(din.Offsets[i+5], din.Durations[i+5], LinkTrainingSymbol{Type: TSTrainCtl, Data: flags})
		pk.SetHeader("Flags", trainCtlFlags(flags, "None"))

		cap.Append(din.Offsets[i+6], din.Offsets[i+15]+din.Durations[i+15]-din.Offsets[i+6],
			LinkTrainingSymbol{Type: TSID, Data: din.Samples[i+6].Data})

		switch lstate {
		case LTSSML0:
			enterState(LTSSMRecoveryRcvrLock, din.Offsets[i], din.Durations[i])

		case LTSSMDetect:
			if hitTS1 && din.Samples[i+1].Data == pad {
				extendLast(din.Offsets[i])
				enterState(LTSSMPollingActive, din.Offsets[i], din.Durations[i])
			}

		case LTSSMRecoveryRcvrLock:
			if rates&0x80 != 0 {
				enterState(LTSSMRecoverySpeed, din.Offsets[i], din.Durations[i])
			} else {
				enterState(LTSSMRecoveryRcvrCfg, din.Offsets[i], din.Durations[i])
			}

		case LTSSMRecoveryRcvrCfg:
			extendLast(din.Offsets[i] + din.Durations[i])

		case LTSSMRecoverySpeed:
			// No transition on a training set seen in this state.

		case LTSSMPollingActive:
			if hitTS2 {
				enterState(LTSSMPollingConfiguration, din.Offsets[i], din.Durations[i])
			} else {
				extendLast(din.Offsets[i] + din.Durations[i])
			}

		case LTSSMPollingConfiguration:
			if hitTS1 {
				enterState(LTSSMConfiguration, din.Offsets[i], din.Durations[i])
			} else {
				extendLast(din.Offsets[i] + din.Durations[i])
			}

		case LTSSMConfiguration:
			extendLast(din.Offsets[i] + din.Durations[i])
		}

		i += 15
	}

	return cap, scap, packets
}
