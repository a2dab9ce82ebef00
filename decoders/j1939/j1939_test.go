package j1939

import (
	"testing"

	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

func mkPDU(entries ...PDUSymbol) *waveform.Sparse[PDUSymbol] {
	w := waveform.NewSparse[PDUSymbol]()
	w.Timescale = 1
	for i, e := range entries {
		w.Append(int64(i*10), 10, e)
	}
	return w
}

func TestDecodeMatchingFrameSetsBitTrue(t *testing.T) {
	// PGN 0xfeca, two payload bytes 0x12 0x34 -> payload = 0x1234.
	pdu := mkPDU(
		PDUSymbol{Type: TypePRI},
		PDUSymbol{Type: TypePGN, Data: 0xfeca},
		PDUSymbol{Type: TypeData, Data: 0x12},
		PDUSymbol{Type: TypeData, Data: 0x34},
		PDUSymbol{Type: TypePRI},
	)

	out := Decode(pdu, 0xfeca, 0xffff, 0x1234, false)

	if out.Len() != 2 {
		t.Fatalf("got %d samples, want 2 (initial, match)", out.Len())
	}
	if out.Samples[0] != false {
		t.Errorf("initial sample = %v, want false", out.Samples[0])
	}
	if out.Samples[1] != true {
		t.Errorf("matched-frame sample = %v, want true (payload 0x1234 & 0xffff == 0x1234)", out.Samples[1])
	}
}

func TestDecodeNonMatchingPayloadSetsBitFalse(t *testing.T) {
	pdu := mkPDU(
		PDUSymbol{Type: TypePRI},
		PDUSymbol{Type: TypePGN, Data: 0xfeca},
		PDUSymbol{Type: TypeData, Data: 0x12},
		PDUSymbol{Type: TypeData, Data: 0x99},
		PDUSymbol{Type: TypePRI},
	)

	out := Decode(pdu, 0xfeca, 0xffff, 0x1234, false)

	if out.Samples[1] != false {
		t.Errorf("non-matching payload sample = %v, want false", out.Samples[1])
	}
}

func TestDecodeIgnoresNonTargetPGN(t *testing.T) {
	pdu := mkPDU(
		PDUSymbol{Type: TypePRI},
		PDUSymbol{Type: TypePGN, Data: 0xbeef},
		PDUSymbol{Type: TypeData, Data: 0xff},
		PDUSymbol{Type: TypePRI},
		PDUSymbol{Type: TypePGN, Data: 0xfeca},
		PDUSymbol{Type: TypeData, Data: 0x12},
		PDUSymbol{Type: TypeData, Data: 0x34},
		PDUSymbol{Type: TypePRI},
	)

	out := Decode(pdu, 0xfeca, 0xffff, 0x1234, false)

	// Only the second frame (matching PGN) should have produced a sample.
	if out.Len() != 2 {
		t.Fatalf("got %d samples, want 2 (initial, match)", out.Len())
	}
	if out.Samples[1] != true {
		t.Errorf("matched-frame sample = %v, want true", out.Samples[1])
	}
}

func TestDecodeMaskSelectsSubfield(t *testing.T) {
	// payload byte 0x34, masking the low nibble only: 0x34 & 0x0f == 0x04.
	pdu := mkPDU(
		PDUSymbol{Type: TypePRI},
		PDUSymbol{Type: TypePGN, Data: 0xfeca},
		PDUSymbol{Type: TypeData, Data: 0x34},
		PDUSymbol{Type: TypePRI},
	)

	out := Decode(pdu, 0xfeca, 0x0f, 0x04, false)
	if out.Samples[1] != true {
		t.Errorf("masked sample = %v, want true (0x34 & 0x0f == 0x04)", out.Samples[1])
	}
}

func TestDecodeEmptyInputReturnsEmptyWaveform(t *testing.T) {
	pdu := waveform.NewSparse[PDUSymbol]()
	out := Decode(pdu, 0xfeca, 0xff, 0, true)
	if out.Len() != 0 {
		t.Errorf("got %d samples, want 0 for empty input", out.Len())
	}
}
