package qsgmii

import (
	"testing"

	"github.com/ngscopeclient/scopehal-sub005/decoders/ibm8b10b"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

func mk8b10b(entries ...ibm8b10b.Symbol) *waveform.Sparse[ibm8b10b.Symbol] {
	w := waveform.NewSparse[ibm8b10b.Symbol]()
	w.Timescale = 1
	for i, e := range entries {
		w.Append(int64(i*10), 10, e)
	}
	return w
}

func ctrl(data byte) ibm8b10b.Symbol  { return ibm8b10b.Symbol{Control: true, Data: data} }
func datum(data byte) ibm8b10b.Symbol { return ibm8b10b.Symbol{Control: false, Data: data} }

func TestDecodeSplitsFourLanesOnK28Dot1Comma(t *testing.T) {
	din := mk8b10b(
		ctrl(qsgmiiComma), // 0: lane 0
		datum(0xa1),       // 1: lane 1
		datum(0xa2),       // 2: lane 2
		datum(0xa3),       // 3: lane 3
		ctrl(qsgmiiComma), // 4: lane 0
		datum(0xb1),       // 5: lane 1
		datum(0xb2),       // 6: lane 2
		datum(0xb3),       // 7: lane 3
	)

	lanes := Decode(din)

	if lanes[0].Len() != 2 {
		t.Fatalf("lane 0 got %d symbols, want 2", lanes[0].Len())
	}
	for i, want := range []int64{0, 40} {
		if lanes[0].Offsets[i] != want {
			t.Errorf("lane 0 symbol %d offset = %d, want %d", i, lanes[0].Offsets[i], want)
		}
	}
	for i, s := range lanes[0].Samples {
		if !s.Control || s.Data != sgmiiComma {
			t.Errorf("lane 0 symbol %d = %+v, want K28.5 comma (every K28.1 rewritten)", i, s)
		}
	}

	wantLane1 := []byte{0xa1, 0xb1}
	if lanes[1].Len() != 2 {
		t.Fatalf("lane 1 got %d symbols, want 2", lanes[1].Len())
	}
	for i, want := range wantLane1 {
		if lanes[1].Samples[i].Data != want {
			t.Errorf("lane 1 symbol %d data = %#x, want %#x", i, lanes[1].Samples[i].Data, want)
		}
	}

	if lanes[2].Len() != 2 || lanes[2].Samples[0].Data != 0xa2 || lanes[2].Samples[1].Data != 0xb2 {
		t.Errorf("lane 2 = %+v, want [0xa2, 0xb2]", lanes[2].Samples)
	}
	if lanes[3].Len() != 2 || lanes[3].Samples[0].Data != 0xa3 || lanes[3].Samples[1].Data != 0xb3 {
		t.Errorf("lane 3 = %+v, want [0xa3, 0xb3]", lanes[3].Samples)
	}

	// Last sample of each lane should use the input's own duration since
	// there's no i+4 symbol to measure against.
	last0 := lanes[0].Len() - 1
	if lanes[0].Durations[last0] != 10 {
		t.Errorf("lane 0 last duration = %d, want 10 (falls back to input duration)", lanes[0].Durations[last0])
	}
}

func TestDecodeNoCommaReturnsEmptyLanes(t *testing.T) {
	din := mk8b10b(datum(1), datum(2), datum(3))
	lanes := Decode(din)
	for i, lane := range lanes {
		if lane.Len() != 0 {
			t.Errorf("lane %d got %d symbols, want 0 when no K28.1 comma is present", i, lane.Len())
		}
	}
}

func TestDecodeEmptyInputReturnsEmptyLanes(t *testing.T) {
	din := waveform.NewSparse[ibm8b10b.Symbol]()
	lanes := Decode(din)
	for i, lane := range lanes {
		if lane.Len() != 0 {
			t.Errorf("lane %d got %d symbols, want 0 for empty input", i, lane.Len())
		}
	}
}
