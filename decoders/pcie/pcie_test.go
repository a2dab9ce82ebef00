package pcie

import (
	"testing"

	"github.com/google/go-cmp/cmp"
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

func buildTS1() *waveform.Sparse[ibm8b10b.Symbol] {
	entries := []ibm8b10b.Symbol{
		ctrl(comma),   // 0: COM
		ctrl(pad),     // 1: link unassigned
		datum(0),      // 2: lane 0
		datum(4),      // 3: N_FTS
		datum(0x02),   // 4: rate ID 2.5 GT/s
		datum(0),      // 5: train control, no flags
	}
	for k := 0; k < 10; k++ {
		entries = append(entries, datum(ts1Sym)) // 6-15: TS ID x10
	}
	return mk8b10b(entries...)
}

func TestDecodeLinkTrainingRecognizesTS1(t *testing.T) {
	din := buildTS1()
	cap, scap, packets := DecodeLinkTraining(din)

	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(packets))
	}
	p := packets[0]

	checks := map[string]string{
		"Type":    "TS1",
		"Link":    "Unassigned",
		"Lane":    "0",
		"Num FTS": "4",
		"Rates":   "2.5 GT/s",
		"Flags":   "None",
	}
	for key, want := range checks {
		got, ok := p.Header(key)
		if !ok || got != want {
			t.Errorf("header %q = %q, want %q", key, got, want)
		}
	}

	if cap.Len() != 7 {
		t.Errorf("got %d link training field symbols, want 7", cap.Len())
	}
	if cap.Samples[0].Type != TSHeader || cap.Samples[0].Data != 1 {
		t.Errorf("first symbol = %+v, want TSHeader{Data:1}", cap.Samples[0])
	}

	if scap.Len() != 2 {
		t.Fatalf("got %d LTSSM states, want 2 (Detect, Polling.Active)", scap.Len())
	}
	if scap.Samples[0].State != LTSSMDetect {
		t.Errorf("first state = %v, want Detect", scap.Samples[0].State)
	}
	if scap.Samples[1].State != LTSSMPollingActive {
		t.Errorf("second state = %v, want Polling.Active", scap.Samples[1].State)
	}
}

// DecodeLinkTraining has no hidden state carried between calls, so
// decoding the same capture twice must produce identical field symbols
// and LTSSM states byte-for-byte.
func TestDecodeLinkTrainingIsDeterministic(t *testing.T) {
	din := buildTS1()
	cap1, scap1, _ := DecodeLinkTraining(din)
	cap2, scap2, _ := DecodeLinkTraining(din)

	if diff := cmp.Diff(cap1.Samples, cap2.Samples); diff != "" {
		t.Errorf("field symbols differ between identical decodes (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(scap1.Samples, scap2.Samples); diff != "" {
		t.Errorf("LTSSM states differ between identical decodes (-first +second):\n%s", diff)
	}
}

func TestDecodeLinkTrainingTooShortYieldsNoPackets(t *testing.T) {
	din := mk8b10b(ctrl(comma), ctrl(pad), datum(0))
	_, _, packets := DecodeLinkTraining(din)
	if len(packets) != 0 {
		t.Errorf("got %d packets, want 0 for a truncated capture", len(packets))
	}
}

func TestTrainCtlFlagsFormatsBits(t *testing.T) {
	got := trainCtlFlags(0x01|0x04, "None")
	want := "Hot reset Loopback"
	if got != want {
		t.Errorf("trainCtlFlags() = %q, want %q", got, want)
	}
}

func TestRateIDFlagsFormatsBits(t *testing.T) {
	got := rateIDFlags(0x02 | 0x80)
	want := "2.5 GT/s Speed change"
	if got != want {
		t.Errorf("rateIDFlags() = %q, want %q", got, want)
	}
}
