package ibm8b10b

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

func TestBitsToCodePacksMSBFirst(t *testing.T) {
	bits := waveform.NewSparse[bool]()
	bits.Timescale = 1
	for _, b := range []bool{true, false, true, true, false, false} {
		bits.Append(int64(len(bits.Offsets)), 1, b)
	}
	got := bitsToCode(bits, 0, 0, 6)
	want := byte(0b101100)
	if got != want {
		t.Errorf("bitsToCode() = %06b, want %06b", got, want)
	}
}

func TestDecodeTooShortReturnsEmpty(t *testing.T) {
	data := &waveform.Uniform[bool]{Samples: []bool{true, false, true}}
	data.Timescale = 1
	clk := &waveform.Uniform[bool]{Samples: []bool{false, true, false}}
	clk.Timescale = 1

	out := Decode(data, clk, 20000)
	if out.Len() != 0 {
		t.Errorf("Decode() on a too-short capture returned %d symbols, want 0", out.Len())
	}
}

func TestSymbolColorHintPrioritizesErrors(t *testing.T) {
	s := Symbol{Error5: true, Control: true}
	if s.ColorHint() != waveform.ColorError {
		t.Errorf("ColorHint() = %v, want ColorError when Error5 is set", s.ColorHint())
	}
}

// Decode carries no state across calls, so running it twice on the same
// capture must produce byte-identical symbol streams.
func TestDecodeIsDeterministic(t *testing.T) {
	pattern := []bool{
		true, true, false, false, false, true, true, false, true, false,
		true, false, true, true, false, false, true, false, false, true,
		false, true, true, false, true, false, false, true, true, false,
		true, true, false, true, false, false, true, false, true, true,
	}
	data := &waveform.Uniform[bool]{Samples: pattern}
	data.Timescale = 1
	clk := make([]bool, len(pattern))
	for i := range clk {
		clk[i] = i%2 == 0
	}
	clkWave := &waveform.Uniform[bool]{Samples: clk}
	clkWave.Timescale = 1

	out1 := Decode(data, clkWave, 40)
	out2 := Decode(data, clkWave, 40)

	if diff := cmp.Diff(out1.Samples, out2.Samples); diff != "" {
		t.Errorf("symbol streams differ between identical decodes (-first +second):\n%s", diff)
	}
}

func TestIsCommaRequiresK28(t *testing.T) {
	notK28 := Symbol{Control: true, Data: (3 << 5) | 23}
	if notK28.IsComma() {
		t.Error("IsComma() true for K23.3, want false")
	}
	k285 := Symbol{Control: true, Data: (5 << 5) | 28}
	if !k285.IsComma() {
		t.Error("IsComma() false for K28.5, want true")
	}
	notControl := Symbol{Control: false, Data: (5 << 5) | 28}
	if notControl.IsComma() {
		t.Error("IsComma() true for a data character, want false")
	}
}
