package pcie

import (
	"testing"

	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

func mkBlocks(entries ...BlockSymbol) *waveform.Sparse[BlockSymbol] {
	w := waveform.NewSparse[BlockSymbol]()
	w.Timescale = 1
	for i, e := range entries {
		w.Append(int64(i*160), 160, e)
	}
	return w
}

func TestDecodeGen3LogicalFramesSDPDLLP(t *testing.T) {
	dllpPayload := []byte{1, 2, 3, 4, 5, 6}
	dataBytes := make([]byte, 16)
	dataBytes[0] = 0xf0 // SDP first word
	dataBytes[1] = 0xac // SDP second word
	copy(dataBytes[2:], dllpPayload)
	// remaining bytes default to 0x00 (idle)

	blocks := mkBlocks(
		BlockSymbol{Type: BlockOrderedSet, Data: []byte{0xaa}},
		BlockSymbol{Type: BlockData, Data: dataBytes},
	)

	out := DecodeGen3Logical(blocks)

	if out.Len() != 11 {
		t.Fatalf("got %d logical symbols, want 11", out.Len())
	}

	wantTypes := []LogicalSymbolType{
		LogicalNoScrambler,
		LogicalSkip,
		LogicalSkip,
		LogicalStartDLLP,
		LogicalPayloadData,
		LogicalPayloadData,
		LogicalPayloadData,
		LogicalPayloadData,
		LogicalPayloadData,
		LogicalPayloadData,
		LogicalIdle,
	}
	for i, want := range wantTypes {
		if out.Samples[i].Type != want {
			t.Errorf("symbol %d type = %v, want %v", i, out.Samples[i].Type, want)
		}
	}

	for i, want := range dllpPayload {
		got := out.Samples[4+i].Data
		if got != want {
			t.Errorf("DLLP payload byte %d = %#x, want %#x", i, got, want)
		}
	}

	lastIdx := out.Len() - 1
	if out.Offsets[lastIdx]+out.Durations[lastIdx] != 320 {
		t.Errorf("trailing idle should extend to end of capture (320), got end=%d",
			out.Offsets[lastIdx]+out.Durations[lastIdx])
	}
}

func TestDecodeGen3LogicalNoSOSReturnsEmpty(t *testing.T) {
	blocks := mkBlocks(BlockSymbol{Type: BlockData, Data: make([]byte, 16)})
	out := DecodeGen3Logical(blocks)
	if out.Len() != 0 {
		t.Errorf("got %d symbols, want 0 when no Skip Ordered Set is present", out.Len())
	}
}

func TestByteHexFormatsLowercase(t *testing.T) {
	if got := byteHex(0xab); got != "ab" {
		t.Errorf("byteHex(0xab) = %q, want \"ab\"", got)
	}
}
