package usb

import (
	"testing"

	"github.com/snksoft/crc"

	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

func TestCRC5USBCheckValue(t *testing.T) {
	// Catalogue check value for CRC-5/USB over the ASCII string "123456789".
	got := byte(crc.CalculateCRC(crc5USB, []byte("123456789")))
	if got != 0x19 {
		t.Errorf("CRC-5/USB check value = %#x, want 0x19", got)
	}
}

func TestCRC16USBCheckValue(t *testing.T) {
	// Catalogue check value for CRC-16/USB over the ASCII string "123456789".
	got := uint16(crc.CalculateCRC(crc16USB, []byte("123456789")))
	if got != 0xb4c8 {
		t.Errorf("CRC-16/USB check value = %#x, want 0xb4c8", got)
	}
}

func TestDestuffRemovesStuffedZero(t *testing.T) {
	// Six 1s followed by a stuffed 0, then a real 1.
	in := []bool{true, true, true, true, true, true, false, true}
	got := destuff(in)
	want := []bool{true, true, true, true, true, true, true}
	if len(got) != len(want) {
		t.Fatalf("destuff() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("destuff() = %v, want %v", got, want)
		}
	}
}

func TestPackByteLSBFirst(t *testing.T) {
	bits := []bool{true, false, false, false, false, false, false, false}
	if got := packByte(bits); got != 0x01 {
		t.Errorf("packByte() = %#x, want 0x01", got)
	}
}

func mkPCS(entries ...PCSSymbol) *waveform.Sparse[PCSSymbol] {
	w := waveform.NewSparse[PCSSymbol]()
	w.Timescale = 1
	for i, e := range entries {
		w.Append(int64(i*10), 10, e)
	}
	return w
}

func TestParseElementsFlagsBadPID(t *testing.T) {
	// 0x11: low nibble 1, high nibble 1 -- not the complement, so bad.
	pcs := mkPCS(
		PCSSymbol{Type: PCSSync},
		PCSSymbol{Type: PCSByte, Data: 0x11},
		PCSSymbol{Type: PCSEOP},
	)
	elems := parseElements(pcs)
	if len(elems) != 1 {
		t.Fatalf("got %d elements, want 1", len(elems))
	}
	if !elems[0].Bad {
		t.Error("expected Bad=true for non-complementary PID nibbles")
	}
}

func TestDecodeElementsMergesSetupDataAck(t *testing.T) {
	pcs := mkPCS(
		PCSSymbol{Type: PCSSync},
		PCSSymbol{Type: PCSByte, Data: 0x2d}, // PID = SETUP
		PCSSymbol{Type: PCSByte, Data: 0x01}, // addr=1, endp bit0=0
		PCSSymbol{Type: PCSByte, Data: 0x00}, // endp bits1-3=0, crc5=0
		PCSSymbol{Type: PCSEOP},

		PCSSymbol{Type: PCSSync},
		PCSSymbol{Type: PCSByte, Data: 0xc3}, // PID = DATA0
		PCSSymbol{Type: PCSByte, Data: 0x80},
		PCSSymbol{Type: PCSByte, Data: 0x06},
		PCSSymbol{Type: PCSByte, Data: 0x00},
		PCSSymbol{Type: PCSByte, Data: 0x01},
		PCSSymbol{Type: PCSByte, Data: 0x00},
		PCSSymbol{Type: PCSByte, Data: 0x00},
		PCSSymbol{Type: PCSByte, Data: 0x40},
		PCSSymbol{Type: PCSByte, Data: 0x00},
		PCSSymbol{Type: PCSByte, Data: 0x00}, // crc16 lo (not validated by this test)
		PCSSymbol{Type: PCSByte, Data: 0x00}, // crc16 hi
		PCSSymbol{Type: PCSEOP},

		PCSSymbol{Type: PCSSync},
		PCSSymbol{Type: PCSByte, Data: 0xd2}, // PID = ACK
		PCSSymbol{Type: PCSEOP},
	)

	packets := DecodeElements(pcs)
	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1 merged transaction", len(packets))
	}
	p := packets[0]

	checks := map[string]string{
		"Type":     "SETUP",
		"Device":   "1",
		"Endpoint": "0",
		"Length":   "8",
	}
	for key, want := range checks {
		got, ok := p.Header(key)
		if !ok || got != want {
			t.Errorf("header %q = %q, want %q", key, got, want)
		}
	}

	wantData := []byte{0x80, 0x06, 0x00, 0x01, 0x00, 0x00, 0x40, 0x00}
	if len(p.Data) != len(wantData) {
		t.Fatalf("Data = %v, want %v", p.Data, wantData)
	}
	for i := range wantData {
		if p.Data[i] != wantData[i] {
			t.Fatalf("Data = %v, want %v", p.Data, wantData)
		}
	}

	details, _ := p.Header("Details")
	want := "Host: Standard req to device bRequest=6 wValue=100 wIndex=0 wLength=64 ACK"
	if details != want {
		t.Errorf("Details = %q, want %q", details, want)
	}
}

func TestPIDClassification(t *testing.T) {
	if !PIDSetup.isToken() {
		t.Error("SETUP should be a token PID")
	}
	if !PIDData0.isData() {
		t.Error("DATA0 should be a data PID")
	}
	if !PIDAck.isHandshake() {
		t.Error("ACK should be a handshake PID")
	}
	if PIDSOF.isToken() || PIDSOF.isData() || PIDSOF.isHandshake() {
		t.Error("SOF should not classify as token, data, or handshake")
	}
}
