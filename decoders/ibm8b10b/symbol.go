package ibm8b10b

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// Symbol is one decoded 8b/10b character: either a data character (Dx.y)
// or a control character (Kx.y), plus the three error flags and the
// running disparity observed immediately after this character.
type Symbol struct {
	Control    bool
	Error5     bool // 5b/6b decode table lookup failed
	Error3     bool // 3b/4b decode table lookup failed
	ErrorDisp  bool // running disparity rule violated
	Data       byte // (code3<<5)|code5, i.e. right.left nibble/quintet packed
	Disparity  int  // +1 or -1, the running disparity after this symbol
}

func (s Symbol) String() string {
	if s.Error5 {
		return "ERROR (5b/6b)"
	}
	if s.Error3 {
		return "ERROR (3b/4b)"
	}
	if s.ErrorDisp {
		return "ERROR (disparity)"
	}
	left := s.Data & 0x1f
	right := s.Data >> 5
	sign := "+"
	if s.Disparity < 0 {
		sign = "-"
	}
	if s.Control {
		return fmt.Sprintf("K%d.%d%s", left, right, sign)
	}
	return fmt.Sprintf("D%d.%d%s", left, right, sign)
}

func (s Symbol) ColorHint() waveform.ColorHint {
	switch {
	case s.Error5 || s.Error3 || s.ErrorDisp:
		return waveform.ColorError
	case s.Control:
		return waveform.ColorControl
	default:
		return waveform.ColorData
	}
}

// IsComma reports whether this symbol is one of the K28.x comma
// characters (K28.1, K28.5, or K28.7) used for block alignment by this
// protocol and by QSGMII/PCIe/Ethernet base-X, which ride on top of it.
func (s Symbol) IsComma() bool {
	if !s.Control {
		return false
	}
	left := s.Data & 0x1f
	right := s.Data >> 5
	return left == 28 && (right == 1 || right == 5 || right == 7)
}
