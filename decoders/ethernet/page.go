// Package ethernet implements the two Ethernet auto-negotiation modes
// from spec.md §4.4.7: twisted-pair fast-link-pulse codeword pages, and
// Base-X config-register exchange carried over an 8b/10b line code.
package ethernet

import "github.com/ngscopeclient/scopehal-sub005/waveform"

// PageSymbolType classifies one twisted-pair auto-negotiation codeword.
type PageSymbolType int

const (
	PageBase PageSymbolType = iota
	PageMessage
	PageUnformatted
	PageAck
	Page1000BaseTTech0
	Page1000BaseTTech1
	PageEEETech
)

// PageSymbol is one decoded twisted-pair codeword (802.3-2018 clause 28).
type PageSymbol struct {
	Type  PageSymbolType
	Value uint16
}

func (s PageSymbol) ColorHint() waveform.ColorHint {
	switch s.Type {
	case PageBase, Page1000BaseTTech0, Page1000BaseTTech1, PageUnformatted, PageEEETech:
		return waveform.ColorData
	case PageMessage:
		return waveform.ColorAddress
	case PageAck:
		return waveform.ColorPreamble
	default:
		return waveform.ColorError
	}
}

func (s PageSymbol) String() string {
	v := s.Value
	switch s.Type {
	case PageBase, PageAck:
		sel := v & 0x1f
		ability := (v >> 5) & 0x7f
		text := ""
		if v&0x2000 != 0 {
			text += "Msg "
		}
		if v&0x1000 != 0 {
			text += "Ack2 "
		}
		if v&0x8000 != 0 {
			text += "NP "
		}
		if v&0x4000 != 0 {
			text += "Ack "
		}
		if v&0x0800 != 0 {
			text += "T "
		}
		prefix := "Base"
		if s.Type == PageAck {
			prefix = "Ack"
		}
		return prefix + formatSelAbility(sel, ability) + text
	case PageMessage:
		return "Message code " + hex16(v&0x7ff)
	default:
		return "Unformatted " + hex16(v)
	}
}

func formatSelAbility(sel, ability uint16) string {
	return " sel=" + hex16(sel) + " ability=" + hex16(ability) + " "
}

func hex16(v uint16) string {
	const hexd = "0123456789abcdef"
	if v == 0 {
		return "0x0"
	}
	buf := make([]byte, 0, 6)
	buf = append(buf, '0', 'x')
	started := false
	for shift := 12; shift >= 0; shift -= 4 {
		d := (v >> uint(shift)) & 0xf
		if d != 0 {
			started = true
		}
		if started {
			buf = append(buf, hexd[d])
		}
	}
	return string(buf)
}

// BaseXSymbolType classifies one decoded Base-X config-register exchange.
type BaseXSymbolType int

const (
	BaseXBasePage BaseXSymbolType = iota
	BaseXSGMII
)

// BaseXSymbol is one decoded Base-X (or SGMII) config-register codeword.
type BaseXSymbol struct {
	Type  BaseXSymbolType
	Value uint16
}

func (s BaseXSymbol) ColorHint() waveform.ColorHint {
	if s.Type == BaseXSGMII {
		return waveform.ColorControl
	}
	return waveform.ColorData
}

func (s BaseXSymbol) String() string {
	v := s.Value
	if s.Type == BaseXSGMII {
		text := "Down "
		if v&0x8000 != 0 {
			text = "Up "
		}
		switch (v >> 10) & 3 {
		case 0:
			text += "10/"
		case 1:
			text += "100/"
		case 2:
			text += "1000/"
		}
		if v&0x1000 != 0 {
			text += "Full"
		} else {
			text += "Half"
		}
		return text
	}

	text := ""
	if v&0x8000 != 0 {
		text += "NP "
	}
	if v&0x4000 != 0 {
		text += "ACK "
	}
	if v&0x0020 != 0 {
		text += "Full "
	}
	if v&0x0040 != 0 {
		text += "Half "
	}
	switch (v >> 7) & 3 {
	case 1:
		text += "AsymPause "
	case 2:
		text += "SymPause "
	case 3:
		text += "SymAsymPause "
	}
	switch (v >> 12) & 3 {
	case 1:
		text += "Offline "
	case 2:
		text += "LinkFail "
	case 3:
		text += "AnegFail "
	}
	if text == "" {
		return "Empty"
	}
	return text
}
