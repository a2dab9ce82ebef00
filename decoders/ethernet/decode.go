package ethernet

import (
	"github.com/ngscopeclient/scopehal-sub005/decoders/ibm8b10b"
	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

const (
	bitACK    uint16 = 0x4000
	bitACK2   uint16 = 0x1000
	bitsACKs  uint16 = bitACK | bitACK2
	bitMP     uint16 = 0x2000
	bitNP     uint16 = 0x8000
	bitToggle uint16 = 0x0800
)

const (
	msgType1000BaseT uint16 = 8
	msgTypeEEE       uint16 = 10
)

const (
	pageStateIdle = iota
	pageStateBase
	pageStateAck
	pageStateNextPage
)

// DecodePage decodes a stream of twisted-pair fast-link-pulse codewords
// into auto-negotiation page symbols and packets (spec.md §4.4.7,
// twisted-pair mode), ported from
// EthernetAutonegotiationPageDecoder::Refresh. Recovery of these 16-bit
// codewords from the NLP/FLP pulse train on the wire is a distinct,
// lower layer not modeled here; codewords is assumed already extracted.
func DecodePage(codewords *waveform.Sparse[uint16]) (*waveform.Sparse[PageSymbol], []*packet.Packet) {
	out := waveform.NewSparse[PageSymbol]()
	out.CopyTimebaseFrom(&codewords.Timebase)

	var packets []*packet.Packet
	n := codewords.Len()
	if n == 0 {
		return out, packets
	}

	extendLast := func(end int64) {
		l := out.Len()
		if l > 0 {
			out.Durations[l-1] = end - out.Offsets[l-1]
		}
	}

	addPacket := func(typ string, code uint16, tnow, dur int64) {
		p := &packet.Packet{OffsetFS: tnow, LengthFS: dur, Data: []byte{byte(code >> 8), byte(code)}}
		p.SetHeader("Type", typ)
		if code&bitACK != 0 {
			p.SetHeader("Ack", "1")
		} else {
			p.SetHeader("Ack", "0")
		}
		if code&bitToggle != 0 {
			p.SetHeader("T", "1")
		} else {
			p.SetHeader("T", "0")
		}
		if code&bitACK2 != 0 {
			p.SetHeader("Ack2", "1")
		} else {
			p.SetHeader("Ack2", "0")
		}
		if code&bitNP != 0 {
			p.SetHeader("NP", "1")
		} else {
			p.SetHeader("NP", "0")
		}
		packets = append(packets, p)
	}

	state := pageStateIdle
	var codeOrig uint16
	var messageCount int
	var lastMessage uint16
	lastType := "Base"

	for i := 0; i < n; i++ {
		code := codewords.Samples[i]
		tnow := codewords.Offsets[i]
		dur := codewords.Durations[i]

		switch state {
		case pageStateIdle:
			if code&0x1f == 1 {
				state = pageStateBase
				codeOrig = code
				out.Append(tnow, dur, PageSymbol{Type: PageBase, Value: code})
				addPacket("Base", code, tnow, dur)
			}

		case pageStateBase:
			switch {
			case code&bitACK != 0:
				extendLast(tnow)
				state = pageStateAck
				codeOrig = code
				lastType = "Base"
				out.Append(tnow, dur, PageSymbol{Type: PageAck, Value: code})
				addPacket("Base", code, tnow, dur)

			case code == codeOrig:
				extendLast(tnow + dur)
				addPacket("Base", code, tnow, dur)
			}

		case pageStateAck:
			if code&bitACK != 0 && code&^bitsACKs == codeOrig&^bitsACKs {
				extendLast(tnow + dur)
				addPacket(lastType, code, tnow, dur)
			} else {
				extendLast(tnow)
				if code&bitMP != 0 {
					state = pageStateNextPage
					out.Append(tnow, dur, PageSymbol{Type: PageMessage, Value: code})
					lastType = "Message"
					addPacket("Message", code, tnow, dur)
					messageCount = 0
					lastMessage = code & 0x7ff
				} else {
					state = pageStateNextPage
					typ := unformattedPageType(lastMessage, messageCount)
					out.Append(tnow, dur, PageSymbol{Type: typ, Value: code})
					lastType = "Unformatted"
					addPacket("Unformatted", code, tnow, dur)
					messageCount++
				}
				codeOrig = code
			}

		case pageStateNextPage:
			switch {
			case code&bitACK != 0:
				extendLast(tnow)
				state = pageStateAck
				codeOrig = code
				out.Append(tnow, dur, PageSymbol{Type: PageAck, Value: code})
				addPacket(lastType, code, tnow, dur)

			case code == codeOrig:
				extendLast(tnow + dur)
				addPacket(lastType, code, tnow, dur)
			}
		}
	}

	return out, packets
}

// unformattedPageType maps a next-page message code and its ordinal
// position within that message's sequence to a specific decode, matching
// the handful of well-known unformatted-page formats the original
// recognizes (1000BASE-T and EEE technology ability pages); anything
// else decodes as a generic unformatted page.
func unformattedPageType(lastMessage uint16, messageCount int) PageSymbolType {
	switch lastMessage {
	case msgType1000BaseT:
		switch messageCount {
		case 0:
			return Page1000BaseTTech0
		case 1:
			return Page1000BaseTTech1
		}
	case msgTypeEEE:
		if messageCount == 0 {
			return PageEEETech
		}
	}
	return PageUnformatted
}

const (
	baseXStateIdle = iota
	baseXStateHeader
	baseXStateFirst
	baseXStateSecond
)

// baseXComma is the K28.5 character marking the start of a Base-X
// auto-negotiation config-register exchange.
const baseXComma = 0xbc

// DecodeBaseX recognizes a K28.5 comma followed by a D21.5/D2.2 header
// and two data bytes carrying the 16-bit Base-X config register (spec.md
// §4.4.7, Base-X mode); bit 0 of the register distinguishes SGMII from
// plain Base-X. Ported from EthernetBaseXAutonegotiationDecoder::Refresh.
// That decoder builds its packet list entirely inside a commented-out
// block in the original, so (matching its actual behavior) this emits
// only the symbol stream and no packets.
func DecodeBaseX(din *waveform.Sparse[ibm8b10b.Symbol]) *waveform.Sparse[BaseXSymbol] {
	out := waveform.NewSparse[BaseXSymbol]()
	out.CopyTimebaseFrom(&din.Timebase)

	n := din.Len()
	if n == 0 {
		return out
	}

	state := baseXStateIdle
	var tstart int64
	var low byte

	for i := 0; i < n; i++ {
		s := din.Samples[i]
		tnow := din.Offsets[i]

		switch state {
		case baseXStateIdle:
			if s.Control && s.Data == baseXComma {
				tstart = tnow
				state = baseXStateHeader
			}

		case baseXStateHeader:
			if !s.Control && (s.Data == 0x42 || s.Data == 0xb5) {
				state = baseXStateFirst
			} else {
				state = baseXStateIdle
			}

		case baseXStateFirst:
			if !s.Control {
				low = s.Data
				state = baseXStateSecond
			} else {
				state = baseXStateIdle
			}

		case baseXStateSecond:
			if !s.Control {
				code := uint16(low) | uint16(s.Data)<<8
				typ := BaseXBasePage
				if code&1 != 0 {
					typ = BaseXSGMII
				}
				out.Append(tstart, din.Durations[i]+tnow-tstart, BaseXSymbol{Type: typ, Value: code})
			}
			state = baseXStateIdle
		}
	}

	return out
}
