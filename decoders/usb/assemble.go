package usb

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// element is one Sync..EOP span from the PCS stream: a single USB packet
// (token, SOF, data, or handshake) with its PID validated.
type element struct {
	PID      PID
	Payload  []byte // bytes after the PID, excluding nothing stripped
	OffsetFS int64
	EndFS    int64
	Bad      bool
}

// parseElements walks the PCS byte stream and splits it into individual
// USB packets, validating each PID against its complement nibble
// (spec.md §4.4.4 Packet).
func parseElements(pcs *waveform.Sparse[PCSSymbol]) []element {
	var out []element
	n := pcs.Len()
	i := 0
	for i < n {
		if pcs.Samples[i].Type != PCSSync {
			i++
			continue
		}
		start := pcs.Offsets[i]
		i++
		if i >= n || pcs.Samples[i].Type != PCSByte {
			continue
		}
		pidByte := pcs.Samples[i].Data
		lo := pidByte & 0x0f
		hi := (pidByte >> 4) & 0x0f
		bad := lo != (^hi & 0x0f)
		i++

		var payload []byte
		end := start
		for i < n && pcs.Samples[i].Type == PCSByte {
			payload = append(payload, pcs.Samples[i].Data)
			i++
		}
		if i < n && pcs.Samples[i].Type == PCSEOP {
			end = pcs.Offsets[i] + pcs.Durations[i]
			i++
		}

		out = append(out, element{
			PID:      PID(lo),
			Payload:  payload,
			OffsetFS: start,
			EndFS:    end,
			Bad:      bad,
		})
	}
	return out
}

// DecodeElements builds packets directly from an already-assembled PCS
// symbol stream, grouping a token packet with any following data and
// handshake packets into one transaction.
func DecodeElements(pcs *waveform.Sparse[PCSSymbol]) []*packet.Packet {
	elems := parseElements(pcs)
	var packets []*packet.Packet

	for i := 0; i < len(elems); i++ {
		e := elems[i]
		switch {
		case e.PID == PIDSOF:
			packets = append(packets, sofPacket(e))

		case e.PID.isToken():
			consumed := 1
			p := tokenPacket(e)
			if i+1 < len(elems) && elems[i+1].PID.isData() {
				data := elems[i+1]
				consumed++
				applyDataPayload(p, data)
				if i+2 < len(elems) && elems[i+2].PID.isHandshake() {
					appendDetail(p, elems[i+2].PID.String())
					consumed++
				}
			} else if i+1 < len(elems) && elems[i+1].PID.isHandshake() {
				appendDetail(p, elems[i+1].PID.String())
				consumed++
			}
			p.LengthFS = elems[i+consumed-1].EndFS - e.OffsetFS
			packets = append(packets, p)
			i += consumed - 1

		case e.PID.isData():
			packets = append(packets, dataPacket(e))

		case e.PID.isHandshake():
			packets = append(packets, handshakePacket(e))
		}
	}
	return packets
}

func appendDetail(p *packet.Packet, suffix string) {
	existing, _ := p.Header("Details")
	if existing == "" {
		p.SetHeader("Details", suffix)
	} else {
		p.SetHeader("Details", existing+" "+suffix)
	}
}

func newPacket(e element) *packet.Packet {
	p := &packet.Packet{OffsetFS: e.OffsetFS, LengthFS: e.EndFS - e.OffsetFS}
	if e.Bad {
		p.DisplayHint = waveform.ColorError
	}
	return p
}

func tokenPacket(e element) *packet.Packet {
	p := newPacket(e)
	p.SetHeader("Type", e.PID.String())
	if len(e.Payload) >= 2 {
		addr := e.Payload[0] & 0x7f
		endp := ((e.Payload[0] >> 7) & 1) | ((e.Payload[1] & 0x07) << 1)
		crc5 := e.Payload[1] >> 3
		ok := checkCRC5([]byte{e.Payload[0], e.Payload[1] & 0x07}, crc5)
		p.SetHeader("Device", fmt.Sprintf("%d", addr))
		p.SetHeader("Endpoint", fmt.Sprintf("%d", endp))
		if !ok {
			p.DisplayHint = waveform.ColorChecksumBad
		}
	}
	if e.PID == PIDSetup {
		p.SetHeader("Details", "")
	}
	return p
}

func sofPacket(e element) *packet.Packet {
	p := newPacket(e)
	p.SetHeader("Type", "SOF")
	if len(e.Payload) >= 2 {
		frame := uint16(e.Payload[0]) | uint16(e.Payload[1]&0x07)<<8
		p.SetHeader("Frame", fmt.Sprintf("%d", frame))
	}
	return p
}

func dataPacket(e element) *packet.Packet {
	p := newPacket(e)
	p.SetHeader("Type", e.PID.String())
	applyDataPayload(p, e)
	return p
}

func handshakePacket(e element) *packet.Packet {
	p := newPacket(e)
	p.SetHeader("Type", e.PID.String())
	return p
}

// applyDataPayload strips the trailing 2-byte CRC16, verifies it, and
// for SETUP transactions decodes the 8-byte standard device request into
// a human-readable Details header (spec.md §8.4 scenario (c)).
func applyDataPayload(p *packet.Packet, e element) {
	if len(e.Payload) < 2 {
		return
	}
	data := e.Payload[:len(e.Payload)-2]
	crc := uint16(e.Payload[len(e.Payload)-2]) | uint16(e.Payload[len(e.Payload)-1])<<8
	ok := checkCRC16(data, crc)
	p.Data = data
	p.SetHeader("Length", fmt.Sprintf("%d", len(data)))
	if !ok {
		p.DisplayHint = waveform.ColorChecksumBad
	}

	if len(data) == 8 {
		bmRequestType := data[0]
		bRequest := data[1]
		wValue := uint16(data[2]) | uint16(data[3])<<8
		wIndex := uint16(data[4]) | uint16(data[5])<<8
		wLength := uint16(data[6]) | uint16(data[7])<<8

		reqType := "Standard"
		if bmRequestType&0x60 != 0 {
			reqType = "Vendor/Class"
		}
		recipient := "device"
		switch bmRequestType & 0x1f {
		case 1:
			recipient = "interface"
		case 2:
			recipient = "endpoint"
		case 3:
			recipient = "other"
		}

		details := fmt.Sprintf("Host: %s req to %s bRequest=%d wValue=%x wIndex=%d wLength=%d",
			reqType, recipient, bRequest, wValue, wIndex, wLength)
		p.SetHeader("Details", details)
	}
}
