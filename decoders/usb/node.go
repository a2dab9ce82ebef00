package usb

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/filtergraph"
	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/registry"
	"github.com/ngscopeclient/scopehal-sub005/signal"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

const (
	PMAProtocolName    = "USB 1.x/2.0 PMA"
	PCSProtocolName    = "USB 1.x/2.0 PCS"
	PacketProtocolName = "USB 1.x/2.0 Packet"
)

func init() {
	registry.Register(PMAProtocolName, NewPMANode)
	registry.Register(PCSProtocolName, NewPCSNode)
	registry.Register(PacketProtocolName, NewPacketNode)
}

func newSpeedParam() *filtergraph.Parameter {
	p := filtergraph.NewEnumParameter(int64(SpeedFull))
	p.AddEnumValue("Low (1.5 Mbps)", int64(SpeedLow))
	p.AddEnumValue("Full (12 Mbps)", int64(SpeedFull))
	p.AddEnumValue("High (480 Mbps)", int64(SpeedHigh))
	return p
}

// PMANode implements the PMA stage: two analog inputs (D+, D-) -> one
// protocol-symbol output carrying the J/K/SE0/SE1 line-state waveform.
type PMANode struct {
	filtergraph.Base
}

func NewPMANode(id filtergraph.NodeID) filtergraph.Node {
	n := &PMANode{Base: filtergraph.NewBase(id, filtergraph.CategorySerial, 2)}
	n.AddOutput("data", "", filtergraph.StreamProtocol)
	n.SetParam("Speed", newSpeedParam())
	return n
}

func (n *PMANode) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= 2 {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamAnalog
}

func (n *PMANode) Refresh(g *filtergraph.Graph) error {
	dpW := g.InputWaveform(n, 0)
	dnW := g.InputWaveform(n, 1)
	if dpW == nil || dnW == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	dp, ok := signal.AsAnalogSource(dpW)
	if !ok {
		return fmt.Errorf("usb pma: D+ input is not analog")
	}
	dn, ok := signal.AsAnalogSource(dnW)
	if !ok {
		return fmt.Errorf("usb pma: D- input is not analog")
	}
	speedParam, _ := n.Param("Speed")
	cap := DecodePMA(dp, dn, Speed(speedParam.Int()))
	cap.Bump()
	n.Output(0).Waveform = cap
	return nil
}

// PCSNode implements the PCS stage: consumes a PMA output stream and
// recovers the NRZI bitstream into bytes.
type PCSNode struct {
	filtergraph.Base
}

func NewPCSNode(id filtergraph.NodeID) filtergraph.Node {
	n := &PCSNode{Base: filtergraph.NewBase(id, filtergraph.CategorySerial, 1)}
	n.AddOutput("data", "", filtergraph.StreamProtocol)
	n.SetParam("Speed", newSpeedParam())
	return n
}

func (n *PCSNode) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= 1 {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamProtocol
}

func (n *PCSNode) Refresh(g *filtergraph.Graph) error {
	pmaW := g.InputWaveform(n, 0)
	if pmaW == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	pma, ok := pmaW.(*waveform.Sparse[PMASymbol])
	if !ok {
		return fmt.Errorf("usb pcs: input is not a PMA symbol stream")
	}
	speedParam, _ := n.Param("Speed")
	cap := DecodePCS(pma, Speed(speedParam.Int()))
	cap.Bump()
	n.Output(0).Waveform = cap
	return nil
}

// PacketNode implements the Packet stage: consumes a PCS byte stream and
// emits token/SOF/data/handshake packets, merging token+data+handshake
// into a single transaction (spec.md §4.4.4 Packet).
type PacketNode struct {
	filtergraph.Base
	Packets []*packet.Packet
}

func NewPacketNode(id filtergraph.NodeID) filtergraph.Node {
	n := &PacketNode{Base: filtergraph.NewBase(id, filtergraph.CategorySerial, 1)}
	n.AddOutput("data", "", filtergraph.StreamProtocol)
	return n
}

func (n *PacketNode) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= 1 {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamProtocol
}

func (n *PacketNode) Refresh(g *filtergraph.Graph) error {
	pcsW := g.InputWaveform(n, 0)
	if pcsW == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	pcs, ok := pcsW.(*waveform.Sparse[PCSSymbol])
	if !ok {
		return fmt.Errorf("usb packet: input is not a PCS symbol stream")
	}
	n.Packets = DecodeElements(pcs)
	n.Output(0).Waveform = pcs
	return nil
}
