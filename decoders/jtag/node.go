package jtag

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/filtergraph"
	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/registry"
	"github.com/ngscopeclient/scopehal-sub005/signal"
)

const ProtocolName = "JTAG"

func init() {
	registry.Register(ProtocolName, New)
}

// Node decodes a JTAG TAP controller's TDI/TDO/TMS/TCK signals (spec.md
// §4.4.4): 4 digital inputs in that order, one protocol-symbol output.
type Node struct {
	filtergraph.Base
	Packets []*packet.Packet
}

func New(id filtergraph.NodeID) filtergraph.Node {
	n := &Node{Base: filtergraph.NewBase(id, filtergraph.CategoryBus, 4)}
	n.AddOutput("data", "", filtergraph.StreamProtocol)
	return n
}

func (n *Node) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= 4 {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamDigital
}

func (n *Node) Refresh(g *filtergraph.Graph) error {
	tdiW := g.InputWaveform(n, 0)
	tdoW := g.InputWaveform(n, 1)
	tmsW := g.InputWaveform(n, 2)
	tckW := g.InputWaveform(n, 3)
	if tdiW == nil || tdoW == nil || tmsW == nil || tckW == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	tdi, ok1 := signal.AsDigitalSource(tdiW)
	tdo, ok2 := signal.AsDigitalSource(tdoW)
	tms, ok3 := signal.AsDigitalSource(tmsW)
	tck, ok4 := signal.AsDigitalSource(tckW)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return fmt.Errorf("jtag: all inputs must be digital")
	}

	cap, packets := Decode(tdi, tdo, tms, tck)
	cap.Bump()
	n.Packets = packets
	n.Output(0).Waveform = cap
	return nil
}
