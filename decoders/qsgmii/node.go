package qsgmii

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/decoders/ibm8b10b"
	"github.com/ngscopeclient/scopehal-sub005/filtergraph"
	"github.com/ngscopeclient/scopehal-sub005/registry"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

const ProtocolName = "Ethernet - QSGMII"

func init() { registry.Register(ProtocolName, New) }

// Node wraps Decode: one 8b/10b symbol stream in, four demultiplexed
// SGMII lane streams out.
type Node struct {
	filtergraph.Base
}

func New(id filtergraph.NodeID) filtergraph.Node {
	n := &Node{Base: filtergraph.NewBase(id, filtergraph.CategorySerial, 1)}
	n.AddOutput("Lane 0", "", filtergraph.StreamProtocol)
	n.AddOutput("Lane 1", "", filtergraph.StreamProtocol)
	n.AddOutput("Lane 2", "", filtergraph.StreamProtocol)
	n.AddOutput("Lane 3", "", filtergraph.StreamProtocol)
	return n
}

func (n *Node) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= 1 {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamProtocol
}

func (n *Node) Refresh(g *filtergraph.Graph) error {
	w := g.InputWaveform(n, 0)
	if w == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	din, ok := w.(*waveform.Sparse[ibm8b10b.Symbol])
	if !ok {
		return fmt.Errorf("qsgmii: input is not an 8b/10b symbol stream")
	}

	lanes := Decode(din)
	for i, lane := range lanes {
		lane.Bump()
		n.Output(i).Waveform = lane
	}
	return nil
}
