package pcie

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/decoders/ibm8b10b"
	"github.com/ngscopeclient/scopehal-sub005/filtergraph"
	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/registry"
	"github.com/ngscopeclient/scopehal-sub005/signal"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// LinkTrainingProtocolName is the registry key for the gen1/2 link
// training decoder.
const LinkTrainingProtocolName = "PCIe Link Training"

// BlockProtocolName is the registry key for the 128b/130b block decoder.
const BlockProtocolName = "PCIe 128b/130b"

// Gen3LogicalProtocolName is the registry key for the gen3+ logical
// (flit-less) framing decoder.
const Gen3LogicalProtocolName = "PCIe Gen 3/4/5 Logical"

func init() {
	registry.Register(LinkTrainingProtocolName, NewLinkTrainingNode)
	registry.Register(BlockProtocolName, NewBlockNode)
	registry.Register(Gen3LogicalProtocolName, NewGen3LogicalNode)
}

// Gen3LogicalNode wraps DecodeGen3Logical: one 128b/130b block stream ->
// one logical-layer symbol stream.
type Gen3LogicalNode struct {
	filtergraph.Base
}

func NewGen3LogicalNode(id filtergraph.NodeID) filtergraph.Node {
	n := &Gen3LogicalNode{Base: filtergraph.NewBase(id, filtergraph.CategoryBus, 1)}
	n.AddOutput("data", "", filtergraph.StreamProtocol)
	return n
}

func (n *Gen3LogicalNode) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= 1 {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamProtocol
}

func (n *Gen3LogicalNode) Refresh(g *filtergraph.Graph) error {
	w := g.InputWaveform(n, 0)
	if w == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	blocks, ok := w.(*waveform.Sparse[BlockSymbol])
	if !ok {
		return fmt.Errorf("pcie gen3 logical: input is not a 128b/130b block stream")
	}

	cap := DecodeGen3Logical(blocks)
	cap.Bump()
	n.Output(0).Waveform = cap
	return nil
}

// BlockNode wraps Decode128b130b: a raw data lane and its recovered
// clock -> one block-symbol output stream.
type BlockNode struct {
	filtergraph.Base
}

func NewBlockNode(id filtergraph.NodeID) filtergraph.Node {
	n := &BlockNode{Base: filtergraph.NewBase(id, filtergraph.CategorySerial, 2)}
	n.AddOutput("data", "", filtergraph.StreamProtocol)
	return n
}

func (n *BlockNode) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= 2 {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamDigital
}

func (n *BlockNode) Refresh(g *filtergraph.Graph) error {
	dataW := g.InputWaveform(n, 0)
	clkW := g.InputWaveform(n, 1)
	if dataW == nil || clkW == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	data, ok := signal.AsDigitalSource(dataW)
	if !ok {
		return fmt.Errorf("pcie 128b/130b: data input is not digital")
	}
	clk, ok := signal.AsDigitalSource(clkW)
	if !ok {
		return fmt.Errorf("pcie 128b/130b: clk input is not digital")
	}

	recovered := signal.SampleOnEdges[bool](data, clk, signal.EdgeAny)
	cap := Decode128b130b(recovered)
	cap.Bump()
	n.Output(0).Waveform = cap
	return nil
}

// LinkTrainingNode wraps DecodeLinkTraining: one 8b/10b symbol input, a
// "packets" output carrying TS1/TS2 field symbols and an "states" output
// carrying the LTSSM dwell stream, plus the recognized training-set
// packets themselves.
type LinkTrainingNode struct {
	filtergraph.Base
	Packets []*packet.Packet
}

func NewLinkTrainingNode(id filtergraph.NodeID) filtergraph.Node {
	n := &LinkTrainingNode{Base: filtergraph.NewBase(id, filtergraph.CategoryBus, 1)}
	n.AddOutput("packets", "", filtergraph.StreamProtocol)
	n.AddOutput("states", "", filtergraph.StreamProtocol)
	return n
}

func (n *LinkTrainingNode) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= 1 {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamProtocol
}

func (n *LinkTrainingNode) Refresh(g *filtergraph.Graph) error {
	w := g.InputWaveform(n, 0)
	if w == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	din, ok := w.(*waveform.Sparse[ibm8b10b.Symbol])
	if !ok {
		return fmt.Errorf("pcie link training: input is not an 8b/10b symbol stream")
	}

	cap, scap, packets := DecodeLinkTraining(din)
	cap.Bump()
	scap.Bump()
	n.Packets = packets
	n.Output(0).Waveform = cap
	n.Output(1).Waveform = scap
	return nil
}
