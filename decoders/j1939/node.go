package j1939

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/filtergraph"
	"github.com/ngscopeclient/scopehal-sub005/registry"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// ProtocolName is the registry key for this decoder.
const ProtocolName = "J1939 PGN Bitmask"

func init() {
	registry.Register(ProtocolName, New)
}

// Node wraps Decode as a filter: one PDU-symbol input, one boolean
// output, parameterized by the PGN to match and the bitmask/pattern
// applied to its payload (spec.md §4.4.11).
type Node struct {
	filtergraph.Base
}

func New(id filtergraph.NodeID) filtergraph.Node {
	n := &Node{Base: filtergraph.NewBase(id, filtergraph.CategoryBus, 1)}
	n.AddOutput("match", "", filtergraph.StreamDigital)
	n.SetParam("Initial Value", filtergraph.NewBoolParameter(false))
	n.SetParam("PGN", filtergraph.NewIntParameter(0))
	n.SetParam("Pattern Bitmask", filtergraph.NewIntParameter(0xff))
	n.SetParam("Pattern Target", filtergraph.NewIntParameter(0))
	return n
}

func (n *Node) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= 1 {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamProtocol
}

func (n *Node) Refresh(g *filtergraph.Graph) error {
	pduW := g.InputWaveform(n, 0)
	if pduW == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	pdu, ok := pduW.(*waveform.Sparse[PDUSymbol])
	if !ok {
		return fmt.Errorf("j1939: input is not a PDU symbol stream")
	}

	initial, _ := n.Param("Initial Value")
	pgn, _ := n.Param("PGN")
	mask, _ := n.Param("Pattern Bitmask")
	pattern, _ := n.Param("Pattern Target")

	cap := Decode(pdu, uint32(pgn.Int()), uint64(mask.Int()), uint64(pattern.Int()), initial.Bool())
	cap.Bump()
	n.Output(0).Waveform = cap
	return nil
}
