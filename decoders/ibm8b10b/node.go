package ibm8b10b

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/filtergraph"
	"github.com/ngscopeclient/scopehal-sub005/registry"
	"github.com/ngscopeclient/scopehal-sub005/signal"
)

const ProtocolName = "8b/10b (IBM)"

func init() {
	registry.Register(ProtocolName, New)
}

type Node struct {
	filtergraph.Base
}

func New(id filtergraph.NodeID) filtergraph.Node {
	n := &Node{Base: filtergraph.NewBase(id, filtergraph.CategorySerial, 2)}
	n.AddOutput("data", "", filtergraph.StreamProtocol)

	window := filtergraph.NewIntParameter(20000)
	n.SetParam("Comma Search Window", window)

	format := filtergraph.NewEnumParameter(0)
	format.AddEnumValue("Dotted (K28.5 D21.5)", 0)
	format.AddEnumValue("Hex (K.bc b5)", 1)
	n.SetParam("Display Format", format)

	return n
}

func (n *Node) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= 2 {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamDigital
}

func (n *Node) Refresh(g *filtergraph.Graph) error {
	dataW := g.InputWaveform(n, 0)
	clkW := g.InputWaveform(n, 1)
	if dataW == nil || clkW == nil {
		return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: 0}
	}
	data, ok := signal.AsDigitalSource(dataW)
	if !ok {
		return fmt.Errorf("ibm8b10b: data input is not digital")
	}
	clk, ok := signal.AsDigitalSource(clkW)
	if !ok {
		return fmt.Errorf("ibm8b10b: clk input is not digital")
	}

	window, _ := n.Param("Comma Search Window")
	cap := Decode(data, clk, window.Int())
	cap.Bump()
	n.Output(0).Waveform = cap
	return nil
}
