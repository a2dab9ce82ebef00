package espi

import (
	"fmt"

	"github.com/ngscopeclient/scopehal-sub005/filtergraph"
	"github.com/ngscopeclient/scopehal-sub005/packet"
	"github.com/ngscopeclient/scopehal-sub005/registry"
	"github.com/ngscopeclient/scopehal-sub005/signal"
	"github.com/ngscopeclient/scopehal-sub005/waveform"
)

// ProtocolName is the registry key for this decoder.
const ProtocolName = "eSPI"

func init() {
	registry.Register(ProtocolName, New)
}

// input port indices: clock, chip select, then the four DQ lines.
const (
	portSCK = iota
	portCSn
	portD0
	portD1
	portD2
	portD3
	portCount
)

// Node is the graph node wrapping Decode: six digital inputs (SCK, CS#,
// DQ0-DQ3), one protocol-symbol output, plus the decoded packets. Width
// defaults to BusWidthAuto (runtime x1/x4 detection); set it to force a
// fixed bus width.
type Node struct {
	filtergraph.Base
	Packets []*packet.Packet
	Width   BusWidth
}

// New constructs an unconnected eSPI decoder node.
func New(id filtergraph.NodeID) filtergraph.Node {
	n := &Node{Base: filtergraph.NewBase(id, filtergraph.CategoryBus, portCount), Width: BusWidthAuto}
	n.AddOutput("data", "", filtergraph.StreamProtocol)
	return n
}

func (n *Node) ValidateChannel(i int, upstream filtergraph.Node, stream int) bool {
	if i >= portCount {
		return false
	}
	return upstream.Output(stream).Type == filtergraph.StreamDigital
}

func (n *Node) Refresh(g *filtergraph.Graph) error {
	var lines [portCount]signal.DataSource[bool]
	for i := 0; i < portCount; i++ {
		w := g.InputWaveform(n, i)
		if w == nil {
			return filtergraph.ErrPortUnconnected{Node: n.ID(), Port: i}
		}
		src, ok := signal.AsDigitalSource(w)
		if !ok {
			return fmt.Errorf("espi: input %d is not a digital waveform", i)
		}
		lines[i] = src
	}

	cap, packets := Decode(lines[portSCK], lines[portCSn], lines[portD0], lines[portD1], lines[portD2], lines[portD3], n.Width)
	cap.Bump()
	n.Packets = packets
	n.Output(0).Waveform = cap
	return nil
}

var _ waveform.Symbol = Symbol{}
